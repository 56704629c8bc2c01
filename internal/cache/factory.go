package cache

import "fmt"

// New builds the backend selected by config.Backend
func New(config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}
	if !config.Backend.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCacheType, config.Backend)
	}

	switch config.Backend {
	case CacheTypeRedis:
		return NewRedisCache(config)
	default:
		return NewMemoryCache(config), nil
	}
}
