package verify

import (
	"context"
	"time"

	"github.com/qolzam/telar-recaptcha/internal/cache"
	"github.com/qolzam/telar-recaptcha/internal/pkg/log"
	"github.com/qolzam/telar-recaptcha/internal/recaptcha"
	"github.com/qolzam/telar-recaptcha/verify/models"
	"github.com/qolzam/telar-recaptcha/verify/repository"
)

// Input is one verification request after transport decoding.
type Input struct {
	Token    string
	RemoteIP string
	Action   string
	Caller   string
}

// bypassChecker is implemented by verifiers that support a bypass code.
type bypassChecker interface {
	IsBypass(token string) bool
}

// Service runs token validation with the optional replay guard and audit trail.
type Service struct {
	verifier recaptcha.Verifier
	guard    *ReplayGuard
	audit    repository.AuditRepository
	now      func() time.Time
}

// NewService creates a service around verifier.
func NewService(verifier recaptcha.Verifier) *Service {
	return &Service{
		verifier: verifier,
		now:      time.Now,
	}
}

// WithReplayGuard enables local rejection of reused tokens.
func (s *Service) WithReplayGuard(guard *ReplayGuard) *Service {
	s.guard = guard
	return s
}

// WithAudit enables persisting every outcome.
func (s *Service) WithAudit(audit repository.AuditRepository) *Service {
	s.audit = audit
	return s
}

// Verify validates in.Token. Replay-guard and audit failures are logged and
// never change the outcome reported by the verifier.
func (s *Service) Verify(ctx context.Context, in Input) recaptcha.Outcome {
	tokenHash := HashToken(in.Token)
	bypassed := s.isBypass(in.Token)
	guarded := s.guard != nil && !bypassed

	if guarded {
		seen, err := s.guard.Seen(ctx, in.Token)
		if err != nil {
			log.WarnWithContext(ctx, "[Verify] %v", err)
		}
		if seen {
			outcome := recaptcha.Outcome{Error: DuplicateTokenError}
			s.record(ctx, in, tokenHash, bypassed, outcome)
			return outcome
		}
	}

	outcome := s.verifier.Validate(ctx, in.Token, recaptcha.ValidateOptions{
		RemoteIP:       in.RemoteIP,
		ExpectedAction: in.Action,
	})

	if outcome.Success && guarded {
		stored, err := s.guard.Remember(ctx, in.Token)
		if err != nil {
			log.WarnWithContext(ctx, "[Verify] %v", err)
		} else if !stored {
			outcome.Success = false
			outcome.Error = DuplicateTokenError
		}
	}

	s.record(ctx, in, tokenHash, bypassed, outcome)
	return outcome
}

// ReplayStats returns the replay guard counters, or false when the guard is off.
func (s *Service) ReplayStats() (cache.CacheStats, bool) {
	if s.guard == nil {
		return cache.CacheStats{}, false
	}
	return s.guard.Stats(), true
}

func (s *Service) isBypass(token string) bool {
	if checker, ok := s.verifier.(bypassChecker); ok {
		return checker.IsBypass(token)
	}
	return false
}

func (s *Service) record(ctx context.Context, in Input, tokenHash string, bypassed bool, outcome recaptcha.Outcome) {
	if outcome.Success {
		log.InfoWithContext(ctx, "[Verify] token %s accepted (caller=%q action=%q)", tokenHash[:12], in.Caller, in.Action)
	} else {
		log.WarnWithContext(ctx, "[Verify] token %s rejected: %s (status=%d)", tokenHash[:12], outcome.Error, outcome.StatusCode)
	}
	log.DebugStruct(outcome)

	if s.audit == nil {
		return
	}

	record := &models.AuditRecord{
		TokenHash:      tokenHash,
		Success:        outcome.Success,
		Error:          outcome.Error,
		StatusCode:     outcome.StatusCode,
		ExpectedAction: in.Action,
		RemoteIP:       in.RemoteIP,
		Caller:         in.Caller,
		Bypassed:       bypassed,
		CreatedDate:    s.now().Unix(),
	}
	if outcome.Result != nil {
		score := outcome.Result.Score
		record.Score = &score
		record.Action = outcome.Result.Action
		record.Hostname = outcome.Result.Hostname
	}

	if err := s.audit.Save(ctx, record); err != nil {
		log.ErrorWithContext(ctx, "[Verify] failed to record audit for token %s: %v", tokenHash[:12], err)
	}
}
