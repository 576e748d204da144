// Package services – GenerationService
//
// This file implements GenerationService, the application-level component
// that owns the generation pipeline: normalize untrusted source text, enforce
// length bounds, check the per-user UTC-day quota, record a pending attempt,
// invoke the proposal provider, and finalize the attempt as succeeded or
// failed. Every provider invocation is followed by exactly one terminal
// transition, even when the provider errors or panics mid-call; a row is
// never left pending.
//
// The quota check and the pending insert run inside a single database
// transaction, so two concurrent submissions from the same user cannot both
// observe the pre-insert count.
//
// Observability: Generate is OpenTelemetry-instrumented; spans carry the user
// id and input length. Provider and datastore failures are logged with the
// attempt id, user id, and timing, then surfaced as an opaque error.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmanix/damix-10x-cards-sub000/internal/domain"
	"github.com/dmanix/damix-10x-cards-sub000/internal/proposals"
	"github.com/dmanix/damix-10x-cards-sub000/internal/repo"
)

// GenerationService coordinates the generation pipeline.
type GenerationService struct {
	DB       *gorm.DB
	Provider proposals.Provider

	// Logger is an explicit logging port; a nil logger disables service logs.
	Logger *zerolog.Logger

	// DailyLimit is the maximum successful generations per user per UTC day.
	DailyLimit int
	// MinInputLength / MaxInputLength bound the normalized input, inclusive.
	MinInputLength int
	MaxInputLength int
}

// NewGenerationService constructs a GenerationService with the reference
// length bounds.
func NewGenerationService(db *gorm.DB, provider proposals.Provider, logger *zerolog.Logger, dailyLimit int) *GenerationService {
	return &GenerationService{
		DB:             db,
		Provider:       provider,
		Logger:         logger,
		DailyLimit:     dailyLimit,
		MinInputLength: 1000,
		MaxInputLength: 20000,
	}
}

// GenerateResult is the outcome of one Generate call. Either Proposals is
// populated (the attempt succeeded), or LowQuality is set with a reason the
// caller can show to the user. DailyLimit reflects the quota after the call:
// decremented by exactly one on success, unchanged on a low-quality
// rejection.
type GenerateResult struct {
	Generation *domain.Generation
	Proposals  []proposals.Proposal
	DailyLimit DailyUsage
	LowQuality bool
	Message    string
}

// Generate runs the full pipeline for one submission.
//
// Failure modes, in order:
//   - *InputLengthError when the normalized text is outside bounds; no row is
//     created.
//   - *DailyLimitExceededError when the quota is exhausted; no row is created.
//   - ErrProviderFailure when the provider errors; the attempt is finalized
//     failed with code "provider_error" before the error is returned, and the
//     provider detail never leaves the service.
//
// A low-quality provider verdict is not an error: the attempt is finalized
// failed with code "low_quality_input" and a normal result carrying the
// reason is returned.
func (s *GenerationService) Generate(ctx context.Context, userID, rawText string, now time.Time) (*GenerateResult, error) {
	tr := otel.Tracer("services/GenerationService")
	ctx, span := tr.Start(ctx, "Generate",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	in := NormalizeInput(rawText)
	span.SetAttributes(attribute.Int("input.length", in.Length))

	if err := s.EnsureInputLength(in); err != nil {
		return nil, err
	}

	// Quota check and pending insert in one transaction: SQLite serializes
	// writers, so concurrent submissions cannot both pass the check.
	var (
		usage DailyUsage
		gen   *domain.Generation
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		used, err := repo.CountSucceededSince(ctx, tx, userID, utcStartOfDay(now))
		if err != nil {
			return err
		}
		usage = s.usageFromCount(int(used), now)
		if usage.Remaining <= 0 {
			return &DailyLimitExceededError{
				Limit:     usage.Limit,
				Remaining: usage.Remaining,
				ResetsAt:  usage.ResetsAt,
			}
		}
		gen, err = repo.CreateGeneration(ctx, tx, userID, in.Fingerprint, in.Length)
		return err
	})
	if err != nil {
		return nil, err
	}

	started := time.Now()
	res, provErr := s.callProvider(ctx, in.Text)
	elapsed := time.Since(started)

	// The client may disconnect while the provider is running; the terminal
	// transition must still reach the datastore so the row never stays
	// pending.
	fctx := context.WithoutCancel(ctx)

	if provErr != nil {
		return nil, s.finalizeFailed(fctx, gen, in, provErr, elapsed)
	}

	if res.LowQuality {
		if err := repo.MarkGenerationFailed(fctx, s.DB, gen.ID, userID, ErrorCodeLowQuality, res.Message); err != nil {
			return nil, fmt.Errorf("finalize low-quality generation %s: %w", gen.ID, err)
		}
		finished := time.Now().UTC()
		code := ErrorCodeLowQuality
		gen.Status = domain.GenerationStatusFailed
		gen.ErrorCode = &code
		gen.FinishedAt = &finished
		// Remaining is untouched: failed attempts never consume quota.
		return &GenerateResult{
			Generation: gen,
			DailyLimit: usage,
			LowQuality: true,
			Message:    res.Message,
		}, nil
	}

	count := len(res.Proposals)
	if err := repo.MarkGenerationSucceeded(fctx, s.DB, gen.ID, userID, count); err != nil {
		return nil, fmt.Errorf("finalize succeeded generation %s: %w", gen.ID, err)
	}
	finished := time.Now().UTC()
	gen.Status = domain.GenerationStatusSucceeded
	gen.GeneratedCount = &count
	gen.FinishedAt = &finished

	// Reflect the attempt just consumed deterministically instead of
	// re-querying.
	after := usage
	after.Used++
	after.Remaining = usage.Remaining - 1
	if after.Remaining < 0 {
		after.Remaining = 0
	}

	return &GenerateResult{
		Generation: gen,
		Proposals:  res.Proposals,
		DailyLimit: after,
	}, nil
}

// callProvider invokes the provider, converting panics into errors so the
// caller's finalize step always runs and the attempt never stays pending.
func (s *GenerationService) callProvider(ctx context.Context, text string) (res *proposals.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("provider panic: %v", r)
		}
	}()
	return s.Provider.Generate(ctx, text)
}

// finalizeFailed marks the attempt failed with a provider error code, writes
// the error log row best effort, logs the detail server-side, and returns the
// opaque ErrProviderFailure. Callers pass a context detached from
// cancellation so finalization always reaches the datastore.
func (s *GenerationService) finalizeFailed(fctx context.Context, gen *domain.Generation, in NormalizedInput, provErr error, elapsed time.Duration) error {
	if err := repo.MarkGenerationFailed(fctx, s.DB, gen.ID, gen.UserID, ErrorCodeProvider, provErr.Error()); err != nil {
		s.log().Error().
			Err(err).
			Str("generation_id", gen.ID).
			Str("user_id", gen.UserID).
			Msg("failed to finalize generation after provider error")
	}
	if err := repo.CreateErrorLog(fctx, s.DB, gen.UserID, in.Fingerprint, in.Length, ErrorCodeProvider, provErr.Error()); err != nil {
		s.log().Warn().Err(err).Str("generation_id", gen.ID).Msg("error log write failed")
	}

	s.log().Error().
		Err(provErr).
		Str("generation_id", gen.ID).
		Str("user_id", gen.UserID).
		Dur("provider_latency", elapsed).
		Msg("proposal provider failed")

	return ErrProviderFailure
}

// log returns the configured logger or a nop logger.
func (s *GenerationService) log() *zerolog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	nop := zerolog.Nop()
	return &nop
}
