package usecase

import (
	"context"
	"time"

	"github.com/flowtrade/portal/internal/database"
	apperrors "github.com/flowtrade/portal/internal/errors"
	portalDomain "github.com/flowtrade/portal/internal/portal/domain"
)

// accessLogUseCase implements AccessLogUseCase.
type accessLogUseCase struct {
	txManager       database.TxManager
	accessLogRepo   AccessLogRepository
	tokenRepo       TokenRepository
	trackTokenUsage bool
	now             func() time.Time
}

// WriteBatch persists entries in one transaction. When token usage tracking is enabled the
// access counters of tokens with granted entries are bumped in the same transaction.
func (a *accessLogUseCase) WriteBatch(ctx context.Context, entries []*portalDomain.AccessLog) error {
	if len(entries) == 0 {
		return nil
	}

	return a.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := a.accessLogRepo.CreateBatch(ctx, entries); err != nil {
			return err
		}
		if !a.trackTokenUsage {
			return nil
		}

		for _, entry := range entries {
			if entry.Outcome != portalDomain.OutcomeGranted {
				continue
			}
			if err := a.tokenRepo.RecordAccess(ctx, entry.TokenID, entry.AccessedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteOlderThan removes entries older than days, or only counts them when dryRun is set.
func (a *accessLogUseCase) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	if days < 0 {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "days must be zero or positive")
	}

	cutoff := a.now().AddDate(0, 0, -days)

	if dryRun {
		count, err := a.accessLogRepo.CountOlderThan(ctx, cutoff)
		if err != nil {
			return 0, apperrors.Wrap(err, "failed to count access logs")
		}
		return count, nil
	}

	count, err := a.accessLogRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete access logs")
	}
	return count, nil
}

// NewAccessLogUseCase creates a new AccessLogUseCase.
func NewAccessLogUseCase(
	txManager database.TxManager,
	accessLogRepo AccessLogRepository,
	tokenRepo TokenRepository,
	trackTokenUsage bool,
) AccessLogUseCase {
	return &accessLogUseCase{
		txManager:       txManager,
		accessLogRepo:   accessLogRepo,
		tokenRepo:       tokenRepo,
		trackTokenUsage: trackTokenUsage,
		now:             func() time.Time { return time.Now().UTC() },
	}
}
