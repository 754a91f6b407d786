package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ReindexReport is a SyncReport tagged with a run identifier, the shape the
// reindex trigger returns to its caller.
type ReindexReport struct {
	RunID    string       `json:"run_id"`
	Duration string       `json:"duration"`
	Results  []TypeResult `json:"results"`
}

// ReindexUsecase wraps a full sync pass for the external reindex-all
// trigger. Skip-listed content types appear in the report as completed
// skips rather than errors.
type ReindexUsecase struct {
	sync   *SyncUsecase
	logger *slog.Logger
}

func NewReindexUsecase(sync *SyncUsecase, logger *slog.Logger) *ReindexUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReindexUsecase{sync: sync, logger: logger}
}

// Execute runs a full reindex over every registered content type.
func (u *ReindexUsecase) Execute(ctx context.Context) ReindexReport {
	runID := uuid.NewString()
	start := time.Now()
	u.logger.Info("reindex started", "run_id", runID)

	report := u.sync.SyncAll(ctx)

	elapsed := time.Since(start)
	u.logger.Info("reindex finished",
		"run_id", runID,
		"duration", elapsed.String(),
		"failed", report.Failed(),
	)

	return ReindexReport{
		RunID:    runID,
		Duration: elapsed.String(),
		Results:  report.Results,
	}
}
