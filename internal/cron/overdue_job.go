package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/dcervantes/equiplend-backend/pkg/logger"
)

// OverdueJobParams configure the overdue sweep.
type OverdueJobParams struct {
	Logger    *logger.Logger
	Requests  overdueMarker
	BatchSize int
}

type overdueMarker interface {
	MarkOverdue(ctx context.Context, asOf time.Time, limit int) (int, error)
}

// NewOverdueJob builds the job that flags issued requests past their due date.
func NewOverdueJob(params OverdueJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Requests == nil {
		return nil, fmt.Errorf("requests service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return &overdueJob{
		logg:     params.Logger,
		requests: params.Requests,
		batch:    batch,
		now:      time.Now,
	}, nil
}

type overdueJob struct {
	logg     *logger.Logger
	requests overdueMarker
	batch    int
	now      func() time.Time
}

func (j *overdueJob) Name() string { return "overdue-sweep" }

// Run sweeps in batches until a pass marks nothing, so a backlog larger than
// one batch still drains within a single cycle.
func (j *overdueJob) Run(ctx context.Context) error {
	asOf := j.now().UTC()
	total := 0
	for {
		marked, err := j.requests.MarkOverdue(ctx, asOf, j.batch)
		total += marked
		if err != nil {
			return fmt.Errorf("mark overdue: %w", err)
		}
		if marked == 0 {
			break
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": total})
	j.logg.Info(logCtx, "overdue sweep complete")
	return nil
}
