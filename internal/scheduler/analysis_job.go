package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/holiuunc/etf-justification-engine/internal/domain"
)

// jobTimeout bounds one scheduled analysis pass.
const jobTimeout = 10 * time.Minute

// AnalysisRunner executes one full analysis pass.
type AnalysisRunner interface {
	Run(ctx context.Context) (*domain.RunResult, error)
}

// AnalysisJob runs the daily analysis pipeline.
type AnalysisJob struct {
	runner AnalysisRunner
	log    zerolog.Logger
}

// NewAnalysisJob creates the daily analysis job.
func NewAnalysisJob(runner AnalysisRunner, log zerolog.Logger) *AnalysisJob {
	return &AnalysisJob{
		runner: runner,
		log:    log.With().Str("job", "daily_analysis").Logger(),
	}
}

// Name returns the job name.
func (j *AnalysisJob) Name() string { return "daily_analysis" }

// Run executes one analysis pass.
func (j *AnalysisJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	result, err := j.runner.Run(ctx)
	if err != nil {
		return err
	}

	j.log.Info().
		Str("run_id", result.ID).
		Str("regime", string(result.Regime)).
		Int("focus", len(result.FocusList)).
		Int("recommendations", len(result.Recommendations)).
		Msg("Daily analysis complete")
	return nil
}
