package pipeline

import (
	"context"
	"errors"

	"github.com/fraudguard/fraud-pipeline/internal/store"
	"github.com/fraudguard/fraud-pipeline/internal/store/model"
)

// RunRecorder keeps the run registry in sync with the pipeline: the record
// is created when the run starts and updated on every later transition.
type RunRecorder struct {
	runs store.Run
	run  model.Run
}

func NewRunRecorder(runs store.Run, pipelineName, artifactDir string, seed int64) *RunRecorder {
	return &RunRecorder{
		runs: runs,
		run: model.Run{
			Pipeline:    pipelineName,
			ArtifactDir: artifactDir,
			Seed:        seed,
		},
	}
}

func (r *RunRecorder) Name() string {
	return "run_recorder"
}

func (r *RunRecorder) OnTransition(ctx context.Context, t Transition) error {
	r.run.ID = t.RunID
	r.run.State = t.To.String()
	r.run.TrainFile = t.Ingestion.TrainedFilePath
	r.run.TestFile = t.Ingestion.TestFilePath
	r.run.DriftReport = t.Validation.DriftReportPath

	var failed *ErrPipelineFailed
	switch {
	case errors.As(t.Err, &failed):
		r.run.Message = failed.Message
	case t.Err != nil:
		r.run.Message = t.Err.Error()
	default:
		r.run.Message = t.Validation.Message
	}

	if t.To.Terminal() {
		at := t.At
		r.run.FinishedAt = &at
	}

	if t.From == NotStarted {
		created, err := r.runs.Create(ctx, r.run)
		if err != nil {
			return err
		}
		r.run = *created
		return nil
	}

	updated, err := r.runs.Update(ctx, r.run)
	if err != nil {
		return err
	}
	r.run = *updated
	return nil
}
