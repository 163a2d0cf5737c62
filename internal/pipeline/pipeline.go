package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/fraudguard/fraud-pipeline/internal/artifact"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Ingester interface {
	Name() string
	Run(ctx context.Context) (artifact.Ingestion, error)
}

type Validator interface {
	Name() string
	Run(ctx context.Context, in artifact.Ingestion) (artifact.Validation, error)
}

// Downstream is a stage that consumes validated artifacts, such as training
// or publishing.
type Downstream interface {
	Name() string
	Run(ctx context.Context, in artifact.Ingestion, v artifact.Validation) error
}

// Transition is sent to the listeners each time the pipeline changes state.
type Transition struct {
	RunID uuid.UUID
	From  State
	To    State
	At    time.Time
	// Stage is the stage that ran while in From, if any.
	Stage      string
	Ingestion  artifact.Ingestion
	Validation artifact.Validation
	Err        error
}

// Pipeline sequences ingestion, validation and downstream stages. A Pipeline
// runs once.
type Pipeline struct {
	id         uuid.UUID
	ingester   Ingester
	validator  Validator
	downstream []Downstream
	listeners  []Listener
	log        *zap.SugaredLogger

	mu         sync.Mutex
	state      State
	ingestion  artifact.Ingestion
	validation artifact.Validation
}

func New(ingester Ingester, validator Validator, opts ...Option) *Pipeline {
	p := &Pipeline{
		id:        uuid.New(),
		ingester:  ingester,
		validator: validator,
		state:     NotStarted,
		log:       zap.S().Named("pipeline"),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Pipeline) ID() uuid.UUID {
	return p.id
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) Ingestion() artifact.Ingestion {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ingestion
}

func (p *Pipeline) Validation() artifact.Validation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.validation
}

// Run executes the stages in order and returns nil only when the run
// succeeded. Infrastructure failures are returned as *StageError, a failed
// validation as *ErrPipelineFailed.
func (p *Pipeline) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.state != NotStarted {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.state = Ingesting
	p.mu.Unlock()

	p.log.Infow("pipeline started", "run_id", p.id)
	p.notify(ctx, Transition{From: NotStarted, To: Ingesting})

	in, err := p.ingester.Run(ctx)
	if err == nil {
		err = in.Verify()
	}
	if err != nil {
		return p.fail(ctx, p.ingester.Name(), NewStageError(p.ingester.Name(), err))
	}
	p.advance(ctx, p.ingester.Name(), Validating, func() { p.ingestion = in }, nil)

	v, err := p.validator.Run(ctx, in)
	if err == nil {
		err = v.Verify()
	}
	if err != nil {
		return p.fail(ctx, p.validator.Name(), NewStageError(p.validator.Name(), err))
	}
	p.mu.Lock()
	p.validation = v
	p.mu.Unlock()

	if !v.ValidationStatus {
		return p.fail(ctx, p.validator.Name(), NewErrPipelineFailed(v.Message))
	}

	for _, d := range p.downstream {
		p.log.Infow("running downstream stage", "run_id", p.id, "stage", d.Name())
		if err := d.Run(ctx, in, v); err != nil {
			return p.fail(ctx, d.Name(), NewStageError(d.Name(), err))
		}
	}

	p.advance(ctx, p.validator.Name(), Succeeded, nil, nil)
	p.log.Infow("pipeline succeeded", "run_id", p.id)

	return nil
}

func (p *Pipeline) fail(ctx context.Context, stage string, err error) error {
	p.advance(ctx, stage, Failed, nil, err)
	p.log.Errorw("pipeline failed", "run_id", p.id, "stage", stage, "error", err)
	return err
}

// advance moves to the next state, applying update under the lock, and
// notifies the listeners.
func (p *Pipeline) advance(ctx context.Context, stage string, to State, update func(), err error) {
	p.mu.Lock()
	from := p.state
	p.state = to
	if update != nil {
		update()
	}
	p.mu.Unlock()

	p.notify(ctx, Transition{From: from, To: to, Stage: stage, Err: err})
}

func (p *Pipeline) notify(ctx context.Context, t Transition) {
	// listeners record the outcome even when the run was cancelled
	ctx = context.WithoutCancel(ctx)

	p.mu.Lock()
	t.RunID = p.id
	t.At = time.Now()
	t.Ingestion = p.ingestion
	t.Validation = p.validation
	p.mu.Unlock()

	for _, l := range p.listeners {
		if err := l.OnTransition(ctx, t); err != nil {
			p.log.Errorw("listener failed", "run_id", p.id, "listener", l.Name(), "from", t.From, "to", t.To, "error", err)
		}
	}
}
