package pipeline

import (
	"github.com/google/uuid"
)

type Option func(p *Pipeline)

func WithRunID(id uuid.UUID) Option {
	return func(p *Pipeline) {
		p.id = id
	}
}

// WithListener registers a listener notified of every transition, in
// registration order.
func WithListener(l Listener) Option {
	return func(p *Pipeline) {
		p.listeners = append(p.listeners, l)
	}
}

// WithDownstream adds a stage run after a successful validation.
func WithDownstream(d Downstream) Option {
	return func(p *Pipeline) {
		p.downstream = append(p.downstream, d)
	}
}
