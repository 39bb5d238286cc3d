package mocks

import (
	"context"
	"sync"

	"github.com/davicafu/eventshop/internal/shared/events"
)

// RecordingPublisher captura los envelopes publicados por un servicio.
// Satisface el puerto EventPublisher de todos los contextos.
type RecordingPublisher struct {
	mu        sync.Mutex
	Published []events.Envelope
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) Publish(ctx context.Context, env events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Published = append(p.Published, env)
	return nil
}

// ByType devuelve los envelopes publicados de un tipo concreto.
func (p *RecordingPublisher) ByType(eventType string) []events.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Envelope
	for _, env := range p.Published {
		if env.EventType == eventType {
			out = append(out, env)
		}
	}
	return out
}
