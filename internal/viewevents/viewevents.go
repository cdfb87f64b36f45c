// Package viewevents publishes computed frames to Kafka as view events.
package viewevents

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/hexview/internal/core/observability"
	"github.com/mohammed-shakir/hexview/internal/view"
)

type Event struct {
	Origin     string    `json:"origin"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Zoom       int       `json:"zoom"`
	Resolution int       `json:"resolution"`
	Cells      []string  `json:"cells"`
	Selected   string    `json:"selected,omitempty"`
	TS         time.Time `json:"ts"`
}

type Publisher struct {
	topic   string
	events  chan Event
	prod    sarama.AsyncProducer
	logger  *slog.Logger
	now     func() time.Time
	stopped chan struct{}
	errDone chan struct{}

	mu     sync.RWMutex
	closed bool
}

var _ view.FrameSink = (*Publisher)(nil)

func NewPublisher(brokers []string, topic string, queueSize int, logger *slog.Logger) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false
	cfg.Producer.RequiredAcks = sarama.WaitForLocal

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("viewevents: create async producer: %w", err)
	}
	return newPublisher(prod, topic, queueSize, logger), nil
}

func newPublisher(prod sarama.AsyncProducer, topic string, queueSize int, logger *slog.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		topic:   topic,
		events:  make(chan Event, queueSize),
		prod:    prod,
		logger:  logger,
		now:     time.Now,
		stopped: make(chan struct{}),
		errDone: make(chan struct{}),
	}

	go func() {
		defer close(p.stopped)
		for ev := range p.events {
			b, err := json.Marshal(ev)
			if err != nil {
				p.logger.Warn("viewevents: marshal error", "err", err)
				continue
			}
			p.prod.Input() <- &sarama.ProducerMessage{
				Topic: p.topic,
				// keyed by the first cell so one area stays on one partition
				Key:   sarama.StringEncoder(firstCell(ev)),
				Value: sarama.ByteEncoder(b),
			}
		}
	}()

	go func() {
		defer close(p.errDone)
		for err := range p.prod.Errors() {
			if err != nil {
				observability.IncViewEvent("error")
				p.logger.Warn("viewevents: producer error", "err", err)
			}
		}
	}()

	return p
}

// FrameComputed queues an event for f. A full queue drops the event so the
// caller never blocks.
func (p *Publisher) FrameComputed(origin string, f view.Frame) {
	ev := Event{
		Origin:     origin,
		Lat:        f.Viewport.Center.Lat,
		Lng:        f.Viewport.Center.Lng,
		Zoom:       f.Viewport.Zoom,
		Resolution: f.Resolution,
		Cells:      make([]string, 0, len(f.Cells)),
		Selected:   string(f.Selected),
		TS:         p.now().UTC(),
	}
	for _, c := range f.Cells {
		ev.Cells = append(ev.Cells, string(c.ID))
	}
	p.Publish(ev)
}

func (p *Publisher) Publish(ev Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		observability.IncViewEvent("dropped")
		return
	}
	select {
	case p.events <- ev:
		observability.IncViewEvent("queued")
	default:
		observability.IncViewEvent("dropped")
	}
}

// Close drains queued events and closes the producer. Later events are
// dropped.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.events)
	p.mu.Unlock()
	<-p.stopped

	if err := p.prod.Close(); err != nil {
		return fmt.Errorf("viewevents: close producer: %w", err)
	}
	<-p.errDone
	return nil
}

func firstCell(ev Event) string {
	if len(ev.Cells) == 0 {
		return ""
	}
	return ev.Cells[0]
}
