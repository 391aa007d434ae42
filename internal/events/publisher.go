package events

import (
	"context"
	"log/slog"

	"wallet/internal/ledger"
)

// Sender is the part of Client the publisher needs.
type Sender interface {
	Publish(ctx context.Context, msg *ChangeMessage) error
}

// Publisher decouples ledger mutations from the broker: Listen only
// enqueues, Run drains the queue. A full queue drops the change with a
// warning so a slow broker never stalls a request.
type Publisher struct {
	sender Sender
	queue  chan *ChangeMessage
	logger *slog.Logger
}

func NewPublisher(sender Sender, buffer int, logger *slog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		sender: sender,
		queue:  make(chan *ChangeMessage, buffer),
		logger: logger,
	}
}

// Listen has the ledger.Listener signature.
func (p *Publisher) Listen(ctx context.Context, c ledger.Change) {
	msg := NewChangeMessage(c)
	select {
	case p.queue <- msg:
	default:
		p.logger.WarnContext(ctx, "Event queue full, dropping change",
			"kind", msg.Kind,
			"revision", msg.Revision)
	}
}

var _ ledger.Listener = (*Publisher)(nil).Listen

// Run publishes queued changes until ctx is done, then flushes what is
// already queued on a best-effort basis.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			p.drain()
			return nil
		case msg := <-p.queue:
			p.send(ctx, msg)
		}
	}
}

func (p *Publisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	for {
		select {
		case msg := <-p.queue:
			p.send(ctx, msg)
		default:
			return
		}
	}
}

func (p *Publisher) send(ctx context.Context, msg *ChangeMessage) {
	if err := p.sender.Publish(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish ledger change",
			"kind", msg.Kind,
			"revision", msg.Revision,
			"error", err)
	}
}
