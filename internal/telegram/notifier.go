package telegram

import (
	"context"

	"github.com/rewired-gh/polysoccer/internal/catalog"
	"github.com/rewired-gh/polysoccer/internal/logger"
)

// loadSender is the part of Client the notifier needs.
type loadSender interface {
	SendLoadFailure(loadErr error) error
	SendRecovery(failureCount, events int) error
}

type loadResult struct {
	events int
	err    error
}

// Notifier turns catalog load results into operator messages: one message on
// the first failure of a sequence, one on the recovery that ends it.
type Notifier struct {
	sender   loadSender
	results  chan loadResult
	failures int
}

// NewNotifier creates a notifier sending through sender.
func NewNotifier(sender loadSender) *Notifier {
	return &Notifier{
		sender:  sender,
		results: make(chan loadResult, 16),
	}
}

// OnLoad is a catalog.LoadHook. It never blocks the loader; results that do not
// fit in the queue are dropped.
func (n *Notifier) OnLoad(c *catalog.Catalog, err error) {
	r := loadResult{err: err}
	if c != nil {
		r.events = c.Len()
	}
	select {
	case n.results <- r:
	default:
		logger.Warn("Notification queue full, dropping load result")
	}
}

// Run delivers queued notifications until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-n.results:
			n.handle(r)
		}
	}
}

func (n *Notifier) handle(r loadResult) {
	if r.err != nil {
		n.failures++
		if n.failures == 1 {
			if err := n.sender.SendLoadFailure(r.err); err != nil {
				logger.Error("Failed to send load failure notification: %v", err)
			}
		}
		return
	}
	if n.failures > 0 {
		if err := n.sender.SendRecovery(n.failures, r.events); err != nil {
			logger.Error("Failed to send recovery notification: %v", err)
		}
		n.failures = 0
	}
}
