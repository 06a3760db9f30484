package mailer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Simplici0/invoice-roi/internal/logger"
	"github.com/Simplici0/invoice-roi/internal/metrics"
)

// Dispatcher sends mail in the background. Failures are logged and counted,
// never returned to the caller.
type Dispatcher struct {
	mailer  Mailer
	timeout time.Duration
	log     logger.Logger
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

func NewDispatcher(m Mailer, timeout time.Duration, log logger.Logger, mt *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		mailer:  m,
		timeout: timeout,
		log:     log,
		metrics: mt,
	}
}

// Dispatch starts sending msg and returns immediately.
func (d *Dispatcher) Dispatch(msg Message) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.send(msg)
	}()
}

func (d *Dispatcher) send(msg Message) {
	log := d.log.WithFields(map[string]interface{}{"to": msg.To})
	defer func() {
		if r := recover(); r != nil {
			d.metrics.MailDispatched("failed")
			log.Error("mail dispatch panicked", map[string]interface{}{"panic": r})
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	start := time.Now()
	err := d.mailer.Send(ctx, msg)
	fields := map[string]interface{}{"duration_ms": time.Since(start).Milliseconds()}

	switch {
	case err == nil:
		d.metrics.MailDispatched("sent")
		log.Info("report mail sent", fields)
	case errors.Is(err, ErrNotConfigured):
		d.metrics.MailDispatched("skipped")
		log.Debug("report mail skipped, no transport configured", fields)
	default:
		d.metrics.MailDispatched("failed")
		log.WithError(err).Error("report mail failed", fields)
	}
}

// Wait blocks until in-flight sends finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
