package verify

import (
	"context"
	"log/slog"
	"time"
)

// Poller bounds a readiness loop: a fixed number of attempts with a fixed
// sleep between them.
type Poller struct {
	Retries  int           // total attempts, default 30
	Interval time.Duration // sleep between attempts, default 2s
	Logger   *slog.Logger
}

func (p Poller) withDefaults() Poller {
	if p.Retries <= 0 {
		p.Retries = 30
	}
	if p.Interval <= 0 {
		p.Interval = 2 * time.Second
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	return p
}

// Await runs probe until it reports ready or the retry budget is spent.
// The probe returns a human-readable status for the current attempt; the
// last observed status is carried in the timeout failure so the operator
// sees what the target was doing when the budget ran out.
func (p Poller) Await(ctx context.Context, target string, probe func(ctx context.Context) (ready bool, status string)) error {
	p = p.withDefaults()

	lastStatus := "no attempt made"
	for attempt := 1; attempt <= p.Retries; attempt++ {
		ready, status := probe(ctx)
		if ready {
			p.Logger.Info("target ready", slog.String("target", target), slog.Int("attempt", attempt))
			return nil
		}
		lastStatus = status
		p.Logger.Debug("target not ready",
			slog.String("target", target),
			slog.Int("attempt", attempt),
			slog.String("status", status),
		)

		if attempt == p.Retries {
			break
		}
		select {
		case <-ctx.Done():
			return Connectivityf("waiting for %s: %v (last status: %s)", target, ctx.Err(), lastStatus)
		case <-time.After(p.Interval):
		}
	}

	return Connectivityf("%s not ready after %d attempts (last status: %s)", target, p.Retries, lastStatus)
}
