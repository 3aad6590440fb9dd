package pv

import (
	"context"
	"log"

	"golang.org/x/time/rate"
)

// Poller keeps the caches of a set of readable signals fresh by reading
// them in a round-robin loop.  The aggregate read rate is capped so a
// large signal set cannot saturate the gateway link; readings the
// hardware produces faster than the cap are simply skipped.
type Poller struct {
	signals []*Signal
	limiter *rate.Limiter
	cancel  context.CancelFunc
}

// NewPoller returns a Poller over the readable signals in sigs, capped at
// readsPerSec reads per second across the whole set.  Write-only and
// unimplemented signals are dropped.
func NewPoller(readsPerSec float64, sigs ...*Signal) *Poller {
	keep := make([]*Signal, 0, len(sigs))
	for _, s := range sigs {
		if s.Mode() == ReadWrite || s.Mode() == ReadOnly {
			keep = append(keep, s)
		}
	}
	return &Poller{
		signals: keep,
		limiter: rate.NewLimiter(rate.Limit(readsPerSec), 1),
	}
}

// Start begins polling in a background goroutine.  Read errors are
// logged and do not stop the loop; a transiently unreachable gateway
// just leaves the caches stale.
func (p *Poller) Start() {
	if p.cancel != nil || len(p.signals) == 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go func() {
		i := 0
		for {
			if err := p.limiter.Wait(ctx); err != nil {
				return
			}
			s := p.signals[i%len(p.signals)]
			i++
			if _, err := s.Get(); err != nil {
				log.Printf("poll %s: %v", s.Name(), err)
			}
		}
	}()
}

// Stop halts polling.  The Poller may be restarted.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
