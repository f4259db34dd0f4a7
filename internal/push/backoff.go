package push

import (
	"math"
	"math/rand"
	"time"
)

// #region backoff

// Backoff schedules reconnect delays: exponential growth from Initial up to
// Max, with proportional jitter. The exact constants are tuning, not
// contract, so they are configured.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
	Jitter  float64 // fraction of the delay, e.g. 0.2 = ±20%
}

// DefaultBackoff returns the default reconnect schedule.
func DefaultBackoff() Backoff {
	return Backoff{
		Initial: 500 * time.Millisecond,
		Max:     30 * time.Second,
		Factor:  2.0,
		Jitter:  0.2,
	}
}

// Delay computes the wait before reconnect attempt n (first attempt is 1).
func (b Backoff) Delay(attempt int, rnd *rand.Rand) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	initial := b.Initial
	if initial <= 0 {
		initial = DefaultBackoff().Initial
	}
	factor := b.Factor
	if factor < 1 {
		factor = DefaultBackoff().Factor
	}
	max := b.Max
	if max <= 0 {
		max = DefaultBackoff().Max
	}

	d := float64(initial) * math.Pow(factor, float64(attempt-1))
	if d > float64(max) {
		d = float64(max)
	}
	if b.Jitter > 0 && rnd != nil {
		// Spread in [d*(1-jitter), d*(1+jitter)] so reconnecting clients
		// do not stampede the backend in lockstep.
		d += d * b.Jitter * (2*rnd.Float64() - 1)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// #endregion backoff
