package core

import "time"

// Pacer converts a target steps-per-second rate into a per-tick step budget
// for drivers that poll on their own cadence. A rate of zero or less means
// unpaced: every tick gets the fallback budget.
type Pacer struct {
	step        time.Duration
	accumulator time.Duration
	last        time.Time
	fallback    int

	now func() time.Time
}

// NewPacer constructs a Pacer targeting sps steps per second. fallback is the
// budget handed out per tick when pacing is disabled.
func NewPacer(sps int, fallback int) *Pacer {
	if fallback <= 0 {
		fallback = 1
	}
	p := &Pacer{fallback: fallback, now: time.Now}
	p.SetRate(sps)
	return p
}

// SetRate changes the target rate. It keeps the accumulated time.
func (p *Pacer) SetRate(sps int) {
	if sps <= 0 {
		p.step = 0
		return
	}
	p.step = time.Second / time.Duration(sps)
	if p.step <= 0 {
		p.step = time.Nanosecond
	}
}

// Paced reports whether a rate limit is in effect.
func (p *Pacer) Paced() bool { return p.step > 0 }

// Budget returns how many steps the driver may run now. The first call
// primes the clock and returns one step when paced.
func (p *Pacer) Budget() int {
	if p.step <= 0 {
		return p.fallback
	}
	now := p.now()
	if p.last.IsZero() {
		p.last = now
		return 1
	}
	p.accumulator += now.Sub(p.last)
	p.last = now
	n := int(p.accumulator / p.step)
	p.accumulator -= time.Duration(n) * p.step
	return n
}

// Interval returns the duration of one paced step, or zero when unpaced.
func (p *Pacer) Interval() time.Duration { return p.step }
