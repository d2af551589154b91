package wifi

import "time"

// ProgressInterval is the delay between connect progress steps.
const ProgressInterval = 500 * time.Millisecond

const progressStep = 10

// Progress is the connect progress indicator. It advances a fixed step per
// tick and runs out after 100%; it does not reflect the actual connection.
type Progress struct {
	value  int
	active bool
}

// Start resets the indicator to 0% and makes it active.
func (p *Progress) Start() {
	p.value = 0
	p.active = true
}

// Advance moves one step forward. It returns false once the indicator has
// passed 100%, at which point it is no longer active.
func (p *Progress) Advance() bool {
	if !p.active {
		return false
	}
	p.value += progressStep
	if p.value > 100 {
		p.value = 100
		p.active = false
		return false
	}
	return true
}

// Stop deactivates the indicator without completing it.
func (p *Progress) Stop() {
	p.active = false
}

// Active reports whether the indicator is running.
func (p *Progress) Active() bool {
	return p.active
}

// Value returns the current percentage.
func (p *Progress) Value() int {
	return p.value
}

// Fraction returns the current value in the 0-1 range used by progress bars.
func (p *Progress) Fraction() float64 {
	return float64(p.value) / 100
}
