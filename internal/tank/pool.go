// Package tank holds the health of the offtanks during one encounter.
package tank

// Pool is the per-tank health vector of a single run. It is not safe for
// concurrent use; each run owns its own Pool.
type Pool struct {
	maxHealth float64
	health    []float64
}

// NewPool returns n tanks at full health.
func NewPool(n int, maxHealth float64) *Pool {
	p := &Pool{maxHealth: maxHealth, health: make([]float64, n)}
	for i := range p.health {
		p.health[i] = maxHealth
	}
	return p
}

// Len is the number of tanks.
func (p *Pool) Len() int { return len(p.health) }

// MaxHealth is the clamp applied to heals.
func (p *Pool) MaxHealth() float64 { return p.maxHealth }

// Health returns the current health of tank i.
func (p *Pool) Health(i int) float64 { return p.health[i] }

// Snapshot copies the health vector.
func (p *Pool) Snapshot() []float64 {
	out := make([]float64, len(p.health))
	copy(out, p.health)
	return out
}

// DamageTarget returns the index of the tank with the highest health. Ties
// go to the lowest index.
func (p *Pool) DamageTarget() int {
	return HighestHealth(p.health)
}

// HighestHealth returns the index of the first maximum of health, or -1
// for an empty slice.
func HighestHealth(health []float64) int {
	best := -1
	for i, h := range health {
		if best < 0 || h > health[best] {
			best = i
		}
	}
	return best
}

// HealTarget maps a 1-based healer id onto its tank. Healers are bound in
// contiguous groups of groupSize: healers 1..groupSize heal tank 0, the
// next group tank 1, and so on.
func HealTarget(healer, groupSize int) int {
	return (healer - 1) / groupSize
}

// ApplyDamage subtracts amount from tank i and reports whether the hit was
// lethal. Health may go negative so overkill can be read back.
func (p *Pool) ApplyDamage(i int, amount float64) (died bool) {
	p.health[i] -= amount
	return p.health[i] <= 0
}

// ApplyHeal adds amount to tank i, clamped to max health, and returns the
// overheal that was discarded.
func (p *Pool) ApplyHeal(i int, amount float64) (overheal float64) {
	h := p.health[i] + amount
	if h > p.maxHealth {
		overheal = h - p.maxHealth
		h = p.maxHealth
	}
	if h < 0 {
		h = 0
	}
	p.health[i] = h
	return overheal
}
