// Package dist draws the random quantities of an encounter: boss damage,
// boss misses, heals, attack intervals and healer reaction jitter.
package dist

import (
	"math"

	"offtank-sim/internal/config"
)

// Source is the random stream a Provider consumes. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// HealSample is one resolved cast of the configured spell.
type HealSample struct {
	Amount   float64
	ManaCost float64
	CastTime float64
	Crit     bool
}

// Provider samples encounter distributions from a single Source. Every call
// is independent; the only state is the source itself.
type Provider struct {
	cfg config.Config
	src Source
}

// NewProvider binds cfg to src.
func NewProvider(cfg config.Config, src Source) *Provider {
	return &Provider{cfg: cfg, src: src}
}

// Damage draws an unmitigated hit from [DamageMin, DamageMax], applies
// mitigation and rounds to the nearest integer.
func (p *Provider) Damage() float64 {
	raw := p.uniform(p.cfg.DamageMin, p.cfg.DamageMax)
	return math.Round(raw * (1 - p.cfg.Mitigation))
}

// Misses reports whether the next attack misses.
func (p *Provider) Misses() bool {
	return p.src.Float64() < p.cfg.MissChance
}

// BaseHeal is the non-critical amount of one cast.
func (p *Provider) BaseHeal() float64 {
	spell := p.cfg.Spell
	return (spell.BaseHeal + spell.Coefficient*p.cfg.TotalPlusHeal()) * p.cfg.HealingMultiplier
}

// ManaCost is the spell cost after improved healing talent points.
func (p *Provider) ManaCost() float64 {
	return p.cfg.Spell.ManaCost * (1 - 0.05*float64(p.cfg.ImprovedHealingPoints))
}

// Heal resolves one cast, rolling for a critical heal.
func (p *Provider) Heal() HealSample {
	s := HealSample{
		Amount:   p.BaseHeal(),
		ManaCost: p.ManaCost(),
		CastTime: p.cfg.Spell.CastTime,
	}
	if p.src.Float64() <= p.cfg.CritChance {
		s.Amount *= p.cfg.CritMultiplier
		s.Crit = true
	}
	return s
}

// AttackInterval returns the delay until the next boss attack.
func (p *Provider) AttackInterval() float64 {
	ai := p.cfg.AttackInterval
	if ai.Mode == config.IntervalFixed {
		return p.Round(ai.Fixed)
	}
	return p.Round(p.uniform(ai.Min, ai.Max))
}

// ReactionJitter is the extra delay a healer needs before recasting.
func (p *Provider) ReactionJitter() float64 {
	return p.Round(p.src.Float64() * p.cfg.ReactionTime)
}

// HealerStart staggers a healer's first cast within one cast time.
func (p *Provider) HealerStart() float64 {
	return p.Round(p.src.Float64() * p.cfg.Spell.CastTime)
}

// Round quantizes a simulated time to the configured resolution.
func (p *Provider) Round(t float64) float64 {
	if p.cfg.TimeResolution < 0 {
		return t
	}
	scale := math.Pow10(p.cfg.TimeResolution)
	return math.Round(t*scale) / scale
}

func (p *Provider) uniform(lo, hi float64) float64 {
	return lo + p.src.Float64()*(hi-lo)
}

// Sequence replays fixed values in order, cycling once exhausted. It lets
// tests script exact encounters.
type Sequence struct {
	Values []float64
	next   int
}

// Float64 implements Source.
func (s *Sequence) Float64() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.next%len(s.Values)]
	s.next++
	return v
}

// Constant is a Source that always returns the same value.
type Constant float64

// Float64 implements Source.
func (c Constant) Float64() float64 { return float64(c) }
