// CUE schema validation and value checks
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"math"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var defaultSchema []byte

// DefaultSchema returns the embedded CUE schema for encounter files.
func DefaultSchema() []byte {
	return append([]byte(nil), defaultSchema...)
}

// ValidateWithCue validates a YAML document against the #Config definition
// of a CUE schema.
func ValidateWithCue(filename string, yamlBytes, schemaBytes []byte) error {
	if len(bytes.TrimSpace(yamlBytes)) == 0 {
		return nil
	}
	ctx := cuecontext.New()

	schemaVal := ctx.CompileBytes(schemaBytes, cue.Filename("schema.cue"))
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("cannot compile CUE schema: %w", err)
	}
	def := schemaVal.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("schema has no #Config definition: %w", err)
	}

	file, err := cueyaml.Extract(filename, yamlBytes)
	if err != nil {
		return fmt.Errorf("cannot read YAML config: %w", err)
	}
	configVal := ctx.BuildFile(file)
	if err := configVal.Err(); err != nil {
		return fmt.Errorf("cannot build YAML config: %w", err)
	}

	final := def.Unify(configVal)
	if err := final.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: schema validation failed: %w", ErrInvalid, err)
	}
	return nil
}

// maxTimeResolution keeps 10^resolution finite and well inside float64
// precision for fight-length times.
const maxTimeResolution = 9

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate rejects configurations the scheduler cannot run meaningfully.
func (c Config) Validate() error {
	if c.MaxHealth <= 0 {
		return invalid("max_health must be greater than 0")
	}
	if c.Tanks <= 0 {
		return invalid("tanks must be greater than 0")
	}
	if c.FightLength <= 0 || math.IsInf(c.FightLength, 0) || math.IsNaN(c.FightLength) {
		return invalid("fight_length must be a finite value greater than 0")
	}
	if c.DamageMin < 0 || c.DamageMax < c.DamageMin {
		return invalid("damage range [%g, %g] is not valid", c.DamageMin, c.DamageMax)
	}
	if err := probability("mitigation", c.Mitigation); err != nil {
		return err
	}
	if err := probability("miss_chance", c.MissChance); err != nil {
		return err
	}
	if err := probability("crit_chance", c.CritChance); err != nil {
		return err
	}
	if c.CritMultiplier < 1 {
		return invalid("crit_multiplier must be at least 1")
	}
	if c.HealingMultiplier < 0 {
		return invalid("healing_multiplier must not be negative")
	}
	if c.PlusHeal < 0 {
		return invalid("plus_heal must not be negative")
	}
	if c.ImprovedHealingPoints < 0 || c.ImprovedHealingPoints > 5 {
		return invalid("improved_healing_points must be between 0 and 5")
	}
	if c.ReactionTime < 0 {
		return invalid("reaction_time must not be negative")
	}

	if c.TimeResolution > maxTimeResolution {
		return invalid("time_resolution must be at most %d decimal places", maxTimeResolution)
	}
	step := c.minStep()
	switch c.AttackInterval.Mode {
	case IntervalFixed:
		if c.AttackInterval.Fixed < step {
			return invalid("attack_interval.fixed must be at least %g", step)
		}
	case IntervalUniform:
		if c.AttackInterval.Min < step {
			return invalid("attack_interval.min must be at least %g", step)
		}
		if c.AttackInterval.Max < c.AttackInterval.Min {
			return invalid("attack_interval.max must not be below attack_interval.min")
		}
	default:
		return invalid("attack_interval.mode must be either %q or %q", IntervalFixed, IntervalUniform)
	}

	if c.Spell.CastTime < step {
		return invalid("spell %s: cast_time must be at least %g", c.Spell.Name, step)
	}
	if c.Spell.BaseHeal < 0 || c.Spell.ManaCost < 0 || c.Spell.Coefficient < 0 {
		return invalid("spell %s: heal, cost and coefficient must not be negative", c.Spell.Name)
	}

	if c.Healers <= 0 {
		return invalid("healers must be greater than 0")
	}
	if c.HealersPerTank <= 0 {
		return invalid("healers_per_tank must be greater than 0")
	}
	if need := (c.Healers + c.HealersPerTank - 1) / c.HealersPerTank; need > c.Tanks {
		return invalid("%d healers in groups of %d need %d tanks, only %d configured", c.Healers, c.HealersPerTank, need, c.Tanks)
	}
	if c.Workers < 0 {
		return invalid("workers must not be negative")
	}
	return nil
}

func probability(name string, v float64) error {
	if v < 0 || v > 1 || math.IsNaN(v) {
		return invalid("%s must be within [0, 1]", name)
	}
	return nil
}

// minStep is the smallest positive delay that survives time rounding.
func (c Config) minStep() float64 {
	if c.TimeResolution < 0 {
		return math.SmallestNonzeroFloat64
	}
	return math.Pow10(-c.TimeResolution)
}
