// YAML encounter config loader with CUE validation integration
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// IntervalMode selects how the delay between boss attacks is drawn.
type IntervalMode string

const (
	IntervalFixed   IntervalMode = "fixed"
	IntervalUniform IntervalMode = "uniform"
)

// AttackInterval configures the delay between two boss attacks.
type AttackInterval struct {
	Mode  IntervalMode `yaml:"mode" json:"mode"`
	Fixed float64      `yaml:"fixed" json:"fixed"`
	Min   float64      `yaml:"min" json:"min"`
	Max   float64      `yaml:"max" json:"max"`
}

// Spell describes the single healing spell every healer casts.
type Spell struct {
	Name        string  `yaml:"name" json:"name"`
	BaseHeal    float64 `yaml:"base_heal" json:"base_heal"`
	ManaCost    float64 `yaml:"mana_cost" json:"mana_cost"`
	CastTime    float64 `yaml:"cast_time" json:"cast_time"`
	Coefficient float64 `yaml:"coefficient" json:"coefficient"`
}

// Config is the root configuration of one encounter. It is treated as
// immutable once a runner or scheduler has been built from it.
type Config struct {
	MaxHealth   float64 `yaml:"max_health" json:"max_health"`
	Tanks       int     `yaml:"tanks" json:"tanks"`
	FightLength float64 `yaml:"fight_length" json:"fight_length"`

	DamageMin      float64        `yaml:"damage_min" json:"damage_min"`
	DamageMax      float64        `yaml:"damage_max" json:"damage_max"`
	Mitigation     float64        `yaml:"mitigation" json:"mitigation"`
	MissChance     float64        `yaml:"miss_chance" json:"miss_chance"`
	AttackInterval AttackInterval `yaml:"attack_interval" json:"attack_interval"`

	// TimeResolution is the number of decimal places event times are
	// rounded to. Negative values disable rounding.
	TimeResolution int `yaml:"time_resolution" json:"time_resolution"`

	Spell                 Spell   `yaml:"spell" json:"spell"`
	PlusHeal              float64 `yaml:"plus_heal" json:"plus_heal"`
	AmplifyMagic          bool    `yaml:"amplify_magic" json:"amplify_magic"`
	MagicAttunement       bool    `yaml:"magic_attunement" json:"magic_attunement"`
	ImprovedHealingPoints int     `yaml:"improved_healing_points" json:"improved_healing_points"`
	HealingMultiplier     float64 `yaml:"healing_multiplier" json:"healing_multiplier"`

	Healers        int     `yaml:"healers" json:"healers"`
	HealersPerTank int     `yaml:"healers_per_tank" json:"healers_per_tank"`
	CritChance     float64 `yaml:"crit_chance" json:"crit_chance"`
	CritMultiplier float64 `yaml:"crit_multiplier" json:"crit_multiplier"`
	ReactionTime   float64 `yaml:"reaction_time" json:"reaction_time"`

	Seed    int64 `yaml:"seed" json:"seed"`
	Workers int   `yaml:"workers" json:"workers"`
}

const (
	amplifyMagicBonus    = 150
	magicAttunementBonus = 75
)

// Default returns the reference Patchwerk offtank encounter.
func Default() Config {
	return Config{
		MaxHealth:   10000,
		Tanks:       3,
		FightLength: 60 * 4,
		DamageMin:   22000,
		DamageMax:   29000,
		Mitigation:  0.7,
		MissChance:  0.3,
		AttackInterval: AttackInterval{
			Mode:  IntervalUniform,
			Fixed: 1.2,
			Min:   1.2,
			Max:   2.0499,
		},
		TimeResolution: 1,
		Spell: Spell{
			Name:        "h4",
			BaseHeal:    779.5,
			ManaCost:    305,
			CastTime:    2.5,
			Coefficient: 3 / 3.5,
		},
		PlusHeal:              1000,
		AmplifyMagic:          true,
		MagicAttunement:       true,
		ImprovedHealingPoints: 3,
		HealingMultiplier:     1,
		Healers:               9,
		HealersPerTank:        3,
		CritChance:            0.2,
		CritMultiplier:        1.5,
		ReactionTime:          0.2,
	}
}

// TotalPlusHeal is the configured plus-heal including raid buffs.
func (c Config) TotalPlusHeal() float64 {
	total := c.PlusHeal
	if c.AmplifyMagic {
		total += amplifyMagicBonus
	}
	if c.MagicAttunement {
		total += magicAttunementBonus
	}
	return total
}

// Load reads a YAML config on top of Default, validates the document
// against a CUE schema and then checks the resulting values. An empty
// schemaPath uses the embedded schema.
func Load(configPath, cueSchemaPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	schema := defaultSchema
	if cueSchemaPath != "" {
		if schema, err = os.ReadFile(cueSchemaPath); err != nil {
			return nil, fmt.Errorf("read schema: %w", err)
		}
	}
	if err := ValidateWithCue(configPath, data, schema); err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the default encounter and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
