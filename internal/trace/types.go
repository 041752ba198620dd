// Trace, result and summary rows emitted by the simulator
package trace

import "time"

// Kind identifies what happened at one dispatched event.
type Kind string

const (
	KindStrike  Kind = "strike"
	KindMiss    Kind = "miss"
	KindDeath   Kind = "death"
	KindHeal    Kind = "heal"
	KindSurvive Kind = "survive"
)

// EventRow is one line of a verbose run trace. Time is simulated seconds
// since the pull.
type EventRow struct {
	RunID    string  `json:"run_id"`
	Trial    int     `json:"trial"`
	Time     float64 `json:"time"`
	Kind     Kind    `json:"kind"`
	Healer   int     `json:"healer,omitempty"`
	Tank     int     `json:"tank"`
	Amount   float64 `json:"amount,omitempty"`
	Overheal float64 `json:"overheal,omitempty"`
	Crit     bool    `json:"crit,omitempty"`
	Mana     float64 `json:"mana,omitempty"`
	Health   float64 `json:"health"`
}

// RunRow is the outcome of one trial.
type RunRow struct {
	RunID     string    `json:"run_id"`
	Trial     int       `json:"trial"`
	Survived  bool      `json:"survived"`
	EndTime   float64   `json:"end_time"`
	DeadTank  int       `json:"dead_tank"`
	Strikes   int       `json:"strikes"`
	Misses    int       `json:"misses"`
	Heals     int       `json:"heals"`
	Overheal  float64   `json:"overheal"`
	Timestamp time.Time `json:"ts"`
}

// SummaryRow aggregates a batch of trials.
type SummaryRow struct {
	RunID         string        `json:"run_id"`
	Scenario      string        `json:"scenario,omitempty"`
	Trials        int           `json:"trials"`
	Survived      int           `json:"survived"`
	Percent       float64       `json:"percent"`
	MeanDeathTime float64       `json:"mean_death_time"`
	DeathsByTank  []int         `json:"deaths_by_tank"`
	Seed          int64         `json:"seed"`
	Workers       int           `json:"workers"`
	Elapsed       time.Duration `json:"elapsed"`
	Timestamp     time.Time     `json:"ts"`
}
