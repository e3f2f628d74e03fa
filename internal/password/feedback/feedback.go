// Package feedback turns successive password evaluations into checklist
// indicator states for a live input field.
//
// The password engine always reports the instantaneous truth. Whether an
// indicator flickers with every keystroke or stays checked once satisfied is a
// presentation policy, chosen here by Mode and tracked per input field.
package feedback

import (
	"fmt"

	"pwreset/internal/password"
)

// State is what a checklist indicator shows.
type State int

const (
	// Pending is the neutral state (empty circle).
	Pending State = iota
	// Met is a satisfied criterion (check mark).
	Met
	// Failed is an unmet criterion after focus loss (cross).
	Failed
)

func (s State) String() string {
	switch s {
	case Met:
		return "met"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// Mode selects how indicators follow keystrokes.
type Mode string

const (
	// Live shows the most recent evaluation; unmet criteria are Pending.
	Live Mode = "live"
	// Latched keeps a criterion Met once satisfied, until the input is cleared.
	Latched Mode = "latched"
)

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Live, Latched:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown feedback mode %q (want %q or %q)", s, Live, Latched)
	}
}

// Indicator is one rendered checklist entry.
type Indicator struct {
	Name  password.CriterionName
	Label string
	State State
}

// Tracker holds the indicator states for one input field. It is not safe for
// concurrent use.
type Tracker struct {
	mode       Mode
	indicators []Indicator
}

// NewTracker starts every indicator in Pending.
func NewTracker(mode Mode, criteria []password.Criterion) *Tracker {
	t := &Tracker{mode: mode, indicators: make([]Indicator, len(criteria))}
	for i, c := range criteria {
		t.indicators[i] = Indicator{Name: c.Name, Label: c.Label}
	}
	return t
}

// Mode returns the tracker's display policy.
func (t *Tracker) Mode() Mode {
	return t.mode
}

// Observe applies the evaluation of the current input (an editing-changed
// event) and returns the new indicator states.
func (t *Tracker) Observe(input string, res password.Result) []Indicator {
	if input == "" {
		t.Reset()
		return t.Indicators()
	}

	for i := range t.indicators {
		met := res.Met(t.indicators[i].Name)
		switch {
		case met:
			t.indicators[i].State = Met
		case t.mode == Latched && t.indicators[i].State == Met:
			// stays checked until the field is cleared
		default:
			t.indicators[i].State = Pending
		}
	}
	return t.Indicators()
}

// Blur applies a focus-loss event: every indicator shows the instantaneous
// result, with unmet criteria marked Failed.
func (t *Tracker) Blur(res password.Result) []Indicator {
	for i := range t.indicators {
		if res.Met(t.indicators[i].Name) {
			t.indicators[i].State = Met
		} else {
			t.indicators[i].State = Failed
		}
	}
	return t.Indicators()
}

// Reset returns every indicator to Pending.
func (t *Tracker) Reset() {
	for i := range t.indicators {
		t.indicators[i].State = Pending
	}
}

// Indicators returns a copy of the current states.
func (t *Tracker) Indicators() []Indicator {
	out := make([]Indicator, len(t.indicators))
	copy(out, t.indicators)
	return out
}
