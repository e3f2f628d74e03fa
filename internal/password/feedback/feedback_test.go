package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pwreset/internal/password"
)

func states(indicators []Indicator) map[password.CriterionName]State {
	out := make(map[password.CriterionName]State, len(indicators))
	for _, ind := range indicators {
		out[ind.Name] = ind.State
	}
	return out
}

// typeInto drives a tracker through every prefix of input, like keystrokes.
func typeInto(tr *Tracker, engine *password.Engine, input string) []Indicator {
	var last []Indicator
	runes := []rune(input)
	for i := 1; i <= len(runes); i++ {
		prefix := string(runes[:i])
		last = tr.Observe(prefix, engine.Evaluate(prefix))
	}
	return last
}

func TestTracker_StartsPending(t *testing.T) {
	engine := password.Default()
	tr := NewTracker(Live, engine.Criteria())

	inds := tr.Indicators()
	require.Len(t, inds, 5)
	for _, ind := range inds {
		assert.Equal(t, Pending, ind.State, ind.Name)
		assert.NotEmpty(t, ind.Label)
	}
}

func TestTracker_LiveMode(t *testing.T) {
	engine := password.Default()

	t.Run("valid password checks every indicator", func(t *testing.T) {
		tr := NewTracker(Live, engine.Criteria())
		got := states(typeInto(tr, engine, "12345678Aa!"))
		for name, st := range got {
			assert.Equal(t, Met, st, name)
		}
	})

	t.Run("too short leaves the length indicator pending", func(t *testing.T) {
		tr := NewTracker(Live, engine.Criteria())
		got := states(typeInto(tr, engine, "123Aa!"))
		assert.Equal(t, Pending, got[password.CriterionLengthAndNoWhitespace])
		assert.Equal(t, Met, got[password.CriterionUppercase])
	})

	t.Run("regression unchecks immediately", func(t *testing.T) {
		tr := NewTracker(Live, engine.Criteria())
		tr.Observe("12345678a ", engine.Evaluate("12345678a "))
		got := states(tr.Observe("12345678a", engine.Evaluate("12345678a")))
		assert.Equal(t, Met, got[password.CriterionLengthAndNoWhitespace])

		got = states(tr.Observe("12345678a ", engine.Evaluate("12345678a ")))
		assert.Equal(t, Pending, got[password.CriterionLengthAndNoWhitespace])
	})
}

func TestTracker_LatchedMode(t *testing.T) {
	engine := password.Default()

	t.Run("met indicator survives a regression", func(t *testing.T) {
		tr := NewTracker(Latched, engine.Criteria())
		tr.Observe("abc!", engine.Evaluate("abc!"))
		got := states(tr.Observe("abc", engine.Evaluate("abc")))

		assert.Equal(t, Met, got[password.CriterionSpecialChar])
		assert.Equal(t, Met, got[password.CriterionLowercase])
		assert.Equal(t, Pending, got[password.CriterionDigit])
	})

	t.Run("clearing the input resets every indicator", func(t *testing.T) {
		tr := NewTracker(Latched, engine.Criteria())
		typeInto(tr, engine, "12345678Aa!")
		got := states(tr.Observe("", engine.Evaluate("")))
		for name, st := range got {
			assert.Equal(t, Pending, st, name)
		}
	})
}

func TestTracker_Blur(t *testing.T) {
	engine := password.Default()

	for _, mode := range []Mode{Live, Latched} {
		t.Run(string(mode), func(t *testing.T) {
			tr := NewTracker(mode, engine.Criteria())
			tr.Observe("abc!", engine.Evaluate("abc!"))
			tr.Observe("abc", engine.Evaluate("abc"))

			got := states(tr.Blur(engine.Evaluate("abc")))

			assert.Equal(t, Met, got[password.CriterionLowercase])
			assert.Equal(t, Failed, got[password.CriterionSpecialChar], "blur shows the instantaneous result")
			assert.Equal(t, Failed, got[password.CriterionLengthAndNoWhitespace])
		})
	}

	t.Run("typing after blur clears failures", func(t *testing.T) {
		tr := NewTracker(Live, engine.Criteria())
		tr.Blur(engine.Evaluate("abc"))
		got := states(tr.Observe("abcD", engine.Evaluate("abcD")))
		assert.Equal(t, Pending, got[password.CriterionDigit])
		assert.Equal(t, Met, got[password.CriterionUppercase])
	})
}

func TestTracker_IndicatorsIsACopy(t *testing.T) {
	tr := NewTracker(Live, password.Default().Criteria())
	inds := tr.Indicators()
	inds[0].State = Met
	assert.Equal(t, Pending, tr.Indicators()[0].State)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("latched")
	require.NoError(t, err)
	assert.Equal(t, Latched, m)

	_, err = ParseMode("sticky")
	assert.Error(t, err)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "met", Met.String())
	assert.Equal(t, "failed", Failed.String())
}
