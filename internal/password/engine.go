// Package password evaluates candidate passwords against a fixed set of named
// criteria and a threshold policy.
//
// The Engine is pure: Evaluate and EvaluateMatch have no side effects, never
// fail, and are safe for concurrent use. How results are shown over successive
// keystrokes is the caller's concern (see package feedback).
package password

import "fmt"

// Engine evaluates passwords under one immutable Config.
type Engine struct {
	cfg        Config
	indicators []Criterion
	details    []Criterion
}

// New builds an Engine for cfg.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	minLen, maxLen := cfg.MinLength, cfg.MaxLength
	e := &Engine{cfg: cfg}
	e.indicators = []Criterion{
		{
			Name:  CriterionLengthAndNoWhitespace,
			Label: fmt.Sprintf("%d-%d characters (no spaces)", minLen, maxLen),
			Check: func(s string) bool { return LengthAndNoWhitespace(s, minLen, maxLen) },
		},
		{Name: CriterionUppercase, Label: "At least 1 uppercase character", Check: HasUppercase},
		{Name: CriterionLowercase, Label: "At least 1 lowercase character", Check: HasLowercase},
		{Name: CriterionDigit, Label: "At least 1 digit", Check: HasDigit},
		{Name: CriterionSpecialChar, Label: "At least 1 special character (@!#$)", Check: HasSpecialChar},
	}
	e.details = []Criterion{
		{
			Name:  CriterionMinLength,
			Label: fmt.Sprintf("At least %d characters", minLen),
			Check: func(s string) bool { return CharacterCount(s) >= minLen },
		},
		{
			Name:  CriterionMaxLength,
			Label: fmt.Sprintf("At most %d characters", maxLen),
			Check: func(s string) bool { return CharacterCount(s) <= maxLen },
		},
		{
			Name:  CriterionLengthInRange,
			Label: fmt.Sprintf("%d-%d characters", minLen, maxLen),
			Check: func(s string) bool { return LengthInRange(s, minLen, maxLen) },
		},
		{Name: CriterionNoWhitespace, Label: "No spaces", Check: NoWhitespace},
	}
	return e, nil
}

// Default returns an Engine for DefaultConfig.
func Default() *Engine {
	e, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return e
}

// Config returns a copy of the engine's policy.
func (e *Engine) Config() Config {
	return e.cfg
}

// Criteria returns the displayed indicators in declaration order.
func (e *Engine) Criteria() []Criterion {
	out := make([]Criterion, len(e.indicators))
	copy(out, e.indicators)
	return out
}

// Evaluate applies every criterion to password. Empty input is evaluated like
// any other and simply fails its criteria.
func (e *Engine) Evaluate(password string) Result {
	res := Result{
		criteria: make([]CriterionResult, 0, len(e.indicators)),
		details:  make([]CriterionResult, 0, len(e.details)),
		required: e.cfg.RequiredCriteria,
	}

	for _, c := range e.indicators {
		met := c.Check(password)
		res.criteria = append(res.criteria, CriterionResult{Name: c.Name, Label: c.Label, Met: met})
		if !met {
			continue
		}
		res.satisfied++
		if c.Name == CriterionLengthAndNoWhitespace {
			res.lengthMet = true
		} else {
			res.classes++
		}
	}
	for _, c := range e.details {
		res.details = append(res.details, CriterionResult{Name: c.Name, Label: c.Label, Met: c.Check(password)})
	}

	res.passed = e.decide(res.satisfied, res.classes, res.lengthMet)
	return res
}

// decide is the threshold policy. In the default mode it depends on the
// indicator count alone, so it is monotonic in Result.Satisfied.
func (e *Engine) decide(satisfied, classes int, lengthMet bool) bool {
	if e.cfg.RequireLength {
		return lengthMet && classes >= e.cfg.RequiredCriteria
	}
	return satisfied >= e.cfg.RequiredCriteria
}

// MatchResult reports whether a confirmation equals the password.
type MatchResult struct {
	Matches bool `json:"matches"`
}

// EvaluateMatch compares password and confirmation byte for byte. There is no
// trimming, case folding or Unicode normalisation.
func (e *Engine) EvaluateMatch(password, confirmation string) MatchResult {
	return MatchResult{Matches: password == confirmation}
}

// Description is the policy text a presentation layer shows above the
// checklist.
type Description struct {
	Headline string
	Items    []string
}

// Describe renders the policy as user-facing text.
func (e *Engine) Describe() Description {
	items := make([]string, 0, len(e.indicators))
	for _, c := range e.indicators {
		items = append(items, c.Label)
	}

	headline := fmt.Sprintf("Use at least %d of these %d criteria when setting your password:",
		e.cfg.RequiredCriteria, len(e.indicators))
	if e.cfg.RequireLength {
		headline = fmt.Sprintf("Use %s and at least %d of these %d criteria when setting your password:",
			e.indicators[0].Label, e.cfg.RequiredCriteria, len(e.indicators)-1)
	}
	return Description{Headline: headline, Items: items}
}
