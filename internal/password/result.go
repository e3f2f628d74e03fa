package password

// CriterionResult is the outcome of one criterion for one input.
type CriterionResult struct {
	Name  CriterionName `json:"name"`
	Label string        `json:"label"`
	Met   bool          `json:"met"`
}

// Result is produced by Engine.Evaluate.
//
// Invariants:
//   - Satisfied equals the number of met entries in Criteria
//   - Passed is derived from Satisfied and the engine's Config; it has no setter
type Result struct {
	criteria  []CriterionResult
	details   []CriterionResult
	satisfied int
	classes   int
	lengthMet bool
	required  int
	passed    bool
}

// Criteria returns the displayed indicators in declaration order.
func (r Result) Criteria() []CriterionResult {
	out := make([]CriterionResult, len(r.criteria))
	copy(out, r.criteria)
	return out
}

// Detail returns the raw length and whitespace predicates that make up the
// combined first indicator.
func (r Result) Detail() []CriterionResult {
	out := make([]CriterionResult, len(r.details))
	copy(out, r.details)
	return out
}

// Met reports the outcome of a named indicator or raw predicate. Unknown
// names report false.
func (r Result) Met(name CriterionName) bool {
	for _, c := range r.criteria {
		if c.Name == name {
			return c.Met
		}
	}
	for _, c := range r.details {
		if c.Name == name {
			return c.Met
		}
	}
	return false
}

// Unmet lists the displayed indicators that are not satisfied.
func (r Result) Unmet() []CriterionName {
	var out []CriterionName
	for _, c := range r.criteria {
		if !c.Met {
			out = append(out, c.Name)
		}
	}
	return out
}

// Satisfied is the number of met indicators (0-5).
func (r Result) Satisfied() int { return r.satisfied }

// ClassesSatisfied is the number of met character-class indicators (0-4),
// excluding the length/whitespace indicator.
func (r Result) ClassesSatisfied() int { return r.classes }

// Required is the configured threshold.
func (r Result) Required() int { return r.required }

// Passed reports whether the threshold policy is met.
func (r Result) Passed() bool { return r.passed }
