package guide

import "strings"

// Tracker advances a learner through a filtered step plan as their buffer
// changes. The index is monotone: it only ever moves forward, one step per
// evaluation, and stays put once every step is matched.
type Tracker struct {
	steps     []Step
	index     int
	completed bool // completion already reported
}

// Result describes the outcome of one buffer evaluation.
type Result struct {
	// StepIndex is the index of the step the learner should work on next,
	// equal to len(steps) once the plan is finished.
	StepIndex int
	// Advanced reports that this evaluation matched the active step.
	Advanced bool
	// Completed reports that this evaluation finished the plan. It is set
	// on at most one Result over the tracker's lifetime.
	Completed bool
}

// NewTracker builds a tracker over the given raw steps. Filtering is applied
// here, once; an empty plan starts in the terminal state.
func NewTracker(steps []Step) *Tracker {
	return &Tracker{steps: FilterSteps(steps)}
}

// Steps returns the filtered step plan.
func (t *Tracker) Steps() []Step {
	return t.steps
}

// Index returns the current step index.
func (t *Tracker) Index() int {
	return t.index
}

// Done reports whether every step has been matched.
func (t *Tracker) Done() bool {
	return t.index >= len(t.steps)
}

// Current returns the active step, or false when the plan is finished.
func (t *Tracker) Current() (Step, bool) {
	if t.Done() {
		return Step{}, false
	}
	return t.steps[t.index], true
}

// Reset returns the tracker to the first step. Used when the lesson changes
// or learner mode is toggled back on.
func (t *Tracker) Reset() {
	t.index = 0
	t.completed = false
}

// Evaluate checks the buffer against the active step and advances if its
// normalized code appears anywhere in the normalized buffer. Containment
// rather than equality tolerates surrounding code, reflowed whitespace, and
// fragments typed across several physical lines; it does not verify
// placement, only presence. Re-evaluating an unchanged buffer is a no-op:
// only the active step is ever tested, so an earlier match cannot fire twice.
func (t *Tracker) Evaluate(buffer string) Result {
	if t.Done() {
		return t.terminalResult()
	}

	target := Normalize(t.steps[t.index].Code)
	current := Normalize(buffer)

	if !strings.Contains(current, target) {
		return Result{StepIndex: t.index}
	}

	t.index++
	if t.Done() {
		r := t.terminalResult()
		r.Advanced = true
		return r
	}
	return Result{StepIndex: t.index, Advanced: true}
}

func (t *Tracker) terminalResult() Result {
	r := Result{StepIndex: len(t.steps)}
	if !t.completed {
		t.completed = true
		r.Completed = true
	}
	return r
}
