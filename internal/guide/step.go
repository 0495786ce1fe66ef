package guide

import "strings"

// Step is one unit of guided progress: a target code fragment, an
// explanation for the learner, and an optional anchor line that is expected
// to precede the fragment's insertion point in the evolving buffer.
type Step struct {
	Code        string `json:"code"`
	Explanation string `json:"explanation"`
	Context     string `json:"context,omitempty"`
}

// Comment openers/closers recognized by FilterSteps. This is deliberately
// language-naive prefix/suffix matching, not a parser: it only has to catch
// the comment-only fragments a step generator tends to emit.
var (
	commentPrefixes = []string{"<!--", "//", "/*"}
	commentSuffixes = []string{"-->"}
)

// FilterSteps removes steps that carry nothing for the learner to type:
// empty fragments and comment-only fragments. Relative order is preserved
// and the operation is idempotent.
func FilterSteps(steps []Step) []Step {
	kept := make([]Step, 0, len(steps))
	for _, s := range steps {
		if isSubstantive(s.Code) {
			kept = append(kept, s)
		}
	}
	return kept
}

func isSubstantive(code string) bool {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return false
	}
	for _, p := range commentPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return false
		}
	}
	for _, s := range commentSuffixes {
		if strings.HasSuffix(trimmed, s) {
			return false
		}
	}
	return true
}

// SynthesizeSteps builds a degraded step plan from a reference solution when
// no generated steps are available: one step per non-empty line, each with a
// generic explanation. The result still goes through FilterSteps so
// comment-only lines drop out.
func SynthesizeSteps(solution string) []Step {
	var steps []Step
	for _, line := range strings.Split(solution, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		steps = append(steps, Step{
			Code:        line,
			Explanation: "Type this line of the solution.",
		})
	}
	return FilterSteps(steps)
}
