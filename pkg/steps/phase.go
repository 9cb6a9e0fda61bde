package steps

import "fmt"

// Phase is a step keyword a binding is registered for.
type Phase int

// phases, in scenario order
const (
	Given Phase = iota + 1
	When
	Then
)

// Phases lists all phases in scenario order.
var Phases = []Phase{Given, When, Then}

func (p Phase) String() string {
	switch p {
	case Given:
		return "Given"
	case When:
		return "When"
	case Then:
		return "Then"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// PhaseOf maps a gherkin pickle step type to a phase. And and But steps already carry the
// type of the step they continue. Steps of unknown type, e.g. a leading "*", have no phase.
func PhaseOf(stepType string) (Phase, bool) {
	switch stepType {
	case "Context":
		return Given, true
	case "Action":
		return When, true
	case "Outcome":
		return Then, true
	default:
		return 0, false
	}
}
