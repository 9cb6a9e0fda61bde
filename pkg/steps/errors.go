package steps

import (
	"fmt"
	"strings"
)

// UndefinedStepError is returned when no binding matches a step text.
type UndefinedStepError struct {
	Phase Phase
	Text  string
}

func (e *UndefinedStepError) Error() string {
	return fmt.Sprintf("undefined step: %s %q", e.Phase, e.Text)
}

// AmbiguousStepError is returned when more than one binding matches a step text.
// At build time Text is the sample text of one of the candidates.
type AmbiguousStepError struct {
	Phase      Phase
	Text       string
	Candidates []Binding
}

func (e *AmbiguousStepError) Error() string {
	names := make([]string, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		names = append(names, c.describe())
	}
	return fmt.Sprintf("ambiguous step: %s %q matches %s", e.Phase, e.Text, strings.Join(names, ", "))
}

// DuplicateBindingError is returned by Build when one pattern is registered twice for a phase.
type DuplicateBindingError struct {
	Phase   Phase
	Pattern string
	Sources []string
}

func (e *DuplicateBindingError) Error() string {
	return fmt.Sprintf("duplicate step binding: %s %q registered by %s", e.Phase, e.Pattern, strings.Join(e.Sources, " and "))
}
