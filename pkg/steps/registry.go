// Package steps binds natural-language step patterns to handlers. Bindings are collected by
// Builder and compiled into an immutable Registry which matches step text deterministically.
package steps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/umputun/uisteps/pkg/driver"
)

// Handler executes one step against the scenario's driver. args hold captured placeholders.
type Handler func(ctx context.Context, d *driver.Driver, args []string) error

// Binding is a registered step: phase, pattern and the handler to invoke.
type Binding struct {
	Phase   Phase
	Pattern Pattern
	Handler Handler
	Source  string // area which registered the binding
}

func (b Binding) describe() string {
	if b.Source == "" {
		return fmt.Sprintf("%q", b.Pattern.String())
	}
	return fmt.Sprintf("%q (%s)", b.Pattern.String(), b.Source)
}

// Match is a binding selected for a step text with its captured arguments.
type Match struct {
	Binding Binding
	Args    []string
}

// Builder collects bindings. It is not safe for concurrent use.
type Builder struct {
	source  string
	pending []pendingBinding
}

type pendingBinding struct {
	phase   Phase
	pattern string
	handler Handler
	source  string
}

// NewBuilder makes an empty builder.
func NewBuilder() *Builder { return &Builder{} }

// Source sets the label attached to bindings registered after this call.
func (b *Builder) Source(label string) *Builder {
	b.source = label
	return b
}

// Given registers a Given binding.
func (b *Builder) Given(pattern string, h Handler) *Builder { return b.add(Given, pattern, h) }

// When registers a When binding.
func (b *Builder) When(pattern string, h Handler) *Builder { return b.add(When, pattern, h) }

// Then registers a Then binding.
func (b *Builder) Then(pattern string, h Handler) *Builder { return b.add(Then, pattern, h) }

func (b *Builder) add(phase Phase, pattern string, h Handler) *Builder {
	b.pending = append(b.pending, pendingBinding{phase: phase, pattern: pattern, handler: h, source: b.source})
	return b
}

// Build compiles all patterns and checks that every step text can match at most one binding
// of a phase. All problems are reported together.
func (b *Builder) Build() (*Registry, error) {
	var errs []error
	r := &Registry{byPhase: map[Phase][]int{}}
	for _, p := range b.pending {
		pat, err := CompilePattern(p.pattern)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if p.handler == nil {
			errs = append(errs, fmt.Errorf("step %s %q: nil handler", p.phase, pat))
			continue
		}
		r.byPhase[p.phase] = append(r.byPhase[p.phase], len(r.bindings))
		r.bindings = append(r.bindings, Binding{Phase: p.phase, Pattern: pat, Handler: p.handler, Source: p.source})
	}

	for _, phase := range Phases {
		errs = append(errs, r.conflicts(phase)...)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("build step registry: %w", errors.Join(errs...))
	}
	return r, nil
}

// conflicts reports duplicate patterns and pairs of patterns matching a common step text.
func (r *Registry) conflicts(phase Phase) []error {
	var errs []error
	idx := r.byPhase[phase]
	for i := 0; i < len(idx); i++ {
		a := r.bindings[idx[i]]
		for j := i + 1; j < len(idx); j++ {
			c := r.bindings[idx[j]]
			if a.Pattern.String() == c.Pattern.String() {
				errs = append(errs, &DuplicateBindingError{Phase: phase, Pattern: a.Pattern.String(), Sources: []string{a.Source, c.Source}})
				continue
			}
			if text, ok := overlap(a.Pattern, c.Pattern); ok {
				errs = append(errs, &AmbiguousStepError{Phase: phase, Text: text, Candidates: []Binding{a, c}})
			}
		}
	}
	return errs
}

// Registry is an immutable set of bindings, safe for concurrent use.
type Registry struct {
	bindings []Binding
	byPhase  map[Phase][]int
}

// Match finds the single binding of phase matching text.
func (r *Registry) Match(phase Phase, text string) (Match, error) {
	var found []Match
	for _, i := range r.byPhase[phase] {
		if args, ok := r.bindings[i].Pattern.Match(text); ok {
			found = append(found, Match{Binding: r.bindings[i], Args: args})
		}
	}
	switch len(found) {
	case 0:
		return Match{}, &UndefinedStepError{Phase: phase, Text: normalize(text)}
	case 1:
		return found[0], nil
	default:
		cands := make([]Binding, 0, len(found))
		for _, m := range found {
			cands = append(cands, m.Binding)
		}
		return Match{}, &AmbiguousStepError{Phase: phase, Text: normalize(text), Candidates: cands}
	}
}

// Dispatch matches text and invokes the handler. Handler errors are returned as is.
func (r *Registry) Dispatch(ctx context.Context, d *driver.Driver, phase Phase, text string) error {
	m, err := r.Match(phase, text)
	if err != nil {
		return err
	}
	return m.Binding.Handler(ctx, d, m.Args)
}

// Bindings returns all bindings in registration order.
func (r *Registry) Bindings() []Binding {
	res := make([]Binding, len(r.bindings))
	copy(res, r.bindings)
	return res
}

// Markdown returns the step catalog grouped by phase.
func (r *Registry) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# Steps\n")
	for _, phase := range Phases {
		idx := r.byPhase[phase]
		if len(idx) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n## %s\n\n", phase)
		for _, i := range idx {
			b := r.bindings[i]
			fmt.Fprintf(&sb, "- `%s %s`", phase, b.Pattern)
			if b.Source != "" {
				fmt.Fprintf(&sb, " _%s_", b.Source)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
