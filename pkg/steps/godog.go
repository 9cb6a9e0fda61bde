package steps

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/cucumber/godog"

	"github.com/umputun/uisteps/pkg/driver"
)

var (
	ctxType    = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType  = reflect.TypeOf((*error)(nil)).Elem()
	stringType = reflect.TypeOf("")
)

// errNoDriver is returned by bound steps running outside of a scenario with an open session.
var errNoDriver = errors.New("no browser session for the scenario")

// Bind registers every binding with godog. current returns the driver of the running scenario.
// godog does not separate keywords when matching, so a step text matched by bindings of
// different phases is rejected here.
func (r *Registry) Bind(sc *godog.ScenarioContext, current func() *driver.Driver) error {
	if err := r.crossPhaseConflicts(); err != nil {
		return err
	}
	for _, b := range r.bindings {
		fn := stepFunc(b, current)
		switch b.Phase {
		case Given:
			sc.Given(b.Pattern.Regexp(), fn)
		case When:
			sc.When(b.Pattern.Regexp(), fn)
		case Then:
			sc.Then(b.Pattern.Regexp(), fn)
		default:
			return fmt.Errorf("bind step %q: invalid phase %s", b.Pattern, b.Phase)
		}
	}
	return nil
}

// Bindable reports the errors Bind would return, without a scenario context.
func (r *Registry) Bindable() error { return r.crossPhaseConflicts() }

func (r *Registry) crossPhaseConflicts() error {
	var errs []error
	for i, a := range r.bindings {
		for _, c := range r.bindings[i+1:] {
			if a.Phase == c.Phase {
				continue // checked by Build
			}
			if text, ok := overlap(a.Pattern, c.Pattern); ok {
				errs = append(errs, fmt.Errorf("step %q bound for both %s %s and %s %s", text, a.Phase, a.describe(), c.Phase, c.describe()))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("bind steps: %w", errors.Join(errs...))
	}
	return nil
}

// stepFunc makes func(context.Context, string, ...) error with one string per placeholder,
// the shape godog expects for the binding's expression.
func stepFunc(b Binding, current func() *driver.Driver) any {
	in := make([]reflect.Type, 0, b.Pattern.Params()+1)
	in = append(in, ctxType)
	for range b.Pattern.Params() {
		in = append(in, stringType)
	}
	ft := reflect.FuncOf(in, []reflect.Type{errorType}, false)

	return reflect.MakeFunc(ft, func(vals []reflect.Value) []reflect.Value {
		ctx, _ := vals[0].Interface().(context.Context)
		if ctx == nil {
			ctx = context.Background()
		}
		args := make([]string, 0, len(vals)-1)
		for _, v := range vals[1:] {
			args = append(args, v.String())
		}

		res := reflect.New(errorType).Elem()
		if err := invoke(ctx, b, current, args); err != nil {
			res.Set(reflect.ValueOf(err))
		}
		return []reflect.Value{res}
	}).Interface()
}

func invoke(ctx context.Context, b Binding, current func() *driver.Driver, args []string) error {
	d := current()
	if d == nil {
		return fmt.Errorf("step %q: %w", b.Pattern, errNoDriver)
	}
	return b.Handler(ctx, d, args)
}
