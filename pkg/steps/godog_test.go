package steps

import (
	"context"
	"errors"
	"io"
	"reflect"
	"sync"
	"testing"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/uisteps/pkg/driver"
)

func TestRegistry_Bind(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	record := func(name string) Handler {
		return func(_ context.Context, d *driver.Driver, args []string) error {
			if d == nil {
				return errors.New("nil driver")
			}
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, name)
			calls = append(calls, args...)
			return nil
		}
	}

	r, err := NewBuilder().
		Given("The wazuh app is loaded", record("loaded")).
		When("The user goes to {}", record("goes")).
		Then("the toast says {string} {int} times", record("toast")).
		Build()
	require.NoError(t, err)

	feature := `Feature: modules
  Scenario: open module
    Given The wazuh app is loaded
    When The user goes to Security Events
    Then the toast says "done" 2 times
`
	status := godog.TestSuite{
		Name: "bind",
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			d := driver.New(nil, "", driver.Options{})
			require.NoError(t, r.Bind(sc, func() *driver.Driver { return d }))
		},
		Options: &godog.Options{
			Format:          "progress",
			Output:          io.Discard,
			Strict:          true,
			FeatureContents: []godog.Feature{{Name: "modules.feature", Contents: []byte(feature)}},
		},
	}.Run()

	assert.Equal(t, 0, status)
	assert.Equal(t, []string{"loaded", "goes", "Security Events", "toast", "done", "2"}, calls)
}

func TestRegistry_BindFailsWithoutDriver(t *testing.T) {
	r, err := NewBuilder().Given("The wazuh app is loaded", nop).Build()
	require.NoError(t, err)

	status := godog.TestSuite{
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			require.NoError(t, r.Bind(sc, func() *driver.Driver { return nil }))
		},
		Options: &godog.Options{
			Format: "progress",
			Output: io.Discard,
			FeatureContents: []godog.Feature{{Name: "app.feature", Contents: []byte(
				"Feature: app\n  Scenario: load\n    Given The wazuh app is loaded\n")}},
		},
	}.Run()
	assert.Equal(t, 1, status)
}

func TestRegistry_BindCrossPhase(t *testing.T) {
	r, err := NewBuilder().
		Given("the page is open", nop).
		Then("the page is open", nop).
		Build()
	require.NoError(t, err)

	require.Error(t, r.Bindable())
	err = r.Bind(nil, func() *driver.Driver { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), `step "the page is open" bound for both Given "the page is open" and Then "the page is open"`)

	r, err = NewBuilder().
		When("The user goes to {}", nop).
		Then("The user goes to rules", nop).
		Build()
	require.NoError(t, err)
	require.Error(t, r.Bind(nil, func() *driver.Driver { return nil }))

	r, err = NewBuilder().
		Source("a").When("The user {} rules", nop).
		Source("b").Then("The user goes to {}", nop).
		Build()
	require.NoError(t, err)
	err = r.Bindable()
	require.Error(t, err)
	assert.Contains(t, err.Error(),
		`step "The user goes to rules" bound for both When "The user {} rules" (a) and Then "The user goes to {}" (b)`)

	r, err = NewBuilder().Given("The wazuh app is loaded", nop).Then("The rules table is displayed", nop).Build()
	require.NoError(t, err)
	assert.NoError(t, r.Bindable())
}

func TestStepFunc(t *testing.T) {
	p, err := CompilePattern("{word} opens {} with {int} items")
	require.NoError(t, err)
	var got []string
	b := Binding{Phase: When, Pattern: p, Handler: func(_ context.Context, _ *driver.Driver, args []string) error {
		got = args
		return errors.New("failed")
	}}
	d := driver.New(nil, "", driver.Options{})

	fn := stepFunc(b, func() *driver.Driver { return d })
	ft := reflect.TypeOf(fn)
	require.Equal(t, 4, ft.NumIn())
	assert.Equal(t, ctxType, ft.In(0))
	assert.Equal(t, stringType, ft.In(3))
	require.Equal(t, 1, ft.NumOut())
	assert.Equal(t, errorType, ft.Out(0))

	typed, ok := fn.(func(context.Context, string, string, string) error)
	require.True(t, ok)
	err = typed(context.Background(), "admin", "Rules", "3")
	require.EqualError(t, err, "failed")
	assert.Equal(t, []string{"admin", "Rules", "3"}, got)
}
