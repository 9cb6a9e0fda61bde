package steps

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// placeholder describes one {name} token allowed in a step pattern. elems mirror expr
// for the overlap check.
type placeholder struct {
	expr  string // capturing regexp
	elems []elem
}

var placeholders = map[string]placeholder{
	"":       {expr: `(.+?)`, elems: []elem{{class: anyChar, repeat: true}}},
	"word":   {expr: `(\S+)`, elems: []elem{{class: nonSpace, repeat: true}}},
	"string": {expr: `"([^"]*)"`, elems: []elem{literal('"'), {class: notQuote, optional: true, repeat: true}, literal('"')}},
	"int":    {expr: `([-+]?\d+)`, elems: []elem{{class: sign, optional: true}, {class: digit, repeat: true}}},
}

var placeholderRe = regexp.MustCompile(`\{([a-z]*)\}`)

// Pattern is a compiled step text template. Literal text matches exactly (after whitespace
// is collapsed), placeholders capture parameters in order of appearance.
type Pattern struct {
	text   string
	re     *regexp.Regexp
	elems  []elem
	params int
}

// CompilePattern parses a template like "The user goes to {}".
func CompilePattern(text string) (Pattern, error) {
	text = normalize(text)
	if text == "" {
		return Pattern{}, errors.New("empty step pattern")
	}

	var expr strings.Builder
	var elems []elem
	expr.WriteString("^")
	params, last := 0, 0
	for _, loc := range placeholderRe.FindAllStringSubmatchIndex(text, -1) {
		name := text[loc[2]:loc[3]]
		ph, ok := placeholders[name]
		if !ok {
			return Pattern{}, fmt.Errorf("step pattern %q: unknown placeholder {%s}", text, name)
		}
		expr.WriteString(regexp.QuoteMeta(text[last:loc[0]]))
		expr.WriteString(ph.expr)
		elems = append(elems, literals(text[last:loc[0]])...)
		elems = append(elems, ph.elems...)
		last = loc[1]
		params++
	}
	expr.WriteString(regexp.QuoteMeta(text[last:]))
	expr.WriteString("$")
	elems = append(elems, literals(text[last:])...)

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return Pattern{}, fmt.Errorf("compile step pattern %q: %w", text, err)
	}
	return Pattern{text: text, re: re, elems: elems, params: params}, nil
}

// String returns the normalized template.
func (p Pattern) String() string { return p.text }

// Regexp returns the anchored expression the template compiles to.
func (p Pattern) Regexp() *regexp.Regexp { return p.re }

// Params is the number of placeholders.
func (p Pattern) Params() int { return p.params }

// Match reports whether text matches and returns the captured parameters.
func (p Pattern) Match(text string) ([]string, bool) {
	if p.re == nil {
		return nil, false
	}
	m := p.re.FindStringSubmatch(normalize(text))
	if m == nil {
		return nil, false
	}
	return m[1:], true
}

// normalize trims and collapses runs of whitespace into one space.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
