package steps

import "strings"

// charClass is a set of characters accepted by one pattern element.
type charClass int

const (
	litChar  charClass = iota // exactly elem.lit
	anyChar                   // .
	nonSpace                  // \S
	notQuote                  // [^"]
	digit                     // \d
	sign                      // [-+]
)

// elem is one position of a pattern: a character class, optionally skipped or repeated.
type elem struct {
	class    charClass
	lit      rune
	optional bool
	repeat   bool
}

func literal(r rune) elem { return elem{class: litChar, lit: r} }

func literals(s string) []elem {
	res := make([]elem, 0, len(s))
	for _, r := range s {
		res = append(res, literal(r))
	}
	return res
}

func (e elem) accepts(r rune) bool {
	switch e.class {
	case litChar:
		return r == e.lit
	case anyChar:
		return r != '\n'
	case nonSpace:
		return r != ' ' && r != '\t' && r != '\n' && r != '\f' && r != '\r'
	case notQuote:
		return r != '"'
	case digit:
		return r >= '0' && r <= '9'
	case sign:
		return r == '-' || r == '+'
	default:
		return false
	}
}

// automaton over pattern elements. State i means elems[:i] are matched; state i may
// consume elems[i] and move to i+1, and if elems[i-1] repeats it may consume it again.
type automaton []elem

func (a automaton) final() int { return len(a) }

// closure adds states reachable by skipping optional elements.
func (a automaton) closure(s int) []int {
	res := []int{s}
	for s < len(a) && a[s].optional {
		s++
		res = append(res, s)
	}
	return res
}

// step returns states reachable from s by consuming r, closure included.
func (a automaton) step(s int, r rune) []int {
	var res []int
	if s < len(a) && a[s].accepts(r) {
		res = append(res, a.closure(s+1)...)
	}
	if s > 0 && a[s-1].repeat && a[s-1].accepts(r) {
		res = append(res, a.closure(s)...)
	}
	return res
}

// spacing tracks the previous character, step texts are normalized: no leading, trailing
// or repeated spaces.
type spacing int

const (
	atStart spacing = iota
	afterSpace
	afterChar
)

type overlapNode struct {
	a, b int
	sp   spacing
}

// overlap searches for a normalized step text matched by both patterns and returns the
// shortest one found.
func overlap(p, q Pattern) (string, bool) {
	a, b := automaton(p.elems), automaton(q.elems)
	alpha := alphabet(p, q)

	type visit struct {
		prev overlapNode
		r    rune
		root bool
	}
	seen := map[overlapNode]visit{}
	var queue []overlapNode
	for _, sa := range a.closure(0) {
		for _, sb := range b.closure(0) {
			n := overlapNode{a: sa, b: sb, sp: atStart}
			if _, ok := seen[n]; !ok {
				seen[n] = visit{root: true}
				queue = append(queue, n)
			}
		}
	}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n.a == a.final() && n.b == b.final() && n.sp == afterChar {
			var rs []rune
			for cur := n; !seen[cur].root; cur = seen[cur].prev {
				rs = append(rs, seen[cur].r)
			}
			var sb strings.Builder
			for i := len(rs) - 1; i >= 0; i-- {
				sb.WriteRune(rs[i])
			}
			return sb.String(), true
		}

		for _, r := range alpha {
			sp := afterChar
			if r == ' ' {
				if n.sp != afterChar {
					continue
				}
				sp = afterSpace
			}
			for _, na := range a.step(n.a, r) {
				for _, nb := range b.step(n.b, r) {
					next := overlapNode{a: na, b: nb, sp: sp}
					if _, ok := seen[next]; ok {
						continue
					}
					seen[next] = visit{prev: n, r: r}
					queue = append(queue, next)
				}
			}
		}
	}
	return "", false
}

// alphabet lists one representative of every character the two patterns can tell apart:
// their literals, the characters placeholder classes single out and one rune outside of both.
func alphabet(p, q Pattern) []rune {
	var res []rune
	seen := map[rune]bool{}
	add := func(r rune) {
		if !seen[r] {
			seen[r] = true
			res = append(res, r)
		}
	}
	for _, e := range append(append([]elem{}, p.elems...), q.elems...) {
		if e.class == litChar {
			add(e.lit)
		}
	}
	for _, r := range ` "+-0123456789` {
		add(r)
	}
	for r := 'x'; ; r++ {
		if !seen[r] {
			add(r)
			break
		}
	}
	return res
}
