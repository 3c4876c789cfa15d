// Package filter selects tracked symbols by expression.
package filter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/komsit37/ticker/pkg/ticker/types"
)

// Filter matches a symbol.
type Filter interface {
	Match(sym types.Symbol) bool
}

// Parse builds a filter from an expression:
//   - comma-separated exact symbols: "AAPL,MSFT"
//   - glob: "BT*"
//   - regex: "/^X/"
//   - anything else: case-insensitive substring
//
// A leading "!" negates the expression.
func Parse(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if rest, ok := strings.CutPrefix(expr, "!"); ok {
		f, err := Parse(rest)
		if err != nil {
			return nil, err
		}
		return Not{f}, nil
	}
	if expr == "" {
		return Always(true), nil
	}
	if strings.HasPrefix(expr, "/") && strings.HasSuffix(expr, "/") && len(expr) > 2 {
		re, err := regexp.Compile(expr[1 : len(expr)-1])
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", expr, err)
		}
		return Regex{re: re}, nil
	}
	if strings.Contains(expr, ",") {
		set := map[types.Symbol]struct{}{}
		for _, p := range strings.Split(expr, ",") {
			if p = strings.TrimSpace(p); p != "" {
				set[types.Symbol(p)] = struct{}{}
			}
		}
		return ExactSet{set: set}, nil
	}
	if strings.ContainsAny(expr, "*?[") {
		if _, err := filepath.Match(expr, ""); err != nil {
			return nil, fmt.Errorf("filter %q: %w", expr, err)
		}
		return Glob{pattern: expr}, nil
	}
	return SubstrCI{needle: strings.ToLower(expr)}, nil
}

// Apply keeps the symbols f matches, in order.
func Apply(f Filter, symbols []types.Symbol) []types.Symbol {
	out := make([]types.Symbol, 0, len(symbols))
	for _, s := range symbols {
		if f.Match(s) {
			out = append(out, s)
		}
	}
	return out
}

type Always bool

func (a Always) Match(types.Symbol) bool { return bool(a) }

type Not struct{ Filter }

func (n Not) Match(sym types.Symbol) bool { return !n.Filter.Match(sym) }

type ExactSet struct{ set map[types.Symbol]struct{} }

func (e ExactSet) Match(sym types.Symbol) bool {
	_, ok := e.set[sym]
	return ok
}

type Glob struct{ pattern string }

func (g Glob) Match(sym types.Symbol) bool {
	ok, _ := filepath.Match(g.pattern, sym.String())
	return ok
}

func (g Glob) String() string { return fmt.Sprintf("glob:%s", g.pattern) }

type Regex struct{ re *regexp.Regexp }

func (r Regex) Match(sym types.Symbol) bool { return r.re.MatchString(sym.String()) }

// SubstrCI matches symbols containing needle, ignoring case.
type SubstrCI struct{ needle string }

func (s SubstrCI) Match(sym types.Symbol) bool {
	return strings.Contains(strings.ToLower(sym.String()), s.needle)
}

func (s SubstrCI) String() string { return fmt.Sprintf("substr-ci:%s", s.needle) }
