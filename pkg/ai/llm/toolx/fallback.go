package toolx

import (
	"fmt"
	"strings"
)

// GenericFallback is the last-resort transcript fragment for an invocation
// no rule or generator can describe.
const GenericFallback = "Changes applied."

// heuristic is one (predicate, formatter) pair of the fallback table. The
// table is consulted in order; the first matching predicate wins.
type heuristic struct {
	match  func(name string) bool
	format func(name string, args map[string]any) string
}

var fallbackHeuristics = []heuristic{
	{
		match: nameContains("navigate", "goto", "go_to", "redirect"),
		format: func(name string, args map[string]any) string {
			if target := firstString(args, "url", "path", "page", "target", "to"); target != "" {
				return fmt.Sprintf("Navigated to %s.", target)
			}
			return "Navigated to the requested page."
		},
	},
	{
		match: nameContains("filter", "search", "sort"),
		format: func(name string, args map[string]any) string {
			return "Updated the results for you."
		},
	},
	{
		match: nameContains("open", "show", "modal", "expand"),
		format: func(name string, args map[string]any) string {
			return "Opened it for you."
		},
	},
	{
		match: nameContains("close", "hide", "dismiss", "collapse"),
		format: func(name string, args map[string]any) string {
			return "Closed it."
		},
	},
}

// Describe produces the fallback transcript fragment for one invocation:
// the tool's registered generator if any, otherwise the first matching
// heuristic, otherwise the generic message. The fragment always ends with
// terminal punctuation.
func (r *Registry) Describe(name string, args map[string]any) string {
	if fn, ok := r.fallbacks[name]; ok {
		return ensurePunctuation(fn(args))
	}

	lower := strings.ToLower(name)
	for _, h := range fallbackHeuristics {
		if h.match(lower) {
			return ensurePunctuation(h.format(name, args))
		}
	}

	return GenericFallback
}

func nameContains(substrings ...string) func(string) bool {
	return func(name string) bool {
		for _, s := range substrings {
			if strings.Contains(name, s) {
				return true
			}
		}
		return false
	}
}

func firstString(args map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := args[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func ensurePunctuation(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return GenericFallback
	}
	switch s[len(s)-1] {
	case '.', '!', '?':
		return s
	}
	return s + "."
}
