// Package parser turns a raw search request into a QueryPlan.
package parser

import (
	"fmt"
	"sort"
	"strings"
)

type Mode string

const (
	ModeBoolean Mode = "boolean"
	ModePhrase  Mode = "phrase"
	ModeRanked  Mode = "ranked"
)

// ParseMode validates a mode name. The empty string is rejected.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeBoolean, ModePhrase, ModeRanked:
		return m, nil
	default:
		return "", fmt.Errorf("unknown search mode %q", s)
	}
}

// QueryPlan is what the executor runs. Text holds the positive part of the
// query, to be tokenized by the target index. ExcludeTerms are the words
// that followed a NOT operator.
type QueryPlan struct {
	Mode         Mode
	Text         string
	ExcludeTerms []string
	RawQuery     string
}

// Empty reports whether there is nothing to search for.
func (p *QueryPlan) Empty() bool {
	return strings.TrimSpace(p.Text) == ""
}

// Key is a normalized form of the plan, equal for requests that must
// produce the same result.
func (p *QueryPlan) Key() string {
	words := strings.Fields(strings.ToLower(p.Text))
	if p.Mode == ModeBoolean {
		sort.Strings(words)
	}
	excludes := make([]string, len(p.ExcludeTerms))
	for i, t := range p.ExcludeTerms {
		excludes[i] = strings.ToLower(t)
	}
	sort.Strings(excludes)
	parts := []string{string(p.Mode), strings.Join(words, " ")}
	if len(excludes) > 0 {
		parts = append(parts, "NOT:"+strings.Join(excludes, ","))
	}
	return strings.Join(parts, "|")
}

// Parse builds a plan for query. A query wrapped in double quotes is a
// phrase query whatever mode is; otherwise mode is used. The word NOT
// excludes the word after it and the word AND is ignored, since every
// mode already requires or rewards all terms.
func Parse(query string, mode Mode) *QueryPlan {
	plan := &QueryPlan{
		Mode:         mode,
		ExcludeTerms: make([]string, 0),
		RawQuery:     query,
	}
	trimmed := strings.TrimSpace(query)
	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`) {
		plan.Mode = ModePhrase
		plan.Text = strings.TrimSpace(trimmed[1 : len(trimmed)-1])
		return plan
	}

	words := strings.Fields(trimmed)
	kept := make([]string, 0, len(words))
	excludeNext := false
	for _, w := range words {
		switch w {
		case "AND":
			continue
		case "NOT":
			excludeNext = true
			continue
		}
		if excludeNext {
			plan.ExcludeTerms = append(plan.ExcludeTerms, w)
			excludeNext = false
			continue
		}
		kept = append(kept, w)
	}
	plan.Text = strings.Join(kept, " ")
	return plan
}
