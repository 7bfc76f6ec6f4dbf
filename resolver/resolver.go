// Package resolver maps already-extracted thumbnail assets to candidate
// full-resolution originals. Resolution is an ordered strategy table keyed
// on substrings of the originating page URL: the first matching entry wins,
// and a generic thumbnail→original transform is the guaranteed fallback.
package resolver

import (
	"strings"

	"github.com/use-agent/harvest/candidate"
	"github.com/use-agent/harvest/models"
)

// Strategy pairs a page-URL predicate with a way to derive original-image
// candidates. Exactly one of Transform or Script is set: Transform derives
// candidates from the assets already extracted, Script is a payload the
// caller evaluates inside the originating page (for sites whose originals
// are only reachable through known DOM patterns).
type Strategy struct {
	Name  string
	Match func(pageURL string) bool

	// Transform derives zero or more candidate URLs from one asset.
	Transform func(a *models.Asset) []string

	// Script, when non-empty, is a page payload returning a candidate URL
	// array when evaluated in the page's own execution context.
	Script string
}

// Resolution is the outcome of strategy selection.
type Resolution struct {
	// Strategy is the name of the entry that matched.
	Strategy string

	// URLs are the transform-derived candidates, already deduplicated.
	URLs []string

	// Script, when non-empty, must be evaluated against the originating
	// page; its result array is unioned with URLs by the caller.
	Script string
}

// Table is an ordered strategy set with a fallback entry.
type Table struct {
	strategies []Strategy
	fallback   Strategy
}

// NewTable builds a table from ordered entries plus a fallback. The
// fallback's Match is ignored; it always applies when nothing else does.
func NewTable(strategies []Strategy, fallback Strategy) *Table {
	return &Table{strategies: strategies, fallback: fallback}
}

// Resolve picks the first strategy whose predicate matches pageURL and
// applies it to the asset list. Transform strategies produce a deduplicated
// URL set; script strategies hand the payload back for page evaluation.
func (t *Table) Resolve(pageURL string, assets []*models.Asset) Resolution {
	strategy := t.fallback
	for _, s := range t.strategies {
		if s.Match(pageURL) {
			strategy = s
			break
		}
	}

	res := Resolution{Strategy: strategy.Name, Script: strategy.Script}
	if strategy.Transform != nil {
		var urls []string
		for _, a := range assets {
			urls = append(urls, strategy.Transform(a)...)
		}
		res.URLs = candidate.Dedup(urls)
	}
	return res
}

// matchHost returns a predicate true when the page URL contains the marker.
func matchHost(marker string) func(string) bool {
	return func(pageURL string) bool {
		return strings.Contains(pageURL, marker)
	}
}
