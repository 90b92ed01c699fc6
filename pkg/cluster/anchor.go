package cluster

import (
	"sort"

	"github.com/clawbeat/forge/internal/store"
	"github.com/clawbeat/forge/pkg/source"
)

// BuildStories selects the anchor for each cluster and turns the remaining
// members into MoreCoverage entries. The anchor is the member maximizing
// (authority tier desc, density desc); ties keep the stable assignment
// order, so given identical inputs the selection is deterministic.
func BuildStories(clusters []*Cluster) []store.Story {
	stories := make([]store.Story, 0, len(clusters))

	for _, c := range clusters {
		members := make([]source.Document, len(c.Docs))
		copy(members, c.Docs)
		sort.SliceStable(members, func(i, j int) bool {
			if members[i].Authority != members[j].Authority {
				return members[i].Authority > members[j].Authority
			}
			return members[i].Density > members[j].Density
		})

		anchor := members[0]
		st := store.Story{
			Document: anchor,
			Day:      c.Day,
		}

		seen := map[string]bool{anchor.URL: true}
		for _, m := range members[1:] {
			if seen[m.URL] {
				continue
			}
			seen[m.URL] = true
			st.Coverage = append(st.Coverage, store.Coverage{
				Source: m.SourceName,
				URL:    m.URL,
			})
		}

		stories = append(stories, st)
	}

	return stories
}

// Merge folds this run's fresh stories into the historical corpus and
// enforces the global dedup invariant: a URL that is a top-level anchor
// anywhere must not appear in any other anchor's coverage list. This
// covers the case where a document first surfaces as secondary coverage
// in one run and becomes its own anchor in a later run. Fresh stories are
// cleaned in place; the returned slice holds the historical stories whose
// coverage list changed and need re-persisting.
func Merge(existing []store.Story, fresh []store.Story) (changed []store.Story) {
	anchors := make(map[string]bool, len(existing)+len(fresh))
	for i := range existing {
		anchors[existing[i].URL] = true
	}
	for i := range fresh {
		anchors[fresh[i].URL] = true
	}

	for i := range fresh {
		fresh[i].Coverage = stripAnchors(fresh[i].Coverage, fresh[i].URL, anchors)
	}

	for i := range existing {
		cleaned := stripAnchors(existing[i].Coverage, existing[i].URL, anchors)
		if len(cleaned) != len(existing[i].Coverage) {
			existing[i].Coverage = cleaned
			changed = append(changed, existing[i])
		}
	}

	return changed
}

func stripAnchors(coverage []store.Coverage, self string, anchors map[string]bool) []store.Coverage {
	var kept []store.Coverage
	for _, c := range coverage {
		if c.URL != self && anchors[c.URL] {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}
