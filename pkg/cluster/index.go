// Package cluster groups same-day documents describing the same story and
// selects a representative anchor per group.
package cluster

import (
	"sort"
	"time"

	"github.com/clawbeat/forge/pkg/embed"
	"github.com/clawbeat/forge/pkg/source"
)

// DefaultThreshold is the cosine-similarity merge threshold. Higher values
// group less aggressively.
const DefaultThreshold = 0.85

// Cluster is a set of documents believed to describe one story, scoped to
// a single calendar-day bucket. The seed vector is the first member's
// embedding and never changes within a run.
type Cluster struct {
	Day  string
	Seed []float64
	Docs []source.Document
}

// Index assigns documents to clusters with a greedy single-pass policy:
// each document is compared against the seed of every existing cluster in
// its day bucket, in cluster-creation order, and joins the first one whose
// similarity exceeds the threshold. Equal-to-threshold does not merge.
// The policy is order-dependent; callers feed documents sorted by density
// descending so high-signal documents become seeds preferentially.
type Index struct {
	threshold float64
	buckets   map[string][]*Cluster
	days      []string // bucket insertion order, for deterministic output
}

// NewIndex creates an empty index with the given merge threshold.
func NewIndex(threshold float64) *Index {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultThreshold
	}
	return &Index{
		threshold: threshold,
		buckets:   make(map[string][]*Cluster),
	}
}

// Assign places one document. Documents without a valid embedding are
// unclusterable this run and are reported as not assigned.
func (ix *Index) Assign(doc source.Document) bool {
	if len(doc.Vector) == 0 {
		return false
	}

	day := DayKey(doc.PublishedAt)
	if _, ok := ix.buckets[day]; !ok {
		ix.days = append(ix.days, day)
	}

	for _, c := range ix.buckets[day] {
		if embed.Cosine(doc.Vector, c.Seed) > ix.threshold {
			c.Docs = append(c.Docs, doc)
			return true
		}
	}

	ix.buckets[day] = append(ix.buckets[day], &Cluster{
		Day:  day,
		Seed: doc.Vector,
		Docs: []source.Document{doc},
	})
	return true
}

// Clusters returns all clusters in deterministic order: buckets in first-
// seen order, clusters in creation order within each bucket.
func (ix *Index) Clusters() []*Cluster {
	var out []*Cluster
	for _, day := range ix.days {
		out = append(out, ix.buckets[day]...)
	}
	return out
}

// Group sorts documents by density descending (stable, preserving input
// order on ties) and assigns each to the index. Returns the documents that
// could not be clustered for lack of an embedding.
func (ix *Index) Group(docs []source.Document) (unclustered []source.Document) {
	sorted := make([]source.Document, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Density > sorted[j].Density
	})

	for _, doc := range sorted {
		if !ix.Assign(doc) {
			unclustered = append(unclustered, doc)
		}
	}
	return unclustered
}

// DayKey buckets a timestamp to its UTC calendar day.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
