package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// Rejection records why one candidate was dropped before clustering.
type Rejection struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// Report summarizes one pipeline run. Every candidate is accounted for:
// fetched = rejected + deduplicated + clustered into stories.
type Report struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	Fetched      int `json:"fetched"`
	AlreadySeen  int `json:"already_seen"`
	Rejected     int `json:"rejected"`
	Embedded     int `json:"embedded"`
	Clusters     int `json:"clusters"`
	NewStories   int `json:"new_stories"`
	Rescored     int `json:"rescored"`
	BriefsTried  int `json:"briefs_tried"`
	BriefsFailed int `json:"briefs_failed"`
	Alerted      int `json:"alerted"`

	Rejections []Rejection `json:"rejections,omitempty"`
	Errors     []string    `json:"errors,omitempty"`
}

func (r *Report) reject(url, reason string) {
	r.Rejected++
	r.Rejections = append(r.Rejections, Rejection{URL: url, Reason: reason})
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// String renders a one-line run summary for logs.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "fetched=%d seen=%d rejected=%d stories=%d rescored=%d briefs=%d alerted=%d in %s",
		r.Fetched, r.AlreadySeen, r.Rejected, r.NewStories, r.Rescored,
		r.BriefsTried, r.Alerted, r.Duration.Round(time.Millisecond))
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, " errors=%d", len(r.Errors))
	}
	return b.String()
}
