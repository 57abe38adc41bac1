package model

import "sort"

// Comparison lists how URLs moved between buckets from one scan to another.
// URLs are compared by value, so duplicates in the input collapse here.
type Comparison struct {
	// PreviousID and CurrentID identify the compared scans.
	PreviousID int64 `json:"previous_id"`
	CurrentID  int64 `json:"current_id"`

	// NewlyMatched were not matched before and are matched now.
	NewlyMatched []string `json:"newly_matched"`

	// NoLongerMatched were matched before and are not matched now.
	NoLongerMatched []string `json:"no_longer_matched"`

	// NewlyErrored were classified before and errored now.
	NewlyErrored []string `json:"newly_errored"`

	// Recovered errored before and were classified now.
	Recovered []string `json:"recovered"`

	// Added and Removed are URLs present in only one of the two scans.
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// HasChanges reports whether any URL changed between the scans.
func (c *Comparison) HasChanges() bool {
	return len(c.NewlyMatched) > 0 || len(c.NoLongerMatched) > 0 ||
		len(c.NewlyErrored) > 0 || len(c.Recovered) > 0 ||
		len(c.Added) > 0 || len(c.Removed) > 0
}

// CompareReports compares a previous scan with a current one.
// Every result slice is sorted.
func CompareReports(previous, current *ScanReport) *Comparison {
	prev := kindsByURL(previous)
	cur := kindsByURL(current)

	c := &Comparison{
		PreviousID:      previous.ID,
		CurrentID:       current.ID,
		NewlyMatched:    []string{},
		NoLongerMatched: []string{},
		NewlyErrored:    []string{},
		Recovered:       []string{},
		Added:           []string{},
		Removed:         []string{},
	}

	for url, now := range cur {
		before, ok := prev[url]
		if !ok {
			c.Added = append(c.Added, url)
			if now == Matched {
				c.NewlyMatched = append(c.NewlyMatched, url)
			}
			continue
		}
		if now == Matched && before != Matched {
			c.NewlyMatched = append(c.NewlyMatched, url)
		}
		if before == Matched && now != Matched {
			c.NoLongerMatched = append(c.NoLongerMatched, url)
		}
		if now == Errored && before != Errored {
			c.NewlyErrored = append(c.NewlyErrored, url)
		}
		if before == Errored && now != Errored {
			c.Recovered = append(c.Recovered, url)
		}
	}
	for url, before := range prev {
		if _, ok := cur[url]; ok {
			continue
		}
		c.Removed = append(c.Removed, url)
		if before == Matched {
			c.NoLongerMatched = append(c.NoLongerMatched, url)
		}
	}

	for _, s := range [][]string{c.NewlyMatched, c.NoLongerMatched, c.NewlyErrored, c.Recovered, c.Added, c.Removed} {
		sort.Strings(s)
	}
	return c
}

// kindsByURL maps each URL to its outcome. When a URL occurs more than once
// the strongest outcome wins (Matched over Unmatched over Errored).
func kindsByURL(r *ScanReport) map[string]OutcomeKind {
	m := make(map[string]OutcomeKind, r.Total())
	for _, kind := range []OutcomeKind{Errored, Unmatched, Matched} {
		for _, e := range r.Bucket(kind) {
			m[e.URL] = kind
		}
	}
	return m
}
