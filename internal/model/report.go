package model

import "time"

// ScanReport is the result of one completed scan.
// It is what the report writers render and what the database stores.
type ScanReport struct {
	// ID is the database identifier, zero until the report is saved.
	ID int64 `json:"id,omitempty"`

	// Source names where the URLs came from (a file path or listing URL).
	Source string `json:"source"`

	// Target is the substring the scan looked for.
	Target string `json:"target"`

	// StartedAt and FinishedAt bound the Running state of the scan.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Submitted is the number of URLs handed to the scan.
	Submitted int `json:"submitted"`

	// Matched, Unmatched and Errored are the three outcome buckets in input order.
	Matched   []Entry `json:"matched"`
	Unmatched []Entry `json:"unmatched"`
	Errored   []Entry `json:"errored"`

	// IntegrityError is the integrity fault message, empty when the bucket
	// sizes add up to Submitted.
	IntegrityError string `json:"integrity_error,omitempty"`
}

// Total returns the sum of the three bucket sizes.
func (r *ScanReport) Total() int {
	return len(r.Matched) + len(r.Unmatched) + len(r.Errored)
}

// Consistent reports whether the scan passed its integrity check.
func (r *ScanReport) Consistent() bool {
	return r.IntegrityError == "" && r.Total() == r.Submitted
}

// Bucket returns the entries recorded for a kind.
func (r *ScanReport) Bucket(kind OutcomeKind) []Entry {
	switch kind {
	case Matched:
		return r.Matched
	case Unmatched:
		return r.Unmatched
	case Errored:
		return r.Errored
	default:
		return nil
	}
}

// Elapsed returns how long the scan ran.
func (r *ScanReport) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// URLs returns the URLs of a bucket in order.
func (r *ScanReport) URLs(kind OutcomeKind) []string {
	entries := r.Bucket(kind)
	urls := make([]string, len(entries))
	for i, e := range entries {
		urls[i] = e.URL
	}
	return urls
}
