package model

import (
	"encoding/json"
	"fmt"
)

// OutcomeKind is the classification recorded for a URL.
type OutcomeKind int

const (
	// Matched means the fetched body contains the target substring.
	Matched OutcomeKind = iota

	// Unmatched means the body was fetched but does not contain the target.
	Unmatched

	// Errored means no body could be classified.
	Errored
)

// OutcomeKinds lists every kind in report order.
var OutcomeKinds = []OutcomeKind{Matched, Unmatched, Errored}

// String returns the lower-case name of the kind.
func (k OutcomeKind) String() string {
	switch k {
	case Matched:
		return "matched"
	case Unmatched:
		return "unmatched"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind by name.
func (k OutcomeKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind encoded by MarshalJSON.
func (k *OutcomeKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseOutcomeKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseOutcomeKind parses the name produced by String.
func ParseOutcomeKind(s string) (OutcomeKind, error) {
	for _, k := range OutcomeKinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown outcome kind %q", s)
}

// Outcome is the single result recorded for a URLTask.
type Outcome struct {
	// Task is the task this outcome belongs to.
	Task URLTask

	// Kind is the classification.
	Kind OutcomeKind

	// Detail is the error detail for Errored outcomes.
	Detail string

	// FinalURL, StatusCode, Title and Digest are copied from the probe
	// for history and reporting.
	FinalURL   string
	StatusCode int
	Title      string
	Digest     string
}

// NewOutcome builds the outcome for a task from its probe result and,
// on the success path, the classifier's verdict.
func NewOutcome(task URLTask, result ProbeResult, verdict OutcomeKind) Outcome {
	o := Outcome{
		Task:       task,
		FinalURL:   result.FinalURL,
		StatusCode: result.StatusCode,
		Title:      result.Title,
		Digest:     result.Digest,
	}
	if !result.OK() {
		o.Kind = Errored
		o.Detail = result.Detail
		return o
	}
	o.Kind = verdict
	return o
}

// Entry returns the bucket entry for the outcome.
func (o Outcome) Entry() Entry {
	return Entry{
		Ordinal:    o.Task.Ordinal,
		URL:        o.Task.URL,
		Detail:     o.Detail,
		FinalURL:   o.FinalURL,
		StatusCode: o.StatusCode,
		Title:      o.Title,
		Digest:     o.Digest,
	}
}

// Entry is one URL stored in an outcome bucket.
type Entry struct {
	Ordinal    int    `json:"ordinal"`
	URL        string `json:"url"`
	Detail     string `json:"detail,omitempty"`
	FinalURL   string `json:"final_url,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Title      string `json:"title,omitempty"`
	Digest     string `json:"digest,omitempty"`
}

// ErroredLine formats an errored entry the way it is written to the
// errored bucket file: "<detail>: <url>".
func (e Entry) ErroredLine() string {
	return e.Detail + ": " + e.URL
}
