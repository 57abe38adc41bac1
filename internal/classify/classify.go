package classify

import (
	"strings"

	"github.com/nao1215/pagescan/internal/config"
	"github.com/nao1215/pagescan/internal/model"
	"golang.org/x/text/cases"
)

// DefaultTarget is used when no target substring is configured.
const DefaultTarget = config.DefaultTarget

// Classifier checks page bodies for a literal substring.
// A Classifier is immutable and safe for concurrent use.
type Classifier struct {
	target     string
	ignoreCase bool
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithIgnoreCase matches the target using Unicode case folding.
func WithIgnoreCase(enabled bool) Option {
	return func(c *Classifier) {
		c.ignoreCase = enabled
	}
}

// New creates a Classifier for target. An empty target falls back to
// DefaultTarget.
func New(target string, opts ...Option) *Classifier {
	if target == "" {
		target = DefaultTarget
	}
	c := &Classifier{target: target}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Target returns the substring being searched for.
func (c *Classifier) Target() string {
	return c.target
}

// Classify returns Matched if body contains the target, otherwise Unmatched.
func (c *Classifier) Classify(body string) model.OutcomeKind {
	if c.Contains(body) {
		return model.Matched
	}
	return model.Unmatched
}

// Contains reports whether body contains the target.
func (c *Classifier) Contains(body string) bool {
	if !c.ignoreCase {
		return strings.Contains(body, c.target)
	}
	// A Caser keeps state and must not be shared between goroutines.
	fold := cases.Fold()
	return strings.Contains(fold.String(body), fold.String(c.target))
}
