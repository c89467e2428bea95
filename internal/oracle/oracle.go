// Package oracle classifies an ISP name into a coarse network trust
// category by asking an external language model. The model is an untrusted,
// best-effort classifier: every failure mode (transport error, timeout,
// open circuit, unparseable reply) resolves to a deterministic fallback
// category so callers always receive a usable result.
package oracle

import (
	"context"
	"fmt"
	"strings"
)

// Category is the closed set of network trust categories.
type Category string

const (
	// CategorySafe covers residential ISPs, mobile carriers and other
	// networks ordinary end users originate from.
	CategorySafe Category = "safe"
	// CategoryUnsafe covers cloud providers, proxies, scrapers, security
	// scanners and other networks real browsers rarely originate from.
	CategoryUnsafe Category = "unsafe"
	// CategoryVerification marks networks the model could not place in
	// either partition. Its disposition (captcha vs bot) is a policy choice.
	CategoryVerification Category = "verification"
)

// ParseCategory maps a config string onto a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CategorySafe, CategoryUnsafe, CategoryVerification:
		return c, nil
	}
	return "", fmt.Errorf("unknown oracle category %q", s)
}

// IsUnsafe reports whether the category belongs to the known-unsafe
// partition.
func (c Category) IsUnsafe() bool { return c == CategoryUnsafe }

// IsIndeterminate reports whether the category needs a policy decision.
func (c Category) IsIndeterminate() bool { return c == CategoryVerification }

// Result is the oracle's answer for one ISP name.
type Result struct {
	Category  Category `json:"category"`
	Rationale string   `json:"rationale,omitempty"`
}

// Classifier turns an ISP name into a trust category. Implementations are
// total: they must return a usable Result for every input, substituting a
// deterministic fallback when the underlying capability fails.
type Classifier interface {
	Classify(ctx context.Context, isp string) Result
}

// Static is a fixed-answer Classifier, used in tests and in -test mode.
type Static struct {
	Result Result
}

func (s Static) Classify(ctx context.Context, isp string) Result { return s.Result }
