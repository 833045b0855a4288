// Package normalize converts loosely typed SamCart values into the canonical
// shapes expected by UTMify. Every function is total: bad input degrades to a
// documented default instead of failing.
package normalize

import (
	"time"

	"github.com/angelmondragon/samcart-relay/pkg/logger"
)

// Normalizer carries the logger used for soft failures and the clock used for
// defaulted timestamps.
type Normalizer struct {
	logger *logger.Logger
	now    func() time.Time
}

type Option func(*Normalizer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

func New(logg *logger.Logger, opts ...Option) *Normalizer {
	n := &Normalizer{
		logger: logg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Now returns the current instant in UTC.
func (n *Normalizer) Now() time.Time {
	if n == nil || n.now == nil {
		return time.Now().UTC()
	}
	return n.now().UTC()
}
