package linear

import (
	"github.com/YuminosukeSato/linreg/pkg/log"
)

// Option is a function that configures a Learner.
type Option func(*config)

type config struct {
	computeError bool
	compensated  bool
	logger       log.Logger
	progress     ProgressFunc
}

func defaultConfig() *config {
	return &config{logger: log.GetLogger()}
}

// WithComputeError enables the extra pass that computes the sum of squared
// error on the training rows.
func WithComputeError(enabled bool) Option {
	return func(c *config) {
		c.computeError = enabled
	}
}

// WithLogger sets the logger. A nil logger keeps the default.
func WithLogger(l log.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithProgress sets a callback that receives one update per processed row.
func WithProgress(fn ProgressFunc) Option {
	return func(c *config) {
		c.progress = fn
	}
}

// WithCompensatedSummation accumulates AᵗA and the column sums with
// Kahan-Neumaier summation. Results then differ in the last bits from plain
// summation.
func WithCompensatedSummation(enabled bool) Option {
	return func(c *config) {
		c.compensated = enabled
	}
}
