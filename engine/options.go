package engine

import (
	"log/slog"

	"github.com/veltra/chronofile/internal/options"
	"github.com/veltra/chronofile/sig"
)

type config struct {
	logger  *slog.Logger
	typeMap sig.TypeMap
}

func newConfig() *config {
	return &config{logger: slog.New(slog.DiscardHandler)}
}

// Option configures Create or Open.
type Option = options.Option[*config]

// WithLogger routes engine activity — file creation, and a signature
// mismatch resolved via WithTypeMap — to logger. A nil logger is ignored
// and the discard logger stays in place, so call sites never need to
// nil-check.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithTypeMap supplies the named remapping Open consults when the
// persisted type signature disagrees with T: entries the map covers are
// rewritten before the structural comparison, so a renamed field or type
// doesn't fail the signature check outright. Open without this option
// fails a mismatch with errs.ErrTypeMapRequired instead of
// errs.ErrSignatureMismatch, since there is then nothing it could try.
func WithTypeMap(m sig.TypeMap) Option {
	return options.NoError(func(c *config) {
		c.typeMap = m
	})
}
