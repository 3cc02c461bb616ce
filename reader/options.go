package reader

import (
	"github.com/tsawler/pdfgraph/core"
)

// DefaultContainerCacheSize is the number of decoded object streams kept by
// the lazy object source
const DefaultContainerCacheSize = 16

// Filter decides whether an object enters the document. It may return a
// replacement value. Returning false drops the object. Filters run after
// decryption and see object stream members individually; object streams
// themselves are offered to the filter before they are expanded.
type Filter func(id core.ObjectID, obj core.Object) (core.Object, bool)

// Option configures loading
type Option func(*config)

type config struct {
	password  string
	filter    Filter
	workers   int
	cacheSize int
}

func newConfig(opts []Option) *config {
	cfg := &config{workers: 1, cacheSize: DefaultContainerCacheSize}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithPassword sets the password for encrypted documents. The empty
// password is always tried as well.
func WithPassword(password string) Option {
	return func(c *config) {
		c.password = password
	}
}

// WithFilter installs a per-object filter
func WithFilter(f Filter) Option {
	return func(c *config) {
		c.filter = f
	}
}

// WithWorkers parses objects on up to n goroutines (default: 1)
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithContainerCacheSize sets how many decoded object streams the lazy
// object source keeps (default: 16)
func WithContainerCacheSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.cacheSize = n
		}
	}
}
