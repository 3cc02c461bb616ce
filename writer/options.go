package writer

import (
	"fmt"
)

// DefaultMaxObjectsPerStream caps the members of one packed object stream
const DefaultMaxObjectsPerStream = 100

// Options controls the layout of saved files
type Options struct {
	// UseObjectStreams packs eligible objects into compressed object
	// streams. It implies UseXRefStreams, since packed objects can only be
	// indexed by a cross-reference stream.
	UseObjectStreams bool

	// UseXRefStreams writes a cross-reference stream instead of a table
	UseXRefStreams bool

	// MaxObjectsPerStream caps the members of each object stream. Zero
	// means DefaultMaxObjectsPerStream.
	MaxObjectsPerStream int

	// CompressionLevel is the deflate level (0-9) for streams marked for
	// compression, object streams and the cross-reference stream. Level 0
	// writes stored blocks.
	CompressionLevel int
}

// DefaultOptions returns options for classic output: every object written
// directly and a cross-reference table
func DefaultOptions() Options {
	return Options{
		MaxObjectsPerStream: DefaultMaxObjectsPerStream,
		CompressionLevel:    6,
	}
}

// ModernOptions returns options for compact output with object streams and
// a cross-reference stream
func ModernOptions() Options {
	opts := DefaultOptions()
	opts.UseObjectStreams = true
	opts.UseXRefStreams = true
	return opts
}

func (o Options) normalize() (Options, error) {
	if o.CompressionLevel < 0 || o.CompressionLevel > 9 {
		return o, fmt.Errorf("compression level %d out of range 0-9", o.CompressionLevel)
	}
	if o.MaxObjectsPerStream < 0 {
		return o, fmt.Errorf("invalid MaxObjectsPerStream %d", o.MaxObjectsPerStream)
	}
	if o.MaxObjectsPerStream == 0 {
		o.MaxObjectsPerStream = DefaultMaxObjectsPerStream
	}
	if o.UseObjectStreams {
		o.UseXRefStreams = true
	}
	return o, nil
}
