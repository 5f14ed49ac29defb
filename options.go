package wander

import (
	"log/slog"

	"github.com/hupe1980/wander/blobstore"
	"github.com/hupe1980/wander/codec"
	"github.com/hupe1980/wander/persistence"
)

type options struct {
	codec            codec.Codec
	store            blobstore.BlobStore
	compression      persistence.CompressionType
	versioned        bool
	embedChunkSize   int
	embedParallelism int
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Engine constructor behavior.
type Option func(*options)

// WithCodec configures the codec used for the snapshot sidecar.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithBlobStore configures the snapshot storage backend.
//
// If unset, snapshots go to a local store rooted at the current directory,
// so snapshot names behave like relative file paths.
func WithBlobStore(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithCompression sets the snapshot vector payload compression.
func WithCompression(ctype persistence.CompressionType) Option {
	return func(o *options) {
		o.compression = ctype
	}
}

// WithVersionedSnapshots enables versioned snapshot artifacts with a
// pointer object committed last. See persistence.WithVersioned.
func WithVersionedSnapshots(versioned bool) Option {
	return func(o *options) {
		o.versioned = versioned
	}
}

// WithEmbedBatching tunes how ingest batches are split across embedding
// backend calls. chunkSize texts per call, at most parallelism calls in
// flight. Zero values keep the defaults.
func WithEmbedBatching(chunkSize, parallelism int) Option {
	return func(o *options) {
		o.embedChunkSize = chunkSize
		o.embedParallelism = parallelism
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
