package options

const (
	// DefaultDataDir is used when no data directory is specified.
	DefaultDataDir = "."

	// DefaultCompactionThreshold is the DeadBytes count (1 MiB) above which a
	// write triggers compaction.
	DefaultCompactionThreshold uint64 = 1024 * 1024

	// DefaultSegmentPrefix is the filename prefix for segment files.
	DefaultSegmentPrefix = "data_"

	// DefaultSegmentDirectory is the subdirectory segment files live in,
	// relative to the engine's own root (DataDir/kvs). Empty means directly
	// under DataDir/kvs.
	DefaultSegmentDirectory = ""
)

// defaultOptions holds the baseline configuration for a new engine instance.
var defaultOptions = Options{
	DataDir:             DefaultDataDir,
	Engine:              EngineKVS,
	CompactionThreshold: DefaultCompactionThreshold,
	SegmentOptions: &segmentOptions{
		Prefix:    DefaultSegmentPrefix,
		Directory: DefaultSegmentDirectory,
	},
}

// NewDefaultOptions returns a fresh copy of the baseline configuration.
func NewDefaultOptions() Options {
	opts := defaultOptions
	segCopy := *defaultOptions.SegmentOptions
	opts.SegmentOptions = &segCopy
	return opts
}
