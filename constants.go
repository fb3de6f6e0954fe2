package ndd

import "github.com/ndd-io/ndd/internal/constants"

// Re-exported for callers that only need the defaults, not the
// lower-level packages.
const (
	DefaultBufferSize = constants.DefaultBufferSize
	DefaultBlockSize  = constants.DefaultBlockSize
	MaxConsumers      = constants.MaxConsumers
	DefaultPort       = constants.DefaultPort
)
