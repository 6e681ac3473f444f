package pipeline

import "time"

// Generation runs through a diffusion backend that can take minutes under
// load, so the pipeline client carries its own timeout tiers instead of the
// process-wide default.
const (
	DefaultTimeout  = 30 * time.Second
	GenerateTimeout = 3 * time.Minute
	RefineTimeout   = 2 * time.Minute
)
