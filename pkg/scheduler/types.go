package scheduler

import "time"

// CrossLayerMode controls how the scheduler sequences layers against each
// other (spec.md §4.5).
type CrossLayerMode string

const (
	// ModeSequential runs one layer's wave to completion (success, failure,
	// or per-tool timeout) before starting the next layer's wave.
	ModeSequential CrossLayerMode = "sequential"

	// ModePipelined launches every layer's wave as soon as the scheduler
	// starts, subject only to each layer's own concurrency cap — except the
	// ensemble layer (the highest-numbered registered layer), which always
	// waits for every other layer to finish, since it consumes their output
	// (spec.md §2 layer 9). This is the scheduler's resolution of the
	// "pipelined" mode: layers don't have declared data dependencies on
	// each other except the implicit one the ensemble layer has on
	// everything below it.
	ModePipelined CrossLayerMode = "pipelined"
)

// Valid reports whether m is a recognized mode.
func (m CrossLayerMode) Valid() bool {
	return m == ModeSequential || m == ModePipelined
}

// DefaultCancelGracePeriod is how long the scheduler waits for an adapter to
// return after its context is cancelled before declaring it unresponsive
// (spec.md §4.5).
const DefaultCancelGracePeriod = 5 * time.Second

// Config parameterizes one Scheduler run.
type Config struct {
	// MaxParallelPerLayer caps concurrent Analyze calls within one layer's
	// wave. Missing entries fall back to DefaultMaxParallel.
	MaxParallelPerLayer map[int]int

	// CrossLayerMode selects sequential or pipelined layer sequencing.
	CrossLayerMode CrossLayerMode

	// PerToolDeadlines overrides the per-tool deadline for specific tool
	// ids; tools not listed use GlobalDeadline.
	PerToolDeadlines map[string]time.Duration

	// GlobalDeadline bounds the whole audit. A tool's effective deadline is
	// the lesser of its PerToolDeadlines entry (if any) and the time
	// remaining under GlobalDeadline (spec.md §4.5).
	GlobalDeadline time.Duration

	// CancelGracePeriod overrides DefaultCancelGracePeriod.
	CancelGracePeriod time.Duration
}

// DefaultMaxParallel is used for any layer missing from
// Config.MaxParallelPerLayer.
const DefaultMaxParallel = 4

func (c Config) maxParallel(layer int) int {
	if n, ok := c.MaxParallelPerLayer[layer]; ok && n > 0 {
		return n
	}
	return DefaultMaxParallel
}

func (c Config) graceSeconds() time.Duration {
	if c.CancelGracePeriod > 0 {
		return c.CancelGracePeriod
	}
	return DefaultCancelGracePeriod
}

// ToolOutcome is one tool's terminal state for an audit.
type ToolOutcome string

const (
	OutcomeCompleted      ToolOutcome = "COMPLETED"
	OutcomeSkippedUnavail  ToolOutcome = "SKIPPED_UNAVAILABLE"
	OutcomeFailedTransient ToolOutcome = "FAILED_TRANSIENT"
	OutcomeFailedPermanent ToolOutcome = "FAILED_PERMANENT"
	OutcomeTimedOut        ToolOutcome = "TIMED_OUT"
	OutcomeCancelled       ToolOutcome = "CANCELLED"
)

// ToolResult is one tool's run record, published on the bus and returned in
// the final report.
type ToolResult struct {
	ToolID      string
	Layer       int
	Outcome     ToolOutcome
	FindingsRaw int
	StartedAt   time.Time
	EndedAt     time.Time
	Err         error
}

// Result is the scheduler's overall output for one audit run.
type Result struct {
	ToolResults     []ToolResult
	PartialTimeout  bool
	GlobalCancelled bool
}
