package dashboard

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline. Record-level conditions (missing FX rate,
// bad symbol) are recovered by exclusion-and-count; only integrity violations
// abort a run.
var (
	// ErrMissingFXRate reports that no exchange rate exists for a record's
	// settlement month. The record is excluded and counted, never converted
	// at a default rate.
	ErrMissingFXRate = errors.New("missing fx rate")

	// ErrCheckpointNotFound reports that no checkpoint exists for a stage.
	// Corrupt checkpoints are deliberately folded into this: the stage
	// recomputes either way.
	ErrCheckpointNotFound = errors.New("checkpoint not found")

	// ErrMasterIntegrity reports duplicate natural keys inside a master
	// record set. This should be unreachable given the merge invariant, so
	// it is fatal.
	ErrMasterIntegrity = errors.New("master integrity violation")
)

// SymbolError reports an instrument identifier that cannot be mapped into the
// shared symbol space.
type SymbolError struct {
	Ticker string
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("symbol %q cannot be normalized", e.Ticker)
}
