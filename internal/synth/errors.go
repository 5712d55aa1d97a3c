package synth

import "fmt"

// ErrConfig indicates the run was asked to do something nonsensical.
// Always fatal; nothing was generated.
type ErrConfig struct {
	Msg string
}

func (e *ErrConfig) Error() string {
	return "invalid configuration: " + e.Msg
}

// ErrIO indicates the dataset destination failed mid-run. Fatal, but
// everything flushed before the failure is preserved on disk.
type ErrIO struct {
	Op  string
	Err error
}

func (e *ErrIO) Error() string {
	return fmt.Sprintf("dataset %s failed: %v", e.Op, e.Err)
}

func (e *ErrIO) Unwrap() error { return e.Err }

// ErrCircuitOpen indicates the run was aborted because the first
// Failures samples all failed at the transport level with no successful
// API round-trip ever, pointing at a dead endpoint rather than bad luck.
type ErrCircuitOpen struct {
	Failures int
	Last     error
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("aborting run: first %d samples all failed (%v)", e.Failures, e.Last)
}

func (e *ErrCircuitOpen) Unwrap() error { return e.Last }
