// Package engine drives the external normalizer and liftover engine
// (bcftools) and parses their output into typed values. Raw '1'/'0'
// flag text from the tools never leaves this package.
package engine

import "fmt"

// Failure reports an external engine step that exited non-zero or
// produced no usable output. Fatal to the run: liftover is deterministic
// and expensive, and retrying without diagnosing the cause can mask a
// chain-file or reference mismatch.
type Failure struct {
	Step   string // which engine invocation failed
	Err    error
	Stderr string
}

func (f *Failure) Error() string {
	if f.Stderr != "" {
		return fmt.Sprintf("engine %s failed: %v: %s", f.Step, f.Err, f.Stderr)
	}
	return fmt.Sprintf("engine %s failed: %v", f.Step, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}
