// Package reconcile tracks allele polarity through normalization and
// liftover and rewrites summary statistics so effect estimates stay
// anchored to the correct allele on the target build.
package reconcile

// SwapState holds the per-record flags reported by the two external
// collaborators. Absence of a flag in the engine output means false.
type SwapState struct {
	// PreSwap is true if the normalizer swapped the record's two
	// alleles to make the first match the source reference.
	PreSwap bool
	// AlleleSwap is true if the liftover engine swapped the alleles,
	// e.g. while resolving the target strand.
	AlleleSwap bool
	// StrandFlip is true if the engine read the record from the
	// opposite strand. Provenance only: the engine has already
	// re-expressed REF/ALT on the target strand, so a strand flip does
	// not change which allele is first in the pair.
	StrandFlip bool
}

// EffectFlipped reports whether the record's effect orientation was
// inverted on the way to the target build. PreSwap and AlleleSwap each
// reorder the allele pair and each is its own inverse, so two swaps
// cancel and exactly one inverts: XOR.
func (s SwapState) EffectFlipped() bool {
	return s.PreSwap != s.AlleleSwap
}

// LiftedVariant is one record from the engine's successful output
// stream: target-build coordinates and alleles plus the swap flags.
type LiftedVariant struct {
	Chrom string
	Pos   int64
	Ref   string
	Alt   string
	Swaps SwapState
}

// EngineResult is the complete output of a liftover engine run. The
// reconciler requires both streams at once: the flip decision cannot be
// made until PreSwap and AlleleSwap are both known.
type EngineResult struct {
	Lifted   map[string]LiftedVariant // identity -> lifted record
	Rejected map[string]struct{}      // identities the engine refused
}

// Status is the terminal liftover outcome of one input record.
type Status string

const (
	// StatusLifted marks a record present in the engine's successful output.
	StatusLifted Status = "lifted"
	// StatusRejected marks a record the engine placed in its reject stream.
	StatusRejected Status = "rejected"
	// StatusUnknown marks a record absent from both streams, an
	// engine-level inconsistency surfaced in the output rather than hidden.
	StatusUnknown Status = "unknown"
)

// Status resolves an identity against the engine result.
func (r *EngineResult) Status(identity string) Status {
	if _, ok := r.Lifted[identity]; ok {
		return StatusLifted
	}
	if _, ok := r.Rejected[identity]; ok {
		return StatusRejected
	}
	return StatusUnknown
}
