package reconcile

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/inodb/sumlift/internal/sumstats"
)

// Status and flag columns appended to every output row.
var addedColumns = []string{"LIFTOVER_STATUS", "PRESWAP", "ALLELE_SWAP", "STRAND_FLIP"}

// Summary counts the outcomes of one reconciliation run. It is built up
// record by record and returned from Run; there is no package-level state.
type Summary struct {
	Total         int // input records seen
	Lifted        int // records in the primary output
	StrandFlipped int // lifted records the engine read from the opposite strand
	AlleleSwapped int // lifted records whose effect orientation was inverted
	Failed        int // rejected + unknown records
	Unknown       int // records absent from both engine streams
}

// RecordWriter receives reconciled rows. Both output tables implement it.
type RecordWriter interface {
	WriteHeader(columns []string) error
	WriteRecord(fields []string) error
}

// Provenance is the audit trail of one record's reconciliation.
type Provenance struct {
	Identity      string
	SourceChrom   string
	SourcePos     int64
	LiftedChrom   string
	LiftedPos     int64
	Status        Status
	Swaps         SwapState
	EffectFlipped bool
}

// ProvenanceSink receives one Provenance entry per input record.
type ProvenanceSink interface {
	Record(p Provenance) error
}

// Reconciler applies an engine result to an input record stream,
// partitioning records into the lifted and unmatched outputs.
type Reconciler struct {
	result *EngineResult
	logger *zap.Logger
	sink   ProvenanceSink
}

// New creates a reconciler over a complete engine result.
func New(result *EngineResult) *Reconciler {
	return &Reconciler{
		result: result,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for warning and info messages.
func (rc *Reconciler) SetLogger(l *zap.Logger) {
	rc.logger = l
}

// SetProvenance sets an optional sink receiving per-record audit entries.
func (rc *Reconciler) SetProvenance(sink ProvenanceSink) {
	rc.sink = sink
}

// Run streams records from the parser, reconciles each against the
// engine result, and writes it to exactly one of the two outputs.
// Lifted records get target coordinates and alleles; records whose
// effect orientation inverted additionally get alleles swapped, effect
// columns negated, and frequency columns complemented, as one atomic
// rewrite. The returned Summary is complete only when err is nil.
func (rc *Reconciler) Run(parser *sumstats.Parser, lifted, unmatched RecordWriter) (Summary, error) {
	var sum Summary

	columns := append(append([]string{}, parser.Header()...), addedColumns...)
	if err := lifted.WriteHeader(columns); err != nil {
		return sum, fmt.Errorf("write lifted header: %w", err)
	}
	if err := unmatched.WriteHeader(columns); err != nil {
		return sum, fmt.Errorf("write unmatched header: %w", err)
	}

	schema := parser.Schema()

	for {
		rec, err := parser.Next()
		if err != nil {
			return sum, err
		}
		if rec == nil {
			break
		}
		sum.Total++

		identity := rec.Identity()
		status := rc.result.Status(identity)

		prov := Provenance{
			Identity:    identity,
			SourceChrom: rec.Chrom,
			SourcePos:   rec.Pos,
			Status:      status,
		}

		var fields []string
		switch status {
		case StatusLifted:
			lv := rc.result.Lifted[identity]
			fields, err = rc.rewrite(rec, schema, lv)
			if err != nil {
				return sum, fmt.Errorf("record %s (line %d): %w", identity, rec.Line, err)
			}

			sum.Lifted++
			if lv.Swaps.StrandFlip {
				sum.StrandFlipped++
			}
			if lv.Swaps.EffectFlipped() {
				sum.AlleleSwapped++
			}

			prov.LiftedChrom = lv.Chrom
			prov.LiftedPos = lv.Pos
			prov.Swaps = lv.Swaps
			prov.EffectFlipped = lv.Swaps.EffectFlipped()

			if err := lifted.WriteRecord(fields); err != nil {
				return sum, fmt.Errorf("write lifted record: %w", err)
			}

		default:
			sum.Failed++
			if status == StatusUnknown {
				sum.Unknown++
				rc.logger.Warn("record absent from both engine streams",
					zap.String("identity", identity),
					zap.Int("line", rec.Line))
			}

			fields = appendStatus(rec.Fields, status, SwapState{})
			if err := unmatched.WriteRecord(fields); err != nil {
				return sum, fmt.Errorf("write unmatched record: %w", err)
			}
		}

		if rc.sink != nil {
			if err := rc.sink.Record(prov); err != nil {
				return sum, fmt.Errorf("record provenance for %s: %w", identity, err)
			}
		}
	}

	rc.logger.Info("reconciliation complete",
		zap.Int("total", sum.Total),
		zap.Int("lifted", sum.Lifted),
		zap.Int("strand_flipped", sum.StrandFlipped),
		zap.Int("allele_swapped", sum.AlleleSwapped),
		zap.Int("failed", sum.Failed),
		zap.Int("unknown", sum.Unknown))

	return sum, nil
}

// rewrite produces the output row for one lifted record. Coordinates
// and alleles always move to the engine's target-build values. When the
// effect orientation inverted, the allele pair is swapped back so the
// effect allele stays first, every effect column is negated, and every
// frequency column becomes 1-f. The three updates happen together or
// not at all; a partial flip would corrupt the record.
func (rc *Reconciler) rewrite(rec *sumstats.Record, schema *sumstats.Schema, lv LiftedVariant) ([]string, error) {
	fields := append([]string{}, rec.Fields...)

	fields[schema.ChromIdx] = lv.Chrom
	fields[schema.PosIdx] = strconv.FormatInt(lv.Pos, 10)
	fields[schema.OtherAlleleIdx] = lv.Ref
	fields[schema.EffectAlleleIdx] = lv.Alt

	if lv.Swaps.EffectFlipped() {
		fields[schema.EffectAlleleIdx], fields[schema.OtherAlleleIdx] =
			fields[schema.OtherAlleleIdx], fields[schema.EffectAlleleIdx]

		for _, i := range schema.EffectIdx {
			flipped, err := negate(fields[i])
			if err != nil {
				return nil, fmt.Errorf("effect column %s: %w", schema.Header[i], err)
			}
			fields[i] = flipped
		}
		for _, i := range schema.FrequencyIdx {
			flipped, err := complement(fields[i])
			if err != nil {
				return nil, fmt.Errorf("frequency column %s: %w", schema.Header[i], err)
			}
			fields[i] = flipped
		}
	}

	return appendStatus(fields, StatusLifted, lv.Swaps), nil
}

// appendStatus adds the status and flag columns to a row.
func appendStatus(fields []string, status Status, swaps SwapState) []string {
	return append(fields,
		string(status),
		strconv.FormatBool(swaps.PreSwap),
		strconv.FormatBool(swaps.AlleleSwap),
		strconv.FormatBool(swaps.StrandFlip),
	)
}

// negate flips the sign of a numeric field. Missing values pass through.
func negate(v string) (string, error) {
	if sumstats.IsMissing(v) {
		return v, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return "", fmt.Errorf("non-numeric value %q", v)
	}
	if f == 0 {
		return v, nil // avoid "-0"
	}
	return strconv.FormatFloat(-f, 'g', -1, 64), nil
}

// complement replaces a frequency f with 1-f. Missing values pass through.
func complement(v string) (string, error) {
	if sumstats.IsMissing(v) {
		return v, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return "", fmt.Errorf("non-numeric value %q", v)
	}
	return strconv.FormatFloat(1-f, 'g', -1, 64), nil
}
