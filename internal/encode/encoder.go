// Package encode turns summary statistics records into the sorted
// sites-only VCF consumed by the external normalizer and liftover engine.
package encode

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/sumlift/internal/sumstats"
	"github.com/inodb/sumlift/internal/vcf"
)

// IdentityCollisionError reports two input records deriving the same
// variant identity. Correlation with the engine output would be
// ambiguous and could assign a flip decision to the wrong record, so
// this aborts before any engine call.
type IdentityCollisionError struct {
	Identity string
	Line     int // line of the second occurrence
}

func (e *IdentityCollisionError) Error() string {
	return fmt.Sprintf("duplicate variant identity %q at line %d", e.Identity, e.Line)
}

// Summary counts what the encoder did with the input.
type Summary struct {
	Total   int // records read
	Encoded int // records emitted to the engine input VCF
	Removed int // records on unrecognized chromosomes
}

// Encoder builds the engine input VCF.
type Encoder struct {
	addChrPrefix bool
	sourceFasta  string // used to locate the .fai for contig header lines
	logger       *zap.Logger
}

// New creates an encoder. sourceFasta may be empty; contig header lines
// are then omitted.
func New(addChrPrefix bool, sourceFasta string) *Encoder {
	return &Encoder{
		addChrPrefix: addChrPrefix,
		sourceFasta:  sourceFasta,
		logger:       zap.NewNop(),
	}
}

// SetLogger sets the logger for progress messages.
func (e *Encoder) SetLogger(l *zap.Logger) {
	e.logger = l
}

// encodedRow is one record prepared for emission.
type encodedRow struct {
	chrom   string // emitted chromosome name (prefix applied if configured)
	sortKey int
	pos     int64
	id      string
	ref     string
	alt     string
	rsid    string
}

// Encode reads every record from the parser, filters to recognized
// chromosomes, sorts by (chromosome, position), and writes the engine
// input VCF to w. The engine requires sorted input; emission order is a
// correctness requirement, not style.
//
// Identities are checked for uniqueness across the whole input,
// including records removed by the chromosome filter, since the
// reconciliation pass later correlates every input record by identity.
func (e *Encoder) Encode(parser *sumstats.Parser, w io.Writer) (Summary, error) {
	var sum Summary

	seen := make(map[string]struct{})
	var rows []encodedRow

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
		if _, dup := seen[identity]; dup {
			return sum, &IdentityCollisionError{Identity: identity, Line: rec.Line}
		}
		seen[identity] = struct{}{}

		key := ChromSortKey(rec.Chrom)
		if key == chromKeyOther {
			sum.Removed++
			continue
		}

		chrom := rec.Chrom
		if e.addChrPrefix {
			chrom = "chr" + chrom
		}

		rows = append(rows, encodedRow{
			chrom:   chrom,
			sortKey: key,
			pos:     rec.Pos,
			id:      identity,
			ref:     rec.OtherAllele,
			alt:     rec.EffectAllele,
			rsid:    rec.RSID,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].sortKey != rows[j].sortKey {
			return rows[i].sortKey < rows[j].sortKey
		}
		return rows[i].pos < rows[j].pos
	})
	sum.Encoded = len(rows)

	e.logger.Info("encoded variants for liftover",
		zap.Int("total", sum.Total),
		zap.Int("encoded", sum.Encoded),
		zap.Int("removed_invalid_chrom", sum.Removed))

	return sum, e.emit(rows, w)
}

// emit writes the sorted rows as a sites-only VCF.
func (e *Encoder) emit(rows []encodedRow, w io.Writer) error {
	vw := vcf.NewWriter(w)

	meta := e.contigLines(rows)
	meta = append(meta,
		`##INFO=<ID=RSID,Number=1,Type=String,Description="Original RSID">`,
		`##INFO=<ID=ORIG_A1,Number=1,Type=String,Description="Original effect allele (A1)">`,
		`##INFO=<ID=ORIG_A2,Number=1,Type=String,Description="Original reference allele (A2)">`,
		`##INFO=<ID=PRESWAP,Number=1,Type=Integer,Description="Alleles swapped by normalization (1=yes, 0=no)">`,
	)
	if err := vw.WriteHeader(meta); err != nil {
		return fmt.Errorf("write vcf header: %w", err)
	}

	for _, row := range rows {
		info := map[string]interface{}{
			vcf.InfoOrigA1: row.alt,
			vcf.InfoOrigA2: row.ref,
		}
		if row.rsid != "" {
			info[vcf.InfoRSID] = row.rsid
		}
		v := &vcf.Variant{
			Chrom: row.chrom,
			Pos:   row.pos,
			ID:    row.id,
			Ref:   row.ref,
			Alt:   row.alt,
			Info:  info,
		}
		if err := vw.Write(v); err != nil {
			return fmt.Errorf("write vcf record: %w", err)
		}
	}

	return vw.Flush()
}

// contigLines reads the source fasta index and returns ##contig lines
// for the chromosomes actually present in the emission, so bcftools has
// lengths without the header ballooning to the full assembly.
func (e *Encoder) contigLines(rows []encodedRow) []string {
	if e.sourceFasta == "" {
		return nil
	}

	present := make(map[string]bool)
	for _, row := range rows {
		present[row.chrom] = true
	}

	faiPath := e.sourceFasta + ".fai"
	file, err := os.Open(faiPath)
	if err != nil {
		e.logger.Warn("could not read fasta index, omitting contig lines",
			zap.String("path", faiPath), zap.Error(err))
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), "\t")
		if len(parts) < 2 {
			continue
		}
		if present[parts[0]] {
			lines = append(lines, fmt.Sprintf("##contig=<ID=%s,length=%s>", parts[0], parts[1]))
		}
	}
	return lines
}

const (
	chromKeyX     = 23
	chromKeyY     = 24
	chromKeyMT    = 25
	chromKeyOther = 99
)

// ChromSortKey maps a canonical chromosome name to its sort key:
// 1-22 numeric, X=23, Y=24, MT/M=25, anything else 99 (unrecognized).
func ChromSortKey(chrom string) int {
	chrom = sumstats.NormalizeChrom(chrom)
	if n, err := strconv.Atoi(chrom); err == nil && n >= 1 && n <= 22 {
		return n
	}
	switch chrom {
	case "X":
		return chromKeyX
	case "Y":
		return chromKeyY
	case "MT", "M":
		return chromKeyMT
	}
	return chromKeyOther
}
