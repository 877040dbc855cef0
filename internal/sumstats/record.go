// Package sumstats provides tab-delimited summary statistics parsing and writing.
package sumstats

import (
	"fmt"
	"strings"
)

// Record represents a single row of a summary statistics table.
// Fields holds every column value in original order; the typed attributes
// are parsed views of the schema-resolved columns.
type Record struct {
	Fields []string // all column values, original order

	Chrom        string // canonical chromosome name (no "chr" prefix)
	Pos          int64  // 1-based position on the source build
	EffectAllele string // uppercased effect allele (A1)
	OtherAllele  string // uppercased reference/other allele (A2)
	RSID         string // empty if no rsid column or value is missing

	Line int // 1-based line number in the input file
}

// missing values accepted in the rsid column
var missingValues = map[string]bool{
	"": true, ".": true, "NA": true, "nan": true, "NaN": true,
}

// IsMissing reports whether a field value counts as missing.
func IsMissing(v string) bool {
	return missingValues[v]
}

// Identity returns the key used to correlate this record across the
// encoder, the liftover engine output, and the reconciler. The rsid is
// preferred when present; otherwise chrom:pos:ref:effect on source-build
// coordinates.
func (r *Record) Identity() string {
	if r.RSID != "" {
		return r.RSID
	}
	return fmt.Sprintf("%s:%d:%s:%s", r.Chrom, r.Pos, r.OtherAllele, r.EffectAllele)
}

// NormalizeChrom returns the chromosome name without a "chr" prefix.
func NormalizeChrom(chrom string) string {
	if len(chrom) > 3 && strings.EqualFold(chrom[:3], "chr") {
		return chrom[3:]
	}
	return chrom
}
