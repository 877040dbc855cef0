package sumstats

import (
	"fmt"
	"strings"
)

// Columns names the column roles in a summary statistics table. The
// caller supplies names; nothing is inferred from the header.
type Columns struct {
	Chrom        string   // chromosome column (required)
	Pos          string   // position column (required)
	EffectAllele string   // effect allele column (required)
	OtherAllele  string   // reference/other allele column (required)
	RSID         string   // rsid column (optional)
	Effect       []string // signed effect columns to negate on flip (e.g. BETA, Z)
	Frequency    []string // effect allele frequency columns to complement on flip
}

// Schema is a Columns value resolved against a concrete header. All
// role columns are validated before any record is read, so flip logic
// downstream never deals with a missing column.
type Schema struct {
	Header []string

	ChromIdx        int
	PosIdx          int
	EffectAlleleIdx int
	OtherAlleleIdx  int
	RSIDIdx         int // -1 if no rsid column configured
	EffectIdx       []int
	FrequencyIdx    []int
}

// SchemaError reports required or configured columns missing from the header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ResolveSchema maps the configured column roles to header indices.
// Returns a SchemaError naming every column that could not be found.
func ResolveSchema(header []string, cols Columns) (*Schema, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}

	var missing []string
	lookup := func(name string) int {
		i, ok := idx[name]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}

	s := &Schema{
		Header:          header,
		ChromIdx:        lookup(cols.Chrom),
		PosIdx:          lookup(cols.Pos),
		EffectAlleleIdx: lookup(cols.EffectAllele),
		OtherAlleleIdx:  lookup(cols.OtherAllele),
		RSIDIdx:         -1,
	}

	if cols.RSID != "" {
		s.RSIDIdx = lookup(cols.RSID)
	}
	for _, name := range cols.Effect {
		s.EffectIdx = append(s.EffectIdx, lookup(name))
	}
	for _, name := range cols.Frequency {
		s.FrequencyIdx = append(s.FrequencyIdx, lookup(name))
	}

	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	return s, nil
}
