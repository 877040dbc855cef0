// Package vcf provides VCF parsing and writing for the liftover engine boundary.
package vcf

// INFO tags used on the engine input/output VCFs.
const (
	InfoRSID    = "RSID"    // original rsid, when the input table had one
	InfoOrigA1  = "ORIG_A1" // original effect allele before normalization
	InfoOrigA2  = "ORIG_A2" // original reference allele before normalization
	InfoPreSwap = "PRESWAP" // alleles swapped by the normalizer (1/0)
	InfoSwap    = "SWAP"    // alleles swapped by the liftover engine
	InfoFlip    = "FLIP"    // record read from the opposite strand
)

// Variant represents a single record from a VCF file.
type Variant struct {
	Chrom  string                 // Chromosome name (e.g., "12", "chr12")
	Pos    int64                  // 1-based genomic position
	ID     string                 // Variant identity key
	Ref    string                 // Reference allele
	Alt    string                 // Alternate allele
	Qual   string                 // Quality field, kept verbatim
	Filter string                 // Filter status
	Info   map[string]interface{} // INFO field key-value pairs
}

// InfoString returns the string value of an INFO tag, or "" when the tag
// is absent or a bare flag.
func (v *Variant) InfoString(key string) string {
	val, ok := v.Info[key]
	if !ok {
		return ""
	}
	s, ok := val.(string)
	if !ok || s == "." {
		return ""
	}
	return s
}

// InfoFlag reports whether an INFO tag is set truthy. Both bare flags
// (SWAP) and integer-valued tags (PRESWAP=1) count; an absent tag is
// false.
func (v *Variant) InfoFlag(key string) bool {
	val, ok := v.Info[key]
	if !ok {
		return false
	}
	switch t := val.(type) {
	case bool:
		return t
	case string:
		return t == "1"
	}
	return false
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func (v *Variant) NormalizeChrom() string {
	if len(v.Chrom) > 3 && v.Chrom[:3] == "chr" {
		return v.Chrom[3:]
	}
	return v.Chrom
}
