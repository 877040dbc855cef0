package vcf

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Writer writes a minimal sites-only VCF (no genotype columns), as
// consumed by bcftools norm and +liftover.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a VCF writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteHeader writes the fileformat line, any extra meta lines (contigs,
// INFO definitions) verbatim, and the #CHROM column line.
func (vw *Writer) WriteHeader(metaLines []string) error {
	if _, err := vw.w.WriteString("##fileformat=VCFv4.2\n"); err != nil {
		return err
	}
	for _, line := range metaLines {
		if _, err := vw.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	_, err := vw.w.WriteString("#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n")
	return err
}

// Write writes one variant row.
func (vw *Writer) Write(v *Variant) error {
	qual := v.Qual
	if qual == "" {
		qual = "."
	}
	filter := v.Filter
	if filter == "" {
		filter = "."
	}
	row := strings.Join([]string{
		v.Chrom,
		fmt.Sprintf("%d", v.Pos),
		v.ID,
		v.Ref,
		v.Alt,
		qual,
		filter,
		FormatInfo(v.Info),
	}, "\t")
	_, err := vw.w.WriteString(row + "\n")
	return err
}

// Flush flushes buffered output.
func (vw *Writer) Flush() error {
	return vw.w.Flush()
}

// infoTagOrder fixes the emission order of the tags this tool writes, so
// output is deterministic and diffable. Unknown tags sort after, by name.
var infoTagOrder = map[string]int{
	InfoRSID:    0,
	InfoOrigA1:  1,
	InfoOrigA2:  2,
	InfoPreSwap: 3,
	InfoSwap:    4,
	InfoFlip:    5,
}

// FormatInfo renders an INFO map back to its semicolon-joined text form.
func FormatInfo(info map[string]interface{}) string {
	if len(info) == 0 {
		return "."
	}

	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		oi, iok := infoTagOrder[keys[i]]
		oj, jok := infoTagOrder[keys[j]]
		if iok && jok {
			return oi < oj
		}
		if iok != jok {
			return iok
		}
		return keys[i] < keys[j]
	})

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch t := info[k].(type) {
		case bool:
			if t {
				parts = append(parts, k)
			}
		default:
			parts = append(parts, fmt.Sprintf("%s=%v", k, t))
		}
	}
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, ";")
}
