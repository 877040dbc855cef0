package sumstats

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var parserCols = Columns{
	Chrom:        "CHR",
	Pos:          "POS",
	EffectAllele: "A1",
	OtherAllele:  "A2",
	RSID:         "RSID",
}

func TestParser_Basic(t *testing.T) {
	input := "CHR\tPOS\tRSID\tA1\tA2\tBETA\n" +
		"1\t100\trs1\ta\tg\t0.5\n" +
		"chr2\t200\t.\tC\tT\t-0.1\n"

	p, err := NewParserFromReader(strings.NewReader(input), parserCols)
	require.NoError(t, err)

	r1, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, r1)
	assert.Equal(t, "1", r1.Chrom)
	assert.Equal(t, int64(100), r1.Pos)
	assert.Equal(t, "A", r1.EffectAllele, "alleles uppercased")
	assert.Equal(t, "G", r1.OtherAllele)
	assert.Equal(t, "rs1", r1.RSID)
	assert.Equal(t, 2, r1.Line)

	r2, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, r2)
	assert.Equal(t, "2", r2.Chrom, "chr prefix stripped")
	assert.Equal(t, "", r2.RSID, "dot rsid is missing")
	assert.Equal(t, "chr2", r2.Fields[0], "original field text preserved")

	r3, err := p.Next()
	require.NoError(t, err)
	assert.Nil(t, r3)
}

func TestParser_FloatPositionAndChrom(t *testing.T) {
	// Some exporters write numeric columns as floats (1.0, 12345.0).
	input := "CHR\tPOS\tRSID\tA1\tA2\n" +
		"1.0\t12345.0\trs1\tA\tG\n"

	p, err := NewParserFromReader(strings.NewReader(input), parserCols)
	require.NoError(t, err)

	r, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "1", r.Chrom)
	assert.Equal(t, int64(12345), r.Pos)
}

func TestParser_MissingColumnIsSchemaError(t *testing.T) {
	input := "CHR\tPOS\tA1\n1\t100\tA\n"

	_, err := NewParserFromReader(strings.NewReader(input), parserCols)
	require.Error(t, err)

	var schemaErr *SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestParser_ColumnCountMismatch(t *testing.T) {
	input := "CHR\tPOS\tRSID\tA1\tA2\n1\t100\trs1\tA\n"

	p, err := NewParserFromReader(strings.NewReader(input), parserCols)
	require.NoError(t, err)

	_, err = p.Next()
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Line)
}

func TestParser_InvalidPosition(t *testing.T) {
	input := "CHR\tPOS\tRSID\tA1\tA2\n1\tabc\trs1\tA\tG\n"

	p, err := NewParserFromReader(strings.NewReader(input), parserCols)
	require.NoError(t, err)

	_, err = p.Next()
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Message, "invalid position")
}

func TestParser_NoTrailingNewline(t *testing.T) {
	input := "CHR\tPOS\tRSID\tA1\tA2\n1\t100\trs1\tA\tG"

	p, err := NewParserFromReader(strings.NewReader(input), parserCols)
	require.NoError(t, err)

	r, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, int64(100), r.Pos)

	r, err = p.Next()
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestParser_GzippedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sumstats.txt.gz")

	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte("CHR\tPOS\tRSID\tA1\tA2\n1\t100\trs1\tA\tG\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	p, err := NewParser(path, parserCols)
	require.NoError(t, err)
	defer p.Close()

	r, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "rs1", r.RSID)
}

func TestRecord_Identity(t *testing.T) {
	withRSID := &Record{Chrom: "1", Pos: 100, EffectAllele: "A", OtherAllele: "G", RSID: "rs42"}
	assert.Equal(t, "rs42", withRSID.Identity())

	noRSID := &Record{Chrom: "1", Pos: 100, EffectAllele: "A", OtherAllele: "G"}
	assert.Equal(t, "1:100:G:A", noRSID.Identity())
}

func TestNormalizeChrom(t *testing.T) {
	assert.Equal(t, "1", NormalizeChrom("chr1"))
	assert.Equal(t, "X", NormalizeChrom("chrX"))
	assert.Equal(t, "MT", NormalizeChrom("MT"))
	assert.Equal(t, "chr", NormalizeChrom("chr"), "bare prefix left alone")
}
