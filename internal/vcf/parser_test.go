package vcf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const liftedVCF = `##fileformat=VCFv4.2
##INFO=<ID=PRESWAP,Number=1,Type=Integer,Description="Alleles swapped by normalization (1=yes, 0=no)">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
1	500	rs1	G	A	.	.	RSID=rs1;ORIG_A1=A;ORIG_A2=G;PRESWAP=1
2	750	2:200:T:C	C	T	.	.	ORIG_A1=C;ORIG_A2=T;PRESWAP=0;SWAP;FLIP
`

func TestParser_LiftedRecords(t *testing.T) {
	p, err := NewParserFromReader(strings.NewReader(liftedVCF))
	require.NoError(t, err)

	v1, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, v1)
	assert.Equal(t, "1", v1.Chrom)
	assert.Equal(t, int64(500), v1.Pos)
	assert.Equal(t, "rs1", v1.ID)
	assert.Equal(t, "G", v1.Ref)
	assert.Equal(t, "A", v1.Alt)
	assert.True(t, v1.InfoFlag(InfoPreSwap))
	assert.False(t, v1.InfoFlag(InfoSwap), "absent tag is false")
	assert.False(t, v1.InfoFlag(InfoFlip))
	assert.Equal(t, "A", v1.InfoString(InfoOrigA1))
	assert.Equal(t, "G", v1.InfoString(InfoOrigA2))

	v2, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, v2)
	assert.Equal(t, "2:200:T:C", v2.ID)
	assert.False(t, v2.InfoFlag(InfoPreSwap), "PRESWAP=0 is false")
	assert.True(t, v2.InfoFlag(InfoSwap), "bare flag is true")
	assert.True(t, v2.InfoFlag(InfoFlip))

	v3, err := p.Next()
	require.NoError(t, err)
	assert.Nil(t, v3)
}

func TestParser_NoHeader(t *testing.T) {
	_, err := NewParserFromReader(strings.NewReader("1\t500\trs1\tG\tA\t.\t.\t.\n"))
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParser_TooFewColumns(t *testing.T) {
	input := "##fileformat=VCFv4.2\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n1\t500\trs1\n"
	p, err := NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)

	_, err = p.Next()
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 3, parseErr.Line)
}

func TestVariant_NormalizeChrom(t *testing.T) {
	v := &Variant{Chrom: "chr12"}
	assert.Equal(t, "12", v.NormalizeChrom())

	v = &Variant{Chrom: "X"}
	assert.Equal(t, "X", v.NormalizeChrom())
}

func TestVariant_InfoString_DotIsMissing(t *testing.T) {
	v := &Variant{Info: map[string]interface{}{InfoRSID: "."}}
	assert.Equal(t, "", v.InfoString(InfoRSID))
}
