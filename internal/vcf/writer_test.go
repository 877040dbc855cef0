package vcf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.WriteHeader([]string{`##contig=<ID=1,length=249250621>`}))
	require.NoError(t, w.Write(&Variant{
		Chrom: "1",
		Pos:   100,
		ID:    "rs1",
		Ref:   "G",
		Alt:   "A",
		Info: map[string]interface{}{
			InfoRSID:   "rs1",
			InfoOrigA1: "A",
			InfoOrigA2: "G",
		},
	}))
	require.NoError(t, w.Flush())

	p, err := NewParserFromReader(strings.NewReader(buf.String()))
	require.NoError(t, err)

	v, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "1", v.Chrom)
	assert.Equal(t, int64(100), v.Pos)
	assert.Equal(t, "rs1", v.InfoString(InfoRSID))
	assert.Equal(t, "A", v.InfoString(InfoOrigA1))
	assert.Equal(t, "G", v.InfoString(InfoOrigA2))
}

func TestWriter_HeaderLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader(nil))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "##fileformat=VCFv4.2", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "#CHROM\tPOS\tID\tREF\tALT"))
}

func TestFormatInfo_DeterministicOrder(t *testing.T) {
	info := map[string]interface{}{
		InfoPreSwap: "1",
		InfoOrigA2:  "G",
		InfoRSID:    "rs1",
		InfoOrigA1:  "A",
	}
	assert.Equal(t, "RSID=rs1;ORIG_A1=A;ORIG_A2=G;PRESWAP=1", FormatInfo(info))
}

func TestFormatInfo_FlagsAndEmpty(t *testing.T) {
	assert.Equal(t, ".", FormatInfo(nil))
	assert.Equal(t, "SWAP", FormatInfo(map[string]interface{}{InfoSwap: true}))
	assert.Equal(t, ".", FormatInfo(map[string]interface{}{InfoSwap: false}))
}
