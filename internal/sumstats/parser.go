package sumstats

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Parser reads records from a tab-delimited summary statistics file.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	header     []string
	schema     *Schema
	cols       Columns
}

// NewParser creates a parser for the given file and column configuration.
// Supports plain and gzipped (.gz) input. The header is read and the
// column roles resolved immediately, so a missing column fails here
// rather than mid-stream.
func NewParser(path string, cols Columns) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin, cols)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sumstats file: %w", err)
	}

	p := &Parser{file: file, cols: cols}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	_, err = file.Read(buf)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("read sumstats header: %w", err)
	}

	_, err = file.Seek(0, 0)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("seek sumstats file: %w", err)
	}

	if buf[0] == 0x1f && buf[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader, cols Columns) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(r),
		cols:   cols,
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// parseHeader reads the header line and resolves the column schema.
func (p *Parser) parseHeader() error {
	line, err := p.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("read header: %w", err)
	}
	p.lineNumber++

	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return &ParseError{Line: p.lineNumber, Message: "empty header line"}
	}

	p.header = strings.Split(line, "\t")

	schema, err := ResolveSchema(p.header, p.cols)
	if err != nil {
		return err
	}
	p.schema = schema

	return nil
}

// Next reads the next record. Returns nil, nil when there are no more records.
func (p *Parser) Next() (*Record, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			if line == "" {
				return nil, nil
			}
			// final line without trailing newline
		} else {
			return nil, fmt.Errorf("read record line: %w", err)
		}
	}
	p.lineNumber++

	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return p.Next() // Skip empty lines
	}

	return p.parseLine(line)
}

// parseLine parses a single data line into a Record.
func (p *Parser) parseLine(line string) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != len(p.header) {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected %d columns, found %d", len(p.header), len(fields)),
		}
	}

	chrom := cleanChrom(fields[p.schema.ChromIdx])

	posStr := fields[p.schema.PosIdx]
	pos, err := strconv.ParseInt(posStr, 10, 64)
	if err != nil {
		// positions exported from some tools arrive as floats like 12345.0
		f, ferr := strconv.ParseFloat(posStr, 64)
		if ferr != nil || f < 0 || f != float64(int64(f)) {
			return nil, &ParseError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("invalid position: %s", posStr),
			}
		}
		pos = int64(f)
	}
	if pos < 0 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("negative position: %s", posStr),
		}
	}

	r := &Record{
		Fields:       fields,
		Chrom:        NormalizeChrom(chrom),
		Pos:          pos,
		EffectAllele: strings.ToUpper(strings.TrimSpace(fields[p.schema.EffectAlleleIdx])),
		OtherAllele:  strings.ToUpper(strings.TrimSpace(fields[p.schema.OtherAlleleIdx])),
		Line:         p.lineNumber,
	}

	if r.EffectAllele == "" || r.OtherAllele == "" {
		return nil, &ParseError{Line: p.lineNumber, Message: "empty allele"}
	}

	if p.schema.RSIDIdx >= 0 {
		if v := fields[p.schema.RSIDIdx]; !IsMissing(v) {
			r.RSID = v
		}
	}

	return r, nil
}

// cleanChrom trims whitespace and strips a float-style ".0" suffix that
// some exporters attach to numeric chromosomes.
func cleanChrom(chrom string) string {
	chrom = strings.TrimSpace(chrom)
	if strings.HasSuffix(chrom, ".0") {
		trimmed := strings.TrimSuffix(chrom, ".0")
		if _, err := strconv.Atoi(trimmed); err == nil {
			return trimmed
		}
	}
	return chrom
}

// Schema returns the resolved column schema.
func (p *Parser) Schema() *Schema {
	return p.schema
}

// Header returns the header column names in file order.
func (p *Parser) Header() []string {
	return p.header
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("sumstats parse error at line %d: %s", e.Line, e.Message)
}
