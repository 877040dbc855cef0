package sumstats

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"os"
	"strings"
)

// Writer writes a tab-delimited summary statistics table. Output goes to
// a temporary path next to the target and is renamed into place only when
// Close succeeds, so a crashed run never leaves a truncated file that
// looks complete. Paths ending in .gz are gzip-compressed.
type Writer struct {
	path     string
	tmpPath  string
	file     *os.File
	gzWriter *gzip.Writer
	w        *bufio.Writer
	rows     int
}

// NewWriter creates a writer targeting path.
func NewWriter(path string) (*Writer, error) {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	w := &Writer{path: path, tmpPath: tmpPath, file: file}
	if strings.HasSuffix(path, ".gz") {
		w.gzWriter = gzip.NewWriter(file)
		w.w = bufio.NewWriter(w.gzWriter)
	} else {
		w.w = bufio.NewWriter(file)
	}
	return w, nil
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader(columns []string) error {
	return w.writeRow(columns)
}

// WriteRecord writes one data row.
func (w *Writer) WriteRecord(fields []string) error {
	w.rows++
	return w.writeRow(fields)
}

func (w *Writer) writeRow(fields []string) error {
	if _, err := w.w.WriteString(strings.Join(fields, "\t")); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Rows returns the number of data rows written so far.
func (w *Writer) Rows() int {
	return w.rows
}

// Close flushes all buffers and renames the temporary file into place.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		w.Abort()
		return fmt.Errorf("flush output: %w", err)
	}
	if w.gzWriter != nil {
		if err := w.gzWriter.Close(); err != nil {
			w.Abort()
			return fmt.Errorf("close gzip writer: %w", err)
		}
	}
	if err := w.file.Close(); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("close output file: %w", err)
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("rename output into place: %w", err)
	}
	return nil
}

// Abort discards the temporary file without touching the target path.
func (w *Writer) Abort() {
	w.file.Close()
	os.Remove(w.tmpPath)
}
