package importer

// reader.go turns an uploaded file into clean text before parsing.
//
// Spreadsheet programs on Windows prefix CSV exports with a UTF-8 BOM and
// occasionally emit stray bytes from legacy code pages. Both are handled on
// the fly:
//
//   - bomReader drops a leading 0xEF 0xBB 0xBF while streaming
//   - invalid UTF-8 runs are replaced with '?' once the text is in memory
//
// ReadText applies both plus a size cap.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ErrFileTooLarge is returned when input exceeds the configured limit.
var ErrFileTooLarge = errors.New("file too large")

// ErrEmptyFile is returned when input has no content after the BOM.
var ErrEmptyFile = errors.New("empty file")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadText reads at most limit bytes (limit <= 0 means unlimited), strips a
// leading BOM and sanitises invalid UTF-8.
func ReadText(r io.Reader, limit int64) (string, error) {
	src := r
	if limit > 0 {
		// one extra byte tells "exactly limit" apart from "over limit"
		src = io.LimitReader(r, limit+1)
	}
	counter := &countingReader{r: src}

	data, err := io.ReadAll(newBOMReader(counter))
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	if limit > 0 && counter.n > limit {
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, limit)
	}
	if !utf8.Valid(data) {
		data = bytes.ToValidUTF8(data, []byte("?"))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", ErrEmptyFile
	}
	return string(data), nil
}

// StripBOM removes a leading UTF-8 BOM from already-decoded text.
func StripBOM(s string) string {
	if len(s) >= 3 && s[0] == 0xEF && s[1] == 0xBB && s[2] == 0xBF {
		return s[3:]
	}
	return s
}

// bomReader skips the UTF-8 BOM on first read.
type bomReader struct {
	r       io.Reader
	checked bool
	pending []byte
}

func newBOMReader(r io.Reader) *bomReader {
	return &bomReader{r: r}
}

func (b *bomReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head := make([]byte, 3)
		n, err := io.ReadFull(b.r, head)
		head = head[:n]
		if !bytes.Equal(head, utf8BOM) {
			b.pending = head
		}
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
		if err == io.EOF && len(b.pending) == 0 {
			return 0, io.EOF
		}
	}

	if len(b.pending) > 0 {
		n := copy(p, b.pending)
		b.pending = b.pending[n:]
		return n, nil
	}
	return b.r.Read(p)
}

// countingReader tracks raw bytes read, before BOM removal.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
