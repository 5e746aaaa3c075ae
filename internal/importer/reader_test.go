package importer

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		limit   int64
		want    string
		wantErr error
	}{
		{"plain", "STT,Họ và tên", 0, "STT,Họ và tên", nil},
		{"bom stripped", "\xEF\xBB\xBFSTT", 0, "STT", nil},
		{"short input", "ab", 0, "ab", nil},
		{"exactly at limit", "12345", 5, "12345", nil},
		{"over limit", "123456", 5, "", ErrFileTooLarge},
		{"invalid utf8 replaced", "a\xffb", 0, "a?b", nil},
		{"empty", "", 0, "", ErrEmptyFile},
		{"only bom", "\xEF\xBB\xBF", 0, "", ErrEmptyFile},
		{"only whitespace", " \r\n\t", 0, "", ErrEmptyFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadText(strings.NewReader(tt.input), tt.limit)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadText_SmallReads(t *testing.T) {
	// one byte at a time exercises the BOM probe across short reads
	r := &oneByteReader{s: "\xEF\xBB\xBFSTT;1"}
	got, err := ReadText(r, 0)
	require.NoError(t, err)
	assert.Equal(t, "STT;1", got)
}

func TestStripBOM(t *testing.T) {
	assert.Equal(t, "x", StripBOM("\ufeffx"))
	assert.Equal(t, "x", StripBOM("x"))
	assert.Equal(t, "", StripBOM(""))
}

type oneByteReader struct {
	s string
	i int
}

func (r *oneByteReader) Read(p []byte) (int, error) {
	if r.i >= len(r.s) {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	p[0] = r.s[r.i]
	r.i++
	return 1, nil
}
