package unrar

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunks is a reader that returns each chunk in a separate read.
type chunks []string

func (c *chunks) Read(p []byte) (int, error) {
	if len(*c) == 0 {
		return 0, io.EOF
	}
	n := copy(p, (*c)[0])
	(*c)[0] = (*c)[0][n:]
	if (*c)[0] == "" {
		*c = (*c)[1:]
	}
	return n, nil
}

func TestChunkScanner(t *testing.T) {
	t.Parallel()
	var s chunkScanner
	token, notRAR := s.scan([]byte("Extracting  test.txt   4"))
	assert.Empty(t, token)
	assert.False(t, notRAR)
	token, notRAR = s.scan([]byte("5%\b\b\b\b"))
	assert.Equal(t, "45%", token)
	assert.False(t, notRAR)

	s = chunkScanner{}
	_, notRAR = s.scan([]byte("test.rar is not R"))
	assert.False(t, notRAR)
	_, notRAR = s.scan([]byte("AR archive\n"))
	assert.True(t, notRAR)
}

func TestChunkScanner_Filename(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		chunks []string
		want   string
	}{
		{"Digit name", []string{"Extracting  2023", "45%\b\b\b\b"}, "45%"},
		{"Name ending in digits", []string{"Extracting  file2023", "45%\b\b\b\b"}, "45%"},
		{"Track name", []string{"Extracting  track01", "45%"}, "45%"},
		{"Short digit name", []string{"Extracting  20", "45%"}, "45%"},
		{"Split hundred", []string{"Extracting  test.txt  1", "00%"}, "100%"},
		{"Three chunks", []string{"Extracting  test.txt  1", "0", "0%"}, "100%"},
		{"Split nine", []string{"\b\b\b\b  9", "9%"}, "99%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var s chunkScanner
			var token string
			for _, c := range tt.chunks {
				if tok, _ := s.scan([]byte(c)); tok != "" {
					token = tok
				}
			}
			assert.Equal(t, tt.want, token)
		})
	}
}

func TestExtractor_watch(t *testing.T) {
	t.Parallel()
	x := NewExtractor(WithChunkSize(minChunk))
	var got []string
	progress := newEmitter(func(p string) { got = append(got, p) }, x.cfg.logger)
	r := &chunks{"Extracting  a.txt  1", "0%\b\b\b\b", " 5%", " 10%", "6", "0%", "100%", "\nAll OK\n"}
	require.NoError(t, x.watch(r, progress))
	assert.Equal(t, []string{"10%", "60%"}, got)

	got = nil
	r = &chunks{"30%", "\ntext.rar is not RAR", " archive\n", "40%"}
	require.ErrorIs(t, x.watch(r, progress), ErrNotArchive)
	assert.Equal(t, []string{"30%"}, got)
}

func TestEntries(t *testing.T) {
	t.Parallel()
	out := "\r\nArchive: test.rar\r\nDetails: RAR 5\r\n\r\n        Name: test.txt\r\n" +
		"        Type: File\r\n        Size: 4\r\n   CRC32 MAC: 0A1B\r\n     Host OS: Windows\r\n" +
		"       Flags: encrypted\r\n     Comment\r\n\r\n"
	list := entries(out)
	require.Len(t, list, 1)
	assert.Equal(t, Entry{
		KeyName:     "test.txt",
		KeyType:     TypeFile,
		KeySize:     "4",
		KeyCRC32Mac: "0A1B",
		KeyHostOS:   "Windows",
		KeyFlags:    "encrypted",
	}, list[0])
	assert.Empty(t, entries(""))
	assert.Empty(t, entries("Archive: test.rar\nDetails: RAR 5\n"))
}

func TestNormalizeKey(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"        Name": KeyName,
		" Packed size": KeyPackedSize,
		"   CRC32 MAC": KeyCRC32Mac,
		"     Host OS": KeyHostOS,
		"       mTime": KeyMTime,
		"  Attributes": KeyAttributes,
		"   Unknown Key": "unknown key",
	}
	for label, want := range tests {
		assert.Equal(t, want, normalizeKey(label), label)
	}
}

func TestFraction(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "25.00%", fraction(1, 4))
	assert.Equal(t, "33.33%", fraction(1, 3))
	assert.Equal(t, "100.00%", fraction(4, 4))
	assert.Equal(t, "100.00%", fraction(5, 4))
	assert.Equal(t, "100.00%", fraction(0, 0))
}

func TestRedact(t *testing.T) {
	t.Parallel()
	got := redact([]string{"p", "-ntest.txt", "-p123456", "-p-", "test.rar"})
	assert.Equal(t, []string{"p", "-ntest.txt", "-p***", "-p-", "test.rar"}, got)
}
