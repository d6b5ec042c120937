package decode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes(t *testing.T) {
	tests := []struct {
		name        string
		raw         []byte
		contentType string
		want        string
		wantName    string
		wantConf    float64
	}{
		{"ascii", []byte("<DOCUMENT>\n<TYPE>10-K\n"), "", "<DOCUMENT>\n<TYPE>10-K\n", "utf-8", ConfidenceCertain},
		{"utf-8", []byte("Nestlé S.A. — annual"), "", "Nestlé S.A. — annual", "utf-8", ConfidenceCertain},
		{"utf-8 bom", []byte("\xef\xbb\xbfItem 1"), "", "Item 1", "utf-8", ConfidenceCertain},
		{"utf-16le bom", []byte("\xff\xfeh\x00i\x00"), "", "hi", "utf-16le", ConfidenceCertain},
		{"latin-1 bytes", []byte("caf\xe9 \xa9 1997"), "", "café © 1997", "windows-1252", ConfidenceGuess},
		{"cp1252 quotes", []byte("\x93Company\x94"), "", "“Company”", "windows-1252", ConfidenceGuess},
		{"declared charset", []byte("caf\xe9"), "text/plain; charset=iso-8859-1", "café", "windows-1252", ConfidenceCertain},
		{"declared utf-8 but invalid", []byte("caf\xe9"), "text/html; charset=utf-8", "café", "windows-1252", ConfidenceGuess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, info := Bytes(tt.raw, tt.contentType)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantName, info.Name)
			assert.Equal(t, tt.wantConf, info.Confidence)
		})
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("R\xe9sum\xe9"), 0o644))

	text, info, err := File(path)
	require.NoError(t, err)
	assert.Equal(t, "Résumé", text)
	assert.Equal(t, "windows-1252", info.Name)

	_, _, err = File(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
