package stocktake

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeAll(t *testing.T, b []byte) string {
	t.Helper()

	r, err := utf8Reader(bytes.NewReader(b))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(got)
}

func TestUTF8Reader(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name:  "utf8 passthrough",
			input: []byte("Material;Gezählt\nM-RAW-00001;12,5\n"),
			want:  "Material;Gezählt\nM-RAW-00001;12,5\n",
		},
		{
			name:  "utf8 bom stripped",
			input: []byte("\xEF\xBB\xBFmaterial_id;counted\n"),
			want:  "material_id;counted\n",
		},
		{
			name:  "utf16 little endian",
			input: []byte{0xFF, 0xFE, 'i', 0, 'd', 0, ';', 0, 0xE4, 0, '\n', 0},
			want:  "id;ä\n",
		},
		{
			name:  "utf16 big endian",
			input: []byte{0xFE, 0xFF, 0, 'i', 0, 'd', 0, ';', 0, 0xE4, 0, '\n'},
			want:  "id;ä\n",
		},
		{
			name:  "windows-1252",
			input: []byte("Gez\xE4hlt;Men\xE9\n"),
			want:  "Gezählt;Mené\n",
		},
		{
			name:  "empty",
			input: nil,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeAll(t, tt.input))
		})
	}
}

func TestUTF8Reader_RuneSplitAtSniffBoundary(t *testing.T) {
	// "ä" is two bytes; place it so the sniff window ends between them.
	prefix := strings.Repeat("a", sniffSize-1)
	input := prefix + "ä" + "\n"

	assert.Equal(t, input, decodeAll(t, []byte(input)))
}

func TestValidUTF8(t *testing.T) {
	partial := []byte("ok\xC3")

	assert.True(t, validUTF8(partial, true))
	assert.False(t, validUTF8(partial, false))
	assert.False(t, validUTF8([]byte("\xE4hlt"), true))
}
