package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectAndDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		want    string
		wantEnc string
	}{
		{
			name:    "plain utf-8",
			in:      []byte("lat\n25.2°\n"),
			want:    "lat\n25.2°\n",
			wantEnc: EncodingUTF8,
		},
		{
			name:    "utf-8 bom stripped",
			in:      append([]byte{0xEF, 0xBB, 0xBF}, []byte("Switch")...),
			want:    "Switch",
			wantEnc: EncodingUTF8BOM,
		},
		{
			name:    "utf-16 le",
			in:      []byte{0xFF, 0xFE, 'a', 0, ',', 0, 'b', 0, '\n', 0},
			want:    "a,b\n",
			wantEnc: EncodingUTF16LE,
		},
		{
			name:    "utf-16 be",
			in:      []byte{0xFE, 0xFF, 0, 'a', 0, ',', 0, 'b'},
			want:    "a,b",
			wantEnc: EncodingUTF16BE,
		},
		{
			name:    "windows-1252 degree sign",
			in:      []byte("55.27\xb0"),
			want:    "55.27°",
			wantEnc: EncodingWindows1252,
		},
		{
			name:    "empty",
			in:      []byte{},
			want:    "",
			wantEnc: EncodingUTF8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, enc, err := DetectAndDecode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
			assert.Equal(t, tt.wantEnc, enc)
		})
	}
}

func TestParse_Windows1252Registry(t *testing.T) {
	data := []byte("Switch;WGS84 lat\nSW01;25.2048\xb0\n")

	table, err := Parse(data, Options{Delimiter: ';', Strict: true})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "25.2048°", table.Rows[0].Values["WGS84 lat"])
	assert.Equal(t, EncodingWindows1252, table.Encoding)
}
