package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_HeaderAndRows(t *testing.T) {
	data := []byte(" Date ;Asset;Logger\n15/03/2021;SW01;VITAL\n16/03/2021;SW02;VITAL\n")

	table, err := Parse(data, Options{Delimiter: ';', Strict: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Asset", "Logger"}, table.Header)
	assert.Equal(t, EncodingUTF8, table.Encoding)
	require.Len(t, table.Rows, 2)

	want := Row{Index: 1, Line: 2, Values: map[string]string{"Date": "15/03/2021", "Asset": "SW01", "Logger": "VITAL"}}
	if diff := cmp.Diff(want, table.Rows[0]); diff != "" {
		t.Errorf("first row mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, table.Rows[1].Index)
	assert.Equal(t, 3, table.Rows[1].Line)
	assert.Empty(t, table.Warnings)
}

func TestParse_RaggedRows(t *testing.T) {
	data := []byte("a,b,c\n1,2\n1,2,3,4\n")

	table, err := Parse(data, Options{})
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	short := table.Rows[0]
	_, ok := short.Get("c")
	assert.False(t, ok, "missing trailing cell must stay absent, not padded")
	v, ok := short.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	assert.Len(t, table.Rows[1].Values, 3)
	require.Len(t, table.Warnings, 2)
	assert.Equal(t, 1, table.Warnings[0].Row)
	assert.Equal(t, 2, table.Warnings[1].Row)
}

func TestParse_QuotedMultilineKeepsStartLine(t *testing.T) {
	data := []byte("Asset,Description\nSW01,\"line one\nline two\"\nSW02,plain\n")

	table, err := Parse(data, Options{Strict: true})
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	assert.Equal(t, "line one\nline two", table.Rows[0].Values["Description"])
	assert.Equal(t, 2, table.Rows[0].Line)
	assert.Equal(t, 4, table.Rows[1].Line)
	assert.Equal(t, 2, table.Rows[1].Index)
}

func TestParse_EmptyInputs(t *testing.T) {
	t.Run("no header", func(t *testing.T) {
		_, err := Parse(nil, Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no header row")
	})

	t.Run("header only", func(t *testing.T) {
		table, err := Parse([]byte("Switch,Switch_long_name\n"), Options{})
		require.NoError(t, err)
		assert.Empty(t, table.Rows)
		assert.Equal(t, []string{"Switch", "Switch_long_name"}, table.Header)
	})
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{in: "", want: ','},
		{in: ",", want: ','},
		{in: ";", want: ';'},
		{in: "tab", want: '\t'},
		{in: `\t`, want: '\t'},
		{in: "|", want: '|'},
		{in: ";;", wantErr: true},
		{in: `"`, wantErr: true},
		{in: "\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDelimiter(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
