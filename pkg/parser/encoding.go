package parser

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// BOM constants
var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Encoding names reported by DetectAndDecode.
const (
	EncodingUTF8        = "utf-8"
	EncodingUTF8BOM     = "utf-8-bom"
	EncodingUTF16LE     = "utf-16le"
	EncodingUTF16BE     = "utf-16be"
	EncodingWindows1252 = "windows-1252"
)

// DetectAndDecode detects the encoding of the input data, strips any BOM,
// and returns the decoded UTF-8 bytes along with the detected encoding name.
//
// Spreadsheet exports of maintenance logs are frequently Windows-1252, so
// invalid UTF-8 without a BOM is decoded as Windows-1252 (a superset of
// Latin-1 for the printable range, including the degree sign 0xB0).
func DetectAndDecode(data []byte) ([]byte, string, error) {
	if len(data) == 0 {
		return data, EncodingUTF8, nil
	}

	if bytes.HasPrefix(data, bomUTF8) {
		return data[len(bomUTF8):], EncodingUTF8BOM, nil
	}

	if bytes.HasPrefix(data, bomUTF16LE) {
		decoded, err := decode(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), data)
		if err != nil {
			return nil, "", fmt.Errorf("UTF-16 LE decode failed: %w", err)
		}
		return decoded, EncodingUTF16LE, nil
	}

	if bytes.HasPrefix(data, bomUTF16BE) {
		decoded, err := decode(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), data)
		if err != nil {
			return nil, "", fmt.Errorf("UTF-16 BE decode failed: %w", err)
		}
		return decoded, EncodingUTF16BE, nil
	}

	if utf8.Valid(data) {
		return data, EncodingUTF8, nil
	}

	decoded, err := decode(charmap.Windows1252, data)
	if err != nil {
		return nil, "", fmt.Errorf("windows-1252 decode failed: %w", err)
	}
	return decoded, EncodingWindows1252, nil
}

func decode(enc encoding.Encoding, data []byte) ([]byte, error) {
	return enc.NewDecoder().Bytes(data)
}
