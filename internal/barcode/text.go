package barcode

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeText converts raw symbol bytes to text: UTF-8 when valid, otherwise
// ISO-8859-1. It never fails.
func DecodeText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string([]rune(string(raw)))
	}
	return string(out)
}

func normalizeText(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return DecodeText([]byte(s))
}
