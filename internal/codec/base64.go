package codec

import (
	"encoding/base64"
	"strings"
)

// CleanBase64 strips a data URI header ("data:image/png;base64,") and all
// whitespace from s. It is idempotent.
func CleanBase64(s string) string {
	if strings.HasPrefix(s, "data:") {
		if i := strings.IndexByte(s, ','); i >= 0 {
			s = s[i+1:]
		}
	}
	return strings.Join(strings.Fields(s), "")
}

// DecodeBase64 cleans s, decodes it as standard base64 and decodes the image.
// Missing padding is tolerated.
func DecodeBase64(s string) (*Image, error) { return DecodeBase64Limited(s, 0) }

// DecodeBase64Limited is DecodeBase64 with an explicit pixel limit.
func DecodeBase64Limited(s string, limit int64) (*Image, error) {
	cleaned := CleanBase64(s)
	if cleaned == "" {
		return nil, &DecodeError{Op: "base64", Err: errEmptyData}
	}
	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(cleaned, "="))
		if rawErr != nil {
			return nil, &DecodeError{Op: "base64", Err: err}
		}
		data = raw
	}
	return DecodeLimited(data, limit)
}
