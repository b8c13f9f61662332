package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/codescan/internal/response"
)

func TestDecodePDFHandler_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		fields    map[string]string
		wantError string
	}{
		{name: "missing file", data: nil, fields: map[string]string{"pages": "1"}, wantError: response.ReasonNoData},
		{name: "invalid page range", data: []byte("%PDF-1.4"), fields: map[string]string{"pages": "3-1"}, wantError: "invalid page range"},
		{name: "not a pdf", data: []byte("hello"), wantError: "failed to read pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, helloMatch, Config{})
			rec := serve(s, multipartRequest(t, "/decode/pdf", pdfFormField, "doc.pdf", tt.data, tt.fields))
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var got response.ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.wantError, got.Error)
		})
	}
}
