package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/codescan/internal/barcode"
	"github.com/MeKo-Tech/codescan/internal/search"
)

func TestFromOutcome(t *testing.T) {
	tests := []struct {
		name string
		out  search.Outcome
		json string
	}{
		{
			name: "no match",
			out:  search.Outcome{Attempts: 36},
			json: `{"found":false,"message":"No QR/barcode detected with tried preprocessing steps"}`,
		},
		{
			name: "single match",
			out: search.Outcome{
				Found:   true,
				Attempt: search.Attempt{Angle: 0, Transform: "orig"},
				Matches: []barcode.Match{{Type: "QR_CODE", Data: "hello"}},
			},
			json: `{"found":true,"transform":"orig_rot0","results":[{"type":"QR_CODE","data":"hello"}],"data":"hello"}`,
		},
		{
			name: "multiple matches keep order",
			out: search.Outcome{
				Found:   true,
				Attempt: search.Attempt{Angle: 180, Transform: "binary"},
				Matches: []barcode.Match{{Type: "QR_CODE", Data: "a"}, {Type: "EAN_13", Data: "b"}},
			},
			json: `{"found":true,"transform":"binary_rot180","results":[{"type":"QR_CODE","data":"a"},{"type":"EAN_13","data":"b"}],"data":["a","b"]}`,
		},
		{
			name: "found without matches is a no match",
			out:  search.Outcome{Found: true},
			json: `{"found":false,"message":"No QR/barcode detected with tried preprocessing steps"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(FromOutcome(tt.out))
			require.NoError(t, err)
			assert.JSONEq(t, tt.json, string(b))
		})
	}
}

func TestMatch_EmptyDataIsKept(t *testing.T) {
	env := Match("orig_rot0", []barcode.Match{{Type: "QR_CODE", Data: ""}})
	assert.Equal(t, "", env.Data)
	assert.True(t, env.Found)
}

func TestErr(t *testing.T) {
	b, err := json.Marshal(Err(ReasonNoImage, ""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"no base64 image found in request"}`, string(b))

	b, err = json.Marshal(Err(ReasonDecodeImage, "bad padding"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"failed to decode image","details":"bad padding"}`, string(b))
}
