package batch

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/codescan/internal/barcode"
)

func sampleResult() *Result {
	return &Result{
		Files:    []string{"a.png", "b.pdf", "c.png"},
		Duration: 1500 * time.Millisecond,
		Workers:  2,
		Items: []Item{
			{File: "a.png", Found: true, Transform: "orig_rot0", Attempts: 1, Results: []barcode.Match{
				{Type: "QR_CODE", Data: "first"},
				{Type: "EAN_13", Data: "4006381333931"},
			}},
			{File: "b.pdf", Page: 2, Index: 0, Attempts: 36},
			{File: "c.png", Error: "image decode error in decode: unexpected EOF"},
		},
	}
}

func TestFormat_Text(t *testing.T) {
	out, err := sampleResult().Format("text")
	require.NoError(t, err)

	assert.Contains(t, out, "# a.png\n  found with orig_rot0\n  #1 QR_CODE: first\n  #2 EAN_13: 4006381333931\n")
	assert.Contains(t, out, "# b.pdf (page 2, image 1)\n  not found after 36 attempts\n")
	assert.Contains(t, out, "# c.png\n  error: image decode error")
}

func TestFormat_JSON(t *testing.T) {
	out, err := sampleResult().Format("json")
	require.NoError(t, err)

	var doc struct {
		Items []Item `json:"items"`
		Stats Stats  `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Items, 3)
	assert.Equal(t, "first", doc.Items[0].Results[0].Data)
	assert.Equal(t, 2, doc.Items[1].Page)
	assert.Equal(t, Stats{Files: 3, Images: 2, Found: 1, NotFound: 1, Failed: 1, Workers: 2, Duration: 1500 * time.Millisecond}, doc.Stats)
}

func TestFormat_YAML(t *testing.T) {
	out, err := sampleResult().Format("yaml")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	items, ok := doc["items"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 3)
	assert.Contains(t, out, "transform: orig_rot0")
}

func TestFormat_CSV(t *testing.T) {
	out, err := sampleResult().Format("csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "file,page,index,found,transform,attempts,type,data,error", lines[0])
	assert.Equal(t, "a.png,0,0,true,orig_rot0,1,QR_CODE,first,", lines[1])
	assert.Equal(t, "a.png,0,0,true,orig_rot0,1,EAN_13,4006381333931,", lines[2])
	assert.Equal(t, "b.pdf,2,0,false,,36,,,", lines[3])
}

func TestFormat_Unsupported(t *testing.T) {
	_, err := sampleResult().Format("xml")
	assert.Error(t, err)
}

func TestSave(t *testing.T) {
	t.Run("writer", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, sampleResult().Save(&buf, "text", "", false))
		assert.Contains(t, buf.String(), "# a.png")
	})

	t.Run("file", func(t *testing.T) {
		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "out.json")
		require.NoError(t, sampleResult().Save(&buf, "json", path, false))
		assert.Contains(t, buf.String(), "Results written to")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, json.Valid(data))
	})
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	sampleResult().PrintStats(&buf)
	assert.Contains(t, buf.String(), "Found: 1")
	assert.Contains(t, buf.String(), "Failed: 1")
	assert.Contains(t, buf.String(), "Duration: 1.5s")
}
