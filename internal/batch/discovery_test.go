package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/codescan/internal/testutil"
)

func TestDiscoverFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))

	png := testutil.WriteFile(t, dir, "a.png", []byte("x"))
	jpg := testutil.WriteFile(t, dir, "b.JPG", []byte("x"))
	doc := testutil.WriteFile(t, dir, "c.pdf", []byte("x"))
	testutil.WriteFile(t, dir, "notes.txt", []byte("x"))
	deep := testutil.WriteFile(t, sub, "d.webp", []byte("x"))
	explicit := testutil.WriteFile(t, t.TempDir(), "scan.data", []byte("x"))

	tests := []struct {
		name      string
		args      []string
		recursive bool
		include   []string
		exclude   []string
		want      []string
	}{
		{name: "flat directory", args: []string{dir}, want: []string{png, jpg, doc}},
		{name: "recursive", args: []string{dir}, recursive: true, want: []string{png, jpg, doc, deep}},
		{name: "include", args: []string{dir}, include: []string{"*.pdf"}, want: []string{doc}},
		{name: "exclude wins", args: []string{dir}, include: []string{"*.png", "*.pdf"}, exclude: []string{"c.*"}, want: []string{png}},
		{name: "explicit file bypasses extension check", args: []string{explicit}, want: []string{explicit}},
		{name: "duplicates removed", args: []string{png, dir}, want: []string{png, jpg, doc}},
		{name: "no args", args: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiscoverFiles(tt.args, tt.recursive, tt.include, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscoverFiles_MissingPath(t *testing.T) {
	_, err := DiscoverFiles([]string{filepath.Join(t.TempDir(), "missing")}, false, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access")
}
