package codec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func checkerboard(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func TestCleanBase64(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"data uri", "data:image/jpeg;base64,QUJD", "QUJD"},
		{"plain", "QUJD", "QUJD"},
		{"whitespace", " QU\nJD\t\r\n", "QUJD"},
		{"data uri with newlines", "data:image/png;base64,\nQU\nJD\n", "QUJD"},
		{"comma without data prefix kept", "QU,JD", "QU,JD"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanBase64(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, CleanBase64(got), "cleaning must be idempotent")
		})
	}
}

func TestDecodeBase64(t *testing.T) {
	raw := encodePNG(t, checkerboard(8, 6))
	std := base64.StdEncoding.EncodeToString(raw)

	t.Run("standard", func(t *testing.T) {
		img, err := DecodeBase64(std)
		require.NoError(t, err)
		assert.Equal(t, 8, img.Width)
		assert.Equal(t, 6, img.Height)
		assert.Equal(t, "png", img.Format)
		assert.Equal(t, "L", img.Mode)
	})

	t.Run("data uri and wrapped lines", func(t *testing.T) {
		var sb strings.Builder
		sb.WriteString("data:image/png;base64,")
		for i := 0; i < len(std); i += 20 {
			end := min(i+20, len(std))
			sb.WriteString(std[i:end])
			sb.WriteString("\n")
		}
		img, err := DecodeBase64(sb.String())
		require.NoError(t, err)
		assert.Equal(t, 8, img.Width)
	})

	t.Run("missing padding", func(t *testing.T) {
		img, err := DecodeBase64(base64.RawStdEncoding.EncodeToString(raw))
		require.NoError(t, err)
		assert.Equal(t, 6, img.Height)
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, err := DecodeBase64("not*base64!")
		require.Error(t, err)
		var de *DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "base64", de.Op)
	})

	t.Run("valid base64 but not an image", func(t *testing.T) {
		_, err := DecodeBase64(base64.StdEncoding.EncodeToString([]byte("hello world")))
		var de *DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "decode", de.Op)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := DecodeBase64("data:image/png;base64,")
		var de *DecodeError
		require.ErrorAs(t, err, &de)
	})
}

func TestDecode_PixelLimit(t *testing.T) {
	prev := MaxPixels
	MaxPixels = 10
	t.Cleanup(func() { MaxPixels = prev })

	_, err := Decode(encodePNG(t, checkerboard(4, 4)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLarge))
}

func TestModeOf(t *testing.T) {
	rect := image.Rect(0, 0, 1, 1)
	assert.Equal(t, "L", ModeOf(image.NewGray(rect)))
	assert.Equal(t, "RGBA", ModeOf(image.NewNRGBA(rect)))
	assert.Equal(t, "RGBA", ModeOf(image.NewRGBA(rect)))
	assert.Equal(t, "CMYK", ModeOf(image.NewCMYK(rect)))
	assert.Equal(t, "YCbCr", ModeOf(image.NewYCbCr(rect, image.YCbCrSubsampleRatio420)))
	assert.Equal(t, "P", ModeOf(image.NewPaletted(rect, color.Palette{color.Black, color.White})))
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("a/b/c.PNG"))
	assert.True(t, IsSupported("scan.webp"))
	assert.True(t, IsSupported("scan.tiff"))
	assert.False(t, IsSupported("doc.pdf"))
	assert.False(t, IsSupported("noext"))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/board.png"
	require.NoError(t, writeFile(path, encodePNG(t, checkerboard(5, 3))))

	img, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, img.Width)

	_, err = LoadFile(dir + "/missing.png")
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "load", de.Op)

	_, err = LoadFile(dir + "/file.txt")
	require.ErrorAs(t, err, &de)
}
