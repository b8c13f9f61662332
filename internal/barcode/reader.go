package barcode

import (
	"errors"
	"fmt"

	gozxing "github.com/makiuchi-d/gozxing"
)

// readerMiss reports whether err means no symbol was read
// (NotFound, Checksum and Format exceptions).
func readerMiss(err error) bool {
	var re gozxing.ReaderException
	return errors.As(err, &re)
}

func decodeWith(reader gozxing.Reader, bitmap *gozxing.BinaryBitmap, hints map[gozxing.DecodeHintType]interface{}) (result *gozxing.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("reader panic: %v", r)
		}
	}()
	return reader.Decode(bitmap, hints)
}
