package support

import (
	"fmt"
	"image/color"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/codescan/internal/testutil"
)

// RegisterImageSteps registers the steps that prepare input images.
func (testCtx *TestContext) RegisterImageSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a QR code encoding "([^"]*)"$`, testCtx.aQRCodeEncoding)
	sc.Step(`^the image is rotated by (\d+) degrees$`, testCtx.theImageIsRotatedBy)
	sc.Step(`^the image has low contrast$`, testCtx.theImageHasLowContrast)
	sc.Step(`^a blank image of (\d+)x(\d+) pixels$`, testCtx.aBlankImage)
	sc.Step(`^the image is stored as (png|jpeg)$`, testCtx.theImageIsStoredAs)
}

func (testCtx *TestContext) aQRCodeEncoding(content string) error {
	img, err := testutil.RenderQR(content, testutil.DefaultQRSize)
	if err != nil {
		return fmt.Errorf("failed to render QR code: %w", err)
	}
	testCtx.Image = img
	return nil
}

func (testCtx *TestContext) theImageIsRotatedBy(angle int) error {
	if testCtx.Image == nil {
		return fmt.Errorf("no image prepared")
	}
	if angle%90 != 0 {
		return fmt.Errorf("unsupported angle %d", angle)
	}
	testCtx.Image = testutil.RotateCCW(testCtx.Image, angle)
	return nil
}

func (testCtx *TestContext) theImageHasLowContrast() error {
	if testCtx.Image == nil {
		return fmt.Errorf("no image prepared")
	}
	testCtx.Image = testutil.LowContrast(testCtx.Image, 110, 150)
	return nil
}

func (testCtx *TestContext) aBlankImage(w, h int) error {
	testCtx.Image = testutil.Blank(w, h, color.White)
	return nil
}

func (testCtx *TestContext) theImageIsStoredAs(format string) error {
	testCtx.ImageFormat = format
	return nil
}
