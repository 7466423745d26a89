package dsprep

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
)

// decodeImageConfig opens the file at path and returns the results of image.DecodeConfig.
//
// Only the image header is read; this is the cheap way to get dimensions.
func decodeImageConfig(path string) (config image.Config, format string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer file.Close()

	return image.DecodeConfig(file)
}

// imageScale compares the images at srcPath and dstPath and returns the
// factor by which dstPath was scaled relative to srcPath, measured on the
// longer side. Identical dimensions yield 1.
func imageScale(srcPath, dstPath string) (float64, error) {
	srcCfg, _, err := decodeImageConfig(srcPath)
	if err != nil {
		return 0, err
	}
	dstCfg, _, err := decodeImageConfig(dstPath)
	if err != nil {
		return 0, err
	}

	srcLonger := srcCfg.Width
	if srcCfg.Height > srcLonger {
		srcLonger = srcCfg.Height
	}
	dstLonger := dstCfg.Width
	if dstCfg.Height > dstLonger {
		dstLonger = dstCfg.Height
	}
	if srcLonger == 0 || srcLonger == dstLonger {
		return 1, nil
	}

	return float64(dstLonger) / float64(srcLonger), nil
}

// resizeLonger resamples img so that its longer side equals longerSide,
// preserving the aspect ratio. Returns the resized image and the scale factor
// that was applied to both dimensions.
func resizeLonger(img image.Image, longerSide int) (image.Image, float64) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	longer := w
	if h > w {
		longer = h
	}
	if longerSide <= 0 || longer == 0 || longer == longerSide {
		return img, 1
	}

	// Box for downsampling, Linear for upsampling.
	filter := imaging.Box
	if longerSide > longer {
		filter = imaging.Linear
	}

	if w >= h {
		img = imaging.Resize(img, longerSide, 0, filter)
	} else {
		img = imaging.Resize(img, 0, longerSide, filter)
	}

	return img, float64(longerSide) / float64(longer)
}
