package watermark

import "image"

// Place returns the baseline origin for text of the given size. An explicit
// position wins unchanged, even off canvas. Otherwise the text is anchored
// bottom-right, Margin pixels in from both edges; since y is a baseline the
// text height plays no part and x may go negative for wide text.
func Place(imageW, imageH, textW, textH int, explicit *image.Point) image.Point {
	if explicit != nil {
		return *explicit
	}
	return image.Point{
		X: imageW - textW - Margin,
		Y: imageH - Margin,
	}
}
