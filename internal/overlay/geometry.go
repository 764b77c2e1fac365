package overlay

// Box is a rectangle in relative (0-1) coordinates, [x, y, w, h] with the
// origin at the top-left corner of the frame.
type Box struct {
	X, Y, W, H float64
}

// PlaceholderBox returns the fixed face region used when the recognizer does
// not report detection coordinates: half the frame width, 60% of its height,
// horizontally centered and biased upward by 5% of the frame height so the
// region sits where a face typically appears.
func PlaceholderBox() Box {
	w := 0.5
	h := 0.6
	return Box{
		X: (1 - w) / 2,
		Y: (1-h)/2 - 0.05,
		W: w,
		H: h,
	}
}

// CornerBoxToBox converts [x1, y1, x2, y2] relative corner coordinates to a
// Box. Returns the zero Box when the input is malformed.
func CornerBoxToBox(bbox []float64) Box {
	if len(bbox) != 4 {
		return Box{}
	}
	return Box{
		X: bbox[0],
		Y: bbox[1],
		W: bbox[2] - bbox[0],
		H: bbox[3] - bbox[1],
	}
}

// PixelBoxToBox converts a pixel corner box [x1, y1, x2, y2] to relative
// coordinates for a frame of the given dimensions.
func PixelBoxToBox(bbox []float64, width, height int) Box {
	if len(bbox) != 4 || width <= 0 || height <= 0 {
		return Box{}
	}
	return CornerBoxToBox([]float64{
		bbox[0] / float64(width),
		bbox[1] / float64(height),
		bbox[2] / float64(width),
		bbox[3] / float64(height),
	})
}

// ToPixels converts the relative box to pixel coordinates, clamped to the
// frame so drawing never runs outside the image bounds.
func (b Box) ToPixels(width, height int) (x1, y1, x2, y2 int) {
	x1 = clamp(int(b.X*float64(width)), 0, width-1)
	y1 = clamp(int(b.Y*float64(height)), 0, height-1)
	x2 = clamp(int((b.X+b.W)*float64(width)), 0, width-1)
	y2 = clamp(int((b.Y+b.H)*float64(height)), 0, height-1)
	return
}

// Valid reports whether the box has positive area inside the unit square.
func (b Box) Valid() bool {
	return b.W > 0 && b.H > 0 && b.X < 1 && b.Y < 1 && b.X+b.W > 0 && b.Y+b.H > 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
