// Package overlay draws recognition results onto video frames: a border
// around the detected face region and a label plate with the person's
// identity above it.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/classgate/kiosk/internal/recognizer"
)

const (
	borderThickness = 3
	platePadding    = 6
	lineSpacing     = 4
)

var (
	matchColor = color.RGBA{R: 0x22, G: 0xc5, B: 0x5e, A: 0xff}
	plateColor = color.RGBA{R: 0x0f, G: 0x17, B: 0x2a, A: 0xff}
	textColor  = color.RGBA{R: 0xf8, G: 0xfa, B: 0xfc, A: 0xff}
)

// Render returns a copy of the frame annotated with the recognition result.
// When the result is nil or not a match, the frame is returned untouched
// (as a copy, so callers can mutate the result safely).
func Render(frame image.Image, rec *recognizer.Recognition) *image.RGBA {
	bounds := frame.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, frame, bounds.Min, draw.Src)

	if rec == nil || !rec.Match {
		return out
	}

	box := PlaceholderBox()
	if len(rec.Box) == 4 {
		// Recognizer coordinates win over the placeholder when present.
		box = CornerBoxToBox(rec.Box)
	}
	if !box.Valid() {
		return out
	}

	x1, y1, x2, y2 := box.ToPixels(bounds.Dx(), bounds.Dy())
	drawBorder(out, x1, y1, x2, y2)
	drawLabelPlate(out, x1, y1, labelLines(rec))
	return out
}

// labelLines builds the text block shown above the face region.
func labelLines(rec *recognizer.Recognition) []string {
	return []string{
		rec.Name,
		fmt.Sprintf("ID: %s", rec.ID),
		fmt.Sprintf("Role: %s", rec.Role),
		fmt.Sprintf("%.1f%%", rec.Confidence*100),
	}
}

func drawBorder(img *image.RGBA, x1, y1, x2, y2 int) {
	fill := func(r image.Rectangle) {
		draw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(matchColor), image.Point{}, draw.Src)
	}
	t := borderThickness
	fill(image.Rect(x1, y1, x2, y1+t))   // top
	fill(image.Rect(x1, y2-t, x2, y2))   // bottom
	fill(image.Rect(x1, y1, x1+t, y2))   // left
	fill(image.Rect(x2-t, y1, x2, y2))   // right
}

// drawLabelPlate paints a solid plate with the label lines anchored above the
// face box. When the box touches the top edge, the plate drops inside it.
func drawLabelPlate(img *image.RGBA, x, y int, lines []string) {
	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil() + lineSpacing

	maxWidth := 0
	for _, line := range lines {
		if w := font.MeasureString(face, line).Ceil(); w > maxWidth {
			maxWidth = w
		}
	}

	plateW := maxWidth + 2*platePadding
	plateH := len(lines)*lineHeight + 2*platePadding

	plateY := y - plateH
	if plateY < img.Bounds().Min.Y {
		plateY = y + borderThickness
	}

	plate := image.Rect(x, plateY, x+plateW, plateY+plateH)
	draw.Draw(img, plate.Intersect(img.Bounds()), image.NewUniform(plateColor), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: face,
	}
	baseline := plateY + platePadding + face.Metrics().Ascent.Ceil()
	for _, line := range lines {
		drawer.Dot = fixed.P(x+platePadding, baseline)
		drawer.DrawString(line)
		baseline += lineHeight
	}
}
