package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classgate/kiosk/internal/recognizer"
)

func grayFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x60
	}
	return img
}

func countColor(img *image.RGBA, c color.RGBA) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) == c {
				n++
			}
		}
	}
	return n
}

func TestRender_NoMatchLeavesFrameUntouched(t *testing.T) {
	frame := grayFrame(320, 240)

	for _, rec := range []*recognizer.Recognition{
		nil,
		{Match: false, Name: recognizer.UnknownName},
	} {
		out := Render(frame, rec)
		require.NotNil(t, out)
		assert.Equal(t, frame.Pix, out.Pix)
	}
}

func TestRender_ReturnsCopy(t *testing.T) {
	frame := grayFrame(32, 32)
	out := Render(frame, nil)

	out.Pix[0] = 0xff
	assert.Equal(t, uint8(0x60), frame.Pix[0], "mutating the output must not touch the input")
}

func TestRender_MatchDrawsBorderAndPlate(t *testing.T) {
	frame := grayFrame(320, 240)
	rec := &recognizer.Recognition{
		Match:      true,
		Name:       "Ada Lovelace",
		ID:         "T1",
		Role:       "teacher",
		Confidence: 0.87,
	}

	out := Render(frame, rec)

	assert.Greater(t, countColor(out, matchColor), 0, "border pixels expected")
	assert.Greater(t, countColor(out, plateColor), 0, "label plate pixels expected")
}

func TestRender_UsesReportedBox(t *testing.T) {
	frame := grayFrame(200, 200)
	rec := &recognizer.Recognition{
		Match:      true,
		Name:       "Ada",
		ID:         "T1",
		Role:       "teacher",
		Confidence: 0.9,
		Box:        []float64{0.6, 0.6, 0.9, 0.9},
	}

	out := Render(frame, rec)

	// The border must trace the reported region, not the placeholder.
	assert.Equal(t, matchColor, out.RGBAAt(130, 120), "top border of reported box")
	assert.NotEqual(t, matchColor, out.RGBAAt(55, 20), "placeholder region stays clean")
}

func TestLabelLines(t *testing.T) {
	rec := &recognizer.Recognition{
		Name:       "Ada",
		ID:         "N/A",
		Role:       "student",
		Confidence: 0.875,
	}

	lines := labelLines(rec)
	require.Len(t, lines, 4)
	assert.Equal(t, "Ada", lines[0])
	assert.Equal(t, "ID: N/A", lines[1])
	assert.Equal(t, "Role: student", lines[2])
	assert.Equal(t, "87.5%", lines[3])
}
