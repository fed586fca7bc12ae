package pipeline

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	// AlertColor marks detections collapsed into the alert label.
	AlertColor = color.RGBA{R: 255, A: 255}
	// NormalColor marks every other detection and the count overlay.
	NormalColor = color.RGBA{G: 255, A: 255}
)

// Annotator draws detection boxes, labels and the count overlay in place.
type Annotator struct {
	BoxThickness  int
	LabelScale    int
	OverlayScale  int
	OverlayOrigin image.Point // baseline-left of the overlay text
	face          font.Face
}

// NewAnnotator returns an Annotator with the stream defaults.
func NewAnnotator() *Annotator {
	return &Annotator{
		BoxThickness:  2,
		LabelScale:    1,
		OverlayScale:  2,
		OverlayOrigin: image.Pt(10, 30),
		face:          basicfont.Face7x13,
	}
}

// DrawDetection draws box and label. The label sits 10px above the box's top-left
// corner, or just inside the box when that would leave the frame.
func (a *Annotator) DrawDetection(img *image.RGBA, box image.Rectangle, label string, alert bool) {
	c := NormalColor
	if alert {
		c = AlertColor
	}
	drawRect(img, box, c, a.BoxThickness)

	ascent := a.face.Metrics().Ascent.Ceil() * a.LabelScale
	origin := image.Pt(box.Min.X, box.Min.Y-10)
	if origin.Y-ascent < img.Bounds().Min.Y {
		origin.Y = box.Min.Y + ascent + a.BoxThickness
	}
	a.drawText(img, label, origin, c, a.LabelScale)
}

// DrawOverlay writes text at the fixed overlay position.
func (a *Annotator) DrawOverlay(img *image.RGBA, text string) {
	a.drawText(img, text, a.OverlayOrigin, NormalColor, a.OverlayScale)
}

func (a *Annotator) drawText(dst *image.RGBA, text string, origin image.Point, c color.Color, scale int) {
	if text == "" {
		return
	}
	if scale <= 1 {
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(c),
			Face: a.face,
			Dot:  fixed.P(origin.X, origin.Y),
		}
		d.DrawString(text)
		return
	}

	// Render at native size, then scale up nearest-neighbour onto the frame.
	m := a.face.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()
	width := font.MeasureString(a.face, text).Ceil()
	glyphs := image.NewRGBA(image.Rect(0, 0, width, ascent+descent))
	d := &font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(c),
		Face: a.face,
		Dot:  fixed.P(0, ascent),
	}
	d.DrawString(text)

	target := image.Rect(
		origin.X,
		origin.Y-ascent*scale,
		origin.X+width*scale,
		origin.Y+descent*scale,
	)
	xdraw.NearestNeighbor.Scale(dst, target, glyphs, glyphs.Bounds(), xdraw.Over, nil)
}

// drawRect outlines r with the given stroke thickness, clipped to the image.
func drawRect(img *image.RGBA, r image.Rectangle, c color.Color, thickness int) {
	r = r.Canon()
	if thickness < 1 {
		thickness = 1
	}
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness),
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y),
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		e = e.Intersect(img.Bounds())
		if e.Empty() {
			continue
		}
		draw.Draw(img, e, src, image.Point{}, draw.Src)
	}
}

// cloneRGBA copies any image into a new RGBA with the same bounds.
func cloneRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}
