// Package render draws the pinch button overlay onto camera frames and
// encodes them for streaming.
package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/pinchlight/internal/detector"
	"github.com/ayusman/pinchlight/internal/feed"
	"github.com/ayusman/pinchlight/internal/gesture"
)

// Label is drawn inside the bottom-left corner of the hit region.
const Label = "PINCH HERE"

// labelInset is how far the label sits from the region's left and bottom edges.
const labelInset = 20

var (
	regionColor = color.RGBA{R: 255, A: 255}
	indexColor  = color.RGBA{R: 255, G: 255, A: 255}
	thumbColor  = color.RGBA{R: 255, A: 255}
	pinchColor  = color.RGBA{B: 255, A: 255}
	textColor   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	textOutline = color.RGBA{A: 255}
)

// HandMarker is one hand's fingertips in pixel space.
type HandMarker struct {
	Thumb    detector.Point3D
	Index    detector.Point3D
	Pinching bool
}

// Overlay is everything drawn on top of a frame.
type Overlay struct {
	Region gesture.HitRegion
	Lit    bool
	Hands  []HandMarker
}

// Markers converts a snapshot into fingertip markers. Invalid observations
// are left out.
func Markers(snap gesture.Snapshot) []HandMarker {
	markers := make([]HandMarker, 0, len(snap))
	for _, o := range snap {
		if !o.Valid() {
			continue
		}
		markers = append(markers, HandMarker{
			Thumb:    o.Thumb,
			Index:    o.Index,
			Pinching: gesture.Pinching(o),
		})
	}
	return markers
}

// Draw renders o onto frame in place. When the display is not lit the frame
// is first turned grayscale; the overlay itself stays in color.
func Draw(frame *gocv.Mat, o Overlay) {
	if frame == nil || frame.Empty() {
		return
	}

	if !o.Lit {
		grayscale(frame)
	}

	r := o.Region
	rect := image.Rect(int(r.X), int(r.Y), int(r.X+r.Width), int(r.Y+r.Height))
	gocv.Rectangle(frame, rect, regionColor, 2)

	for _, h := range o.Hands {
		gocv.Circle(frame, pt(h.Index), 5, indexColor, -1)
		gocv.Circle(frame, pt(h.Thumb), 5, thumbColor, -1)
		if h.Pinching {
			gocv.Circle(frame, pt(h.Thumb), 10, pinchColor, -1)
		}
	}

	origin := image.Pt(int(r.X)+labelInset, int(r.Y+r.Height)-labelInset)
	gocv.PutText(frame, Label, origin, gocv.FontHersheySimplex, 0.6, textOutline, 4)
	gocv.PutText(frame, Label, origin, gocv.FontHersheySimplex, 0.6, textColor, 1)
}

// grayscale replaces frame's colors with their luminance, keeping three
// channels so colored overlays can still be drawn.
func grayscale(frame *gocv.Mat) {
	if frame.Channels() < 3 {
		return
	}
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	gocv.CvtColor(gray, frame, gocv.ColorGrayToBGR)
}

func pt(p detector.Point3D) image.Point {
	return image.Pt(int(p.X), int(p.Y))
}

// DefaultQuality is the JPEG quality used for the preview stream.
const DefaultQuality = 75

// Encoder JPEG-encodes rendered frames into a latest-value cell that stream
// handlers read from.
type Encoder struct {
	quality int
	out     feed.Latest[[]byte]
}

// NewEncoder creates an Encoder. quality outside 1..100 means DefaultQuality.
func NewEncoder(quality int) *Encoder {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &Encoder{quality: quality}
}

// Encode compresses frame and publishes the bytes.
func (e *Encoder) Encode(frame gocv.Mat) error {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, frame, []int{gocv.IMWriteJpegQuality, e.quality})
	if err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	e.out.Store(buf.GetBytes())
	return nil
}

// Latest returns the most recent JPEG.
func (e *Encoder) Latest() ([]byte, bool) {
	return e.out.Load()
}

// Seq changes every time a new JPEG is published.
func (e *Encoder) Seq() uint64 {
	return e.out.Seq()
}
