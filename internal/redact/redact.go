// Package redact blacks out sensitive regions for audit storage. Regions
// are replaced with opaque blocks, not blur: blur is reversible via
// deconvolution and insufficient for audit-grade redaction.
package redact

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"github.com/tomide-ade/docuverify/internal/llm"
	"github.com/tomide-ade/docuverify/internal/quality"
)

// Box is an absolute-pixel rectangle [x1,y1,x2,y2].
type Box struct {
	X1, Y1, X2, Y2 int
}

// BoxFromSlice converts a 4-tuple bbox as delivered by extraction evidence.
func BoxFromSlice(coords []float64) (Box, bool) {
	if len(coords) != 4 {
		return Box{}, false
	}
	return Box{
		X1: int(coords[0]), Y1: int(coords[1]),
		X2: int(coords[2]), Y2: int(coords[3]),
	}, true
}

// EvidenceBoxes collects every evidence bounding box from an extraction.
func EvidenceBoxes(res *llm.ExtractionResult) []Box {
	fields := res.Fields()
	if fields == nil {
		return nil
	}
	var boxes []Box
	for _, ev := range fields.Evidence {
		if box, ok := BoxFromSlice(ev.BBox); ok {
			boxes = append(boxes, box)
		}
	}
	return boxes
}

// Redact returns a copy of the image with each box region replaced by an
// opaque black block, re-encoded as JPEG. Out-of-bounds or degenerate boxes
// are clipped to image bounds rather than rejected; zero boxes is valid.
// The input buffer is never mutated.
func Redact(imageBytes []byte, boxes []Box) ([]byte, error) {
	img, _, err := quality.Decode(imageBytes)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	frame := image.NewRGBA(bounds)
	draw.Draw(frame, bounds, img, bounds.Min, draw.Src)

	for _, b := range boxes {
		rect := image.Rect(b.X1, b.Y1, b.X2, b.Y2).
			Add(bounds.Min).
			Intersect(bounds)
		if rect.Empty() {
			continue
		}
		draw.Draw(frame, rect, image.NewUniform(color.Black), image.Point{}, draw.Src)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
