package dnn

import (
	"fmt"
	"image"
	"image/color"

	"eppdetect/internal/model"

	"gocv.io/x/gocv"
)

var (
	green  = color.RGBA{R: 0, G: 200, B: 0, A: 0}
	red    = color.RGBA{R: 230, G: 0, B: 0, A: 0}
	blue   = color.RGBA{R: 30, G: 120, B: 255, A: 0}
	orange = color.RGBA{R: 255, G: 140, B: 0, A: 0}
	white  = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

// Annotator draws boxes and a compliance banner with OpenCV and re-encodes
// the result as JPEG.
type Annotator struct{}

// NewAnnotator creates an Annotator.
func NewAnnotator() *Annotator {
	return &Annotator{}
}

// AnnotateImage draws each person green or red according to its verdict and
// each equipment or marker box with its label.
func (a *Annotator) AnnotateImage(img []byte, verdict model.ComplianceVerdict) ([]byte, error) {
	mat, err := gocv.IMDecode(img, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("decoded image is empty")
	}

	for _, d := range verdict.Detections {
		if d.Kind() == model.ClassPerson {
			continue
		}
		if err := drawBox(&mat, d.Box, boxColor(d.Kind()), fmt.Sprintf("%s (%.2f)", d.Label, d.Confidence)); err != nil {
			return nil, err
		}
	}
	for _, p := range verdict.Persons {
		c, status := green, "CUMPLE"
		if !p.Complies {
			c, status = red, "NO CUMPLE"
		}
		if err := drawBox(&mat, p.Box, c, fmt.Sprintf("Persona %d: %s", p.Index, status)); err != nil {
			return nil, err
		}
	}

	if verdict.TotalPersons > 0 {
		if err := drawBanner(&mat, verdict.AllComply()); err != nil {
			return nil, err
		}
	}
	return encode(mat)
}

// AnnotateFrame draws the detections of an evaluated frame and a banner with
// the count-based result.
func (a *Annotator) AnnotateFrame(frame []byte, detections []model.Detection, evaluated, compliant bool) ([]byte, error) {
	if !evaluated {
		return frame, nil
	}

	mat, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %v", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("decoded frame is empty")
	}

	for _, d := range detections {
		if err := drawBox(&mat, d.Box, boxColor(d.Kind()), fmt.Sprintf("%s %.2f", d.Label, d.Confidence)); err != nil {
			return nil, err
		}
	}
	if err := drawBanner(&mat, compliant); err != nil {
		return nil, err
	}
	return encode(mat)
}

func boxColor(c model.Class) color.RGBA {
	switch {
	case c == model.ClassPerson:
		return white
	case c.IsMarker():
		return orange
	default:
		return blue
	}
}

func drawBox(mat *gocv.Mat, box model.BoundingBox, c color.RGBA, label string) error {
	rect := image.Rect(int(box.X1), int(box.Y1), int(box.X2), int(box.Y2))
	if err := gocv.Rectangle(mat, rect, c, 2); err != nil {
		return fmt.Errorf("failed to draw rectangle: %v", err)
	}

	y := rect.Min.Y - 5
	if y < 12 {
		y = rect.Min.Y + 15
	}
	if err := gocv.PutText(mat, label, image.Pt(rect.Min.X, y), gocv.FontHersheySimplex, 0.5, c, 1); err != nil {
		return fmt.Errorf("failed to draw text: %v", err)
	}
	return nil
}

func drawBanner(mat *gocv.Mat, compliant bool) error {
	c, text := green, "CUMPLE"
	if !compliant {
		c, text = red, "VIOLACION"
	}
	if err := gocv.Rectangle(mat, image.Rect(0, 0, mat.Cols(), 32), c, -1); err != nil {
		return fmt.Errorf("failed to draw banner: %v", err)
	}
	if err := gocv.PutText(mat, text, image.Pt(10, 23), gocv.FontHersheySimplex, 0.8, white, 2); err != nil {
		return fmt.Errorf("failed to draw banner text: %v", err)
	}
	return nil
}

func encode(mat gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(".jpg", mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %v", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}
