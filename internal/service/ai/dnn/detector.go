package dnn

import (
	"context"
	"fmt"
	"image"
	"os"
	"sort"
	"strings"
	"sync"

	"eppdetect/internal/config"
	"eppdetect/internal/logger"
	"eppdetect/internal/model"
	"eppdetect/internal/service/ai"

	"gocv.io/x/gocv"
)

const (
	// NMSThreshold is the IoU above which overlapping boxes of one class are suppressed.
	NMSThreshold = 0.45

	ssdInputSize  = 300
	yoloInputSize = 640
)

// Detector runs a local OpenCV DNN model. One Detector must not be shared by
// concurrent callers without its mutex; the app creates one per worker.
type Detector struct {
	net        gocv.Net
	ready      bool
	mu         sync.Mutex
	format     string
	classes    []string
	threshold  float32
	modelPath  string
	configPath string
	logger     *logger.Logger
}

// NewDetector creates a detector for the configured model. A model that
// cannot be loaded is logged; Detect then fails with model.ErrDetection.
func NewDetector(config *config.Config, logger *logger.Logger) *Detector {
	d := &Detector{
		format:     config.ModelFormat,
		classes:    config.ModelClasses,
		threshold:  float32(config.DetectionThreshold),
		modelPath:  config.ModelPath,
		configPath: config.ModelConfigPath,
		logger:     logger,
	}

	if err := d.initializeNet(); err != nil {
		d.logger.Warning("Could not initialize detection network: %v", err)
	}
	return d
}

// initializeNet loads the network and sets backend/target preferences.
func (d *Detector) initializeNet() error {
	if _, err := os.Stat(d.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", d.modelPath)
	}
	if d.configPath != "" {
		if _, err := os.Stat(d.configPath); os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", d.configPath)
		}
	}

	net := gocv.ReadNet(d.modelPath, d.configPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network from %s", d.modelPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return fmt.Errorf("failed to set backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return fmt.Errorf("failed to set target: %w", err)
	}

	d.net = net
	d.ready = true
	d.logger.Info("Detection network %s (%s) initialized", d.modelPath, d.format)
	return nil
}

// Ready reports whether the network loaded.
func (d *Detector) Ready() bool {
	return d.ready
}

// Detect decodes image, runs a forward pass and returns the detections above
// the confidence threshold after per-class non-maximum suppression.
func (d *Detector) Detect(ctx context.Context, image []byte) ([]model.Detection, error) {
	if !d.ready {
		return nil, fmt.Errorf("%w: detection network not initialized", model.ErrDetection)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDetection, err)
	}

	mat, err := gocv.IMDecode(image, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %v", model.ErrDetection, err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("%w: decoded image is empty", model.ErrDetection)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.format == "ssd" {
		return d.detectSSD(mat)
	}
	return d.detectYOLO(mat)
}

// detectSSD parses rows of [batch_id, class_id, confidence, x1, y1, x2, y2]
// with coordinates normalized to the image size.
func (d *Detector) detectSSD(mat gocv.Mat) ([]model.Detection, error) {
	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(ssdInputSize, ssdInputSize), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	rows := output.Reshape(1, output.Total()/7)
	defer rows.Close()

	width, height := float64(mat.Cols()), float64(mat.Rows())
	var candidates []candidate
	for i := 0; i < rows.Rows(); i++ {
		confidence := rows.GetFloatAt(i, 2)
		if confidence < d.threshold {
			continue
		}
		candidates = append(candidates, candidate{
			classID:    int(rows.GetFloatAt(i, 1)),
			confidence: confidence,
			box: model.BoundingBox{
				X1: float64(rows.GetFloatAt(i, 3)) * width,
				Y1: float64(rows.GetFloatAt(i, 4)) * height,
				X2: float64(rows.GetFloatAt(i, 5)) * width,
				Y2: float64(rows.GetFloatAt(i, 6)) * height,
			},
		})
	}
	return d.suppress(candidates), nil
}

// detectYOLO parses a [1, 4+classes, anchors] tensor where each anchor holds
// cx, cy, w, h in input pixels followed by one score per class.
func (d *Detector) detectYOLO(mat gocv.Mat) ([]model.Detection, error) {
	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(yoloInputSize, yoloInputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	dims := output.Size()
	if len(dims) != 3 || dims[1] <= 4 {
		return nil, fmt.Errorf("%w: unexpected output shape %v", model.ErrDetection, dims)
	}
	features, anchors := dims[1], dims[2]

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("%w: read output: %v", model.ErrDetection, err)
	}

	scaleX := float64(mat.Cols()) / yoloInputSize
	scaleY := float64(mat.Rows()) / yoloInputSize
	at := func(f, a int) float32 { return data[f*anchors+a] }

	var candidates []candidate
	for a := 0; a < anchors; a++ {
		best, bestScore := -1, float32(0)
		for c := 4; c < features; c++ {
			if s := at(c, a); s > bestScore {
				best, bestScore = c-4, s
			}
		}
		if best < 0 || bestScore < d.threshold {
			continue
		}
		cx, cy := float64(at(0, a)), float64(at(1, a))
		w, h := float64(at(2, a)), float64(at(3, a))
		candidates = append(candidates, candidate{
			classID:    best,
			confidence: bestScore,
			box: model.BoundingBox{
				X1: (cx - w/2) * scaleX,
				Y1: (cy - h/2) * scaleY,
				X2: (cx + w/2) * scaleX,
				Y2: (cy + h/2) * scaleY,
			},
		})
	}
	return d.suppress(candidates), nil
}

type candidate struct {
	classID    int
	confidence float32
	box        model.BoundingBox
}

// suppress runs gocv NMS per class and converts survivors to detections in
// descending confidence order. Labels the model marks as "none" are dropped.
func (d *Detector) suppress(candidates []candidate) []model.Detection {
	byClass := make(map[int][]candidate)
	var order []int
	for _, c := range candidates {
		if _, seen := byClass[c.classID]; !seen {
			order = append(order, c.classID)
		}
		byClass[c.classID] = append(byClass[c.classID], c)
	}

	var kept []candidate
	for _, classID := range order {
		group := byClass[classID]
		rects := make([]image.Rectangle, len(group))
		scores := make([]float32, len(group))
		for i, c := range group {
			rects[i] = image.Rect(int(c.box.X1), int(c.box.Y1), int(c.box.X2), int(c.box.Y2))
			scores[i] = c.confidence
		}
		for _, idx := range gocv.NMSBoxes(rects, scores, d.threshold, NMSThreshold) {
			kept = append(kept, group[idx])
		}
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].confidence > kept[j].confidence })
	detections := make([]model.Detection, 0, len(kept))
	for _, c := range kept {
		label := ai.ClassLabel(d.classes, c.classID)
		if strings.EqualFold(label, "none") {
			continue
		}
		detections = append(detections, model.NewDetection(label, float64(c.confidence), c.box))
	}
	d.logger.Debug("Detected %d objects", len(detections))
	return detections
}

// Close releases the network.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ready {
		d.ready = false
		return d.net.Close()
	}
	return nil
}
