package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"eppdetect/internal/model"
)

// RemoteDetector posts images to an external inference service that answers
// {"detections":[{"class":"helmet","confidence":0.9,"box":[x1,y1,x2,y2]}]}.
type RemoteDetector struct {
	url       string
	threshold float64
	client    *http.Client
}

type remoteDetection struct {
	Class      string    `json:"class"`
	Confidence float64   `json:"confidence"`
	Box        []float64 `json:"box"`
}

// NewRemoteDetector creates a detector for the inference endpoint at url.
func NewRemoteDetector(url string, threshold float64, timeout time.Duration) *RemoteDetector {
	return &RemoteDetector{
		url:       url,
		threshold: threshold,
		client:    &http.Client{Timeout: timeout},
	}
}

// Detect sends image as the multipart field "file" and decodes the answer.
// Every failure wraps model.ErrDetection.
func (d *RemoteDetector) Detect(ctx context.Context, image []byte) ([]model.Detection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("%w: create form file: %v", model.ErrDetection, err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("%w: write image: %v", model.ErrDetection, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: close form: %v", model.ErrDetection, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, body)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", model.ErrDetection, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", model.ErrDetection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: inference service returned status %d", model.ErrDetection, resp.StatusCode)
	}

	var result struct {
		Detections []remoteDetection `json:"detections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", model.ErrDetection, err)
	}

	detections := make([]model.Detection, 0, len(result.Detections))
	for i, rd := range result.Detections {
		if len(rd.Box) != 4 {
			return nil, fmt.Errorf("%w: detection %d has %d box coordinates", model.ErrDetection, i, len(rd.Box))
		}
		if rd.Confidence < d.threshold {
			continue
		}
		box := model.BoundingBox{X1: rd.Box[0], Y1: rd.Box[1], X2: rd.Box[2], Y2: rd.Box[3]}
		detections = append(detections, model.NewDetection(rd.Class, rd.Confidence, box))
	}
	return detections, nil
}

// CheckHealth calls GET <url without its last path element>/health.
func (d *RemoteDetector) CheckHealth(ctx context.Context) error {
	base := d.url
	if i := strings.LastIndex(base, "/"); i > len("https://") {
		base = base[:i]
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}
	return nil
}

// Close is a no-op; the HTTP client holds no per-detector resources.
func (d *RemoteDetector) Close() error {
	return nil
}
