package ai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eppdetect/internal/model"
)

func inferenceServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(status)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("Expected multipart field file, got %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		if string(data) != "jpegbytes" {
			t.Errorf("Expected image bytes to be forwarded, got %q", data)
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// ====== Detect ======

func TestRemoteDetector_DecodesDetections(t *testing.T) {
	srv := inferenceServer(t, http.StatusOK, `{"detections":[
		{"class":"Person","confidence":0.91,"box":[0,0,100,200]},
		{"class":"helmet","confidence":0.2,"box":[10,0,40,30]},
		{"class":"vest","confidence":0.8,"box":[10,60,90,120]}
	]}`)
	d := NewRemoteDetector(srv.URL+"/detect", 0.4, time.Second)

	detections, err := d.Detect(context.Background(), []byte("jpegbytes"))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(detections) != 2 {
		t.Fatalf("Expected 2 detections above threshold, got %d", len(detections))
	}
	if detections[0].Kind() != model.ClassPerson {
		t.Errorf("Expected first detection Person, got %s", detections[0].Kind())
	}
	if detections[1].Box.X2 != 90 || detections[1].Box.Y2 != 120 {
		t.Errorf("Expected vest box to be kept, got %+v", detections[1].Box)
	}
}

func TestRemoteDetector_ErrorsWrapDetectionFailure(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, ""},
		{"bad json", http.StatusOK, "{"},
		{"short box", http.StatusOK, `{"detections":[{"class":"vest","confidence":0.9,"box":[1,2,3]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := inferenceServer(t, tt.status, tt.body)
			d := NewRemoteDetector(srv.URL+"/detect", 0.4, time.Second)

			_, err := d.Detect(context.Background(), []byte("jpegbytes"))
			if !errors.Is(err, model.ErrDetection) {
				t.Errorf("Expected ErrDetection, got %v", err)
			}
		})
	}
}

func TestRemoteDetector_CancelledContext(t *testing.T) {
	srv := inferenceServer(t, http.StatusOK, `{"detections":[]}`)
	d := NewRemoteDetector(srv.URL+"/detect", 0.4, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Detect(ctx, []byte("jpegbytes")); !errors.Is(err, model.ErrDetection) {
		t.Errorf("Expected ErrDetection for cancelled request, got %v", err)
	}
}

func TestRemoteDetector_CheckHealth(t *testing.T) {
	healthy := inferenceServer(t, http.StatusOK, "")
	if err := NewRemoteDetector(healthy.URL+"/detect", 0.4, time.Second).CheckHealth(context.Background()); err != nil {
		t.Errorf("Expected healthy service, got %v", err)
	}

	down := inferenceServer(t, http.StatusServiceUnavailable, "")
	if err := NewRemoteDetector(down.URL+"/detect", 0.4, time.Second).CheckHealth(context.Background()); err == nil {
		t.Error("Expected error for unhealthy service")
	}
}

// ====== Helpers ======

func TestClassLabel(t *testing.T) {
	classes := []string{"helmet", "gloves"}

	if got := ClassLabel(classes, 1); got != "gloves" {
		t.Errorf("Expected gloves, got %s", got)
	}
	if got := ClassLabel(classes, 7); got != "class_7" {
		t.Errorf("Expected class_7, got %s", got)
	}
	if got := ClassLabel(classes, -1); got != "class_-1" {
		t.Errorf("Expected class_-1, got %s", got)
	}
}

func TestFilterConfidence(t *testing.T) {
	dets := []model.Detection{
		model.NewDetection("helmet", 0.5, model.BoundingBox{}),
		model.NewDetection("vest", 0.3, model.BoundingBox{}),
		model.NewDetection("gloves", 0.7, model.BoundingBox{}),
	}

	out := FilterConfidence(dets, 0.5)
	if len(out) != 2 || out[0].Label != "helmet" || out[1].Label != "gloves" {
		t.Errorf("Expected helmet and gloves in order, got %+v", out)
	}
}
