package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"eppdetect/internal/model"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// ====== Classify ======

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		filename    string
		head        []byte
		want        Kind
		wantErr     bool
	}{
		{"declared image", "image/jpeg", "a.jpg", nil, KindImage, false},
		{"declared video", "video/mp4", "a.mp4", nil, KindVideo, false},
		{"sniffed png", "", "a", []byte("\x89PNG\r\n\x1a\n"), KindImage, false},
		{"video by extension", "application/octet-stream", "clip.MOV", []byte{0, 0, 0}, KindVideo, false},
		{"text rejected", "text/plain", "notes.txt", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.contentType, tt.filename, tt.head)
			if tt.wantErr {
				if !errors.Is(err, model.ErrUnsupportedMedia) {
					t.Errorf("Expected ErrUnsupportedMedia, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

// ====== Inspect / Normalize / Thumbnail ======

func TestInspect(t *testing.T) {
	info, err := Inspect(pngBytes(t, 40, 20))
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info.Format != "png" || info.Width != 40 || info.Height != 20 {
		t.Errorf("Expected png 40x20, got %+v", info)
	}
}

func TestInspect_Unreadable(t *testing.T) {
	_, err := Inspect([]byte("definitely not an image"))
	if !errors.Is(err, model.ErrUnreadableMedia) {
		t.Errorf("Expected ErrUnreadableMedia, got %v", err)
	}
}

func TestNormalize_ConvertsToJPEG(t *testing.T) {
	out, err := Normalize(pngBytes(t, 16, 16))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	info, err := Inspect(out)
	if err != nil {
		t.Fatalf("Inspect of normalized image failed: %v", err)
	}
	if info.Format != "jpeg" {
		t.Errorf("Expected jpeg, got %s", info.Format)
	}
}

func TestThumbnail_FitsWithinSize(t *testing.T) {
	for _, format := range []string{"jpeg", "webp"} {
		out, err := Thumbnail(pngBytes(t, 200, 100), 50, format)
		if err != nil {
			t.Fatalf("Thumbnail %s failed: %v", format, err)
		}
		img, err := Decode(out)
		if err != nil {
			t.Fatalf("Decode of %s thumbnail failed: %v", format, err)
		}
		b := img.Bounds()
		if b.Dx() != 50 || b.Dy() != 25 {
			t.Errorf("Expected 50x25 %s thumbnail, got %dx%d", format, b.Dx(), b.Dy())
		}
	}
}

func TestThumbnail_InvalidSize(t *testing.T) {
	if _, err := Thumbnail(pngBytes(t, 10, 10), 0, "jpeg"); err == nil {
		t.Error("Expected error for zero size")
	}
}
