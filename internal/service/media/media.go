package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"eppdetect/internal/model"
)

// Kind is the media category of an upload.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

var videoExtensions = map[string]bool{
	".mp4": true, ".avi": true, ".mov": true, ".mkv": true, ".webm": true, ".m4v": true,
}

// Info describes a decodable image.
type Info struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Classify decides whether an upload is an image or a video from its
// declared content type, falling back to sniffing and the file extension.
func Classify(contentType, filename string, head []byte) (Kind, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(head)
	}
	switch {
	case strings.HasPrefix(ct, "image/"):
		return KindImage, nil
	case strings.HasPrefix(ct, "video/"):
		return KindVideo, nil
	}
	if videoExtensions[strings.ToLower(filepath.Ext(filename))] {
		return KindVideo, nil
	}
	return "", fmt.Errorf("%w: %q", model.ErrUnsupportedMedia, contentType)
}

// Inspect reads the image header. Unreadable data wraps model.ErrUnreadableMedia.
func Inspect(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		// chai2010 handles extended webp variants the x/image decoder rejects.
		if wcfg, werr := webp.DecodeConfig(bytes.NewReader(data)); werr == nil {
			return Info{Format: "webp", Width: wcfg.Width, Height: wcfg.Height}, nil
		}
		return Info{}, fmt.Errorf("%w: %v", model.ErrUnreadableMedia, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return Info{}, fmt.Errorf("%w: empty image", model.ErrUnreadableMedia)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// Decode returns the image with EXIF orientation applied.
func Decode(data []byte) (image.Image, error) {
	if img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("%w: unknown or unsupported format", model.ErrUnreadableMedia)
}

// Normalize re-encodes an image as JPEG so the detector and annotator always
// receive a format OpenCV can decode.
func Normalize(data []byte) ([]byte, error) {
	info, err := Inspect(data)
	if err != nil {
		return nil, err
	}
	if info.Format == "jpeg" {
		return data, nil
	}
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(92)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Thumbnail scales the image to fit within size x size. format is "jpeg" or
// "webp".
func Thumbnail(data []byte, size int, format string) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid thumbnail size %d", size)
	}
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	thumb := imaging.Fit(img, size, size, imaging.Lanczos)

	var buf bytes.Buffer
	switch format {
	case "webp":
		if err := webp.Encode(&buf, thumb, &webp.Options{Quality: 80}); err != nil {
			return nil, fmt.Errorf("failed to encode webp thumbnail: %w", err)
		}
	default:
		if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
			return nil, fmt.Errorf("failed to encode jpeg thumbnail: %w", err)
		}
	}
	return buf.Bytes(), nil
}
