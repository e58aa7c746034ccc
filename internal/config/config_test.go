package config

import (
	"reflect"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.OverlapThreshold != 0.3 {
		t.Errorf("Expected overlap threshold 0.3, got %v", cfg.OverlapThreshold)
	}
	if cfg.StrictMarkers {
		t.Error("Expected strict markers off by default")
	}
	if cfg.VideoStride != 3 {
		t.Errorf("Expected stride 3, got %d", cfg.VideoStride)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("OVERLAP_THRESHOLD", "0.5")
	t.Setenv("STRICT_MARKERS", "true")
	t.Setenv("MODEL_CLASSES", "Person, helmet ,,vest")
	t.Setenv("VIDEO_STRIDE", "not-a-number")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Port)
	}
	if cfg.OverlapThreshold != 0.5 {
		t.Errorf("Expected 0.5, got %v", cfg.OverlapThreshold)
	}
	if !cfg.StrictMarkers {
		t.Error("Expected strict markers enabled")
	}
	if !reflect.DeepEqual(cfg.ModelClasses, []string{"Person", "helmet", "vest"}) {
		t.Errorf("Unexpected class list %v", cfg.ModelClasses)
	}
	if cfg.VideoStride != 3 {
		t.Errorf("Expected invalid stride to fall back to 3, got %d", cfg.VideoStride)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"overlap above one", func(c *Config) { c.OverlapThreshold = 1.5 }},
		{"zero overlap", func(c *Config) { c.OverlapThreshold = 0 }},
		{"negative detection threshold", func(c *Config) { c.DetectionThreshold = -0.1 }},
		{"zero stride", func(c *Config) { c.VideoStride = 0 }},
		{"zero workers", func(c *Config) { c.ProcessingWorkers = 0 }},
		{"zero interval", func(c *Config) { c.ProcessingInterval = 0 }},
		{"unknown backend", func(c *Config) { c.DetectorBackend = "tflite" }},
		{"unknown format", func(c *Config) { c.ModelFormat = "yolov5" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoad_CameraNames(t *testing.T) {
	t.Setenv("CAMERA_NAMES", "192.168.1.10=gate, 192.168.1.11 = yard,broken,=x")

	cfg := Load()

	want := map[string]string{"192.168.1.10": "gate", "192.168.1.11": "yard"}
	if !reflect.DeepEqual(cfg.CameraNames, want) {
		t.Errorf("Expected %v, got %v", want, cfg.CameraNames)
	}
}
