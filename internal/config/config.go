package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Detector backends.
const (
	BackendGoCV   = "gocv"
	BackendRemote = "remote"
)

type Config struct {
	Port int

	// Optional dashboard password; empty disables the auth middleware.
	Password string

	DetectorBackend    string
	ModelPath          string
	ModelConfigPath    string
	ModelFormat        string   // ssd or yolov8
	ModelClasses       []string // Class names in model output order
	InferenceURL       string
	DetectionThreshold float64
	OverlapThreshold   float64
	StrictMarkers      bool

	VideoStride       int  // Evaluate every Nth video frame
	PositionalSummary bool // Per-index spatial summary for videos

	ProcessingInterval int // Every Nth camera frame is queued for detection
	ProcessingWorkers  int // Number of detection worker goroutines

	CamerasPort int               // UDP port for JPEG camera streams, 0 disables it
	CameraNames map[string]string // Camera IP -> name

	ImageDirectory string
	VideoDirectory string
	DBPath         string
	LogDirectory   string
	LogLevel       string

	BufferLimit   int
	FlushInterval int // Seconds between analysis buffer flushes
	MaxUploadMB   int64
	ThumbnailSize int

	AllowedOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisKey      string
}

// Load reads configuration from the environment, after loading a .env file
// when one is present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:               getEnvAsInt("PORT", 8000),
		Password:           getEnv("PASSWORD", ""),
		DetectorBackend:    getEnv("DETECTOR_BACKEND", BackendGoCV),
		ModelPath:          getEnv("MODEL_PATH", filepath.Join(".", "models", "epp.onnx")),
		ModelConfigPath:    getEnv("MODEL_CONFIG_PATH", ""),
		ModelFormat:        getEnv("MODEL_FORMAT", "yolov8"),
		ModelClasses:       getEnvAsList("MODEL_CLASSES", DefaultModelClasses),
		InferenceURL:       getEnv("INFERENCE_URL", "http://localhost:8001/detect"),
		DetectionThreshold: getEnvAsFloat("DETECTION_THRESHOLD", 0.4),
		OverlapThreshold:   getEnvAsFloat("OVERLAP_THRESHOLD", 0.3),
		StrictMarkers:      getEnvAsBool("STRICT_MARKERS", false),
		VideoStride:        getEnvAsInt("VIDEO_STRIDE", 3),
		PositionalSummary:  getEnvAsBool("POSITIONAL_SUMMARY", false),
		ProcessingInterval: getEnvAsInt("PROCESSING_INTERVAL", 3),
		ProcessingWorkers:  getEnvAsInt("PROCESSING_WORKERS", 2),
		CamerasPort:        getEnvAsInt("CAMERAS_PORT", 0),
		CameraNames:        getEnvAsMap("CAMERA_NAMES"),
		ImageDirectory:     getEnv("IMAGE_DIR", filepath.Join(".", "processed_images")),
		VideoDirectory:     getEnv("VIDEO_DIR", filepath.Join(".", "processed_videos")),
		DBPath:             getEnv("DB_PATH", filepath.Join(".", "eppdetect.db")),
		LogDirectory:       getEnv("LOG_DIR", filepath.Join(".", "logs")),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		BufferLimit:        getEnvAsInt("BUFFER_LIMIT", 10),
		FlushInterval:      getEnvAsInt("FLUSH_INTERVAL", 30),
		MaxUploadMB:        getEnvAsInt64("MAX_UPLOAD_MB", 200),
		ThumbnailSize:      getEnvAsInt("THUMBNAIL_SIZE", 320),
		AllowedOrigins:     getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisKey:           getEnv("REDIS_KEY", "eppdetect:last_analysis"),
	}
}

// DefaultModelClasses is the class order of the PPE model.
var DefaultModelClasses = []string{
	"helmet", "gloves", "vest", "boots", "goggles", "none",
	"Person", "no_helmet", "no_goggle", "no_gloves", "no_boots",
}

// Validate rejects settings the engine cannot work with.
func (c *Config) Validate() error {
	if c.DetectionThreshold < 0 || c.DetectionThreshold > 1 {
		return fmt.Errorf("DETECTION_THRESHOLD must be in [0,1], got %v", c.DetectionThreshold)
	}
	if c.OverlapThreshold <= 0 || c.OverlapThreshold > 1 {
		return fmt.Errorf("OVERLAP_THRESHOLD must be in (0,1], got %v", c.OverlapThreshold)
	}
	if c.VideoStride < 1 {
		return fmt.Errorf("VIDEO_STRIDE must be at least 1, got %d", c.VideoStride)
	}
	if c.ProcessingInterval < 1 {
		return fmt.Errorf("PROCESSING_INTERVAL must be at least 1, got %d", c.ProcessingInterval)
	}
	if c.ProcessingWorkers < 1 {
		return fmt.Errorf("PROCESSING_WORKERS must be at least 1, got %d", c.ProcessingWorkers)
	}
	if c.DetectorBackend != BackendGoCV && c.DetectorBackend != BackendRemote {
		return fmt.Errorf("unknown DETECTOR_BACKEND %q", c.DetectorBackend)
	}
	if c.ModelFormat != "ssd" && c.ModelFormat != "yolov8" {
		return fmt.Errorf("unknown MODEL_FORMAT %q", c.ModelFormat)
	}
	return nil
}

// MaxUploadBytes is the multipart upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getEnvAsMap parses "key=value,key=value" pairs. Malformed pairs are skipped.
func getEnvAsMap(key string) map[string]string {
	out := make(map[string]string)
	for _, pair := range getEnvAsList(key, nil) {
		k, v, ok := strings.Cut(pair, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}
