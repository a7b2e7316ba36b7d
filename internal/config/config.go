package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the prediction service address used when nothing else is configured.
const DefaultBaseURL = "http://localhost:5000"

type Config struct {
	Port            int           `yaml:"port"`
	PredictBaseURL  string        `yaml:"predictBaseUrl"`
	FrameInterval   time.Duration `yaml:"-"`
	CaptureCutoff   time.Duration `yaml:"-"` // 0 disables the live mode cutoff
	FrameWidth      int           `yaml:"frameWidth"`
	FrameHeight     int           `yaml:"frameHeight"`
	CameraDevice    int           `yaml:"cameraDevice"`
	CameraFacing    string        `yaml:"cameraFacing"`
	CameraSource    string        `yaml:"cameraSource"` // "webcam" or a directory of images to replay
	RequestTimeout  time.Duration `yaml:"-"`
	UploadLimitMB   int64         `yaml:"uploadLimitMb"`
	StaticDirectory string        `yaml:"staticDir"`
	LogDirectory    string        `yaml:"logDir"`
}

// fileConfig mirrors the YAML file; durations are plain integers there.
type fileConfig struct {
	Config          `yaml:",inline"`
	FrameIntervalMS *int `yaml:"frameIntervalMs"`
	CaptureCutoffS  *int `yaml:"captureCutoffS"`
	RequestTimeoutS *int `yaml:"requestTimeoutS"`
}

// Defaults returns the configuration used when no .env, YAML file or environment is present.
func Defaults() *Config {
	return &Config{
		Port:            8080,
		PredictBaseURL:  DefaultBaseURL,
		FrameInterval:   500 * time.Millisecond,
		CaptureCutoff:   30 * time.Second,
		FrameWidth:      50,
		FrameHeight:     50,
		CameraDevice:    0,
		CameraFacing:    "user",
		CameraSource:    "webcam",
		RequestTimeout:  10 * time.Second,
		UploadLimitMB:   10,
		StaticDirectory: filepath.Join(".", "static"),
		LogDirectory:    filepath.Join(".", "logs"),
	}
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE (if set),
// then environment variables. Later sources win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile overlays values found in a YAML file.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	fc := fileConfig{Config: *c}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	*c = fc.Config
	if fc.FrameIntervalMS != nil {
		c.FrameInterval = time.Duration(*fc.FrameIntervalMS) * time.Millisecond
	}
	if fc.CaptureCutoffS != nil {
		c.CaptureCutoff = time.Duration(*fc.CaptureCutoffS) * time.Second
	}
	if fc.RequestTimeoutS != nil {
		c.RequestTimeout = time.Duration(*fc.RequestTimeoutS) * time.Second
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnvAsInt("PORT", c.Port)
	c.PredictBaseURL = getEnv("PREDICT_BASE_URL", c.PredictBaseURL)
	c.FrameInterval = getEnvAsDuration("FRAME_INTERVAL_MS", time.Millisecond, c.FrameInterval)
	c.CaptureCutoff = getEnvAsDuration("CAPTURE_CUTOFF_S", time.Second, c.CaptureCutoff)
	c.FrameWidth = getEnvAsInt("FRAME_WIDTH", c.FrameWidth)
	c.FrameHeight = getEnvAsInt("FRAME_HEIGHT", c.FrameHeight)
	c.CameraDevice = getEnvAsInt("CAMERA_DEVICE", c.CameraDevice)
	c.CameraFacing = getEnv("CAMERA_FACING", c.CameraFacing)
	c.CameraSource = getEnv("CAMERA_SOURCE", c.CameraSource)
	c.RequestTimeout = getEnvAsDuration("REQUEST_TIMEOUT_S", time.Second, c.RequestTimeout)
	c.UploadLimitMB = getEnvAsInt64("UPLOAD_LIMIT_MB", c.UploadLimitMB)
	c.StaticDirectory = getEnv("STATIC_DIR", c.StaticDirectory)
	c.LogDirectory = getEnv("LOG_DIR", c.LogDirectory)
}

// Validate rejects values the session cannot run with.
func (c *Config) Validate() error {
	if c.PredictBaseURL == "" {
		return fmt.Errorf("prediction base URL is empty")
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("frame interval must be positive, got %v", c.FrameInterval)
	}
	if c.CaptureCutoff < 0 {
		return fmt.Errorf("capture cutoff must not be negative, got %v", c.CaptureCutoff)
	}
	if c.CameraFacing != "user" && c.CameraFacing != "environment" {
		return fmt.Errorf("camera facing must be user or environment, got %q", c.CameraFacing)
	}
	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		return fmt.Errorf("frame size must be positive, got %dx%d", c.FrameWidth, c.FrameHeight)
	}
	if c.UploadLimitMB <= 0 {
		return fmt.Errorf("upload limit must be positive, got %d MB", c.UploadLimitMB)
	}
	return nil
}

// UploadLimit returns the multipart upload limit in bytes.
func (c *Config) UploadLimit() int64 {
	return c.UploadLimitMB << 20
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

// getEnvAsDuration reads an integer count of unit.
func getEnvAsDuration(key string, unit time.Duration, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return time.Duration(intValue) * unit
		}
	}
	return defaultValue
}
