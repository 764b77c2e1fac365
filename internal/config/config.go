package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Recognizer RecognizerConfig
	Camera     CameraConfig
	Web        WebConfig
	Timing     TimingConfig
	Capture    CaptureConfig
}

type RecognizerConfig struct {
	URL     string // base URL of the recognition service
	Section string // section qualifier sent with recognition requests ("" = teacher mode)
	Year    string // year qualifier sent with recognition requests ("" = teacher mode)
}

type CameraConfig struct {
	Device    string  // V4L2 device path (e.g. /dev/video0)
	SourceDir string  // directory of JPEG frames used instead of a device
	Width     int     // capture width in pixels
	Height    int     // capture height in pixels
	FPS       float64 // device frame rate
}

type WebConfig struct {
	Host string
	Port int
}

// TimingConfig carries the timing model of the kiosk. Defaults come from the
// embedded defaults.yaml; each knob has an env override.
type TimingConfig struct {
	PollInterval     time.Duration `yaml:"poll_interval"`      // recognition tick period
	CameraWarmup     time.Duration `yaml:"camera_warmup"`      // grace before the first recognition tick
	ReadinessGrace   time.Duration `yaml:"readiness_grace"`    // upper bound to wait for the first frame
	PostAcquireDelay time.Duration `yaml:"post_acquire_delay"` // settle time after the device is acquired
	NotificationTTL  time.Duration `yaml:"notification_ttl"`   // auto-dismiss window per notification
	RedirectDelay    time.Duration `yaml:"redirect_delay"`     // pause before navigating home after registration
}

type CaptureConfig struct {
	MinImages          int `yaml:"min_images"`           // registration requires at least this many frames
	DisplayCap         int `yaml:"display_cap"`          // UI shows at most this many thumbnails
	ManualJPEGQuality  int `yaml:"manual_jpeg_quality"`  // quality for user-triggered captures
	PollingJPEGQuality int `yaml:"polling_jpeg_quality"` // quality for recognition-tick captures
}

type defaults struct {
	Timing  TimingConfig  `yaml:"timing"`
	Capture CaptureConfig `yaml:"capture"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envDuration reads an environment variable and parses it as a duration.
// Returns the default value if the env var is unset, empty, or invalid.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	var d defaults
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		// This is an embedded file so this error should never happen in practice.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Recognizer: RecognizerConfig{
			URL:     envString("RECOGNIZER_URL", "http://localhost:8000"),
			Section: os.Getenv("KIOSK_SECTION"),
			Year:    os.Getenv("KIOSK_YEAR"),
		},
		Camera: CameraConfig{
			Device:    envString("CAMERA_DEVICE", "/dev/video0"),
			SourceDir: os.Getenv("CAMERA_SOURCE_DIR"),
			Width:     envInt("CAMERA_WIDTH", 1280),
			Height:    envInt("CAMERA_HEIGHT", 720),
			FPS:       envFloat("CAMERA_FPS", 15),
		},
		Web: WebConfig{
			Host: envString("WEB_HOST", "0.0.0.0"),
			Port: envInt("WEB_PORT", 8080),
		},
		Timing: TimingConfig{
			PollInterval:     envDuration("KIOSK_POLL_INTERVAL", d.Timing.PollInterval),
			CameraWarmup:     envDuration("KIOSK_CAMERA_WARMUP", d.Timing.CameraWarmup),
			ReadinessGrace:   envDuration("KIOSK_READINESS_GRACE", d.Timing.ReadinessGrace),
			PostAcquireDelay: envDuration("KIOSK_POST_ACQUIRE_DELAY", d.Timing.PostAcquireDelay),
			NotificationTTL:  envDuration("KIOSK_NOTIFICATION_TTL", d.Timing.NotificationTTL),
			RedirectDelay:    envDuration("KIOSK_REDIRECT_DELAY", d.Timing.RedirectDelay),
		},
		Capture: CaptureConfig{
			MinImages:          envInt("KIOSK_MIN_IMAGES", d.Capture.MinImages),
			DisplayCap:         envInt("KIOSK_DISPLAY_CAP", d.Capture.DisplayCap),
			ManualJPEGQuality:  envInt("KIOSK_MANUAL_JPEG_QUALITY", d.Capture.ManualJPEGQuality),
			PollingJPEGQuality: envInt("KIOSK_POLLING_JPEG_QUALITY", d.Capture.PollingJPEGQuality),
		},
	}
}
