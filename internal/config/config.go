package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	appName   = "thought-pad"
	envPrefix = "THOUGHTPAD"
)

// Export formats offered for saved notes
const (
	FormatMarkdown = "Markdown"
	FormatPDF      = "PDF"
	FormatDOCX     = "DOCX"
)

// NoDevice means record from the system default input
const NoDevice = -1

// Config holds the application settings. ExportFormat, Temperature,
// DownloadPath, AutoSaveInterval and IncludeRawText are read by the
// external transcription, export and cleanup collaborators, not by the
// recorder itself.
type Config struct {
	APIKey           string      `mapstructure:"openai_api_key" yaml:"openai_api_key"`
	PreferredDevice  int         `mapstructure:"preferred_audio_device" yaml:"preferred_audio_device" validate:"min=-1"`
	ExportFormat     string      `mapstructure:"default_export_format" yaml:"default_export_format" validate:"oneof=Markdown PDF DOCX"`
	Temperature      float64     `mapstructure:"gpt_temperature" yaml:"gpt_temperature" validate:"min=0,max=2"`
	DownloadPath     string      `mapstructure:"download_path" yaml:"download_path"`
	AutoSaveInterval int         `mapstructure:"auto_save_interval" yaml:"auto_save_interval" validate:"min=0"` // seconds
	IncludeRawText   bool        `mapstructure:"include_raw_text" yaml:"include_raw_text"`
	Notifications    bool        `mapstructure:"notifications" yaml:"notifications"`
	LogLevel         string      `mapstructure:"log_level" yaml:"log_level"`
	Audio            AudioConfig `mapstructure:"audio" yaml:"audio"`
}

type AudioConfig struct {
	SampleRate      int    `mapstructure:"sample_rate" yaml:"sample_rate" validate:"gt=0"`
	Channels        int    `mapstructure:"channels" yaml:"channels" validate:"gt=0"`
	FramesPerBuffer int    `mapstructure:"frames_per_buffer" yaml:"frames_per_buffer" validate:"gt=0"`
	RecordingsDir   string `mapstructure:"recordings_dir" yaml:"recordings_dir"` // empty = OS temp dir
}

var validate = newValidator()

// newValidator reports fields by their config key rather than Go name
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
	})
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("openai_api_key", "")
	v.SetDefault("preferred_audio_device", NoDevice)
	v.SetDefault("default_export_format", FormatMarkdown)
	v.SetDefault("gpt_temperature", 0.3)
	v.SetDefault("download_path", filepath.Join(homeDir(), "Desktop"))
	v.SetDefault("auto_save_interval", 300)
	v.SetDefault("include_raw_text", false)
	v.SetDefault("notifications", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("audio.sample_rate", 44100)
	v.SetDefault("audio.channels", 1)
	v.SetDefault("audio.frames_per_buffer", 1024)
	v.SetDefault("audio.recordings_dir", "")
}

// Load reads the config file at path, falling back to defaults when it
// does not exist. THOUGHTPAD_* environment variables override both, e.g.
// THOUGHTPAD_AUDIO_SAMPLE_RATE. A .env file next to the config file is
// loaded first so the API key can live outside config.json; variables
// already set in the environment win over it.
func Load(path string) (*Config, error) {
	if err := loadEnvFile(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	var fieldErrs validator.ValidationErrors
	if err := validate.Struct(c); !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s %s, got %v", configKey(e), describe(e), e.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// configKey turns "Config.audio.sample_rate" into "audio.sample_rate"
func configKey(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "oneof":
		return "must be one of " + strings.ReplaceAll(e.Param(), " ", ", ")
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	default:
		return "is invalid"
	}
}

// HasPreferredDevice reports whether a specific input device is configured
func (c *Config) HasPreferredDevice() bool {
	return c.PreferredDevice != NoDevice
}

// Path returns the platform-specific config file path
func Path() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = homeDir() + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = homeDir() + "/.config"
		}
	}

	return filepath.Join(base, appName, "config.json")
}

// StatePath returns the platform-specific directory for logs
func StatePath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = homeDir() + "/Library/Logs"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
			base = xdg
		} else {
			base = homeDir() + "/.local/state"
		}
	}

	return filepath.Join(base, appName)
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.Getenv("HOME")
}
