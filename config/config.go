package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/uosphere/idcard-verification/utils/idcard"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	OCR    OCRConfig    `mapstructure:"ocr"`
	Card   CardConfig   `mapstructure:"card"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxFileSize     int64         `mapstructure:"max_file_size"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// OCRConfig selects and tunes the OCR engines. Paddle is only used when
// PaddleURL is set, and always ahead of Tesseract.
type OCRConfig struct {
	TesseractDataPath string        `mapstructure:"tessdata_path"`
	Languages         []string      `mapstructure:"languages"`
	PaddleURL         string        `mapstructure:"paddle_url"`
	PaddleTimeout     time.Duration `mapstructure:"paddle_timeout"`
	PaddleMaxRetries  uint          `mapstructure:"paddle_max_retries"`
}

// CardConfig overrides parts of the default card policy. Zero values keep the default.
type CardConfig struct {
	MinTextLength         int               `mapstructure:"min_text_length"`
	MinConfidence         float64           `mapstructure:"min_confidence"`
	GraduationWindowYears int               `mapstructure:"graduation_window_years"`
	InstitutionPattern    string            `mapstructure:"institution_pattern"`
	RollPatterns          []string          `mapstructure:"roll_patterns"`
	Departments           map[string]string `mapstructure:"departments"`
	Keywords              []string          `mapstructure:"keywords"`
	UniversityHeader      string            `mapstructure:"university_header"`
	CardType              string            `mapstructure:"card_type"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from defaults, an optional YAML file and
// environment variables with the IDCARD_ prefix, in increasing precedence.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("IDCARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := idcard.DefaultPolicy()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_file_size", 10*1024*1024) // 10 MB
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})

	v.SetDefault("ocr.tessdata_path", "/usr/share/tesseract-ocr/5/tessdata/")
	v.SetDefault("ocr.languages", []string{"eng"})
	v.SetDefault("ocr.paddle_url", "")
	v.SetDefault("ocr.paddle_timeout", "30s")
	v.SetDefault("ocr.paddle_max_retries", 3)

	v.SetDefault("card.min_text_length", defaults.MinTextLength)
	v.SetDefault("card.min_confidence", defaults.MinConfidence)
	v.SetDefault("card.graduation_window_years", defaults.GraduationWindowYears)
	v.SetDefault("card.institution_pattern", defaults.InstitutionPattern)
	v.SetDefault("card.university_header", defaults.UniversityHeader)
	v.SetDefault("card.card_type", defaults.CardType)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Names the Tesseract and PaddleOCR images already export.
	_ = v.BindEnv("ocr.tessdata_path", "IDCARD_OCR_TESSDATA_PATH", "TESSDATA_PREFIX")
	_ = v.BindEnv("ocr.paddle_url", "IDCARD_OCR_PADDLE_URL", "PADDLEOCR_API_URL")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("idcard")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.idcard")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// ToPolicy overlays the configured values on the default card policy.
func (c CardConfig) ToPolicy() idcard.Policy {
	p := idcard.DefaultPolicy()
	if c.MinTextLength > 0 {
		p.MinTextLength = c.MinTextLength
	}
	if c.MinConfidence > 0 {
		p.MinConfidence = c.MinConfidence
	}
	if c.GraduationWindowYears > 0 {
		p.GraduationWindowYears = c.GraduationWindowYears
	}
	if c.InstitutionPattern != "" {
		p.InstitutionPattern = c.InstitutionPattern
	}
	if len(c.RollPatterns) > 0 {
		p.RollPatterns = c.RollPatterns
	}
	if len(c.Departments) > 0 {
		p.Departments = c.Departments
	}
	if len(c.Keywords) > 0 {
		p.Keywords = c.Keywords
	}
	if c.UniversityHeader != "" {
		p.UniversityHeader = c.UniversityHeader
	}
	if c.CardType != "" {
		p.CardType = c.CardType
	}
	return p
}
