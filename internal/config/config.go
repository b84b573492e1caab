package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AdapterConfig describes one logging adapter
type AdapterConfig struct {
	Name    string                 `yaml:"name" validate:"required"`
	Type    string                 `yaml:"type" validate:"required,oneof=stdout file"`
	Enabled bool                   `yaml:"enabled"`
	Options map[string]interface{} `yaml:"options"`
}

// Config represents the application configuration
type Config struct {
	Server struct {
		Port           int           `yaml:"port" validate:"min=1,max=65535"`
		Host           string        `yaml:"host"`
		ReadTimeout    time.Duration `yaml:"read_timeout" validate:"gt=0"`
		WriteTimeout   time.Duration `yaml:"write_timeout" validate:"gt=0"`
		IdleTimeout    time.Duration `yaml:"idle_timeout" validate:"gt=0"`
		RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes" validate:"gt=0"`
	} `yaml:"server"`

	GRPC struct {
		Enabled        bool `yaml:"enabled"`
		MaxMessageSize int  `yaml:"max_message_size" validate:"gt=0"`
	} `yaml:"grpc"`

	PDF struct {
		Engine             string        `yaml:"engine" validate:"oneof=rod chromedp"`
		Headless           bool          `yaml:"headless"`
		ChromePath         string        `yaml:"chrome_path"`
		ContentTimeout     time.Duration `yaml:"content_timeout" validate:"gt=0"`
		PDFTimeout         time.Duration `yaml:"pdf_timeout" validate:"gt=0"`
		LaunchTimeout      time.Duration `yaml:"launch_timeout" validate:"gt=0"`
		ProbeTimeout       time.Duration `yaml:"probe_timeout" validate:"gt=0"`
		FontWaitTimeout    time.Duration `yaml:"font_wait_timeout" validate:"gt=0"`
		MaxConcurrentPages int           `yaml:"max_concurrent_pages" validate:"min=1,max=64"`
	} `yaml:"pdf"`

	Templates struct {
		DefaultID string `yaml:"default_id"`
	} `yaml:"templates"`

	Cache struct {
		Enabled bool          `yaml:"enabled"`
		TTL     time.Duration `yaml:"ttl" validate:"gt=0"`
	} `yaml:"cache"`

	RateLimit struct {
		RequestsPerMinute int `yaml:"requests_per_minute" validate:"min=0"`
		Burst             int `yaml:"burst" validate:"min=0"`
	} `yaml:"rate_limit"`

	Logging struct {
		Level    string          `yaml:"level" validate:"oneof=debug info warn warning error fatal"`
		Format   string          `yaml:"format" validate:"oneof=json text"`
		Output   string          `yaml:"output"`
		Adapters []AdapterConfig `yaml:"adapters" validate:"dive"`
	} `yaml:"logging"`

	Redis struct {
		URL      string        `yaml:"url"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db" validate:"min=0"`
		Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
	} `yaml:"redis"`
}

var (
	bracedEnvVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	bareEnvVar   = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax
func expandEnvVars(s string) string {
	s = bracedEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return bareEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[1:]); val != "" {
			return val
		}
		return match
	})
}

// Default returns the configuration used before any file or environment
// overrides are applied
func Default() *Config {
	config := &Config{}

	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 130 * time.Second
	config.Server.IdleTimeout = 60 * time.Second
	config.Server.RequestTimeout = 120 * time.Second
	config.Server.MaxBodyBytes = 10 << 20

	config.GRPC.Enabled = true
	config.GRPC.MaxMessageSize = 32 << 20

	config.PDF.Engine = "rod"
	config.PDF.Headless = true
	config.PDF.ContentTimeout = 30 * time.Second
	config.PDF.PDFTimeout = 30 * time.Second
	config.PDF.LaunchTimeout = 45 * time.Second
	config.PDF.ProbeTimeout = 5 * time.Second
	config.PDF.FontWaitTimeout = 3 * time.Second
	config.PDF.MaxConcurrentPages = 4

	config.Templates.DefaultID = "ats_classic_standard"

	config.Cache.Enabled = false
	config.Cache.TTL = 15 * time.Minute

	config.RateLimit.RequestsPerMinute = 60
	config.RateLimit.Burst = 10

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Output = "stdout"

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.DB = 0
	config.Redis.Timeout = 5 * time.Second

	return config
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := Default()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, fmt.Errorf("parse %s: %w", configPath, err)
			}
		}
	}

	config.loadFromEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

var configValidator = validator.New()

// Validate checks field constraints after all sources are merged
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if redisTimeout := os.Getenv("REDIS_TIMEOUT"); redisTimeout != "" {
		if timeout, err := time.ParseDuration(redisTimeout); err == nil {
			c.Redis.Timeout = timeout
		}
	}

	if engine := os.Getenv("PDF_ENGINE"); engine != "" {
		c.PDF.Engine = engine
	}

	// CHROME_BIN wins over CHROME_PATH
	if chromePath := os.Getenv("CHROME_PATH"); chromePath != "" {
		c.PDF.ChromePath = chromePath
	}
	if chromeBin := os.Getenv("CHROME_BIN"); chromeBin != "" {
		c.PDF.ChromePath = chromeBin
	}

	if headless := os.Getenv("PDF_HEADLESS"); headless != "" {
		c.PDF.Headless = headless == "true" || headless == "1"
	}

	if contentTimeout := os.Getenv("PDF_CONTENT_TIMEOUT"); contentTimeout != "" {
		if timeout, err := time.ParseDuration(contentTimeout); err == nil {
			c.PDF.ContentTimeout = timeout
		}
	}

	if pdfTimeout := os.Getenv("PDF_TIMEOUT"); pdfTimeout != "" {
		if timeout, err := time.ParseDuration(pdfTimeout); err == nil {
			c.PDF.PDFTimeout = timeout
		}
	}

	if maxPages := os.Getenv("PDF_MAX_CONCURRENT_PAGES"); maxPages != "" {
		if pages, err := strconv.Atoi(maxPages); err == nil {
			c.PDF.MaxConcurrentPages = pages
		}
	}

	if requestTimeout := os.Getenv("REQUEST_TIMEOUT"); requestTimeout != "" {
		if timeout, err := time.ParseDuration(requestTimeout); err == nil {
			c.Server.RequestTimeout = timeout
		}
	}

	if cacheEnabled := os.Getenv("RENDER_CACHE_ENABLED"); cacheEnabled != "" {
		c.Cache.Enabled = cacheEnabled == "true" || cacheEnabled == "1"
	}

	if cacheTTL := os.Getenv("RENDER_CACHE_TTL"); cacheTTL != "" {
		if ttl, err := time.ParseDuration(cacheTTL); err == nil {
			c.Cache.TTL = ttl
		}
	}

	if rpm := os.Getenv("RATE_LIMIT_RPM"); rpm != "" {
		if v, err := strconv.Atoi(rpm); err == nil {
			c.RateLimit.RequestsPerMinute = v
		}
	}

	if grpcEnabled := os.Getenv("GRPC_ENABLED"); grpcEnabled != "" {
		c.GRPC.Enabled = grpcEnabled == "true" || grpcEnabled == "1"
	}

	c.loadLoggingAdapterEnvVars()
}

// loadLoggingAdapterEnvVars loads environment variables for logging adapters
func (c *Config) loadLoggingAdapterEnvVars() {
	for i := range c.Logging.Adapters {
		adapter := &c.Logging.Adapters[i]

		switch adapter.Type {
		case "file":
			if path := os.Getenv("LOG_FILE_PATH"); path != "" {
				if adapter.Options == nil {
					adapter.Options = make(map[string]interface{})
				}
				adapter.Options["file_path"] = path
			}
		case "stdout":
			if colorize := os.Getenv("LOG_COLORIZE"); colorize != "" {
				if adapter.Options == nil {
					adapter.Options = make(map[string]interface{})
				}
				adapter.Options["colorize"] = colorize == "true" || colorize == "1"
			}
		}
	}
}
