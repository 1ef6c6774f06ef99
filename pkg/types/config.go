// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ConversionBackend identifies the tool that turns document bytes into Markdown.
type ConversionBackend string

const (
	BackendNative    ConversionBackend = "native"
	BackendContainer ConversionBackend = "container"
	BackendDocling   ConversionBackend = "docling"
)

// Defaults applied by the config loader when a key is not set.
const (
	DefaultPort              = 8000
	DefaultWorkers           = 2
	DefaultMaxFileSize int64 = 50 * 1024 * 1024
	DefaultLogLevel          = "info"
	DefaultTimeout           = 5 * time.Minute
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultContainerImage    = "markitdown:latest"
	DefaultSecretsDir        = ".secrets"
)

// ServiceConfig holds every setting the HTTP service needs. It is built once
// at startup and passed by value; nothing mutates it afterwards.
type ServiceConfig struct {
	// APIKey authorizes POST /convert-pdf. Never logged.
	APIKey string `json:"-" yaml:"-"`

	// Port is the TCP port the HTTP server listens on.
	Port int `json:"port" yaml:"port"`

	// Workers bounds the number of conversions running at the same time.
	Workers int `json:"workers" yaml:"workers"`

	// MaxFileSize is the upload ceiling in bytes.
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// AllowedOrigins is the CORS allow-list. A single "*" allows any origin.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level" yaml:"log_level"`

	// ConversionTimeout bounds a single Convert call. Zero disables the bound.
	ConversionTimeout time.Duration `json:"conversion_timeout" yaml:"conversion_timeout"`

	// ShutdownTimeout is how long in-flight requests may drain on SIGTERM.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`

	Conversion ConversionConfig `json:"conversion" yaml:"conversion"`
}

// ConversionConfig selects and parameterizes the conversion backend.
type ConversionConfig struct {
	// Backend selects the conversion tool: native, container, or docling.
	Backend ConversionBackend `json:"backend" yaml:"backend"`

	// Image is the container image used by the container backend.
	Image string `json:"image" yaml:"image"`

	// DoclingServeURL is the base URL of a docling-serve instance.
	DoclingServeURL string `json:"docling_serve_url,omitempty" yaml:"docling_serve_url,omitempty"`
}

// Addr returns the listen address for the configured port.
func (c ServiceConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// AllowsAllOrigins reports whether the CORS allow-list is the wildcard.
func (c ServiceConfig) AllowsAllOrigins() bool {
	for _, o := range c.AllowedOrigins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return len(c.AllowedOrigins) == 0
}

// Validate reports every problem with the configuration at once.
func (c ServiceConfig) Validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, errors.New("api key is required (DOCLING_SERVICE_API_KEY)"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("max file size must be positive, got %d", c.MaxFileSize))
	}
	for _, o := range c.AllowedOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			errs = append(errs, fmt.Errorf("allowed origin %q must be \"*\" or start with http:// or https://", o))
		}
	}
	if c.ConversionTimeout < 0 {
		errs = append(errs, fmt.Errorf("conversion timeout must not be negative, got %v", c.ConversionTimeout))
	}

	switch c.Conversion.Backend {
	case BackendNative:
	case BackendContainer:
		if c.Conversion.Image == "" {
			errs = append(errs, errors.New("container backend requires an image"))
		}
	case BackendDocling:
		if c.Conversion.DoclingServeURL == "" {
			errs = append(errs, errors.New("docling backend requires DOCLING_SERVE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown converter backend %q", c.Conversion.Backend))
	}

	return errors.Join(errs...)
}
