// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config assembles the immutable ServiceConfig from flags, the
// environment, an optional YAML file and the secrets directory.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/docling-service/internal/secrets"
	"github.com/pdiddy/docling-service/pkg/types"
)

// Viper keys.
const (
	KeyAPIKey            = "api_key"
	KeyPort              = "port"
	KeyWorkers           = "workers"
	KeyMaxFileSize       = "max_file_size"
	KeyAllowedOrigins    = "allowed_origins"
	KeyLogLevel          = "log_level"
	KeyConversionTimeout = "conversion_timeout"
	KeyShutdownTimeout   = "shutdown_timeout"
	KeyBackend           = "converter_backend"
	KeyImage             = "converter_image"
	KeyDoclingServeURL   = "docling_serve_url"
	KeySecretsDir        = "secrets_dir"
)

// envNames maps each key to the unprefixed variable the deployment sets.
var envNames = map[string]string{
	KeyAPIKey:            "DOCLING_SERVICE_API_KEY",
	KeyPort:              "PORT",
	KeyWorkers:           "WORKERS",
	KeyMaxFileSize:       "MAX_FILE_SIZE",
	KeyAllowedOrigins:    "ALLOWED_ORIGINS",
	KeyLogLevel:          "LOG_LEVEL",
	KeyConversionTimeout: "CONVERSION_TIMEOUT",
	KeyShutdownTimeout:   "SHUTDOWN_TIMEOUT",
	KeyBackend:           "CONVERTER_BACKEND",
	KeyImage:             "CONVERTER_IMAGE",
	KeyDoclingServeURL:   "DOCLING_SERVE_URL",
	KeySecretsDir:        "SECRETS_DIR",
}

// secretDirs lists fallback locations for the API key after secrets_dir.
var secretDirs = []string{"/run/secrets"}

// Bind registers defaults and environment bindings on v.
func Bind(v *viper.Viper) error {
	v.SetDefault(KeyPort, types.DefaultPort)
	v.SetDefault(KeyWorkers, types.DefaultWorkers)
	v.SetDefault(KeyMaxFileSize, types.DefaultMaxFileSize)
	v.SetDefault(KeyAllowedOrigins, "*")
	v.SetDefault(KeyLogLevel, types.DefaultLogLevel)
	v.SetDefault(KeyConversionTimeout, types.DefaultTimeout)
	v.SetDefault(KeyShutdownTimeout, types.DefaultShutdownTimeout)
	v.SetDefault(KeyBackend, string(types.BackendNative))
	v.SetDefault(KeyImage, types.DefaultContainerImage)
	v.SetDefault(KeySecretsDir, types.DefaultSecretsDir)

	for key, env := range envNames {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("binding %s: %w", env, err)
		}
	}
	return nil
}

// Load reads every setting from v and validates the result. The returned
// config is safe to share; callers must not modify it.
func Load(v *viper.Viper) (types.ServiceConfig, error) {
	cfg := types.ServiceConfig{
		APIKey:            strings.TrimSpace(v.GetString(KeyAPIKey)),
		Port:              v.GetInt(KeyPort),
		Workers:           v.GetInt(KeyWorkers),
		MaxFileSize:       v.GetInt64(KeyMaxFileSize),
		AllowedOrigins:    splitOrigins(v.Get(KeyAllowedOrigins)),
		LogLevel:          v.GetString(KeyLogLevel),
		Conversion:        Conversion(v),
	}

	var err error
	if cfg.ConversionTimeout, err = duration(v, KeyConversionTimeout); err != nil {
		return types.ServiceConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.ShutdownTimeout, err = duration(v, KeyShutdownTimeout); err != nil {
		return types.ServiceConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.APIKey == "" {
		dirs := append([]string{v.GetString(KeySecretsDir)}, secretDirs...)
		key, err := secrets.Lookup(secrets.APIKeyName, dirs...)
		if err != nil && !errors.Is(err, secrets.ErrNotFound) {
			return types.ServiceConfig{}, err
		}
		cfg.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return types.ServiceConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Conversion reads only the backend settings. The batch CLI uses it so it
// can run without an API key.
func Conversion(v *viper.Viper) types.ConversionConfig {
	return types.ConversionConfig{
		Backend:         types.ConversionBackend(strings.ToLower(v.GetString(KeyBackend))),
		Image:           v.GetString(KeyImage),
		DoclingServeURL: v.GetString(KeyDoclingServeURL),
	}
}

// duration reads key as a time.Duration. A bare non-zero number is refused
// rather than read as nanoseconds.
func duration(v *viper.Viper, key string) (time.Duration, error) {
	var bare bool
	switch raw := v.Get(key).(type) {
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		bare = err == nil && n != 0
	case int:
		bare = raw != 0
	case int64:
		bare = raw != 0
	case float64:
		bare = raw != 0
	}
	if bare {
		return 0, fmt.Errorf("%s=%v has no unit, use a duration such as 300s or 5m", envNames[key], v.Get(key))
	}
	return v.GetDuration(key), nil
}

// splitOrigins accepts either a comma-separated string (env) or a YAML list.
func splitOrigins(raw any) []string {
	var parts []string
	switch t := raw.(type) {
	case string:
		parts = strings.Split(t, ",")
	case []string:
		parts = t
	case []any:
		for _, p := range t {
			parts = append(parts, fmt.Sprint(p))
		}
	}

	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
