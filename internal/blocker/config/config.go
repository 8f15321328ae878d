package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/common/validate"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// APIKey authenticates against the NextDNS API.
	APIKey string `koanf:"api_key" validate:"required"`

	// ProfileID selects the NextDNS profile whose lists are managed.
	ProfileID string `koanf:"profile_id" validate:"required"`

	// Timezone is the IANA zone schedules are evaluated in.
	Timezone string `koanf:"timezone" validate:"required,timezone_name"`

	// DomainsFile is the local rules document (JSON). Ignored when
	// DomainsURL is set.
	DomainsFile string `koanf:"domains_file"`

	// DomainsURL optionally fetches the rules document over HTTP(S).
	DomainsURL string `koanf:"domains_url" validate:"omitempty,http_url_strict"`

	// APITimeout is the per-HTTP-call timeout in seconds.
	APITimeout int `koanf:"api_timeout" validate:"required,gte=1,lte=300"`

	// APIRetries is the number of additional attempts on transient faults.
	APIRetries int `koanf:"api_retries" validate:"gte=0,lte=10"`

	// DataDir holds the audit database and the pause flag file.
	DataDir string `koanf:"data_dir" validate:"required"`

	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`
}

// DEFAULT_APP_CONFIG defines the default application settings. API key
// and profile ID have no defaults and must come from the environment.
var DEFAULT_APP_CONFIG = AppConfig{
	Timezone:    "UTC",
	DomainsFile: "domains.json",
	APITimeout:  10,
	APIRetries:  3,
	DataDir:     "/var/lib/nextdns-blocker",
	Env:         "prod",
	LogLevel:    "info",
}

// Timeout returns the API timeout as a duration.
func (c *AppConfig) Timeout() time.Duration {
	return time.Duration(c.APITimeout) * time.Second
}

// validTimezone validates that the field names a loadable IANA zone.
func validTimezone(fl validator.FieldLevel) bool {
	_, err := time.LoadLocation(fl.Field().String())
	return err == nil
}

// validHTTPURL validates that the field is a well-formed http(s) URL.
func validHTTPURL(fl validator.FieldLevel) bool {
	return validate.URL(fl.Field().String())
}

// envLoader loads environment variables with the prefix "NDB_",
// lowercasing keys and trimming the prefix. It can be replaced in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "NDB_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "NDB_"))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads default configuration values using the structs
// provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidations registers the custom validators used by AppConfig.
var registerValidations = func(v *validator.Validate) error {
	if err := v.RegisterValidation("timezone_name", validTimezone); err != nil {
		return err
	}
	return v.RegisterValidation("http_url_strict", validHTTPURL)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validatorInst := validator.New(validator.WithRequiredStructEnabled())
	err = registerValidations(validatorInst)
	if err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	err = validatorInst.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
