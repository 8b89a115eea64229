// Package config assembles the client configuration from built-in defaults,
// an optional HCL file, a .env file and NICAUTH_* environment variables, in
// that order of increasing precedence. Command-line flags are applied on top
// by the cli package.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/specialistvlad/nicauth/internal/form"
	"github.com/specialistvlad/nicauth/internal/tokenstore"
)

const (
	DefaultBaseURL  = "http://localhost:8080"
	DefaultFile     = "nicauth.hcl"
	DefaultEnvFile  = ".env"
	DefaultIdentity = form.IdentityEmail
)

// Config is the fully resolved client configuration.
type Config struct {
	// BaseURL is the root of the authentication API.
	BaseURL string
	// Timeout bounds each request; zero disables it.
	Timeout time.Duration

	Storage  tokenstore.Options
	TokenKey string

	Registration form.RegisterConfig
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Storage: tokenstore.Options{
			Backend: tokenstore.BackendFile,
			Path:    tokenstore.DefaultPath(),
			Prefix:  tokenstore.DefaultRedisPrefix,
		},
		TokenKey: tokenstore.DefaultKey,
		Registration: form.RegisterConfig{
			Identity: DefaultIdentity,
		},
	}
}

// Validate checks the values that cannot be fixed up silently.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("base URL %q must be an absolute http(s) URL", c.BaseURL))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	switch c.Storage.Backend {
	case tokenstore.BackendFile, tokenstore.BackendRedis, tokenstore.BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("storage backend must be 'file', 'redis' or 'memory', got %q", c.Storage.Backend))
	}
	if c.TokenKey == "" {
		errs = append(errs, errors.New("token key must not be empty"))
	}
	switch c.Registration.Identity {
	case form.IdentityEmail, form.IdentityUsername:
	default:
		errs = append(errs, fmt.Errorf("registration identity must be 'email' or 'username', got %q", c.Registration.Identity))
	}

	return errors.Join(errs...)
}
