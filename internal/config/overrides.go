package config

import (
	"time"

	"github.com/specialistvlad/nicauth/internal/form"
)

// Overrides holds values set explicitly on the command line. Nil fields leave
// the lower layers untouched.
type Overrides struct {
	BaseURL     *string
	Timeout     *time.Duration
	Storage     *string
	StoragePath *string
	RedisAddr   *string
	TokenKey    *string
	Identity    *string
	CollectNIC  *bool
}

// Apply copies every non-nil override into cfg.
func (o Overrides) Apply(cfg *Config) {
	if o.BaseURL != nil {
		cfg.BaseURL = *o.BaseURL
	}
	if o.Timeout != nil {
		cfg.Timeout = *o.Timeout
	}
	if o.Storage != nil {
		cfg.Storage.Backend = *o.Storage
	}
	if o.StoragePath != nil {
		cfg.Storage.Path = *o.StoragePath
	}
	if o.RedisAddr != nil {
		cfg.Storage.RedisAddr = *o.RedisAddr
	}
	if o.TokenKey != nil {
		cfg.TokenKey = *o.TokenKey
	}
	if o.Identity != nil {
		cfg.Registration.Identity = form.Identity(*o.Identity)
	}
	if o.CollectNIC != nil {
		cfg.Registration.CollectNIC = *o.CollectNIC
	}
}
