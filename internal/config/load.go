package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"
	"github.com/specialistvlad/nicauth/internal/ctxlog"
	"github.com/specialistvlad/nicauth/internal/form"
)

// Sources says where configuration is read from.
type Sources struct {
	// File is an HCL config file. Empty skips it.
	File string
	// FileOptional tolerates a missing File.
	FileOptional bool
	// EnvFile is a dotenv file loaded into the process environment. A
	// missing file is ignored.
	EnvFile string
	// LookupEnv reads environment variables. Nil means os.LookupEnv.
	LookupEnv func(key string) (string, bool)
	// Overrides are applied last.
	Overrides Overrides
}

// fileRoot mirrors the top-level blocks of a config file.
type fileRoot struct {
	Server       *serverBlock       `hcl:"server,block"`
	Storage      *storageBlock      `hcl:"storage,block"`
	Registration *registrationBlock `hcl:"registration,block"`
}

type serverBlock struct {
	BaseURL *string `hcl:"base_url,optional"`
	Timeout *string `hcl:"timeout,optional"`
}

type storageBlock struct {
	Backend   *string `hcl:"backend,optional"`
	Path      *string `hcl:"path,optional"`
	Key       *string `hcl:"key,optional"`
	RedisAddr *string `hcl:"redis_addr,optional"`
	RedisDB   *int    `hcl:"redis_db,optional"`
	Prefix    *string `hcl:"redis_prefix,optional"`
}

type registrationBlock struct {
	Identity   *string `hcl:"identity,optional"`
	CollectNIC *bool   `hcl:"collect_nic,optional"`
}

// Load resolves the configuration from src and validates it.
func Load(ctx context.Context, src Sources) (*Config, error) {
	logger := ctxlog.FromContext(ctx)
	lookup := src.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if src.EnvFile != "" {
		if err := godotenv.Load(src.EnvFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to load env file %s: %w", src.EnvFile, err)
			}
		} else {
			logger.Debug("Loaded env file.", "path", src.EnvFile)
		}
	}

	cfg := Default()

	if src.File != "" {
		root, err := parseFile(src.File, lookup)
		switch {
		case err == nil:
			if err := root.apply(cfg); err != nil {
				return nil, fmt.Errorf("invalid config file %s: %w", src.File, err)
			}
			logger.Debug("Config file applied.", "path", src.File)
		case src.FileOptional && errors.Is(err, fs.ErrNotExist):
			logger.Debug("No config file found, using defaults.", "path", src.File)
		default:
			return nil, err
		}
	}

	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	src.Overrides.Apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Debug("Configuration resolved.", "base_url", cfg.BaseURL, "storage", cfg.Storage.Backend, "identity", cfg.Registration.Identity)
	return cfg, nil
}

func parseFile(path string, lookup func(string) (string, bool)) (*fileRoot, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, evalContext(lookup), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}
	return &root, nil
}

func evalContext(lookup func(string) (string, bool)) *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: functions(lookup),
	}
}

func (r *fileRoot) apply(cfg *Config) error {
	if s := r.Server; s != nil {
		if s.BaseURL != nil {
			cfg.BaseURL = *s.BaseURL
		}
		if s.Timeout != nil {
			d, err := time.ParseDuration(*s.Timeout)
			if err != nil {
				return fmt.Errorf("server.timeout: %w", err)
			}
			cfg.Timeout = d
		}
	}
	if s := r.Storage; s != nil {
		if s.Backend != nil {
			cfg.Storage.Backend = *s.Backend
		}
		if s.Path != nil {
			cfg.Storage.Path = *s.Path
		}
		if s.Key != nil {
			cfg.TokenKey = *s.Key
		}
		if s.RedisAddr != nil {
			cfg.Storage.RedisAddr = *s.RedisAddr
		}
		if s.RedisDB != nil {
			cfg.Storage.RedisDB = *s.RedisDB
		}
		if s.Prefix != nil {
			cfg.Storage.Prefix = *s.Prefix
		}
	}
	if reg := r.Registration; reg != nil {
		if reg.Identity != nil {
			cfg.Registration.Identity = form.Identity(*reg.Identity)
		}
		if reg.CollectNIC != nil {
			cfg.Registration.CollectNIC = *reg.CollectNIC
		}
	}
	return nil
}

// Environment variables read by applyEnv.
const (
	EnvServer           = "NICAUTH_SERVER"
	EnvTimeout          = "NICAUTH_TIMEOUT"
	EnvStorage          = "NICAUTH_STORAGE"
	EnvStoragePath      = "NICAUTH_STORAGE_PATH"
	EnvRedisAddr        = "NICAUTH_REDIS_ADDR"
	EnvTokenKey         = "NICAUTH_TOKEN_KEY"
	EnvRegisterIdentity = "NICAUTH_REGISTER_IDENTITY"
	EnvRegisterNIC      = "NICAUTH_REGISTER_NIC"
)

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		return v, ok && v != ""
	}

	if v, ok := get(EnvServer); ok {
		cfg.BaseURL = v
	}
	if v, ok := get(EnvTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		cfg.Timeout = d
	}
	if v, ok := get(EnvStorage); ok {
		cfg.Storage.Backend = v
	}
	if v, ok := get(EnvStoragePath); ok {
		cfg.Storage.Path = v
	}
	if v, ok := get(EnvRedisAddr); ok {
		cfg.Storage.RedisAddr = v
	}
	if v, ok := get(EnvTokenKey); ok {
		cfg.TokenKey = v
	}
	if v, ok := get(EnvRegisterIdentity); ok {
		cfg.Registration.Identity = form.Identity(v)
	}
	if v, ok := get(EnvRegisterNIC); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRegisterNIC, err)
		}
		cfg.Registration.CollectNIC = b
	}
	return nil
}
