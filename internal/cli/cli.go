package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/nicauth/internal/app"
	"github.com/specialistvlad/nicauth/internal/config"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Options may appear both before and after the command name.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("nicauth", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
nicauth - Sign in to a NIC-verified account from the terminal.

Usage:
  nicauth [options] [COMMAND] [options]

Commands:
  ui        Interactive login/registration screens (default).
  login     Log in once with -username, -password and -nic.
  register  Create an account with -email (or -username), -password, -confirm.
  token     Show the stored session token.
  logout    Forget the stored session token.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to an HCL config file. Defaults to "+config.DefaultFile+" when present.")
	envFileFlag := flagSet.String("env-file", config.DefaultEnvFile, "Path to a dotenv file loaded before the environment is read.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFileFlag := flagSet.String("log-file", "~/.nicauth/nicauth.log", "Where the interactive UI writes its logs.")

	serverFlag := flagSet.String("server", "", "Base URL of the authentication API.")
	timeoutFlag := flagSet.Duration("timeout", 0, "Per-request timeout. 0 waits indefinitely.")
	storageFlag := flagSet.String("storage", "", "Token storage backend. Options: 'file', 'redis', 'memory'.")
	storagePathFlag := flagSet.String("storage-path", "", "Token file for the 'file' backend.")
	redisAddrFlag := flagSet.String("redis-addr", "", "Address of the Redis server for the 'redis' backend.")
	tokenKeyFlag := flagSet.String("token-key", "", "Storage key the session token is saved under.")
	identityFlag := flagSet.String("identity", "", "Registration identity field. Options: 'email' or 'username'.")
	collectNICFlag := flagSet.Bool("collect-nic", false, "Ask for a NIC number during registration.")

	usernameFlag := flagSet.String("username", "", "Username (login, register).")
	emailFlag := flagSet.String("email", "", "Email address (register).")
	passwordFlag := flagSet.String("password", "", "Password (login, register).")
	confirmFlag := flagSet.String("confirm", "", "Password confirmation (register).")
	nicFlag := flagSet.String("nic", "", "NIC number (login, register).")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	command := ""
	if flagSet.NArg() > 0 {
		command = flagSet.Arg(0)
		if err := flagSet.Parse(flagSet.Args()[1:]); err != nil {
			if err == flag.ErrHelp {
				return nil, true, nil
			}
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		if flagSet.NArg() > 0 {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected argument %q", flagSet.Arg(0))}
		}
	}
	slog.Debug("Arguments parsed successfully.", "command", command)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	// Only flags given explicitly override the config file and environment.
	var overrides config.Overrides
	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "server":
			overrides.BaseURL = serverFlag
		case "timeout":
			overrides.Timeout = timeoutFlag
		case "storage":
			overrides.Storage = storageFlag
		case "storage-path":
			overrides.StoragePath = storagePathFlag
		case "redis-addr":
			overrides.RedisAddr = redisAddrFlag
		case "token-key":
			overrides.TokenKey = tokenKeyFlag
		case "identity":
			overrides.Identity = identityFlag
		case "collect-nic":
			overrides.CollectNIC = collectNICFlag
		}
	})
	if overrides.Timeout != nil && *overrides.Timeout < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid timeout: must not be negative"}
	}
	slog.Debug("CLI parameter validation complete.")

	configFile, configOptional := *configFlag, false
	if configFile == "" {
		configFile, configOptional = config.DefaultFile, true
	}

	cfg, err := app.NewConfig(app.Config{
		Command:        command,
		ConfigFile:     configFile,
		ConfigOptional: configOptional,
		EnvFile:        *envFileFlag,
		Overrides:      overrides,
		LogFormat:      logFormat,
		LogLevel:       logLevel,
		LogFile:        *logFileFlag,
		Input: app.Input{
			Username: *usernameFlag,
			Email:    *emailFlag,
			Password: *passwordFlag,
			Confirm:  *confirmFlag,
			NIC:      *nicFlag,
		},
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "command", cfg.Command)
	return cfg, false, nil
}
