package app

import (
	"fmt"

	"github.com/specialistvlad/nicauth/internal/config"
)

// Commands understood by Run.
const (
	CommandUI       = "ui"
	CommandLogin    = "login"
	CommandRegister = "register"
	CommandToken    = "token"
	CommandLogout   = "logout"
)

// Config holds everything an App instance needs to run: which command to
// execute, where its settings come from, and the values typed on the command
// line for one-shot commands.
type Config struct {
	Command string

	ConfigFile     string
	ConfigOptional bool
	EnvFile        string
	Overrides      config.Overrides

	LogFormat string
	LogLevel  string
	// LogFile receives logs while the terminal UI owns the screen.
	LogFile string

	Input Input
}

// Input carries form values for the login and register commands.
type Input struct {
	Username string
	Email    string
	Password string
	Confirm  string
	NIC      string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.Command == "" {
		cfg.Command = CommandUI
	}
	switch cfg.Command {
	case CommandUI, CommandLogin, CommandRegister, CommandToken, CommandLogout:
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}
	return &cfg, nil
}
