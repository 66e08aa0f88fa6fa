package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/blackjackroom/internal/game"
)

// Config represents the complete room configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Table  TableSettings  `hcl:"table,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address     string `hcl:"address,optional"`
	Port        int    `hcl:"port,optional"`
	LogLevel    string `hcl:"log_level,optional"`
	AdminSecret string `hcl:"admin_secret,optional"`
}

// TableSettings tunes the blackjack table itself.
type TableSettings struct {
	LobbySeconds    int   `hcl:"lobby_seconds,optional"`
	StartingBalance int   `hcl:"starting_balance,optional"`
	DealDelayMs     int   `hcl:"deal_delay_ms,optional"`
	DealerDelayMs   int   `hcl:"dealer_delay_ms,optional"`
	Seed            int64 `hcl:"seed,optional"`
}

// DefaultConfig returns the configuration of the original room: 15 second
// lobby, 500 starting chips, short dealing pauses.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Table: TableSettings{
			LobbySeconds:    15,
			StartingBalance: 500,
			DealDelayMs:     200,
			DealerDelayMs:   600,
		},
	}
}

// LoadConfig loads room configuration from an HCL file, falling back to the
// defaults when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Table.LobbySeconds == 0 {
		config.Table.LobbySeconds = defaults.Table.LobbySeconds
	}
	if config.Table.StartingBalance == 0 {
		config.Table.StartingBalance = defaults.Table.StartingBalance
	}
	if config.Table.DealDelayMs == 0 {
		config.Table.DealDelayMs = defaults.Table.DealDelayMs
	}
	if config.Table.DealerDelayMs == 0 {
		config.Table.DealerDelayMs = defaults.Table.DealerDelayMs
	}

	return &config, nil
}

// Validate validates the room configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Table.LobbySeconds <= 0 {
		return fmt.Errorf("lobby_seconds must be positive")
	}
	if c.Table.StartingBalance <= 0 {
		return fmt.Errorf("starting_balance must be positive")
	}
	if c.Table.DealDelayMs < 0 || c.Table.DealerDelayMs < 0 {
		return fmt.Errorf("deal delays must not be negative")
	}
	return nil
}

// Addr returns the full listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// Rules converts the table settings into game rules.
func (c *Config) Rules() game.Rules {
	rules := game.DefaultRules()
	rules.LobbyWait = time.Duration(c.Table.LobbySeconds) * time.Second
	rules.DealDelay = time.Duration(c.Table.DealDelayMs) * time.Millisecond
	rules.DealerDrawDelay = time.Duration(c.Table.DealerDelayMs) * time.Millisecond
	return rules
}
