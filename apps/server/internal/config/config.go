package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"

	"holdem-live/holdem"
)

// ServerConfig is the decoded holdem.hcl file.
type ServerConfig struct {
	Server    *ServerSettings   `hcl:"server,block"`
	Ledger    *LedgerSettings   `hcl:"ledger,block"`
	Snapshots *SnapshotSettings `hcl:"snapshots,block"`
	Tables    []TableConfig     `hcl:"table,block"`
}

type ServerSettings struct {
	Address   string `hcl:"address,optional"`
	Port      int    `hcl:"port,optional"`
	LogLevel  string `hcl:"log_level,optional"`
	AuthMode  string `hcl:"auth_mode,optional"`
	JWTIssuer string `hcl:"jwt_issuer,optional"`
	// JWTSecret is normally supplied through HOLDEM_JWT_SECRET.
	JWTSecret string `hcl:"jwt_secret,optional"`
}

type LedgerSettings struct {
	Mode            string `hcl:"mode,optional"`
	Path            string `hcl:"path,optional"`
	DSN             string `hcl:"dsn,optional"`
	StartingBalance int64  `hcl:"starting_balance,optional"`
}

type SnapshotSettings struct {
	Mode      string `hcl:"mode,optional"`
	Path      string `hcl:"path,optional"`
	RedisURL  string `hcl:"redis_url,optional"`
	KeyPrefix string `hcl:"key_prefix,optional"`
}

// TableConfig is one `table "id" { ... }` block.
type TableConfig struct {
	ID           string  `hcl:"id,label"`
	GameType     string  `hcl:"game_type,optional"`
	MaxPlayers   int     `hcl:"max_players,optional"`
	BuyIn        int64   `hcl:"buy_in"`
	SmallBlind   int64   `hcl:"small_blind"`
	BigBlind     int64   `hcl:"big_blind"`
	MinimumBet   int64   `hcl:"minimum_bet,optional"`
	TableFeeRate float64 `hcl:"table_fee_rate,optional"`
}

// Engine converts the block into the engine configuration.
func (tc TableConfig) Engine() (holdem.Config, error) {
	gt, err := holdem.ParseGameType(tc.GameType)
	if err != nil {
		return holdem.Config{}, fmt.Errorf("table %s: %w", tc.ID, err)
	}
	return holdem.Config{
		MaxPlayers:   tc.MaxPlayers,
		GameType:     gt,
		BuyIn:        tc.BuyIn,
		SmallBlind:   tc.SmallBlind,
		BigBlind:     tc.BigBlind,
		MinimumBet:   tc.MinimumBet,
		TableFeeRate: tc.TableFeeRate,
	}, nil
}

func Default() *ServerConfig {
	// 无配置文件时按本地开发模式运行
	cfg := &ServerConfig{
		Server: &ServerSettings{AuthMode: "dev"},
		Tables: []TableConfig{
			{ID: "main", BuyIn: 1000, SmallBlind: 5, BigBlind: 10},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads an HCL file. A missing file yields the defaults.
func Load(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Parse(src, filename)
}

func Parse(src []byte, filename string) (*ServerConfig, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *ServerConfig) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.AuthMode == "" {
		c.Server.AuthMode = "jwt"
	}

	if c.Ledger == nil {
		c.Ledger = &LedgerSettings{}
	}
	if c.Ledger.Mode == "" {
		c.Ledger.Mode = "sqlite"
	}
	if c.Snapshots == nil {
		c.Snapshots = &SnapshotSettings{}
	}
	if c.Snapshots.Mode == "" {
		c.Snapshots.Mode = "sqlite"
	}
	if c.Snapshots.Mode == "sqlite" && c.Snapshots.Path == "" {
		c.Snapshots.Path = "data/snapshots.db"
	}

	for i := range c.Tables {
		t := &c.Tables[i]
		if t.GameType == "" {
			t.GameType = "holdem"
		}
		if t.MaxPlayers == 0 {
			t.MaxPlayers = 9
		}
		if t.MinimumBet == 0 {
			t.MinimumBet = t.BigBlind
		}
		if t.TableFeeRate == 0 {
			t.TableFeeRate = holdem.DefaultTableFeeRate
		}
	}
}

// ApplyEnv overrides secrets and connection strings from the environment.
func (c *ServerConfig) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("HOLDEM_JWT_SECRET"); ok && v != "" {
		c.Server.JWTSecret = v
	}
	if v, ok := lookup("HOLDEM_AUTH_MODE"); ok && v != "" {
		c.Server.AuthMode = v
	}
	if v, ok := lookup("LEDGER_DSN"); ok && v != "" {
		c.Ledger.DSN = v
	}
	if v, ok := lookup("SNAPSHOT_REDIS_URL"); ok && v != "" {
		c.Snapshots.RedisURL = v
	}
}

// LoadDotEnv loads .env style files into the process environment. Missing
// files are skipped; existing variables win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if len(c.Tables) == 0 {
		return fmt.Errorf("at least one table must be configured")
	}

	seen := make(map[string]bool, len(c.Tables))
	for _, t := range c.Tables {
		if strings.TrimSpace(t.ID) == "" {
			return fmt.Errorf("table with empty id")
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate table %q", t.ID)
		}
		seen[t.ID] = true
		ec, err := t.Engine()
		if err != nil {
			return err
		}
		if err := ec.Validate(); err != nil {
			return fmt.Errorf("table %s: %w", t.ID, err)
		}
	}

	switch c.Ledger.Mode {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid ledger mode %q", c.Ledger.Mode)
	}
	switch c.Snapshots.Mode {
	case "memory", "sqlite":
	case "redis":
		if c.Snapshots.RedisURL == "" {
			return fmt.Errorf("snapshots mode redis needs redis_url or SNAPSHOT_REDIS_URL")
		}
	default:
		return fmt.Errorf("invalid snapshots mode %q", c.Snapshots.Mode)
	}
	if c.Server.AuthMode == "jwt" && c.Server.JWTSecret == "" {
		return fmt.Errorf("auth_mode jwt needs HOLDEM_JWT_SECRET")
	}
	return nil
}

func (c *ServerConfig) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
