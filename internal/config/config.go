// Package config is used to configure the application settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Account - a user allowed to sign in to the admin page.
type Account struct {
	// Name: login name.
	Name string `json:"name" yaml:"name"`
	// Token: secret the user signs in with.
	Token string `json:"token" yaml:"token"`
	// Capabilities: WordPress-style capabilities, e.g. "manage_options".
	Capabilities []string `json:"capabilities" yaml:"capabilities"`
}

// Config - application configuration structure.
type Config struct {
	// Addr: address the HTTP server listens on (e.g., "localhost:8080").
	Addr string `json:"server_address" yaml:"server_address" envconfig:"SERVER_ADDRESS"`
	// DBDriver: database/sql driver, one of "mysql", "pgx" or "sqlite".
	DBDriver string `json:"database_driver" yaml:"database_driver" envconfig:"DATABASE_DRIVER"`
	// DBConnection: database connection string. Empty means an in-memory store.
	DBConnection string `json:"database_dsn" yaml:"database_dsn" envconfig:"DATABASE_DSN"`
	// TablePrefix: WordPress $table_prefix.
	TablePrefix string `json:"table_prefix" yaml:"table_prefix" envconfig:"TABLE_PREFIX"`
	// AutoMigrate: create the posts and options tables on startup.
	AutoMigrate bool `json:"auto_migrate" yaml:"auto_migrate" envconfig:"AUTO_MIGRATE"`
	// Revisions: keep a revision of posts and pages before updating them.
	Revisions bool `json:"revisions" yaml:"revisions" envconfig:"POST_REVISIONS"`
	// PostTypes: extra post types searched for URLs.
	PostTypes []string `json:"post_types" yaml:"post_types" envconfig:"POST_TYPES"`
	// SkipUnchanged: do not store posts and attachments the relocation leaves as is.
	SkipUnchanged bool `json:"skip_unchanged" yaml:"skip_unchanged" envconfig:"SKIP_UNCHANGED"`
	// RelocateMode: anyone may relocate and the old URL can be edited
	// (the RELOCATE constant of wp-config.php).
	RelocateMode bool `json:"relocate" yaml:"relocate" envconfig:"RELOCATE"`
	// AdminToken: token of the built-in "admin" account. Empty disables it.
	AdminToken string `json:"admin_token" yaml:"admin_token" envconfig:"ADMIN_TOKEN"`
	// Accounts: additional accounts, from the config file only.
	Accounts []Account `json:"accounts" yaml:"accounts" ignored:"true"`
	// CookieHashKey, CookieBlockKey: session cookie keys. Random when empty.
	CookieHashKey  string `json:"cookie_hash_key" yaml:"cookie_hash_key" envconfig:"COOKIE_HASH_KEY"`
	CookieBlockKey string `json:"cookie_block_key" yaml:"cookie_block_key" envconfig:"COOKIE_BLOCK_KEY"`
	// JournalPath: JSON-lines file receiving every change. Empty disables it.
	JournalPath string `json:"journal_path" yaml:"journal_path" envconfig:"JOURNAL_PATH"`
	// LogLevel: debug, info, warn or error.
	LogLevel string `json:"log_level" yaml:"log_level" envconfig:"LOG_LEVEL"`
	// Timeout: request processing timeout in seconds.
	Timeout int `json:"timeout" yaml:"timeout" envconfig:"TIMEOUT"`
	// ConfigPath: path to configuration file (json or yaml).
	ConfigPath string `json:"-" yaml:"-" envconfig:"CONFIG"`
	// EnvFile: dotenv file loaded before the environment is read.
	EnvFile string `json:"-" yaml:"-" ignored:"true"`
}

var cfgDefault = Config{
	Addr:        "localhost:8080",
	DBDriver:    "sqlite",
	TablePrefix: "wp_",
	Revisions:   true,
	LogLevel:    "info",
	Timeout:     300,
	EnvFile:     ".env",
}

// NewConfig creates and returns a new instance of the Config structure with predefined values.
func NewConfig() *Config {
	c := cfgDefault
	return &c
}

// ErrReadConfig - error reading config file.
var ErrReadConfig = errors.New("reading config")

// ErrParseConfig - error parsing config file or environment.
var ErrParseConfig = errors.New("parse config")

// Flag names shared by every command.
const (
	FlagAddr        = "address"
	FlagDriver      = "database-driver"
	FlagDSN         = "database-dsn"
	FlagTablePrefix = "table-prefix"
	FlagConfig      = "config"
	FlagEnvFile     = "env-file"
	FlagJournal     = "journal"
	FlagLogLevel    = "log-level"
	FlagRelocate    = "relocate-mode"
	FlagMigrate     = "auto-migrate"
)

// BindFlags registers the command-line overrides on flags.
func BindFlags(flags *pflag.FlagSet) {
	flags.StringP(FlagAddr, "a", "", "HTTP-server startup address")
	flags.String(FlagDriver, "", "database driver: mysql, pgx or sqlite")
	flags.StringP(FlagDSN, "d", "", "database connection string")
	flags.String(FlagTablePrefix, "", "WordPress table prefix")
	flags.StringP(FlagConfig, "c", "", "path to config file (json or yaml)")
	flags.String(FlagEnvFile, "", "dotenv file to load (default .env)")
	flags.String(FlagJournal, "", "append every change to this JSON-lines file")
	flags.String(FlagLogLevel, "", "log level: debug, info, warn, error")
	flags.Bool(FlagRelocate, false, "allow relocation without signing in")
	flags.Bool(FlagMigrate, false, "create the WordPress tables if missing")
}

// Init fills c from, in increasing priority: the dotenv file, the
// environment, the config file and the flags that were set.
// flags may be nil.
func Init(c *Config, flags *pflag.FlagSet) error {
	envFile, explicit := c.EnvFile, false
	if v := stringFlag(flags, FlagEnvFile); v != "" {
		envFile, explicit = v, true
	}
	if envFile != "" {
		err := godotenv.Load(envFile)
		if err != nil && (explicit || !errors.Is(err, fs.ErrNotExist)) {
			return fmt.Errorf("%w: %s: %v", ErrReadConfig, envFile, err)
		}
	}

	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("%w: %v", ErrParseConfig, err)
	}

	if v := stringFlag(flags, FlagConfig); v != "" {
		c.ConfigPath = v
	}
	if c.ConfigPath != "" {
		if err := readFile(c.ConfigPath, c); err != nil {
			return err
		}
	}

	// override
	if v := stringFlag(flags, FlagAddr); v != "" {
		c.Addr = v
	}
	if v := stringFlag(flags, FlagDriver); v != "" {
		c.DBDriver = v
	}
	if v := stringFlag(flags, FlagDSN); v != "" {
		c.DBConnection = v
	}
	if flags != nil && flags.Changed(FlagTablePrefix) {
		c.TablePrefix, _ = flags.GetString(FlagTablePrefix)
	}
	if v := stringFlag(flags, FlagJournal); v != "" {
		c.JournalPath = v
	}
	if v := stringFlag(flags, FlagLogLevel); v != "" {
		c.LogLevel = v
	}
	if boolFlag(flags, FlagRelocate) {
		c.RelocateMode = true
	}
	if boolFlag(flags, FlagMigrate) {
		c.AutoMigrate = true
	}

	return nil
}

// readFile decodes a JSON or YAML file, chosen by extension, over c.
func readFile(path string, c *Config) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadConfig, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(file, c)
	default:
		err = json.Unmarshal(file, c)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrParseConfig, path, err)
	}
	return nil
}

// AllAccounts returns the configured accounts plus the built-in admin.
func (c *Config) AllAccounts() []Account {
	accounts := append([]Account(nil), c.Accounts...)
	if c.AdminToken != "" {
		accounts = append(accounts, Account{
			Name:         "admin",
			Token:        c.AdminToken,
			Capabilities: []string{"manage_options"},
		})
	}
	return accounts
}

func stringFlag(flags *pflag.FlagSet, name string) string {
	if flags == nil || !flags.Changed(name) {
		return ""
	}
	v, _ := flags.GetString(name)
	return v
}

func boolFlag(flags *pflag.FlagSet, name string) bool {
	if flags == nil || !flags.Changed(name) {
		return false
	}
	v, _ := flags.GetBool(name)
	return v
}
