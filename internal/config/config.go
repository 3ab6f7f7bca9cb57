// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file
// when one exists), loads them into structured Go types, and validates
// that required values are present before anything touches the database.
//
// Responsibilities:
//   - Load defaults, then environment variables on top of them.
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the program fails fast on bad/missing config.
//   - Provide sane defaults for optional config blocks (e.g. observability).
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	// Side-effect import: if a `.env` file exists, it gets loaded into the
	// process env before any of the code below reads env vars.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read using the prefix CRUDDEMO_. Keys are normalized
	(prefix removed, lowercased) and nested with "." as the delimiter.

	Because most shells refuse "." in variable names, a double underscore
	is accepted as the nesting separator too:

	  CRUDDEMO_DATABASE__HOST -> database.host -> Config.Database.Host
	  CRUDDEMO_DATABASE.HOST  -> database.host (works from a .env file)
*/

// EnvPrefix is the prefix every configuration variable must carry.
const EnvPrefix = "CRUDDEMO_"

// Config is the root configuration object for the program.
//
// Observability is a pointer because it is optional. If not provided,
// defaults are injected in LoadConfig.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Demo          DemoConfig           `koanf:"demo" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
// It switches behavior such as SQL trace logging ("local" only).
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
//
// The lifetime/idle values are seconds.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required,min=1,max=65535"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required,oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"min=0"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"min=0"`

	// Migrate applies the embedded schema migrations at start-up.
	Migrate bool `koanf:"migrate"`
}

// DSN returns the postgres URL for this configuration.
//
// The host is joined with net.JoinHostPort so IPv6 addresses get brackets,
// and the credentials go through url.UserPassword so characters like ' ',
// '+', ':' or '@' reach the server unchanged.
func (c DatabaseConfig) DSN() string {
	userInfo := url.User(c.User)
	if c.Password != "" {
		userInfo = url.UserPassword(c.User, c.Password)
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return dsn.String()
}

// DemoConfig selects which demonstrations run, in order.
type DemoConfig struct {
	Examples []string `koanf:"examples" validate:"required,min=1,dive,oneof=seed_database create_user_with_relations find_unique_user find_all_users update_user update_many_users update_many_and_return_users"`
}

// defaults mirror a stock local PostgreSQL install and the demonstrations
// that are switched on out of the box.
func defaults() map[string]any {
	return map[string]any{
		"primary.env":                 "local",
		"database.host":               "localhost",
		"database.port":               5432,
		"database.user":               "postgres",
		"database.password":           "postgres",
		"database.name":               "postgres",
		"database.ssl_mode":           "disable",
		"database.max_open_conns":     4,
		"database.max_idle_conns":     1,
		"database.conn_max_lifetime":  300,
		"database.conn_max_idle_time": 60,
		"database.migrate":            true,
		"demo.examples":               []string{"seed_database", "update_user"},

		"observability.logging.level":                         "info",
		"observability.logging.format":                        "console",
		"observability.logging.slow_query_threshold":          "200ms",
		"observability.new_relic.app_log_forwarding_enabled":  true,
		"observability.new_relic.distributed_tracing_enabled": true,
		"observability.new_relic.debug_logging":               false,
	}
}

// envKey turns CRUDDEMO_DATABASE__SSL_MODE into database.ssl_mode.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// LoadConfig loads configuration from defaults and environment variables,
// unmarshals it into Config, validates it, applies observability defaults,
// and returns the resulting config.
func LoadConfig() (*Config, error) {
	// The "." is the key-path delimiter koanf uses to represent nesting.
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("could not load default config: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{}

	// Unmarshal from the root. Comma separated env values decode into
	// slices, "200ms" into time.Duration, numeric strings into ints.
	err := k.UnmarshalWithConf("", mainConfig, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           mainConfig,
			WeaklyTypedInput: true,
			TagName:          "koanf",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name and environment are not user-configurable.
	mainConfig.Observability.ServiceName = "crud-demo"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}
