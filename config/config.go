// Package config loads the settings of the command line client through viper.
package config

import (
	"io"
	"log/slog"
	"strings"

	"httprequests/application/http"
	"httprequests/application/http/actor/client"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

const EnvPrefix = "HTTPREQ"

const (
	FormatText = "text"
	FormatJSON = "json"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	MaxRedirects  uint   `mapstructure:"maxRedirects"`
	DefaultPort   uint16 `mapstructure:"defaultPort"`
	UserAgent     string `mapstructure:"userAgent"`
	AllowSoleLF   bool   `mapstructure:"allowSoleLF"`
	MaxLineLength uint   `mapstructure:"maxLineLength"`

	Log Log `mapstructure:"log"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every key, which also lets environment variables override them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("maxRedirects", client.DefaultOptions.MaxRedirects)
	v.SetDefault("defaultPort", client.DefaultOptions.DefaultPort)
	v.SetDefault("userAgent", "httpreq/1.0")
	v.SetDefault("allowSoleLF", false)
	v.SetDefault("maxLineLength", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", FormatText)
}

// exact fails the decoding on keys that no field takes.
func exact(dc *mapstructure.DecoderConfig) {
	dc.ErrorUnused = true
}

// Load reads v into a validated Config.
// Keys can be overridden by HTTPREQ_ environment variables, e.g. HTTPREQ_LOG_LEVEL.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg, exact); err != nil {
		return Config{}, errors.Wrap(err, "unmarshalling configuration")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var err error

	if c.DefaultPort == 0 {
		err = multierr.Append(err, errors.Wrap(ErrInvalidConfig, "defaultPort must not be 0"))
	}

	if _, lerr := parseLevel(c.Log.Level); lerr != nil {
		err = multierr.Append(err, lerr)
	}

	switch c.Log.Format {
	case FormatText, FormatJSON:
	default:
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfig, "unknown log format %q", c.Log.Format))
	}

	return err
}

func (c Config) ClientOptions() client.Options {
	return client.Options{
		MaxRedirects: c.MaxRedirects,
		DefaultPort:  c.DefaultPort,
		Encode: http.EncodeOptions{
			UserAgent: c.UserAgent,
		},
		Decode: http.DecodeOptions{
			AllowSoleLF:   c.AllowSoleLF,
			MaxLineLength: c.MaxLineLength,
		},
	}
}

// Logger writes to w in the configured format. Call it on a validated Config.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}

	if c.Log.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.Wrapf(ErrInvalidConfig, "unknown log level %q", s)
	}
	return level, nil
}
