package config

import (
	"bytes"
	"strings"
	"testing"

	"httprequests/application/http"
	"httprequests/application/http/actor/client"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/multierr"
)

type ConfigTestSuite struct {
	suite.Suite

	v *viper.Viper
}

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) SetupTest() {
	s.v = viper.New()
}

func (s *ConfigTestSuite) yaml(v string) {
	s.v.SetConfigType("yaml")
	s.Require().NoError(s.v.ReadConfig(strings.NewReader(v)))
}

func (s *ConfigTestSuite) TestDefaults() {
	cfg, err := Load(s.v)
	s.Require().NoError(err)

	s.Equal(Config{
		MaxRedirects: 3,
		DefaultPort:  80,
		UserAgent:    "httpreq/1.0",
		Log:          Log{Level: "info", Format: FormatText},
	}, cfg)

	s.Equal(client.Options{
		MaxRedirects: 3,
		DefaultPort:  80,
		Encode:       http.EncodeOptions{UserAgent: "httpreq/1.0"},
	}, cfg.ClientOptions())
}

func (s *ConfigTestSuite) TestFile() {
	s.yaml(`
maxRedirects: 5
defaultPort: 8080
userAgent: test-agent
allowSoleLF: true
maxLineLength: 4096
log:
  level: debug
  format: json
`)

	cfg, err := Load(s.v)
	s.Require().NoError(err)

	opts := cfg.ClientOptions()
	s.Equal(uint(5), opts.MaxRedirects)
	s.Equal(uint16(8080), opts.DefaultPort)
	s.Equal("test-agent", opts.Encode.UserAgent)
	s.True(opts.Decode.AllowSoleLF)
	s.Equal(uint(4096), opts.Decode.MaxLineLength)
	s.Equal(Log{Level: "debug", Format: FormatJSON}, cfg.Log)
}

func (s *ConfigTestSuite) TestEnv() {
	s.T().Setenv("HTTPREQ_MAXREDIRECTS", "7")
	s.T().Setenv("HTTPREQ_LOG_LEVEL", "warn")

	cfg, err := Load(s.v)
	s.Require().NoError(err)

	s.Equal(uint(7), cfg.MaxRedirects)
	s.Equal("warn", cfg.Log.Level)
}

func (s *ConfigTestSuite) TestUnknownKey() {
	s.yaml(`
maxRedirect: 5
`)

	_, err := Load(s.v)
	s.ErrorContains(err, "maxredirect")
}

func (s *ConfigTestSuite) TestInvalid() {
	s.yaml(`
defaultPort: 0
log:
  level: loud
  format: xml
`)

	_, err := Load(s.v)
	s.ErrorIs(err, ErrInvalidConfig)
	s.Len(multierr.Errors(err), 3)
}

func TestLogger(t *testing.T) {
	testcases := []struct {
		desc     string
		log      Log
		expected string
		dropped  bool
	}{
		{desc: "text", log: Log{Level: "info", Format: FormatText}, expected: "level=INFO msg=hello"},
		{desc: "json", log: Log{Level: "debug", Format: FormatJSON}, expected: `"msg":"hello"`},
		{desc: "filtered by level", log: Log{Level: "error", Format: FormatText}, dropped: true},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			buf := bytes.NewBuffer(nil)
			cfg := Config{DefaultPort: 80, Log: tc.log}
			require.NoError(t, cfg.Validate())

			cfg.Logger(buf).Info("hello")

			if tc.dropped {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tc.expected)
		})
	}
}
