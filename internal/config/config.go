// Package config loads kcadmin settings from a YAML file, KCADMIN_*
// environment variables and command-line flags, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fivetwenty-io/kcadmin/internal/constants"
	"github.com/fivetwenty-io/kcadmin/pkg/keycloak"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Settings is the loaded configuration.
type Settings struct {
	Keycloak keycloak.Config `mapstructure:",squash"`

	// Output is the output format: json, yaml or table.
	Output string `mapstructure:"output"`
}

// flag name -> configuration key
var flagKeys = map[string]string{
	"server-url":          "server_url",
	"realm":               "realm",
	"auth-realm":          "authentication_realm",
	"client-id":           "client_id",
	"client-secret":       "client_secret",
	"username":            "username",
	"password":            "password",
	"user-agent":          "user_agent",
	"timeout":             "timeout",
	"debug":               "debug",
	"output":              "output",
	"token-cache":         "token_cache.type",
	"token-cache-address": "token_cache.address",
	"token-cache-bucket":  "token_cache.bucket",
}

// Flags returns a flag set declaring every setting. Flags left unset do not
// override the file or the environment.
func Flags(name string) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)

	flags.StringP("config", "c", "", "config file (default is $HOME/.kcadmin/config.yaml)")
	flags.StringP("server-url", "s", "", "Keycloak server URL")
	flags.StringP("realm", "r", "", "realm to administer")
	flags.String("auth-realm", "", "realm to authenticate against (default is --realm)")
	flags.String("client-id", "admin-cli", "OAuth2 client ID")
	flags.String("client-secret", "", "OAuth2 client secret")
	flags.StringP("username", "u", "", "username for the password grant")
	flags.StringP("password", "p", "", "password for the password grant")
	flags.String("user-agent", constants.DefaultUserAgent, "User-Agent header")
	flags.Duration("timeout", constants.DefaultHTTPTimeout, "HTTP request timeout")
	flags.BoolP("debug", "d", false, "log HTTP requests")
	flags.StringP("output", "o", constants.FormatTable, "output format (table, json, yaml)")
	flags.String("token-cache", "", "token cache backend (memory, redis, nats)")
	flags.String("token-cache-address", "", "Redis address or NATS URL of the token cache")
	flags.String("token-cache-bucket", "", "NATS key-value bucket of the token cache")

	return flags
}

// Load reads the settings. flags may be nil; when set, its "config" flag
// names the config file.
func Load(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	setDefaults(v)

	err := bindFlags(v, flags)
	if err != nil {
		return nil, err
	}

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	err = readConfigFile(v, configFile(flags))
	if err != nil {
		return nil, err
	}

	var settings Settings

	err = v.Unmarshal(&settings)
	if err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if !slices.Contains([]string{constants.FormatJSON, constants.FormatYAML, constants.FormatTable}, settings.Output) {
		return nil, fmt.Errorf("%w: %q", constants.ErrUnknownOutputFormat, settings.Output)
	}

	return &settings, nil
}

// Every key needs a default for AutomaticEnv to reach it during Unmarshal.
func setDefaults(v *viper.Viper) {
	for _, key := range flagKeys {
		v.SetDefault(key, "")
	}

	v.SetDefault("client_id", "admin-cli")
	v.SetDefault("user_agent", constants.DefaultUserAgent)
	v.SetDefault("timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("refresh_timeout", constants.TokenExpirationBuffer)
	v.SetDefault("debug", false)
	v.SetDefault("output", constants.FormatTable)
	v.SetDefault("token_cache.username", "")
	v.SetDefault("token_cache.password", "")
	v.SetDefault("token_cache.db", 0)
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}

	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}

		err := v.BindPFlag(key, flag)
		if err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	return nil
}

func configFile(flags *pflag.FlagSet) string {
	if flags == nil {
		return ""
	}

	path, err := flags.GetString("config")
	if err != nil {
		return ""
	}

	return path
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)

		err := v.ReadInConfig()
		if err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		return nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		v.AddConfigPath(filepath.Join(home, constants.ConfigDirName))
	}

	v.SetConfigName(constants.ConfigFileName)
	v.SetConfigType(constants.ConfigFileType)

	err = v.ReadInConfig()

	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}
