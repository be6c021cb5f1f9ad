// Package settings holds the per-deployment constants of a conversion run:
// input paths, delimiters, output location and run mode.
package settings

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/MadKrok/essais-python/pkg/parser"
)

// EnvPrefix prefixes environment overrides, e.g. CSV2JSON_OUTPUT_DIR.
const EnvPrefix = "CSV2JSON"

// Setting keys, shared by flags, environment variables and settings files.
const (
	KeyRegistry          = "registry"
	KeyRegistryDelimiter = "registry-delimiter"
	KeyLog               = "log"
	KeyLogDelimiter      = "log-delimiter"
	KeyFieldMap          = "field-map"
	KeyOutputDir         = "output-dir"
	KeyStdout            = "stdout"
	KeyLenient           = "lenient"
	KeyLogLevel          = "log-level"
	KeyLogFile           = "log-file"
)

// Settings are the resolved deployment settings.
type Settings struct {
	RegistryPath      string
	RegistryDelimiter rune
	LogPath           string
	LogDelimiter      rune
	FieldMapPath      string
	OutputDir         string
	Stdout            bool
	Lenient           bool
	LogLevel          string
	LogFile           string
}

// Defaults match the Dubai deployment the converter was first written for.
func Defaults() map[string]any {
	return map[string]any{
		KeyRegistry:          "dubai_coord.csv",
		KeyRegistryDelimiter: ",",
		KeyLog:               "dubai_list.csv",
		KeyLogDelimiter:      ",",
		KeyFieldMap:          "dubai_json_map+tz.json",
		KeyOutputDir:         "json_files",
		KeyStdout:            false,
		KeyLenient:           false,
		KeyLogLevel:          "info",
		KeyLogFile:           "",
	}
}

// AddFlags registers one flag per setting on fs.
func AddFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String(KeyRegistry, d[KeyRegistry].(string), "asset registry file (Switch, Switch_long_name, WGS84 long, WGS84 lat)")
	fs.String(KeyRegistryDelimiter, d[KeyRegistryDelimiter].(string), "asset registry delimiter (',', ';' or 'tab')")
	fs.String(KeyLog, d[KeyLog].(string), "maintenance log file")
	fs.String(KeyLogDelimiter, d[KeyLogDelimiter].(string), "maintenance log delimiter")
	fs.String(KeyFieldMap, d[KeyFieldMap].(string), "field-map document (.json, .yaml)")
	fs.String(KeyOutputDir, d[KeyOutputDir].(string), "directory receiving one JSON file per record")
	fs.Bool(KeyStdout, false, "write newline-delimited JSON to stdout instead of files")
	fs.Bool(KeyLenient, false, "skip and report rows that cannot be converted instead of aborting")
	fs.String(KeyLogLevel, d[KeyLogLevel].(string), "log level (debug, info, warn, error)")
	fs.String(KeyLogFile, "", "also append JSON logs to this file")
}

// New returns a viper instance with defaults, environment overrides and fs
// bound. A non-empty settingsFile is read on top of the defaults.
func New(fs *pflag.FlagSet, settingsFile string) (*viper.Viper, error) {
	v := viper.New()
	for k, val := range Defaults() {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if settingsFile != "" {
		v.SetConfigFile(settingsFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings %s: %w", settingsFile, err)
		}
	}
	return v, nil
}

// Resolve reads and validates Settings from v.
func Resolve(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		RegistryPath: v.GetString(KeyRegistry),
		LogPath:      v.GetString(KeyLog),
		FieldMapPath: v.GetString(KeyFieldMap),
		OutputDir:    v.GetString(KeyOutputDir),
		Stdout:       v.GetBool(KeyStdout),
		Lenient:      v.GetBool(KeyLenient),
		LogLevel:     v.GetString(KeyLogLevel),
		LogFile:      v.GetString(KeyLogFile),
	}

	var errs *multierror.Error
	var err error
	if s.RegistryDelimiter, err = parser.ParseDelimiter(v.GetString(KeyRegistryDelimiter)); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("%s: %w", KeyRegistryDelimiter, err))
	}
	if s.LogDelimiter, err = parser.ParseDelimiter(v.GetString(KeyLogDelimiter)); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("%s: %w", KeyLogDelimiter, err))
	}
	for _, p := range []struct{ key, path string }{
		{KeyRegistry, s.RegistryPath},
		{KeyLog, s.LogPath},
		{KeyFieldMap, s.FieldMapPath},
	} {
		if p.path == "" {
			errs = multierror.Append(errs, fmt.Errorf("%s: path must not be empty", p.key))
		}
	}
	if !s.Stdout && s.OutputDir == "" {
		errs = multierror.Append(errs, fmt.Errorf("%s: must not be empty unless --%s is set", KeyOutputDir, KeyStdout))
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return s, nil
}
