package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Grammar  GrammarConfig  `yaml:"grammar"`
	Drafts   DraftsConfig   `yaml:"drafts"`
	Backup   BackupConfig   `yaml:"backup"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Host string `yaml:"host" default:"0.0.0.0"`
	Port string `yaml:"port" default:"12600"`
	// Idle sessions are dropped after this long.
	SessionTTL time.Duration `yaml:"session_ttl" default:"30m"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" default:"sqlite"`
	Path   string `yaml:"path" default:"stylus.db"`
}

type GrammarConfig struct {
	BaseURL     string `yaml:"base_url" default:"http://localhost:8000/api/"`
	CorrectPath string `yaml:"correct_path" default:"correct"`
	Language    string `yaml:"language" default:"en"`

	ConnectTimeout time.Duration `yaml:"connect_timeout" default:"30s"`
	ReadTimeout    time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" default:"30s"`
	RequestTimeout time.Duration `yaml:"request_timeout" default:"90s"`

	RequestsPerSecond float64 `yaml:"requests_per_second" default:"0"`
}

type DraftsConfig struct {
	SavePreviewLength int    `yaml:"save_preview_length" default:"150"`
	ListPreviewLength int    `yaml:"list_preview_length" default:"100"`
	DateFormat        string `yaml:"date_format" default:"Jan 02, 2006"`
	// Timezone is an IANA name or "Local".
	Timezone string `yaml:"timezone" default:"Local"`
}

type BackupConfig struct {
	Bucket   string `yaml:"bucket" default:""`
	Prefix   string `yaml:"prefix" default:"stylus"`
	Endpoint string `yaml:"endpoint" default:""`
	Region   string `yaml:"region" default:"us-east-1"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"console"`
}

const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"

	FormatConsole = "console"
	FormatJSON    = "json"
)

const (
	EnvServerPort     = "STYLUS_SERVER_PORT"
	EnvGrammarBaseURL = "STYLUS_GRAMMAR_BASE_URL"
	EnvDatabasePath   = "STYLUS_DATABASE_PATH"
	EnvBackupBucket   = "STYLUS_BACKUP_BUCKET"
	EnvLogLevel       = "STYLUS_LOG_LEVEL"
	EnvLogFormat      = "STYLUS_LOG_FORMAT"
)

// EnvVar names an environment variable and the YAML key it overrides.
type EnvVar struct {
	Name string
	Key  string
}

type envOverride struct {
	EnvVar
	target *string
}

func (c *Config) envOverrides() []envOverride {
	return []envOverride{
		{EnvVar{EnvServerPort, "server.port"}, &c.Server.Port},
		{EnvVar{EnvGrammarBaseURL, "grammar.base_url"}, &c.Grammar.BaseURL},
		{EnvVar{EnvDatabasePath, "database.path"}, &c.Database.Path},
		{EnvVar{EnvBackupBucket, "backup.bucket"}, &c.Backup.Bucket},
		{EnvVar{EnvLogLevel, "logging.level"}, &c.Logging.Level},
		{EnvVar{EnvLogFormat, "logging.format"}, &c.Logging.Format},
	}
}

// EnvVars lists the supported environment overrides in application order.
func EnvVars() []EnvVar {
	overrides := (&Config{}).envOverrides()
	vars := make([]EnvVar, len(overrides))
	for i, o := range overrides {
		vars[i] = o.EnvVar
	}
	return vars
}

var AppConfig *Config

// LoadConfig loads path into AppConfig.
func LoadConfig(path string) error {
	config, err := Load(path)
	if err != nil {
		return err
	}
	AppConfig = config
	return nil
}

// Load builds a Config from defaults, the YAML file at path (if it exists)
// and environment overrides, in that order, and validates the result.
func Load(path string) (*Config, error) {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// ApplyEnv overrides settings from STYLUS_* environment variables.
func (c *Config) ApplyEnv() {
	for _, o := range c.envOverrides() {
		if v, ok := os.LookupEnv(o.Name); ok && v != "" {
			configLogger.Debug().Str("env", o.Name).Str("key", o.Key).Msg("Config overridden from environment")
			*o.target = v
		}
	}
}

// Location resolves Drafts.Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Drafts.Timezone == "" || c.Drafts.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Drafts.Timezone)
}

func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

var durationType = reflect.TypeOf(time.Duration(0))

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Int64:
			if field.Type() == durationType {
				if val, err := time.ParseDuration(defaultValue); err == nil {
					field.SetInt(int64(val))
				}
			} else if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
