package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Load reads configuration from the environment, applies tag defaults and
// validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, errors.Wrap(err, "config load")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation")
	}

	return cfg, nil
}

// loadStruct walks nested config sections and fills tagged fields.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		// Apply default if not set
		if value == "" {
			if required {
				return errors.Newf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return errors.Wrapf(err, "invalid value for %s=%q", envName, value)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return errors.Wrap(err, "invalid duration")
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return errors.Wrap(err, "invalid integer")
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errors.Wrap(err, "invalid boolean")
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			result := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					result = append(result, p)
				}
			}
			field.Set(reflect.ValueOf(result))
		} else {
			return errors.Newf("unsupported slice type: %s", field.Type().Elem().Kind())
		}

	default:
		return errors.Newf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks every section and reports all failures at once.
func (c *Config) Validate() error {
	var v validator
	c.validateDatabase(&v)
	c.validateServer(&v)
	c.validateImport(&v)
	c.validatePoolBudget(&v)
	c.validateRate(&v)
	c.validateArchive(&v)
	c.validateSecurity(&v)
	c.validateLogging(&v)
	return v.err()
}

// validator collects failure lines and the hints that go with them.
type validator struct {
	errs  []string
	hints []string
}

func (v *validator) check(ok bool, format string, args ...any) {
	if !ok {
		v.errs = append(v.errs, fmt.Sprintf(format, args...))
	}
}

func (v *validator) hint(format string, args ...any) {
	v.hints = append(v.hints, fmt.Sprintf(format, args...))
}

func (v *validator) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	err := errors.Newf("validation failed:\n  - %s", strings.Join(v.errs, "\n  - "))
	for _, h := range v.hints {
		err = errors.WithHint(err, h)
	}
	return err
}

func (c *Config) validateDatabase(v *validator) {
	db := c.Database
	v.check(db.URL != "", "DATABASE_URL is required")
	v.check(db.MaxConns > 0, "DB_MAX_CONNS must be positive")
	v.check(db.MinConns >= 0, "DB_MIN_CONNS must be non-negative")
	v.check(db.MaxConns >= db.MinConns, "DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", db.MaxConns, db.MinConns)
}

func (c *Config) validateServer(v *validator) {
	srv := c.Server
	v.check(srv.Port > 0 && srv.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", srv.Port)
	v.check(srv.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative")
	v.check(srv.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")
}

func (c *Config) validateImport(v *validator) {
	imp := c.Import
	v.check(imp.MaxRecords > 0, "IMPORT_MAX_RECORDS must be positive")
	v.check(imp.MaxBodyBytes > 0, "IMPORT_MAX_BODY_BYTES must be positive")
	v.check(imp.MaxConcurrent > 0, "IMPORT_MAX_CONCURRENT must be positive")
	v.check(imp.MaxWaitTime > 0, "IMPORT_MAX_WAIT_TIME must be positive")
	v.check(imp.DefaultBatchSize >= 1 && imp.DefaultBatchSize <= 1000,
		"IMPORT_DEFAULT_BATCH_SIZE (%d) must be 1-1000", imp.DefaultBatchSize)
	v.check(imp.SinkRetryAttempts >= 1, "IMPORT_SINK_RETRY_ATTEMPTS must be at least 1")
	v.check(imp.SinkRetryDelay >= 0, "IMPORT_SINK_RETRY_DELAY must be non-negative")
	v.check(imp.SinkTimeout > 0, "IMPORT_SINK_TIMEOUT must be positive")
}

// validatePoolBudget makes sure running batches leave the error log, ledger
// and audit writes at least one pooled connection. Each batch holds one
// connection for its whole run.
func (c *Config) validatePoolBudget(v *validator) {
	maxConns, maxImports := c.Database.MaxConns, c.Import.MaxConcurrent
	if maxConns <= 0 || maxImports <= 0 || maxConns > maxImports {
		return
	}
	v.check(false, "DB_MAX_CONNS (%d) must be greater than IMPORT_MAX_CONCURRENT (%d)", maxConns, maxImports)
	v.hint("raise DB_MAX_CONNS to at least %d or lower IMPORT_MAX_CONCURRENT", maxImports+1)
}

func (c *Config) validateRate(v *validator) {
	if !c.Rate.Enabled {
		return
	}
	v.check(c.Rate.RequestsPerMinute > 0, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	v.check(c.Rate.ImportLimit > 0, "RATE_LIMIT_IMPORT must be positive when rate limiting is enabled")
}

func (c *Config) validateArchive(v *validator) {
	a := c.Archive
	v.check(a.HotRetentionDays > 0, "ARCHIVE_HOT_RETENTION_DAYS must be positive")
	v.check(a.ArchiveRetentionYears > 0, "ARCHIVE_RETENTION_YEARS must be positive")
	v.check(a.BatchSize > 0, "ARCHIVE_BATCH_SIZE must be positive")
	v.check(a.CheckInterval > 0, "ARCHIVE_CHECK_INTERVAL must be positive")
}

func (c *Config) validateSecurity(v *validator) {
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		v.check(false, "REQUIRE_API_KEY is true but API_KEYS is empty")
		v.hint("configure at least one key in API_KEYS or set REQUIRE_API_KEY=false")
	}
}

var (
	validLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validFormats = map[string]bool{"text": true, "json": true}
)

func (c *Config) validateLogging(v *validator) {
	v.check(validLevels[strings.ToLower(c.Logging.Level)],
		"LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	v.check(validFormats[strings.ToLower(c.Logging.Format)],
		"LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Database: {URL: [MASKED], MaxConns: %d, MinConns: %d}, ",
		c.Database.MaxConns, c.Database.MinConns))
	b.WriteString(fmt.Sprintf("Import: {MaxRecords: %d, MaxConcurrent: %d, DefaultBatchSize: %d, SinkTimeout: %s}, ",
		c.Import.MaxRecords, c.Import.MaxConcurrent, c.Import.DefaultBatchSize, c.Import.SinkTimeout))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Security: {RequireAPIKey: %v, APIKeys: %d configured}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys)))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
