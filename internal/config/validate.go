package config

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"

	"document-hydrator/internal/naming"
)

// ValidationError represents a configuration validation error with context.
type ValidationError struct {
	Field   string
	Message string
	Hint    string
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (hint: %s)", e.Field, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Field   string
	Message string
	Hint    string
}

// ValidationResult contains the results of configuration validation.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Error returns a combined error message if there are validation errors.
func (r *ValidationResult) Error() string {
	if !r.HasErrors() {
		return ""
	}
	var msgs []string
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for errors and returns validation results.
// It returns both errors (fatal) and warnings (non-fatal issues).
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}

	c.Database.validate(result)
	c.Server.validate(result)
	c.Observability.validate(result)
	validateNamingConfig(result, c.Naming)
	validateSources(result, c.Sources)

	return result
}

func (d *DatabaseConfig) validate(result *ValidationResult) {
	if d.ConnectionString != "" {
		if _, err := d.DSN(); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "database.dsn",
				Message: err.Error(),
				Hint:    "use the go-sql-driver/mysql format user:pass@tcp(host:port)/db",
			})
		}
	} else if d.Port < 1 || d.Port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.port",
			Message: fmt.Sprintf("port %d is out of valid range (1-65535)", d.Port),
		})
	}

	validTLSModes := map[string]bool{"": true, "off": true, "skip-verify": true, "verify-ca": true, "verify-full": true}
	if !validTLSModes[d.TLS.Mode] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.tls.mode",
			Message: fmt.Sprintf("invalid TLS mode %q", d.TLS.Mode),
			Hint:    "valid values are: off, skip-verify, verify-ca, verify-full",
		})
	}
	if (d.TLS.Mode == "verify-ca" || d.TLS.Mode == "verify-full") && d.TLS.CAFile == "" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "database.tls.ca_file",
			Message: "no CA file set; system roots will be used",
		})
	}

	if d.Pool.MaxOpen < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.pool.max_open",
			Message: "max_open cannot be negative",
		})
	}
	if d.Pool.MaxIdle < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.pool.max_idle",
			Message: "max_idle cannot be negative",
		})
	}
	if d.Pool.MaxIdle > d.Pool.MaxOpen && d.Pool.MaxOpen > 0 {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "database.pool.max_idle",
			Message: "max_idle is greater than max_open",
			Hint:    "idle connections will be limited to max_open",
		})
	}

	if d.ConnectionTimeout < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.connection_timeout",
			Message: "connection_timeout cannot be negative",
		})
	}
	if d.ConnectionRetryInterval < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.connection_retry_interval",
			Message: "connection_retry_interval cannot be negative",
		})
	}
	if d.ConnectionTimeout > 0 && d.ConnectionRetryInterval == 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.connection_retry_interval",
			Message: "connection_retry_interval must be greater than 0 when connection_timeout is set",
			Hint:    "set a retry interval such as 2s, or set connection_timeout to 0 to disable retries",
		})
	}
	if d.QueryTimeout < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.query_timeout",
			Message: "query_timeout cannot be negative",
		})
	}
}

func (s *ServerConfig) validate(result *ValidationResult) {
	if s.Port < 1 || s.Port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port %d is out of valid range (1-65535)", s.Port),
		})
	}

	if s.MaxBodyBytes < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.max_body_bytes",
			Message: "max_body_bytes cannot be negative",
		})
	}
	if s.MaxDocuments < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.max_documents",
			Message: "max_documents cannot be negative",
		})
	}

	if s.RateLimitEnabled {
		if s.RateLimitRPS <= 0 {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.rate_limit_rps",
				Message: "rate_limit_rps must be greater than 0 when rate limiting is enabled",
			})
		}
		if s.RateLimitBurst <= 0 {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.rate_limit_burst",
				Message: "rate_limit_burst must be greater than 0 when rate limiting is enabled",
			})
		}
	}
	if !s.RateLimitEnabled && (s.RateLimitRPS > 0 || s.RateLimitBurst > 0) {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "server.rate_limit_enabled",
			Message: "rate limit values are set but rate limiting is disabled",
			Hint:    "enable server.rate_limit_enabled to apply rate limits",
		})
	}

	if s.ShutdownTimeout < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown_timeout cannot be negative",
		})
	}

	if s.TLSEnabled() && (s.TLSCertFile == "" || s.TLSKeyFile == "") {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.tls_cert_file",
			Message: "tls_cert_file and tls_key_file must be set together",
		})
	}
}

func (o *ObservabilityConfig) validate(result *ValidationResult) {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[o.Logging.Level] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "observability.logging.level",
			Message: fmt.Sprintf("invalid log level %q", o.Logging.Level),
			Hint:    "valid values are: debug, info, warn, error",
		})
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[o.Logging.Format] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "observability.logging.format",
			Message: fmt.Sprintf("invalid log format %q", o.Logging.Format),
			Hint:    "valid values are: json, text",
		})
	}

	if o.TraceSampleRatio < 0 || o.TraceSampleRatio > 1 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "observability.trace_sample_ratio",
			Message: fmt.Sprintf("trace_sample_ratio %v is out of range", o.TraceSampleRatio),
			Hint:    "use a value between 0.0 and 1.0",
		})
	}

	o.OTLP.validate("observability.otlp", result)
	if o.Traces != nil {
		o.Traces.validate("observability.traces", result)
	}
	if o.Logs != nil {
		o.Logs.validate("observability.logs", result)
	}
}

func (o *OTLPConfig) validate(prefix string, result *ValidationResult) {
	validProtocols := map[string]bool{"": true, "grpc": true, "http/protobuf": true}
	if !validProtocols[o.Protocol] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   prefix + ".protocol",
			Message: fmt.Sprintf("invalid OTLP protocol %q", o.Protocol),
			Hint:    "valid values are: grpc, http/protobuf",
		})
	}

	if o.Protocol == "http/protobuf" && !validOTLPEndpoint(o.Endpoint) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   prefix + ".endpoint",
			Message: fmt.Sprintf("invalid OTLP endpoint %q for http/protobuf", o.Endpoint),
			Hint:    "use host:port or a full URL",
		})
	}

	validCompressions := map[string]bool{"": true, "none": true, "gzip": true}
	if !validCompressions[o.Compression] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   prefix + ".compression",
			Message: fmt.Sprintf("invalid OTLP compression %q", o.Compression),
			Hint:    "valid values are: none, gzip",
		})
	}

	if o.RetryMaxAttempts < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   prefix + ".retry_max_attempts",
			Message: "retry_max_attempts cannot be negative",
		})
	}
}

func validOTLPEndpoint(endpoint string) bool {
	if endpoint == "" {
		return false
	}
	if strings.Contains(endpoint, "://") {
		parsed, err := url.Parse(endpoint)
		if err != nil {
			return false
		}
		return parsed.Host != ""
	}
	_, _, err := net.SplitHostPort(endpoint)
	return err == nil
}

func validateNamingConfig(result *ValidationResult, cfg naming.Config) {
	switch cfg.Backend {
	case "", naming.BackendInflect:
	case naming.BackendInflection:
		if len(cfg.Irregulars) > 0 || len(cfg.Uncountables) > 0 {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   "naming.backend",
				Message: "irregulars and uncountables are ignored by the inflection backend",
				Hint:    "use plural_overrides, or switch naming.backend to inflect",
			})
		}
	default:
		result.Errors = append(result.Errors, ValidationError{
			Field:   "naming.backend",
			Message: fmt.Sprintf("unknown pluralizer backend %q", cfg.Backend),
			Hint:    "valid values are: inflect, inflection",
		})
	}

	for singular, plural := range cfg.PluralOverrides {
		if strings.TrimSpace(singular) == "" || strings.TrimSpace(plural) == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "naming.plural_overrides",
				Message: "overrides must map a non-empty word to a non-empty plural",
			})
			break
		}
	}
}

func validateSources(result *ValidationResult, sources map[string]SourceConfig) {
	if len(sources) == 0 {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "sources",
			Message: "no sources configured; every hydrate request will be rejected",
			Hint:    "add sources.<name>.table to the config file",
		})
		return
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		src := sources[name]
		field := "sources." + name
		if strings.TrimSpace(src.Table) == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   field + ".table",
				Message: "table is required",
			})
		}
		if src.MaxBatchSize < 0 {
			result.Errors = append(result.Errors, ValidationError{
				Field:   field + ".max_batch_size",
				Message: "max_batch_size cannot be negative",
			})
		}
		if src.ExcludeID && len(src.Columns) == 1 && src.Columns[0] == src.EffectiveIDColumn() {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   field + ".exclude_id",
				Message: "the only selected column is the excluded id column; hydrated documents will be empty",
			})
		}
	}
}
