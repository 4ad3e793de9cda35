package config

import (
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/goran-ethernal/ArcadeIndexor/internal/common"
	"github.com/goran-ethernal/ArcadeIndexor/internal/logger"
)

const (
	DefaultModuleName     = "multiplayer_game"
	DefaultPageSize       = 25
	DefaultCronSpec       = "*/10 * * * * *"
	DefaultNotifyChannel  = "arcade:games"
	maxPageSize           = 100
	defaultRequestTimeout = 10 * time.Second
)

// Config represents the complete configuration for the ArcadeIndexor.
type Config struct {
	// Chain contains the Aptos node and contract settings
	Chain ChainConfig `yaml:"chain" json:"chain" toml:"chain"`

	// Scheduler controls how often indexing cycles run
	Scheduler SchedulerConfig `yaml:"scheduler" json:"scheduler" toml:"scheduler"`

	// DB contains the read-model database configuration
	DB DatabaseConfig `yaml:"db" json:"db" toml:"db"`

	// Maintenance contains optional database maintenance settings
	Maintenance *MaintenanceConfig `yaml:"maintenance,omitempty" json:"maintenance,omitempty" toml:"maintenance,omitempty"`

	// Redis is required by the distributed cycle lock and by game update notifications
	Redis *RedisConfig `yaml:"redis,omitempty" json:"redis,omitempty" toml:"redis,omitempty"`

	// Notify publishes game updates after every indexed transaction
	Notify *NotifyConfig `yaml:"notify,omitempty" json:"notify,omitempty" toml:"notify,omitempty"`

	// Logging contains logging configuration
	Logging *LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty" toml:"logging,omitempty"`

	// Metrics contains Prometheus metrics configuration
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty" toml:"metrics,omitempty"`

	// API contains the read API and trigger endpoint configuration
	API *APIConfig `yaml:"api,omitempty" json:"api,omitempty" toml:"api,omitempty"`
}

// ChainConfig describes where and what to index.
type ChainConfig struct {
	// NodeURL is the Aptos full node REST base URL, e.g. https://fullnode.testnet.aptoslabs.com/v1
	NodeURL string `yaml:"node_url" json:"node_url" toml:"node_url"`

	// ContractAddress is the account that published the game module
	ContractAddress string `yaml:"contract_address" json:"contract_address" toml:"contract_address"`

	// ModuleName is the Move module emitting the game events
	ModuleName string `yaml:"module_name" json:"module_name" toml:"module_name"`

	// PageSize is the number of account transactions fetched per cycle
	PageSize int `yaml:"page_size" json:"page_size" toml:"page_size"`

	// RequestTimeout bounds every request to the node
	RequestTimeout common.Duration `yaml:"request_timeout" json:"request_timeout" toml:"request_timeout"`

	// Retry contains retry configuration with exponential backoff
	Retry *RetryConfig `yaml:"retry,omitempty" json:"retry,omitempty" toml:"retry,omitempty"`
}

// ApplyDefaults sets default values for optional chain configuration fields.
func (c *ChainConfig) ApplyDefaults() {
	if c.ModuleName == "" {
		c.ModuleName = DefaultModuleName
	}
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.RequestTimeout.Duration == 0 {
		c.RequestTimeout = common.NewDuration(defaultRequestTimeout)
	}
	if c.Retry != nil {
		c.Retry.ApplyDefaults()
	}
}

// Validate checks the chain configuration.
func (c *ChainConfig) Validate() error {
	if c.NodeURL == "" {
		return fmt.Errorf("chain.node_url is required")
	}
	if u, err := url.Parse(c.NodeURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("chain.node_url must be an absolute URL")
	}
	if c.ContractAddress == "" {
		return fmt.Errorf("chain.contract_address is required")
	}
	if c.PageSize < 1 || c.PageSize > maxPageSize {
		return fmt.Errorf("chain.page_size must be between 1 and %d", maxPageSize)
	}
	return nil
}

// RetryConfig represents request retry configuration with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial request)
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts" toml:"max_attempts"`

	// InitialBackoff is the initial backoff duration before first retry
	InitialBackoff common.Duration `yaml:"initial_backoff" json:"initial_backoff" toml:"initial_backoff"`

	// MaxBackoff is the maximum backoff duration
	MaxBackoff common.Duration `yaml:"max_backoff" json:"max_backoff" toml:"max_backoff"`

	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64 `yaml:"backoff_multiplier" json:"backoff_multiplier" toml:"backoff_multiplier"`
}

// ApplyDefaults sets default values for retry configuration.
func (r *RetryConfig) ApplyDefaults() {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 3
	}
	if r.InitialBackoff.Duration == 0 {
		r.InitialBackoff = common.NewDuration(500 * time.Millisecond) //nolint:mnd
	}
	if r.MaxBackoff.Duration == 0 {
		r.MaxBackoff = common.NewDuration(5 * time.Second) //nolint:mnd
	}
	if r.BackoffMultiplier == 0 {
		r.BackoffMultiplier = 2.0
	}
}

// SchedulerConfig controls the indexing cadence.
type SchedulerConfig struct {
	// Cron is a six field cron expression (with seconds)
	Cron string `yaml:"cron" json:"cron" toml:"cron"`

	// RunOnStart triggers one cycle immediately at startup
	RunOnStart bool `yaml:"run_on_start" json:"run_on_start" toml:"run_on_start"`

	// CycleTimeout bounds a single indexing cycle
	CycleTimeout common.Duration `yaml:"cycle_timeout" json:"cycle_timeout" toml:"cycle_timeout"`

	// DistributedLock guards cycles across processes with a redis lock (requires redis)
	DistributedLock bool `yaml:"distributed_lock" json:"distributed_lock" toml:"distributed_lock"`

	// LockTTL is the expiry of the distributed lock
	LockTTL common.Duration `yaml:"lock_ttl" json:"lock_ttl" toml:"lock_ttl"`
}

// ApplyDefaults sets default values for optional scheduler configuration fields.
func (s *SchedulerConfig) ApplyDefaults() {
	if s.Cron == "" {
		s.Cron = DefaultCronSpec
	}
	if s.CycleTimeout.Duration == 0 {
		s.CycleTimeout = common.NewDuration(2 * time.Minute) //nolint:mnd
	}
	if s.LockTTL.Duration == 0 {
		s.LockTTL = common.NewDuration(s.CycleTimeout.Duration + 30*time.Second) //nolint:mnd
	}
}

// DatabaseConfig represents database configuration.
type DatabaseConfig struct {
	// Path is the file path to the SQLite database
	Path string `yaml:"path" json:"path" toml:"path"`

	// JournalMode sets the SQLite journal mode (e.g., "WAL", "DELETE")
	JournalMode string `yaml:"journal_mode" json:"journal_mode" toml:"journal_mode"`

	// Synchronous sets the synchronization level ("FULL", "NORMAL", "OFF")
	Synchronous string `yaml:"synchronous" json:"synchronous" toml:"synchronous"`

	// BusyTimeout is the time in milliseconds to wait when the database is locked
	BusyTimeout int `yaml:"busy_timeout" json:"busy_timeout" toml:"busy_timeout"`

	// CacheSize is the size of the page cache (negative = KB, positive = pages)
	CacheSize int `yaml:"cache_size" json:"cache_size" toml:"cache_size"`

	// MaxOpenConnections is the maximum number of open database connections
	MaxOpenConnections int `yaml:"max_open_connections" json:"max_open_connections" toml:"max_open_connections"`

	// MaxIdleConnections is the maximum number of idle connections in the pool
	MaxIdleConnections int `yaml:"max_idle_connections" json:"max_idle_connections" toml:"max_idle_connections"`
}

// ApplyDefaults sets default values for optional database configuration fields.
func (d *DatabaseConfig) ApplyDefaults() {
	if d.JournalMode == "" {
		d.JournalMode = "WAL"
	}
	if d.Synchronous == "" {
		d.Synchronous = "NORMAL"
	}
	if d.BusyTimeout == 0 {
		d.BusyTimeout = 5000
	}
	if d.CacheSize == 0 {
		d.CacheSize = 10000
	}
	if d.MaxOpenConnections == 0 {
		d.MaxOpenConnections = 10
	}
	if d.MaxIdleConnections == 0 {
		d.MaxIdleConnections = 5
	}
}

// Validate checks the database configuration.
func (d *DatabaseConfig) Validate() error {
	if d.Path == "" {
		return fmt.Errorf("db.path is required")
	}
	if d.JournalMode != "" &&
		!slices.Contains([]string{"WAL", "DELETE", "TRUNCATE", "PERSIST", "MEMORY"}, d.JournalMode) {
		return fmt.Errorf("db.journal_mode must be one of: WAL, DELETE, TRUNCATE, PERSIST, MEMORY")
	}
	if d.Synchronous != "" && !slices.Contains([]string{"FULL", "NORMAL", "OFF"}, d.Synchronous) {
		return fmt.Errorf("db.synchronous must be one of: FULL, NORMAL, OFF")
	}
	return nil
}

// MaintenanceConfig configures database maintenance behavior.
type MaintenanceConfig struct {
	// Enabled controls whether background maintenance runs
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// CheckInterval is how often to run maintenance (e.g., "30m", "1h")
	CheckInterval common.Duration `yaml:"check_interval" json:"check_interval" toml:"check_interval"`

	// VacuumOnStartup runs maintenance immediately on startup
	VacuumOnStartup bool `yaml:"vacuum_on_startup" json:"vacuum_on_startup" toml:"vacuum_on_startup"`

	// WALCheckpointMode controls the WAL checkpoint aggressiveness
	// Options: PASSIVE, FULL, RESTART, TRUNCATE
	WALCheckpointMode string `yaml:"wal_checkpoint_mode" json:"wal_checkpoint_mode" toml:"wal_checkpoint_mode"`
}

// ApplyDefaults sets default values for optional maintenance configuration fields.
func (m *MaintenanceConfig) ApplyDefaults() {
	if m.CheckInterval.Duration == 0 {
		m.CheckInterval = common.NewDuration(30 * time.Minute) //nolint:mnd
	}
	if m.WALCheckpointMode == "" {
		m.WALCheckpointMode = "TRUNCATE"
	}
}

// Validate checks if the maintenance configuration is valid.
func (m *MaintenanceConfig) Validate() error {
	if m.WALCheckpointMode != "" &&
		!slices.Contains([]string{"PASSIVE", "FULL", "RESTART", "TRUNCATE"}, m.WALCheckpointMode) {
		return fmt.Errorf("maintenance.wal_checkpoint_mode: must be one of: PASSIVE, FULL, RESTART, TRUNCATE")
	}
	return nil
}

// RedisConfig holds the connection settings shared by the cycle lock and the notifier.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr" toml:"addr"`
	Password string `yaml:"password,omitempty" json:"password,omitempty" toml:"password,omitempty"`
	DB       int    `yaml:"db" json:"db" toml:"db"`
}

// NotifyConfig configures game update notifications.
type NotifyConfig struct {
	// Enabled turns publishing on
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// Channel is the redis pub/sub channel game updates are published on
	Channel string `yaml:"channel" json:"channel" toml:"channel"`
}

// ApplyDefaults sets default values for optional notify configuration fields.
func (n *NotifyConfig) ApplyDefaults() {
	if n.Channel == "" {
		n.Channel = DefaultNotifyChannel
	}
}

// LoggingConfig configures logging behavior with per-component log levels.
type LoggingConfig struct {
	// DefaultLevel is the default log level for all components
	// Options: "debug", "info", "warn", "error"
	DefaultLevel string `yaml:"default_level" json:"default_level" toml:"default_level"`

	// Development enables development mode (stack traces, console encoder)
	Development bool `yaml:"development" json:"development" toml:"development"`

	// ComponentLevels sets log levels for specific components
	// Available components:
	//   - chain-reader: Aptos node access
	//   - indexer: event routing and handlers
	//   - state-manager: watermark persistence
	//   - scheduler: cycle scheduling
	//   - maintenance: database maintenance
	//   - api: read API server
	//   - notifier: game update publishing
	ComponentLevels map[string]string `yaml:"component_levels,omitempty" json:"component_levels,omitempty" toml:"component_levels,omitempty"` //nolint:lll
}

// ApplyDefaults sets default values for optional logging configuration fields.
func (l *LoggingConfig) ApplyDefaults() {
	if l.DefaultLevel == "" {
		l.DefaultLevel = "info"
	}
	if l.ComponentLevels == nil {
		l.ComponentLevels = make(map[string]string)
	}
}

// Validate checks if the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	if l.DefaultLevel != "" {
		if _, valid := logger.ValidLogLevels[common.ToLowerWithTrim(l.DefaultLevel)]; !valid {
			return fmt.Errorf("logging.default_level: must be one of: debug, info, warn, error")
		}
	}

	for component, level := range l.ComponentLevels {
		if _, validComponent := common.AllComponents[common.ToLowerWithTrim(component)]; !validComponent {
			return fmt.Errorf("logging.component_levels: unknown component '%s'", component)
		}

		if _, valid := logger.ValidLogLevels[common.ToLowerWithTrim(level)]; !valid {
			return fmt.Errorf("logging.component_levels[%s]: must be one of: debug, info, warn, error", component)
		}
	}

	return nil
}

// GetComponentLevel returns the log level for a specific component.
// Falls back to DefaultLevel if no component-specific level is set.
func (l *LoggingConfig) GetComponentLevel(component string) string {
	if level, ok := l.ComponentLevels[component]; ok {
		return common.ToLowerWithTrim(level)
	}
	return l.GetDefaultLevel()
}

// GetDefaultLevel returns the default log level.
func (l *LoggingConfig) GetDefaultLevel() string {
	return common.ToLowerWithTrim(l.DefaultLevel)
}

// IsDevelopment returns whether development mode is enabled.
func (l *LoggingConfig) IsDevelopment() bool {
	return l.Development
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP endpoint are active
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the metrics HTTP server to
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// Path is the HTTP path where metrics are exposed
	Path string `yaml:"path" json:"path" toml:"path"`
}

// ApplyDefaults sets default values for optional metrics configuration fields.
func (m *MetricsConfig) ApplyDefaults() {
	if m.ListenAddress == "" {
		m.ListenAddress = ":9090"
	}
	if m.Path == "" {
		m.Path = "/metrics"
	}
}

// Validate checks if the metrics configuration is valid.
func (m *MetricsConfig) Validate() error {
	if m.Enabled {
		if m.ListenAddress == "" {
			return fmt.Errorf("listen_address is required when metrics are enabled")
		}
		if m.Path == "" || m.Path[0] != '/' {
			return fmt.Errorf("path must start with '/'")
		}
	}
	return nil
}

// APIConfig configures the read API server.
type APIConfig struct {
	Enabled       bool            `yaml:"enabled" json:"enabled" toml:"enabled"`
	ListenAddress string          `yaml:"listen_address" json:"listen_address" toml:"listen_address"`
	ReadTimeout   common.Duration `yaml:"read_timeout" json:"read_timeout" toml:"read_timeout"`
	WriteTimeout  common.Duration `yaml:"write_timeout" json:"write_timeout" toml:"write_timeout"`
	IdleTimeout   common.Duration `yaml:"idle_timeout" json:"idle_timeout" toml:"idle_timeout"`
	CORS          CORSConfig      `yaml:"cors" json:"cors" toml:"cors"`
}

// CORSConfig configures cross-origin access for browser clients such as the lobby UI.
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled" json:"enabled" toml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins" toml:"allowed_origins"`
}

// ApplyDefaults sets default values for optional API configuration fields.
func (a *APIConfig) ApplyDefaults() {
	if a.ListenAddress == "" {
		a.ListenAddress = ":8080"
	}
	if a.ReadTimeout.Duration == 0 {
		a.ReadTimeout = common.NewDuration(15 * time.Second) //nolint:mnd
	}
	if a.WriteTimeout.Duration == 0 {
		// the trigger endpoint runs a whole cycle inside the request
		a.WriteTimeout = common.NewDuration(3 * time.Minute) //nolint:mnd
	}
	if a.IdleTimeout.Duration == 0 {
		a.IdleTimeout = common.NewDuration(60 * time.Second) //nolint:mnd
	}
	if a.CORS.Enabled && len(a.CORS.AllowedOrigins) == 0 {
		a.CORS.AllowedOrigins = []string{"*"}
	}
}

// ApplyDefaults sets default values for optional configuration fields.
func (c *Config) ApplyDefaults() {
	c.Chain.ApplyDefaults()
	c.Scheduler.ApplyDefaults()
	c.DB.ApplyDefaults()

	if c.Maintenance != nil {
		c.Maintenance.ApplyDefaults()
	}
	if c.Notify != nil {
		c.Notify.ApplyDefaults()
	}
	if c.Logging != nil {
		c.Logging.ApplyDefaults()
	}
	if c.Metrics != nil {
		c.Metrics.ApplyDefaults()
	}
	if c.API != nil {
		c.API.ApplyDefaults()
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Chain.Validate(); err != nil {
		return err
	}

	if c.Scheduler.CycleTimeout.Duration <= 0 {
		return fmt.Errorf("scheduler.cycle_timeout must be positive")
	}

	if err := c.DB.Validate(); err != nil {
		return err
	}

	if c.Maintenance != nil {
		if err := c.Maintenance.Validate(); err != nil {
			return err
		}
	}

	needsRedis := c.Scheduler.DistributedLock || (c.Notify != nil && c.Notify.Enabled)
	if needsRedis && (c.Redis == nil || c.Redis.Addr == "") {
		return fmt.Errorf("redis.addr is required when scheduler.distributed_lock or notify.enabled is set")
	}

	if c.Logging != nil {
		if err := c.Logging.Validate(); err != nil {
			return err
		}
	}

	if c.Metrics != nil {
		if err := c.Metrics.Validate(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	return nil
}
