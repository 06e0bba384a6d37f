package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Billing  BillingConfig  `mapstructure:"billing"`
	Payroll  PayrollConfig  `mapstructure:"payroll"`
	Export   ExportConfig   `mapstructure:"export"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// BillingConfig holds settlement configuration
type BillingConfig struct {
	// DefaultHourlyRate applies when a project has no configured rate.
	DefaultHourlyRate float64 `mapstructure:"default_hourly_rate"`
}

// PayrollConfig holds payroll aggregation configuration. The premium
// multipliers are labor-agreement constants and deliberately not here.
type PayrollConfig struct {
	// OvertimeThresholdHours is the monthly hour count above which hours
	// are reported as overtime.
	OvertimeThresholdHours float64 `mapstructure:"overtime_threshold_hours"`
	VacationPayRate        float64 `mapstructure:"vacation_pay_rate"`
	SickPayRate            float64 `mapstructure:"sick_pay_rate"`
	TaxRate                float64 `mapstructure:"tax_rate"`
	UnionFeeRate           float64 `mapstructure:"union_fee_rate"`
}

// ExportConfig holds export adapter configuration
type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	viper.SetDefault("database.path", "data/timesheet.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	viper.SetDefault("billing.default_hourly_rate", 500.0)

	viper.SetDefault("payroll.overtime_threshold_hours", 160.0)
	viper.SetDefault("payroll.vacation_pay_rate", 0.12)
	viper.SetDefault("payroll.sick_pay_rate", 0.02)
	viper.SetDefault("payroll.tax_rate", 0.30)
	viper.SetDefault("payroll.union_fee_rate", 0.015)

	viper.SetDefault("export.output_dir", "exports")

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("database.path", "DATABASE_PATH")
	viper.BindEnv("export.output_dir", "EXPORT_OUTPUT_DIR")
	viper.BindEnv("logger.level", "LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Billing.DefaultHourlyRate <= 0 {
		return fmt.Errorf("billing.default_hourly_rate must be positive")
	}
	if c.Payroll.OvertimeThresholdHours <= 0 {
		return fmt.Errorf("payroll.overtime_threshold_hours must be positive")
	}
	for name, rate := range map[string]float64{
		"payroll.vacation_pay_rate": c.Payroll.VacationPayRate,
		"payroll.sick_pay_rate":     c.Payroll.SickPayRate,
		"payroll.tax_rate":          c.Payroll.TaxRate,
		"payroll.union_fee_rate":    c.Payroll.UnionFeeRate,
	} {
		if rate < 0 || rate >= 1 {
			return fmt.Errorf("%s must be in [0, 1)", name)
		}
	}
	return nil
}
