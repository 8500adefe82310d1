package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/kaundalabs/dumsor/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the DUMSOR_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (DUMSOR_ANALYST_ACCOUNT, DUMSOR_ANALYST_TOKEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
//
// Secrets (analyst.token, warehouse.password) only ever resolve through the
// environment layer since they are never written to config.toml.
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: DUMSOR_ANALYST_TOKEN, DUMSOR_WAREHOUSE_PASSWORD, etc.
	v.SetEnvPrefix("DUMSOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes a Config from the viper precedence chain, including
// the environment-only secret fields.
func FromViper(v *viper.Viper) *Config {
	cfg := NewDefaultConfig()

	cfg.Analyst.Account = v.GetString("analyst.account")
	cfg.Analyst.Token = v.GetString("analyst.token")
	cfg.Analyst.SemanticModelFile = v.GetString("analyst.semantic_model_file")
	cfg.Analyst.Debug = v.GetBool("analyst.debug")

	cfg.Warehouse.User = v.GetString("warehouse.user")
	cfg.Warehouse.Password = v.GetString("warehouse.password")
	cfg.Warehouse.Role = v.GetString("warehouse.role")
	cfg.Warehouse.Warehouse = v.GetString("warehouse.warehouse")
	cfg.Warehouse.Database = v.GetString("warehouse.database")
	cfg.Warehouse.Schema = v.GetString("warehouse.schema")

	if listen := v.GetString("server.listen"); listen != "" {
		cfg.Server.Listen = listen
	}

	return cfg
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Analyst
	v.SetDefault("analyst.account", d.Analyst.Account)
	v.SetDefault("analyst.semantic_model_file", d.Analyst.SemanticModelFile)
	v.SetDefault("analyst.debug", d.Analyst.Debug)

	// Warehouse
	v.SetDefault("warehouse.user", d.Warehouse.User)
	v.SetDefault("warehouse.role", d.Warehouse.Role)
	v.SetDefault("warehouse.warehouse", d.Warehouse.Warehouse)
	v.SetDefault("warehouse.database", d.Warehouse.Database)
	v.SetDefault("warehouse.schema", d.Warehouse.Schema)

	// Server
	v.SetDefault("server.listen", d.Server.Listen)
}
