package config

import "strconv"

// Config represents the persistent dumsor configuration stored as config.toml
// in the .dumsor/ directory. The TOML layout uses sections for logical grouping.
//
// Secrets (the analyst bearer token and the warehouse password) are never
// stored in the file; they are read from the environment only
// (DUMSOR_ANALYST_TOKEN, DUMSOR_WAREHOUSE_PASSWORD).
type Config struct {
	Version   int             `toml:"version"`
	Analyst   AnalystConfig   `toml:"analyst"`
	Warehouse WarehouseConfig `toml:"warehouse"`
	Server    ServerConfig    `toml:"server"`
}

// AnalystConfig holds settings for the hosted analyst endpoint.
type AnalystConfig struct {
	// Account is the provider account locator, e.g. "ZEQWJME-NV17394".
	Account string `toml:"account,omitempty"`

	// Token is the bearer credential. Environment only, never persisted.
	Token string `toml:"-"`

	// SemanticModelFile is the staged semantic model path the analyst
	// grounds questions against, e.g.
	// "@DUMSOR.REPORT.STG_DUMSOR_SEMANTIC_LAYER/REPORTING_WORKSTREAM_SEMANTIC_LAYER.yaml".
	SemanticModelFile string `toml:"semantic_model_file,omitempty"`

	// Debug requests debug info from the analyst alongside the answer.
	Debug bool `toml:"debug,omitempty"`
}

// WarehouseConfig holds the optional warehouse connection parameters used to
// execute returned SQL. All six (plus the analyst account) must be present for
// execution to be enabled; anything missing just disables the capability.
type WarehouseConfig struct {
	User      string `toml:"user,omitempty"`
	Password  string `toml:"-"`
	Role      string `toml:"role,omitempty"`
	Warehouse string `toml:"warehouse,omitempty"`
	Database  string `toml:"database,omitempty"`
	Schema    string `toml:"schema,omitempty"`
}

// ServerConfig holds web front end settings.
type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
// Token and password are deliberately absent: secrets stay in the environment.
var configKeys = map[string]configKeyInfo{
	"analyst.account": {
		get: func(c *Config) string { return c.Analyst.Account },
		set: func(c *Config, v string) error { c.Analyst.Account = v; return nil },
	},
	"analyst.semantic_model_file": {
		get: func(c *Config) string { return c.Analyst.SemanticModelFile },
		set: func(c *Config, v string) error { c.Analyst.SemanticModelFile = v; return nil },
	},
	"analyst.debug": {
		get: func(c *Config) string { return strconv.FormatBool(c.Analyst.Debug) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return err
			}
			c.Analyst.Debug = b
			return nil
		},
	},
	"warehouse.user": {
		get: func(c *Config) string { return c.Warehouse.User },
		set: func(c *Config, v string) error { c.Warehouse.User = v; return nil },
	},
	"warehouse.role": {
		get: func(c *Config) string { return c.Warehouse.Role },
		set: func(c *Config, v string) error { c.Warehouse.Role = v; return nil },
	},
	"warehouse.warehouse": {
		get: func(c *Config) string { return c.Warehouse.Warehouse },
		set: func(c *Config, v string) error { c.Warehouse.Warehouse = v; return nil },
	},
	"warehouse.database": {
		get: func(c *Config) string { return c.Warehouse.Database },
		set: func(c *Config, v string) error { c.Warehouse.Database = v; return nil },
	},
	"warehouse.schema": {
		get: func(c *Config) string { return c.Warehouse.Schema },
		set: func(c *Config, v string) error { c.Warehouse.Schema = v; return nil },
	},
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
}
