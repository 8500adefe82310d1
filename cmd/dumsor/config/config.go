// Package configcmder provides the config command for managing persistent
// dumsor configuration stored in the .dumsor/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent dumsor configuration.

Configuration is stored as config.toml in the .dumsor/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  analyst.account, analyst.semantic_model_file, analyst.debug,
  warehouse.user, warehouse.role, warehouse.warehouse,
  warehouse.database, warehouse.schema,
  server.listen

Secrets are never stored in the file. Set the analyst bearer token via
DUMSOR_ANALYST_TOKEN and the warehouse password via DUMSOR_WAREHOUSE_PASSWORD.

Use subcommands to get, set, or list configuration values:
  dumsor config set <key> <value>    Set a configuration value
  dumsor config get <key>            Get a configuration value
  dumsor config list                 List all configuration values

Examples:
  dumsor config set analyst.account ZEQWJME-NV17394
  dumsor config set warehouse.database DUMSOR
  dumsor config get analyst.semantic_model_file
  dumsor config list`

const configShortDesc string = "Manage persistent dumsor configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
