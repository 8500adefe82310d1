// Package dumsorcmder
package dumsorcmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/kaundalabs/dumsor/cmd/dumsor/ask"
	chatcmder "github.com/kaundalabs/dumsor/cmd/dumsor/chat"
	configcmder "github.com/kaundalabs/dumsor/cmd/dumsor/config"
	servecmder "github.com/kaundalabs/dumsor/cmd/dumsor/serve"
	versioncmder "github.com/kaundalabs/dumsor/cmd/version"
)

const dumsorLongDesc string = `Dumsor is a chat front end for Cortex Analyst.

Ask natural-language questions about your data; the staged semantic model
returns narrative text plus SQL you can inspect and, with warehouse
credentials configured, execute.

  dumsor serve     Run the chat web front end
  dumsor ask       Ask a single question from the terminal
  dumsor chat      Interactive multi-turn chat in the terminal
  dumsor config    Manage persistent configuration`

const dumsorShortDesc string = "Dumsor - Talk to your data"

func NewDumsorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dumsor",
		Short: dumsorShortDesc,
		Long:  dumsorLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .dumsor/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
