// Package askcmder provides the ask command for one-shot questions from the
// terminal.
package askcmder

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kaundalabs/dumsor/pkg/analyst"
	"github.com/kaundalabs/dumsor/pkg/analyst/envelope"
	"github.com/kaundalabs/dumsor/pkg/cliui"
	"github.com/kaundalabs/dumsor/pkg/config"
	"github.com/kaundalabs/dumsor/pkg/logger"
	"github.com/kaundalabs/dumsor/pkg/warehouse"
)

type askCommander struct {
	account       string
	semanticModel string
	showRaw       bool
	debug         bool

	viper  *viper.Viper
	logger *zap.Logger
}

const askLongDesc string = `Ask Cortex Analyst a single question.

Sends one question against the configured semantic model and prints the
narrative answer plus any generated SQL. When warehouse credentials are
configured the SQL is executed and the results are printed as a table;
otherwise a notice is shown instead.

Examples:
  dumsor ask "which district had the longest outage last month?"
  dumsor ask --show-raw "total outage minutes by district"`

const askShortDesc string = "Ask a single question"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagAccount,
				config.FlagSemanticModel,
			})

			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run(args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAccount, &cmder.account)
	config.AddStringFlag(cmd, config.Flags, config.FlagSemanticModel, &cmder.semanticModel)
	cmd.Flags().BoolVar(&cmder.showRaw, "show-raw", false, "Print the raw analyst response body")

	return cmd
}

func (c *askCommander) run(question string) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	cfg := config.FromViper(c.viper)

	client := analyst.NewClient(analyst.Config{
		Account:           cfg.Analyst.Account,
		Token:             cfg.Analyst.Token,
		SemanticModelFile: cfg.Analyst.SemanticModelFile,
		Debug:             cfg.Analyst.Debug || c.debug,
	}, c.logger)

	var reply *envelope.Reply
	err := cliui.Step(os.Stdout, "Asking the analyst", func() error {
		var stepErr error
		reply, stepErr = client.Ask(context.Background(), question)
		return stepErr
	})
	if err != nil {
		return err
	}

	fmt.Println()

	if reply.Err != nil {
		fmt.Printf("  %s %s\n\n", cliui.FailMark, reply.Err.Message)
	}

	// Print the placeholder for an empty narrative unless the service
	// error above already explains the silence.
	if reply.Err == nil || reply.Text != "" {
		fmt.Print(cliui.RenderNarrative(reply.Text))
	}

	for _, statement := range reply.SQL {
		rendered, rerr := cliui.RenderSQL(statement)
		if rerr != nil {
			rendered = statement + "\n"
		}
		fmt.Print(rendered)
	}

	if err := c.runSQL(cfg, reply); err != nil {
		return err
	}

	if c.showRaw {
		fmt.Printf("\n%s\n", string(reply.Raw))
	}

	return nil
}

// runSQL executes the first generated statement when the warehouse capability
// is configured, and prints a dim notice when it is not.
func (c *askCommander) runSQL(cfg *config.Config, reply *envelope.Reply) error {
	statement := reply.FirstSQL()
	if statement == "" {
		return nil
	}

	executor := warehouse.NewExecutor(warehouse.Config{
		Account:   cfg.Analyst.Account,
		User:      cfg.Warehouse.User,
		Password:  cfg.Warehouse.Password,
		Role:      cfg.Warehouse.Role,
		Warehouse: cfg.Warehouse.Warehouse,
		Database:  cfg.Warehouse.Database,
		Schema:    cfg.Warehouse.Schema,
	}, c.logger)

	if executor.Disabled() {
		fmt.Printf("  %s\n\n", cliui.DimStyle.Render("SQL execution disabled: configure warehouse credentials to run queries."))
		return nil
	}

	var result *warehouse.QueryResult
	err := cliui.Step(os.Stdout, "Running query", func() error {
		var stepErr error
		result, stepErr = executor.Execute(context.Background(), statement)
		return stepErr
	})
	if err != nil {
		fmt.Printf("\n  %s %v\n\n", cliui.FailMark, err)
		return nil
	}

	fmt.Println()
	fmt.Print(cliui.RenderTable(result.Columns, result.Rows))
	fmt.Println()

	return nil
}
