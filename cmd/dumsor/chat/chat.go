// Package chatcmder provides the chat command for an interactive multi-turn
// session with Cortex Analyst in the terminal.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kaundalabs/dumsor/pkg/analyst"
	"github.com/kaundalabs/dumsor/pkg/analyst/envelope"
	"github.com/kaundalabs/dumsor/pkg/cliui"
	"github.com/kaundalabs/dumsor/pkg/config"
	"github.com/kaundalabs/dumsor/pkg/conversation"
	"github.com/kaundalabs/dumsor/pkg/logger"
	"github.com/kaundalabs/dumsor/pkg/utils"
	"github.com/kaundalabs/dumsor/pkg/warehouse"
)

var (
	userPrompt    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	analystPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("analyst> ")
)

type chatCommander struct {
	account       string
	semanticModel string
	debug         bool

	viper    *viper.Viper
	logger   *zap.Logger
	client   *analyst.Client
	executor *warehouse.Executor
	store    *conversation.Store
}

const chatLongDesc string = `Start an interactive chat session with Cortex Analyst.

Each question is sent with the full conversation history, so follow-up
questions ("and just for Accra?") resolve against earlier turns. Generated
SQL is printed after each answer and, when warehouse credentials are
configured, executed with the results shown as a table.

A failed request leaves the conversation as-is; just ask again.

Examples:
  dumsor chat
  dumsor chat --account ZEQWJME-NV17394`

const chatShortDesc string = "Interactive multi-turn chat in the terminal"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
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
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAccount, &cmder.account)
	config.AddStringFlag(cmd, config.Flags, config.FlagSemanticModel, &cmder.semanticModel)

	return cmd
}

func (c *chatCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	cfg := config.FromViper(c.viper)

	c.client = analyst.NewClient(analyst.Config{
		Account:           cfg.Analyst.Account,
		Token:             cfg.Analyst.Token,
		SemanticModelFile: cfg.Analyst.SemanticModelFile,
		Debug:             cfg.Analyst.Debug || c.debug,
	}, c.logger)

	c.executor = warehouse.NewExecutor(warehouse.Config{
		Account:   cfg.Analyst.Account,
		User:      cfg.Warehouse.User,
		Password:  cfg.Warehouse.Password,
		Role:      cfg.Warehouse.Role,
		Warehouse: cfg.Warehouse.Warehouse,
		Database:  cfg.Warehouse.Database,
		Schema:    cfg.Warehouse.Schema,
	}, c.logger)

	c.store = conversation.NewStore()

	fmt.Println()
	fmt.Printf("  %s %s\n",
		cliui.KeyStyle.Render("Semantic model:"),
		cliui.NameStyle.Render(utils.Truncate(cfg.Analyst.SemanticModelFile, 60)),
	)
	if c.executor.Disabled() {
		fmt.Printf("  %s\n", cliui.DimStyle.Render("SQL execution disabled: configure warehouse credentials to run queries."))
	}
	fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("Type your question and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(userPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}

		if err := c.turn(input); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println()
	return nil
}

// turn runs one question through the analyst and renders the reply. The user
// turn is appended before the request and stays appended even when the
// request fails, so a retry carries the question as context.
func (c *chatCommander) turn(question string) error {
	if err := c.store.AppendUser(question); err != nil {
		return fmt.Errorf("recording question: %w", err)
	}

	reply, err := c.client.Send(context.Background(), c.store.WireMessages())
	if err != nil {
		var transportErr *analyst.TransportError
		if errors.As(err, &transportErr) {
			fmt.Fprintf(os.Stderr, "  %s %v\n\n", cliui.FailMark, transportErr)
			return nil
		}
		return err
	}

	c.store.AppendAssistant(reply)

	fmt.Println()
	fmt.Print(analystPrompt)
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

	c.runSQL(reply)

	fmt.Println()
	return nil
}

// runSQL executes the first generated statement and renders the results.
// Execution problems never end the session; they print and move on.
func (c *chatCommander) runSQL(reply *envelope.Reply) {
	statement := reply.FirstSQL()
	if statement == "" {
		return
	}

	result, err := c.executor.Execute(context.Background(), statement)
	if err != nil {
		if errors.Is(err, warehouse.ErrDisabled) {
			return
		}
		fmt.Printf("  %s %v\n", cliui.FailMark, err)
		return
	}

	fmt.Print(cliui.RenderTable(result.Columns, result.Rows))
}
