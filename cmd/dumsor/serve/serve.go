// Package servecmder provides the serve command for running the chat web
// front end.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kaundalabs/dumsor/pkg/analyst"
	"github.com/kaundalabs/dumsor/pkg/config"
	"github.com/kaundalabs/dumsor/pkg/logger"
	"github.com/kaundalabs/dumsor/pkg/warehouse"
	"github.com/kaundalabs/dumsor/web"
)

type ServeCommander struct {
	listen        string
	account       string
	semanticModel string
	debug         bool

	viper  *viper.Viper
	logger *zap.Logger
}

const serveLongDesc string = `Run the Dumsor chat web front end.

Serves the embedded chat page and its JSON API. Questions typed into the
page are forwarded to Cortex Analyst with the full conversation history;
replies come back as narrative text plus the generated SQL. When warehouse
credentials are configured the SQL is also executed and the results are
shown inline.

The analyst bearer token is read from DUMSOR_ANALYST_TOKEN and the
warehouse password from DUMSOR_WAREHOUSE_PASSWORD. Neither is ever stored
in config.toml.

Examples:
  dumsor serve
  dumsor serve --listen :9000
  dumsor serve --account ZEQWJME-NV17394 --semantic-model @DB.SCHEMA.STAGE/model.yaml`

const serveShortDesc string = "Run the chat web front end"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagListen,
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

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagAccount, &cmder.account)
	config.AddStringFlag(cmd, config.Flags, config.FlagSemanticModel, &cmder.semanticModel)

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	cfg := config.FromViper(c.viper)

	client := analyst.NewClient(analyst.Config{
		Account:           cfg.Analyst.Account,
		Token:             cfg.Analyst.Token,
		SemanticModelFile: cfg.Analyst.SemanticModelFile,
		Debug:             cfg.Analyst.Debug || c.debug,
	}, c.logger)

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
		c.logger.Info("warehouse credentials incomplete, SQL execution disabled")
	}

	server := web.NewServer(web.Config{
		ListenAddr: cfg.Server.Listen,
	}, client, executor, c.logger)

	c.logger.Info("starting web front end",
		zap.String("listen", cfg.Server.Listen),
		zap.String("account", cfg.Analyst.Account),
		zap.String("semantic_model", cfg.Analyst.SemanticModelFile),
		zap.Bool("execution_enabled", !executor.Disabled()),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("web server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}
