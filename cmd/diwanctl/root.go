package main

import (
	"diwan-api/config"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// commandContext lazily loads settings and the database for subcommands.
type commandContext struct {
	settings *config.Settings
	logger   zerolog.Logger
	db       *gorm.DB
}

func (c *commandContext) ensureSettings() (*config.Settings, error) {
	if c.settings != nil {
		return c.settings, nil
	}
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}
	_, c.logger = config.InitLogging(&config.Settings{LogLevel: settings.LogLevel, OTelServiceName: "diwanctl"})
	c.settings = settings
	return settings, nil
}

func (c *commandContext) ensureDB() (*gorm.DB, error) {
	if c.db != nil {
		return c.db, nil
	}
	settings, err := c.ensureSettings()
	if err != nil {
		return nil, err
	}
	db, err := config.OpenDB(settings)
	if err != nil {
		return nil, err
	}
	c.db = db
	return db, nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "diwanctl",
		Short:         "Administrative tasks for the Diwan API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newSeedCategoriesCommand(ctx))
	rootCmd.AddCommand(newHashPasswordsCommand(ctx))
	rootCmd.AddCommand(newCreateAdminCommand(ctx))
	rootCmd.AddCommand(newStatsCommand(ctx))

	return rootCmd
}
