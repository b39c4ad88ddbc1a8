package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/kwtag/internal/cli"
	"github.com/Veraticus/kwtag/internal/common"
	"github.com/Veraticus/kwtag/internal/config"
)

var (
	cfgFile   string
	appConfig *config.Config
	version   = "dev"
	rootCmd   = &cobra.Command{
		Use:   "kwtag",
		Short: "🏷️  Marketplace keyword, ASIN and pack-form tagger",
		Long: `kwtag labels advertising and catalogue spreadsheets with rule-based
categories: brand, competitor and category keywords, brand and competitor
ASIN targets, branded search terms and standardized pack forms.

Every run is recorded in a local history database.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/kwtag/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("db", "", "run history database (default: ~/.local/share/kwtag/history.db)")
	rootCmd.PersistentFlags().Bool("no-progress", false, "disable progress bars")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(tagCmd())
	rootCmd.AddCommand(packFormCmd())
	rootCmd.AddCommand(insightCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(fmt.Sprintf("%s/.config/kwtag", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("KWTAG")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if db, _ := cmd.Flags().GetString("db"); db != "" {
		viper.Set("database", db)
	}
	if noProgress, _ := cmd.Flags().GetBool("no-progress"); noProgress {
		viper.Set("progress.enabled", false)
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return common.NewUserError("Configuration is invalid", err)
	}
	appConfig = cfg

	if err := common.SetupLogger(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	slog.Debug("Loaded configuration", "file", viper.ConfigFileUsed(), "profiles", cfg.ProfileNames())
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kwtag %s\n", version)
		},
	}
}
