package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goabroad-labs/studytables/internal/config"
	"github.com/goabroad-labs/studytables/internal/store"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "studytables",
	Short: "Back-office service for study-abroad program pages",
	Long: `studytables serves the admin and public API for study-program
detail pages and the dynamic comparison tables attached to them.`,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(func() { cobra.CheckErr(config.Init(cfgFile)) })

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./studytables.yaml)")
	rootCmd.PersistentFlags().String("driver", "", "store driver: sqlite or postgres")
	rootCmd.PersistentFlags().String("sqlite-path", "", "path to the sqlite database file")
	rootCmd.PersistentFlags().String("database-url", "", "postgres connection URL")

	viper.BindPFlag("driver", rootCmd.PersistentFlags().Lookup("driver"))
	viper.BindPFlag("sqlite_path", rootCmd.PersistentFlags().Lookup("sqlite-path"))
	viper.BindPFlag("database_url", rootCmd.PersistentFlags().Lookup("database-url"))
}

// openStore builds the configured store backend.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Driver {
	case "postgres":
		return store.OpenPostgres(ctx, cfg.DatabaseURL, cfg.QueryTimeout)
	default:
		return store.OpenSQLite(cfg.SQLitePath)
	}
}
