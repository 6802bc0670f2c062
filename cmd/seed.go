package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/goabroad-labs/studytables/internal/config"
	"github.com/goabroad-labs/studytables/internal/seed"
)

var seedOpts seed.Options

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the store with demo pages and comparison tables",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedOpts.Pages, "pages", 5, "number of detail pages to create")
	seedCmd.Flags().IntVar(&seedOpts.TablesPerPage, "tables", 2, "tables per page")
	seedCmd.Flags().IntVar(&seedOpts.RowsPerTable, "rows", 6, "rows per table")
	seedCmd.Flags().Int64Var(&seedOpts.Seed, "seed", 0, "random seed (0 for random)")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	pages, tables, err := seed.Run(ctx, st, seedOpts)
	if err != nil {
		return err
	}
	log.Printf("seeded %d pages with %d tables", pages, tables)
	return nil
}
