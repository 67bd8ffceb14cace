package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vietddude/mend/internal/core/config"
	"github.com/vietddude/mend/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show archived recovery outcomes per failure category",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	repo := postgres.NewOutcomeRepo(db)
	summaries, err := repo.Summary(ctx)
	if err != nil {
		slog.Error("Failed to query outcome summary", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "CATEGORY\tTOTAL\tRECOVERED\tRATE")

	for _, s := range summaries {
		rate := 0.0
		if s.Total > 0 {
			rate = float64(s.Succeeded) / float64(s.Total) * 100
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%.1f%%\n", s.Category, s.Total, s.Succeeded, rate)
	}
	_ = w.Flush()
}
