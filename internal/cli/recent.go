package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vietddude/mend/internal/core/config"
	"github.com/vietddude/mend/internal/infra/storage/postgres"
)

var recentCmd = &cobra.Command{
	Use:   "recent [limit]",
	Short: "Show the most recent archived recovery outcomes",
	Args:  cobra.MaximumNArgs(1),
	Run:   runRecent,
}

func init() {
	rootCmd.AddCommand(recentCmd)
}

func runRecent(cmd *cobra.Command, args []string) {
	limit := 20
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			fmt.Printf("Invalid limit: %s\n", args[0])
			os.Exit(1)
		}
		limit = n
	}

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
	outcomes, err := repo.Recent(ctx, limit)
	if err != nil {
		slog.Error("Failed to query recent outcomes", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "TIME\tCATEGORY\tACTION\tATTEMPT\tRESULT")

	for _, o := range outcomes {
		result := "ok"
		if !o.Succeeded {
			result = o.Error
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			o.RecordedAt.Format("2006-01-02 15:04:05"),
			o.Category, o.Action.Kind, o.Attempt, result)
	}
	_ = w.Flush()
}
