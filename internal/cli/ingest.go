package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"bankassist/internal/indexer"
)

var (
	ingestPath string
	ingestJSON bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Rebuild the similarity index from the corpus",
	Long: `Segments every .txt document under DATA_DIR into customer records,
embeds them and replaces the similarity index. Blocks without a
"Customer ID: CUST<digits>" line are dropped and counted.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestPath, "path", "", "corpus file or directory (defaults to DATA_DIR)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output stats as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	setupLogging(cfg, os.Stderr)
	ctx := cmd.Context()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	if err := a.validateEmbeddings(ctx); err != nil {
		return err
	}

	path := ingestPath
	if path == "" {
		path = cfg.DataDir
	}

	stats, err := a.pipeline().Run(ctx, path)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	if ingestJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printStats(cmd, stats)
	return nil
}

func printStats(cmd *cobra.Command, stats *indexer.Stats) {
	cmd.Printf("Files scanned:    %d\n", stats.FilesScanned)
	cmd.Printf("Blocks seen:      %d\n", stats.BlocksSeen)
	cmd.Printf("Blocks dropped:   %d\n", stats.BlocksDropped)
	cmd.Printf("Records indexed:  %d\n", stats.RecordsIndexed)
	cmd.Printf("Record tokens:    min %d, max %d, mean %.2f, p95 %d\n",
		stats.RecordTokenStats.Min, stats.RecordTokenStats.Max, stats.RecordTokenStats.Mean, stats.RecordTokenStats.P95)
	cmd.Printf("Index version:    %s (segmenter %s)\n", stats.IndexVersion, stats.SegmenterVersion)

	owners := make([]string, 0, len(stats.PerCustomer))
	for owner := range stats.PerCustomer {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	for _, owner := range owners {
		cmd.Printf("  %-12s %d\n", owner, stats.PerCustomer[owner])
	}
}
