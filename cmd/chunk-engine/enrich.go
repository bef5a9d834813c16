// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/chunk-engine/internal/enrich"
	"github.com/pdiddy/chunk-engine/internal/segment"
	"github.com/pdiddy/chunk-engine/internal/textstat"
	"github.com/pdiddy/chunk-engine/pkg/types"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Attach quality metadata to split chunks",
	Long: `Enrich reads chunk sets from corpus/chunks/ and per-document source
metadata from corpus/metadata/, computes readability, coherence, and
composite quality scores with issue flags for every chunk, and writes
enriched chunk sets to corpus/enriched/. Unchanged chunk sets are
skipped on subsequent runs.`,
	RunE: runEnrich,
}

func runEnrich(cmd *cobra.Command, args []string) error {
	cfg := types.EnrichmentConfig{
		CorpusDir: corpusDirFlag(cmd),
	}

	detector, err := segment.Default()
	if err != nil {
		return err
	}
	enricher := enrich.New(textstat.Heuristic{}, segment.New(detector))

	summary, err := enricher.EnrichAll(context.Background(), cfg, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d document(s) failed enrichment", summary.Failed)
	}
	return nil
}

func init() {
	enrichCmd.Flags().String("corpus-dir", "", "base directory for corpus artifacts (default corpus)")

	rootCmd.AddCommand(enrichCmd)
}
