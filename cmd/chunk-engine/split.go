// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/chunk-engine/internal/chunker"
	"github.com/pdiddy/chunk-engine/internal/segment"
	"github.com/pdiddy/chunk-engine/pkg/types"
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split corpus Markdown into bounded chunks",
	Long: `Split reads converted Markdown from corpus/markdown/, divides each
document into heading sections, packs sentences into word-bounded chunks
with sentence overlap, and writes per-document chunk sets to
corpus/chunks/. Unchanged documents are skipped on subsequent runs.`,
	RunE: runSplit,
}

func runSplit(cmd *cobra.Command, args []string) error {
	maxWords, _ := cmd.Flags().GetInt("max-chunk-words")
	overlap, _ := cmd.Flags().GetInt("overlap-sentences")

	cfg := types.ChunkingConfig{
		CorpusDir:        corpusDirFlag(cmd),
		MaxChunkWords:    maxWords,
		OverlapSentences: overlap,
	}

	detector, err := segment.Default()
	if err != nil {
		return err
	}
	splitter := chunker.New(segment.New(detector), cfg.MaxChunkWords, cfg.OverlapSentences)

	summary, err := splitter.SplitAll(context.Background(), cfg, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d document(s) failed splitting", summary.Failed)
	}
	return nil
}

func init() {
	splitCmd.Flags().String("corpus-dir", "", "base directory for corpus artifacts (default corpus)")
	splitCmd.Flags().Int("max-chunk-words", chunker.DefaultMaxChunkWords, "maximum words per chunk")
	splitCmd.Flags().Int("overlap-sentences", chunker.DefaultOverlapSentences, "sentences carried across chunk boundaries")

	rootCmd.AddCommand(splitCmd)
}
