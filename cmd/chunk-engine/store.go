// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/chunk-engine/internal/store"
	"github.com/pdiddy/chunk-engine/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the chunk store (ingest, query, export)",
	Long: `Store manages a local SQLite chunk index built from enriched chunk
sets. Use subcommands to ingest chunks, query them with full-text search
and quality filters, or export.`,
}

// --- ingest subcommand ---

var storeIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest enriched chunks into the chunk store",
	Long: `Ingest reads enriched chunk sets from corpus/enriched/, indexes them
into a SQLite database with FTS5 full-text search, and writes an export
file. Unchanged documents are skipped on subsequent runs.`,
	RunE: runStoreIngest,
}

func runStoreIngest(cmd *cobra.Command, args []string) error {
	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := s.Ingest(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d document(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- query subcommand ---

var storeQueryCmd = &cobra.Command{
	Use:   "query [terms]",
	Short: "Query the chunk store with full-text search and quality filters",
	Long: `Query searches the chunk store using FTS5 full-text search, quality
filters (minimum overall score, high-quality only, flag exclusion),
structured filters (document, document type), or a combination.`,
	RunE: runStoreQuery,
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search terms, --document, --type, --min-quality, --high-quality, or --without-flag")
	}

	results, err := s.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(results, jsonOutput)
}

func formatQueryOutput(results []store.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-50s  %-20s  %-16s  %-7s  %s\n",
		"Rank", "Text", "Document", "Section", "Overall", "Flags")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 112))

	for i, r := range results {
		text := r.Text
		if len(text) > 50 {
			text = text[:47] + "..."
		}
		doc := r.DocumentID
		if len(doc) > 20 {
			doc = doc[:17] + "..."
		}
		section := r.SectionContext
		if len(section) > 16 {
			section = section[:13] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-50s  %-20s  %-16s  %-7.2f  %s\n",
			i+1, text, doc, section, r.Quality.Overall(),
			strings.Join(r.Quality.Flags(), ","))
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the chunk store to YAML or JSON",
	Long: `Export writes the full chunk store (or a filtered subset) to
corpus/export.yaml or export.json. Supports the same filter flags
as query for partial exports.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	opts := queryOptsFromFlags(cmd, args)

	switch format {
	case "yaml", "":
		if err := s.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to export.yaml")
	case "json":
		if err := s.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to export.json")
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func storeConfig(cmd *cobra.Command) types.StoreConfig {
	indexDir, _ := cmd.Flags().GetString("index-dir")
	if indexDir == "" {
		indexDir = "index"
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return types.StoreConfig{
		CorpusDir:  corpusDirFlag(cmd),
		IndexDir:   indexDir,
		MaxResults: maxResults,
	}
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	documentID, _ := cmd.Flags().GetString("document")
	documentType, _ := cmd.Flags().GetString("type")
	minQuality, _ := cmd.Flags().GetFloat64("min-quality")
	highQuality, _ := cmd.Flags().GetBool("high-quality")
	withoutFlag, _ := cmd.Flags().GetString("without-flag")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return store.QueryOptions{
		Query:        strings.Join(args, " "),
		DocumentID:   documentID,
		DocumentType: documentType,
		MinOverall:   minQuality,
		HighQuality:  highQuality,
		WithoutFlag:  withoutFlag,
		MaxResults:   maxResults,
	}
}

func init() {
	for _, c := range []*cobra.Command{storeIngestCmd, storeQueryCmd, storeExportCmd} {
		c.Flags().String("corpus-dir", "", "base directory for corpus artifacts (default corpus)")
		c.Flags().String("index-dir", "index", "directory holding the SQLite chunk index")
		c.Flags().Int("max-results", 0, "maximum number of results (default 20)")
	}
	for _, c := range []*cobra.Command{storeQueryCmd, storeExportCmd} {
		c.Flags().String("document", "", "filter by document ID")
		c.Flags().String("type", "", "filter by document type")
		c.Flags().Float64("min-quality", 0, "minimum overall quality score")
		c.Flags().Bool("high-quality", false, "only chunks meeting the high-quality threshold")
		c.Flags().String("without-flag", "", "exclude chunks carrying the given issue flag")
	}
	storeQueryCmd.Flags().Bool("json", false, "emit results as JSON")
	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	storeCmd.AddCommand(storeIngestCmd, storeQueryCmd, storeExportCmd)
	rootCmd.AddCommand(storeCmd)
}
