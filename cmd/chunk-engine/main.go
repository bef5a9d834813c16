// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the chunk-engine CLI.
// Implements: prd001-splitting, prd002-enrichment, prd003-store
// (CLI surface). See docs/ARCHITECTURE § Pipeline Interface.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the chunk-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "chunk-engine",
	Short: "Quality-scored chunking for RAG corpora",
	Long: `chunk-engine segments converted document text into bounded chunks and
enriches each chunk with quality metadata: readability, coherence,
completeness, OCR confidence, a weighted composite score, and issue flags.

Each pipeline stage is a subcommand: split produces chunks from corpus
Markdown, enrich attaches quality metadata, and store indexes enriched
chunks into a SQLite database for filtered full-text retrieval.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./chunk-engine.yaml or ~/.config/chunk-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("chunk-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "chunk-engine"))
		}
	}

	viper.SetEnvPrefix("CHUNK_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// corpusDirFlag resolves the corpus directory from the flag, then the
// config file, then the default.
func corpusDirFlag(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("corpus-dir")
	if dir != "" {
		return dir
	}
	if v := viper.GetString("corpus_dir"); v != "" {
		return v
	}
	return "corpus"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
