//go:build mage

package main

// Enrich attaches readability, coherence, and composite quality metadata to split chunks.
// See prd002-enrichment for full requirements.
func Enrich() error {
	return runCLI("enrich")
}
