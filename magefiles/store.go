//go:build mage

package main

// Index ingests enriched chunks into the SQLite chunk store and builds the retrieval index.
// See prd003-store for full requirements.
func Index() error {
	return runCLI("store", "ingest")
}
