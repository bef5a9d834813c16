//go:build mage

package main

// Split divides corpus Markdown into bounded, sentence-aligned chunk sets.
// See prd001-splitting for full requirements.
func Split() error {
	return runCLI("split")
}
