// Package config loads the tool's runtime configuration from multiple sources
// (YAML files, environment variables, CLI flags) with precedence: CLI flags >
// YAML config > Environment variables > Defaults. Site documents themselves are
// handled by the document and siteconf packages; this package only records
// where to find them and how to serve them.
package config
