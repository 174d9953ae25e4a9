// Package document reads site documents from YAML, TOML or JSON files and
// turns them into siteconf.Document layers.
package document
