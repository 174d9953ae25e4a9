// Package siteconf resolves declarative site documents into an immutable,
// validated configuration for the external build and runtime framework.
//
// A Document records which options an author actually wrote, so documents can
// be layered with Merge before a Resolver validates the result. Integrations
// and adapters are immutable descriptors created through factory functions.
package siteconf
