// Package application provides application initialization and dependency wiring.
// It loads and resolves the site documents, publishes the result to storage,
// and builds the inspection API router and HTTP server, keeping the main
// package focused on CLI parsing and orchestration.
package application
