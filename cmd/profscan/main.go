// Package main provides the entry point for the profscan CLI.
//
// profscan harvests public advisor profiles from sitemap-indexed websites.
// It expands sitemap indexes, fetches profile pages politely, extracts
// contact data from structured markup, and exports the result as a table.
//
// Usage:
//
//	profscan harvest
//	profscan discover --sitemap https://example.com/sitemap.xml --marker /advisor/
//
// See --help for all available options.
package main

// main is the entry point for profscan.
func main() {
	Execute()
}
