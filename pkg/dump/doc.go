// Package dump pulls route content out of a WordPress REST API and persists
// it under the archive's data directory. Paginated routes become JSONL files
// with one record per line; singleton routes are saved as the raw JSON
// document the server returned.
package dump
