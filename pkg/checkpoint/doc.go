// Package checkpoint persists download progress so an interrupted media
// session can resume without refetching completed files. The state is a
// flat JSON list of completed archive-relative file paths in the archive
// root.
package checkpoint
