// Package storage provides atomic file persistence rooted at the archive
// directory. All dump and download output flows through it so partial
// writes from an interrupted run are never mistaken for finished files.
package storage
