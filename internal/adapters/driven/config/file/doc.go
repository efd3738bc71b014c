// Package file provides the TOML-backed configuration store.
//
// Keys are addressed in dot notation ("embedding.provider") and persisted as
// nested tables. Environment variables named ALOHA_<KEY> with dots replaced by
// underscores override file values without being written back.
package file
