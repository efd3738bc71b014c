// Package normalisers turns raw file bytes into knowledge documents ready for
// ingestion. Format-specific normalisers live in subpackages and are
// registered with a Registry at startup; the Registry picks one by MIME type,
// falling back to the file extension when no MIME type is given.
package normalisers
