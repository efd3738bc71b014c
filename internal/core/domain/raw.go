package domain

// RawDocument represents opaque bytes read from a file or feed.
// It is the input to a normaliser.
type RawDocument struct {
	// URI is the original location (file path, URL, etc).
	URI string

	// MIMEType is the content type (e.g., "text/markdown").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Source is the origin recorded on the resulting document.
	Source string

	// Metadata contains reader-specific key-value pairs.
	Metadata map[string]any
}
