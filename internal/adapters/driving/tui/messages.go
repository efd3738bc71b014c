package tui

import (
	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

// searchDoneMsg carries a finished search.
type searchDoneMsg struct {
	query    string
	response domain.RetrievalResponse
}

// contentLoadedMsg carries a document body for the reader.
type contentLoadedMsg struct {
	id      string
	title   string
	content string
	err     error
}
