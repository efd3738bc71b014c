package services

import (
	"net/url"
	"strings"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/logger"
)

// SourceValidator drops documents whose URL points at a placeholder host.
type SourceValidator struct {
	blocked []string
}

// NewSourceValidator creates a validator. A nil list uses the default
// placeholder hosts; an empty non-nil list blocks nothing.
func NewSourceValidator(blockedHosts []string) *SourceValidator {
	if blockedHosts == nil {
		blockedHosts = domain.DefaultBlockedHosts()
	}
	blocked := make([]string, 0, len(blockedHosts))
	for _, h := range blockedHosts {
		h = normaliseHost(h)
		if h != "" {
			blocked = append(blocked, h)
		}
	}
	return &SourceValidator{blocked: blocked}
}

// BlockedHosts returns the normalised blocked host list.
func (v *SourceValidator) BlockedHosts() []string {
	return append([]string(nil), v.blocked...)
}

// IsTrusted reports whether the document may be returned to a caller.
// Documents without a URL are always trusted. A URL that cannot be parsed
// is not.
func (v *SourceValidator) IsTrusted(doc *domain.KnowledgeDocument) bool {
	raw := strings.TrimSpace(doc.URL)
	if raw == "" {
		return true
	}

	host, ok := hostOf(raw)
	if !ok {
		return false
	}
	for _, b := range v.blocked {
		if host == b || strings.HasSuffix(host, "."+b) {
			return false
		}
	}
	return true
}

// Filter returns the documents that pass IsTrusted, preserving order.
func (v *SourceValidator) Filter(docs []domain.ScoredDocument) []domain.ScoredDocument {
	out := make([]domain.ScoredDocument, 0, len(docs))
	for _, d := range docs {
		if d.Document == nil {
			continue
		}
		if !v.IsTrusted(d.Document) {
			logger.Debug("Dropping untrusted source %s (%s)", d.Document.ID, d.Document.URL)
			continue
		}
		out = append(out, d)
	}
	return out
}

// hostOf extracts the lowercase host from a URL. Scheme-less values such as
// "example.com/post" are parsed as network paths.
func hostOf(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if u.Host == "" && u.Scheme == "" {
		u, err = url.Parse("//" + raw)
		if err != nil {
			return "", false
		}
	}
	return normaliseHost(u.Hostname()), true
}

func normaliseHost(h string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(h)), ".")
}
