package deduplication

import (
	"encoding/json"
	"net/url"
	"strings"
	"unicode"

	"finshorts/types"

	"golang.org/x/text/unicode/norm"
)

// ContentHash is sha256(title|summary) over normalized text, so the same
// story re-published with different spacing or unicode forms hashes equal.
func ContentHash(title, summary string) string {
	return types.HashString(normalizeText(title) + "|" + normalizeText(summary))
}

// ScriptHash hashes the generated script fields as canonical JSON (sorted keys).
func ScriptHash(s *types.Script) string {
	keywords := s.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	payload := map[string]any{
		"content":  s.Body,
		"cta":      s.CTA,
		"hook":     s.Hook,
		"keywords": keywords,
	}
	// encoding/json sorts map keys, which keeps the hash stable.
	b, _ := json.Marshal(payload)
	return types.HashString(string(b))
}

// UploadFingerprint identifies a video by its title and spoken content.
func UploadFingerprint(title, narration string) string {
	return types.HashString(strings.TrimSpace(title) + "|" + strings.TrimSpace(narration))
}

func normalizeText(t string) string {
	t = norm.NFKC.String(t)
	t = strings.ToLower(strings.TrimSpace(t))
	return strings.Join(strings.Fields(t), " ")
}

// NormalizeURL drops fragments and tracking parameters and lowercases the
// scheme and host, so feed links differing only in campaign tags compare equal.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || lk == "fbclid" || lk == "gclid" {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()

	return strings.TrimRight(u.String(), "/")
}

// Slug turns a source name into a file-name-safe token.
func Slug(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	s := strings.Trim(b.String(), "_")
	if s == "" {
		return "unknown"
	}
	return s
}
