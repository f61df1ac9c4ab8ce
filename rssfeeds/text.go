package rssfeeds

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`the a an and or but in on at to for of with by is are was were be been
		have has had do does did will would could should may might must can this that these those
		i you he she it we they me him her us them my your his its our their from as said says
		not new more after over about than into also just what which who how why when where`) {
		stopWords[w] = struct{}{}
	}
}

// CleanText collapses runs of whitespace and trims.
func CleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// StripHTML returns the visible text of an HTML fragment.
func StripHTML(html string) string {
	if !strings.ContainsAny(html, "<&") {
		return CleanText(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return CleanText(html)
	}
	doc.Find("script, style, img, figure").Remove()
	return CleanText(doc.Text())
}

// ExtractKeywords returns up to max words by frequency, ignoring stop words
// and words of two characters or fewer. Ties keep first-appearance order.
func ExtractKeywords(text string, max int) []string {
	if max <= 0 {
		return nil
	}
	words := strings.Fields(nonWordRe.ReplaceAllString(strings.ToLower(text), " "))

	counts := make(map[string]int)
	var order []string
	for _, w := range words {
		if len([]rune(w)) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	// Stable insertion sort by count keeps ties in appearance order.
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && counts[order[j]] > counts[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	if len(order) > max {
		order = order[:max]
	}
	return order
}

// MatchesFilter reports whether text contains any filter term
// (case-insensitive). An empty filter matches everything.
func MatchesFilter(text string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, term := range filter {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" && strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// Truncate cuts s to at most n runes on a word boundary when possible.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	cut := string(r[:n])
	if i := strings.LastIndex(cut, " "); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}
