package rssfeeds

import (
	"reflect"
	"testing"
)

func TestStripHTML(t *testing.T) {
	got := StripHTML(`<div><p>Shares <b>rose</b> 3%</p><script>track()</script><img src="x.png"></div>`)
	if got != "Shares rose 3%" {
		t.Fatalf("StripHTML = %q", got)
	}
	if got := StripHTML("  plain   text "); got != "plain text" {
		t.Fatalf("plain = %q", got)
	}
}

func TestExtractKeywords(t *testing.T) {
	text := "Tesla stock jumps as Tesla deliveries beat; the stock market cheers deliveries and Tesla."
	got := ExtractKeywords(text, 3)
	want := []string{"tesla", "stock", "deliveries"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractKeywords = %v, want %v", got, want)
	}
	if ExtractKeywords(text, 0) != nil {
		t.Fatal("max 0 should return nil")
	}
}

func TestMatchesFilter(t *testing.T) {
	if !MatchesFilter("anything", nil) {
		t.Fatal("empty filter must match")
	}
	if !MatchesFilter("Apple Earnings Preview", []string{"earnings"}) {
		t.Fatal("case-insensitive match failed")
	}
	if MatchesFilter("Oil prices", []string{"earnings", " "}) {
		t.Fatal("unexpected match")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("alpha beta gamma delta", 12); got != "alpha beta" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveFeedURL(t *testing.T) {
	if ResolveFeedURL("cnbc") == "cnbc" {
		t.Fatal("preset not resolved")
	}
	if got := ResolveFeedURL("https://x.test/rss"); got != "https://x.test/rss" {
		t.Fatalf("got %q", got)
	}
}
