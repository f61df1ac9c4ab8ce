package rssfeeds

// FeedPresets maps short names usable as news_sources[].url to feed URLs.
var FeedPresets = map[string]string{
	"yahoo":       "https://finance.yahoo.com/news/rssindex",
	"cnbc":        "https://search.cnbc.com/rs/search/combinedcms/view.xml?partnerId=wrss01&id=100003114",
	"marketwatch": "https://feeds.content.dowjones.io/public/rss/mw_topstories",
	"wsj-markets": "https://feeds.a.dj.com/rss/RSSMarketsMain.xml",
	"ft":          "https://www.ft.com/rss/home",
}

// ResolveFeedURL returns the preset URL for a known name, otherwise the input.
func ResolveFeedURL(feedInput string) string {
	if url, exists := FeedPresets[feedInput]; exists {
		return url
	}
	return feedInput
}
