package author

import (
	"regexp"
	"strings"

	"finshorts/rssfeeds"
)

type rewrite struct {
	re   *regexp.Regexp
	with string
}

// Order matters: amounts are rewritten before bare symbols.
var speechRewrites = []rewrite{
	{regexp.MustCompile(`\$\s?(\d[\d,]*(?:\.\d+)?)(\s(?:thousand|million|billion|trillion))?`), "${1}${2} dollars"},
	{regexp.MustCompile(`€\s?(\d[\d,]*(?:\.\d+)?)(\s(?:thousand|million|billion|trillion))?`), "${1}${2} euros"},
	{regexp.MustCompile(`£\s?(\d[\d,]*(?:\.\d+)?)(\s(?:thousand|million|billion|trillion))?`), "${1}${2} pounds"},
	{regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s?%`), "${1} percent"},
	{regexp.MustCompile(`\bvs\.`), "versus"},
	{regexp.MustCompile(`\betc\.`), "etcetera"},
	{regexp.MustCompile(`\be\.g\.`), "for example"},
	{regexp.MustCompile(`\bi\.e\.`), "that is"},
	{regexp.MustCompile(`\bDr\.`), "Doctor"},
	{regexp.MustCompile(`\bMrs\.`), "Misses"},
	{regexp.MustCompile(`\bMr\.`), "Mister"},
	{regexp.MustCompile(`\bUSD\b`), "US dollars"},
	{regexp.MustCompile(`\bEUR\b`), "euros"},
	{regexp.MustCompile(`\bGBP\b`), "British pounds"},
	{regexp.MustCompile(`%`), " percent"},
	{regexp.MustCompile(`\$`), " dollars"},
	{regexp.MustCompile(`€`), " euros"},
	{regexp.MustCompile(`£`), " pounds"},
}

// OptimizeForSpeech rewrites symbols and abbreviations into the words a
// narrator would say.
func OptimizeForSpeech(text string) string {
	for _, r := range speechRewrites {
		text = r.re.ReplaceAllString(text, r.with)
	}
	return rssfeeds.CleanText(text)
}

var (
	fenceRe = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")
	labelRe = regexp.MustCompile(`(?i)^(hook|cta|call to action|script|body)\s*:\s*`)
)

// cleanResponse strips the wrapping models like to add around plain text.
func cleanResponse(s string) string {
	s = fenceRe.ReplaceAllString(s, "")
	s = rssfeeds.CleanText(s)
	s = labelRe.ReplaceAllString(s, "")
	s = strings.Trim(s, "\"'“”‘’ ")
	return rssfeeds.CleanText(s)
}
