package publish

import (
	"strings"
	"time"
	"unicode"

	"finshorts/config"
	"finshorts/deduplication"
	"finshorts/rssfeeds"
	"finshorts/types"
)

const maxTagChars = 500

// TruncateTitle keeps titles within the platform's 100 character limit.
func TruncateTitle(title string) string {
	title = rssfeeds.CleanText(title)
	r := []rune(title)
	if len(r) <= config.MaxTitleLength {
		return title
	}
	return string(r[:config.MaxTitleLength-3]) + "..."
}

// BuildMetadata assembles upload metadata for a thumbnailed item.
func BuildMetadata(item *types.WorkItem, yt config.YouTube, now time.Time) *types.VideoMetadata {
	title := TruncateTitle(item.Title)
	narration := ""
	if item.Script != nil {
		narration = item.Script.Narration
	}
	return &types.VideoMetadata{
		WorkItemID:    item.ID,
		Title:         title,
		Description:   BuildDescription(item),
		Tags:          BuildTags(item.Keywords, yt.Tags),
		CategoryID:    yt.CategoryID,
		PrivacyStatus: yt.PrivacyStatus,
		Language:      yt.DefaultLanguage,
		VideoPath:     item.VideoPath,
		ThumbnailPath: item.ThumbnailPath,
		Fingerprint:   deduplication.UploadFingerprint(title, narration),
		GeneratedAt:   now.UTC(),
	}
}

// BuildDescription is hook, body, call to action, hashtags, source and the
// disclaimer footer, separated by blank lines.
func BuildDescription(item *types.WorkItem) string {
	var parts []string
	if s := item.Script; s != nil {
		if s.Hook != "" {
			parts = append(parts, s.Hook)
		}
		if body := []rune(s.Body); len(body) > config.MaxDescriptionBody {
			parts = append(parts, string(body[:config.MaxDescriptionBody])+"...")
		} else if s.Body != "" {
			parts = append(parts, s.Body)
		}
		if s.CTA != "" {
			parts = append(parts, s.CTA)
		}
	}
	if tags := Hashtags(item.Keywords); tags != "" {
		parts = append(parts, tags)
	}
	if item.URL != "" {
		parts = append(parts, "Source: "+item.URL)
	}
	parts = append(parts, config.DescriptionDisclaimer+"\n\n#Finance #News #Investing #Markets #Shorts")
	return strings.Join(parts, "\n\n")
}

// Hashtags turns up to five keywords into #tags.
func Hashtags(keywords []string) string {
	var tags []string
	for _, k := range keywords {
		tag := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, k)
		if tag == "" {
			continue
		}
		tags = append(tags, "#"+tag)
		if len(tags) == config.MaxHashtags {
			break
		}
	}
	return strings.Join(tags, " ")
}

// BuildTags merges keywords and default tags without duplicates, keeping the
// combined length within the platform limit.
func BuildTags(keywords, defaults []string) []string {
	seen := make(map[string]struct{})
	var tags []string
	total := 0
	for _, t := range append(append([]string(nil), keywords...), defaults...) {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		if total+len(t)+1 > maxTagChars {
			break
		}
		seen[key] = struct{}{}
		tags = append(tags, t)
		total += len(t) + 1
	}
	return tags
}
