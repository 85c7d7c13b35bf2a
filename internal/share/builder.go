package share

import (
	"strings"
	"unicode/utf8"
)

// Platform selects the character budget the built message must fit.
type Platform string

const (
	PlatformTwitter  Platform = "twitter"
	PlatformBluesky  Platform = "bluesky"
	PlatformMastodon Platform = "mastodon"
	PlatformWhatsApp Platform = "whatsapp"
	PlatformGeneric  Platform = "generic"
)

var platformBudgets = map[Platform]int{
	PlatformTwitter:  280,
	PlatformBluesky:  300,
	PlatformMastodon: 500,
	PlatformWhatsApp: 1000,
	PlatformGeneric:  1000,
}

// MaxLength returns the character budget for a platform. Unknown platforms
// get the generic budget.
func (p Platform) MaxLength() int {
	if n, ok := platformBudgets[p]; ok {
		return n
	}
	return platformBudgets[PlatformGeneric]
}

// DefaultHashtag is appended as the footer hashtag line unless the caller
// overrides it.
const DefaultHashtag = "#StepLeague"

// BuildOptions controls footer content and the truncation budget.
type BuildOptions struct {
	Platform       Platform `json:"platform"`
	IncludeHashtag bool     `json:"include_hashtag"`
	IncludeURL     bool     `json:"include_url"`
	Hashtag        string   `json:"hashtag,omitempty"`
	URL            string   `json:"url,omitempty"`
}

const ellipsis = "..."

// BuildMessage assembles the selected blocks into a multi-line message.
// Selection is normalized first (prerequisites pulled in, duplicates
// dropped), blocks render in registry order, unavailable blocks are
// skipped, and the footer lines are appended last. If the joined message
// exceeds the platform budget, content lines are re-accumulated greedily
// with the footer length reserved, so the footer always survives
// truncation. Lengths are counted in runes.
func BuildMessage(d *MessageData, sel []ContentBlock, opts BuildOptions) (string, error) {
	normalized, err := NormalizeSelection(sel)
	if err != nil {
		return "", err
	}

	var contentLines []string
	for _, b := range normalized {
		if !IsAvailable(d, b) {
			continue
		}
		rendered := renderFuncs[b](d)
		if rendered == "" {
			continue
		}
		contentLines = append(contentLines, strings.Split(rendered, "\n")...)
	}

	var footerLines []string
	if opts.IncludeHashtag {
		tag := opts.Hashtag
		if tag == "" {
			tag = DefaultHashtag
		}
		footerLines = append(footerLines, tag)
	}
	if opts.IncludeURL && opts.URL != "" {
		footerLines = append(footerLines, opts.URL)
	}

	max := opts.Platform.MaxLength()
	footer := strings.Join(footerLines, "\n")

	full := strings.Join(append(append([]string{}, contentLines...), footerLines...), "\n")
	if utf8.RuneCountInString(full) <= max {
		return full, nil
	}

	return truncate(contentLines, footer, max), nil
}

// truncate re-accumulates content lines greedily. The footer and the
// newline joining it are reserved up front, plus three characters for the
// ellipsis marker; a single first-fit pass then keeps whole lines until the
// next one would overflow. The footer itself is never cut, even in the
// degenerate case where it alone exceeds the budget.
func truncate(contentLines []string, footer string, max int) string {
	reserved := 0
	if footer != "" {
		reserved = utf8.RuneCountInString(footer) + 1
	}
	limit := max - reserved - len(ellipsis)

	var kept []string
	used := 0
	for _, line := range contentLines {
		cost := utf8.RuneCountInString(line)
		if len(kept) > 0 {
			cost++ // joining newline
		}
		if used+cost > limit {
			break
		}
		kept = append(kept, line)
		used += cost
	}

	out := strings.Join(kept, "\n") + ellipsis
	if footer != "" {
		out += "\n" + footer
	}
	return out
}
