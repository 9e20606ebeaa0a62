package slack

import "regexp"

// Slack renders links as <https://example.com|Text!>. The URL may omit the
// scheme and carry a port or path; the label is everything after the pipe.
var linkPattern = regexp.MustCompile(
	`<(?:https?://)?[\w-]+(?:\.[\w-]+)+\.?(?::\d+)?(?:/\S*)?\|([^>]+)>`,
)

// CleanLinks strips Slack's link markup from text, keeping only the label.
// Applying it twice yields the same result as once.
func CleanLinks(text string) string {
	return linkPattern.ReplaceAllString(text, "$1")
}
