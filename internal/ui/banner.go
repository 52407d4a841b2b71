package ui

import "strings"

const (
	bannerMarkerCharacterConstant = "!"
	bannerMarkerWidthConstant     = 80
	bannerLinePrefixConstant      = "! "
	bannerBareMarkerLineConstant  = "!"
	bannerLineSeparatorConstant   = "\n"
)

// FailureBanner frames a title and message between marker lines so fatal
// conditions stand out in CI log streams.
func FailureBanner(title string, message string) string {
	markerLine := strings.Repeat(bannerMarkerCharacterConstant, bannerMarkerWidthConstant)

	bannerLines := []string{
		"",
		markerLine,
		bannerLinePrefixConstant + title,
	}

	if len(strings.TrimSpace(message)) > 0 {
		bannerLines = append(bannerLines, bannerBareMarkerLineConstant, bannerLinePrefixConstant+message)
	}

	bannerLines = append(bannerLines, markerLine)

	return strings.Join(bannerLines, bannerLineSeparatorConstant)
}
