package fetch

import (
	"bytes"
	"regexp"
)

// Bot walls and CAPTCHA interstitials are short pages; matching is limited to
// the head of the body so a legitimate product page that merely mentions
// "captcha" in a review is not misclassified.
const botWallScanLimit = 8192

var botWallPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)access denied`),
	regexp.MustCompile(`(?i)bot detected`),
	regexp.MustCompile(`(?i)verify you are (a )?human`),
	regexp.MustCompile(`(?i)checking your browser`),
	regexp.MustCompile(`(?i)ddos protection`),
	regexp.MustCompile(`(?i)security check`),
	regexp.MustCompile(`(?i)too many requests`),
	regexp.MustCompile(`(?i)captcha`),
	regexp.MustCompile(`(?i)cf-challenge`),
	regexp.MustCompile(`(?i)unfortunately we are unable`),
}

// DetectBotWall reports whether a fetched body looks like a bot wall or
// CAPTCHA page rather than a product page.
func DetectBotWall(body []byte) (string, bool) {
	head := body
	if len(head) > botWallScanLimit {
		head = head[:botWallScanLimit]
	}
	head = bytes.ToLower(head)

	for _, pattern := range botWallPatterns {
		if match := pattern.Find(head); match != nil {
			return "blocked by bot protection (" + string(match) + ")", true
		}
	}
	return "", false
}
