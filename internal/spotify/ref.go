package spotify

import (
	"regexp"
	"strings"
)

// Accepted external track-reference forms. Anything that matches none of
// them is assumed to already be a bare catalog id.
var trackRefPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https://open\.spotify\.com/track/([A-Za-z0-9]+)`),
	regexp.MustCompile(`^https://play\.spotify\.com/track/([A-Za-z0-9]+)`),
	regexp.MustCompile(`^spotify:track:([A-Za-z0-9]+)`),
}

// ParseTrackRef normalizes a user-supplied track reference (web URL under
// either known hostname, URI form, or bare id) to a catalog id.
func ParseTrackRef(ref string) string {
	ref = strings.TrimSpace(ref)
	for _, re := range trackRefPatterns {
		if matches := re.FindStringSubmatch(ref); matches != nil {
			return matches[1]
		}
	}
	return ref
}
