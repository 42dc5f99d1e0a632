package mood

import (
	"regexp"
	"strings"
)

// urgentPatterns are self-harm phrases. False positives are acceptable here;
// missing any of these literal phrases is not.
var urgentPatterns = []string{
	`\bkill myself\b`,
	`\bkill me\b`,
	`\bi want to die\b`,
	`\bi'm going to kill myself\b`,
	`\bwant to end my life\b`,
	`\bend my life\b`,
	`\bending my life\b`,
	`\bsuicid\w*`,
	`\bhurt myself\b`,
	`\bwant to die\b`,
	`\bdie by suicide\b`,
}

var urgentRegex = regexp.MustCompile(`(?i)` + strings.Join(urgentPatterns, "|"))

// IsUrgent reports whether text contains self-harm language.
func IsUrgent(text string) bool {
	if text == "" {
		return false
	}
	// Curly apostrophes from mobile keyboards would otherwise dodge "i'm".
	text = strings.ReplaceAll(text, "’", "'")
	return urgentRegex.MatchString(text)
}
