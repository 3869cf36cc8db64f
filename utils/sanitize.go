package utils

import "github.com/microcosm-cc/bluemonday"

// One shared UGC policy covers everything users type: post text, comment
// text, and the post form's re-render path.
var sanitizer = bluemonday.UGCPolicy()

// Sanitize strips markup the UGC policy does not allow from user-submitted
// text before it is stored or rendered.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
