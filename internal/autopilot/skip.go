package autopilot

import "strings"

// DefaultSkipMarkers are the substrings the quiz service plants in bait
// questions aimed at automated answerers.
var DefaultSkipMarkers = []string{"防刷", "刷题"}

func matchMarker(text string, markers []string) (string, bool) {
	for _, marker := range markers {
		if marker != "" && strings.Contains(text, marker) {
			return marker, true
		}
	}
	return "", false
}
