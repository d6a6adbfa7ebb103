package bypass

import (
	"bytes"

	"github.com/FranksOps/ducksearch/internal/scraper"
)

// Detector examines a fetched page to determine if a bot protection
// mechanism answered instead of real content.
type Detector func(page *scraper.Page) (detected bool, source string)

// DefaultDetectors returns the standard list of challenge detectors.
func DefaultDetectors() []Detector {
	return []Detector{
		detectChallengeForm,
	}
}

// Challenged runs the page through all provided detectors and reports the
// first hit together with its source label.
func Challenged(page *scraper.Page, detectors []Detector) (bool, string) {
	if page == nil {
		return false, ""
	}
	for _, d := range detectors {
		if detected, source := d(page); detected {
			return true, source
		}
	}
	return false, ""
}

// detectChallengeForm looks for the interstitial challenge form DuckDuckGo
// serves to suspected bots. A bare substring match is a known approximation:
// a benign page embedding the marker text would count as challenged, and a
// reworked interstitial would slip through.
func detectChallengeForm(page *scraper.Page) (bool, string) {
	if bytes.Contains(page.Body, []byte("challenge-form")) {
		return true, "ChallengeForm"
	}
	return false, ""
}
