package bypass

import (
	"testing"

	"github.com/FranksOps/ducksearch/internal/scraper"
)

func TestDetectChallengeForm(t *testing.T) {
	page := &scraper.Page{
		StatusCode: 200,
		Body:       []byte(`<html><body><div class="serp__results">real results</div></body></html>`),
	}
	if detected, _ := detectChallengeForm(page); detected {
		t.Error("expected clean page not detected")
	}

	page = &scraper.Page{
		StatusCode: 200,
		Body:       []byte(`<html><body><form id="challenge-form" action="/html/"></form></body></html>`),
	}
	if detected, src := detectChallengeForm(page); !detected || src != "ChallengeForm" {
		t.Error("expected challenge form detection")
	}
}

func TestDetectChallengeForm_SubstringAnywhere(t *testing.T) {
	// The marker policy is a plain substring match, even outside a form tag
	page := &scraper.Page{
		StatusCode: 200,
		Body:       []byte(`benign text mentioning challenge-form in prose`),
	}
	if detected, _ := detectChallengeForm(page); !detected {
		t.Error("substring policy should match regardless of markup position")
	}
}

func TestChallenged(t *testing.T) {
	detectors := DefaultDetectors()

	page := &scraper.Page{Body: []byte(`<form id="challenge-form"></form>`)}
	if ok, src := Challenged(page, detectors); !ok || src == "" {
		t.Error("expected detection with source label")
	}

	clean := &scraper.Page{Body: []byte(`hello`)}
	if ok, _ := Challenged(clean, detectors); ok {
		t.Error("expected clean page to pass")
	}

	if ok, _ := Challenged(nil, detectors); ok {
		t.Error("nil page should never be challenged")
	}
}
