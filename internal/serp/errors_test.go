package serp

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_MessageFormat(t *testing.T) {
	e := NewError(KindTransport, "fetch results page", errors.New("connection refused"))
	want := "serp: fetch results page: connection refused"
	if e.Error() != want {
		t.Errorf("expected %q, got %q", want, e.Error())
	}

	bare := NewError(KindInput, "query is empty", nil)
	if bare.Error() != "serp: query is empty" {
		t.Errorf("unexpected message %q", bare.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	e := NewError(KindExtract, "parse results page", cause)
	if !errors.Is(e, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}

func TestIsKind(t *testing.T) {
	e := NewError(KindChallenge, "challenged on 5 consecutive attempts", nil)

	if !IsKind(e, KindChallenge) {
		t.Error("expected match on own kind")
	}
	if IsKind(e, KindTransport) {
		t.Error("expected no match on other kind")
	}

	wrapped := fmt.Errorf("search %q: %w", "golang", e)
	if !IsKind(wrapped, KindChallenge) {
		t.Error("expected match through wrapping")
	}

	if IsKind(errors.New("plain"), KindChallenge) {
		t.Error("expected no match on foreign error")
	}
	if IsKind(nil, KindChallenge) {
		t.Error("expected no match on nil")
	}
}

func TestKind_String(t *testing.T) {
	cases := map[Kind]string{
		KindInput:     "input",
		KindTransport: "transport",
		KindChallenge: "challenge",
		KindExtract:   "extract",
		Kind(99):      "unknown",
	}
	for k, want := range cases {
		if k.String() != want {
			t.Errorf("Kind(%d): expected %q, got %q", int(k), want, k.String())
		}
	}
}
