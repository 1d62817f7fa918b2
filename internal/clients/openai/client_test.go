package openai

import "testing"

func TestCleanJSONContentFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\": 1}\n```":         `{"a": 1}`,
		"```\n{\"a\": 1}\n```":             `{"a": 1}`,
		`{"a": 1}`:                         `{"a": 1}`,
		"Here is the JSON:\n{\"a\": 1}":    `{"a": 1}`,
		"The response follows. [1, 2, 3]":  `[1, 2, 3]`,
		"  \n {\"chatResponse\": \"hi\"} ": `{"chatResponse": "hi"}`,
	}
	for in, want := range cases {
		if got := CleanJSONContent(in); got != want {
			t.Fatalf("CleanJSONContent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRetryable(t *testing.T) {
	if !retryable(&httpError{StatusCode: 429}) {
		t.Fatalf("429 must be retryable")
	}
	if !retryable(&httpError{StatusCode: 503}) {
		t.Fatalf("503 must be retryable")
	}
	if retryable(&httpError{StatusCode: 400}) {
		t.Fatalf("400 must not be retryable")
	}
	if retryable(&httpError{StatusCode: 401}) {
		t.Fatalf("401 must not be retryable")
	}
}
