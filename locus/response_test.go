package locus

import (
	"strings"
	"testing"
)

func TestSearchResponseBuilder_CountBudget(t *testing.T) {
	b := NewSearchResponseBuilder("items", 2, DefaultMaxResponseBytes)
	if b.IsFull() {
		t.Fatal("empty builder reports full")
	}
	for _, v := range []string{"a", "b"} {
		if err := b.AddValue(v); err != nil {
			t.Fatalf("AddValue error: %v", err)
		}
	}
	if !b.IsFull() {
		t.Error("builder at page size does not report full")
	}
	if b.NumValues() != 2 {
		t.Errorf("NumValues() = %d, want 2", b.NumValues())
	}
}

func TestSearchResponseBuilder_ByteBudget(t *testing.T) {
	// A tiny byte budget truncates the page before the count budget does.
	b := NewSearchResponseBuilder("items", 100, 10)
	if err := b.AddValue(strings.Repeat("x", 32)); err != nil {
		t.Fatalf("AddValue error: %v", err)
	}
	if !b.IsFull() {
		t.Error("builder over byte budget does not report full")
	}
	if b.NumValues() != 1 {
		t.Errorf("NumValues() = %d, want 1", b.NumValues())
	}
}

func TestSearchResponseBuilder_Marshal_WithToken(t *testing.T) {
	b := NewSearchResponseBuilder("variants", 10, DefaultMaxResponseBytes)
	if err := b.AddValue(map[string]string{"id": "v1"}); err != nil {
		t.Fatalf("AddValue error: %v", err)
	}
	b.SetNextPageToken("100:2")
	out, err := b.MarshalResponse()
	if err != nil {
		t.Fatalf("MarshalResponse error: %v", err)
	}
	var decoded struct {
		Variants      []map[string]string `json:"variants"`
		NextPageToken string              `json:"nextPageToken"`
	}
	if err := jsonCodec.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("response does not parse: %v\n%s", err, out)
	}
	if len(decoded.Variants) != 1 || decoded.Variants[0]["id"] != "v1" {
		t.Errorf("variants = %v", decoded.Variants)
	}
	if decoded.NextPageToken != "100:2" {
		t.Errorf("nextPageToken = %q, want %q", decoded.NextPageToken, "100:2")
	}
}

func TestSearchResponseBuilder_Marshal_EmptyTokenOmitted(t *testing.T) {
	b := NewSearchResponseBuilder("items", 10, DefaultMaxResponseBytes)
	b.SetNextPageToken("")
	out, err := b.MarshalResponse()
	if err != nil {
		t.Fatalf("MarshalResponse error: %v", err)
	}
	if strings.Contains(string(out), "nextPageToken") {
		t.Errorf("empty token serialized: %s", out)
	}
	if want := `{"items":[]}`; string(out) != want {
		t.Errorf("MarshalResponse = %s, want %s", out, want)
	}
}
