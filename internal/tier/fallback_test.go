package tier

import (
	"os"
	"testing"
)

func TestExtractBlocks(t *testing.T) {
	data, err := os.ReadFile("testdata/dom_page.html")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	doc := mustDoc(t, string(data))

	got := NewMatcher("", 0).ExtractBlocks(doc)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}

	want := []Record{
		{Name: "Primera release", Price: "10€", URL: "https://www.fourvenues.com/es/duvet/events/x-1/R1"},
		{Name: "Segunda release", Price: "14€"},
	}
	for i := range want {
		if got[i].Name != want[i].Name || got[i].Price != want[i].Price || got[i].URL != want[i].URL {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestExtractBlocks_SkipsEmptyBlocks(t *testing.T) {
	doc := mustDoc(t, `<div><div id="tarifa-name-button-block"><span id="tarifa-name">  </span></div></div>`)

	if got := NewMatcher("", 0).ExtractBlocks(doc); len(got) != 0 {
		t.Errorf("expected no records, got %+v", got)
	}
}

func TestExtractBlocks_NoBlocks(t *testing.T) {
	doc := mustDoc(t, `<html><body><p>Nothing on sale</p></body></html>`)

	if got := NewMatcher("", 0).ExtractBlocks(doc); len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}
