package ner

import (
	"errors"
	"testing"
)

type fakeModel struct {
	lang     string
	entities []RawEntity
	err      error
	calls    int
}

func (m *fakeModel) Language() string { return m.lang }

func (m *fakeModel) Extract(string) ([]RawEntity, error) {
	m.calls++
	return m.entities, m.err
}

func TestExtractEmptyText(t *testing.T) {
	en := &fakeModel{lang: LangEnglish}
	s := NewService(nil, en)

	got, err := s.Extract("", "eng")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no entities, got %d", len(got))
	}
	if en.calls != 0 {
		t.Fatalf("empty text must not invoke a model")
	}
}

func TestExtractNormalizesLabels(t *testing.T) {
	en := &fakeModel{lang: LangEnglish, entities: []RawEntity{
		{Text: "Fabio", Label: "PERSON", Start: 0, End: 5},
		{Text: "Maria", Label: "PER", Start: 10, End: 15},
		{Text: "Acme", Label: "ORG", Start: 20, End: 24},
		{Text: "Lisbon", Label: "GPE", Start: 30, End: 36},
		{Text: "Porto", Label: "LOC", Start: 40, End: 45},
		{Text: "today", Label: "DATE", Start: 50, End: 55},
	}}
	s := NewService(nil, en)

	got, err := s.Extract("some text", "eng")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	wantLabels := []string{"PER", "PER", "ORG", "LOC", "LOC"}
	if len(got) != len(wantLabels) {
		t.Fatalf("expected %d entities, got %d: %+v", len(wantLabels), len(got), got)
	}
	for i, want := range wantLabels {
		if got[i].Label != want {
			t.Fatalf("entity %d label = %q, want %q", i, got[i].Label, want)
		}
	}
}

func TestModelSelectionPriority(t *testing.T) {
	tests := []struct {
		hint string
		want string
	}{
		{"por", LangPortuguese},
		{"eng", LangEnglish},
		{"eng+por", LangPortuguese},
		{"ENG+POR", LangPortuguese},
		{"auto", LangPortuguese},
	}
	for _, tt := range tests {
		en := &fakeModel{lang: LangEnglish}
		pt := &fakeModel{lang: LangPortuguese}
		s := NewService(nil, en, pt)

		if _, err := s.Extract("text", tt.hint); err != nil {
			t.Fatalf("Extract(%q) error = %v", tt.hint, err)
		}
		selected := en
		other := pt
		if tt.want == LangPortuguese {
			selected, other = pt, en
		}
		if selected.calls != 1 || other.calls != 0 {
			t.Fatalf("hint %q: %s calls = %d, %s calls = %d",
				tt.hint, selected.lang, selected.calls, other.lang, other.calls)
		}
	}
}

func TestModelFallback(t *testing.T) {
	// Portuguese preferred but only English loaded.
	en := &fakeModel{lang: LangEnglish}
	s := NewService(nil, en)
	if _, err := s.Extract("text", "por"); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if en.calls != 1 {
		t.Fatalf("expected fallback to english model, calls = %d", en.calls)
	}
}

func TestNoModels(t *testing.T) {
	s := NewService(nil)
	got, err := s.Extract("text", "por")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result without models")
	}
}

func TestModelError(t *testing.T) {
	boom := errors.New("boom")
	en := &fakeModel{lang: LangEnglish, err: boom}
	s := NewService(nil, en)

	_, err := s.Extract("text", "eng")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped model error, got %v", err)
	}
}

func TestProseOffsets(t *testing.T) {
	// Offset recovery scans independently of the model; exercise it through
	// the exported Extract on a short sentence.
	m := NewProseModel()
	text := "Barack Obama visited Paris. Barack Obama left."
	ents, err := m.Extract(text)
	if err != nil {
		t.Skipf("prose model unavailable: %v", err)
	}
	for _, e := range ents {
		if e.Start < 0 || e.End <= e.Start || e.End > len([]rune(text)) {
			t.Fatalf("bad offsets: %+v", e)
		}
		runes := []rune(text)
		if string(runes[e.Start:e.End]) != e.Text {
			t.Fatalf("offset slice %q != entity text %q", string(runes[e.Start:e.End]), e.Text)
		}
	}
}
