package ner

import (
	"strings"
	"unicode/utf8"

	prose "github.com/jdkato/prose/v2"
)

// ProseModel is the English model backed by the prose NLP library. Its
// tagger emits PERSON/GPE-style labels that feed the normalization table.
type ProseModel struct{}

// NewProseModel returns the prose-backed English model.
func NewProseModel() *ProseModel { return &ProseModel{} }

func (*ProseModel) Language() string { return LangEnglish }

// Extract runs prose entity recognition. Prose reports spans without
// positions, so offsets are recovered by scanning the source text left to
// right, keeping duplicate mentions at distinct offsets.
func (*ProseModel) Extract(text string) ([]RawEntity, error) {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, err
	}

	var out []RawEntity
	searchFrom := 0
	for _, ent := range doc.Entities() {
		idx := strings.Index(text[searchFrom:], ent.Text)
		if idx < 0 {
			// Mention not literally present (tokenizer normalization);
			// fall back to a whole-text search.
			idx = strings.Index(text, ent.Text)
			if idx < 0 {
				continue
			}
			searchFrom = 0
		}
		byteStart := searchFrom + idx
		byteEnd := byteStart + len(ent.Text)

		start := utf8.RuneCountInString(text[:byteStart])
		out = append(out, RawEntity{
			Text:  ent.Text,
			Label: ent.Label,
			Start: start,
			End:   start + utf8.RuneCountInString(ent.Text),
		})
		searchFrom = byteEnd
	}
	return out, nil
}
