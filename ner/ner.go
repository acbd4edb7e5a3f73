// Package ner runs named-entity recognition over extracted text. Models are
// loaded once at construction and held behind an immutable service, selected
// per request by language hint, with all model labels normalized into the
// PER/ORG/LOC vocabulary.
package ner

import (
	"fmt"
	"strings"

	"github.com/textlift/textlift/observability"
)

// Normalized entity labels.
const (
	LabelPerson       = "PER"
	LabelOrganization = "ORG"
	LabelLocation     = "LOC"
)

// Language codes used for model registration and hint matching.
const (
	LangEnglish    = "eng"
	LangPortuguese = "por"
)

// Entity is a recognized span with character offsets into the source text.
type Entity struct {
	Text  string
	Label string
	Start int
	End   int
}

// RawEntity is a model's native output before label normalization.
type RawEntity struct {
	Text  string
	Label string
	Start int
	End   int
}

// Model is a loaded, read-only NER model for one language.
type Model interface {
	// Language returns the code the model is registered under (e.g. "eng").
	Language() string
	// Extract recognizes entities in text, reporting the model's native
	// labels and character offsets.
	Extract(text string) ([]RawEntity, error)
}

// Service holds the available models. Construct once at process start and
// inject wherever entity extraction is needed; the model set never changes
// afterwards.
type Service struct {
	models map[string]Model
	logger observability.Logger
}

// NewService builds a Service from the models that loaded successfully. A
// missing language is tolerated: extraction falls back to whatever is
// available, or returns no entities.
func NewService(logger observability.Logger, models ...Model) *Service {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	s := &Service{models: make(map[string]Model, len(models)), logger: logger}
	for _, m := range models {
		if m == nil {
			continue
		}
		s.models[m.Language()] = m
		logger.Info("ner model registered", observability.String("lang", m.Language()))
	}
	return s
}

// Extract runs recognition over text using the model selected by the hint.
// Empty text and no-model-available both yield an empty result without error.
func (s *Service) Extract(text, langHint string) ([]Entity, error) {
	if text == "" {
		return []Entity{}, nil
	}

	model := s.selectModel(langHint)
	if model == nil {
		s.logger.Warn("no ner model available", observability.String("hint", langHint))
		return []Entity{}, nil
	}

	raw, err := model.Extract(text)
	if err != nil {
		return nil, fmt.Errorf("ner model %s: %w", model.Language(), err)
	}

	entities := make([]Entity, 0, len(raw))
	for _, r := range raw {
		label, ok := normalizeLabel(r.Label)
		if !ok {
			continue
		}
		entities = append(entities, Entity{Text: r.Text, Label: label, Start: r.Start, End: r.End})
	}
	return entities, nil
}

// selectModel applies the hint priority: a Portuguese marker prefers the
// Portuguese model (it holds up on mixed-language text where the English
// model degrades badly), an English marker prefers English, and each branch
// falls back to the other model when its preference is not loaded.
func (s *Service) selectModel(langHint string) Model {
	hint := strings.ToLower(langHint)

	if strings.Contains(hint, LangPortuguese) {
		if m := s.models[LangPortuguese]; m != nil {
			return m
		}
		if m := s.models[LangEnglish]; m != nil {
			return m
		}
	}
	if strings.Contains(hint, LangEnglish) {
		if m := s.models[LangEnglish]; m != nil {
			return m
		}
		if m := s.models[LangPortuguese]; m != nil {
			return m
		}
	}
	if m := s.models[LangPortuguese]; m != nil {
		return m
	}
	return s.models[LangEnglish]
}

func normalizeLabel(label string) (string, bool) {
	switch label {
	case "PER", "PERSON":
		return LabelPerson, true
	case "ORG":
		return LabelOrganization, true
	case "LOC", "GPE":
		return LabelLocation, true
	}
	return "", false
}
