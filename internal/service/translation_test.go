package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classroom-assistant/classroom-go/internal/model"
)

const testDataset = `English,Bodo,Mizo
Open your notebooks,नायनि फोरमाखौ खेव,I notebook hawng rawh
Hello,सुबुं,Chibai
Thank you,मोजां,Ka lawm e
`

func newTestTranslationService(t *testing.T) *TranslationService {
	t.Helper()
	s := &TranslationService{index: newPhraseIndex()}
	count, err := s.Load(strings.NewReader(testDataset))
	require.NoError(t, err)
	require.Equal(t, 3, count)
	return s
}

func TestTranslationService_Translate(t *testing.T) {
	s := newTestTranslationService(t)

	tests := []struct {
		name   string
		text   string
		source model.Language
		target model.Language
		want   string
	}{
		{"exact match", "Open your notebooks", model.LanguageEnglish, model.LanguageBodo, "नायनि फोरमाखौ खेव"},
		{"exact match ignores case and spaces", "  HELLO ", model.LanguageEnglish, model.LanguageMizo, "Chibai"},
		{"reverse direction", "chibai", model.LanguageMizo, model.LanguageEnglish, "Hello"},
		{"bodo to mizo", "मोजां", model.LanguageBodo, model.LanguageMizo, "Ka lawm e"},
		{"word by word strips punctuation", "hello, class!", model.LanguageEnglish, model.LanguageBodo, "सुबुं class!"},
		{"not found returns empty", "quantum physics", model.LanguageEnglish, model.LanguageBodo, ""},
		{"same language passthrough", "Anything", model.LanguageBodo, model.LanguageBodo, "Anything"},
		{"empty text", "  ", model.LanguageEnglish, model.LanguageBodo, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.Translate(tc.text, tc.source, tc.target))
		})
	}
}

func TestTranslationService_TranslateBatch(t *testing.T) {
	s := newTestTranslationService(t)

	results := s.TranslateBatch([]string{"Hello", "unknown phrase"})
	require.Len(t, results, 2)

	assert.Equal(t, "सुबुं", results[0].BodoTranslation)
	assert.Equal(t, "Chibai", results[0].MizoTranslation)
	assert.Empty(t, results[1].BodoTranslation)
	assert.Empty(t, results[1].MizoTranslation)
}

func TestTranslationService_Load(t *testing.T) {
	t.Run("rejects missing columns", func(t *testing.T) {
		s := &TranslationService{index: newPhraseIndex()}
		_, err := s.Load(strings.NewReader("English,Hindi\nhello,namaste\n"))
		assert.Error(t, err)
	})

	t.Run("rejects empty dataset", func(t *testing.T) {
		s := &TranslationService{index: newPhraseIndex()}
		_, err := s.Load(strings.NewReader("English,Bodo,Mizo\n"))
		assert.Error(t, err)
	})
}

func TestNewTranslationService_Fallback(t *testing.T) {
	s := NewTranslationService("/nonexistent/phrases.csv")

	assert.Equal(t, len(fallbackPhrases), s.Size())
	assert.Equal(t, "सुबुं", s.Translate("hello", model.LanguageEnglish, model.LanguageBodo))
	assert.Equal(t, "Ka lawm e", s.Translate("Thank you", model.LanguageEnglish, model.LanguageMizo))
}
