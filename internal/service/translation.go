package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/classroom-assistant/classroom-go/internal/model"
)

const wordPunctuation = ".,!?;:"

// phraseIndex maps a lowercased phrase in one language to its renderings in the others.
type phraseIndex map[model.Language]map[string]map[model.Language]string

type TranslationService struct {
	mu    sync.RWMutex
	index phraseIndex
}

// NewTranslationService loads the dataset at path and falls back to the
// built-in phrase table when it is missing or unreadable.
func NewTranslationService(path string) *TranslationService {
	s := &TranslationService{index: newPhraseIndex()}

	if path != "" {
		count, err := s.loadFile(path)
		if err == nil {
			log.Info().Int("count", count).Str("path", path).Msg("translation dataset loaded")
			return s
		}
		log.Warn().Err(err).Str("path", path).Msg("failed to load translation dataset")
	}

	log.Warn().Msg("using fallback translation table")
	for _, row := range fallbackPhrases {
		s.add(row[0], row[1], row[2])
	}
	return s
}

func newPhraseIndex() phraseIndex {
	idx := make(phraseIndex)
	for _, lang := range model.SupportedLanguages {
		idx[lang] = make(map[string]map[model.Language]string)
	}
	return idx
}

func (s *TranslationService) loadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return s.Load(f)
}

// Load reads a CSV with English, Bodo and Mizo header columns.
func (s *TranslationService) Load(r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	en, okEn := cols["english"]
	bo, okBo := cols["bodo"]
	mz, okMz := cols["mizo"]
	if !okEn || !okBo || !okMz {
		return 0, errors.New("dataset must have English, Bodo and Mizo columns")
	}

	count := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, fmt.Errorf("read row %d: %w", count+1, err)
		}
		if len(record) <= max(en, bo, mz) {
			continue
		}
		s.add(record[en], record[bo], record[mz])
		count++
	}

	if count == 0 {
		return 0, errors.New("dataset is empty")
	}
	return count, nil
}

func (s *TranslationService) add(english, bodo, mizo string) {
	english, bodo, mizo = strings.TrimSpace(english), strings.TrimSpace(bodo), strings.TrimSpace(mizo)
	if english == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.index[model.LanguageEnglish][strings.ToLower(english)] = map[model.Language]string{
		model.LanguageBodo: bodo,
		model.LanguageMizo: mizo,
	}
	if bodo != "" {
		s.index[model.LanguageBodo][strings.ToLower(bodo)] = map[model.Language]string{
			model.LanguageEnglish: english,
			model.LanguageMizo:    mizo,
		}
	}
	if mizo != "" {
		s.index[model.LanguageMizo][strings.ToLower(mizo)] = map[model.Language]string{
			model.LanguageEnglish: english,
			model.LanguageBodo:    bodo,
		}
	}
}

// Translate returns "" when neither the phrase nor any of its words are in the dataset.
func (s *TranslationService) Translate(text string, source, target model.Language) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if source == target {
		return text
	}

	lower := strings.ToLower(strings.TrimSpace(text))

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.index[source]
	if entry, ok := entries[lower]; ok {
		if out := entry[target]; out != "" {
			return out
		}
	}

	words := strings.Fields(lower)
	out := make([]string, len(words))
	for i, word := range words {
		out[i] = word
		if entry, ok := entries[strings.Trim(word, wordPunctuation)]; ok && entry[target] != "" {
			out[i] = entry[target]
		}
	}

	translated := strings.Join(out, " ")
	if strings.ToLower(translated) != lower {
		return translated
	}
	return ""
}

func (s *TranslationService) TranslateBatch(texts []string) []model.BatchTranslation {
	results := make([]model.BatchTranslation, len(texts))
	for i, text := range texts {
		results[i] = model.BatchTranslation{
			EnglishText:     text,
			BodoTranslation: s.Translate(text, model.LanguageEnglish, model.LanguageBodo),
			MizoTranslation: s.Translate(text, model.LanguageEnglish, model.LanguageMizo),
		}
	}
	return results
}

func (s *TranslationService) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index[model.LanguageEnglish])
}

var fallbackPhrases = [][3]string{
	{"Good morning class", "सुबुं बिहान", "Zing tlâm ṭha class"},
	{"Please open your books", "अननानै नायनि किताबखौ खेव", "I lehkhabu hung hawng rawh"},
	{"Do you understand?", "नों गोजौ खायला?", "I hrethiam em?"},
	{"Today we will learn mathematics", "दिनै बे सान्न्रि होननाय गोनां", "Tunah Mathematics kan zir dawn"},
	{"Very good, well done", "बेयै गोजौ", "A tha hle"},
	{"Please be quiet", "अननानै थिरगोन दङ", "Dâwiin dâi la"},
	{"Raise your hand", "नायनि खुन्थाखौ थोन", "I kut kalh rawh"},
	{"Listen carefully", "मोनो खालाम", "Ngaithla ṭha rawh"},
	{"Write this down", "बेखौ लिरगोन", "Hei hi ziak rawh"},
	{"Homework for tomorrow", "गाबै नुजाथाव जागायनाय गिबि", "Tukleha tan homework"},
	{"Excellent work", "गोजौ लाफा", "Ṭha tak tak"},
	{"Sit down please", "अननानै फुं", "Thu rawh le"},
	{"Turn to page", "फेजखौ हुं", "Phek kaltlang rawh"},
	{"Let us begin", "जिउनां जागाय", "Kan tan dawn e"},
	{"Mathematics", "सान्न्रि", "Mathematics"},
	{"Science", "बिजान", "Science"},
	{"History", "बुरुं", "History"},
	{"Geography", "फिथा बिजान", "Geography"},
	{"English", "आंग्रेजी", "English"},
	{"Hello", "सुबुं", "Chibai"},
	{"Thank you", "मोजां", "Ka lawm e"},
	{"Yes", "अं", "Awle"},
	{"No", "नङा", "Aih"},
	{"Please help me", "अननानै आङा मद्द खालाम", "Min pui ve rawh"},
	{"I dont understand", "आं गोजाखै", "Ka hrethiam lo"},
	{"Repeat please", "अननानै बार हुनाय", "Nawn lehah sawi leh rawh"},
	{"Speak slowly", "थायनै राव", "Zawi deuh in sawi rawh"},
	{"Test tomorrow", "गाबै परिखा", "Tukleha test"},
	{"Study hard", "गोजौनै होनना", "Chak takin zir rawh"},
}
