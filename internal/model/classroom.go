package model

import "time"

type Classroom struct {
	JoinCode    string    `json:"joinCode" redis:"join_code"`
	TeacherID   string    `json:"teacherId" redis:"teacher_id"`
	TeacherName string    `json:"teacherName" redis:"teacher_name"`
	Subject     string    `json:"subject" redis:"subject"`
	Active      bool      `json:"active" redis:"active"`
	CreatedAt   time.Time `json:"createdAt" redis:"-"`
}

// BroadcastContent is the latest utterance pushed for a join code.
type BroadcastContent struct {
	EnglishText     string `json:"englishText"`
	BodoTranslation string `json:"bodoTranslation"`
	MizoTranslation string `json:"mizoTranslation"`
	Timestamp       string `json:"timestamp"`
}

// TranslationFor returns the text for lang, falling back to English.
func (c BroadcastContent) TranslationFor(lang Language) string {
	switch lang {
	case LanguageBodo:
		return c.BodoTranslation
	case LanguageMizo:
		return c.MizoTranslation
	default:
		return c.EnglishText
	}
}

// BatchTranslation is one entry of a batch translation result.
type BatchTranslation struct {
	EnglishText     string `json:"englishText"`
	BodoTranslation string `json:"bodoTranslation"`
	MizoTranslation string `json:"mizoTranslation"`
}

type Stats struct {
	TotalTeachers    int `json:"totalTeachers"`
	TotalStudents    int `json:"totalStudents"`
	ActiveStudents   int `json:"activeStudents"`
	UniqueLogins     int `json:"uniqueLogins"`
	ActiveClassrooms int `json:"activeClassrooms"`
}
