package model

import "strings"

type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

type Language string

const (
	LanguageEnglish Language = "english"
	LanguageBodo    Language = "bodo"
	LanguageMizo    Language = "mizo"
)

var SupportedLanguages = []Language{LanguageEnglish, LanguageBodo, LanguageMizo}

// ParseLanguage accepts language names case-insensitively.
func ParseLanguage(s string) (Language, bool) {
	lang := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, l := range SupportedLanguages {
		if l == lang {
			return l, true
		}
	}
	return "", false
}
