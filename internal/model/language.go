package model

import (
	"errors"
	"fmt"
)

// Language is a supported runner language.
type Language string

const (
	LanguageC      Language = "c"
	LanguageCPP    Language = "cpp"
	LanguageJava   Language = "java"
	LanguagePython Language = "python"
)

// ErrUnsupportedLanguage is returned for a language the runner does not offer.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Languages lists the supported languages in editor order.
var Languages = []Language{LanguageC, LanguageCPP, LanguageJava, LanguagePython}

// ParseLanguage maps a request value onto a Language.
func ParseLanguage(s string) (Language, error) {
	l := Language(s)
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
	return l, nil
}

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	switch l {
	case LanguageC, LanguageCPP, LanguageJava, LanguagePython:
		return true
	}
	return false
}

// Label is the display name used by the editor.
func (l Language) Label() string {
	switch l {
	case LanguageC:
		return "C"
	case LanguageCPP:
		return "C++"
	case LanguageJava:
		return "Java"
	case LanguagePython:
		return "Python3"
	}
	return string(l)
}

// SampleCode holds starter code for every supported language.
// It is a fixed struct rather than a map so a missing language is a compile error.
type SampleCode struct {
	C      string `json:"c"`
	CPP    string `json:"cpp"`
	Java   string `json:"java"`
	Python string `json:"python"`
}

// Get returns the body for l.
func (s SampleCode) Get(l Language) string {
	switch l {
	case LanguageC:
		return s.C
	case LanguageCPP:
		return s.CPP
	case LanguageJava:
		return s.Java
	case LanguagePython:
		return s.Python
	}
	return ""
}

// Map applies fn to every body and returns the result.
func (s SampleCode) Map(fn func(string) string) SampleCode {
	return SampleCode{
		C:      fn(s.C),
		CPP:    fn(s.CPP),
		Java:   fn(s.Java),
		Python: fn(s.Python),
	}
}
