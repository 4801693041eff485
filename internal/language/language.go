package language

import "fmt"

// Language represents a supported conference language
type Language struct {
	Code         string // ISO 639-1 code (e.g., "ja", "en")
	Name         string // Native display name (e.g., "日本語")
	SpeechLocale string // Locale handed to the speech recognizer (e.g., "ja-JP")
	Label        string // English name used in translation prompts (e.g., "Japanese")
}

// Pair is a source/target language combination for one capture session
type Pair struct {
	Source string `json:"source" toml:"source"`
	Target string `json:"target" toml:"target"`
}

func (p Pair) String() string {
	return p.Source + "->" + p.Target
}

// languages is the master list of supported languages
var languages = []Language{
	{Code: "ja", Name: "日本語", SpeechLocale: "ja-JP", Label: "Japanese"},
	{Code: "en", Name: "English", SpeechLocale: "en-US", Label: "English"},
	{Code: "zh", Name: "中文", SpeechLocale: "zh-CN", Label: "Chinese"},
	{Code: "ko", Name: "한국어", SpeechLocale: "ko-KR", Label: "Korean"},
	{Code: "es", Name: "Español", SpeechLocale: "es-ES", Label: "Spanish"},
	{Code: "fr", Name: "Français", SpeechLocale: "fr-FR", Label: "French"},
	{Code: "de", Name: "Deutsch", SpeechLocale: "de-DE", Label: "German"},
	{Code: "it", Name: "Italiano", SpeechLocale: "it-IT", Label: "Italian"},
	{Code: "pt", Name: "Português", SpeechLocale: "pt-BR", Label: "Portuguese"},
	{Code: "ru", Name: "Русский", SpeechLocale: "ru-RU", Label: "Russian"},
}

// codeIndex maps language codes to their Language structs for fast lookup
var codeIndex map[string]Language

func init() {
	codeIndex = make(map[string]Language, len(languages))
	for _, lang := range languages {
		codeIndex[lang.Code] = lang
	}
}

// FromCode returns the Language for the given code.
func FromCode(code string) (Language, bool) {
	lang, ok := codeIndex[code]
	return lang, ok
}

// DisplayName returns the native name for code, or the code itself when unknown
func DisplayName(code string) string {
	if lang, ok := codeIndex[code]; ok {
		return lang.Name
	}
	return code
}

// List returns all supported languages
func List() []Language {
	result := make([]Language, len(languages))
	copy(result, languages)
	return result
}

// Codes returns all language codes
func Codes() []string {
	codes := make([]string, len(languages))
	for i, lang := range languages {
		codes[i] = lang.Code
	}
	return codes
}

// IsValidCode returns true if the code is recognized
func IsValidCode(code string) bool {
	_, ok := codeIndex[code]
	return ok
}

// Resolve looks up both sides of a pair.
func Resolve(p Pair) (source, target Language, err error) {
	source, ok := codeIndex[p.Source]
	if !ok {
		return Language{}, Language{}, fmt.Errorf("unsupported source language: %q", p.Source)
	}
	target, ok = codeIndex[p.Target]
	if !ok {
		return Language{}, Language{}, fmt.Errorf("unsupported target language: %q", p.Target)
	}
	return source, target, nil
}
