package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/confersense/confersense/internal/config"
	"github.com/confersense/confersense/internal/glossary"
	"github.com/confersense/confersense/internal/language"
)

// getLanguageOptions lists the supported languages, optionally led by the
// glossary wildcard.
func getLanguageOptions(withWildcard bool) []huh.Option[string] {
	var options []huh.Option[string]
	if withWildcard {
		options = append(options, huh.NewOption("Any language (*)", glossary.Wildcard))
	}
	for _, lang := range language.List() {
		options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", lang.Name, lang.Code), lang.Code))
	}
	return options
}

// editLanguages selects the default source and target languages
func editLanguages(cfg *config.Config) error {
	source := cfg.General.SourceLanguage
	target := cfg.General.TargetLanguage

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Source Language").
				Description("Language spoken by the presenter").
				Options(getLanguageOptions(false)...).
				Filtering(true).
				Value(&source),
			huh.NewSelect[string]().
				Title("Target Language").
				Description("Language the transcript is translated into").
				Options(getLanguageOptions(false)...).
				Filtering(true).
				Value(&target).
				Validate(func(s string) error {
					if s == source {
						return errors.New("target must differ from source")
					}
					return nil
				}),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.General.SourceLanguage = source
	cfg.General.TargetLanguage = target
	return nil
}
