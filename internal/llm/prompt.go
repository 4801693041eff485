package llm

import (
	"fmt"
	"strings"

	"github.com/confersense/confersense/internal/glossary"
)

const glossaryHeading = "IMPORTANT: Use these custom translations for specific terms:"

// BuildTranslationPrompt generates the system prompt for one translation
func BuildTranslationPrompt(sourceLabel, targetLabel string, entries []glossary.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a translator. Translate from %s to %s.\n\n", sourceLabel, targetLabel)
	b.WriteString("Example:\n")
	b.WriteString("Input: \"Hello, how are you?\"\n")
	b.WriteString("Output: \"こんにちは、お元気ですか?\"\n\n")
	b.WriteString("Input: \"The weather is nice today.\"\n")
	b.WriteString("Output: \"今日は天気がいいですね。\"\n\n")
	b.WriteString("Only output the translated text. Do not add summaries, findings, analysis, or explanations.")

	if block := GlossaryDirectives(entries); block != "" {
		b.WriteString("\n\n")
		b.WriteString(block)
	}
	return b.String()
}

// GlossaryDirectives renders entries as translation directives under a
// fixed heading. No entries yields an empty string.
func GlossaryDirectives(entries []glossary.Entry) string {
	var lines []string
	for _, e := range entries {
		if strings.TrimSpace(e.Term) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %q should be translated as %q", e.Term, e.Replacement))
	}
	if len(lines) == 0 {
		return ""
	}
	return glossaryHeading + "\n" + strings.Join(lines, "\n")
}

// BuildTranslationUserPrompt wraps the text to translate
func BuildTranslationUserPrompt(text, targetLabel string) string {
	return fmt.Sprintf("Translate this to %s:\n\n%s", targetLabel, text)
}

// BuildQuestionPrompt generates the system prompt for question generation
func BuildQuestionPrompt(targetLabel string) string {
	var b strings.Builder
	b.WriteString("You are an assistant that drafts questions for meetings and conferences.\n")
	b.WriteString("Based on what the user said (already translated), generate questions worth asking at the meeting or conference.\n\n")
	b.WriteString("The questions must:\n")
	b.WriteString("- be clear and specific\n")
	b.WriteString("- fit the context of a meeting or conference\n")
	b.WriteString("- use professional, polite wording\n")
	fmt.Fprintf(&b, "- be written in %s\n", targetLabel)
	b.WriteString("- number between 1 and 3\n")
	return b.String()
}

// BuildQuestionUserPrompt wraps the transcript and optional reference URL
func BuildQuestionUserPrompt(transcript, referenceURL, targetLabel string) string {
	var b strings.Builder
	b.WriteString("Here is what I said (translated):\n\n")
	b.WriteString(transcript)
	if url := strings.TrimSpace(referenceURL); url != "" {
		fmt.Fprintf(&b, "\n\nConference URL: %s\n\nTake the content of this URL into account and generate related questions.", url)
	}
	fmt.Fprintf(&b, "\n\nBased on the above, generate questions I could ask at the meeting or conference, in %s.", targetLabel)
	return b.String()
}

const extractionSystemPrompt = "Extract keywords from text and return them as JSON."

// BuildExtractionPrompt asks for speaker, company, product and technical terms
func BuildExtractionPrompt(pageText string) string {
	var b strings.Builder
	b.WriteString("Extract speaker names, company names, product names, and technical terms from this text.\n\n")
	b.WriteString("Return JSON in this format:\n")
	b.WriteString(`{"keywords":[{"term":"example","translation":"example","category":"speaker"}]}`)
	b.WriteString("\n\nText:\n")
	b.WriteString(pageText)
	return b.String()
}
