package llm

import (
	"fmt"
	"strings"

	"vidsub/internal/language"
)

// TranslationPrompt builds the system prompt for subtitle line translation.
func TranslationPrompt(source, target string) string {
	from := "the source language (detect it)"
	if source = strings.TrimSpace(source); source != "" && source != language.Auto {
		from = fmt.Sprintf("%s (%s)", language.DisplayName(source), source)
	}
	to := fmt.Sprintf("%s (%s)", language.DisplayName(target), target)
	switch target {
	case "zh-CN":
		to = "Simplified Chinese (zh-CN)"
	case "zh-TW":
		to = "Traditional Chinese (zh-TW)"
	}
	return fmt.Sprintf(`You translate subtitle lines from %s into %s.
Reply with the translated line only: no quotes, no notes, no transliteration.
Keep the meaning, tone, and line breaks. Keep names as they are.
If the line is already in the target language, repeat it unchanged.`, from, to)
}

// cleanTranslation strips code fences and wrapping quotes some models add
// around a single-line answer.
func cleanTranslation(content string) string {
	trimmed := strings.TrimSpace(stripCodeFenceBlock(content))
	for _, pair := range [][2]string{{`"`, `"`}, {"“", "”"}, {"「", "」"}} {
		if len(trimmed) >= len(pair[0])+len(pair[1]) && strings.HasPrefix(trimmed, pair[0]) && strings.HasSuffix(trimmed, pair[1]) {
			trimmed = strings.TrimSpace(trimmed[len(pair[0]) : len(trimmed)-len(pair[1])])
			break
		}
	}
	return trimmed
}
