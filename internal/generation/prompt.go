package generation

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Style enumerates the closed set of headshot styles. Unknown values fall
// back to the base prompt, never to an error.
type Style string

const (
	StyleFormal       Style = "formal"
	StyleCasualFormal Style = "casual-formal"
	StyleCasual       Style = "casual"
)

const basePrompt = "Professional LinkedIn headshot, high quality, 8k"

var stylePrompts = map[Style]string{
	StyleFormal:       ", wearing a formal suit and tie, studio lighting, solid background",
	StyleCasualFormal: ", wearing a quarter-zip sweater with a collared shirt underneath, smart casual, modern office background",
	StyleCasual:       ", wearing casual but professional attire, relaxed atmosphere, blurred natural background",
}

// BuildStylePrompt returns the generation prompt for a requested style along
// with the normalized style tag stored on the record.
func BuildStylePrompt(style string) (prompt string, tag string) {
	s := Style(strings.ToLower(strings.TrimSpace(style)))
	suffix, ok := stylePrompts[s]
	if !ok {
		return basePrompt, "default"
	}
	return basePrompt + suffix, string(s)
}

// EnhancementKind enumerates the closed set of paid enhancement operations.
type EnhancementKind string

const (
	EnhanceSmile       EnhancementKind = "smile"
	EnhanceOpenEyes    EnhancementKind = "openEyes"
	EnhanceFixLighting EnhancementKind = "fixLighting"
	EnhanceBackground  EnhancementKind = "background"
)

var enhancementPrompts = map[EnhancementKind]string{
	EnhanceSmile:       "Make the person smile naturally, keep everything else identical",
	EnhanceOpenEyes:    "Open the person's eyes naturally, keep everything else identical",
	EnhanceFixLighting: "Fix the lighting to soft professional studio lighting, keep everything else identical",
	EnhanceBackground:  "Replace the background with a clean professional studio background, keep the person identical",
}

// BuildEnhancementPrompt returns the edit instruction for an enhancement
// request and a human-readable label stored as the child record's style tag.
// Unrecognized kinds fall back to a generic quality pass.
func BuildEnhancementPrompt(kind string) (prompt string, label string) {
	k := EnhancementKind(strings.TrimSpace(kind))
	instruction, ok := enhancementPrompts[k]
	if !ok {
		return "Improve the overall quality, sharpness and color balance of the photo, keep the person identical", "Quality"
	}
	c := cases.Title(language.Und)
	words := strings.Join(splitCamel(string(k)), " ")
	return instruction, c.String(words)
}

// splitCamel turns camelCase enhancement tokens into separate words so the
// stored label reads naturally ("fixLighting" -> "fix lighting").
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			words = append(words, strings.ToLower(s[start:i]))
			start = i
		}
	}
	words = append(words, strings.ToLower(s[start:]))
	return words
}
