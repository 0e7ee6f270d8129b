package generation

import (
	"strings"
	"testing"
)

func TestBuildStylePrompt(t *testing.T) {
	tests := []struct {
		name      string
		style     string
		wantTag   string
		wantExtra string
	}{
		{"formal", "formal", "formal", "suit and tie"},
		{"casual formal", "casual-formal", "casual-formal", "quarter-zip"},
		{"casual", "casual", "casual", "relaxed"},
		{"case insensitive", "FORMAL", "formal", "suit and tie"},
		{"unknown falls back", "cyberpunk", "default", ""},
		{"empty falls back", "", "default", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt, tag := BuildStylePrompt(tt.style)
			if tag != tt.wantTag {
				t.Fatalf("tag = %q, want %q", tag, tt.wantTag)
			}
			if !strings.HasPrefix(prompt, basePrompt) {
				t.Fatalf("prompt missing base: %q", prompt)
			}
			if tt.wantExtra != "" && !strings.Contains(prompt, tt.wantExtra) {
				t.Fatalf("prompt %q missing %q", prompt, tt.wantExtra)
			}
			if tt.wantExtra == "" && prompt != basePrompt {
				t.Fatalf("fallback prompt = %q, want bare base", prompt)
			}
		})
	}
}

func TestBuildEnhancementPrompt(t *testing.T) {
	tests := []struct {
		kind      string
		wantLabel string
		wantWord  string
	}{
		{"smile", "Smile", "smile"},
		{"openEyes", "Open Eyes", "eyes"},
		{"fixLighting", "Fix Lighting", "lighting"},
		{"background", "Background", "background"},
		{"sharpenTeeth", "Quality", "quality"},
		{"", "Quality", "quality"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			prompt, label := BuildEnhancementPrompt(tt.kind)
			if label != tt.wantLabel {
				t.Fatalf("label = %q, want %q", label, tt.wantLabel)
			}
			if !strings.Contains(strings.ToLower(prompt), tt.wantWord) {
				t.Fatalf("prompt %q missing %q", prompt, tt.wantWord)
			}
		})
	}
}
