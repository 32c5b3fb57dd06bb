package provider

import (
	"testing"
)

func TestNewOpenAIRequiresKey(t *testing.T) {
	if _, err := NewOpenAI(OpenAIConfig{}); err == nil {
		t.Error("expected error when API key is missing")
	}
}

func TestNewOpenAIDefaults(t *testing.T) {
	p, err := NewOpenAI(OpenAIConfig{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}

	models := p.Models()
	if models.Chat != "gpt-4o-mini" {
		t.Errorf("unexpected default chat model %q", models.Chat)
	}
	if models.Transcribe != "whisper-1" {
		t.Errorf("unexpected default transcribe model %q", models.Transcribe)
	}
	if models.Speech != "gpt-4o-mini-tts" {
		t.Errorf("unexpected default speech model %q", models.Speech)
	}
}

func TestParseTranslatePayload(t *testing.T) {
	tests := []struct {
		name           string
		content        string
		wantErr        bool
		wantTranslated string
		wantCorrected  string
	}{
		{
			name:           "plain json",
			content:        `{"corrected_source": "take two tablets daily", "translated_text": "tome dos tabletas al día"}`,
			wantTranslated: "tome dos tabletas al día",
			wantCorrected:  "take two tablets daily",
		},
		{
			name:           "fenced json",
			content:        "```json\n{\"corrected_source\": \"a\", \"translated_text\": \"b\"}\n```",
			wantTranslated: "b",
			wantCorrected:  "a",
		},
		{
			name:           "missing corrected source",
			content:        `{"translated_text": "hola"}`,
			wantTranslated: "hola",
		},
		{
			name:    "empty translation",
			content: `{"corrected_source": "x", "translated_text": "  "}`,
			wantErr: true,
		},
		{
			name:    "not json",
			content: "hola",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseTranslatePayload(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTranslatePayload: %v", err)
			}
			if result.TranslatedText != tt.wantTranslated {
				t.Errorf("TranslatedText = %q, expected %q", result.TranslatedText, tt.wantTranslated)
			}
			if result.CorrectedSource != tt.wantCorrected {
				t.Errorf("CorrectedSource = %q, expected %q", result.CorrectedSource, tt.wantCorrected)
			}
		})
	}
}
