// ============================================================================
// CareBridge - Healthcare Speech Translation
// ============================================================================
//
// Package:     langs
// Description: Static registry of selectable languages
// License:     MIT
// ============================================================================

package langs

import (
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto is the sentinel code for automatic source language detection.
// It is selectable as a source language only, never as a target.
const Auto = "auto"

// Tag pairs a locale code with a human-readable name
type Tag struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// codes lists the selectable locale codes. Display names are rendered
// once at init; the table is immutable afterwards.
var codes = []string{
	"en", "es", "pt", "fr", "de", "it",
	"zh", "ar", "hi", "bn", "ru", "vi", "ko", "tl",
}

var (
	inputs  []Tag
	targets []Tag
	byCode  map[string]Tag
)

func init() {
	namer := display.English.Languages()

	targets = make([]Tag, 0, len(codes))
	byCode = make(map[string]Tag, len(codes)+1)

	for _, code := range codes {
		tag := Tag{Code: code, Name: namer.Name(language.MustParse(code))}
		targets = append(targets, tag)
		byCode[code] = tag
	}

	auto := Tag{Code: Auto, Name: "Detect language"}
	byCode[Auto] = auto
	inputs = append([]Tag{auto}, targets...)
}

// List returns all input-selectable tags, the auto sentinel first
func List() []Tag {
	out := make([]Tag, len(inputs))
	copy(out, inputs)
	return out
}

// ListTargets returns all output-selectable tags (no auto sentinel)
func ListTargets() []Tag {
	out := make([]Tag, len(targets))
	copy(out, targets)
	return out
}

// Lookup returns the tag for a code
func Lookup(code string) (Tag, bool) {
	tag, ok := byCode[code]
	return tag, ok
}

// IsAuto reports whether the code is the auto-detect sentinel
func IsAuto(code string) bool {
	return code == Auto
}

// Name returns the display name for a code, or the code itself when unknown
func Name(code string) string {
	if tag, ok := byCode[code]; ok {
		return tag.Name
	}
	return code
}

// DefaultSource is the default source selection
func DefaultSource() string { return Auto }

// DefaultTarget is the default target selection. Spanish, matching the
// patient populations the console was built for.
func DefaultTarget() string { return "es" }
