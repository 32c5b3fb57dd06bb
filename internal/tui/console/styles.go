// CareBridge - Healthcare Speech Translation
//
// Package: console
// Description: Terminal console for dual-language conversations
// License: MIT

package console

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Panel styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	paneHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("45"))

	// Transcript styles
	originalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	translatedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("120"))

	correctedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("222")).
			Italic(true)

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)

	interimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("117")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// Banner shown while any utterance carries a correction
	correctionBannerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("222")).
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(lipgloss.Color("222")).
				PaddingLeft(1)

	// Status line styles
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	statusActiveStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("203"))

	langStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	previewStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("108")).
			Italic(true)
)
