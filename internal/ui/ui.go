// Package ui holds the terminal styles shared by tibisync commands.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

func RenderAccent(s string) string { return accentStyle.Render(s) }
func RenderPass(s string) string   { return passStyle.Render(s) }
func RenderWarn(s string) string   { return warnStyle.Render(s) }
func RenderErr(s string) string    { return errStyle.Render(s) }
func RenderDim(s string) string    { return dimStyle.Render(s) }
