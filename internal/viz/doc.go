// Package viz renders step responses for the terminal.
//
//   - [Chart]: asciigraph plot of the response against the steady-state line
//   - [Summary]: the four metric lines
//   - [Theme] and [Styles]: lipgloss colour schemes shared with the TUI
package viz
