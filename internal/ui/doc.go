// Package ui renders eyespy's terminal output: the banner, the scan
// progress bar and the interactive menu shown when the binary runs
// without arguments.
//
// Styling uses lipgloss; the progress bar is a bubbles progress model
// rendered statically with ViewAs, so no bubbletea program is needed.
// Output to a non-terminal (a pipe or a file) skips the progress bar
// and keeps only plain lines.
package ui
