// Package report renders scan records for people and tools.
//
// This package contains writers for different output formats:
//   - HTMLWriter: standalone HTML page with one table row per camera
//   - MarkdownWriter: GitHub-flavored Markdown for sharing
//   - SimpleWriter: plain text for terminal display
//   - JSONWriter: the record itself, for tool integration
//
// Writers implement the Writer interface, so the export command can pick
// one by name with ForFormat.
package report
