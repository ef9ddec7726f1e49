// Package domain defines the core types for statically discovered tests.
package domain

// Language represents a source language handled by discovery.
type Language string

// Supported languages for test file parsing.
const (
	LanguageJavaScript Language = "javascript"
	LanguageTSX        Language = "tsx"
	LanguageTypeScript Language = "typescript"
)
