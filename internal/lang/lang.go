// Package lang maps source paths to the languages resonator understands.
package lang

import (
	"path/filepath"
	"strings"
)

// Language identifies a source language.
type Language string

const (
	Unknown Language = ""
	Go      Language = "go"
	Python  Language = "python"
)

var extensions = map[string]Language{
	".go":  Go,
	".py":  Python,
	".pyw": Python,
}

// Detect returns the language of path by extension.
func Detect(path string) Language {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// Supported returns the languages with rule sets, in a stable order.
func Supported() []Language {
	return []Language{Go, Python}
}
