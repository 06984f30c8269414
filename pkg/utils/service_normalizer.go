package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripAccents removes combining marks after canonical decomposition, so
// "Médico" becomes "Medico" and "Año" becomes "Ano".
func StripAccents(value string) string {
	// transform.Chain keeps internal buffers, so build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}

// NormalizeIdentifier converts a string to a normalized identifier: lowercase
// ASCII letters and digits joined by single underscores, with no leading or
// trailing underscore. Applying it twice yields the same result.
func NormalizeIdentifier(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(StripAccents(value)))
	if trimmed == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	lastUnderscore := false

	for _, ch := range trimmed {
		isAlphaNum := (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9')
		if isAlphaNum {
			b.WriteRune(ch)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	return strings.Trim(b.String(), "_")
}

// NormalizeColumnName maps spreadsheet headers such as "Valor Latitud" or
// "Telefono.Celular" to their snake_case column keys. Dots are dropped
// rather than treated as separators.
func NormalizeColumnName(name string) string {
	return NormalizeIdentifier(strings.ReplaceAll(name, ".", ""))
}

// TitleCase renders free text such as department or municipality names in
// Spanish title case ("VALLE DEL CAUCA" becomes "Valle Del Cauca").
func TitleCase(value string) string {
	trimmed := strings.Join(strings.Fields(value), " ")
	if trimmed == "" {
		return ""
	}
	return cases.Title(language.Spanish).String(strings.ToLower(trimmed))
}

// EmbeddingText turns a normalized identifier back into words so the
// sentence encoder sees "urgencias medico general" instead of one token.
func EmbeddingText(value string) string {
	replaced := strings.NewReplacer("_", " ", "-", " ").Replace(strings.ToLower(value))
	return strings.Join(strings.Fields(replaced), " ")
}

// Tokens splits a normalized identifier into its word parts.
func Tokens(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == '_' || unicode.IsSpace(r)
	})
}
