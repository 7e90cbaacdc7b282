package output

// Translator exposes a minimal i18n contract for API messages.
type T interface {
	// T renders the message identified by key for the given locale.
	// data is an optional map used for template placeholders (may be nil).
	T(locale, key string, data map[string]any) string
}

// LanguageMatcher maps a requested language code onto a supported one.
type LanguageMatcher interface {
	Match(code string) (string, error)
}
