package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"contentd/internal/domain"
	"contentd/internal/ports/output"
)

var _ output.LanguageMatcher = (*Matcher)(nil)

// Matcher maps client language codes ("he-IL", "EN", "ru_RU") onto the
// deployment's supported base languages. Unsupported but well-formed codes
// resolve to the first supported language.
type Matcher struct {
	supported []language.Tag
	names     []string
	matcher   language.Matcher
}

// NewMatcher builds a Matcher. The first code is the default.
func NewMatcher(codes ...string) (*Matcher, error) {
	m := &Matcher{}
	for _, code := range codes {
		tag, err := language.Parse(strings.TrimSpace(code))
		if err != nil {
			return nil, fmt.Errorf("parse supported language %q: %w", code, err)
		}
		base, _ := tag.Base()
		m.supported = append(m.supported, tag)
		m.names = append(m.names, base.String())
	}
	if len(m.supported) == 0 {
		return nil, fmt.Errorf("no supported languages: %w", domain.ErrInvalidLanguage)
	}
	m.matcher = language.NewMatcher(m.supported)
	return m, nil
}

func (m *Matcher) Match(code string) (string, error) {
	code = strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if code == "" {
		return m.names[0], nil
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidLanguage, code)
	}
	_, idx, conf := m.matcher.Match(tag)
	if conf == language.No {
		return m.names[0], nil
	}
	return m.names[idx], nil
}

// Supported lists the base language codes, default first.
func (m *Matcher) Supported() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}
