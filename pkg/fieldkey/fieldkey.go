// Package fieldkey parses and formats the content keys that carry dropdown data.
//
// A content key such as "mortgage_step1_when_needed_option_3" is made of a
// screen prefix, a field name, and a kind-specific suffix. FieldKey keeps those
// parts apart so suffix stripping and ordinal ordering live in one place.
package fieldkey

import (
	"strconv"
	"strings"
)

// Kind is the role a content key plays inside a dropdown group.
type Kind int

const (
	KindLabel Kind = iota
	KindPlaceholder
	KindOption
)

func (k Kind) String() string {
	switch k {
	case KindPlaceholder:
		return "placeholder"
	case KindOption:
		return "option"
	default:
		return "label"
	}
}

const (
	optionSuffix       = "_option_"
	optionsSuffix      = "_options_"
	placeholderSuffix  = "_ph"
	optionsPlaceholder = "_options_ph"
)

// FieldKey is a typed content key: Screen + "_" + Name + suffix(Kind, Ordinal).
// Screen is empty when the raw key did not start with the screen prefix.
type FieldKey struct {
	Screen  string
	Name    string
	Kind    Kind
	Ordinal int
}

// Join builds the screen-scoped field key used in API payloads.
func Join(screen, field string) string {
	if screen == "" {
		return field
	}
	return screen + "_" + field
}

// Parse splits contentKey according to kind. Unknown shapes degrade to the key
// itself with ordinal 0.
func Parse(screen, contentKey string, kind Kind) FieldKey {
	base := contentKey
	ordinal := 0

	switch kind {
	case KindOption:
		base, ordinal = stripOrdinal(contentKey)
	case KindPlaceholder:
		switch {
		case strings.HasSuffix(base, optionsPlaceholder):
			base = strings.TrimSuffix(base, optionsPlaceholder)
		case strings.HasSuffix(base, placeholderSuffix):
			base = strings.TrimSuffix(base, placeholderSuffix)
		}
	}

	fk := FieldKey{Name: base, Kind: kind, Ordinal: ordinal}
	if screen != "" && strings.HasPrefix(base, screen+"_") && len(base) > len(screen)+1 {
		fk.Screen = screen
		fk.Name = base[len(screen)+1:]
	}
	return fk
}

// Infer guesses the kind from the key's suffix. Keys without a known suffix
// are labels.
func Infer(screen, contentKey string) FieldKey {
	if _, n := stripOrdinal(contentKey); n > 0 {
		return Parse(screen, contentKey, KindOption)
	}
	if strings.HasSuffix(contentKey, placeholderSuffix) {
		return Parse(screen, contentKey, KindPlaceholder)
	}
	return Parse(screen, contentKey, KindLabel)
}

// Field returns the screen-scoped field key shared by a label, its
// placeholder, and its options.
func (k FieldKey) Field() string {
	return Join(k.Screen, k.Name)
}

// Format rebuilds the canonical content key.
func (k FieldKey) Format() string {
	switch k.Kind {
	case KindPlaceholder:
		return k.Field() + placeholderSuffix
	case KindOption:
		if k.Ordinal > 0 {
			return k.Field() + optionSuffix + strconv.Itoa(k.Ordinal)
		}
	}
	return k.Field()
}

// WithName returns a copy of k addressing another field of the same screen.
func (k FieldKey) WithName(name string) FieldKey {
	k.Name = name
	return k
}

// Less orders option keys by numeric ordinal, falling back to the raw name.
func Less(a, b FieldKey) bool {
	if a.Ordinal != b.Ordinal {
		return a.Ordinal < b.Ordinal
	}
	return a.Name < b.Name
}

func stripOrdinal(key string) (string, int) {
	for _, suffix := range []string{optionSuffix, optionsSuffix} {
		idx := strings.LastIndex(key, suffix)
		if idx <= 0 {
			continue
		}
		n, err := strconv.Atoi(key[idx+len(suffix):])
		if err != nil || n < 0 {
			continue
		}
		return key[:idx], n
	}
	return key, 0
}
