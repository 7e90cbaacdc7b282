package entities

import "strings"

// ComponentType tags the UI role of a content item.
type ComponentType string

const (
	ComponentLabel             ComponentType = "label"
	ComponentPlaceholder       ComponentType = "placeholder"
	ComponentOption            ComponentType = "option"
	ComponentTitle             ComponentType = "title"
	ComponentButton            ComponentType = "button"
	ComponentText              ComponentType = "text"
	ComponentDropdownContainer ComponentType = "dropdown_container"
)

// ParseComponentType normalises the spellings found in the store
// ("dropdown-container", "dropdown_option", mixed case).
func ParseComponentType(raw string) ComponentType {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	switch s {
	case "dropdown_option", "option":
		return ComponentOption
	case "dropdown_container", "dropdown":
		return ComponentDropdownContainer
	}
	return ComponentType(s)
}

// IsDropdownPart reports whether items of this type feed the dropdown payload.
func (c ComponentType) IsDropdownPart() bool {
	switch c {
	case ComponentLabel, ComponentPlaceholder, ComponentOption, ComponentDropdownContainer:
		return true
	}
	return false
}

// ContentItem is one piece of UI text scoped to a screen.
type ContentItem struct {
	ID              int64
	ContentKey      string
	ScreenLocation  string
	ComponentType   ComponentType
	Category        string
	IsActive        bool
	DefaultLanguage string // empty = deployment default
}
