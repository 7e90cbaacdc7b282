// Package dropdown defines the payload served by the dropdown endpoints and
// the field lookup applied on top of it by servers and clients alike.
package dropdown

import (
	"contentd/pkg/alias"
	"contentd/pkg/fieldkey"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Option is one dropdown entry. Value is stable across languages.
type Option struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// Entry enumerates a field that has at least one option.
type Entry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Structure is the assembled per-(screen, language) dropdown data.
// Once published to a cache it must not be mutated; use Clone.
type Structure struct {
	Dropdowns    []Entry             `json:"dropdowns"`
	Options      map[string][]Option `json:"options"`
	Placeholders map[string]string   `json:"placeholders"`
	Labels       map[string]string   `json:"labels"`
}

// NewStructure returns an empty, well-formed structure.
func NewStructure() *Structure {
	return &Structure{
		Dropdowns:    []Entry{},
		Options:      map[string][]Option{},
		Placeholders: map[string]string{},
		Labels:       map[string]string{},
	}
}

// Clone copies the maps and the dropdown list. Option slices are shared since
// they are never modified after assembly.
func (s *Structure) Clone() *Structure {
	out := NewStructure()
	if s == nil {
		return out
	}
	out.Dropdowns = append(out.Dropdowns, s.Dropdowns...)
	for k, v := range s.Options {
		out.Options[k] = v
	}
	for k, v := range s.Placeholders {
		out.Placeholders[k] = v
	}
	for k, v := range s.Labels {
		out.Labels[k] = v
	}
	return out
}

// HasDropdown reports whether key is already listed in Dropdowns.
func (s *Structure) HasDropdown(key string) bool {
	for _, d := range s.Dropdowns {
		if d.Key == key {
			return true
		}
	}
	return false
}

// CacheInfo describes how a response was produced.
type CacheInfo struct {
	Hit              bool    `json:"hit"`
	ProcessingTimeMS float64 `json:"processing_time_ms"`
}

// Response is the body of GET /api/dropdowns/:screen/:language.
type Response struct {
	Status         string `json:"status"`
	ScreenLocation string `json:"screen_location"`
	LanguageCode   string `json:"language_code"`
	Structure
	Message   string     `json:"message,omitempty"`
	Source    string     `json:"source,omitempty"`
	Cached    bool       `json:"cached"`
	CacheInfo *CacheInfo `json:"cache_info,omitempty"`
}

// FieldProps is what a single form control needs.
type FieldProps struct {
	Options     []Option `json:"options"`
	Label       string   `json:"label,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
}

// Empty reports whether no slot carries data.
func (p FieldProps) Empty() bool {
	return len(p.Options) == 0 && p.Label == "" && p.Placeholder == ""
}

func (p FieldProps) complete() bool {
	return len(p.Options) > 0 && (p.Label != "" || p.Placeholder != "")
}

// FieldResponse is the body of GET /api/dropdowns/:screen/:language/:field.
type FieldResponse struct {
	Status         string `json:"status"`
	ScreenLocation string `json:"screen_location"`
	LanguageCode   string `json:"language_code"`
	Field          string `json:"field"`
	FieldProps
	Message string `json:"message,omitempty"`
}

// ContentResponse is the body of GET /api/content/:screen/:language.
type ContentResponse struct {
	Status         string            `json:"status"`
	ScreenLocation string            `json:"screen_location"`
	LanguageCode   string            `json:"language_code"`
	ContentCount   int               `json:"content_count"`
	Content        map[string]string `json:"content"`
	FilteredByType string            `json:"filtered_by_type,omitempty"`
	Message        string            `json:"message,omitempty"`
	Cached         bool              `json:"cached"`
}

// Lookup resolves field on screen: data under the canonical key first, then
// each alias in order, filling only the slots that are still empty. It stops
// once options and a label or placeholder are known.
func Lookup(s *Structure, screen, field string, table *alias.Table) FieldProps {
	var props FieldProps
	if s == nil {
		props.Options = []Option{}
		return props
	}
	for i, name := range table.Candidates(field) {
		if i > 0 && props.complete() {
			break
		}
		key := fieldkey.Join(screen, name)
		if len(props.Options) == 0 {
			props.Options = s.Options[key]
		}
		if props.Placeholder == "" {
			props.Placeholder = firstNonEmpty(s.Placeholders[key+"_ph"], s.Placeholders[key])
		}
		if props.Label == "" {
			props.Label = firstNonEmpty(s.Labels[key+"_label"], s.Labels[key])
		}
	}
	if props.Options == nil {
		props.Options = []Option{}
	}
	return props
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
