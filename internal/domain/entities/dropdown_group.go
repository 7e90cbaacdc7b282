package entities

// DropdownGroup is the pre-denormalised form of a dropdown stored as JSONB.
type DropdownGroup struct {
	DropdownKey    string
	FieldName      string
	ScreenLocation string
	Label          map[string]string
	Placeholder    map[string]string
	Options        []GroupOption
}

// GroupOption is an option with its per-language texts.
type GroupOption struct {
	Value string            `json:"value"`
	Text  map[string]string `json:"text"`
}
