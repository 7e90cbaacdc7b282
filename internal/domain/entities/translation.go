package entities

// TranslationApproved is the only status eligible for public reads.
const TranslationApproved = "approved"

// Translation is the per-language value of a ContentItem.
type Translation struct {
	ContentItemID int64
	LanguageCode  string
	ContentValue  string
	Status        string
}

// IsApproved reports whether t may be served.
func (t Translation) IsApproved() bool {
	return t.Status == TranslationApproved
}

// ContentRow is an active item joined with one of its approved translations,
// as returned by the store in a single screen-wide read.
type ContentRow struct {
	Item        ContentItem
	Translation Translation
}
