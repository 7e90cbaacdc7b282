// Package alias holds the declarative synonym table for field names that
// drifted over time. The server and the client both read it, so a field only
// has to be declared once.
package alias

// Rule declares that Synonyms may hold the data of Canonical.
type Rule struct {
	Canonical string
	Synonyms  []string
}

// Pair is a reciprocal publication: when only one side carries data, the
// response exposes both spellings.
type Pair struct {
	A string
	B string
}

// Table resolves a field name to the ordered list of names worth probing.
// The reverse direction of every rule is derived when the table is built.
type Table struct {
	aliases    map[string][]string
	reciprocal map[string][]Pair
}

// New builds a Table from forward rules. For a rule A -> [B, C], B resolves to
// [A, C] and C to [A, B]; A keeps its declared order.
func New(rules ...Rule) *Table {
	t := &Table{
		aliases:    make(map[string][]string),
		reciprocal: make(map[string][]Pair),
	}
	for _, r := range rules {
		if r.Canonical == "" {
			continue
		}
		group := append([]string{r.Canonical}, r.Synonyms...)
		for _, name := range group {
			for _, other := range group {
				t.add(name, other)
			}
		}
	}
	return t
}

func (t *Table) add(name, other string) {
	if name == "" || other == "" || name == other {
		return
	}
	for _, existing := range t.aliases[name] {
		if existing == other {
			return
		}
	}
	t.aliases[name] = append(t.aliases[name], other)
}

// Publish registers pairs that must be mirrored into responses for screen.
func (t *Table) Publish(screen string, pairs ...Pair) *Table {
	t.reciprocal[screen] = append(t.reciprocal[screen], pairs...)
	return t
}

// Aliases returns the synonyms of field, nil for unknown fields.
func (t *Table) Aliases(field string) []string {
	if t == nil {
		return nil
	}
	src := t.aliases[field]
	if len(src) == 0 {
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Candidates returns field followed by its aliases. Canonical always comes first.
func (t *Table) Candidates(field string) []string {
	return append([]string{field}, t.Aliases(field)...)
}

// Reciprocal returns the publication pairs declared for screen.
func (t *Table) Reciprocal(screen string) []Pair {
	if t == nil {
		return nil
	}
	return t.reciprocal[screen]
}

// Counterpart returns the other side of the reciprocal pair containing field
// on screen.
func (t *Table) Counterpart(screen, field string) (string, bool) {
	for _, p := range t.Reciprocal(screen) {
		switch field {
		case p.A:
			return p.B, true
		case p.B:
			return p.A, true
		}
	}
	return "", false
}

// Default is the production table.
func Default() *Table {
	return New(
		Rule{Canonical: "when_needed", Synonyms: []string{"when"}},
		Rule{Canonical: "first_home", Synonyms: []string{"first"}},
		Rule{Canonical: "citizenship", Synonyms: []string{"citizenship_countries"}},
	).
		Publish("mortgage_step1",
			Pair{A: "when", B: "when_needed"},
			Pair{A: "first", B: "first_home"},
		).
		Publish("mortgage_step2",
			Pair{A: "citizenship", B: "citizenship_countries"},
		)
}
