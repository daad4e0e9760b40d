package emotion

// DefaultStyle is used for every label missing from a StyleTable.
const DefaultStyle = "style onirique"

var builtinStyles = map[string]string{
	"heureux":   "style fantastique, couleurs pastel, lumière douce",
	"anxieux":   "style sombre, contrastes élevés",
	"stressant": "style nerveux, perspectives déformées, ombres profondes",
	"neutre":    "style réaliste, tons doux, lumière naturelle",
	"bizarre":   "style surréaliste, couleurs saturées, formes impossibles",
}

// StyleTable maps emotion labels to visual style descriptors, with a fallback.
type StyleTable struct {
	entries  map[string]string
	fallback string
}

// NewStyleTable copies entries. An empty fallback means DefaultStyle.
func NewStyleTable(entries map[string]string, fallback string) *StyleTable {
	if fallback == "" {
		fallback = DefaultStyle
	}
	t := &StyleTable{entries: make(map[string]string, len(entries)), fallback: fallback}
	for label, style := range entries {
		t.entries[label] = style
	}
	return t
}

// DefaultStyles is the built-in table.
func DefaultStyles() *StyleTable {
	return NewStyleTable(builtinStyles, DefaultStyle)
}

// Resolve never fails: unknown labels get the fallback descriptor.
func (t *StyleTable) Resolve(label string) string {
	if style, ok := t.entries[label]; ok {
		return style
	}
	return t.fallback
}

func (t *StyleTable) Fallback() string { return t.fallback }

func (t *StyleTable) Len() int { return len(t.entries) }
