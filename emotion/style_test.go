package emotion

import "testing"

func TestStyleTable_Resolve(t *testing.T) {
	table := DefaultStyles()

	tests := []struct {
		label string
		want  string
	}{
		{label: "heureux", want: "style fantastique, couleurs pastel, lumière douce"},
		{label: "anxieux", want: "style sombre, contrastes élevés"},
		{label: "inconnu", want: DefaultStyle},
		{label: "", want: DefaultStyle},
		{label: "Heureux", want: DefaultStyle},
	}
	for _, tt := range tests {
		if got := table.Resolve(tt.label); got != tt.want {
			t.Errorf("Resolve(%q): expected %q, got %q", tt.label, tt.want, got)
		}
	}
}

func TestNewStyleTable(t *testing.T) {
	entries := map[string]string{"joyeux": "aquarelle"}
	table := NewStyleTable(entries, "")
	entries["joyeux"] = "changed"

	if got := table.Resolve("joyeux"); got != "aquarelle" {
		t.Fatalf("expected table to keep its own copy, got %q", got)
	}
	if table.Fallback() != DefaultStyle {
		t.Fatalf("expected default fallback, got %q", table.Fallback())
	}

	custom := NewStyleTable(nil, "noir et blanc")
	if got := custom.Resolve("heureux"); got != "noir et blanc" {
		t.Fatalf("expected custom fallback, got %q", got)
	}
	if custom.Len() != 0 {
		t.Fatalf("expected empty table, got %d entries", custom.Len())
	}
}
