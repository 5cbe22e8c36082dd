package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinCatalogComplete(t *testing.T) {
	t.Parallel()

	r := New()
	for _, kind := range BuiltinKinds {
		def, ok := r.Lookup(kind)
		if !ok {
			t.Fatalf("builtin kind %s missing from catalog", kind)
		}
		if def.DisplayName == "" {
			t.Errorf("%s: empty display name", kind)
		}
		if def.Template == "" {
			t.Errorf("%s: empty codegen template", kind)
		}
	}
	if got, want := len(r.Kinds()), len(BuiltinKinds); got != want {
		t.Errorf("catalog has %d kinds, BuiltinKinds lists %d", got, want)
	}
}

func TestLookupUnknownKind(t *testing.T) {
	t.Parallel()

	r := New()
	if _, ok := r.Lookup("Carousel"); ok {
		t.Fatal("expected Lookup miss for unregistered kind")
	}
}

func TestAllowsChild(t *testing.T) {
	t.Parallel()

	r := New()

	tests := []struct {
		name   string
		parent Kind
		child  Kind
		want   bool
	}{
		{"box accepts anything", KindBox, KindText, true},
		{"box accepts containers", KindBox, KindSection, true},
		{"form accepts input", KindForm, KindInput, true},
		{"form rejects image", KindForm, KindImage, false},
		{"text is not a container", KindText, KindText, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := r.MustLookup(tt.parent)
			if got := def.AllowsChild(tt.child); got != tt.want {
				t.Errorf("AllowsChild(%s in %s) = %v, want %v", tt.child, tt.parent, got, tt.want)
			}
		})
	}
}

func TestHasRoom(t *testing.T) {
	t.Parallel()

	def := &Definition{
		Kind:         "Pair",
		Capabilities: Capabilities{IsContainer: true},
		Constraints:  Constraints{MaxChildren: 2},
	}
	if !def.HasRoom(0) || !def.HasRoom(1) {
		t.Error("expected room below max")
	}
	if def.HasRoom(2) {
		t.Error("expected no room at max")
	}

	unbounded := &Definition{Kind: "Box", Capabilities: Capabilities{IsContainer: true}}
	if !unbounded.HasRoom(10000) {
		t.Error("max_children=0 should mean unlimited")
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	r := New()

	if err := r.Register(&Definition{}); err == nil {
		t.Error("expected error for missing kind")
	}
	if err := r.Register(&Definition{
		Kind:         "Bad",
		Capabilities: Capabilities{IsContainer: true},
		Constraints:  Constraints{MinChildren: 3, MaxChildren: 2},
	}); err == nil {
		t.Error("expected error for min > max")
	}
	if err := r.Register(&Definition{
		Kind:        "Leafy",
		Constraints: Constraints{MaxChildren: 2},
	}); err == nil {
		t.Error("expected error for constraints on non-container")
	}
}

func TestLoadOverlays(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	overlay := `components:
  - kind: Card
    display_name: Card
    category: layout
    capabilities:
      is_container: true
      is_draggable: true
    constraints:
      max_children: 4
    template: "<div className=\"card\"{{style}}>{{children}}</div>"
  - kind: Text
    display_name: Rich Text
    category: typography
    capabilities:
      is_draggable: true
    template: "<p{{style}}>{{prop:content}}</p>"
`
	if err := os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}

	r := New()
	if err := r.LoadOverlays(dir); err != nil {
		t.Fatalf("LoadOverlays: %v", err)
	}

	card, ok := r.Lookup("Card")
	if !ok {
		t.Fatal("overlay kind Card not registered")
	}
	if card.Constraints.MaxChildren != 4 {
		t.Errorf("Card max_children = %d, want 4", card.Constraints.MaxChildren)
	}

	// Overlay overrides the builtin Text entry.
	text := r.MustLookup(KindText)
	if text.DisplayName != "Rich Text" {
		t.Errorf("Text display name = %q, want overlay override", text.DisplayName)
	}
}

func TestLoadOverlaysMissingDir(t *testing.T) {
	t.Parallel()

	r := New()
	if err := r.LoadOverlays(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Fatalf("missing overlay dir should not error: %v", err)
	}
}

func TestLoadOverlaysMalformed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("components: {not a list"), 0644); err != nil {
		t.Fatal(err)
	}
	r := New()
	if err := r.LoadOverlays(dir); err == nil {
		t.Fatal("expected parse error")
	}
}
