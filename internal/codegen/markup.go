package codegen

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"pagecraft/internal/canvas"
	"pagecraft/internal/registry"
)

// walker accumulates imports and the client flag while rendering instances.
type walker struct {
	snap    canvas.Snapshot
	reg     *registry.Registry
	imports map[string]bool
	client  bool
}

// renderInstance writes the JSX for one instance (and, pre-order, its
// children) at the given indent depth. Unknown kinds become an inert
// placeholder comment so one bad node never blocks the page.
func (w *walker) renderInstance(out *strings.Builder, id string, depth int) {
	indent := strings.Repeat("  ", depth)

	inst, ok := w.snap.Components[id]
	if !ok {
		fmt.Fprintf(out, "%s{/* missing instance: %s */}\n", indent, id)
		return
	}
	if inst.Hidden {
		return
	}

	def, ok := w.reg.Lookup(inst.Kind)
	if !ok {
		fmt.Fprintf(out, "%s{/* unknown component kind: %s */}\n", indent, inst.Kind)
		return
	}

	for _, imp := range def.Imports {
		w.imports[imp] = true
	}
	if def.ClientSide {
		w.client = true
	}

	markup := def.Template
	markup = substituteProps(markup, inst, def)
	markup = strings.ReplaceAll(markup, "{{style}}", styleAttr(inst.Styles))

	if strings.Contains(markup, "{{children}}") {
		var children strings.Builder
		for _, childID := range inst.ChildIDs {
			w.renderInstance(&children, childID, depth+1)
		}
		childMarkup := children.String()
		if childMarkup == "" {
			markup = strings.ReplaceAll(markup, "{{children}}", "")
		} else {
			markup = strings.ReplaceAll(markup, "{{children}}", "\n"+childMarkup+indent)
		}
	}

	out.WriteString(indent)
	out.WriteString(markup)
	out.WriteString("\n")
}

func (w *walker) sortedImports() []string {
	out := make([]string, 0, len(w.imports))
	for imp := range w.imports {
		out = append(out, imp)
	}
	sort.Strings(out)
	return out
}

// substituteProps expands every {{prop:NAME}} placeholder from the instance's
// property map, falling back to the definition's defaults, then empty.
func substituteProps(markup string, inst *canvas.Instance, def *registry.Definition) string {
	for {
		start := strings.Index(markup, "{{prop:")
		if start < 0 {
			return markup
		}
		end := strings.Index(markup[start:], "}}")
		if end < 0 {
			return markup
		}
		name := markup[start+len("{{prop:") : start+end]

		val, ok := inst.Props[name]
		if !ok {
			val, ok = def.DefaultProps[name]
		}
		repl := ""
		if ok && val != nil {
			repl = fmt.Sprintf("%v", val)
		}
		markup = markup[:start] + repl + markup[start+end+2:]
	}
}

// styleAttr renders the style map as a JSX style attribute with camelCased
// property names, or the empty string when there are no styles.
func styleAttr(styles map[string]string) string {
	if len(styles) == 0 {
		return ""
	}
	keys := make([]string, 0, len(styles))
	for k := range styles {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %q", cssCamel(k), styles[k]))
	}
	return fmt.Sprintf(" style={{ %s }}", strings.Join(parts, ", "))
}

// cssCamel converts a kebab-case CSS property to its JSX camelCase form.
func cssCamel(prop string) string {
	parts := strings.Split(prop, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

// ToPascalCase converts a free-form name ("landing page") to PascalCase
// ("LandingPage"), dropping characters that cannot start an identifier.
func ToPascalCase(in string) string {
	var b strings.Builder
	upper := true
	for _, r := range in {
		switch {
		case unicode.IsLetter(r):
			if upper {
				b.WriteRune(unicode.ToUpper(r))
				upper = false
			} else {
				b.WriteRune(r)
			}
		case unicode.IsDigit(r):
			if b.Len() > 0 {
				b.WriteRune(r)
			}
			upper = true
		default:
			upper = true
		}
	}
	return b.String()
}
