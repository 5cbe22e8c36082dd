package registry

// Builtin kinds. The set is closed at compile time; codegen and drag-drop use
// the capability flags rather than switching on kind names, so a new entry here
// needs no changes elsewhere.
const (
	KindBox     Kind = "Box"
	KindSection Kind = "Section"
	KindGrid    Kind = "Grid"
	KindForm    Kind = "Form"
	KindList    Kind = "List"
	KindText    Kind = "Text"
	KindHeading Kind = "Heading"
	KindButton  Kind = "Button"
	KindLink    Kind = "Link"
	KindImage   Kind = "Image"
	KindInput   Kind = "Input"
	KindDivider Kind = "Divider"
)

// BuiltinKinds lists every compiled-in kind. Kept in sync with
// builtinDefinitions by TestBuiltinCatalogComplete.
var BuiltinKinds = []Kind{
	KindBox, KindSection, KindGrid, KindForm, KindList,
	KindText, KindHeading, KindButton, KindLink, KindImage,
	KindInput, KindDivider,
}

func builtinDefinitions() []*Definition {
	container := Capabilities{IsContainer: true, IsDraggable: true, IsResizable: true}
	leaf := Capabilities{IsDraggable: true, IsResizable: true}

	return []*Definition{
		{
			Kind:        KindBox,
			DisplayName: "Box",
			Category:    "layout",
			DefaultProps: map[string]any{
				"padding": "16px",
			},
			Schema: []PropSpec{
				{Name: "padding", Label: "Padding", Type: PropString, Default: "16px"},
				{Name: "background", Label: "Background", Type: PropColor},
			},
			Capabilities: container,
			Template:     `<div{{style}}>{{children}}</div>`,
		},
		{
			Kind:         KindSection,
			DisplayName:  "Section",
			Category:     "layout",
			Capabilities: container,
			Template:     `<section{{style}}>{{children}}</section>`,
		},
		{
			Kind:        KindGrid,
			DisplayName: "Grid",
			Category:    "layout",
			DefaultProps: map[string]any{
				"columns": 2,
				"gap":     "16px",
			},
			Schema: []PropSpec{
				{Name: "columns", Label: "Columns", Type: PropNumber, Default: 2},
				{Name: "gap", Label: "Gap", Type: PropString, Default: "16px"},
			},
			Capabilities: container,
			Template:     `<div className="grid" style={{ gridTemplateColumns: "repeat({{prop:columns}}, 1fr)", gap: "{{prop:gap}}" }}>{{children}}</div>`,
		},
		{
			Kind:         KindForm,
			DisplayName:  "Form",
			Category:     "forms",
			Capabilities: container,
			Constraints: Constraints{
				AllowedChildKinds: []Kind{KindInput, KindButton, KindText, KindHeading},
			},
			Template:   `<form{{style}}>{{children}}</form>`,
			ClientSide: true,
		},
		{
			Kind:         KindList,
			DisplayName:  "List",
			Category:     "layout",
			Capabilities: container,
			Constraints:  Constraints{MinChildren: 1},
			Template:     `<ul{{style}}>{{children}}</ul>`,
		},
		{
			Kind:        KindText,
			DisplayName: "Text",
			Category:    "typography",
			DefaultProps: map[string]any{
				"content": "Text",
			},
			Schema: []PropSpec{
				{Name: "content", Label: "Content", Type: PropString, Default: "Text", Required: true},
			},
			Capabilities: leaf,
			Template:     `<p{{style}}>{{prop:content}}</p>`,
		},
		{
			Kind:        KindHeading,
			DisplayName: "Heading",
			Category:    "typography",
			DefaultProps: map[string]any{
				"content": "Heading",
				"level":   "h2",
			},
			Schema: []PropSpec{
				{Name: "content", Label: "Content", Type: PropString, Default: "Heading", Required: true},
				{Name: "level", Label: "Level", Type: PropSelect, Default: "h2", Options: []string{"h1", "h2", "h3", "h4"}},
			},
			Capabilities: leaf,
			Template:     `<{{prop:level}}{{style}}>{{prop:content}}</{{prop:level}}>`,
		},
		{
			Kind:        KindButton,
			DisplayName: "Button",
			Category:    "forms",
			DefaultProps: map[string]any{
				"label":   "Click me",
				"variant": "primary",
			},
			Schema: []PropSpec{
				{Name: "label", Label: "Label", Type: PropString, Default: "Click me", Required: true},
				{Name: "variant", Label: "Variant", Type: PropSelect, Default: "primary", Options: []string{"primary", "secondary", "ghost"}},
			},
			Capabilities: leaf,
			Template:     `<button className="btn btn-{{prop:variant}}"{{style}}>{{prop:label}}</button>`,
			ClientSide:   true,
		},
		{
			Kind:        KindLink,
			DisplayName: "Link",
			Category:    "navigation",
			DefaultProps: map[string]any{
				"href":  "/",
				"label": "Link",
			},
			Schema: []PropSpec{
				{Name: "href", Label: "URL", Type: PropURL, Default: "/", Required: true},
				{Name: "label", Label: "Label", Type: PropString, Default: "Link"},
			},
			Capabilities: leaf,
			Template:     `<Link href="{{prop:href}}"{{style}}>{{prop:label}}</Link>`,
			Imports:      []string{`import Link from "next/link";`},
		},
		{
			Kind:        KindImage,
			DisplayName: "Image",
			Category:    "media",
			DefaultProps: map[string]any{
				"src": "/placeholder.png",
				"alt": "",
			},
			Schema: []PropSpec{
				{Name: "src", Label: "Source", Type: PropURL, Default: "/placeholder.png", Required: true},
				{Name: "alt", Label: "Alt text", Type: PropString},
			},
			Capabilities: leaf,
			Template:     `<Image src="{{prop:src}}" alt="{{prop:alt}}" width={400} height={300}{{style}} />`,
			Imports:      []string{`import Image from "next/image";`},
		},
		{
			Kind:        KindInput,
			DisplayName: "Input",
			Category:    "forms",
			DefaultProps: map[string]any{
				"placeholder": "",
				"type":        "text",
			},
			Schema: []PropSpec{
				{Name: "placeholder", Label: "Placeholder", Type: PropString},
				{Name: "type", Label: "Type", Type: PropSelect, Default: "text", Options: []string{"text", "email", "password", "number"}},
			},
			Capabilities: leaf,
			Template:     `<input type="{{prop:type}}" placeholder="{{prop:placeholder}}"{{style}} />`,
			ClientSide:   true,
		},
		{
			Kind:         KindDivider,
			DisplayName:  "Divider",
			Category:     "layout",
			Capabilities: Capabilities{IsDraggable: true},
			Template:     `<hr{{style}} />`,
		},
	}
}
