// Package codegen walks a canvas snapshot and emits Next.js source text. It is
// strictly read-only: input is a snapshot plus the registry, output is an
// array of file records the caller writes wherever it likes. Structural
// well-formedness of the tree is the store's job; syntactic templating is
// ours; whether the result satisfies a TypeScript compiler is neither.
package codegen

import (
	"bytes"
	"fmt"
	"path"
	"sort"
	"strings"
	"text/template"

	"pagecraft/internal/canvas"
	"pagecraft/internal/registry"
)

// FileType categorizes a generated record.
type FileType string

const (
	FilePage      FileType = "page"
	FileComponent FileType = "component"
	FileAction    FileType = "action"
	FileTypeDef   FileType = "type"
	FileRoute     FileType = "route"
)

// File is one generated artifact. The engine only produces text; the
// surrounding application decides where and whether to write it.
type File struct {
	Type     FileType `json:"type"`
	Path     string   `json:"path"`
	Content  string   `json:"content"`
	Language string   `json:"language"`
}

// DataFetching selects the page-level wrapper template.
type DataFetching string

const (
	// FetchNone wraps the tree in a bare page component.
	FetchNone DataFetching = ""
	// FetchStatic adds the metadata export.
	FetchStatic DataFetching = "static"
	// FetchServer makes the page async with a data-fetching helper.
	FetchServer DataFetching = "server"
	// FetchDynamic adds dynamic route params to the page signature.
	FetchDynamic DataFetching = "dynamic"
)

// Page is the page-level input to Generate.
type Page struct {
	Title        string
	Description  string
	Path         string // route path, e.g. "/", "/about", "/blog/[slug]"
	Metadata     map[string]string
	DataFetching DataFetching
}

// Generate renders one page from the snapshot's roots. The walk is depth-first
// pre-order; unknown kinds degrade to placeholder comments rather than
// aborting the page.
func Generate(page Page, snap canvas.Snapshot, reg *registry.Registry) ([]File, error) {
	w := &walker{snap: snap, reg: reg, imports: map[string]bool{}}

	var body strings.Builder
	for _, rootID := range snap.RootIDs {
		w.renderInstance(&body, rootID, 3)
	}

	funcName := ToPascalCase(page.Title)
	if funcName == "" {
		funcName = "Index"
	}
	funcName += "Page"

	data := pageData{
		FuncName:    funcName,
		Title:       page.Title,
		Description: page.Description,
		Metadata:    sortedMetadata(page.Metadata),
		Imports:     w.sortedImports(),
		Client:      w.client,
		Body:        body.String(),
	}
	switch page.DataFetching {
	case FetchNone:
		// bare
	case FetchStatic:
		data.WithMetadata = true
	case FetchServer:
		data.Async = true
		data.WithMetadata = len(page.Metadata) > 0 || page.Title != ""
		data.Imports = append([]string{`import { loadPageData } from "./actions";`}, data.Imports...)
	case FetchDynamic:
		data.DynamicParams = true
	default:
		return nil, fmt.Errorf("codegen: unknown data fetching mode %q", page.DataFetching)
	}

	content, err := renderTemplate(pageTemplate, data)
	if err != nil {
		return nil, err
	}

	files := []File{{
		Type:     FilePage,
		Path:     PagePath(page.Path),
		Content:  content,
		Language: "tsx",
	}}

	if page.DataFetching == FetchServer {
		action, err := renderTemplate(actionTemplate, data)
		if err != nil {
			return nil, err
		}
		files = append(files, File{
			Type:     FileAction,
			Path:     path.Join(path.Dir(PagePath(page.Path)), "actions.ts"),
			Content:  action,
			Language: "ts",
		})
	}
	return files, nil
}

// GenerateComponent renders the subtree rooted at rootID as a standalone,
// reusable component file. Used when a block is extracted from a page.
func GenerateComponent(name, rootID string, snap canvas.Snapshot, reg *registry.Registry) (File, error) {
	if _, ok := snap.Components[rootID]; !ok {
		return File{}, fmt.Errorf("codegen: unknown root instance %s", rootID)
	}
	compName := ToPascalCase(name)
	if compName == "" {
		compName = "Extracted"
	}

	w := &walker{snap: snap, reg: reg, imports: map[string]bool{}}
	var body strings.Builder
	w.renderInstance(&body, rootID, 2)

	content, err := renderTemplate(componentTemplate, pageData{
		FuncName: compName,
		Imports:  w.sortedImports(),
		Client:   w.client,
		Body:     body.String(),
	})
	if err != nil {
		return File{}, err
	}
	return File{
		Type:     FileComponent,
		Path:     "components/" + compName + ".tsx",
		Content:  content,
		Language: "tsx",
	}, nil
}

// PagePath maps a route path to its app-router file location.
func PagePath(route string) string {
	route = strings.Trim(route, "/")
	if route == "" {
		return "app/page.tsx"
	}
	return "app/" + route + "/page.tsx"
}

type metaEntry struct{ Key, Value string }

func sortedMetadata(m map[string]string) []metaEntry {
	out := make([]metaEntry, 0, len(m))
	for k, v := range m {
		out = append(out, metaEntry{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func renderTemplate(t *template.Template, data pageData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("codegen: rendering %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
