package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecraft/internal/canvas"
	"pagecraft/internal/registry"
)

func buildFixture(t *testing.T) (*canvas.Store, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	return canvas.NewStore(reg), reg
}

func mustAdd(t *testing.T, s *canvas.Store, kind registry.Kind, parentID string) *canvas.Instance {
	t.Helper()
	inst, err := s.AddComponent(kind, parentID, -1)
	require.NoError(t, err)
	return inst
}

func TestGenerateEmptyPage(t *testing.T) {
	t.Parallel()

	s, reg := buildFixture(t)
	files, err := Generate(Page{Title: "Landing", Path: "/"}, s.Snapshot(), reg)
	require.NoError(t, err)
	require.Len(t, files, 1)

	f := files[0]
	assert.Equal(t, FilePage, f.Type)
	assert.Equal(t, "app/page.tsx", f.Path)
	assert.Equal(t, "tsx", f.Language)
	assert.Contains(t, f.Content, "export default function LandingPage()")
	assert.NotContains(t, f.Content, "<p")
	assert.NotContains(t, f.Content, "use client")
}

func TestGenerateSubstitutesPropsAndStyles(t *testing.T) {
	t.Parallel()

	s, reg := buildFixture(t)
	box := mustAdd(t, s, registry.KindBox, "")
	text := mustAdd(t, s, registry.KindText, box.ID)
	s.UpdateComponent(text.ID, canvas.Patch{
		Props:  map[string]any{"content": "Hello world"},
		Styles: map[string]string{"font-size": "18px", "color": "#111"},
	}, true)

	files, err := Generate(Page{Title: "Home", Path: "/"}, s.Snapshot(), reg)
	require.NoError(t, err)

	content := files[0].Content
	assert.Contains(t, content, ">Hello world</p>")
	assert.Contains(t, content, `style={{ color: "#111", fontSize: "18px" }}`)
}

func TestGeneratePropDefaultsFallback(t *testing.T) {
	t.Parallel()

	s, reg := buildFixture(t)
	mustAdd(t, s, registry.KindHeading, "")

	files, err := Generate(Page{Title: "Home", Path: "/"}, s.Snapshot(), reg)
	require.NoError(t, err)
	assert.Contains(t, files[0].Content, "<h2>Heading</h2>")
}

func TestGenerateChildrenInOrder(t *testing.T) {
	t.Parallel()

	s, reg := buildFixture(t)
	box := mustAdd(t, s, registry.KindBox, "")
	first := mustAdd(t, s, registry.KindText, box.ID)
	second := mustAdd(t, s, registry.KindText, box.ID)
	s.UpdateComponent(first.ID, canvas.Patch{Props: map[string]any{"content": "alpha"}}, true)
	s.UpdateComponent(second.ID, canvas.Patch{Props: map[string]any{"content": "beta"}}, true)

	files, err := Generate(Page{Title: "Home", Path: "/"}, s.Snapshot(), reg)
	require.NoError(t, err)

	content := files[0].Content
	alpha := strings.Index(content, "alpha")
	beta := strings.Index(content, "beta")
	require.True(t, alpha >= 0 && beta >= 0, "children missing from output:\n%s", content)
	assert.Less(t, alpha, beta, "children should render in childIds order")
}

func TestGenerateImportsDeduplicated(t *testing.T) {
	t.Parallel()

	s, reg := buildFixture(t)
	box := mustAdd(t, s, registry.KindBox, "")
	mustAdd(t, s, registry.KindLink, box.ID)
	mustAdd(t, s, registry.KindLink, box.ID)
	mustAdd(t, s, registry.KindImage, box.ID)

	files, err := Generate(Page{Title: "Nav", Path: "/nav"}, s.Snapshot(), reg)
	require.NoError(t, err)

	content := files[0].Content
	assert.Equal(t, 1, strings.Count(content, `import Link from "next/link";`))
	assert.Equal(t, 1, strings.Count(content, `import Image from "next/image";`))

	// Imports are hoisted above the component body.
	importIdx := strings.Index(content, "import Link")
	exportIdx := strings.Index(content, "export default")
	assert.Less(t, importIdx, exportIdx)
}

func TestGenerateClientDirective(t *testing.T) {
	t.Parallel()

	s, reg := buildFixture(t)
	box := mustAdd(t, s, registry.KindBox, "")

	files, err := Generate(Page{Title: "Home", Path: "/"}, s.Snapshot(), reg)
	require.NoError(t, err)
	assert.NotContains(t, files[0].Content, `"use client"`, "server page by default")

	mustAdd(t, s, registry.KindButton, box.ID)
	files, err = Generate(Page{Title: "Home", Path: "/"}, s.Snapshot(), reg)
	require.NoError(t, err)
	content := files[0].Content
	assert.True(t, strings.HasPrefix(content, `"use client";`),
		"client directive must lead the file:\n%s", content)
}

func TestGenerateUnknownKindDegrades(t *testing.T) {
	t.Parallel()

	s, reg := buildFixture(t)
	box := mustAdd(t, s, registry.KindBox, "")

	// Register a transient kind, place one, then generate against a registry
	// that has never heard of it.
	scratch := registry.New()
	require.NoError(t, scratch.Register(&registry.Definition{
		Kind:         "Carousel",
		DisplayName:  "Carousel",
		Category:     "media",
		Capabilities: registry.Capabilities{IsDraggable: true},
		Template:     `<Carousel />`,
	}))
	snap := s.Snapshot()
	snap.Components["ghost"] = &canvas.Instance{ID: "ghost", Kind: "Carousel", ParentID: box.ID}
	snap.Components[box.ID].ChildIDs = append(snap.Components[box.ID].ChildIDs, "ghost")

	files, err := Generate(Page{Title: "Home", Path: "/"}, snap, reg)
	require.NoError(t, err, "one unknown kind must not abort generation")
	assert.Contains(t, files[0].Content, "{/* unknown component kind: Carousel */}")
}

func TestGenerateHiddenInstancesSkipped(t *testing.T) {
	t.Parallel()

	s, reg := buildFixture(t)
	text := mustAdd(t, s, registry.KindText, "")
	hidden := true
	s.UpdateComponent(text.ID, canvas.Patch{Hidden: &hidden}, true)

	files, err := Generate(Page{Title: "Home", Path: "/"}, s.Snapshot(), reg)
	require.NoError(t, err)
	assert.NotContains(t, files[0].Content, "<p")
}

func TestGenerateDataFetchingModes(t *testing.T) {
	t.Parallel()

	s, reg := buildFixture(t)
	snap := s.Snapshot()

	t.Run("static adds metadata export", func(t *testing.T) {
		files, err := Generate(Page{
			Title:        "About",
			Description:  "About us",
			Path:         "/about",
			DataFetching: FetchStatic,
			Metadata:     map[string]string{"keywords": "health, admin"},
		}, snap, reg)
		require.NoError(t, err)
		content := files[0].Content
		assert.Contains(t, content, "export const metadata = {")
		assert.Contains(t, content, `title: "About"`)
		assert.Contains(t, content, `keywords: "health, admin"`)
	})

	t.Run("server is async with an action file", func(t *testing.T) {
		files, err := Generate(Page{Title: "Feed", Path: "/feed", DataFetching: FetchServer}, snap, reg)
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.Contains(t, files[0].Content, "export default async function FeedPage()")
		assert.Contains(t, files[0].Content, "await loadPageData()")
		assert.Equal(t, FileAction, files[1].Type)
		assert.Equal(t, "app/feed/actions.ts", files[1].Path)
		assert.Contains(t, files[1].Content, `"use server";`)
	})

	t.Run("dynamic takes route params", func(t *testing.T) {
		files, err := Generate(Page{Title: "Post", Path: "/blog/[slug]", DataFetching: FetchDynamic}, snap, reg)
		require.NoError(t, err)
		assert.Contains(t, files[0].Content, "{ params }: { params: { slug: string } }")
		assert.Equal(t, "app/blog/[slug]/page.tsx", files[0].Path)
	})

	t.Run("unknown mode errors", func(t *testing.T) {
		_, err := Generate(Page{Title: "X", Path: "/x", DataFetching: "psychic"}, snap, reg)
		assert.Error(t, err)
	})
}

func TestGenerateComponent(t *testing.T) {
	t.Parallel()

	s, reg := buildFixture(t)
	section := mustAdd(t, s, registry.KindSection, "")
	mustAdd(t, s, registry.KindButton, section.ID)

	f, err := GenerateComponent("hero banner", section.ID, s.Snapshot(), reg)
	require.NoError(t, err)
	assert.Equal(t, FileComponent, f.Type)
	assert.Equal(t, "components/HeroBanner.tsx", f.Path)
	assert.Contains(t, f.Content, "export function HeroBanner()")
	assert.True(t, strings.HasPrefix(f.Content, `"use client";`), "Button forces client side")

	_, err = GenerateComponent("x", "ghost", s.Snapshot(), reg)
	assert.Error(t, err)
}

func TestPagePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		route, want string
	}{
		{"/", "app/page.tsx"},
		{"", "app/page.tsx"},
		{"/about", "app/about/page.tsx"},
		{"/blog/[slug]", "app/blog/[slug]/page.tsx"},
		{"dashboard/settings", "app/dashboard/settings/page.tsx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PagePath(tt.route), "route %q", tt.route)
	}
}

func TestToPascalCase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"landing page", "LandingPage"},
		{"hero-banner", "HeroBanner"},
		{"my_component", "MyComponent"},
		{"2fa settings", "FaSettings"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToPascalCase(tt.in), "input %q", tt.in)
	}
}
