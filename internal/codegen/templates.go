package codegen

import "text/template"

// pageData feeds the page, component, and action templates.
type pageData struct {
	FuncName    string
	Title       string
	Description string
	Metadata    []metaEntry
	Imports     []string
	Body        string

	Client        bool
	WithMetadata  bool
	Async         bool
	DynamicParams bool
}

// The client/server boundary directive goes first when any instance in the
// file demands client-side behavior; otherwise the file stays a server
// component.
var pageTemplate = template.Must(template.New("page").Parse(`{{if .Client}}"use client";

{{end}}{{range .Imports}}{{.}}
{{end}}{{if .Imports}}
{{end}}{{if .WithMetadata}}export const metadata = {
  title: {{printf "%q" .Title}},
  description: {{printf "%q" .Description}},{{range .Metadata}}
  {{.Key}}: {{printf "%q" .Value}},{{end}}
};

{{end}}{{if .DynamicParams}}export default function {{.FuncName}}({ params }: { params: { slug: string } }) {
{{else if .Async}}export default async function {{.FuncName}}() {
  const data = await loadPageData();
{{else}}export default function {{.FuncName}}() {
{{end}}  return (
    <main>
{{.Body}}    </main>
  );
}
`))

var componentTemplate = template.Must(template.New("component").Parse(`{{if .Client}}"use client";

{{end}}{{range .Imports}}{{.}}
{{end}}{{if .Imports}}
{{end}}export function {{.FuncName}}() {
  return (
{{.Body}}  );
}
`))

// actionTemplate backs FetchServer pages with a server-side loader stub.
var actionTemplate = template.Must(template.New("action").Parse(`"use server";

export async function loadPageData() {
  return {};
}
`))
