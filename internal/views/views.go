// Package views renders the application's server-side HTML pages.
package views

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/Masterminds/sprig/v3"
	"github.com/tdewolff/minify/v2"
	minhtml "github.com/tdewolff/minify/v2/html"
)

//go:embed templates
var embedded embed.FS

const (
	layoutFile = "templates/layout.html"
	pagesGlob  = "templates/pages/*.html"
)

var ErrViewNotFound = errors.New("view not found")

// Renderer turns a named view and its context into an HTTP response.
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, data map[string]string) error
}

// Templates is a Renderer backed by html/template. Every page is parsed once
// at construction against its own clone of the layout.
type Templates struct {
	pages    map[string]*template.Template
	minifier *minify.M
}

// New parses the embedded templates.
func New(minifyHTML bool) (*Templates, error) {
	return NewFromFS(embedded, minifyHTML)
}

// NewFromFS parses the layout and pages found in fsys.
func NewFromFS(fsys fs.FS, minifyHTML bool) (*Templates, error) {
	base, err := template.New("base").Funcs(sprig.FuncMap()).ParseFS(fsys, layoutFile)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(fsys, pagesGlob)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no pages matching %s", pagesGlob)
	}

	t := &Templates{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		page, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := page.ParseFS(fsys, file); err != nil {
			return nil, fmt.Errorf("parse page %s: %w", file, err)
		}
		name := strings.TrimSuffix(path.Base(file), path.Ext(file))
		t.pages[name] = page
	}

	if minifyHTML {
		t.minifier = minify.New()
		t.minifier.Add("text/html", &minhtml.Minifier{KeepDocumentTags: true, KeepEndTags: true})
	}

	return t, nil
}

// Names lists the views that can be rendered, sorted.
func (t *Templates) Names() []string {
	names := make([]string, 0, len(t.pages))
	for name := range t.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render executes the named view into a buffer before writing anything, so a
// failed render never leaves a partial response behind.
func (t *Templates) Render(w http.ResponseWriter, status int, name string, data map[string]string) error {
	page, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrViewNotFound, name)
	}

	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	body := buf.Bytes()
	if t.minifier != nil {
		// Unminified output is still valid HTML.
		if out, err := t.minifier.Bytes("text/html", body); err == nil {
			body = out
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(body)
	return err
}
