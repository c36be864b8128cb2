package static

import (
	"bytes"
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/tdewolff/minify/v2"
	mincss "github.com/tdewolff/minify/v2/css"
)

//go:embed dist/*
var dist embed.FS

// asset is a file held in memory, minified where a minifier exists for its type.
type asset struct {
	name    string
	content []byte
}

// Handler serves the embedded stylesheet assets.
func Handler() http.Handler {
	return NewHandler(dist)
}

// NewHandler serves the files under dist/ in fsys. Assets are read and
// minified once; unknown paths and directories get a 404.
func NewHandler(fsys fs.FS) http.Handler {
	sub, err := fs.Sub(fsys, "dist")
	if err != nil {
		return notFound()
	}

	assets, err := loadAssets(sub)
	if err != nil || len(assets) == 0 {
		return notFound()
	}

	// Embedded files carry no mod time; use process start for Last-Modified.
	modTime := time.Now()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upath := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		a, ok := assets[upath]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		http.ServeContent(w, r, a.name, modTime, bytes.NewReader(a.content))
	})
}

func loadAssets(fsys fs.FS) (map[string]asset, error) {
	m := minify.New()
	m.AddFunc("text/css", mincss.Minify)

	assets := make(map[string]asset)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		if path.Ext(p) == ".css" {
			if out, err := m.Bytes("text/css", content); err == nil {
				content = out
			}
		}
		assets[p] = asset{name: path.Base(p), content: content}
		return nil
	})
	return assets, err
}

func notFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "static assets not found", http.StatusNotFound)
	})
}
