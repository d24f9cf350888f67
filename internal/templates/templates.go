// Package templates holds the embedded HTML templates and static assets and
// adapts them to gin's HTMLRender.
package templates

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"saferoute/internal/domain"

	"github.com/gin-gonic/gin/render"
)

//go:embed html
var htmlFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the static asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Renderer parses each page together with the shared layout so every page
// can define its own "content" block.
type Renderer struct {
	pages map[string]*template.Template
}

var _ render.HTMLRender = (*Renderer)(nil)

// New parses every page under html/. mediaURL resolves stored media
// references for the mediaURL template function.
func New(mediaURL func(ref string) string) (*Renderer, error) {
	funcs := Funcs(mediaURL)
	layout, err := template.New("base.html").Funcs(funcs).ParseFS(htmlFS, "html/base.html", "html/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	r := &Renderer{pages: make(map[string]*template.Template)}
	err = fs.WalkDir(htmlFS, "html", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(p) != ".html" {
			return err
		}
		name := strings.TrimPrefix(p, "html/")
		if name == "base.html" || strings.HasPrefix(name, "partials/") {
			return nil
		}
		t, err := layout.Clone()
		if err != nil {
			return err
		}
		if _, err := t.ParseFS(htmlFS, p); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Instance implements render.HTMLRender. Unknown names panic, as with
// gin's default renderer.
func (r *Renderer) Instance(name string, data any) render.Render {
	t, ok := r.pages[name]
	if !ok {
		panic("templates: unknown page " + name)
	}
	return render.HTML{Template: t, Name: "base.html", Data: data}
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

const displayLayout = "Jan 2, 2006 15:04"

// Funcs is the template function map.
func Funcs(mediaURL func(string) string) template.FuncMap {
	if mediaURL == nil {
		mediaURL = func(ref string) string { return ref }
	}
	return template.FuncMap{
		"mediaURL": mediaURL,
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(displayLayout)
		},
		"dateOnly": func(t time.Time) string { return t.Format("Jan 2, 2006") },
		"label":    domain.Label,
		"json": func(v any) (template.JS, error) {
			b, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return template.JS(b), nil
		},
		"truncate": func(s string, n int) string {
			r := []rune(s)
			if len(r) <= n {
				return s
			}
			return string(r[:n]) + "…"
		},
		"withPage": func(q url.Values, n int) string {
			v := url.Values{}
			for k, vals := range q {
				if k != "page" {
					v[k] = vals
				}
			}
			v.Set("page", strconv.Itoa(n))
			return "?" + v.Encode()
		},
		"incidentCategories":   func() []domain.Choice { return domain.IncidentCategories },
		"severities":           func() []domain.Choice { return domain.Severities },
		"imageTypes":           func() []domain.Choice { return domain.ImageTypes },
		"discussionCategories": func() []domain.Choice { return domain.DiscussionCategories },
		"timeWindows":          func() []domain.Choice { return domain.TimeWindows },
		"radiusMin":            func() float64 { return domain.ZoneRadiusMin },
		"radiusMax":            func() float64 { return domain.ZoneRadiusMax },
	}
}
