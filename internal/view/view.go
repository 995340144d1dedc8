package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strconv"

	"shopease/internal/domain"

	"go.uber.org/zap"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Page names accepted by Render
const (
	PageHome     = "home"
	PageProducts = "products"
	PageProduct  = "product"
	PageCart     = "cart"
	PageCheckout = "checkout"
	PageLogin    = "login"
	PageSignup   = "signup"
)

// Layout carries what every page shows around its content
type Layout struct {
	Title     string
	Path      string
	Theme     domain.Theme
	CartCount int
	Session   *domain.Session
	Notices   []domain.Notice
	Content   any
}

// Options configures the renderer
type Options struct {
	StoreName string
	Currency  string
	LogoPath  string
	Footer    template.HTML
}

type pageData struct {
	Layout
	StoreName string
	LogoPath  string
	Footer    template.HTML
}

// Renderer executes the embedded page templates inside the shared layout
type Renderer struct {
	opts   Options
	pages  map[string]*template.Template
	logger *zap.Logger
}

// New parses every page once. The layout and partials are shared; each page
// gets its own clone so that all of them can define "content".
func New(opts Options, logger *zap.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"money": func(amount int) string { return opts.Currency + strconv.Itoa(amount) },
		"asset": assetURL,
		"odd":   func(i int) bool { return i%2 == 1 },
	}

	base, err := template.New("_root").Funcs(funcs).ParseFS(templateFS, "templates/layout.tmpl", "templates/partials.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	pages := make(map[string]*template.Template)
	for _, name := range []string{PageHome, PageProducts, PageProduct, PageCart, PageCheckout, PageLogin, PageSignup} {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name+".tmpl"); err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", name, err)
		}
		pages[name] = clone
	}

	return &Renderer{opts: opts, pages: pages, logger: logger}, nil
}

// Render writes page wrapped in the layout. Output is buffered so a template
// failure still produces a clean 500.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, layout Layout) {
	var buf bytes.Buffer
	if err := r.Execute(&buf, page, layout); err != nil {
		r.logger.Error("Failed to render page", zap.String("page", page), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// Execute renders page into w
func (r *Renderer) Execute(w io.Writer, page string, layout Layout) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	layout.Theme = layout.Theme.Normalize()
	return t.ExecuteTemplate(w, "base", pageData{
		Layout:    layout,
		StoreName: r.opts.StoreName,
		LogoPath:  r.opts.LogoPath,
		Footer:    r.opts.Footer,
	})
}

// assetURL makes catalog image paths root-relative
func assetURL(path string) string {
	if path == "" || path[0] == '/' {
		return path
	}
	return "/" + path
}

// Templates exposes the embedded template files, mainly for tests
func Templates() fs.FS {
	return templateFS
}
