// Package web serves the forecast form as a server-rendered HTML page.
package web

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kalambet/m5front/internal/predictor"
	"github.com/kalambet/m5front/internal/view"
)

const maxFormBodySize = 64 << 10 // 64KB

// Deps are the collaborators of the form handler. Options may be nil, in
// which case select mode degrades to free-text inputs.
type Deps struct {
	Predictor view.Predictor
	Options   view.OptionSource
	Mode      view.InputMode
}

var pageTemplate = template.Must(template.ParseFS(embeddedTemplates, "templates/*.tmpl"))

// NewHandler returns the router of the web surface.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)
	r.Get("/", handleForm(deps))
	r.Post("/", handleSubmit(deps))
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS()))))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleForm mounts a fresh view: in select mode this is where the option
// lists are loaded.
func handleForm(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := view.Mount(requestContext(r), deps.Mode, deps.Options)
		render(w, s)
	}
}

func handleSubmit(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBodySize)
		defer r.Body.Close()

		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form body", http.StatusBadRequest)
			return
		}

		ctx := requestContext(r)

		s := view.Mount(ctx, deps.Mode, deps.Options)
		for _, field := range []string{view.FieldItem, view.FieldStore, view.FieldDate} {
			s = view.Reduce(s, view.FieldChanged{Field: field, Value: strings.TrimSpace(r.PostForm.Get(field))})
		}
		s = view.Submit(ctx, deps.Predictor, s, nil)

		render(w, s)
	}
}

// requestContext carries the chi request id to every outbound call made for r.
func requestContext(r *http.Request) context.Context {
	return predictor.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
}

// pageData flattens a view.State into what the template needs.
type pageData struct {
	State       view.State
	ItemSelect  bool
	StoreSelect bool
	ShowError   bool
	ShowResult  bool
	ResultText  string
	Stylesheet  string
}

func newPageData(s view.State) pageData {
	panel := s.Panel()
	return pageData{
		State:       s,
		ItemSelect:  s.UseSelect(view.FieldItem),
		StoreSelect: s.UseSelect(view.FieldStore),
		ShowError:   panel == view.PanelError,
		ShowResult:  panel == view.PanelResult,
		ResultText:  s.ResultText(),
		Stylesheet:  "/static/" + StylesheetName,
	}
}

func render(w http.ResponseWriter, s view.State) {
	var buf bytes.Buffer
	if err := pageTemplate.ExecuteTemplate(&buf, "index.html.tmpl", newPageData(s)); err != nil {
		slog.Error("rendering form", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
