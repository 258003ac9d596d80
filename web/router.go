// Package web is a thin dispatch layer over net/http for handlers that return
// plain values. A handler receives the request with its arguments already
// parsed and returns a result that is converted into a response:
//
//	r := web.NewRouter()
//	r.Get("/api/blogs/{id}", func(req *web.Request) (interface{}, error) {
//		return Blog.Find(req.Context(), db, req.String("id"))
//	})
//	http.ListenAndServe(":9000", r)
package web

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/zzguang83325/morm"
)

// HandlerFunc handles a request and returns the value to send back.
type HandlerFunc func(req *Request) (interface{}, error)

// Router registers HandlerFuncs on an http.ServeMux.
type Router struct {
	mux      *http.ServeMux
	renderer Renderer
}

// Option configures a Router.
type Option func(*Router)

// WithRenderer sets the Renderer used for results carrying TemplateKey.
func WithRenderer(renderer Renderer) Option {
	return func(r *Router) { r.renderer = renderer }
}

// NewRouter creates an empty router.
func NewRouter(opts ...Option) *Router {
	r := &Router{mux: http.NewServeMux()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) Get(pattern string, h HandlerFunc) { r.add(http.MethodGet, pattern, h) }
func (r *Router) Post(pattern string, h HandlerFunc) { r.add(http.MethodPost, pattern, h) }
func (r *Router) Put(pattern string, h HandlerFunc) { r.add(http.MethodPut, pattern, h) }
func (r *Router) Delete(pattern string, h HandlerFunc) { r.add(http.MethodDelete, pattern, h) }

// Handle registers a plain http.Handler, e.g. a file server.
func (r *Router) Handle(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

var wildcardRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)(?:\.\.\.)?\}`)

// pathNames returns the wildcard names of a ServeMux pattern.
func pathNames(pattern string) []string {
	var names []string
	for _, m := range wildcardRe.FindAllStringSubmatch(pattern, -1) {
		names = append(names, m[1])
	}
	return names
}

func (r *Router) add(method, pattern string, h HandlerFunc) {
	names := pathNames(pattern)
	morm.LogInfo(fmt.Sprintf("add route %s %s", method, pattern), map[string]interface{}{"args": strings.Join(names, ", ")})
	r.mux.Handle(method+" "+pattern, &dispatcher{handler: h, pathNames: names, renderer: r.renderer})
}

// ServeHTTP logs the request and dispatches it.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	LogRequests(r.mux).ServeHTTP(w, req)
}

type dispatcher struct {
	handler   HandlerFunc
	pathNames []string
	renderer  Renderer
}

func (d *dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	args, err := parseArgs(r, d.pathNames)
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := d.handler(&Request{Request: r, Args: args})
	if err != nil {
		var apiErr *APIError
		var missing *MissingArgumentError
		switch {
		case errors.As(err, &apiErr):
			writeJSON(w, http.StatusOK, apiErr)
		case errors.As(err, &missing):
			writeText(w, http.StatusBadRequest, missing.Error())
		default:
			morm.LogError("handler failed", map[string]interface{}{"method": r.Method, "path": r.URL.Path, "error": err.Error()})
			writeText(w, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}
	writeResult(w, r, result, d.renderer)
}

// LogRequests logs "Request: METHOD path" for every request.
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		morm.LogInfo(fmt.Sprintf("Request: %s %s", r.Method, r.URL.Path), map[string]interface{}{
			"duration": time.Since(start).String(),
		})
	})
}
