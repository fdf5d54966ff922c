package common

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// Router registers BREAD handlers on a concrete HTTP router
type Router interface {
	HandleFunc(pattern string, handler HTTPHandlerFunc) RouteRegistration
}

// RouteRegistration allows method chaining for route configuration
type RouteRegistration interface {
	Methods(methods ...string) RouteRegistration
	Name(name string) RouteRegistration
}

// Request is the router-independent view of an incoming request
type Request interface {
	Method() string
	URL() string
	Header(key string) string
	Body() ([]byte, error)
	PathParam(key string) string
	QueryParam(key string) string
	FormValue(key string) (string, bool)
	// RouteName is the name the matched route was registered under, or ""
	RouteName() string
	Context() context.Context
	UnderlyingRequest() *http.Request
}

// ResponseWriter is the router-independent response
type ResponseWriter interface {
	SetHeader(key, value string)
	WriteHeader(statusCode int)
	Write(data []byte) (int, error)
	WriteJSON(data interface{}) error
	UnderlyingResponseWriter() http.ResponseWriter
}

type HTTPHandlerFunc func(ResponseWriter, Request)

// WrapHTTPRequest wraps a plain net/http pair. The request has no path
// parameters and no route name.
func WrapHTTPRequest(w http.ResponseWriter, r *http.Request) (ResponseWriter, Request) {
	return NewResponse(w), NewRequest(r, nil, "")
}

// NewRequest wraps r with the path variables and route name a router matched
func NewRequest(r *http.Request, vars map[string]string, routeName string) *HTTPRequest {
	return &HTTPRequest{r: r, vars: vars, routeName: routeName}
}

// HTTPRequest implements Request over *http.Request. The body is read once
// and kept.
type HTTPRequest struct {
	r         *http.Request
	vars      map[string]string
	routeName string
	body      []byte
	bodyRead  bool
}

func (h *HTTPRequest) Method() string                   { return h.r.Method }
func (h *HTTPRequest) URL() string                      { return h.r.URL.String() }
func (h *HTTPRequest) Header(key string) string         { return h.r.Header.Get(key) }
func (h *HTTPRequest) PathParam(key string) string      { return h.vars[key] }
func (h *HTTPRequest) QueryParam(key string) string     { return h.r.URL.Query().Get(key) }
func (h *HTTPRequest) RouteName() string                { return h.routeName }
func (h *HTTPRequest) Context() context.Context         { return h.r.Context() }
func (h *HTTPRequest) UnderlyingRequest() *http.Request { return h.r }

func (h *HTTPRequest) FormValue(key string) (string, bool) {
	return FormValue(h.r, key)
}

func (h *HTTPRequest) Body() ([]byte, error) {
	if h.bodyRead || h.r.Body == nil {
		return h.body, nil
	}
	defer h.r.Body.Close()
	body, err := io.ReadAll(h.r.Body)
	if err != nil {
		return nil, err
	}
	h.body, h.bodyRead = body, true
	return body, nil
}

// HTTPResponse implements ResponseWriter over http.ResponseWriter
type HTTPResponse struct {
	w      http.ResponseWriter
	status int
}

func NewResponse(w http.ResponseWriter) *HTTPResponse {
	return &HTTPResponse{w: w}
}

// Status is the code passed to WriteHeader, 0 before that
func (h *HTTPResponse) Status() int { return h.status }

func (h *HTTPResponse) SetHeader(key, value string)                   { h.w.Header().Set(key, value) }
func (h *HTTPResponse) Write(data []byte) (int, error)                { return h.w.Write(data) }
func (h *HTTPResponse) UnderlyingResponseWriter() http.ResponseWriter { return h.w }

func (h *HTTPResponse) WriteHeader(statusCode int) {
	h.status = statusCode
	h.w.WriteHeader(statusCode)
}

func (h *HTTPResponse) WriteJSON(data interface{}) error {
	h.SetHeader("Content-Type", "application/json")
	return json.NewEncoder(h.w).Encode(data)
}

// FormValue looks key up in the query string first, then in a url-encoded or
// multipart body. The boolean reports whether the key was present at all.
func FormValue(r *http.Request, key string) (string, bool) {
	if values, ok := r.URL.Query()[key]; ok && len(values) > 0 {
		return values[0], true
	}
	if r.Method == http.MethodGet || r.Body == nil {
		return "", false
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil && err != http.ErrNotMultipart {
		return "", false
	}
	if values, ok := r.PostForm[key]; ok && len(values) > 0 {
		return values[0], true
	}
	return "", false
}
