// Package router connects common.Router to gorilla/mux.
package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bitechdev/BreadSpec/pkg/common"
)

// MuxAdapter registers common handlers on a mux.Router
type MuxAdapter struct {
	router *mux.Router
}

func NewMuxAdapter(router *mux.Router) *MuxAdapter {
	return &MuxAdapter{router: router}
}

// HandleFunc registers handler at pattern. Path variables and the route
// name mux matched are exposed through common.Request.
func (m *MuxAdapter) HandleFunc(pattern string, handler common.HTTPHandlerFunc) common.RouteRegistration {
	route := m.router.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if current := mux.CurrentRoute(r); current != nil {
			name = current.GetName()
		}
		handler(common.NewResponse(w), common.NewRequest(r, mux.Vars(r), name))
	})
	return muxRoute{route}
}

type muxRoute struct {
	route *mux.Route
}

func (m muxRoute) Methods(methods ...string) common.RouteRegistration {
	m.route.Methods(methods...)
	return m
}

// Name names the route. BREAD handlers derive the bread slug from it.
func (m muxRoute) Name(name string) common.RouteRegistration {
	m.route.Name(name)
	return m
}
