// Package server contains the older goji generation of route table
// machinery.  New wrappers should use package generichttp; this survives
// for the flat single-device wrappers that never migrated.
package server

import (
	"net/http"

	"goji.io"
	"goji.io/pat"
)

// RouteTable maps goji patterns to handlers
type RouteTable map[*pat.Pattern]http.HandlerFunc

// Endpoints lists the route patterns in the table
func (rt RouteTable) Endpoints() []string {
	routes := make([]string, 0, len(rt))
	for p := range rt {
		routes = append(routes, p.String())
	}
	return routes
}

// Bind attaches every route in the table to mux
func (rt RouteTable) Bind(mux *goji.Mux) {
	for p, handler := range rt {
		mux.HandleFunc(p, handler)
	}
}

// HTTPer is an object that has a goji route table
type HTTPer interface {
	RT() RouteTable
}
