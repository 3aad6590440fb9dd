package pv

import (
	"encoding/json"
	"go/types"
	"net/http"

	"goji.io/pat"

	"github.com/nasa-jpl/epicsmotor/generichttp"
	"github.com/nasa-jpl/epicsmotor/server"
)

// HTTPGateway exposes raw get/put access to a PV namespace over HTTP.
// It predates the motion wrappers and stays on the goji route table.
type HTTPGateway struct {
	conn Conn

	RouteTable server.RouteTable
}

// NewHTTPGateway returns an HTTP wrapper around conn with a
// pre-populated route table
func NewHTTPGateway(conn Conn) HTTPGateway {
	g := HTTPGateway{conn: conn}
	rt := server.RouteTable{}
	rt[pat.Get("/pv/:name")] = g.GetPV
	rt[pat.Post("/pv/:name")] = g.PutPV
	g.RouteTable = rt
	return g
}

// RT makes HTTPGateway conform to server.HTTPer
func (g HTTPGateway) RT() server.RouteTable {
	return g.RouteTable
}

// GetPV reads the named PV and replies with {'f64': value}
func (g HTTPGateway) GetPV(w http.ResponseWriter, r *http.Request) {
	name := pat.Param(r, "name")
	v, err := g.conn.Get(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	hp := generichttp.HumanPayload{T: types.Float64, Float: v}
	hp.EncodeAndRespond(w, r)
}

// PutPV writes the {'f64': value} body to the named PV
func (g HTTPGateway) PutPV(w http.ResponseWriter, r *http.Request) {
	name := pat.Param(r, "name")
	f := generichttp.FloatT{}
	err := json.NewDecoder(r.Body).Decode(&f)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err = g.conn.Put(name, f.F64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
