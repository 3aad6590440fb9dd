package motion

import (
	"encoding/json"
	"errors"
	"go/types"
	"net/http"
	"strconv"

	"github.com/nasa-jpl/epicsmotor/generichttp"
	"github.com/nasa-jpl/epicsmotor/pv"
)

// disabledError is matched with errors.As to translate "device refused
// motion because it is unpowered" into a 403 without this package
// knowing any vendor's concrete error type
type disabledError interface {
	error
	Disabled() bool
}

// popWait reads the wait query parameter; wait=true blocks the handler
// until the pending operation resolves
func popWait(r *http.Request) (bool, error) {
	wait := r.URL.Query().Get("wait")
	if wait == "" {
		return false, nil
	}
	return strconv.ParseBool(wait)
}

// respondStatus completes a handler holding a pending-operation status,
// blocking on it if the request asked to
func respondStatus(w http.ResponseWriter, r *http.Request, st *pv.Status) {
	wait, err := popWait(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if wait {
		if err := st.Wait(0); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

// statusHandler adapts a niladic pending-operation method to a handler
func statusHandler(fcn func() *pv.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondStatus(w, r, fcn())
	}
}

// setFloatStatus adapts a float-writing pending-operation method to a
// handler consuming {'f64': value}
func setFloatStatus(fcn func(float64) *pv.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := generichttp.FloatT{}
		err := json.NewDecoder(r.Body).Decode(&f)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		respondStatus(w, r, fcn(f.F64))
	}
}

// setIntStatus is setFloatStatus for {'int': value}
func setIntStatus(fcn func(int) *pv.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i := generichttp.IntT{}
		err := json.NewDecoder(r.Body).Decode(&i)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		respondStatus(w, r, fcn(i.Int))
	}
}

// HTTPEnable adds routes for the enabler to the route table
func HTTPEnable(iface Enabler, table generichttp.RouteTable) {
	table[generichttp.MethodPath{Method: http.MethodGet, Path: "/enabled"}] = generichttp.GetBool(iface.Enabled)
	table[generichttp.MethodPath{Method: http.MethodPost, Path: "/enabled"}] = SetEnabled(iface)
}

// SetEnabled returns an HTTP handler func from an enabler that enables or
// disables the device based on a {'bool': value} body
func SetEnabled(e Enabler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		boolT := generichttp.BoolT{}
		err := json.NewDecoder(r.Body).Decode(&boolT)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var st *pv.Status
		if boolT.Bool {
			st = e.Enable()
		} else {
			st = e.Disable()
		}
		respondStatus(w, r, st)
	}
}

// HTTPMove adds routes for the mover to the route table
func HTTPMove(iface Mover, table generichttp.RouteTable) {
	table[generichttp.MethodPath{Method: http.MethodGet, Path: "/pos"}] = generichttp.GetFloat(iface.Position)
	table[generichttp.MethodPath{Method: http.MethodPost, Path: "/pos"}] = SetPos(iface)
}

// SetPos returns an HTTP handler func from a mover that commands a move
// to the {'f64': value} body.  A move refused because the device is
// disabled responds 403; the caller must enable first.
func SetPos(m Mover) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := generichttp.FloatT{}
		err := json.NewDecoder(r.Body).Decode(&f)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		st, err := m.Move(f.F64)
		if err != nil {
			var de disabledError
			if errors.As(err, &de) && de.Disabled() {
				http.Error(w, err.Error(), http.StatusForbidden)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondStatus(w, r, st)
	}
}

// HTTPFault adds routes for the faulter to the route table
func HTTPFault(iface Faulter, table generichttp.RouteTable) {
	table[generichttp.MethodPath{Method: http.MethodGet, Path: "/fault"}] = generichttp.GetBool(iface.Faulted)
	table[generichttp.MethodPath{Method: http.MethodPost, Path: "/clear"}] = statusHandler(iface.Clear)
}

// HTTPRetry adds routes for the retrier to the route table
func HTTPRetry(iface Retrier, table generichttp.RouteTable) {
	table[generichttp.MethodPath{Method: http.MethodGet, Path: "/retries"}] = generichttp.GetInt(iface.Retries)
	table[generichttp.MethodPath{Method: http.MethodGet, Path: "/retries/max"}] = generichttp.GetInt(iface.RetriesMax)
	table[generichttp.MethodPath{Method: http.MethodPost, Path: "/retries/max"}] = setIntStatus(iface.SetRetriesMax)
	table[generichttp.MethodPath{Method: http.MethodGet, Path: "/retries/deadband"}] = generichttp.GetFloat(iface.RetriesDeadband)
	table[generichttp.MethodPath{Method: http.MethodPost, Path: "/retries/deadband"}] = setFloatStatus(iface.SetRetriesDeadband)
}

// HTTPConfiguration adds routes for the configurer to the route table
func HTTPConfiguration(iface Configurer, table generichttp.RouteTable) {
	table[generichttp.MethodPath{Method: http.MethodGet, Path: "/configuration"}] = func(w http.ResponseWriter, r *http.Request) {
		cfg, err := iface.Configuration()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(cfg); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
	table[generichttp.MethodPath{Method: http.MethodGet, Path: "/connected"}] = func(w http.ResponseWriter, r *http.Request) {
		hp := generichttp.HumanPayload{T: types.Bool, Bool: iface.Connected()}
		hp.EncodeAndRespond(w, r)
	}
}
