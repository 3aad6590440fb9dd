package aerotech

import (
	"encoding/json"
	"net/http"

	"github.com/nasa-jpl/epicsmotor/generichttp"
	"github.com/nasa-jpl/epicsmotor/generichttp/motion"
)

// NewHTTPWrapper returns a new HTTP wrapper with the route table
// pre-configured, including the Aerotech-specific axis status decode
func NewHTTPWrapper(a *Aero) motion.HTTPMotionController {
	w := motion.NewHTTPMotionController(a)
	w.RT()[generichttp.MethodPath{Method: http.MethodGet, Path: "/axis-status"}] = AxisStatus(a)
	return w
}

// AxisStatus returns an HTTP handler func that replies with the decoded
// axis status bitfield as a JSON map of bit name to value
func AxisStatus(a *Aero) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := a.AxisStatus()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(s.All()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
