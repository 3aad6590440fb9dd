// Package motion provides an HTTP interface to PV-backed positioners.
//
// A positioner may implement any number of the small interfaces here;
// NewHTTPMotionController probes for each of them and binds routes only
// for what the device supports.
package motion

import (
	"net/http"

	"github.com/nasa-jpl/epicsmotor/generichttp"
	"github.com/nasa-jpl/epicsmotor/pv"
)

// Enabler describes a device with a power enable
type Enabler interface {
	// Enable powers the device on
	Enable() *pv.Status

	// Disable powers the device off
	Disable() *pv.Status

	// Enabled gets if the device is powered
	Enabled() (bool, error)
}

// Mover describes a device with a commandable position
type Mover interface {
	// Move commands an absolute move
	Move(float64) (*pv.Status, error)

	// Position gets the current position
	Position() (float64, error)
}

// Stopper describes a device that can halt motion
type Stopper interface {
	// Stop halts motion immediately
	Stop() *pv.Status
}

// Speeder describes a device with a programmable velocity
type Speeder interface {
	// Velocity gets the programmed velocity
	Velocity() (float64, error)

	// SetVelocity programs the velocity
	SetVelocity(float64) *pv.Status
}

// Faulter describes a device that surfaces a fault flag
type Faulter interface {
	// Faulted gets if the device is faulted
	Faulted() (bool, error)

	// Clear clears the fault
	Clear() *pv.Status
}

// Reconfigurer describes a device that can re-run its configuration
type Reconfigurer interface {
	Reconfig() *pv.Status
}

// Retrier describes a device that surfaces firmware retry state
type Retrier interface {
	Retries() (int, error)
	RetriesMax() (int, error)
	SetRetriesMax(int) *pv.Status
	RetriesDeadband() (float64, error)
	SetRetriesDeadband(float64) *pv.Status
}

// Configurer describes a device with a configuration snapshot
type Configurer interface {
	Configuration() (map[string]float64, error)
	Connected() bool
}

// HTTPMotionController wraps a positioner with HTTP
type HTTPMotionController struct {
	dev interface{}

	RouteTable generichttp.RouteTable
}

// NewHTTPMotionController returns a new HTTP wrapper with the route table
// pre-configured for every interface dev satisfies
func NewHTTPMotionController(dev interface{}) HTTPMotionController {
	w := HTTPMotionController{dev: dev}
	rt := generichttp.RouteTable{}
	if e, ok := dev.(Enabler); ok {
		HTTPEnable(e, rt)
	}
	if m, ok := dev.(Mover); ok {
		HTTPMove(m, rt)
	}
	if s, ok := dev.(Stopper); ok {
		rt[generichttp.MethodPath{Method: http.MethodPost, Path: "/stop"}] = statusHandler(s.Stop)
	}
	if s, ok := dev.(Speeder); ok {
		rt[generichttp.MethodPath{Method: http.MethodGet, Path: "/velocity"}] = generichttp.GetFloat(s.Velocity)
		rt[generichttp.MethodPath{Method: http.MethodPost, Path: "/velocity"}] = setFloatStatus(s.SetVelocity)
	}
	if f, ok := dev.(Faulter); ok {
		HTTPFault(f, rt)
	}
	if r, ok := dev.(Reconfigurer); ok {
		rt[generichttp.MethodPath{Method: http.MethodPost, Path: "/reconfig"}] = statusHandler(r.Reconfig)
	}
	if r, ok := dev.(Retrier); ok {
		HTTPRetry(r, rt)
	}
	if c, ok := dev.(Configurer); ok {
		HTTPConfiguration(c, rt)
	}
	w.RouteTable = rt
	return w
}

// RT satisfies the generichttp.HTTPer interface
func (h HTTPMotionController) RT() generichttp.RouteTable {
	return h.RouteTable
}
