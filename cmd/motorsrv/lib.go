package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/nasa-jpl/epicsmotor/aerotech"
	"github.com/nasa-jpl/epicsmotor/generichttp"
	"github.com/nasa-jpl/epicsmotor/generichttp/motion"
	"github.com/nasa-jpl/epicsmotor/motor"
	"github.com/nasa-jpl/epicsmotor/pv"
	"github.com/nasa-jpl/epicsmotor/util"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-yaml/yaml"
	"goji.io"

	"encoding/json"
)

// Minmax holds a min and max value
type Minmax struct {
	Min float64 `yaml:"Min"`
	Max float64 `yaml:"Max"`
}

// GatewaySetup describes one PV gateway connection
type GatewaySetup struct {
	// Name is how stages refer to this gateway
	Name string `yaml:"Name"`

	// Addr is host:port for TCP gateways, or a device path for serial,
	// e.g. 192.168.100.123:5064 or /dev/ttyS4
	Addr string `yaml:"Addr"`

	// Serial determines if the connection is serial/RS232 (True) or TCP (False)
	Serial bool `yaml:"Serial"`

	// Endpoint, if set, serves raw PV get/put routes for this gateway
	Endpoint string `yaml:"Endpoint"`
}

// StageSetup describes one Aerotech stage to serve
type StageSetup struct {
	// Prefix is the EPICS record prefix, e.g. BL3:MOT:01
	Prefix string `yaml:"Prefix"`

	// Endpoint is the path the stage's routes are served under,
	// e.g. "omc/rot" produces routes of /omc/rot/pos, etc.
	Endpoint string `yaml:"Endpoint"`

	// Kind is rotation, linear, or diode
	Kind string `yaml:"Kind"`

	// Gateway names the gateway this stage's PVs are reached through
	Gateway string `yaml:"Gateway"`

	// Limits optionally clamps commanded positions server-side
	Limits *Minmax `yaml:"Limits"`
}

// Config is a struct that holds the initialization parameters for the
// server.  It is to be populated by a yaml/unmarshal call.
type Config struct {
	// Addr is the address to listen at
	Addr string `yaml:"Addr"`

	// Mock replaces every gateway with an in-memory fake
	Mock bool `yaml:"Mock"`

	// PollRate is the background cache refresh rate in PV reads per
	// second per stage; zero disables polling
	PollRate float64 `yaml:"PollRate"`

	Gateways []GatewaySetup `yaml:"Gateways"`

	Stages []StageSetup `yaml:"Stages"`
}

// LoadYaml converts a (path to a) yaml file into a Config struct
func LoadYaml(path string) (Config, error) {
	cfg := Config{}
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	err = yaml.NewDecoder(f).Decode(&cfg)
	return cfg, err
}

func parseKind(s string) aerotech.StageKind {
	switch strings.ToLower(s) {
	case "rotation", "rot":
		return aerotech.Rotation
	case "linear", "lin":
		return aerotech.Linear
	case "diode":
		return aerotech.Diode
	default:
		log.Fatal("stage kind ", s, " not understood")
		return 0
	}
}

// seedStage populates a mock gateway with every record a stage binds, so
// mock mode serves reads instead of unknown-record errors.  The done
// flag is held at 1 so mock moves complete immediately.
func seedStage(m *pv.Mock, prefix string) {
	for _, suffix := range []string{
		motor.SetpointSuffix, motor.ReadbackSuffix, motor.MovingSuffix,
		motor.VelocitySuffix,
		aerotech.PowerSuffix, aerotech.RetriesSuffix,
		aerotech.RetriesMaxSuffix, aerotech.RetriesDeadbandSuffix,
		aerotech.FaultSuffix, aerotech.StatusSuffix,
	} {
		m.Store(prefix+suffix, 0)
	}
	m.Store(prefix+motor.DoneSuffix, 1)
}

// BuildMux constructs the root router: a submux per stage, a raw PV
// submux per gateway that asks for one, and /endpoints listing the
// supergraph of routes
func BuildMux(c Config) chi.Router {
	root := chi.NewRouter()
	root.Use(middleware.Logger)
	supergraph := map[string][]string{}

	conns := map[string]pv.Conn{}
	for _, gw := range c.Gateways {
		var conn pv.Conn
		if c.Mock {
			conn = pv.NewMock(nil)
		} else {
			conn = pv.NewGateway(gw.Addr, gw.Serial)
		}
		conns[gw.Name] = conn
		if gw.Endpoint != "" {
			hndlS := generichttp.SubMuxSanitize(gw.Endpoint)
			wrapper := pv.NewHTTPGateway(conn)
			mux := goji.NewMux()
			wrapper.RT().Bind(mux)
			supergraph[hndlS] = wrapper.RT().Endpoints()
			root.Mount(hndlS, http.StripPrefix(hndlS, mux))
		}
	}

	for _, node := range c.Stages {
		conn, ok := conns[node.Gateway]
		if !ok {
			log.Fatal("stage ", node.Prefix, " references unknown gateway ", node.Gateway)
		}
		if m, ok := conn.(*pv.Mock); ok {
			seedStage(m, node.Prefix)
		}
		stage := aerotech.NewAero(conn, node.Prefix, parseKind(node.Kind))
		if c.PollRate > 0 {
			poller := pv.NewPoller(c.PollRate, stage.Monitored()...)
			poller.Start()
		}
		httper := aerotech.NewHTTPWrapper(stage)

		r := chi.NewRouter()
		if node.Limits != nil {
			limiter := motion.LimitMiddleware{
				Limits: &util.Limiter{Min: node.Limits.Min, Max: node.Limits.Max}}
			limiter.Inject(httper)
			r.Use(limiter.Check)
		}
		httper.RT().Bind(r)

		hndlS := generichttp.SubMuxSanitize(node.Endpoint)
		supergraph[hndlS] = httper.RT().Endpoints()
		root.Mount(hndlS, r)
	}

	root.Get("/endpoints", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		err := json.NewEncoder(w).Encode(supergraph)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return root
}
