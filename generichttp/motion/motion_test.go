package motion_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"

	"github.com/nasa-jpl/epicsmotor/aerotech"
	"github.com/nasa-jpl/epicsmotor/generichttp"
	"github.com/nasa-jpl/epicsmotor/generichttp/motion"
	"github.com/nasa-jpl/epicsmotor/pv"
	"github.com/nasa-jpl/epicsmotor/util"
)

func newTestServer(t *testing.T, limits *util.Limiter) (*httptest.Server, *pv.Mock) {
	t.Helper()
	prefix := "MOT:01"
	mock := pv.NewMock(map[string]float64{
		prefix + ".VAL": 0, prefix + ".RBV": 2, prefix + ".DMOV": 1,
		prefix + ".MOVN": 0, prefix + ".VELO": 1,
		prefix + ".CNEN": 0, prefix + ".RCNT": 0, prefix + ".RTRY": 10,
		prefix + ".RDBD": 0.1, prefix + ":AXIS_FAULT": 0,
		prefix + ":AXIS_STATUS": 5,
	})
	stage := aerotech.NewAero(mock, prefix, aerotech.Rotation)
	stage.SettlePoll = time.Millisecond
	stage.MoveTimeout = 250 * time.Millisecond
	httper := aerotech.NewHTTPWrapper(stage)
	r := chi.NewRouter()
	if limits != nil {
		limiter := motion.LimitMiddleware{Limits: limits}
		limiter.Inject(httper)
		r.Use(limiter.Check)
	}
	httper.RT().Bind(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, mock
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		t.Fatal("encode failed:", err)
	}
	resp, err := http.Post(url, "application/json", buf)
	if err != nil {
		t.Fatal("post failed:", err)
	}
	return resp
}

func TestMoveForbiddenWhileDisabled(t *testing.T) {
	srv, mock := newTestServer(t, nil)
	resp := postJSON(t, srv.URL+"/pos?wait=true", generichttp.FloatT{F64: 5})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for disabled move, got %d", resp.StatusCode)
	}
	for _, p := range mock.Puts() {
		if p.Name == "MOT:01.VAL" {
			t.Error("disabled move reached the setpoint record")
		}
	}
}

func TestEnableThenMove(t *testing.T) {
	srv, mock := newTestServer(t, nil)
	resp := postJSON(t, srv.URL+"/enabled?wait=true", generichttp.BoolT{Bool: true})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("enable responded %d", resp.StatusCode)
	}
	resp = postJSON(t, srv.URL+"/pos?wait=true", generichttp.FloatT{F64: 5})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("move responded %d", resp.StatusCode)
	}
	found := false
	for _, p := range mock.Puts() {
		if p.Name == "MOT:01.VAL" && p.Value == 5 {
			found = true
		}
	}
	if !found {
		t.Error("move did not write the setpoint record")
	}
}

func TestGetEnabledAndFault(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	for path, expect := range map[string]bool{"/enabled": false, "/fault": false} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal("get failed:", err)
		}
		b := generichttp.BoolT{}
		err = json.NewDecoder(resp.Body).Decode(&b)
		resp.Body.Close()
		if err != nil {
			t.Fatal("decode failed:", err)
		}
		if b.Bool != expect {
			t.Errorf("%s returned %v, expected %v", path, b.Bool, expect)
		}
	}
}

func TestLimitMiddlewareClampsMoves(t *testing.T) {
	srv, mock := newTestServer(t, &util.Limiter{Min: 0, Max: 10})
	resp := postJSON(t, srv.URL+"/enabled?wait=true", generichttp.BoolT{Bool: true})
	resp.Body.Close()
	resp = postJSON(t, srv.URL+"/pos?wait=true", generichttp.FloatT{F64: 20})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for clamped move, got %d", resp.StatusCode)
	}
	for _, p := range mock.Puts() {
		if p.Name == "MOT:01.VAL" {
			t.Error("clamped move reached the setpoint record")
		}
	}
	// the limits are discoverable
	resp, err := http.Get(srv.URL + "/limits")
	if err != nil {
		t.Fatal("get limits failed:", err)
	}
	lim := util.Limiter{}
	err = json.NewDecoder(resp.Body).Decode(&lim)
	resp.Body.Close()
	if err != nil {
		t.Fatal("decode failed:", err)
	}
	if lim.Min != 0 || lim.Max != 10 {
		t.Errorf("limits route returned %+v", lim)
	}
}

func TestAxisStatusRoute(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/axis-status")
	if err != nil {
		t.Fatal("get failed:", err)
	}
	bits := map[string]bool{}
	err = json.NewDecoder(resp.Body).Decode(&bits)
	resp.Body.Close()
	if err != nil {
		t.Fatal("decode failed:", err)
	}
	if len(bits) != 32 {
		t.Fatalf("expected 32 bits, got %d", len(bits))
	}
	// AXIS_STATUS seeded to 5: enabled and in position
	if !bits["Enabled"] || !bits["InPosition"] || bits["Homed"] {
		t.Errorf("bitfield decoded wrong: %+v", bits)
	}
}

func TestRetryRoutes(t *testing.T) {
	srv, mock := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/retries/max")
	if err != nil {
		t.Fatal("get failed:", err)
	}
	i := generichttp.IntT{}
	err = json.NewDecoder(resp.Body).Decode(&i)
	resp.Body.Close()
	if err != nil || i.Int != 10 {
		t.Errorf("retries max: expected 10, got %d (err %v)", i.Int, err)
	}
	resp = postJSON(t, srv.URL+"/retries/deadband?wait=true", generichttp.FloatT{F64: 0.5})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set deadband responded %d", resp.StatusCode)
	}
	found := false
	for _, p := range mock.Puts() {
		if p.Name == "MOT:01.RDBD" && p.Value == 0.5 {
			found = true
		}
	}
	if !found {
		t.Error("deadband write did not land")
	}
}
