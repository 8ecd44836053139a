package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Desire162007/Secure-Wipe/internal/certificate"
	"github.com/Desire162007/Secure-Wipe/internal/logging"
	"github.com/Desire162007/Secure-Wipe/internal/platform"
	"github.com/Desire162007/Secure-Wipe/internal/system"
	"github.com/Desire162007/Secure-Wipe/internal/wipe"
)

type fakeDevices struct {
	records []platform.DeviceRecord
	err     error
}

func (f *fakeDevices) ListExternalDevices(context.Context) ([]platform.DeviceRecord, error) {
	return f.records, f.err
}

func (f *fakeDevices) GetDeviceDetails(_ context.Context, id string) (*platform.DeviceDetails, error) {
	for _, r := range f.records {
		if r.ID == id {
			return &platform.DeviceDetails{DeviceRecord: r, SmartData: &platform.SmartData{}}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", platform.ErrNotFound, id)
}

type fakeHost struct{}

func (fakeHost) Status(context.Context) system.HostStatus {
	return system.HostStatus{Hostname: "bench"}
}

func instantSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

type fixture struct {
	srv     *Server
	handler http.Handler
	wipes   *wipe.Manager
}

func newFixture(t *testing.T, devices Devices) *fixture {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "securewipe.log")
	if err := os.WriteFile(logPath, []byte("one\ntwo\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	issuer := certificate.NewIssuer(certificate.NewMemoryStore(), "test-secret", nil)
	wipes := wipe.NewManager(logging.Discard(),
		wipe.WithSimulatorOptions(wipe.WithSleep(instantSleep)),
		wipe.OnComplete(issuer.Complete),
	)
	cfg := DefaultConfig()
	cfg.LogPath = logPath
	srv := New(cfg, devices, wipes, issuer, fakeHost{}, logging.Discard())
	return &fixture{srv: srv, handler: srv.Handler(), wipes: wipes}
}

func (f *fixture) do(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func sampleDevices() *fakeDevices {
	return &fakeDevices{records: []platform.DeviceRecord{{
		ID:                   "dev_0a1b2c3d",
		Name:                 "sdb1",
		DevicePath:           "/dev/sdb1",
		MountPoint:           "/media/user/STICK",
		Type:                 platform.TypeUSB,
		IdentificationMethod: platform.MethodBasic,
		OSType:               platform.OSLinux,
	}}}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, sampleDevices())
	rec := f.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["status"] != "healthy" {
		t.Fatalf("body %v", body)
	}

	if rec := f.do(t, http.MethodPost, "/health", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health status %d", rec.Code)
	}
}

func TestListDevices(t *testing.T) {
	f := newFixture(t, sampleDevices())
	rec := f.do(t, http.MethodGet, "/api/devices", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body struct {
		Devices []platform.DeviceRecord `json:"devices"`
	}
	decode(t, rec, &body)
	if len(body.Devices) != 1 || body.Devices[0].DevicePath != "/dev/sdb1" {
		t.Fatalf("devices %+v", body.Devices)
	}
}

func TestListDevicesEmptyIsArray(t *testing.T) {
	f := newFixture(t, &fakeDevices{})
	rec := f.do(t, http.MethodGet, "/api/devices", nil)
	if got := strings.TrimSpace(rec.Body.String()); got != `{"devices":[]}` {
		t.Fatalf("body %s", got)
	}
}

func TestListDevicesFailure(t *testing.T) {
	f := newFixture(t, &fakeDevices{err: context.DeadlineExceeded})
	if rec := f.do(t, http.MethodGet, "/api/devices", nil); rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestGetDevice(t *testing.T) {
	f := newFixture(t, sampleDevices())

	rec := f.do(t, http.MethodGet, "/api/device/dev_0a1b2c3d", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var details map[string]any
	decode(t, rec, &details)
	if details["id"] != "dev_0a1b2c3d" || details["smart_data"] == nil {
		t.Fatalf("details %v", details)
	}

	if rec := f.do(t, http.MethodGet, "/api/device/dev_missing", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing device status %d", rec.Code)
	}
}

func TestWipeLifecycle(t *testing.T) {
	f := newFixture(t, sampleDevices())

	rec := f.do(t, http.MethodPost, "/api/wipe/start", []byte(`{"device_id":"dev_0a1b2c3d","passes":1,"standard":"nist"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("start status %d: %s", rec.Code, rec.Body.String())
	}
	var started wipe.StartResult
	decode(t, rec, &started)
	if started.WipeID == "" || started.Mode != "SIMULATION" || started.Status != "started" {
		t.Fatalf("start result %+v", started)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := f.wipes.Wait(ctx, started.WipeID); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	rec = f.do(t, http.MethodGet, "/api/wipe/"+started.WipeID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("progress status %d", rec.Code)
	}
	var p wipe.Progress
	decode(t, rec, &p)
	if p.Status != wipe.StatusCompleted || p.Progress != 100 || p.CertificateID == "" {
		t.Fatalf("final progress %+v", p)
	}

	rec = f.do(t, http.MethodGet, "/api/certificate/"+p.CertificateID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("certificate status %d", rec.Code)
	}
	var cert certificate.Certificate
	decode(t, rec, &cert)
	if cert.WipeID != started.WipeID || cert.DeviceID != "dev_0a1b2c3d" || cert.Passes != 1 {
		t.Fatalf("certificate %+v", cert)
	}

	rec = f.do(t, http.MethodGet, "/api/certificate/"+p.CertificateID+"/verify", nil)
	var v verifyResponse
	decode(t, rec, &v)
	if !v.Valid || v.CertID != p.CertificateID {
		t.Fatalf("verify %+v", v)
	}

	rec = f.do(t, http.MethodGet, "/api/certificate/"+p.CertificateID+"?format=text", nil)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), p.CertificateID) {
		t.Fatalf("text certificate missing id:\n%s", rec.Body.String())
	}

	// cancelling a finished session is accepted
	if rec := f.do(t, http.MethodPost, "/api/wipe/"+started.WipeID+"/cancel", nil); rec.Code != http.StatusOK {
		t.Fatalf("cancel status %d", rec.Code)
	}
}

func TestWipeStartErrors(t *testing.T) {
	f := newFixture(t, sampleDevices())
	cases := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"missing device", `{"passes":3}`, http.StatusBadRequest},
		{"too many passes", `{"device_id":"d","passes":36}`, http.StatusBadRequest},
		{"unknown standard", `{"device_id":"d","standard":"rot13"}`, http.StatusBadRequest},
		{"real mode", `{"device_id":"d","mode":"real"}`, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/wipe/start", []byte(tc.body))
			if rec.Code != tc.want {
				t.Fatalf("status %d want %d: %s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}

	if rec := f.do(t, http.MethodGet, "/api/wipe/start", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET start status %d", rec.Code)
	}
}

func TestWipeUnknownSession(t *testing.T) {
	f := newFixture(t, sampleDevices())
	if rec := f.do(t, http.MethodGet, "/api/wipe/nope", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("progress status %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/api/wipe/nope/cancel", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("cancel status %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/wipe/nope/cancel", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET cancel status %d", rec.Code)
	}
}

func TestDemoWipe(t *testing.T) {
	f := newFixture(t, sampleDevices())
	rec := f.do(t, http.MethodPost, "/api/demo/fake-wipe", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var started wipe.StartResult
	decode(t, rec, &started)
	if started.Mode != "DRY-RUN" {
		t.Fatalf("mode %q", started.Mode)
	}
	sess, err := f.wipes.Session(started.WipeID)
	if err != nil {
		t.Fatal(err)
	}
	if sess.DeviceID != demoDeviceID || sess.Passes != 3 || sess.Standard != wipe.StandardDoD {
		t.Fatalf("session %+v", sess)
	}
}

func TestCertificateNotFound(t *testing.T) {
	f := newFixture(t, sampleDevices())
	for _, path := range []string{
		"/api/certificate/ABCDEF12",
		"/api/certificate/abcdef12/verify",
		"/api/certificate/ABCDEF12?format=text",
	} {
		if rec := f.do(t, http.MethodGet, path, nil); rec.Code != http.StatusNotFound {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
	}
	if rec := f.do(t, http.MethodPost, "/api/certificate/ABCDEF12", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST status %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/certificate/ABCDEF12/other", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown action status %d", rec.Code)
	}
}

func TestLogsAndSystem(t *testing.T) {
	f := newFixture(t, sampleDevices())

	rec := f.do(t, http.MethodGet, "/api/logs", nil)
	var logs map[string][]string
	decode(t, rec, &logs)
	if len(logs["logs"]) != 2 || logs["logs"][1] != "two" {
		t.Fatalf("logs %v", logs)
	}

	rec = f.do(t, http.MethodGet, "/api/system", nil)
	var st system.HostStatus
	decode(t, rec, &st)
	if st.Hostname != "bench" {
		t.Fatalf("system %+v", st)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 0
	wipes := wipe.NewManager(logging.Discard())
	issuer := certificate.NewIssuer(certificate.NewMemoryStore(), "test-secret", nil)
	srv := New(cfg, &fakeDevices{}, wipes, issuer, fakeHost{}, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Start(ctx) }()
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
