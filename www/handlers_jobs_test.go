package www

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hairops/config"
	"hairops/engine"
	"hairops/optimizer"
	"hairops/store"
)

func testRouter(t *testing.T) (http.Handler, *store.DB) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: dbPath},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	cfg := config.Defaults()
	cfg.Optimizer.BaseURL = "http://127.0.0.1:1"
	cfg.Optimizer.Timeout = 500 * time.Millisecond

	eng := engine.New(engine.Config{
		AppConfig: cfg,
		DB:        db,
		Optimizer: optimizer.NewClient(cfg.Optimizer.BaseURL, cfg.Optimizer.RequestPath, cfg.Optimizer.Timeout),
	})
	eng.Start()

	handler, stopWeb := NewRouter(eng)
	t.Cleanup(func() {
		stopWeb()
		eng.Stop()
		db.Close()
		os.Remove(dbPath)
	})
	return handler, db
}

func processingJob(t *testing.T, db *store.DB) (*store.Job, []*store.Client) {
	t.Helper()
	provider := &store.Provider{Name: "Depot"}
	if err := db.CreateProvider(provider); err != nil {
		t.Fatalf("create provider: %v", err)
	}
	vehicle := &store.Vehicle{Plate: "TR-1", Capacity: 100}
	if err := db.CreateVehicle(vehicle); err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	c1 := &store.Client{Name: "C1"}
	c2 := &store.Client{Name: "C2"}
	db.CreateClient(c1)
	db.CreateClient(c2)

	job := &store.Job{ProviderID: provider.ID, VehicleID: vehicle.ID, HorizonLength: 4}
	if err := db.CreateJob(job, []string{c1.ID, c2.ID}); err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := db.TransitionJob(job.ID, "pending", "processing", "dispatched"); err != nil {
		t.Fatalf("transition: %v", err)
	}
	return job, []*store.Client{c1, c2}
}

func postJSON(handler http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSolutionCallback(t *testing.T) {
	handler, db := testRouter(t)
	job, clients := processingJob(t, db)

	body := `{"user_id":"admin","mejor_solucion":{"costo":18.5,"rutas":[{"costo":18.5,"clientes":["` +
		clients[0].ID + `","` + clients[1].ID + `"],"cantidades":[6,4]}]}}`

	rec := postJSON(handler, "/api/jobs/"+job.ID+"/solution", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var sol store.Solution
	if err := json.Unmarshal(rec.Body.Bytes(), &sol); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if sol.Cost != 18.5 {
		t.Errorf("cost = %f, want 18.5", sol.Cost)
	}

	got, _ := db.GetJob(job.ID)
	if got.State != "resolved" {
		t.Errorf("job state = %q, want resolved", got.State)
	}
}

func TestSolutionCallback_ExtraFields(t *testing.T) {
	handler, db := testRouter(t)
	job, clients := processingJob(t, db)

	// The solver's callback carries bookkeeping keys beyond the ones we
	// consume; they must not cause a rejection.
	body := `{"user_id":"admin","mejor_solucion":{"proveedor_id":"p-1","iteration":7,"tag":"Mejor Solucion",` +
		`"costo":12,"rutas":[{"costo":12,"clientes":["` + clients[0].ID + `"],"cantidades":[3]}]}}`

	rec := postJSON(handler, "/api/jobs/"+job.ID+"/solution", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	got, _ := db.GetJob(job.ID)
	if got.State != "resolved" {
		t.Errorf("job state = %q, want resolved", got.State)
	}
}

func TestSolutionCallback_Duplicate(t *testing.T) {
	handler, db := testRouter(t)
	job, clients := processingJob(t, db)

	body := `{"user_id":"admin","mejor_solucion":{"costo":9,"rutas":[{"costo":9,"clientes":["` +
		clients[0].ID + `"],"cantidades":[2]}]}}`

	if rec := postJSON(handler, "/api/jobs/"+job.ID+"/solution", body); rec.Code != http.StatusOK {
		t.Fatalf("first callback status = %d, want 200", rec.Code)
	}
	rec := postJSON(handler, "/api/jobs/"+job.ID+"/solution", body)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate callback status = %d, want 409", rec.Code)
	}

	n, _ := db.CountSolutionsForJob(job.ID)
	if n != 1 {
		t.Errorf("solutions = %d, want 1", n)
	}
}

func TestSolutionCallback_Malformed(t *testing.T) {
	handler, db := testRouter(t)
	job, clients := processingJob(t, db)

	// Mismatched clientes/cantidades lengths
	body := `{"user_id":"admin","mejor_solucion":{"costo":9,"rutas":[{"costo":9,"clientes":["` +
		clients[0].ID + `","` + clients[1].ID + `"],"cantidades":[2]}]}}`

	rec := postJSON(handler, "/api/jobs/"+job.ID+"/solution", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}

	got, _ := db.GetJob(job.ID)
	if got.State != "processing" {
		t.Errorf("job state = %q, want processing (corrected retry possible)", got.State)
	}
}

func TestSolutionCallback_UnknownJob(t *testing.T) {
	handler, _ := testRouter(t)

	body := `{"user_id":"admin","mejor_solucion":{"costo":1,"rutas":[{"costo":1,"clientes":[],"cantidades":[]}]}}`
	rec := postJSON(handler, "/api/jobs/no-such-job/solution", body)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestWriteEndpointsRequireAuth(t *testing.T) {
	handler, _ := testRouter(t)

	rec := postJSON(handler, "/api/jobs", `{"provider_id":"p","vehicle_id":"v","horizon_length":3,"client_ids":["c"]}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	handler, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var health map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health["status"] != "ok" {
		t.Errorf("status field = %v, want ok", health["status"])
	}
}
