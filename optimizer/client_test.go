package optimizer

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testRequest() *Request {
	return &Request{
		JobID:           "job-1",
		UserID:          "admin",
		HorizonLength:   5,
		VehicleCapacity: 200,
		Provider:        ProviderSnapshot{ID: "p-1", StorageLevel: 100, ProductionLevel: 30},
		Clients: []ClientSnapshot{
			{ID: "c-1", MaxLevel: 50, MinLevel: 5, DemandLevel: 10},
		},
		Vehicle: VehicleSnapshot{ID: "v-1", Capacity: 200},
	}
}

func TestDispatch(t *testing.T) {
	var gotPath string
	var gotBody Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"iteration":1,"tag":"ML","costo":25.5},{"iteration":2,"tag":"ML","costo":20.0}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "/solicitud-ejecucion", 5*time.Second)
	iterations, err := c.Dispatch(testRequest())
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if gotPath != "/solicitud-ejecucion" {
		t.Errorf("path = %q, want /solicitud-ejecucion", gotPath)
	}
	if gotBody.JobID != "job-1" {
		t.Errorf("recorrido_id = %q, want job-1", gotBody.JobID)
	}
	if gotBody.VehicleCapacity != 200 {
		t.Errorf("capacidad_vehiculo = %f, want 200", gotBody.VehicleCapacity)
	}
	if len(iterations) != 2 {
		t.Fatalf("iterations = %d, want 2", len(iterations))
	}
	if iterations[1].Cost != 20.0 {
		t.Errorf("iteration cost = %f, want 20.0", iterations[1].Cost)
	}
}

func TestDispatch_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "/solicitud-ejecucion", 5*time.Second)
	iterations, err := c.Dispatch(testRequest())
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if iterations != nil {
		t.Errorf("iterations = %v, want nil", iterations)
	}
}

func TestDispatch_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "/solicitud-ejecucion", 5*time.Second)
	_, err := c.Dispatch(testRequest())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Status != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", apiErr.Status)
	}
}

func TestDispatch_Unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "/solicitud-ejecucion", 500*time.Millisecond)
	_, err := c.Dispatch(testRequest())
	if err == nil {
		t.Fatal("expected error for unreachable service")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("transport failures should not be APIError, got %v", err)
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "/solicitud-ejecucion", time.Second)
	if err := c.Ping(); err != nil {
		t.Errorf("ping: %v", err)
	}

	c.Reconfigure("http://127.0.0.1:1", "/solicitud-ejecucion", 500*time.Millisecond)
	if err := c.Ping(); err == nil {
		t.Error("expected ping failure after reconfigure to dead address")
	}
}
