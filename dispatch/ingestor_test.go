package dispatch

import (
	"errors"
	"testing"

	"hairops/optimizer"
	"hairops/store"
)

type mockNotifier struct {
	calls []string
	err   error
}

func (m *mockNotifier) SolutionReady(userID string, _ *store.Job, _ *store.Solution) error {
	m.calls = append(m.calls, userID)
	return m.err
}

func costOf(v float64) *float64 { return &v }

func processingJob(t *testing.T, db *store.DB, d *Dispatcher, provider *store.Provider, vehicle *store.Vehicle, clientIDs []string) *store.Job {
	t.Helper()
	job := createPendingJob(t, db, d, provider, vehicle, clientIDs)
	if err := db.TransitionJob(job.ID, StatePending, StateProcessing, "dispatched"); err != nil {
		t.Fatalf("move to processing: %v", err)
	}
	return job
}

func TestIngest(t *testing.T) {
	db := testDB(t)
	provider, vehicle, clients := setupTestData(t, db)
	d, emitter := newTestDispatcher(t, db, &mockBackend{})
	notifier := &mockNotifier{}
	in := NewIngestor(db, emitter, notifier)

	job := processingJob(t, db, d, provider, vehicle, []string{clients[0].ID, clients[1].ID})

	payload := &optimizer.CallbackPayload{
		UserID: "admin",
		BestSolution: optimizer.BestSolution{
			Cost: costOf(42.5),
			Routes: []optimizer.RouteResult{
				{Cost: 30, Clients: []string{clients[0].ID, clients[1].ID}, Quantities: []int{8, 2}},
				{Cost: 12.5, Clients: []string{clients[1].ID}, Quantities: []int{5}},
			},
		},
	}
	sol, err := in.Ingest(job.ID, payload)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if sol.Cost != 42.5 {
		t.Errorf("Cost = %f, want 42.5", sol.Cost)
	}

	got, _ := db.GetJob(job.ID)
	if got.State != StateResolved {
		t.Errorf("state = %q, want resolved", got.State)
	}

	// Positional pairing preserved
	stored, _ := db.GetSolution(sol.ID)
	if len(stored.Routes) != 2 {
		t.Fatalf("routes = %d, want 2", len(stored.Routes))
	}
	v := stored.Routes[0].Visits[1]
	if v.ClientID != clients[1].ID || v.Quantity != 2 {
		t.Errorf("visit = %s/%d, want %s/2", v.ClientID, v.Quantity, clients[1].ID)
	}

	if len(emitter.ingested) != 1 || emitter.ingested[0].routeCount != 2 {
		t.Errorf("ingested events = %v, want one with 2 routes", emitter.ingested)
	}
	if len(notifier.calls) != 1 || notifier.calls[0] != "admin" {
		t.Errorf("notifier calls = %v, want [admin]", notifier.calls)
	}
}

func TestIngest_DuplicateCallback(t *testing.T) {
	db := testDB(t)
	provider, vehicle, clients := setupTestData(t, db)
	d, emitter := newTestDispatcher(t, db, &mockBackend{})
	in := NewIngestor(db, emitter, nil)

	job := processingJob(t, db, d, provider, vehicle, []string{clients[0].ID})

	payload := &optimizer.CallbackPayload{
		BestSolution: optimizer.BestSolution{
			Cost:   costOf(10),
			Routes: []optimizer.RouteResult{{Cost: 10, Clients: []string{clients[0].ID}, Quantities: []int{3}}},
		},
	}
	if _, err := in.Ingest(job.ID, payload); err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	_, err := in.Ingest(job.ID, payload)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
	n, _ := db.CountSolutionsForJob(job.ID)
	if n != 1 {
		t.Errorf("solutions = %d, want 1", n)
	}
}

func TestIngest_Validation(t *testing.T) {
	db := testDB(t)
	provider, vehicle, clients := setupTestData(t, db)
	d, emitter := newTestDispatcher(t, db, &mockBackend{})
	in := NewIngestor(db, emitter, nil)

	job := processingJob(t, db, d, provider, vehicle, []string{clients[0].ID})

	tests := []struct {
		name string
		best optimizer.BestSolution
	}{
		{"missing cost", optimizer.BestSolution{Routes: []optimizer.RouteResult{{Clients: []string{clients[0].ID}, Quantities: []int{1}}}}},
		{"no routes", optimizer.BestSolution{Cost: costOf(5)}},
		{"negative cost", optimizer.BestSolution{Cost: costOf(-1), Routes: []optimizer.RouteResult{{Clients: []string{clients[0].ID}, Quantities: []int{1}}}}},
		{"length mismatch", optimizer.BestSolution{Cost: costOf(5), Routes: []optimizer.RouteResult{{Clients: []string{clients[0].ID, clients[1].ID}, Quantities: []int{1}}}}},
		{"negative quantity", optimizer.BestSolution{Cost: costOf(5), Routes: []optimizer.RouteResult{{Clients: []string{clients[0].ID}, Quantities: []int{-4}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := in.Ingest(job.ID, &optimizer.CallbackPayload{BestSolution: tt.best})
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("err = %v, want ValidationError", err)
			}
		})
	}

	// Nothing persisted, job still processing and able to receive a
	// corrected callback
	n, _ := db.CountSolutionsForJob(job.ID)
	if n != 0 {
		t.Errorf("solutions = %d, want 0", n)
	}
	got, _ := db.GetJob(job.ID)
	if got.State != StateProcessing {
		t.Errorf("state = %q, want processing", got.State)
	}
}

func TestIngest_UnknownJob(t *testing.T) {
	db := testDB(t)
	setupTestData(t, db)
	in := NewIngestor(db, &mockEmitter{}, nil)

	_, err := in.Ingest("no-such-job", &optimizer.CallbackPayload{
		BestSolution: optimizer.BestSolution{Cost: costOf(1), Routes: []optimizer.RouteResult{{Quantities: []int{}, Clients: []string{}}}},
	})
	if err == nil {
		t.Fatal("expected error for unknown job")
	}
}

func TestIngest_NotifierFailureDoesNotFailIngest(t *testing.T) {
	db := testDB(t)
	provider, vehicle, clients := setupTestData(t, db)
	d, emitter := newTestDispatcher(t, db, &mockBackend{})
	notifier := &mockNotifier{err: errors.New("redis down")}
	in := NewIngestor(db, emitter, notifier)

	job := processingJob(t, db, d, provider, vehicle, []string{clients[0].ID})

	payload := &optimizer.CallbackPayload{
		UserID: "admin",
		BestSolution: optimizer.BestSolution{
			Cost:   costOf(3),
			Routes: []optimizer.RouteResult{{Cost: 3, Clients: []string{clients[0].ID}, Quantities: []int{1}}},
		},
	}
	if _, err := in.Ingest(job.ID, payload); err != nil {
		t.Fatalf("ingest should succeed despite notifier failure: %v", err)
	}
	got, _ := db.GetJob(job.ID)
	if got.State != StateResolved {
		t.Errorf("state = %q, want resolved", got.State)
	}
}
