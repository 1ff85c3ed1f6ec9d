package store

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hairops/config"
)

// testDB creates a temporary SQLite database for testing.
func testDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	db, err := Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: dbPath},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})
	return db
}

// --- Entity tests ---

func TestProviderCRUD(t *testing.T) {
	db := testDB(t)

	p := &Provider{Name: "Central Depot", CoordX: 10.5, CoordY: -3.2, StorageCost: 1.5, StorageLevel: 120, ProductionLevel: 40}
	if err := db.CreateProvider(p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == "" {
		t.Fatal("ID should be assigned")
	}

	got, err := db.GetProvider(p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Central Depot" {
		t.Errorf("Name = %q, want %q", got.Name, "Central Depot")
	}
	if got.CoordX != 10.5 {
		t.Errorf("CoordX = %f, want 10.5", got.CoordX)
	}
	if got.ProductionLevel != 40 {
		t.Errorf("ProductionLevel = %f, want 40", got.ProductionLevel)
	}

	got.StorageLevel = 80
	if err := db.UpdateProvider(got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got2, _ := db.GetProvider(p.ID)
	if got2.StorageLevel != 80 {
		t.Errorf("StorageLevel after update = %f, want 80", got2.StorageLevel)
	}

	db.CreateProvider(&Provider{Name: "North Depot"})
	providers, err := db.ListProviders()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(providers) != 2 {
		t.Errorf("len = %d, want 2", len(providers))
	}

	if err := db.DeleteProvider(p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.GetProvider(p.ID); err == nil {
		t.Error("expected error after delete")
	}
}

func TestClientCRUD(t *testing.T) {
	db := testDB(t)

	zone := &Zone{Name: "Zona Norte"}
	if err := db.CreateZone(zone); err != nil {
		t.Fatalf("create zone: %v", err)
	}

	c := &Client{Name: "Tienda 1", Address: "Av. Siempre Viva 742", CoordX: 1, CoordY: 2, MaxLevel: 100, MinLevel: 10, DemandLevel: 25, ZoneID: &zone.ID}
	if err := db.CreateClient(c); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := db.GetClient(c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.MaxLevel != 100 || got.MinLevel != 10 {
		t.Errorf("levels = %f/%f, want 100/10", got.MaxLevel, got.MinLevel)
	}
	if got.ZoneID == nil || *got.ZoneID != zone.ID {
		t.Errorf("ZoneID = %v, want %s", got.ZoneID, zone.ID)
	}

	// Zone filter
	db.CreateClient(&Client{Name: "Tienda 2"})
	inZone, _ := db.ListClients(zone.ID)
	if len(inZone) != 1 {
		t.Errorf("zone filtered len = %d, want 1", len(inZone))
	}
	all, _ := db.ListClients("")
	if len(all) != 2 {
		t.Errorf("all len = %d, want 2", len(all))
	}
}

func TestListClientsByIDs(t *testing.T) {
	db := testDB(t)

	c1 := &Client{Name: "A"}
	c2 := &Client{Name: "B"}
	c3 := &Client{Name: "C"}
	db.CreateClient(c1)
	db.CreateClient(c2)
	db.CreateClient(c3)

	// Input order is preserved regardless of name order
	got, err := db.ListClientsByIDs([]string{c3.ID, c1.ID})
	if err != nil {
		t.Fatalf("list by ids: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != c3.ID || got[1].ID != c1.ID {
		t.Errorf("order = [%s %s], want [%s %s]", got[0].ID, got[1].ID, c3.ID, c1.ID)
	}

	// Unresolvable ids are dropped, not errors
	got2, err := db.ListClientsByIDs([]string{c2.ID, "no-such-id"})
	if err != nil {
		t.Fatalf("list with missing id: %v", err)
	}
	if len(got2) != 1 {
		t.Errorf("len = %d, want 1", len(got2))
	}
}

func TestVehicleCRUD(t *testing.T) {
	db := testDB(t)

	v := &Vehicle{Plate: "AB-123-CD", Brand: "Mercedes", Model: "Sprinter", Year: 2021, Capacity: 350}
	if err := db.CreateVehicle(v); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := db.GetVehicle(v.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Plate != "AB-123-CD" {
		t.Errorf("Plate = %q, want %q", got.Plate, "AB-123-CD")
	}
	if got.Capacity != 350 {
		t.Errorf("Capacity = %d, want 350", got.Capacity)
	}

	vehicles, _ := db.ListVehicles()
	if len(vehicles) != 1 {
		t.Errorf("len = %d, want 1", len(vehicles))
	}
}

// --- Job tests ---

func setupJobRefs(t *testing.T, db *DB) (provider *Provider, vehicle *Vehicle, clients []*Client) {
	t.Helper()
	provider = &Provider{Name: "Depot", StorageLevel: 100, ProductionLevel: 30}
	if err := db.CreateProvider(provider); err != nil {
		t.Fatalf("create provider: %v", err)
	}
	vehicle = &Vehicle{Plate: "XX-000-YY", Capacity: 200}
	if err := db.CreateVehicle(vehicle); err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	for _, name := range []string{"C1", "C2", "C3"} {
		c := &Client{Name: name, MaxLevel: 50, DemandLevel: 10}
		if err := db.CreateClient(c); err != nil {
			t.Fatalf("create client %s: %v", name, err)
		}
		clients = append(clients, c)
	}
	return
}

func TestJobLifecycle(t *testing.T) {
	db := testDB(t)
	provider, vehicle, clients := setupJobRefs(t, db)

	job := &Job{ProviderID: provider.ID, VehicleID: vehicle.ID, HorizonLength: 5}
	clientIDs := []string{clients[1].ID, clients[0].ID}
	if err := db.CreateJob(job, clientIDs); err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.ID == "" {
		t.Fatal("ID should be assigned")
	}
	if job.State != "pending" {
		t.Errorf("state = %q, want pending", job.State)
	}

	got, err := db.GetJob(job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.HorizonLength != 5 {
		t.Errorf("HorizonLength = %d, want 5", got.HorizonLength)
	}
	// Client set order preserved
	if len(got.ClientIDs) != 2 || got.ClientIDs[0] != clients[1].ID || got.ClientIDs[1] != clients[0].ID {
		t.Errorf("ClientIDs = %v, want [%s %s]", got.ClientIDs, clients[1].ID, clients[0].ID)
	}

	// Creation history entry
	history, _ := db.ListJobHistory(job.ID)
	if len(history) != 1 {
		t.Fatalf("history len = %d, want 1", len(history))
	}
	if history[0].State != "pending" {
		t.Errorf("history state = %q, want pending", history[0].State)
	}

	// Guarded transition
	if err := db.TransitionJob(job.ID, "pending", "processing", "dispatched"); err != nil {
		t.Fatalf("transition: %v", err)
	}
	got2, _ := db.GetJob(job.ID)
	if got2.State != "processing" {
		t.Errorf("state = %q, want processing", got2.State)
	}

	// Guard rejects a stale source state
	err = db.TransitionJob(job.ID, "pending", "processing", "again")
	if !errors.Is(err, ErrStateConflict) {
		t.Errorf("err = %v, want ErrStateConflict", err)
	}

	// Filtered listing
	processing, _ := db.ListJobs("processing", 10)
	if len(processing) != 1 {
		t.Errorf("processing len = %d, want 1", len(processing))
	}
	pending, _ := db.ListJobs("pending", 10)
	if len(pending) != 0 {
		t.Errorf("pending len = %d, want 0", len(pending))
	}

	counts, _ := db.CountJobsByState()
	if counts["processing"] != 1 {
		t.Errorf("counts = %v, want processing:1", counts)
	}
}

func TestDeleteJob(t *testing.T) {
	db := testDB(t)
	provider, vehicle, clients := setupJobRefs(t, db)

	job := &Job{ProviderID: provider.ID, VehicleID: vehicle.ID, HorizonLength: 3}
	db.CreateJob(job, []string{clients[0].ID})

	if err := db.DeleteJob(job.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.GetJob(job.ID); err == nil {
		t.Error("expected error after delete")
	}
	ids, _ := db.JobClientIDs(job.ID)
	if len(ids) != 0 {
		t.Errorf("job clients after delete = %d, want 0", len(ids))
	}
}

func TestDeleteJob_RefusedWithSolutions(t *testing.T) {
	db := testDB(t)
	provider, vehicle, clients := setupJobRefs(t, db)

	job := &Job{ProviderID: provider.ID, VehicleID: vehicle.ID, HorizonLength: 3}
	db.CreateJob(job, []string{clients[0].ID})
	db.TransitionJob(job.ID, "pending", "processing", "")

	sol := &Solution{JobID: job.ID, Cost: 12.5}
	if err := db.SaveSolution(sol, []*Route{{Orden: 0, Cost: 12.5}}); err != nil {
		t.Fatalf("save solution: %v", err)
	}

	if err := db.DeleteJob(job.ID); err == nil {
		t.Error("expected delete to be refused while solutions exist")
	}
	if _, err := db.GetJob(job.ID); err != nil {
		t.Errorf("job should survive refused delete: %v", err)
	}
}

// --- Solution tests ---

func TestSaveSolution(t *testing.T) {
	db := testDB(t)
	provider, vehicle, clients := setupJobRefs(t, db)

	job := &Job{ProviderID: provider.ID, VehicleID: vehicle.ID, HorizonLength: 4}
	db.CreateJob(job, []string{clients[0].ID, clients[1].ID})
	db.TransitionJob(job.ID, "pending", "processing", "dispatched")

	routes := []*Route{
		{Orden: 0, Cost: 10.0, Visits: []*Visit{
			{ClientID: clients[0].ID, Orden: 0, Quantity: 7},
			{ClientID: clients[1].ID, Orden: 1, Quantity: 3},
		}},
		{Orden: 1, Cost: 5.5, Visits: []*Visit{
			{ClientID: clients[1].ID, Orden: 0, Quantity: 4},
		}},
	}
	sol := &Solution{JobID: job.ID, Cost: 15.5}
	if err := db.SaveSolution(sol, routes); err != nil {
		t.Fatalf("save: %v", err)
	}
	if sol.ID == "" {
		t.Fatal("solution ID should be assigned")
	}
	if sol.Policy != "ML" {
		t.Errorf("Policy = %q, want ML", sol.Policy)
	}

	// Job moved to resolved
	gotJob, _ := db.GetJob(job.ID)
	if gotJob.State != "resolved" {
		t.Errorf("job state = %q, want resolved", gotJob.State)
	}

	// Routes and visits round-trip in order
	got, err := db.GetSolution(sol.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Cost != 15.5 {
		t.Errorf("Cost = %f, want 15.5", got.Cost)
	}
	if len(got.Routes) != 2 {
		t.Fatalf("routes = %d, want 2", len(got.Routes))
	}
	if len(got.Routes[0].Visits) != 2 {
		t.Fatalf("route 0 visits = %d, want 2", len(got.Routes[0].Visits))
	}
	v := got.Routes[0].Visits[1]
	if v.ClientID != clients[1].ID || v.Quantity != 3 {
		t.Errorf("visit = %s/%d, want %s/3", v.ClientID, v.Quantity, clients[1].ID)
	}

	// LatestSolutionForJob
	latest, err := db.LatestSolutionForJob(job.ID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != sol.ID {
		t.Errorf("latest = %s, want %s", latest.ID, sol.ID)
	}
}

func TestSaveSolution_DuplicateCallback(t *testing.T) {
	db := testDB(t)
	provider, vehicle, clients := setupJobRefs(t, db)

	job := &Job{ProviderID: provider.ID, VehicleID: vehicle.ID, HorizonLength: 4}
	db.CreateJob(job, []string{clients[0].ID})
	db.TransitionJob(job.ID, "pending", "processing", "")

	sol1 := &Solution{JobID: job.ID, Cost: 9.0}
	if err := db.SaveSolution(sol1, []*Route{{Orden: 0, Cost: 9.0}}); err != nil {
		t.Fatalf("first save: %v", err)
	}

	// Second callback for the same job: guard fails, nothing written
	sol2 := &Solution{JobID: job.ID, Cost: 8.0}
	err := db.SaveSolution(sol2, []*Route{{Orden: 0, Cost: 8.0}})
	if !errors.Is(err, ErrStateConflict) {
		t.Fatalf("err = %v, want ErrStateConflict", err)
	}
	n, _ := db.CountSolutionsForJob(job.ID)
	if n != 1 {
		t.Errorf("solutions = %d, want 1", n)
	}
}

func TestSetVisitCompleted(t *testing.T) {
	db := testDB(t)
	provider, vehicle, clients := setupJobRefs(t, db)

	job := &Job{ProviderID: provider.ID, VehicleID: vehicle.ID, HorizonLength: 2}
	db.CreateJob(job, []string{clients[0].ID})
	db.TransitionJob(job.ID, "pending", "processing", "")

	sol := &Solution{JobID: job.ID, Cost: 1}
	routes := []*Route{{Orden: 0, Cost: 1, Visits: []*Visit{{ClientID: clients[0].ID, Orden: 0, Quantity: 1}}}}
	db.SaveSolution(sol, routes)

	if routes[0].Visits[0].ID == 0 {
		t.Fatal("visit ID should be populated after save")
	}
	if err := db.SetVisitCompleted(routes[0].Visits[0].ID, true); err != nil {
		t.Fatalf("set completed: %v", err)
	}
	got, _ := db.GetSolution(sol.ID)
	if !got.Routes[0].Visits[0].Completed {
		t.Error("visit should be completed")
	}

	if err := db.SetVisitCompleted(99999, true); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows for unknown visit", err)
	}
}

// --- Outbox tests ---

func TestOutboxCRUD(t *testing.T) {
	db := testDB(t)

	if err := db.EnqueueOutbox("hairops.notifications", []byte(`{"test":true}`), "solution.ready", "user-1"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	db.EnqueueOutbox("hairops.notifications", []byte(`{"test":2}`), "solution.ready", "user-2")

	msgs, err := db.ListPendingOutbox(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	if msgs[0].UserID != "user-1" {
		t.Errorf("user = %q, want %q", msgs[0].UserID, "user-1")
	}

	db.AckOutbox(msgs[0].ID)
	msgs2, _ := db.ListPendingOutbox(10)
	if len(msgs2) != 1 {
		t.Errorf("pending after ack = %d, want 1", len(msgs2))
	}

	db.IncrementOutboxRetries(msgs2[0].ID)
	msgs3, _ := db.ListPendingOutbox(10)
	if msgs3[0].Retries != 1 {
		t.Errorf("retries = %d, want 1", msgs3[0].Retries)
	}
}

// --- Audit tests ---

func TestAuditLog(t *testing.T) {
	db := testDB(t)

	db.AppendAudit("job", "j-1", "created", "", "new job", "system")
	db.AppendAudit("job", "j-1", "dispatched", "pending", "processing", "admin")
	db.AppendAudit("client", "c-2", "updated", "", "Tienda 1", "admin")

	entries, err := db.ListAuditLog(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("len = %d, want 3", len(entries))
	}
	// Most recent first
	if entries[0].Action != "updated" {
		t.Errorf("first entry action = %q, want %q", entries[0].Action, "updated")
	}

	jobEntries, _ := db.ListEntityAudit("job", "j-1")
	if len(jobEntries) != 2 {
		t.Errorf("job entries = %d, want 2", len(jobEntries))
	}
}

// --- Dialect tests ---

func TestRebind(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"SELECT * FROM t WHERE a=? AND b=?", "SELECT * FROM t WHERE a=$1 AND b=$2"},
		{"INSERT INTO t (a) VALUES (?)", "INSERT INTO t (a) VALUES ($1)"},
		{"SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		got := Rebind(tt.input)
		if got != tt.want {
			t.Errorf("Rebind(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
