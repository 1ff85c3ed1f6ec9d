package dispatch

import (
	"fmt"
	"strconv"
	"strings"

	"hairops/optimizer"
	"hairops/store"
)

// SnapshotBuilder assembles the point-in-time entity snapshot shipped to
// the optimizer. All referenced entities are read at build time so the
// request reflects current levels, not the levels at job creation.
type SnapshotBuilder struct {
	db *store.DB
}

func NewSnapshotBuilder(db *store.DB) *SnapshotBuilder {
	return &SnapshotBuilder{db: db}
}

// Build resolves the job's provider, vehicle and client set into a wire
// request. A missing or unresolvable reference is a validation failure;
// nothing is sent in that case.
func (b *SnapshotBuilder) Build(job *store.Job, userID string) (*optimizer.Request, error) {
	if len(job.ClientIDs) == 0 {
		return nil, &ValidationError{Detail: fmt.Sprintf("job %s has no clients", job.ID)}
	}
	if job.HorizonLength <= 0 {
		return nil, &ValidationError{Detail: fmt.Sprintf("job %s has horizon length %d", job.ID, job.HorizonLength)}
	}

	provider, err := b.db.GetProvider(job.ProviderID)
	if err != nil {
		return nil, &ValidationError{Detail: fmt.Sprintf("provider %s not found", job.ProviderID)}
	}
	vehicle, err := b.db.GetVehicle(job.VehicleID)
	if err != nil {
		return nil, &ValidationError{Detail: fmt.Sprintf("vehicle %s not found", job.VehicleID)}
	}
	clients, err := b.db.ListClientsByIDs(job.ClientIDs)
	if err != nil {
		return nil, fmt.Errorf("snapshot clients: %w", err)
	}
	if len(clients) != len(job.ClientIDs) {
		return nil, &ValidationError{Detail: fmt.Sprintf("clients not found: %s", strings.Join(missingIDs(job.ClientIDs, clients), ", "))}
	}

	req := &optimizer.Request{
		JobID:           job.ID,
		UserID:          userID,
		HorizonLength:   job.HorizonLength,
		VehicleCapacity: float64(vehicle.Capacity),
		Provider: optimizer.ProviderSnapshot{
			ID:              provider.ID,
			CoordX:          provider.CoordX,
			CoordY:          provider.CoordY,
			StorageCost:     provider.StorageCost,
			StorageLevel:    provider.StorageLevel,
			ProductionLevel: provider.ProductionLevel,
		},
		Vehicle: optimizer.VehicleSnapshot{
			ID:       vehicle.ID,
			Capacity: float64(vehicle.Capacity),
		},
	}
	for _, c := range clients {
		req.Clients = append(req.Clients, optimizer.ClientSnapshot{
			ID:           c.ID,
			CoordX:       c.CoordX,
			CoordY:       c.CoordY,
			StorageCost:  c.StorageCost,
			StorageLevel: c.StorageLevel,
			MaxLevel:     c.MaxLevel,
			MinLevel:     c.MinLevel,
			DemandLevel:  c.DemandLevel,
		})
	}
	return req, nil
}

func missingIDs(wanted []string, got []*store.Client) []string {
	have := make(map[string]struct{}, len(got))
	for _, c := range got {
		have[c.ID] = struct{}{}
	}
	var missing []string
	for _, id := range wanted {
		if _, ok := have[id]; !ok {
			missing = append(missing, strconv.Quote(id))
		}
	}
	return missing
}
