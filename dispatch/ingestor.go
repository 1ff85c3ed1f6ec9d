package dispatch

import (
	"errors"
	"fmt"
	"log"

	"hairops/optimizer"
	"hairops/store"
)

// Notifier delivers a "solution ready" message to the user that launched
// the run. Delivery is best effort and never fails an ingest.
type Notifier interface {
	SolutionReady(userID string, job *store.Job, sol *store.Solution) error
}

// Ingestor owns the inbound half of the job lifecycle: validating
// optimizer callbacks and persisting solutions transactionally.
type Ingestor struct {
	db       *store.DB
	emitter  Emitter
	notifier Notifier
}

func NewIngestor(db *store.DB, emitter Emitter, notifier Notifier) *Ingestor {
	return &Ingestor{db: db, emitter: emitter, notifier: notifier}
}

// Ingest validates a callback payload and persists the solution with its
// routes and visits, moving the job from Processing to Resolved in the
// same transaction. Validation failures persist nothing. A callback for a
// job not in Processing returns ErrInvalidState, which makes duplicate
// callbacks harmless.
func (in *Ingestor) Ingest(jobID string, payload *optimizer.CallbackPayload) (*store.Solution, error) {
	job, err := in.db.GetJob(jobID)
	if err != nil {
		return nil, fmt.Errorf("ingest job %s: %w", jobID, err)
	}

	routes, err := buildRoutes(&payload.BestSolution)
	if err != nil {
		return nil, err
	}

	sol := &store.Solution{
		JobID: jobID,
		Cost:  *payload.BestSolution.Cost,
	}
	if err := in.db.SaveSolution(sol, routes); err != nil {
		if errors.Is(err, store.ErrStateConflict) {
			return nil, ErrInvalidState
		}
		return nil, &PersistenceError{Err: err}
	}

	in.emitter.EmitSolutionIngested(jobID, sol.ID, sol.Cost, len(routes))

	if in.notifier != nil && payload.UserID != "" {
		if err := in.notifier.SolutionReady(payload.UserID, job, sol); err != nil {
			log.Printf("ingest: notify user %s for solution %s: %v", payload.UserID, sol.ID, err)
		}
	}
	return sol, nil
}

// buildRoutes converts the wire solution into storable routes and visits.
// Clients and quantities are positionally paired per route; a length
// mismatch or a negative quantity rejects the whole payload.
func buildRoutes(best *optimizer.BestSolution) ([]*store.Route, error) {
	if best.Cost == nil {
		return nil, &ValidationError{Detail: "solution is missing costo"}
	}
	if *best.Cost < 0 {
		return nil, &ValidationError{Detail: fmt.Sprintf("negative solution cost %f", *best.Cost)}
	}
	if len(best.Routes) == 0 {
		return nil, &ValidationError{Detail: "solution has no routes"}
	}
	var routes []*store.Route
	for i, wr := range best.Routes {
		if len(wr.Clients) != len(wr.Quantities) {
			return nil, &ValidationError{Detail: fmt.Sprintf("route %d has %d clients but %d quantities", i, len(wr.Clients), len(wr.Quantities))}
		}
		route := &store.Route{Orden: i, Cost: wr.Cost}
		for j, clientID := range wr.Clients {
			if wr.Quantities[j] < 0 {
				return nil, &ValidationError{Detail: fmt.Sprintf("route %d visit %d has negative quantity %d", i, j, wr.Quantities[j])}
			}
			route.Visits = append(route.Visits, &store.Visit{
				ClientID: clientID,
				Orden:    j,
				Quantity: wr.Quantities[j],
			})
		}
		routes = append(routes, route)
	}
	return routes, nil
}
