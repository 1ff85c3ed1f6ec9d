package dispatch

import (
	"errors"
	"fmt"
	"log"

	"hairops/optimizer"
	"hairops/store"
)

// Backend is the outbound optimizer surface the dispatcher talks to.
type Backend interface {
	Dispatch(req *optimizer.Request) ([]optimizer.IterationSnapshot, error)
}

// Dispatcher owns the outbound half of the job lifecycle: creating jobs,
// shipping snapshots to the optimizer, and moving Pending jobs to
// Processing once the optimizer accepts.
type Dispatcher struct {
	db       *store.DB
	backend  Backend
	snapshot *SnapshotBuilder
	emitter  Emitter
}

func NewDispatcher(db *store.DB, backend Backend, emitter Emitter) *Dispatcher {
	return &Dispatcher{
		db:       db,
		backend:  backend,
		snapshot: NewSnapshotBuilder(db),
		emitter:  emitter,
	}
}

// CreateJob validates entity references and persists a new Pending job
// with its client set.
func (d *Dispatcher) CreateJob(job *store.Job, clientIDs []string) error {
	if job.ProviderID == "" || job.VehicleID == "" {
		return &ValidationError{Detail: "job requires a provider and a vehicle"}
	}
	if len(clientIDs) == 0 {
		return &ValidationError{Detail: "job requires at least one client"}
	}
	if job.HorizonLength <= 0 {
		return &ValidationError{Detail: "job requires a positive horizon length"}
	}
	if _, err := d.db.GetProvider(job.ProviderID); err != nil {
		return &ValidationError{Detail: fmt.Sprintf("provider %s not found", job.ProviderID)}
	}
	if _, err := d.db.GetVehicle(job.VehicleID); err != nil {
		return &ValidationError{Detail: fmt.Sprintf("vehicle %s not found", job.VehicleID)}
	}
	clients, err := d.db.ListClientsByIDs(clientIDs)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	if len(clients) != len(clientIDs) {
		return &ValidationError{Detail: "one or more clients not found"}
	}

	job.State = StatePending
	if err := d.db.CreateJob(job, clientIDs); err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	d.emitter.EmitJobCreated(job.ID, job.ProviderID, job.VehicleID, len(clientIDs))
	return nil
}

// Dispatch builds a snapshot for a Pending job, ships it to the optimizer,
// and on acceptance moves the job to Processing. A failed dispatch leaves
// the job Pending so it can be retried; the failure detail is recorded in
// the job's history.
func (d *Dispatcher) Dispatch(jobID, userID string) ([]optimizer.IterationSnapshot, error) {
	job, err := d.db.GetJob(jobID)
	if err != nil {
		return nil, fmt.Errorf("dispatch job %s: %w", jobID, err)
	}
	if !CanTransition(job.State, StateProcessing) {
		return nil, ErrInvalidState
	}

	req, err := d.snapshot.Build(job, userID)
	if err != nil {
		return nil, err
	}

	iterations, err := d.backend.Dispatch(req)
	if err != nil {
		dfe := &DispatchFailedError{Err: err}
		var apiErr *optimizer.APIError
		if errors.As(err, &apiErr) {
			dfe.Status = apiErr.Status
			dfe.Body = apiErr.Body
		}
		// Pending -> Pending records the failure without changing state.
		if herr := d.db.TransitionJob(jobID, StatePending, StatePending, dfe.Error()); herr != nil {
			log.Printf("dispatch: record failure for job %s: %v", jobID, herr)
		}
		d.emitter.EmitJobDispatchFailed(jobID, dfe.Error())
		return nil, dfe
	}

	if err := d.db.TransitionJob(jobID, StatePending, StateProcessing, "dispatched to optimizer"); err != nil {
		if errors.Is(err, store.ErrStateConflict) {
			return nil, ErrInvalidState
		}
		return nil, &PersistenceError{Err: err}
	}
	d.emitter.EmitJobDispatched(jobID, userID, len(iterations))
	return iterations, nil
}

// Reject moves a Pending or Processing job to the terminal Rejected state.
func (d *Dispatcher) Reject(jobID, reason string) error {
	job, err := d.db.GetJob(jobID)
	if err != nil {
		return fmt.Errorf("reject job %s: %w", jobID, err)
	}
	if !CanTransition(job.State, StateRejected) {
		return ErrInvalidState
	}
	if err := d.db.TransitionJob(jobID, job.State, StateRejected, reason); err != nil {
		// A concurrent writer moved the job between the read and the
		// guarded update.
		if errors.Is(err, store.ErrStateConflict) {
			return ErrInvalidState
		}
		return fmt.Errorf("reject job %s: %w", jobID, err)
	}
	d.emitter.EmitJobRejected(jobID, reason)
	return nil
}
