package engine

// dispatchEmitter bridges the dispatch package's emitter interface to the EventBus.
type dispatchEmitter struct {
	bus *EventBus
}

func (e *dispatchEmitter) EmitJobCreated(jobID, providerID, vehicleID string, clientCount int) {
	e.bus.Emit(Event{Type: EventJobCreated, Payload: JobCreatedEvent{
		JobID:       jobID,
		ProviderID:  providerID,
		VehicleID:   vehicleID,
		ClientCount: clientCount,
	}})
}

func (e *dispatchEmitter) EmitJobDispatched(jobID, userID string, iterations int) {
	e.bus.Emit(Event{Type: EventJobDispatched, Payload: JobDispatchedEvent{
		JobID:      jobID,
		UserID:     userID,
		Iterations: iterations,
	}})
}

func (e *dispatchEmitter) EmitJobDispatchFailed(jobID, detail string) {
	e.bus.Emit(Event{Type: EventJobDispatchFailed, Payload: JobDispatchFailedEvent{
		JobID:  jobID,
		Detail: detail,
	}})
}

func (e *dispatchEmitter) EmitJobRejected(jobID, reason string) {
	e.bus.Emit(Event{Type: EventJobRejected, Payload: JobRejectedEvent{
		JobID:  jobID,
		Reason: reason,
	}})
}

func (e *dispatchEmitter) EmitSolutionIngested(jobID, solutionID string, cost float64, routeCount int) {
	e.bus.Emit(Event{Type: EventSolutionIngested, Payload: SolutionIngestedEvent{
		JobID:      jobID,
		SolutionID: solutionID,
		Cost:       cost,
		RouteCount: routeCount,
	}})
}

// notifyEmitter bridges the notify package's emitter interface to the EventBus.
type notifyEmitter struct {
	bus *EventBus
}

func (e *notifyEmitter) EmitNotificationSent(userID, solutionID string) {
	e.bus.Emit(Event{Type: EventNotificationSent, Payload: NotificationSentEvent{
		UserID:     userID,
		SolutionID: solutionID,
	}})
}
