package dispatch

// Emitter is the interface adapters must satisfy to bridge dispatch events to the engine.
type Emitter interface {
	EmitJobCreated(jobID, providerID, vehicleID string, clientCount int)
	EmitJobDispatched(jobID, userID string, iterations int)
	EmitJobDispatchFailed(jobID, detail string)
	EmitJobRejected(jobID, reason string)
	EmitSolutionIngested(jobID, solutionID string, cost float64, routeCount int)
}
