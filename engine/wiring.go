package engine

import "fmt"

func (e *Engine) wireEventHandlers() {
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(JobCreatedEvent)
		e.logFn("engine: job %s created (provider %s, vehicle %s, %d clients)", ev.JobID, ev.ProviderID, ev.VehicleID, ev.ClientCount)
		e.db.AppendAudit("job", ev.JobID, "created", "", fmt.Sprintf("provider=%s vehicle=%s clients=%d", ev.ProviderID, ev.VehicleID, ev.ClientCount), "system")
	}, EventJobCreated)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(JobDispatchedEvent)
		e.logFn("engine: job %s dispatched by %s (%d iterations reported)", ev.JobID, ev.UserID, ev.Iterations)
		e.db.AppendAudit("job", ev.JobID, "dispatched", "pending", "processing", ev.UserID)
	}, EventJobDispatched)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(JobDispatchFailedEvent)
		e.logFn("engine: job %s dispatch failed: %s", ev.JobID, ev.Detail)
		e.db.AppendAudit("job", ev.JobID, "dispatch_failed", "", ev.Detail, "system")
	}, EventJobDispatchFailed)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(JobRejectedEvent)
		e.logFn("engine: job %s rejected: %s", ev.JobID, ev.Reason)
		e.db.AppendAudit("job", ev.JobID, "rejected", "", ev.Reason, "system")
	}, EventJobRejected)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(SolutionIngestedEvent)
		e.logFn("engine: job %s resolved by solution %s (cost %.2f, %d routes)", ev.JobID, ev.SolutionID, ev.Cost, ev.RouteCount)
		e.db.AppendAudit("solution", ev.SolutionID, "ingested", "", fmt.Sprintf("job=%s cost=%.2f routes=%d", ev.JobID, ev.Cost, ev.RouteCount), "system")
	}, EventSolutionIngested)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(NotificationSentEvent)
		e.logFn("engine: notified user %s about solution %s", ev.UserID, ev.SolutionID)
	}, EventNotificationSent)
}
