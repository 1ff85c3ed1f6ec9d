package engine

const (
	EventJobCreated EventType = iota + 1
	EventJobDispatched
	EventJobDispatchFailed
	EventJobRejected
	EventSolutionIngested
	EventNotificationSent
	EventOptimizerConnected
	EventOptimizerDisconnected
	EventMessagingConnected
	EventMessagingDisconnected
)

// --- Event payloads ---

type JobCreatedEvent struct {
	JobID       string
	ProviderID  string
	VehicleID   string
	ClientCount int
}

type JobDispatchedEvent struct {
	JobID      string
	UserID     string
	Iterations int
}

type JobDispatchFailedEvent struct {
	JobID  string
	Detail string
}

type JobRejectedEvent struct {
	JobID  string
	Reason string
}

type SolutionIngestedEvent struct {
	JobID      string
	SolutionID string
	Cost       float64
	RouteCount int
}

type NotificationSentEvent struct {
	UserID     string
	SolutionID string
}

type ConnectionEvent struct {
	Detail string
}
