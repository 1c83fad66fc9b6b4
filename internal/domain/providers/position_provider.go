package providers

import "context"

// PositionOutcome tags the result of a device position request.
type PositionOutcome int

const (
	PositionAcquired PositionOutcome = iota
	PositionPermissionDenied
	PositionUnavailable
	PositionTimedOut
)

func (o PositionOutcome) String() string {
	switch o {
	case PositionAcquired:
		return "acquired"
	case PositionPermissionDenied:
		return "permission_denied"
	case PositionUnavailable:
		return "position_unavailable"
	case PositionTimedOut:
		return "timeout"
	default:
		return "unknown"
	}
}

// PositionResult is the single awaitable outcome of asking for the device position.
// Coordinates is only meaningful when Outcome is PositionAcquired.
type PositionResult struct {
	Outcome     PositionOutcome
	Coordinates Coordinates
}

// PositionProvider yields the current device position.
// Implementations should honour ctx cancellation.
type PositionProvider interface {
	CurrentPosition(ctx context.Context) PositionResult
}
