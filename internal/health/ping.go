package health

import "context"

// HealthPinger is implemented by dependencies that can be probed directly.
// HealthPing must return nil when the dependency is reachable.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
