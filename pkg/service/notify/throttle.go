package notify

import (
	"sync"
	"time"

	"github.com/ops-deck/vigil/pkg/domain/types"
)

// DefaultThrottleWindow is the rolling window during which repeat direct
// messages to the same recipient for the same incident are suppressed.
const DefaultThrottleWindow = 5 * time.Minute

type throttleKey struct {
	recipient  string
	incidentID types.IncidentID
}

// throttle tracks the last direct-message time per (recipient, incident)
// pair. The map is process-wide, guarded by a single mutex, and has no
// persistence; entries older than twice the window are swept lazily on
// lookup. Losing the state on restart is an accepted tradeoff.
type throttle struct {
	mu       sync.Mutex
	window   time.Duration
	lastSent map[throttleKey]time.Time
	now      func() time.Time
}

func newThrottle(window time.Duration) *throttle {
	if window <= 0 {
		window = DefaultThrottleWindow
	}
	return &throttle{
		window:   window,
		lastSent: make(map[throttleKey]time.Time),
		now:      time.Now,
	}
}

// Allow reports whether a direct message to the recipient for the incident
// may be sent now, and records the send time if so.
func (t *throttle) Allow(recipient string, incidentID types.IncidentID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()

	// Sweep entries older than 2x the window to bound growth
	for key, sentAt := range t.lastSent {
		if now.Sub(sentAt) >= 2*t.window {
			delete(t.lastSent, key)
		}
	}

	key := throttleKey{recipient: recipient, incidentID: incidentID}
	if sentAt, ok := t.lastSent[key]; ok {
		if now.Sub(sentAt) < t.window {
			return false
		}
	}

	t.lastSent[key] = now
	return true
}
