package osm

import (
	"sync"
	"time"
)

// MonitoringHooks defines callbacks for observing OSM API activity.
// The osm package stays free of metrics dependencies; the host wires these
// to its own instrumentation.
type MonitoringHooks struct {
	// OnFetch is called after a map fetch attempt completes.
	OnFetch func(duration time.Duration, success bool)

	// OnRateLimit is called when a request had to wait for the rate limiter.
	OnRateLimit func(waitTime time.Duration)

	// OnCache is called on every document cache lookup.
	OnCache func(hit bool)
}

var (
	globalHooks *MonitoringHooks
	hooksMutex  sync.RWMutex
)

// SetMonitoringHooks sets global monitoring hooks.
func SetMonitoringHooks(hooks *MonitoringHooks) {
	hooksMutex.Lock()
	defer hooksMutex.Unlock()
	globalHooks = hooks
}

func getMonitoringHooks() *MonitoringHooks {
	hooksMutex.RLock()
	defer hooksMutex.RUnlock()
	return globalHooks
}

func notifyFetch(duration time.Duration, success bool) {
	if h := getMonitoringHooks(); h != nil && h.OnFetch != nil {
		h.OnFetch(duration, success)
	}
}

func notifyRateLimit(waitTime time.Duration) {
	if h := getMonitoringHooks(); h != nil && h.OnRateLimit != nil {
		h.OnRateLimit(waitTime)
	}
}

func notifyCache(hit bool) {
	if h := getMonitoringHooks(); h != nil && h.OnCache != nil {
		h.OnCache(hit)
	}
}
