package healthcheck

import (
	"fmt"

	"github.com/atlassian/gmetricd"
	"github.com/atlassian/gmetricd/pkg/store"
)

// HealthcheckFunc is a function that returns a status message, and if the check if healthy or not (false).
// healthchecks must not block.
type HealthcheckFunc func() (string, HealthyStatus)

type HealthyStatus bool

const (
	Healthy   = HealthyStatus(true)
	Unhealthy = HealthyStatus(false)
)

// Flush reports the outcome of the most recent flush, as recorded in the flush stats of st.
func Flush(st *store.Store) HealthcheckFunc {
	return func() (string, HealthyStatus) {
		lastFlush, _ := st.Stat(gmetricd.StatGroupFlush, gmetricd.StatLastFlush)
		lastException, failed := st.Stat(gmetricd.StatGroupFlush, gmetricd.StatLastException)
		if failed && lastException >= lastFlush {
			return fmt.Sprintf("flush failed at %d", lastException), Unhealthy
		}
		return fmt.Sprintf("flushed at %d", lastFlush), Healthy
	}
}

// Receiving reports whether a metric was seen within maxAge seconds of now, a unix timestamp.
func Receiving(st *store.Store, now func() int64, maxAge int64) HealthcheckFunc {
	return func() (string, HealthyStatus) {
		lastSeen, _ := st.Stat(gmetricd.StatGroupMessages, gmetricd.StatLastMessageSeen)
		if age := now() - lastSeen; age > maxAge {
			return fmt.Sprintf("no metric received for %ds", age), Unhealthy
		}
		return fmt.Sprintf("metric received at %d", lastSeen), Healthy
	}
}
