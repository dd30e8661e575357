package queue

import (
	"time"

	"infratoolkit/idgen"
)

const healthMonitorInterval = 10 * time.Second

// StartHealthMonitor launches the background worker that recomputes the
// health gauge every ~10s (jittered so a fleet of queues started together
// don't all wake in lockstep), until Shutdown is called. It is optional:
// Metrics() always computes health on demand too, but a long-idle queue
// with nobody calling Metrics would otherwise never observe its own
// idle-to-healthy transition.
func (q *Queue) StartHealthMonitor() {
	go func() {
		for {
			wait := idgen.Jitter(healthMonitorInterval, healthMonitorInterval/10)
			select {
			case <-q.stop.Done():
				return
			case <-time.After(wait):
			}

			q.mu.Lock()
			q.metrics.Health = q.healthLocked()
			q.mu.Unlock()
		}
	}()
}
