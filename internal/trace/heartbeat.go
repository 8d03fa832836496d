package trace

import (
	"strconv"
	"sync"
	"time"
)

// Heartbeat emits periodic liveness events. A run of heartbeats with no span
// end in between points at a contract that is stuck.
type Heartbeat struct {
	done chan struct{}
	stop sync.Once
	wg   sync.WaitGroup
}

// StartHeartbeat emits a heartbeat every interval until Stop. It returns nil
// when tracing is disabled or interval is not positive.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{done: make(chan struct{})}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.beat(tracer, interval)
	}()
	return h
}

func (h *Heartbeat) beat(tracer Tracer, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	gid := getGoroutineID()
	for n := 1; ; n++ {
		select {
		case <-h.done:
			return
		case now := <-ticker.C:
			tracer.Emit(&Event{
				Time:   now,
				Seq:    NextSeq(),
				Kind:   KindHeartbeat,
				Scope:  ScopeDriver,
				GID:    gid,
				Name:   "heartbeat",
				Detail: "#" + strconv.Itoa(n),
			})
		}
	}
}

// Stop ends the heartbeat goroutine and waits for it. It is safe to call on
// a nil Heartbeat and more than once.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.stop.Do(func() { close(h.done) })
	h.wg.Wait()
}
