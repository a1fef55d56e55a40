package search

import (
	"sync"
	"time"
)

// ShowNotification sets message now and clears it after duration (the
// session default when duration <= 0). A newer notification replaces the
// pending auto-clear of an older one. The returned disposer clears the
// notification early, unless a newer one has replaced it in the meantime.
func (s *Session) ShowNotification(message string, duration time.Duration) func() {
	if duration <= 0 {
		duration = s.opts.NotificationDuration
	}

	s.mu.Lock()
	if s.notifyTimer != nil {
		s.notifyTimer.Stop()
	}
	s.notifyGen++
	gen := s.notifyGen
	snapshot, listeners := s.reduceLocked(ShowNotification{Message: message})
	s.notifyTimer = time.AfterFunc(duration, func() {
		s.clearNotification(gen)
	})
	s.mu.Unlock()

	notifyAll(snapshot, listeners)

	var once sync.Once
	return func() {
		once.Do(func() { s.clearNotification(gen) })
	}
}

func (s *Session) clearNotification(gen uint64) {
	s.mu.Lock()
	if gen != s.notifyGen {
		s.mu.Unlock()
		return
	}
	if s.notifyTimer != nil {
		s.notifyTimer.Stop()
		s.notifyTimer = nil
	}
	s.notifyGen++
	snapshot, listeners := s.reduceLocked(ShowNotification{})
	s.mu.Unlock()

	notifyAll(snapshot, listeners)
}
