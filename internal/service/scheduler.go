package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"captionclash/pkg/logger"
)

// TimerScheduler is an in-process Scheduler backed by time.AfterFunc. Jobs
// do not survive a restart; a production deployment would swap in a durable
// scheduler behind the same interface, which is why settlement is idempotent
// rather than assumed exactly-once.
type TimerScheduler struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	handler func(payload string)
	stopped bool
	log     *logger.Logger
}

func NewTimerScheduler(log *logger.Logger) *TimerScheduler {
	return &TimerScheduler{
		timers: make(map[string]*time.Timer),
		log:    log,
	}
}

// Bind sets the callback invoked when a job fires. Must be called before
// the first ScheduleAt.
func (s *TimerScheduler) Bind(handler func(payload string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

// ScheduleAt registers a job firing at t. A time in the past fires
// immediately.
func (s *TimerScheduler) ScheduleAt(t time.Time, payload string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobID := uuid.NewString()
	if s.stopped {
		s.log.WithField("job_id", jobID).Warn("Scheduler stopped, dropping job")
		return jobID
	}

	s.timers[jobID] = time.AfterFunc(time.Until(t), func() {
		s.mu.Lock()
		delete(s.timers, jobID)
		handler := s.handler
		s.mu.Unlock()

		if handler == nil {
			s.log.WithField("job_id", jobID).Error("Job fired with no handler bound")
			return
		}
		handler(payload)
	})

	s.log.WithFields(map[string]interface{}{
		"job_id":  jobID,
		"fire_at": t.UTC(),
	}).Info("Scheduled settlement job")

	return jobID
}

// Cancel revokes a pending job so it can never fire.
func (s *TimerScheduler) Cancel(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, ok := s.timers[jobID]
	if !ok {
		return false
	}
	delete(s.timers, jobID)
	stopped := timer.Stop()

	s.log.WithFields(map[string]interface{}{
		"job_id":  jobID,
		"stopped": stopped,
	}).Info("Cancelled settlement job")

	return stopped
}

// Stop cancels every pending job, for shutdown.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for jobID, timer := range s.timers {
		timer.Stop()
		delete(s.timers, jobID)
	}
}
