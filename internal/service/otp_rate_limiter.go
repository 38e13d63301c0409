package service

import (
	"context"
	"sync"
	"time"
)

// EnrollmentQuota es la decision del limitador para un estudiante.
// RetryAfter solo tiene sentido cuando Allowed es false.
type EnrollmentQuota struct {
	Allowed    bool
	RetryAfter time.Duration
}

// OTPRateLimiter limita cuantos codigos de inscripcion recibe cada estudiante por ventana.
type OTPRateLimiter interface {
	Allow(ctx context.Context, studentID string) EnrollmentQuota
}

type memoryEnrollmentLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	sent   map[string][]time.Time
	now    func() time.Time
}

// NewOTPRateLimiter crea un limitador en memoria de ventana deslizante, por id de estudiante.
func NewOTPRateLimiter(window time.Duration, max int) OTPRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &memoryEnrollmentLimiter{
		window: window,
		max:    max,
		sent:   make(map[string][]time.Time),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (l *memoryEnrollmentLimiter) Allow(_ context.Context, studentID string) EnrollmentQuota {
	if studentID == "" {
		return EnrollmentQuota{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	recent := l.sent[studentID][:0]
	for _, at := range l.sent[studentID] {
		if at.After(cutoff) {
			recent = append(recent, at)
		}
	}
	if len(recent) >= l.max {
		l.sent[studentID] = recent
		return EnrollmentQuota{RetryAfter: recent[0].Add(l.window).Sub(now)}
	}
	l.sent[studentID] = append(recent, now)
	return EnrollmentQuota{Allowed: true}
}
