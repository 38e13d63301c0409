package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cuenta los codigos enviados a un estudiante y devuelve {cuenta, ttl en ms}.
const enrollmentCodeScript = `
local sent = redis.call("INCR", KEYS[1])
if sent == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {sent, redis.call("PTTL", KEYS[1])}
`

const (
	redisOpTimeout          = 500 * time.Millisecond
	enrollmentCodeKeyPrefix = "advisor:enroll:codes:"
)

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisEnrollmentLimiter struct {
	logger *zap.Logger
	client redisEvaler
	window time.Duration
	max    int
}

// NewRedisOTPRateLimiter comparte el cupo de codigos de inscripcion entre instancias del API.
func NewRedisOTPRateLimiter(logger *zap.Logger, client *redis.Client, window time.Duration, max int) OTPRateLimiter {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if window < time.Second {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisEnrollmentLimiter{logger: logger, client: client, window: window, max: max}
}

func enrollmentCodeKey(studentID string) string {
	return enrollmentCodeKeyPrefix + studentID
}

// Allow falla abierto ante errores de Redis.
func (l *redisEnrollmentLimiter) Allow(ctx context.Context, studentID string) EnrollmentQuota {
	if studentID == "" {
		return EnrollmentQuota{}
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	res, err := l.client.Eval(ctx, enrollmentCodeScript, []string{enrollmentCodeKey(studentID)}, l.window.Milliseconds()).Int64Slice()
	if err != nil || len(res) != 2 {
		l.logger.Warn("enrollment code limiter unavailable", zap.Error(err), zap.String("student_id", studentID))
		return EnrollmentQuota{Allowed: true}
	}
	sent, ttl := res[0], time.Duration(res[1])*time.Millisecond
	if sent <= int64(l.max) {
		return EnrollmentQuota{Allowed: true}
	}
	if ttl <= 0 {
		ttl = l.window
	}
	l.logger.Info("enrollment code limit reached", zap.String("student_id", studentID), zap.Int64("sent", sent))
	return EnrollmentQuota{RetryAfter: ttl}
}
