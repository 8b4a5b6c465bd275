package ratelimit

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/studypal/assist-gateway/internal/auth"
	"github.com/studypal/assist-gateway/internal/httputil"
	"github.com/studypal/assist-gateway/internal/telemetry"
)

const (
	headerRateLimitRequests          = "X-RateLimit-Limit-Requests"
	headerRateLimitRemainingRequests = "X-RateLimit-Remaining-Requests"
	headerRateLimitReset             = "X-RateLimit-Reset-Requests"
	headerRetryAfter                 = "Retry-After"
)

// Limits supplies fallback limits for keys without explicit overrides.
type Limits struct {
	DefaultRPM        int
	DefaultDailyQuota int
}

// Middleware returns chi middleware that enforces per-key request rates and
// the daily AI request quota.
func Middleware(limiter *Limiter, quota *QuotaTracker, metrics *telemetry.Metrics, limits func() Limits) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := w.Header().Get("X-Request-ID")

			authInfo, ok := auth.AuthFromContext(r.Context())
			if !ok {
				// No auth info — let request pass (auth middleware will catch it)
				next.ServeHTTP(w, r)
				return
			}

			defaults := limits()

			// Determine RPM limit
			rpm := defaults.DefaultRPM
			if authInfo.RPMLimit != nil {
				rpm = *authInfo.RPMLimit
			}

			// Check RPM
			rpmKey := fmt.Sprintf("rpm:%s", authInfo.KeyID)
			result, _ := limiter.Check(r.Context(), rpmKey, int64(rpm), time.Minute)

			// Always set rate limit headers
			w.Header().Set(headerRateLimitRequests, strconv.Itoa(rpm))
			w.Header().Set(headerRateLimitRemainingRequests, strconv.FormatInt(result.Remaining, 10))
			w.Header().Set(headerRateLimitReset, result.ResetAt.Format(time.RFC3339))

			if !result.Allowed {
				slog.Warn("rate limit exceeded",
					"request_id", reqID,
					"key_id", authInfo.KeyID,
					"user_id", authInfo.UserID,
					"dimension", "rpm",
					"limit", rpm,
				)
				if metrics != nil {
					metrics.RecordRateLimitHit("rpm")
				}
				w.Header().Set(headerRetryAfter, strconv.Itoa(int(result.RetryAfter.Seconds())))
				httputil.WriteRateLimitError(w, reqID,
					fmt.Sprintf("Rate limit exceeded: %d requests per minute. Retry after %s", rpm, result.ResetAt.Format(time.RFC3339)))
				return
			}

			// Check daily quota
			dailyQuota := defaults.DefaultDailyQuota
			if authInfo.DailyQuota != nil {
				dailyQuota = *authInfo.DailyQuota
			}
			if dailyQuota > 0 {
				quotaResult, _ := quota.CheckDaily(r.Context(), authInfo.UserID, int64(dailyQuota))
				if !quotaResult.Allowed {
					slog.Warn("daily quota exceeded",
						"request_id", reqID,
						"key_id", authInfo.KeyID,
						"user_id", authInfo.UserID,
						"used", quotaResult.Used,
						"limit", quotaResult.Limit,
					)
					if metrics != nil {
						metrics.RecordRateLimitHit("quota")
					}
					httputil.WriteQuotaExceededError(w, reqID,
						fmt.Sprintf("Daily AI request quota exceeded: used %d of %d requests. Quota resets at midnight UTC.", quotaResult.Used, quotaResult.Limit))
					return
				}
			}

			// Count the request against today's quota
			if err := quota.Record(r.Context(), authInfo.UserID); err != nil {
				slog.Warn("failed to record quota usage", "request_id", reqID, "error", err)
			}

			next.ServeHTTP(w, r)
		})
	}
}
