package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"spacewars/internal/apperr"
)

type playerKey struct{}

// PlayerID returns the authenticated player stored by Authenticator.
func PlayerID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(playerKey{}).(int64)
	return id, ok
}

func withPlayer(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, playerKey{}, id)
}

// Authenticator verifies HS256 bearer tokens whose subject is a player id.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Sign issues a token for playerID valid for ttl.
func (a *Authenticator) Sign(playerID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(playerID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) verify(header string) (int64, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, errors.New("missing bearer token")
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("subject is not a player id")
	}
	return id, nil
}

func (a *Authenticator) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.verify(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, apperr.Wrap(apperr.KindUnauthorized, "invalid or missing token", err))
			return
		}
		next.ServeHTTP(w, r.WithContext(withPlayer(r.Context(), id)))
	})
}

// RateLimiter keeps one token bucket per authenticated player.
type RateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[int64]*rate.Limiter
}

// NewRateLimiter allows perSecond requests with the given burst. A
// non-positive perSecond disables limiting.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limit: limit, burst: burst, limiters: map[int64]*rate.Limiter{}}
}

func (l *RateLimiter) limiter(playerID int64) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[playerID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[playerID] = lim
	}
	return lim
}

// Wrap must sit inside Authenticator.Wrap.
func (l *RateLimiter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := PlayerID(r.Context())
		if !l.limiter(id).Allow() {
			writeError(w, apperr.New(apperr.KindRateLimited, "too many requests"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
