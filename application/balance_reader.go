package application

import (
	"context"
	"sync"
	"time"

	"chatcoin/domain/interfaces"
	"chatcoin/infrastructure"
	"chatcoin/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

const lastKnownTTL = 30 * time.Second

// BalanceResult is a balance read outcome. Degraded marks a response served
// while the store was unreachable; the balance is then the last known value
// and may be stale.
type BalanceResult struct {
	Balance  int64
	Degraded bool
}

type cachedBalance struct {
	balance  int64
	cachedAt time.Time
}

// BalanceReader serves balance reads through a circuit breaker. When the
// store is unavailable it answers from a short-lived last-known cache rather
// than piling timed-out queries onto a struggling database.
type BalanceReader struct {
	users   interfaces.UserRepository
	breaker *infrastructure.CircuitBreaker
	now     func() time.Time

	mu        sync.RWMutex
	lastKnown map[string]cachedBalance
}

// NewBalanceReader creates a new balance reader
func NewBalanceReader(users interfaces.UserRepository, breaker *infrastructure.CircuitBreaker) *BalanceReader {
	return &BalanceReader{
		users:     users,
		breaker:   breaker,
		now:       time.Now,
		lastKnown: make(map[string]cachedBalance),
	}
}

// GetBalance returns a user's balance. A user without a row has balance
// zero. While the store is unreachable the result is flagged degraded,
// carrying the last known value or zero when none is cached.
func (r *BalanceReader) GetBalance(ctx context.Context, userID string) (*BalanceResult, error) {
	var balance int64

	err := r.breaker.Do(func() error {
		user, err := r.users.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if user != nil {
			balance = user.Balance
		}
		return nil
	})

	r.publishBreakerState()

	if err == nil {
		r.remember(userID, balance)
		return &BalanceResult{Balance: balance}, nil
	}

	observability.DegradedReads.Inc()

	if cached, ok := r.recall(userID); ok {
		log.WithFields(log.Fields{
			"userId": userID,
			"error":  err,
		}).Warn("Serving last known balance")
		return &BalanceResult{Balance: cached, Degraded: true}, nil
	}

	// No cached value for this user. Reads must stay available during an
	// outage, so answer with a flagged zero instead of an error.
	log.WithFields(log.Fields{
		"userId": userID,
		"error":  err,
	}).Warn("Serving degraded zero balance")
	return &BalanceResult{Degraded: true}, nil
}

func (r *BalanceReader) remember(userID string, balance int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastKnown[userID] = cachedBalance{balance: balance, cachedAt: r.now()}
}

func (r *BalanceReader) recall(userID string) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cached, ok := r.lastKnown[userID]
	if !ok || r.now().Sub(cached.cachedAt) > lastKnownTTL {
		return 0, false
	}
	return cached.balance, true
}

func (r *BalanceReader) publishBreakerState() {
	if r.breaker.State() == infrastructure.BreakerOpen {
		observability.BreakerState.Set(1)
	} else {
		observability.BreakerState.Set(0)
	}
}
