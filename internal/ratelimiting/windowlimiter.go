package ratelimiting

import (
	"context"
	"slices"
	"sync"
	"time"
)

// OutboundLimiter gates calls to an upstream API with a hard quota.
type OutboundLimiter interface {
	Limit(ctx context.Context, maxOperationTime time.Duration, operation func()) bool
	LimitCancelable(ctx context.Context, maxOperationTime time.Duration, operation func() bool) bool
}

// windowBudgetLimiter admits at most limit operations per rolling window.
// The clinic API enforces a hard per-minute quota per API key; exceeding it
// gets the key blocked for several minutes, so outbound calls queue here
// rather than risk the quota.
type windowBudgetLimiter struct {
	limit     int
	window    time.Duration
	nowFunc   func() time.Time
	afterFunc func(time.Duration) <-chan time.Time

	availableSlots chan struct{}
	completedCalls []time.Time
	mutex          sync.Mutex
}

func NewWindowBudgetLimiter(
	limit int,
	window time.Duration,
	nowFunc func() time.Time,
	afterFunc func(time.Duration) <-chan time.Time,
) *windowBudgetLimiter {
	availableSlots := make(chan struct{}, limit)
	for range limit {
		availableSlots <- struct{}{}
	}

	// Seed the history with calls older than the window so the first limit
	// callers proceed without waiting
	completedCalls := make([]time.Time, limit)
	veryOldTime := nowFunc().Add(-window)
	for i := range limit {
		completedCalls[i] = veryOldTime
	}

	return &windowBudgetLimiter{
		limit:     limit,
		window:    window,
		nowFunc:   nowFunc,
		afterFunc: afterFunc,

		availableSlots: availableSlots,
		completedCalls: completedCalls,
	}
}

func insertSortedOrder(arr []time.Time, t time.Time) []time.Time {
	i, _ := slices.BinarySearchFunc(arr, t, func(a, b time.Time) int {
		return a.Compare(b)
	})
	return slices.Insert(arr, i, t)
}

// Limit runs operation once a slot in the window frees up, or returns false
// without running it if the context is done or cannot fit the wait plus
// maxOperationTime before its deadline.
func (l *windowBudgetLimiter) Limit(ctx context.Context, maxOperationTime time.Duration, operation func()) bool {
	return l.LimitCancelable(ctx, maxOperationTime, func() bool {
		operation()
		return true
	})
}

// LimitCancelable is Limit for operations that may decline to run after the
// wait. An operation returning false does not consume window budget.
func (l *windowBudgetLimiter) LimitCancelable(ctx context.Context, maxOperationTime time.Duration, operation func() bool) bool {
	return l.waitIf(ctx, func(ctx context.Context, wait time.Duration) bool {
		deadline, ok := ctx.Deadline()
		if !ok {
			return true
		}

		maxDuration := wait + maxOperationTime
		untilDeadline := deadline.Sub(l.nowFunc())
		return maxDuration <= untilDeadline
	}, operation)
}

func (l *windowBudgetLimiter) waitIf(ctx context.Context, shouldRun func(ctx context.Context, wait time.Duration) bool, operation func() bool) bool {
	select {
	case <-l.availableSlots:
		defer func() {
			l.availableSlots <- struct{}{}
		}()
	case <-ctx.Done():
		return false
	}

	oldestCall, ok := l.grabOldestCompletedCall(ctx, shouldRun)
	if !ok {
		return false
	}
	// If the operation never runs, the grabbed history entry goes back as-is
	callToInsert := oldestCall
	defer func() {
		l.insertCompletedCall(callToInsert)
	}()

	if wait := l.computeWait(oldestCall); wait > 0 {
		select {
		case <-ctx.Done():
			return false
		case <-l.afterFunc(wait):
		}
	}

	ran := operation()
	if !ran {
		return false
	}

	callToInsert = l.nowFunc()
	return true
}

func (l *windowBudgetLimiter) computeWait(oldCall time.Time) time.Duration {
	timeSinceCall := l.nowFunc().Sub(oldCall)
	return l.window - timeSinceCall
}

func (l *windowBudgetLimiter) insertCompletedCall(completedCall time.Time) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.completedCalls = insertSortedOrder(l.completedCalls, completedCall)
}

func (l *windowBudgetLimiter) grabOldestCompletedCall(ctx context.Context, shouldRun func(context.Context, time.Duration) bool) (time.Time, bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	oldestCall := l.completedCalls[0]
	wait := l.computeWait(oldestCall)
	if !shouldRun(ctx, wait) {
		return time.Time{}, false
	}

	l.completedCalls = l.completedCalls[1:]
	return oldestCall, true
}
