// Package policy decides whether a member's cancellation earns a refund.
package policy

import "time"

// RefundWindow is how long before class start a cancellation stays refundable.
const RefundWindow = 2 * time.Hour

// IsRefundEligible reports whether cancelling at now refunds a class starting
// at classStart. The boundary itself is eligible.
func IsRefundEligible(classStart, now time.Time) bool {
	return Evaluator{Window: RefundWindow}.IsRefundEligible(classStart, now)
}

// Evaluator applies a configurable refund window.
type Evaluator struct {
	Window time.Duration
}

func NewEvaluator(window time.Duration) Evaluator {
	return Evaluator{Window: window}
}

func (e Evaluator) IsRefundEligible(classStart, now time.Time) bool {
	return !now.After(classStart.Add(-e.Window))
}

// Deadline is the last instant a cancellation is still refunded.
func (e Evaluator) Deadline(classStart time.Time) time.Time {
	return classStart.Add(-e.Window)
}
