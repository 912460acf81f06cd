package pass

import (
	"errors"
	"time"
)

var (
	ErrInsufficientCredit = errors.New("insufficient credit")
	ErrInvalidAmount      = errors.New("credit amount must be positive")
)

func (p *Pass) IsUnlimited() bool {
	return p.Type == TypeUnlimited
}

// Usable reports whether the pass is the user's current, unexpired pass at
// now. An exhausted pack is usable but has no credit.
func (p *Pass) Usable(now time.Time) bool {
	return p.IsActive && p.Status != StatusExpired && !p.ValidUntil.Before(now)
}

// HasCredit reports whether a debit of amount would succeed.
func (p *Pass) HasCredit(amount int) bool {
	return p.IsUnlimited() || p.RemainingCredits >= amount
}

// Balance is the remaining pack credit, or nil for unlimited passes.
func (p *Pass) Balance() *int {
	if p.IsUnlimited() {
		return nil
	}
	n := p.RemainingCredits
	return &n
}

// ApplyDebit takes amount credits from a pack pass. Unlimited passes are left untouched.
func ApplyDebit(p *Pass, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if p.IsUnlimited() {
		return nil
	}
	if p.RemainingCredits < amount {
		return ErrInsufficientCredit
	}

	p.RemainingCredits -= amount
	if p.RemainingCredits == 0 {
		p.Status = StatusExhausted
	}
	return nil
}

// ApplyRefund returns amount credits to a pack pass. An exhausted pass becomes
// active again; an expired pass keeps its status.
func ApplyRefund(p *Pass, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if p.IsUnlimited() {
		return nil
	}

	p.RemainingCredits += amount
	if p.Status == StatusExhausted {
		p.Status = StatusActive
	}
	return nil
}
