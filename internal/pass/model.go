package pass

import "time"

type PassType string
type PassStatus string
type TxType string

const (
	TypePack      PassType = "pack"
	TypeUnlimited PassType = "unlimited"

	StatusActive    PassStatus = "active"
	StatusExhausted PassStatus = "exhausted"
	StatusExpired   PassStatus = "expired"

	TxDebit  TxType = "debit"
	TxRefund TxType = "refund"
	TxIssue  TxType = "issue"
	TxTopUp  TxType = "top_up"
)

type Pass struct {
	ID               int        `db:"id" json:"id"`
	UserID           int        `db:"user_id" json:"user_id"`
	Type             PassType   `db:"pass_type" json:"pass_type"`
	RemainingCredits int        `db:"remaining_credits" json:"remaining_credits"`
	ValidFrom        time.Time  `db:"valid_from" json:"valid_from"`
	ValidUntil       time.Time  `db:"valid_until" json:"valid_until"`
	Status           PassStatus `db:"status" json:"status"`
	IsActive         bool       `db:"is_active" json:"is_active"`
	ExternalRef      *string    `db:"external_ref" json:"-"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// Transaction is one journal row per credit movement on a pack pass.
type Transaction struct {
	ID           int       `db:"id" json:"id"`
	PassID       int       `db:"pass_id" json:"pass_id"`
	BookingID    *int      `db:"booking_id" json:"booking_id,omitempty"`
	Amount       int       `db:"amount" json:"amount"`
	Type         TxType    `db:"type" json:"type"`
	BalanceAfter int       `db:"balance_after" json:"balance_after"`
	ExternalRef  *string   `db:"external_ref" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// IssueRequest is a pass purchase reported by the payment processor.
type IssueRequest struct {
	UserID      int       `json:"user_id" validate:"required,gt=0"`
	Type        PassType  `json:"pass_type" validate:"required,oneof=pack unlimited"`
	Credits     int       `json:"credits" validate:"gte=0"`
	ValidFrom   time.Time `json:"valid_from" validate:"required"`
	ValidUntil  time.Time `json:"valid_until" validate:"required"`
	ExternalRef string    `json:"external_ref" validate:"required"`
}

// TopUpRequest adds purchased credits to an existing pack pass.
type TopUpRequest struct {
	PassID      int    `json:"pass_id" validate:"required,gt=0"`
	Credits     int    `json:"credits" validate:"required,gt=0"`
	ExternalRef string `json:"external_ref" validate:"required"`
}

type ActivePassResponse struct {
	Pass *Pass `json:"pass"`
}
