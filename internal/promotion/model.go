package promotion

import "time"

// Promotion is a studio special shown on the schedule while it runs.
type Promotion struct {
	ID          int       `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	ActiveFrom  time.Time `db:"active_from" json:"active_from"`
	ActiveUntil time.Time `db:"active_until" json:"active_until"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type CreatePromotionRequest struct {
	Title       string    `json:"title" binding:"required,max=200"`
	Description string    `json:"description" binding:"max=2000"`
	ActiveFrom  time.Time `json:"active_from" binding:"required"`
	ActiveUntil time.Time `json:"active_until" binding:"required"`
}

type CurrentResponse struct {
	Promotion *Promotion `json:"promotion"`
}
