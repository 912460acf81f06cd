package favorite

import "time"

// Favorite is a class a member bookmarked, joined with the class for display.
type Favorite struct {
	UserID     int       `db:"user_id" json:"user_id"`
	ClassID    int       `db:"class_id" json:"class_id"`
	Title      string    `db:"title" json:"title"`
	Instructor string    `db:"instructor" json:"instructor"`
	StartTime  time.Time `db:"start_time" json:"start_time"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
