package user

import "time"

type User struct {
	ID             int        `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Email          string     `db:"email" json:"email"`
	Role           string     `db:"role" json:"role"`
	WaiverSignedAt *time.Time `db:"waiver_signed_at" json:"waiver_signed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

func (u *User) HasSignedWaiver() bool {
	return u.WaiverSignedAt != nil
}

type Profile struct {
	User
	WaiverSigned bool `json:"waiver_signed"`
}

func profileOf(u *User) Profile {
	return Profile{User: *u, WaiverSigned: u.HasSignedWaiver()}
}

type SignWaiverRequest struct {
	Accepted bool `json:"accepted" binding:"required"`
}
