package user

import (
	"context"
	"time"
)

type Repository interface {
	FindByID(ctx context.Context, id int) (*User, error)
	SignWaiver(ctx context.Context, id int, at time.Time) (*User, error)
}
