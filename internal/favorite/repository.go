package favorite

import (
	"context"
	"errors"

	"studioslot/internal/db"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrFavoriteNotFound = errors.New("favorite not found")
	ErrClassNotFound    = errors.New("class not found")
)

const codeForeignKeyViolation pq.ErrorCode = "23503"

type Repository interface {
	Add(ctx context.Context, userID, classID int) error
	Remove(ctx context.Context, userID, classID int) error
	List(ctx context.Context, userID int) ([]Favorite, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{db: conn}
}

// Add is idempotent.
func (r *repository) Add(ctx context.Context, userID, classID int) error {
	_, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO favorites (user_id, class_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, class_id) DO NOTHING
	`, userID, classID)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == codeForeignKeyViolation {
		return ErrClassNotFound
	}
	return err
}

func (r *repository) Remove(ctx context.Context, userID, classID int) error {
	result, err := db.GetExecutor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND class_id = $2`, userID, classID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, userID int) ([]Favorite, error) {
	favorites := []Favorite{}
	err := db.GetExecutor(ctx, r.db).SelectContext(ctx, &favorites, `
		SELECT f.user_id, f.class_id, c.title, c.instructor, c.start_time, c.status, f.created_at
		FROM favorites f
		JOIN class_instances c ON c.id = f.class_id
		WHERE f.user_id = $1
		ORDER BY c.start_time ASC
	`, userID)
	return favorites, err
}
