package class

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var (
	ErrClassNotFound  = errors.New("class not found")
	ErrClassCancelled = errors.New("class is cancelled")
	ErrClassInvalid   = errors.New("invalid class data")
	ErrInvalidDate    = errors.New("date must be formatted as YYYY-MM-DD")
	ErrInvalidCSV     = errors.New("invalid schedule file")
)

var importColumns = []string{"title", "instructor", "start_time", "end_time", "capacity"}

type Service interface {
	CreateClass(ctx context.Context, req CreateClassRequest) (*ClassInstance, error)
	GetClass(ctx context.Context, id int) (*ClassWithAvailability, error)
	ListSchedule(ctx context.Context, date string, onlyFuture bool) ([]ClassWithAvailability, error)
	ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error)
}

type service struct {
	repo    Repository
	tracker *Tracker
	now     func() time.Time
}

func NewService(repo Repository, tracker *Tracker) Service {
	return &service{
		repo:    repo,
		tracker: tracker,
		now:     time.Now,
	}
}

func buildClass(req CreateClassRequest) (*ClassInstance, error) {
	title := strings.TrimSpace(req.Title)
	instructor := strings.TrimSpace(req.Instructor)
	if title == "" || instructor == "" {
		return nil, ErrClassInvalid
	}

	startTime, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		return nil, ErrClassInvalid
	}

	endTime, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EndTime))
	if err != nil {
		return nil, ErrClassInvalid
	}

	if !endTime.After(startTime) {
		return nil, ErrClassInvalid
	}

	if req.Capacity <= 0 {
		return nil, ErrClassInvalid
	}

	startTime = startTime.UTC()
	endTime = endTime.UTC()

	return &ClassInstance{
		Title:       title,
		Instructor:  instructor,
		Date:        time.Date(startTime.Year(), startTime.Month(), startTime.Day(), 0, 0, 0, 0, time.UTC),
		StartTime:   startTime,
		EndTime:     endTime,
		Capacity:    req.Capacity,
		DurationMin: int(endTime.Sub(startTime) / time.Minute),
		Status:      StatusScheduled,
	}, nil
}

func (s *service) CreateClass(ctx context.Context, req CreateClassRequest) (*ClassInstance, error) {
	c, err := buildClass(req)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, c)
}

func (s *service) GetClass(ctx context.Context, id int) (*ClassWithAvailability, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.tracker.Availability(ctx, c)
}

// ListSchedule returns one day of classes. An empty date means today (UTC).
// With onlyFuture set, started and cancelled classes are left out.
func (s *service) ListSchedule(ctx context.Context, date string, onlyFuture bool) ([]ClassWithAvailability, error) {
	now := s.now()

	var day time.Time
	if date == "" {
		n := now.UTC()
		day = time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	} else {
		parsed, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, ErrInvalidDate
		}
		day = parsed
	}

	var after *time.Time
	if onlyFuture {
		after = &now
	}
	return s.repo.ListWithAvailability(ctx, day, after)
}

// ImportCSV creates one class per data row. Rows that fail validation are
// reported by line number and skipped; a storage error stops the import.
func (s *service) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: missing header", ErrInvalidCSV)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range importColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidCSV, col)
		}
	}

	result := &ImportResult{Created: []ClassInstance{}, Errors: []ImportError{}}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Errors = append(result.Errors, ImportError{Line: line, Message: err.Error()})
			continue
		}

		capacity, err := strconv.Atoi(strings.TrimSpace(field(record, index["capacity"])))
		if err != nil {
			result.Errors = append(result.Errors, ImportError{Line: line, Message: "capacity must be a number"})
			continue
		}

		c, err := buildClass(CreateClassRequest{
			Title:      field(record, index["title"]),
			Instructor: field(record, index["instructor"]),
			StartTime:  field(record, index["start_time"]),
			EndTime:    field(record, index["end_time"]),
			Capacity:   capacity,
		})
		if err != nil {
			result.Errors = append(result.Errors, ImportError{Line: line, Message: err.Error()})
			continue
		}

		created, err := s.repo.Create(ctx, c)
		if err != nil {
			return result, err
		}
		result.Created = append(result.Created, *created)
	}

	return result, nil
}

func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}
