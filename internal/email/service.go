package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/smtp"
	"time"

	"studioslot/internal/logger"
	"studioslot/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey    = "emails"
	failedKey   = "emails:failed"
	maxAttempts = 3
)

type Job struct {
	Kind    string    `json:"kind"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type SMTPConfig struct {
	From     string
	FromName string
	Host     string
	Port     string
	User     string
	Pass     string
}

// Service queues outgoing mail in Redis and delivers it over SMTP from Start.
type Service struct {
	redis      *redis.Client
	smtp       SMTPConfig
	send       func(job Job) error
	retryDelay time.Duration
	now        func() time.Time
}

func New(rdb *redis.Client, cfg SMTPConfig) *Service {
	s := &Service{
		redis:      rdb,
		smtp:       cfg,
		retryDelay: 5 * time.Second,
		now:        time.Now,
	}
	s.send = s.sendSMTP
	return s
}

// Send queues a message. kind labels the email in metrics.
func (s *Service) Send(ctx context.Context, kind, to, name, subject, body string) error {
	if to == "" {
		return errors.New("email: empty recipient")
	}
	job := Job{
		Kind:    kind,
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Created: s.now().UTC(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.WithContext(ctx).Error("failed to queue email", "kind", kind, "to", to, "error", err)
		return err
	}

	logger.WithContext(ctx).Debug("email queued", "kind", kind, "to", to)
	return nil
}

// Start drains the queue until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("email worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("email worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

// processNext handles at most one job and reports whether one was taken.
func (s *Service) processNext(ctx context.Context) bool {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return false
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Error("dropping malformed email job", "error", err)
		return true
	}

	job.Tries++
	if err := s.send(job); err != nil {
		logger.Warn("email delivery failed", "kind", job.Kind, "to", job.To, "attempt", job.Tries, "error", err)

		if job.Tries < maxAttempts {
			s.requeue(ctx, job)
		} else {
			metrics.RecordEmail(job.Kind, "failed")
			s.saveFailed(ctx, job, err)
		}
		return true
	}

	metrics.RecordEmail(job.Kind, "success")
	logger.Info("email sent", "kind", job.Kind, "to", job.To)
	return true
}

func (s *Service) requeue(ctx context.Context, job Job) {
	if s.retryDelay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(s.retryDelay):
		}
	}
	data, _ := json.Marshal(job)
	// the job must survive shutdown, so ctx is not used here
	if err := s.redis.LPush(context.Background(), queueKey, data).Err(); err != nil {
		logger.Error("failed to requeue email", "to", job.To, "error", err)
	}
}

func (s *Service) saveFailed(ctx context.Context, job Job, cause error) {
	failed := map[string]any{
		"job":   job,
		"error": cause.Error(),
		"time":  s.now().UTC(),
	}
	data, _ := json.Marshal(failed)
	if err := s.redis.LPush(context.Background(), failedKey, data).Err(); err != nil {
		logger.Error("failed to park email", "to", job.To, "error", err)
		return
	}
	logger.Error("email moved to failed queue", "kind", job.Kind, "to", job.To, "attempts", job.Tries)
}

func (s *Service) sendSMTP(job Job) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.smtp.FromName, s.smtp.From)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.smtp.User != "" && s.smtp.Pass != "" {
		auth = smtp.PlainAuth("", s.smtp.User, s.smtp.Pass, s.smtp.Host)
	}

	return smtp.SendMail(s.smtp.Host+":"+s.smtp.Port, auth, s.smtp.From, []string{job.To}, []byte(message))
}

// QueueLength reports the backlog and mirrors it into the queue gauge.
func (s *Service) QueueLength(ctx context.Context) int64 {
	length, err := s.redis.LLen(ctx, queueKey).Result()
	if err != nil {
		return 0
	}
	metrics.EmailQueueLength.Set(float64(length))
	return length
}
