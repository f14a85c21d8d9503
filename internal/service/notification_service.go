package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/reprint-api/internal/proofing"
)

const outboxSize = 50

// ReviewNotice is a review request addressed to a teacher.
type ReviewNotice struct {
	To          string    `json:"to"`
	Subject     string    `json:"subject"`
	ProjectID   string    `json:"project_id"`
	StudentName string    `json:"student_name"`
	SentAt      time.Time `json:"sent_at"`
}

// NotificationService stands in for an email gateway: notices are logged and
// the most recent ones kept in memory.
type NotificationService struct {
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	outbox []ReviewNotice
}

// NewNotificationService constructs the notifier.
func NewNotificationService(logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{logger: logger, now: time.Now}
}

// NotifyReviewer records a review request for the reviewer.
func (s *NotificationService) NotifyReviewer(ctx context.Context, sub proofing.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	notice := ReviewNotice{
		To:          sub.ReviewerEmail,
		Subject:     "[Re:Print] " + sub.Student.Name + " 送出審核：" + sub.ProjectName,
		ProjectID:   sub.ProjectID,
		StudentName: sub.Student.Name,
		SentAt:      s.now().UTC(),
	}

	s.mu.Lock()
	s.outbox = append(s.outbox, notice)
	if len(s.outbox) > outboxSize {
		s.outbox = s.outbox[len(s.outbox)-outboxSize:]
	}
	s.mu.Unlock()

	s.logger.Info("review notification sent",
		zap.String("to", notice.To),
		zap.String("project_id", notice.ProjectID),
		zap.String("student", notice.StudentName),
	)
	return nil
}

// Sent returns the retained notices, oldest first.
func (s *NotificationService) Sent() []ReviewNotice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ReviewNotice(nil), s.outbox...)
}
