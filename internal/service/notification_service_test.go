package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/reprint-api/internal/models"
	"github.com/noah-isme/reprint-api/internal/proofing"
)

func TestNotificationServiceRetainsRecentNotices(t *testing.T) {
	svc := NewNotificationService(nil)
	sub := proofing.Submission{
		ProjectID:     "p1",
		ProjectName:   "社團海報_v1.pdf",
		Student:       models.User{ID: "student-demo", Name: "陳同學", Role: models.RoleStudent},
		ReviewerEmail: "teacher@demo.edu",
	}
	for i := 0; i < outboxSize+5; i++ {
		require.NoError(t, svc.NotifyReviewer(context.Background(), sub))
	}
	sent := svc.Sent()
	require.Len(t, sent, outboxSize)
	assert.Equal(t, "teacher@demo.edu", sent[0].To)
	assert.Contains(t, sent[0].Subject, "社團海報_v1.pdf")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, svc.NotifyReviewer(ctx, sub))
}
