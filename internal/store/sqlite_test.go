package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail-agent/internal/model"
	"github.com/nhle/mail-agent/internal/store"
	"github.com/nhle/mail-agent/tests/testutil"
)

func TestNotifications(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateNotification(ctx, model.Notification{
		ID: "n1", EmailUID: "10", Rule: "alerts", Priority: "high",
		Message: "Outage from ops@example.com", CreatedAt: base,
	}))
	require.NoError(t, s.CreateNotification(ctx, model.Notification{
		EmailUID: "11", Rule: "alerts", Priority: "normal",
		Message: "Lunch from bob@example.com", CreatedAt: base.Add(time.Minute),
	}))

	unread, err := s.GetUnreadNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	assert.Equal(t, "11", unread[0].EmailUID)
	assert.NotEmpty(t, unread[0].ID)
	assert.Equal(t, "n1", unread[1].ID)
	assert.Equal(t, "high", unread[1].Priority)
	assert.True(t, base.Equal(unread[1].CreatedAt))

	require.NoError(t, s.MarkNotificationRead(ctx, "n1"))

	unread, err = s.GetUnreadNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "11", unread[0].EmailUID)
}

func TestProcessedHistory(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordProcessed(ctx, model.ProcessedRecord{
		UID: "1", Subject: "Invoice Due", Sender: "billing@vendor.com",
		Category: model.CategoryBusiness, Priority: 2, Confidence: 0.8,
		MatchedRules: []string{"vendors", "finance"},
		Replied:      true, MarkedRead: true, ProcessedAt: at,
	}))
	require.NoError(t, s.RecordProcessed(ctx, model.ProcessedRecord{
		UID: "2", Subject: "Server down", Sender: "ops@example.com",
		Category: model.CategoryUrgent, Priority: 5, ProcessedAt: at.Add(time.Second),
	}))
	require.NoError(t, s.RecordProcessed(ctx, model.ProcessedRecord{
		UID: "3", Subject: "Weekly digest", ProcessedAt: at.Add(2 * time.Second),
	}))

	recent, err := s.RecentProcessed(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "3", recent[0].UID)
	assert.Equal(t, "2", recent[1].UID)
	assert.Equal(t, model.CategoryUrgent, recent[1].Category)
	assert.Empty(t, recent[1].MatchedRules)
	assert.False(t, recent[1].Replied)

	all, err := s.RecentProcessed(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	first := all[2]
	assert.Equal(t, "1", first.UID)
	assert.Equal(t, []string{"vendors", "finance"}, first.MatchedRules)
	assert.True(t, first.Replied)
	assert.True(t, first.MarkedRead)
	assert.InDelta(t, 0.8, first.Confidence, 1e-9)
	assert.True(t, at.Equal(first.ProcessedAt))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := t.TempDir() + "/agent.db"

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.RecordProcessed(context.Background(), model.ProcessedRecord{UID: "1"}))
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	recent, err := s.RecentProcessed(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
