package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-central/internal/models"
	"review-central/internal/service"
	"review-central/internal/testutil"
)

func TestAuditLogAndList(t *testing.T) {
	store := testutil.NewMemAudit()
	svc := service.NewAuditService(store)
	ctx := context.Background()

	for i := range 5 {
		svc.Log(ctx, &models.AuditLog{Action: "user.save", Resource: fmt.Sprintf("users/%d", i)})
	}

	page, err := svc.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	require.Len(t, page.Logs, 2)
	assert.Equal(t, "users/2", page.Logs[0].Resource)
	assert.Equal(t, "users/1", page.Logs[1].Resource)

	defaults, err := svc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, defaults.Page)
	assert.Equal(t, 50, defaults.Limit)
	assert.Len(t, defaults.Logs, 5)

	capped, err := svc.List(ctx, 1, 10000)
	require.NoError(t, err)
	assert.Equal(t, 200, capped.Limit)
}

func TestAuditLogFailureIsSwallowed(t *testing.T) {
	store := testutil.NewMemAudit()
	store.Err = errors.New("disk full")

	assert.NotPanics(t, func() {
		service.NewAuditService(store).Log(context.Background(), &models.AuditLog{Action: "user.delete"})
	})
	assert.Empty(t, store.Entries())
}
