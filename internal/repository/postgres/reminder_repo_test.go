package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/domain"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/repository/postgres"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestReminderRepository_CRUD(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewReminderRepository(testDB.DB)
	ctx := context.Background()

	owner := testutil.NewUserBuilder().Build(t, testDB.DB)
	stranger := testutil.NewUserBuilder().Build(t, testDB.DB)

	december := domain.NewBirthdayReminder(owner.ID, "Ольга", time.Date(1991, time.December, 3, 0, 0, 0, 0, time.UTC))
	march := &domain.Reminder{
		UserID:           owner.ID,
		Title:            "Годовщина",
		Type:             domain.ReminderTypeAnniversary,
		Day:              8,
		Month:            3,
		RecurrencePeriod: domain.RecurrenceNone,
	}
	require.NoError(t, repo.Create(ctx, december))
	require.NoError(t, repo.Create(ctx, march))

	listed, err := repo.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, march.ID, listed[0].ID)
	assert.Equal(t, december.ID, listed[1].ID)

	count, err := repo.CountByUserAndType(ctx, owner.ID, domain.ReminderTypeBirthday)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	march.NotifyDaysBefore = 3
	require.NoError(t, repo.Update(ctx, march))
	got, err := repo.GetByID(ctx, owner.ID, march.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.NotifyDaysBefore)

	_, err = repo.GetByID(ctx, stranger.ID, march.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, stranger.ID, march.ID), gorm.ErrRecordNotFound)

	require.NoError(t, repo.Delete(ctx, owner.ID, march.ID))
	assert.ErrorIs(t, repo.Delete(ctx, owner.ID, march.ID), gorm.ErrRecordNotFound)
}
