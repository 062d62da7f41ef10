package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/domain"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/repository/postgres"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestContactRepository_FindByPhonesOrEmails(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewContactRepository(testDB.DB)
	ctx := context.Background()

	owner := testutil.NewUserBuilder().Build(t, testDB.DB)
	other := testutil.NewUserBuilder().Build(t, testDB.DB)

	stored := testutil.NewContactBuilder().
		WithUser(owner).
		WithPhones("+79991112233", "+79990000000").
		WithEmails("ivan@example.com").
		Build(t, testDB.DB)
	testutil.NewContactBuilder().
		WithUser(other).
		WithPhones("+75550000000").
		Build(t, testDB.DB)

	tests := []struct {
		name    string
		phones  []string
		emails  []string
		wantErr error
	}{
		{name: "shared phone", phones: []string{"+70000000000", "+79991112233"}},
		{name: "shared email", emails: []string{"ivan@example.com"}},
		{name: "phone or email", phones: []string{"+71111111111"}, emails: []string{"ivan@example.com"}},
		{name: "disjoint", phones: []string{"+71111111111"}, emails: []string{"nobody@example.com"}, wantErr: gorm.ErrRecordNotFound},
		{name: "other user's phone", phones: []string{"+75550000000"}, wantErr: gorm.ErrRecordNotFound},
		{name: "no keys", wantErr: gorm.ErrRecordNotFound},
		{name: "email match is exact", emails: []string{"IVAN@example.com"}, wantErr: gorm.ErrRecordNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindByPhonesOrEmails(ctx, owner.ID, tt.phones, tt.emails)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, stored.ID, got.ID)
		})
	}
}

func TestContactRepository_UpsertByTelegramID(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewContactRepository(testDB.DB)
	ctx := context.Background()

	owner := testutil.NewUserBuilder().Build(t, testDB.DB)
	telegramID := int64(5550001)

	first := &domain.Contact{
		UserID:     owner.ID,
		TelegramID: &telegramID,
		Name:       "Пётр",
		Phones:     datatypes.JSONSlice[string]{"+79991112233"},
		Emails:     datatypes.JSONSlice[string]{},
		Source:     domain.ContactSourceTelegram,
	}
	require.NoError(t, repo.UpsertByTelegramID(ctx, first))

	second := &domain.Contact{
		UserID:     owner.ID,
		TelegramID: &telegramID,
		Name:       "Пётр Иванов",
		Phones:     datatypes.JSONSlice[string]{"+79994445566"},
		Emails:     datatypes.JSONSlice[string]{},
		Source:     domain.ContactSourceTelegram,
	}
	require.NoError(t, repo.UpsertByTelegramID(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Пётр Иванов", second.Name)
	assert.Equal(t, []string{"+79994445566"}, []string(second.Phones))
	assert.Equal(t, int64(1), testutil.CountRows(t, testDB, &domain.Contact{}, owner.ID))

	// The same telegram id under another owner is a different contact.
	stranger := testutil.NewUserBuilder().Build(t, testDB.DB)
	third := &domain.Contact{
		UserID:     stranger.ID,
		TelegramID: &telegramID,
		Name:       "Пётр",
		Phones:     datatypes.JSONSlice[string]{},
		Emails:     datatypes.JSONSlice[string]{},
		Source:     domain.ContactSourceTelegram,
	}
	require.NoError(t, repo.UpsertByTelegramID(ctx, third))
	assert.NotEqual(t, first.ID, third.ID)
}

func TestContactRepository_Search(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewContactRepository(testDB.DB)
	ctx := context.Background()

	owner := testutil.NewUserBuilder().Build(t, testDB.DB)
	testutil.NewContactBuilder().WithUser(owner).WithName("Мария Сидорова").WithPhones("+79161234567").Build(t, testDB.DB)
	testutil.NewContactBuilder().WithUser(owner).WithName("Иван").WithEmails("Ivan.Work@Example.com").Build(t, testDB.DB)
	testutil.NewContactBuilder().WithUser(owner).WithName("100% скидка").Build(t, testDB.DB)
	testutil.NewContactBuilder().WithUser(owner).WithName("snake_case").Build(t, testDB.DB)
	testutil.NewContactBuilder().WithName("Мария Чужая").Build(t, testDB.DB)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "name case-insensitive", query: "мария", want: []string{"Мария Сидорова"}},
		{name: "phone substring", query: "1234", want: []string{"Мария Сидорова"}},
		{name: "email case-insensitive", query: "ivan.work@", want: []string{"Иван"}},
		{name: "percent is literal", query: "%", want: []string{"100% скидка"}},
		{name: "underscore is literal", query: "_", want: []string{"snake_case"}},
		{name: "no match", query: "zzz", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Search(ctx, owner.ID, tt.query, 10)
			require.NoError(t, err)

			names := make([]string, 0, len(got))
			for _, c := range got {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestContactRepository_SearchLimit(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewContactRepository(testDB.DB)
	ctx := context.Background()

	owner := testutil.NewUserBuilder().Build(t, testDB.DB)
	for i := 0; i < 15; i++ {
		testutil.NewContactBuilder().WithUser(owner).WithName(fmt.Sprintf("Коллега %02d", i)).Build(t, testDB.DB)
	}

	got, err := repo.Search(ctx, owner.ID, "коллега", 10)
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestContactRepository_CreateManyAndList(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewContactRepository(testDB.DB)
	ctx := context.Background()

	owner := testutil.NewUserBuilder().Build(t, testDB.DB)
	birthday := time.Date(1988, time.February, 29, 0, 0, 0, 0, time.UTC)

	contacts := []*domain.Contact{
		{UserID: owner.ID, Name: "Борис", Phones: datatypes.JSONSlice[string]{}, Emails: datatypes.JSONSlice[string]{}, Source: domain.ContactSourcePhone},
		{UserID: owner.ID, Name: "Алла", Birthday: &birthday, Phones: datatypes.JSONSlice[string]{}, Emails: datatypes.JSONSlice[string]{}, Source: domain.ContactSourcePhone},
	}
	require.NoError(t, repo.CreateMany(ctx, contacts))
	require.NoError(t, repo.CreateMany(ctx, nil))

	listed, err := repo.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "Алла", listed[0].Name)
	require.NotNil(t, listed[0].Birthday)
	assert.Equal(t, time.February, listed[0].Birthday.Month())
	assert.Equal(t, 29, listed[0].Birthday.Day())

	got, err := repo.GetByID(ctx, owner.ID, contacts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Борис", got.Name)

	stranger := testutil.NewUserBuilder().Build(t, testDB.DB)
	_, err = repo.GetByID(ctx, stranger.ID, contacts[0].ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
