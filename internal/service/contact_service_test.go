package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/domain"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/repository"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/repository/postgres"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/service"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/telegram"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/testutil"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func birthday(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestContactService_Sync(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	contactService := service.NewContactService(repos.Contact, repos.Reminder, testutil.NewFakeContactSource())
	ctx := context.Background()

	tests := []struct {
		name       string
		stored     func(user *domain.User) *domain.Contact
		snapshot   domain.ContactSnapshot
		wantSameID bool
		wantName   string
		wantPhones []string
		wantEmails []string
		wantStored int64
	}{
		{
			name: "matching phone updates in place",
			stored: func(user *domain.User) *domain.Contact {
				return testutil.NewContactBuilder().WithUser(user).WithName("Old Name").
					WithPhones("+79991112233").Build(t, testDB.DB)
			},
			snapshot: domain.ContactSnapshot{
				Names:  []string{"New Name"},
				Phones: []string{"+79991112233"},
			},
			wantSameID: true,
			wantName:   "New Name",
			wantPhones: []string{"+79991112233"},
			wantEmails: []string{},
			wantStored: 1,
		},
		{
			name: "matching email updates in place and replaces phones",
			stored: func(user *domain.User) *domain.Contact {
				return testutil.NewContactBuilder().WithUser(user).WithName("Anna").
					WithPhones("+70000000001").WithEmails("anna@example.com").Build(t, testDB.DB)
			},
			snapshot: domain.ContactSnapshot{
				Names:  []string{"Anna K"},
				Phones: []string{"+70000000002"},
				Emails: []string{"anna@example.com"},
			},
			wantSameID: true,
			wantName:   "Anna K",
			wantPhones: []string{"+70000000002"},
			wantEmails: []string{"anna@example.com"},
			wantStored: 1,
		},
		{
			name: "disjoint phone and email creates new",
			stored: func(user *domain.User) *domain.Contact {
				return testutil.NewContactBuilder().WithUser(user).
					WithPhones("+79991112233").WithEmails("a@example.com").Build(t, testDB.DB)
			},
			snapshot: domain.ContactSnapshot{
				Names:  []string{"Someone Else"},
				Phones: []string{"+79994445566"},
				Emails: []string{"b@example.com"},
			},
			wantSameID: false,
			wantName:   "Someone Else",
			wantPhones: []string{"+79994445566"},
			wantEmails: []string{"b@example.com"},
			wantStored: 2,
		},
		{
			name: "snapshot without keys always creates",
			stored: func(user *domain.User) *domain.Contact {
				return testutil.NewContactBuilder().WithUser(user).WithName("Nameless").Build(t, testDB.DB)
			},
			snapshot: domain.ContactSnapshot{
				Names: []string{"Nameless"},
			},
			wantSameID: false,
			wantName:   "Nameless",
			wantPhones: []string{},
			wantEmails: []string{},
			wantStored: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testDB.Truncate(t)

			user := testutil.NewUserBuilder().Build(t, testDB.DB)
			stored := tt.stored(user)

			result, err := contactService.Sync(ctx, user.ID, []domain.ContactSnapshot{tt.snapshot})
			require.NoError(t, err)
			require.Len(t, result, 1)

			if tt.wantSameID {
				assert.Equal(t, stored.ID, result[0].ID)
			} else {
				assert.NotEqual(t, stored.ID, result[0].ID)
			}
			testutil.AssertContactFields(t, result[0], tt.wantName, tt.wantPhones, tt.wantEmails)
			assert.Equal(t, domain.ContactSourcePhone, result[0].Source)
			assert.Equal(t, tt.wantStored, testutil.CountRows(t, testDB, &domain.Contact{}, user.ID))
		})
	}
}

func TestContactService_Sync_KeepsInputOrderAndScopesByUser(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	contactService := service.NewContactService(repos.Contact, repos.Reminder, testutil.NewFakeContactSource())
	ctx := context.Background()

	owner := testutil.NewUserBuilder().Build(t, testDB.DB)
	other := testutil.NewUserBuilder().Build(t, testDB.DB)
	foreign := testutil.NewContactBuilder().WithUser(other).WithPhones("+79991112233").Build(t, testDB.DB)

	result, err := contactService.Sync(ctx, owner.ID, []domain.ContactSnapshot{
		{Names: []string{"First"}, Phones: []string{"+79991112233"}, Addresses: []string{"Moscow", "Tver"}},
		{Names: []string{"Second"}, Emails: []string{"second@example.com"}},
	})
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, "First", result[0].Name)
	assert.Equal(t, "Moscow", result[0].Address)
	assert.Equal(t, "Second", result[1].Name)
	assert.NotEqual(t, foreign.ID, result[0].ID)
	assert.Equal(t, owner.ID, result[0].UserID)

	untouched, err := repos.Contact.GetByID(ctx, other.ID, foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, foreign.Name, untouched.Name)
}

type failingContactRepo struct {
	repository.ContactRepository
	createsLeft int
}

func (r *failingContactRepo) Create(ctx context.Context, contact *domain.Contact) error {
	if r.createsLeft == 0 {
		return errors.New("connection reset")
	}
	r.createsLeft--
	return r.ContactRepository.Create(ctx, contact)
}

func TestContactService_Sync_FailureKeepsEarlierWrites(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	failing := &failingContactRepo{ContactRepository: repos.Contact, createsLeft: 1}
	contactService := service.NewContactService(failing, repos.Reminder, testutil.NewFakeContactSource())
	ctx := context.Background()

	user := testutil.NewUserBuilder().Build(t, testDB.DB)

	result, err := contactService.Sync(ctx, user.ID, []domain.ContactSnapshot{
		{Names: []string{"Kept"}, Phones: []string{"+70000000001"}},
		{Names: []string{"Lost"}, Phones: []string{"+70000000002"}},
		{Names: []string{"Never"}, Phones: []string{"+70000000003"}},
	})
	assert.ErrorIs(t, err, service.ErrSyncFailed)
	assert.Nil(t, result)

	stored, err := repos.Contact.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Kept", stored[0].Name)
}

func TestContactService_NamelessSnapshotsRejected(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	contactService := service.NewContactService(repos.Contact, repos.Reminder, testutil.NewFakeContactSource())
	ctx := context.Background()

	tests := []struct {
		name     string
		nameless domain.ContactSnapshot
	}{
		{name: "no names", nameless: domain.ContactSnapshot{Phones: []string{"+79992223344"}}},
		{name: "empty first name", nameless: domain.ContactSnapshot{Names: []string{"", "Alias"}, Emails: []string{"a@example.com"}}},
		{name: "whitespace name", nameless: domain.ContactSnapshot{Names: []string{"  "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := testutil.NewUserBuilder().Build(t, testDB.DB)

			result, err := contactService.Sync(ctx, user.ID, []domain.ContactSnapshot{
				{Names: []string{"Kept"}, Phones: []string{"+70000000001"}},
				tt.nameless,
				{Names: []string{"Never"}, Phones: []string{"+70000000003"}},
			})
			assert.ErrorIs(t, err, service.ErrSyncFailed)
			assert.ErrorIs(t, err, service.ErrContactNameRequired)
			assert.Nil(t, result)

			stored, err := repos.Contact.ListByUser(ctx, user.ID)
			require.NoError(t, err)
			names := make([]string, 0, len(stored))
			for _, c := range stored {
				names = append(names, c.Name)
			}
			assert.Equal(t, []string{"Kept"}, names)

			imported, err := contactService.Import(ctx, user.ID, []domain.ContactSnapshot{
				{Names: []string{"Fine"}},
				tt.nameless,
			})
			assert.ErrorIs(t, err, service.ErrContactNameRequired)
			assert.Nil(t, imported)
			assert.Equal(t, int64(1), testutil.CountRows(t, testDB, &domain.Contact{}, user.ID))
		})
	}
}

func TestContactService_ImportFromPlatform(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	platform := testutil.NewFakeContactSource()
	contactService := service.NewContactService(repos.Contact, repos.Reminder, platform)
	ctx := context.Background()

	user := testutil.NewUserBuilder().Build(t, testDB.DB)

	platform.SetContacts(user.TelegramID,
		tgbotapi.Contact{UserID: 1001, FirstName: "Boris", PhoneNumber: "+79990000001"},
		tgbotapi.Contact{FirstName: "No Account", PhoneNumber: "+79990000009"},
	)
	first, err := contactService.ImportFromPlatform(ctx, user.ID, user.TelegramID)
	require.NoError(t, err)
	require.Len(t, first, 1)

	platform.SetContacts(user.TelegramID,
		tgbotapi.Contact{UserID: 1001, FirstName: "Boris", LastName: "Ivanov", PhoneNumber: "+79990000002"},
	)
	second, err := contactService.ImportFromPlatform(ctx, user.ID, user.TelegramID)
	require.NoError(t, err)
	require.Len(t, second, 1)

	assert.Equal(t, first[0].ID, second[0].ID)
	stored, err := repos.Contact.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	testutil.AssertContactFields(t, stored[0], "Boris Ivanov", []string{"+79990000002"}, []string{})
	assert.Equal(t, domain.ContactSourceTelegram, stored[0].Source)
	require.NotNil(t, stored[0].TelegramID)
	assert.Equal(t, int64(1001), *stored[0].TelegramID)
}

func TestContactService_ImportFromPlatform_BlankNames(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	platform := testutil.NewFakeContactSource()
	contactService := service.NewContactService(repos.Contact, repos.Reminder, platform)
	ctx := context.Background()

	user := testutil.NewUserBuilder().Build(t, testDB.DB)
	platform.SetContacts(user.TelegramID,
		tgbotapi.Contact{UserID: 2001, FirstName: " ", PhoneNumber: "+79990002001"},
		tgbotapi.Contact{UserID: 2002},
	)

	imported, err := contactService.ImportFromPlatform(ctx, user.ID, user.TelegramID)
	require.NoError(t, err)
	require.Len(t, imported, 1)
	assert.Equal(t, "+79990002001", imported[0].Name)
	assert.Equal(t, int64(1), testutil.CountRows(t, testDB, &domain.Contact{}, user.ID))
}

func TestContactService_ImportFromPlatform_Unavailable(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	platform := testutil.NewFakeContactSource()
	platform.SetError(fmt.Errorf("%w: breaker open", telegram.ErrPlatformUnavailable))
	contactService := service.NewContactService(repos.Contact, repos.Reminder, platform)

	user := testutil.NewUserBuilder().Build(t, testDB.DB)
	_, err := contactService.ImportFromPlatform(context.Background(), user.ID, user.TelegramID)
	assert.ErrorIs(t, err, service.ErrPlatformUnavailable)
}

func TestContactService_ImportBirthdays_DuplicatesOnRepeat(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	contactService := service.NewContactService(repos.Contact, repos.Reminder, testutil.NewFakeContactSource())
	ctx := context.Background()

	user := testutil.NewUserBuilder().Build(t, testDB.DB)
	batch := []domain.ContactSnapshot{
		{Names: []string{"Masha"}, Birthday: birthday(1990, time.May, 12)},
		{Names: []string{"No Birthday"}},
	}

	first, err := contactService.ImportBirthdays(ctx, user.ID, batch)
	require.NoError(t, err)
	require.Len(t, first, 1)

	reminder := first[0]
	assert.Equal(t, "День рождения: Masha", reminder.Title)
	assert.Equal(t, domain.ReminderTypeBirthday, reminder.Type)
	assert.Equal(t, 12, reminder.Day)
	assert.Equal(t, 5, reminder.Month)
	require.NotNil(t, reminder.Year)
	assert.Equal(t, 1990, *reminder.Year)
	assert.Equal(t, 1, reminder.NotifyDaysBefore)
	assert.True(t, reminder.IsRecurring)
	assert.Equal(t, domain.RecurrenceYearly, reminder.RecurrencePeriod)

	_, err = contactService.ImportBirthdays(ctx, user.ID, batch)
	require.NoError(t, err)

	count, err := repos.Reminder.CountByUserAndType(ctx, user.ID, domain.ReminderTypeBirthday)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestContactService_Import(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	contactService := service.NewContactService(repos.Contact, repos.Reminder, testutil.NewFakeContactSource())
	ctx := context.Background()

	user := testutil.NewUserBuilder().Build(t, testDB.DB)
	batch := []domain.ContactSnapshot{
		{Names: []string{"Same"}, Phones: []string{"+79991112233"}},
		{Names: []string{"Same"}, Phones: []string{"+79991112233"}},
	}

	imported, err := contactService.Import(ctx, user.ID, batch)
	require.NoError(t, err)
	require.Len(t, imported, 2)
	assert.NotEqual(t, imported[0].ID, imported[1].ID)
	assert.Equal(t, int64(2), testutil.CountRows(t, testDB, &domain.Contact{}, user.ID))
}

func TestContactService_Search(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	contactService := service.NewContactService(repos.Contact, repos.Reminder, testutil.NewFakeContactSource())
	ctx := context.Background()

	user := testutil.NewUserBuilder().Build(t, testDB.DB)
	for i := 0; i < 15; i++ {
		testutil.NewContactBuilder().WithUser(user).
			WithName(fmt.Sprintf("Petrov %02d", i)).
			WithPhones(fmt.Sprintf("+7999000%04d", i)).
			Build(t, testDB.DB)
	}
	testutil.NewContactBuilder().WithUser(user).WithName("Olga").
		WithEmails("olga.SMIRNOVA@example.com").Build(t, testDB.DB)
	testutil.NewContactBuilder().WithUser(user).WithName("100% Legit").Build(t, testDB.DB)

	tests := []struct {
		name      string
		query     string
		wantCount int
		wantFirst string
	}{
		{name: "caps at ten", query: "petrov", wantCount: 10, wantFirst: "Petrov 00"},
		{name: "matches phone substring", query: "0007", wantCount: 1, wantFirst: "Petrov 07"},
		{name: "matches email case-insensitively", query: "smirnova", wantCount: 1, wantFirst: "Olga"},
		{name: "wildcards are literal", query: "0%", wantCount: 1, wantFirst: "100% Legit"},
		{name: "blank query", query: "   ", wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := contactService.Search(ctx, user.ID, tt.query)
			require.NoError(t, err)
			require.Len(t, found, tt.wantCount)
			if tt.wantCount > 0 {
				assert.Equal(t, tt.wantFirst, found[0].Name)
			}
		})
	}
}

func TestContactService_CreateUpdateGet(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	contactService := service.NewContactService(repos.Contact, repos.Reminder, testutil.NewFakeContactSource())
	ctx := context.Background()

	user := testutil.NewUserBuilder().Build(t, testDB.DB)
	other := testutil.NewUserBuilder().Build(t, testDB.DB)

	_, err := contactService.Create(ctx, user.ID, service.ContactInput{Name: "  "})
	assert.ErrorIs(t, err, service.ErrContactNameRequired)

	bday := domain.NewDate(1985, time.February, 3)
	created, err := contactService.Create(ctx, user.ID, service.ContactInput{
		Name:     "Dmitry",
		Birthday: &bday,
		Phones:   []string{"+79995550000"},
	})
	require.NoError(t, err)
	require.NotNil(t, created.Birthday)

	updated, err := contactService.Update(ctx, user.ID, created.ID, service.ContactInput{
		Name:    "Dmitry S",
		Emails:  []string{"d@example.com"},
		Address: "Kazan",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Nil(t, updated.Birthday)

	got, err := contactService.Get(ctx, user.ID, created.ID)
	require.NoError(t, err)
	testutil.AssertContactFields(t, got, "Dmitry S", []string{}, []string{"d@example.com"})
	assert.Equal(t, "Kazan", got.Address)

	_, err = contactService.Get(ctx, other.ID, created.ID)
	assert.ErrorIs(t, err, service.ErrContactNotFound)
}
