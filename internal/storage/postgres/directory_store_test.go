package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/sotaychohdv/hdv-functions/internal/directory"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	store, err := NewWithPool(mock, "", "")
	require.NoError(t, err)
	return store, mock
}

func TestGetProvider(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	rows := pgxmock.NewRows([]string{"id", "name", "description", "notes", "address", "province", "main_image_url", "is_approved"}).
		AddRow("p1", "Xe du lịch Huế", "", "", "12 Lê Lợi", "Thừa Thiên Huế", "", true)
	mock.ExpectQuery(`(?s)SELECT id, .*FROM providers`).WithArgs("p1").WillReturnRows(rows)

	got, err := store.GetProvider(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, directory.Provider{
		ID: "p1", Name: "Xe du lịch Huế", Address: "12 Lê Lợi", Province: "Thừa Thiên Huế", IsApproved: true,
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProviderNotFound(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("FROM providers").WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	_, err := store.GetProvider(context.Background(), "missing")
	require.ErrorIs(t, err, directory.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProviderQueryError(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("FROM providers").WithArgs("p1").WillReturnError(errors.New("conn reset"))

	_, err := store.GetProvider(context.Background(), "p1")
	require.Error(t, err)
	require.False(t, errors.Is(err, directory.ErrNotFound))
}

func TestListGuideProfiles(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	expiry := time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"uid", "full_name", "email", "card_number", "expiry_date", "last_expiry_notification_at"}).
		AddRow("u1", "Nguyễn A", "a@example.com", "146123", &expiry, (*time.Time)(nil)).
		AddRow("u2", "", "", "", (*time.Time)(nil), (*time.Time)(nil))
	mock.ExpectQuery(`(?s)SELECT uid, .*FROM guide_profiles\s+ORDER BY uid`).WillReturnRows(rows)

	got, err := store.ListGuideProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "u1", got[0].UID)
	require.NotNil(t, got[0].ExpiryDate)
	require.True(t, got[0].ExpiryDate.Equal(expiry))
	require.Nil(t, got[0].LastExpiryNotificationAt)
	require.Nil(t, got[1].ExpiryDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkNotified(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	at := time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE guide_profiles SET last_expiry_notification_at").
		WithArgs("u1", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE guide_profiles").
		WithArgs("ghost", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, store.MarkNotified(context.Background(), "u1", at))
	require.ErrorIs(t, store.MarkNotified(context.Background(), "ghost", at), directory.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWithPoolValidatesTables(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(mock, "providers; DROP TABLE x", "")
	require.Error(t, err)
	_, err = NewWithPool(nil, "", "")
	require.Error(t, err)
}

func TestNewRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}
