package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestReserve(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAccountNumberRepository()

	mock.ExpectExec("INSERT INTO account_numbers").
		WithArgs("5555110000001", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.Reserve(context.Background(), db, "5555110000001")
	require.NoError(t, err)
	require.True(t, ok)

	mock.ExpectExec("INSERT INTO account_numbers").
		WithArgs("5555110000001", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.Reserve(context.Background(), db, "5555110000001")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}
