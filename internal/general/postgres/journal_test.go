package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_MarkHandled(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	j := NewJournal(mock, "rider-1")

	mock.ExpectExec("INSERT INTO handled_envelopes").
		WithArgs("rider-1", "m1", "ride-accepted").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO handled_envelopes").
		WithArgs("rider-1", "m1", "ride-accepted").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	fresh, err := j.MarkHandled(context.Background(), "m1", "ride-accepted")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = j.MarkHandled(context.Background(), "m1", "ride-accepted")
	require.NoError(t, err)
	assert.False(t, fresh)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournal_MarkHandledError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO handled_envelopes").
		WithArgs("rider-1", "m2", "chat-message").
		WillReturnError(errors.New("connection reset"))

	_, err = NewJournal(mock, "rider-1").MarkHandled(context.Background(), "m2", "chat-message")
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournal_SchemaAndPrune(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	j := NewJournal(mock, "driver-1")

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS handled_envelopes").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("DELETE FROM handled_envelopes").
		WithArgs("driver-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	require.NoError(t, j.EnsureSchema(context.Background()))
	n, err := j.Prune(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}
