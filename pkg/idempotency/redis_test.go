package idempotency

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveAndRelease(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewStore(db, time.Hour)
	ctx := context.Background()

	mock.ExpectSetNX("idem:user-1:abc", "1", time.Hour).SetVal(true)
	ok, err := store.Reserve(ctx, "user-1", "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectSetNX("idem:user-1:abc", "1", time.Hour).SetVal(false)
	ok, err = store.Reserve(ctx, "user-1", "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectDel("idem:user-1:abc").SetVal(1)
	require.NoError(t, store.Release(ctx, "user-1", "abc"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSurfacesRedisErrors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectSetNX("idem:u:k", "1", time.Minute).SetErr(errors.New("connection refused"))

	_, err := NewStore(db, time.Minute).Reserve(context.Background(), "u", "k")
	assert.ErrorContains(t, err, "connection refused")
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/orders", nil)
	assert.Empty(t, FromRequest(r))

	r.Header.Set(Header, "  key-1 ")
	assert.Equal(t, "key-1", FromRequest(r))
}
