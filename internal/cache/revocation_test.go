package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-login-boilerplate/mocks"
)

func TestRevocation_RecordExistsRevoke(t *testing.T) {
	t.Parallel()

	m, _ := newMemoryWithClock()
	r := NewRevocation(m)
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, "acc", "ref", time.Minute, time.Hour))

	ok, err := r.Exists(ctx, "acc")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = r.Exists(ctx, "ref")
	require.NoError(t, err)
	require.True(t, ok)

	// Пара хранится в обоих направлениях.
	v, _, _ := m.Get(ctx, "acc")
	require.Equal(t, "ref", v)
	v, _, _ = m.Get(ctx, "ref")
	require.Equal(t, "acc", v)

	require.NoError(t, r.Revoke(ctx, "acc"))

	ok, _ = r.Exists(ctx, "acc")
	require.False(t, ok)
	ok, _ = r.Exists(ctx, "ref")
	require.False(t, ok)
	require.Equal(t, 0, m.Len())
}

func TestRevocation_EntriesUseOwnTTL(t *testing.T) {
	t.Parallel()

	m, clk := newMemoryWithClock()
	r := NewRevocation(m)
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, "acc", "ref", time.Minute, time.Hour))

	clk.Advance(2 * time.Minute)

	ok, _ := r.Exists(ctx, "acc")
	require.False(t, ok, "access истёк по своему TTL")
	ok, _ = r.Exists(ctx, "ref")
	require.True(t, ok, "refresh живёт дольше access")
}

func TestRevocation_RevokeIsIdempotent(t *testing.T) {
	t.Parallel()

	m, _ := newMemoryWithClock()
	r := NewRevocation(m)
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, "acc", "ref", time.Minute, time.Hour))
	require.NoError(t, r.Revoke(ctx, "acc"))
	require.NoError(t, r.Revoke(ctx, "acc"))
	require.NoError(t, r.Revoke(ctx, "never-issued"))
	require.NoError(t, r.Revoke(ctx, ""))
}

func TestRevocation_RevokeLeavesOtherPairs(t *testing.T) {
	t.Parallel()

	m, _ := newMemoryWithClock()
	r := NewRevocation(m)
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, "acc1", "ref1", time.Minute, time.Hour))
	require.NoError(t, r.Record(ctx, "acc2", "ref2", time.Minute, time.Hour))

	require.NoError(t, r.Revoke(ctx, "acc1"))

	ok, _ := r.Exists(ctx, "acc2")
	require.True(t, ok)
	ok, _ = r.Exists(ctx, "ref2")
	require.True(t, ok)
}

func TestRevocation_PlainKV_FallsBackToTwoSets(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	kv := mocks.NewMockKV(ctrl)
	r := NewRevocation(kv)
	ctx := context.Background()

	gomock.InOrder(
		kv.EXPECT().Set(gomock.Any(), "acc", "ref", time.Minute).Return(nil),
		kv.EXPECT().Set(gomock.Any(), "ref", "acc", time.Hour).Return(nil),
	)

	require.NoError(t, r.Record(ctx, "acc", "ref", time.Minute, time.Hour))
}

func TestRevocation_KVErrorsPropagate(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	kv := mocks.NewMockKV(ctrl)
	r := NewRevocation(kv)
	ctx := context.Background()
	boom := errors.New("connection refused")

	kv.EXPECT().Get(gomock.Any(), "acc").Return("", false, boom)
	_, err := r.Exists(ctx, "acc")
	require.ErrorIs(t, err, boom)

	kv.EXPECT().Get(gomock.Any(), "acc").Return("ref", true, nil)
	kv.EXPECT().Del(gomock.Any(), "acc", "ref").Return(boom)
	require.ErrorIs(t, r.Revoke(ctx, "acc"), boom)

	kv.EXPECT().Set(gomock.Any(), "acc", "ref", time.Minute).Return(boom)
	require.ErrorIs(t, r.Record(ctx, "acc", "ref", time.Minute, time.Hour), boom)
}

func TestRevocation_RevokeWithoutPair_DeletesOnlyAccess(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	kv := mocks.NewMockKV(ctrl)
	r := NewRevocation(kv)

	kv.EXPECT().Get(gomock.Any(), "acc").Return("", false, nil)
	kv.EXPECT().Del(gomock.Any(), "acc").Return(nil)

	require.NoError(t, r.Revoke(context.Background(), "acc"))
}
