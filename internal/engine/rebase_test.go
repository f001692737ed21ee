package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unwindlabs/tranchegate/internal/model"
	"github.com/unwindlabs/tranchegate/internal/oracle"
	"github.com/unwindlabs/tranchegate/internal/pkg/apperrors"
	"github.com/unwindlabs/tranchegate/internal/repository"
)

type captureSink struct {
	signals []model.RebaseSignal
	err     error
}

func (s *captureSink) Publish(ctx context.Context, sig model.RebaseSignal) error {
	if s.err != nil {
		return s.err
	}
	s.signals = append(s.signals, sig)
	return nil
}

func TestRebaseHolderBoundary(t *testing.T) {
	feed := oracle.NewStaticFeed(oracle.Price{Mantissa: 125, Expo: -2})

	cases := []struct {
		holders uint64
		want    uint64
	}{
		{1_001, 50},
		{1_000, 500},
		{0, 500},
		{50_000, 50},
	}
	for _, tc := range cases {
		r := NewRebaser(feed, repository.StaticHolderCounter(tc.holders), &fakeClock{now: 1})
		sig, err := r.Trigger(context.Background())
		require.NoError(t, err)
		assert.Equal(t, tc.want, sig.ShrinkBP, "holders=%d", tc.holders)
		assert.Equal(t, tc.holders, sig.Holders)
		assert.Equal(t, "1.25", sig.Price)
	}
}

func TestRebaseBadOracle(t *testing.T) {
	feed := oracle.NewStaticFeed(oracle.Price{Mantissa: 1, Expo: 0})
	feed.Fail(apperrors.Newf(apperrors.ErrBadOracle, "feed down"))

	r := NewRebaser(feed, repository.StaticHolderCounter(10), &fakeClock{now: 1})
	_, err := r.Trigger(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.ErrBadOracle), "got %v", err)
}

func TestRebaseWrapsUntypedFeedErrors(t *testing.T) {
	feed := oracle.NewStaticFeed(oracle.Price{Mantissa: 1, Expo: 0})
	feed.Fail(errors.New("connection reset"))

	r := NewRebaser(feed, repository.StaticHolderCounter(10), &fakeClock{now: 1})
	_, err := r.Trigger(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.ErrBadOracle), "got %v", err)
}

func TestRebaseFansOutToSinks(t *testing.T) {
	feed := oracle.NewStaticFeed(oracle.Price{Mantissa: 42, Expo: 0})
	good := &captureSink{}
	bad := &captureSink{err: errors.New("subscriber gone")}

	r := NewRebaser(feed, repository.StaticHolderCounter(2_000), &fakeClock{now: 99}, bad, good)
	sig, err := r.Trigger(context.Background())
	require.NoError(t, err, "a failing sink must not fail the trigger")

	require.Len(t, good.signals, 1)
	assert.Equal(t, sig, good.signals[0])
	assert.Equal(t, uint64(50), sig.ShrinkBP)
	assert.Equal(t, int64(99), sig.At)
}

func TestRebaseIsRepeatable(t *testing.T) {
	feed := oracle.NewStaticFeed(oracle.Price{Mantissa: 1, Expo: 0})
	sink := &captureSink{}
	r := NewRebaser(feed, repository.StaticHolderCounter(10), &fakeClock{now: 1}, sink)

	for i := 0; i < 5; i++ {
		_, err := r.Trigger(context.Background())
		require.NoError(t, err)
	}
	assert.Len(t, sink.signals, 5)
}
