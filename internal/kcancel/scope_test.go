package kcancel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeCancel(t *testing.T) {
	s := New(context.Background())
	assert.NoError(t, s.Err())

	s.Cancel()
	assert.ErrorIs(t, s.Err(), context.Canceled)
}

func TestScopeTimeout(t *testing.T) {
	s := NewWithTimeout(context.Background(), 10*time.Millisecond)
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("scope did not expire in time")
	}
	assert.ErrorIs(t, s.Err(), context.DeadlineExceeded)
}

func TestIDFromContextRoundTrip(t *testing.T) {
	s := New(context.Background())
	id, ok := IDFromContext(s.Context)
	require.True(t, ok)
	assert.Equal(t, s.ID, id)

	_, ok = IDFromContext(context.Background())
	assert.False(t, ok)
}
