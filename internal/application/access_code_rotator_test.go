package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessCodeRotator_RunGeneratesAndStops(t *testing.T) {
	t.Parallel()

	rules, _ := fixedRules(2025, time.December, 1, 7, 0)
	repo := &accessCodeRepositoryStub{}
	rotator := NewAccessCodeRotator(NewAccessCodeService(repo, rules, nil), time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rotator.Run(ctx) }()

	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return repo.saves == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("rotator did not stop after cancellation")
	}
}

func TestNewAccessCodeRotatorDefaultsInterval(t *testing.T) {
	t.Parallel()

	rotator := NewAccessCodeRotator(nil, 0, nil)
	assert.Equal(t, time.Minute, rotator.interval)
}
