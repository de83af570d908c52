package link

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapcal/registrar/internal/domain/repository"
)

func seedAccounts(t *testing.T, f *fixture, externalID string, emails ...string) {
	t.Helper()
	for _, email := range emails {
		_, err := f.identities.Merge(context.Background(), repository.MergeInput{
			ExternalID:    externalID,
			ProviderEmail: email,
		})
		require.NoError(t, err)
	}
}

func TestStatus_Unregistered(t *testing.T) {
	f := newFixture()
	svc := NewDirectoryService(f.identities)

	resp, err := svc.Status(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, resp.Registered)
	assert.Zero(t, resp.AccountCount)
}

func TestStatus_Registered(t *testing.T) {
	f := newFixture()
	svc := NewDirectoryService(f.identities)
	seedAccounts(t, f, "discord-1", "ana@gmail.com", "work@gmail.com")

	resp, err := svc.Status(context.Background(), "discord-1")
	require.NoError(t, err)
	assert.True(t, resp.Registered)
	assert.Equal(t, 2, resp.AccountCount)
	assert.Equal(t, "ana@gmail.com", resp.ActiveEmail)
}

func TestList_UnregisteredYieldsEmptyList(t *testing.T) {
	f := newFixture()
	svc := NewDirectoryService(f.identities)

	resp, err := svc.List(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, resp.Accounts)
	assert.Empty(t, resp.ActiveAccountID)
}

func TestList_PositionsAreOneBasedAndOrdered(t *testing.T) {
	f := newFixture()
	svc := NewDirectoryService(f.identities)
	seedAccounts(t, f, "discord-1", "a@x.com", "b@x.com", "c@x.com")

	resp, err := svc.List(context.Background(), "discord-1")
	require.NoError(t, err)
	require.Len(t, resp.Accounts, 3)
	assert.Equal(t, resp.Accounts[0].AccountID, resp.ActiveAccountID)

	for i, acct := range resp.Accounts {
		assert.Equal(t, i+1, acct.Position)
	}
	assert.Equal(t, "a@x.com", resp.Accounts[0].ProviderEmail)
	assert.True(t, resp.Accounts[0].IsActive)
	assert.False(t, resp.Accounts[1].IsActive)
	assert.False(t, resp.Accounts[2].IsActive)
}

func TestSwitchActive_Success(t *testing.T) {
	f := newFixture()
	svc := NewDirectoryService(f.identities)
	seedAccounts(t, f, "discord-1", "a@x.com", "b@x.com")

	switched, err := svc.SwitchActive(context.Background(), "discord-1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, switched.Position)
	assert.Equal(t, "b@x.com", switched.ProviderEmail)
	assert.True(t, switched.IsActive)

	resp, err := svc.List(context.Background(), "discord-1")
	require.NoError(t, err)
	assert.False(t, resp.Accounts[0].IsActive)
	assert.True(t, resp.Accounts[1].IsActive)
}

func TestSwitchActive_OutOfRange(t *testing.T) {
	f := newFixture()
	svc := NewDirectoryService(f.identities)
	seedAccounts(t, f, "discord-1", "a@x.com", "b@x.com")

	for _, pos := range []int{0, -1, 3, 99} {
		_, err := svc.SwitchActive(context.Background(), "discord-1", pos)
		var rangeErr *OutOfRangeError
		require.True(t, errors.As(err, &rangeErr), "position %d: want OutOfRangeError, got %v", pos, err)
		// The message states the range valid at call time.
		assert.Contains(t, rangeErr.Error(), "1..2")
	}
}

func TestSwitchActive_NoAccounts(t *testing.T) {
	f := newFixture()
	svc := NewDirectoryService(f.identities)

	_, err := svc.SwitchActive(context.Background(), "nobody", 1)
	require.ErrorIs(t, err, ErrNoAccounts)
}
