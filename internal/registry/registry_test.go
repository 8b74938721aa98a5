package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
)

type RegistryUnitSuite struct {
	suite.Suite
}

func validRoomCode() string {
	return "4821093"
}

func guest(userID int64, connID string) Participant {
	return Participant{
		UserID:   userID,
		Username: fmt.Sprintf("guest-%d", userID),
		ConnID:   connID,
	}
}

func host(userID int64, connID string) Participant {
	p := guest(userID, connID)
	p.IsHost = true
	return p
}

func (suite *RegistryUnitSuite) TestJoinAnnouncesFirstTransitionOnly(t provider.T) {
	t.Parallel()

	r := New(nil)
	code := validRoomCode()

	res := r.Join(code, host(1, "conn-h"))
	assert.True(t, res.First)
	assert.Equal(t, 1, res.PlayerCount)
	assert.False(t, res.Started)

	res = r.Join(code, guest(2, "conn-a"))
	assert.True(t, res.First)
	assert.Equal(t, 2, res.PlayerCount)

	// Tab refresh: same user, fresh connection. Present->present is silent.
	res = r.Join(code, guest(2, "conn-b"))
	assert.False(t, res.First)
	assert.Equal(t, 2, res.PlayerCount)
}

func (suite *RegistryUnitSuite) TestStaleDisconnectDoesNotEvictNewerConnection(t provider.T) {
	t.Parallel()

	r := New(nil)
	code := validRoomCode()
	r.Join(code, host(1, "conn-h"))
	r.Join(code, guest(2, "conn-old"))
	r.Join(code, guest(2, "conn-new"))

	// The old connection finally times out. Its departure must not be
	// attributed to the newer presence.
	_, ok := r.Leave("conn-old")
	assert.False(t, ok)

	count, _, found := r.Presence(code)
	assert.True(t, found)
	assert.Equal(t, 2, count)

	dep, ok := r.Leave("conn-new")
	assert.True(t, ok)
	assert.Equal(t, int64(2), dep.Participant.UserID)
	assert.False(t, dep.RoomEmptied)
}

func (suite *RegistryUnitSuite) TestEmptyRoomDropsRegistryEntry(t provider.T) {
	t.Parallel()

	r := New(nil)
	code := validRoomCode()
	r.Join(code, host(1, "conn-h"))
	r.Join(code, guest(2, "conn-a"))

	dep, ok := r.Leave("conn-a")
	assert.True(t, ok)
	assert.False(t, dep.RoomEmptied)

	dep, ok = r.Leave("conn-h")
	assert.True(t, ok)
	assert.True(t, dep.RoomEmptied)

	_, _, found := r.Presence(code)
	assert.False(t, found, "emptied room must read as not-found, not as a zero-size room")
}

func (suite *RegistryUnitSuite) TestMarkStartedIdempotent(t provider.T) {
	t.Parallel()

	r := New(nil)
	code := validRoomCode()
	r.Join(code, host(1, "conn-h"))

	for i := 0; i < 3; i++ {
		assert.NoError(t, r.MarkStarted(code))
	}

	res := r.Join(code, guest(2, "conn-a"))
	assert.True(t, res.Started, "a late joiner must observe the started flag")
}

func (suite *RegistryUnitSuite) TestMarkStartedUnknownRoom(t provider.T) {
	t.Parallel()

	r := New(nil)
	assert.ErrorIs(t, r.MarkStarted("0000000"), ErrRoomNotFound)
}

func (suite *RegistryUnitSuite) TestEndRejectsOutOfOrderTransitions(t provider.T) {
	t.Parallel()

	r := New(nil)
	code := validRoomCode()
	r.Join(code, host(1, "conn-h"))

	assert.ErrorIs(t, r.End(code), ErrRoomEnded, "end before start is out of order")

	assert.NoError(t, r.MarkStarted(code))
	assert.NoError(t, r.End(code))

	assert.ErrorIs(t, r.MarkStarted(code), ErrRoomEnded, "replayed game_ready after the game ended")
	assert.ErrorIs(t, r.End(code), ErrRoomEnded)
}

func (suite *RegistryUnitSuite) TestHostConn(t provider.T) {
	t.Parallel()

	r := New(nil)
	code := validRoomCode()
	r.Join(code, host(1, "conn-h"))
	r.Join(code, guest(2, "conn-a"))

	assert.True(t, r.HostConn(code, "conn-h"))
	assert.False(t, r.HostConn(code, "conn-a"))
	assert.False(t, r.HostConn("0000000", "conn-h"))
}

func (suite *RegistryUnitSuite) TestConcurrentLeavesCleanupOnce(t provider.T) {
	t.Parallel()

	r := New(nil)
	code := validRoomCode()

	const n = 16
	for i := 0; i < n; i++ {
		r.Join(code, guest(int64(i+1), fmt.Sprintf("conn-%d", i+1)))
	}

	var wg sync.WaitGroup
	emptied := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(connID string) {
			defer wg.Done()
			if dep, ok := r.Leave(connID); ok && dep.RoomEmptied {
				emptied <- struct{}{}
			}
		}(fmt.Sprintf("conn-%d", i+1))
	}
	wg.Wait()
	close(emptied)

	var emptyCount int
	for range emptied {
		emptyCount++
	}
	assert.Equal(t, 1, emptyCount, "exactly one leaver observes the room emptying")

	_, _, found := r.Presence(code)
	assert.False(t, found)
}

func TestRegistryUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(RegistryUnitSuite))
}
