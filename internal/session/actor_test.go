package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/dinedecide/internal/domain"
	"github.com/DoyleJ11/dinedecide/internal/echo"
	"github.com/DoyleJ11/dinedecide/internal/engine"
)

// Two views on one device: engines that never reach a relay still see each
// other through the shared echo bus.
func newEchoPair(t *testing.T, fetch *fakeFetcher) (host, guest *Actor) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := zap.NewNop()
	bus := echo.NewBus(log)
	t.Cleanup(bus.Close)

	mk := func(self domain.Member) *Actor {
		eng := engine.New(engine.Options{URL: "ws://127.0.0.1:1/ws"}, bus, log)
		t.Cleanup(func() { _ = eng.Close() })
		m := NewMachine(self, eng, newMemStore(groupWith(alice, bob)), fetch, Options{}, log)
		return NewActor(ctx, m, eng, log)
	}
	return mk(alice), mk(bob)
}

func waitPhase(t *testing.T, a *Actor, want domain.Phase) Snapshot {
	t.Helper()
	var snap Snapshot
	require.Eventually(t, func() bool {
		s, err := a.State(context.Background())
		if err != nil {
			return false
		}
		snap = s
		return s.Phase == want
	}, 2*time.Second, 10*time.Millisecond, "phase %s", want)
	return snap
}

func TestActor_SessionOverEcho(t *testing.T) {
	ctx := context.Background()
	host, guest := newEchoPair(t, &fakeFetcher{deck: deckOf("r1", "r2")})

	require.NoError(t, host.Enter(ctx, "g1"))
	require.NoError(t, guest.Enter(ctx, "g1"))

	require.NoError(t, guest.Start(ctx))
	require.NoError(t, host.Start(ctx))

	hs := waitPhase(t, host, domain.PhaseVoting)
	gs := waitPhase(t, guest, domain.PhaseVoting)
	assert.True(t, domain.SameDeck(hs.Deck, gs.Deck))
	require.Eventually(t, func() bool {
		s, _ := host.State(ctx)
		return s.Status["B"] == domain.StatusVoting
	}, 2*time.Second, 10*time.Millisecond)

	for _, a := range []*Actor{host, guest} {
		require.NoError(t, a.Swipe(ctx, domain.DecisionLike))
		require.NoError(t, a.Swipe(ctx, domain.DecisionDislike))
	}

	hs = waitPhase(t, host, domain.PhaseResults)
	gs = waitPhase(t, guest, domain.PhaseResults)
	require.NotEmpty(t, hs.Ranking.Entries())
	assert.Equal(t, "r1", hs.Ranking.Entries()[0].Candidate.ID)
	assert.Equal(t, 2, gs.Ranking.Entries()[0].Likes)

	require.NoError(t, host.ReturnToLobby(ctx))
	assert.Equal(t, domain.PhaseLobby, waitPhase(t, host, domain.PhaseLobby).Phase)
}

func TestActor_FetchDoesNotBlockLoop(t *testing.T) {
	ctx := context.Background()
	gate := make(chan struct{})
	host, _ := newEchoPair(t, &fakeFetcher{deck: deckOf("r1"), gate: gate})
	require.NoError(t, host.Enter(ctx, "g1"))

	done := make(chan error, 1)
	go func() { done <- host.Start(ctx) }()

	snap := waitPhase(t, host, domain.PhaseDeckPending)
	assert.True(t, snap.IsHost())

	close(gate)
	require.NoError(t, <-done)
	waitPhase(t, host, domain.PhaseVoting)
}

func TestActor_FetchFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	host, _ := newEchoPair(t, &fakeFetcher{})
	require.NoError(t, host.Enter(ctx, "g1"))

	assert.ErrorIs(t, host.Start(ctx), domain.ErrNoCandidates)
	waitPhase(t, host, domain.PhaseLobby)
}

func TestActor_WatchAndShutdown(t *testing.T) {
	ctx := context.Background()
	host, _ := newEchoPair(t, &fakeFetcher{})

	out := make(chan Snapshot, 8)
	require.True(t, host.Send(Watch{Outbox: out}))
	<-out

	require.NoError(t, host.Enter(ctx, "g1"))
	select {
	case s := <-out:
		assert.Equal(t, "g1", s.GroupID)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after enter")
	}

	require.True(t, host.Send(Shutdown{}))
	<-host.Done()
	_, err := host.State(ctx)
	assert.Error(t, err)
}
