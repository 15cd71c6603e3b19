package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/dinedecide/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite", filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "x", zap.NewNop())
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestClose_ReleasesPool(t *testing.T) {
	s, err := Open("sqlite", filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Areas(context.Background())
	assert.Error(t, err)
}

func TestGroups_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.LoadGroup(ctx, "g1")
	assert.ErrorIs(t, err, domain.ErrGroupNotFound)

	alice := domain.Member{ID: "A", Name: "Alice"}
	g, err := s.CreateGroup(ctx, domain.Group{ID: "g1", Name: "Lunch", AnonymousVoting: true}, alice)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSwipingAmount, g.SwipingAmount)

	g.Members = append(g.Members, domain.Member{ID: "B", Name: "Bob"})
	require.NoError(t, s.SaveGroup(ctx, g))

	got, err := s.LoadGroup(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "Lunch", got.Name)
	assert.True(t, got.AnonymousVoting)
	assert.Equal(t, g.Members, got.Members)

	require.NoError(t, s.SaveGroup(ctx, domain.Group{ID: "g2", Name: "Dinner", Members: []domain.Member{{ID: "B"}}}))
	mine, err := s.ListGroups(ctx, "A")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "g1", mine[0].ID)

	require.NoError(t, s.DeleteGroup(ctx, "g1"))
	_, err = s.LoadGroup(ctx, "g1")
	assert.ErrorIs(t, err, domain.ErrGroupNotFound)
}

func TestResults_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i, ts := range []int64{100, 300, 200} {
		require.NoError(t, s.SaveSelectionResult(ctx, domain.SelectionResult{
			ID:        string(rune('a' + i)),
			GroupID:   "g1",
			Timestamp: ts,
			Type:      domain.ResultVote,
			Likes:     []string{"r1"},
		}))
	}
	require.NoError(t, s.SaveSelectionResult(ctx, domain.SelectionResult{ID: "z", GroupID: "g2", Timestamp: 999, Type: domain.ResultVote}))

	got, err := s.LoadResults(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{300, 200, 100}, []int64{got[0].Timestamp, got[1].Timestamp, got[2].Timestamp})
	assert.Equal(t, []string{"r1"}, got[0].Likes)

	all, err := s.LoadResults(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "z", all[0].ID)
}

func TestCatalogue_AreaCascade(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.AddArea(ctx, "  Zhubei "))
	require.NoError(t, s.AddArea(ctx, "Hsinchu East"))
	assert.ErrorIs(t, s.AddArea(ctx, "   "), ErrEmptyAreaName)

	r1 := domain.Candidate{ID: "r1", Name: "Curry Lab", Area: "Zhubei", FoodTypes: []string{"Curry"}}
	r2 := domain.Candidate{ID: "r2", Name: "Noodles", Area: "Hsinchu East"}
	require.NoError(t, s.SaveRestaurant(ctx, r1))
	require.NoError(t, s.SaveRestaurant(ctx, r2))

	saved, err := s.ToggleSaved(ctx, r1)
	require.NoError(t, err)
	assert.True(t, saved)
	_, err = s.ToggleSaved(ctx, r2)
	require.NoError(t, err)

	got, err := s.RestaurantsByArea(ctx, "Zhubei")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"Curry"}, got[0].FoodTypes)

	require.NoError(t, s.DeleteArea(ctx, "Zhubei"))

	areas, err := s.Areas(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hsinchu East"}, areas)

	got, err = s.RestaurantsByArea(ctx, "Zhubei")
	require.NoError(t, err)
	assert.Empty(t, got)

	bookmarks, err := s.SavedRestaurants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r2"}, domain.CandidateIDs(bookmarks))
}

func TestCatalogue_ToggleAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	r := domain.Candidate{ID: "r1", Name: "Morning Bao", Area: "Zhubei"}
	require.NoError(t, s.SaveRestaurant(ctx, r))

	saved, err := s.ToggleSaved(ctx, r)
	require.NoError(t, err)
	assert.True(t, saved)
	saved, err = s.ToggleSaved(ctx, r)
	require.NoError(t, err)
	assert.False(t, saved)

	_, err = s.ToggleSaved(ctx, r)
	require.NoError(t, err)
	require.NoError(t, s.DeleteRestaurant(ctx, "r1"))

	ok, err := s.IsSaved(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, ok)
	all, err := s.Restaurants(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSeed_OnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	items := []domain.Candidate{{ID: "b1", Name: "A", Area: "Zhubei"}, {ID: "b2", Name: "B", Area: "Zhubei"}}

	require.NoError(t, s.Seed(ctx, items))
	require.NoError(t, s.DeleteRestaurant(ctx, "b1"))
	require.NoError(t, s.Seed(ctx, items))

	all, err := s.Restaurants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b2"}, domain.CandidateIDs(all))
	areas, err := s.Areas(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Zhubei"}, areas)
}

func TestProfile_CreatedOnceAndRenamed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.Profile(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Regexp(t, `^User \d{1,3}$`, first.Name)

	again, err := s.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	renamed, err := s.RenameProfile(ctx, " Alice ")
	require.NoError(t, err)
	assert.Equal(t, first.ID, renamed.ID)
	assert.Equal(t, "Alice", renamed.Name)

	_, err = s.RenameProfile(ctx, "")
	assert.ErrorIs(t, err, domain.ErrEmptyName)
}

func TestBackup_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)
	require.NoError(t, src.AddArea(ctx, "Zhubei"))
	require.NoError(t, src.SaveRestaurant(ctx, domain.Candidate{ID: "r1", Name: "Curry Lab", Area: "Zhubei"}))
	require.NoError(t, src.SaveGroup(ctx, domain.Group{ID: "g1", Name: "Lunch", Members: []domain.Member{{ID: "A", Name: "Alice"}}}))
	require.NoError(t, src.SaveSelectionResult(ctx, domain.SelectionResult{ID: "x", GroupID: "g1", Timestamp: 5, Type: domain.ResultVote}))

	dump, err := src.Dump(ctx)
	require.NoError(t, err)

	dst := newTestStore(t)
	require.NoError(t, dst.SaveRestaurant(ctx, domain.Candidate{ID: "old", Name: "Gone"}))
	require.NoError(t, dst.Restore(ctx, dump))

	all, err := dst.Restaurants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, domain.CandidateIDs(all))
	g, err := dst.LoadGroup(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", g.Members[0].Name)
	res, err := dst.LoadResults(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestRestore_PartialSectionsAndCorruptInput(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.AddArea(ctx, "Zhubei"))
	require.NoError(t, s.SaveRestaurant(ctx, domain.Candidate{ID: "r1", Name: "Keep", Area: "Zhubei"}))

	for _, bad := range []string{`{"areas": [`, `null`, `not json`, `{"areas": "Zhubei"}`} {
		assert.ErrorIs(t, s.Restore(ctx, []byte(bad)), ErrCorruptBackup, bad)
	}

	areas := []string{"Hsinchu East", "Hsinchu East"}
	data, err := json.Marshal(map[string]any{"areas": areas})
	require.NoError(t, err)
	require.NoError(t, s.Restore(ctx, data))

	got, err := s.Areas(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hsinchu East"}, got)

	all, err := s.Restaurants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, domain.CandidateIDs(all))
}
