package team_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rallyops/designops/internal/docstore"
	"github.com/rallyops/designops/internal/docstore/sqlite"
	"github.com/rallyops/designops/internal/team"
)

func setupStore(t *testing.T) docstore.Store {
	t.Helper()

	store, err := sqlite.New(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func bears() team.Input {
	return team.Input{
		LeagueID: "nfl",
		Name:     "Chicago Bears",
		City:     "Chicago",
		Colors:   team.Colors{Primary: "#0B162A", Secondary: "#C83803"},
		Keywords: []string{"monsters", "midway"},
		Active:   true,
	}
}

// --- Create Tests ---

func TestCreate_ListedWithDerivedSlug(t *testing.T) {
	repo := team.NewRepository(setupStore(t), "")

	id, _, err := repo.Create(context.Background(), bears().Fields())
	require.NoError(t, err)

	items := repo.Items()
	require.Len(t, items, 1)
	got := items[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Chicago Bears", got.Name)
	assert.Equal(t, "Chicago", got.City)
	assert.Equal(t, team.Colors{Primary: "#0B162A", Secondary: "#C83803"}, got.Colors)
	assert.Equal(t, "chicago-bears", got.Slug)
	assert.Equal(t, []string{"monsters", "midway"}, got.Keywords)
	assert.Equal(t, []string{}, got.BannedTerms)
}

func TestCreate_AgainstUnknownLeague(t *testing.T) {
	repo := team.NewRepository(setupStore(t), "")

	in := bears()
	in.LeagueID = "no-such-league"
	_, _, err := repo.Create(context.Background(), in.Fields())

	require.NoError(t, err)
	assert.Len(t, repo.Items(), 1)
}

// --- Update Tests ---

func TestUpdate_ColorsReplacePalette(t *testing.T) {
	repo := team.NewRepository(setupStore(t), "")
	ctx := context.Background()

	in := bears()
	in.Colors.Accent = "#FFFFFF"
	id, _, err := repo.Create(ctx, in.Fields())
	require.NoError(t, err)

	colors := team.Colors{Primary: "#000000", Secondary: "#111111"}
	_, err = repo.Update(ctx, id, team.Patch{Colors: &colors}.Fields())
	require.NoError(t, err)

	items := repo.Items()
	require.Len(t, items, 1)
	assert.Equal(t, colors, items[0].Colors)
	assert.Equal(t, "chicago-bears", items[0].Slug)
	assert.Equal(t, "Chicago", items[0].City)
}

func TestUpdate_EmptyKeywordsStoredAsEmptyList(t *testing.T) {
	repo := team.NewRepository(setupStore(t), "")
	ctx := context.Background()

	id, _, err := repo.Create(ctx, bears().Fields())
	require.NoError(t, err)

	var none []string
	_, err = repo.Update(ctx, id, team.Patch{Keywords: &none}.Fields())
	require.NoError(t, err)

	items := repo.Items()
	require.Len(t, items, 1)
	assert.Equal(t, []string{}, items[0].Keywords)
}

// --- League Filter Tests ---

func TestNewRepository_LeagueFilterMatchesInMemoryFilter(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	all := team.NewRepository(store, "")

	for _, in := range []team.Input{
		{LeagueID: "nfl", Name: "Packers", City: "Green Bay"},
		{LeagueID: "mlb", Name: "Cubs", City: "Chicago"},
		{LeagueID: "nfl", Name: "Bears", City: "Chicago"},
		{LeagueID: "nhl", Name: "Blackhawks", City: "Chicago"},
	} {
		_, _, err := all.Create(ctx, in.Fields())
		require.NoError(t, err)
	}

	server, err := team.NewRepository(store, "nfl").List(ctx)
	require.NoError(t, err)

	client := team.FilterByLeague(all.Items(), "nfl")

	require.Len(t, server, 2)
	assert.Equal(t, "Bears", server[0].Name)
	assert.Equal(t, "Packers", server[1].Name)
	assert.Equal(t, server, client)
}

func TestFilterByLeague(t *testing.T) {
	t.Parallel()

	teams := []team.Team{
		{ID: "1", Name: "A", LeagueID: "x"},
		{ID: "2", Name: "B", LeagueID: "y"},
		{ID: "3", Name: "C", LeagueID: "x"},
	}

	got := team.FilterByLeague(teams, "x")
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	assert.Len(t, team.FilterByLeague(teams, ""), 3)
	assert.Empty(t, team.FilterByLeague(teams, "z"))
	assert.NotNil(t, team.FilterByLeague(nil, "x"))
}

// --- Notes Tests ---

func TestRenderNotes(t *testing.T) {
	t.Parallel()

	html, err := team.RenderNotes("Avoid **wordmarks**.\nUse ~~old~~ new logo.")
	require.NoError(t, err)

	assert.Contains(t, html, "<strong>wordmarks</strong>")
	assert.Contains(t, html, "<br")
	assert.Contains(t, html, "<del>old</del>")
}

func TestRenderNotes_DropsRawHTML(t *testing.T) {
	t.Parallel()

	html, err := team.RenderNotes("<script>alert(1)</script>")
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
}

func TestRenderNotes_Empty(t *testing.T) {
	t.Parallel()

	html, err := team.RenderNotes("")
	require.NoError(t, err)
	assert.Empty(t, html)
}
