package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentx-labs/tooldex/internal/catalog"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	if path == "" {
		path = filepath.Join(t.TempDir(), "catalog.db")
	}
	s, err := Open(context.Background(), Options{Path: path, Now: func() time.Time { return testNow }})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func skill(name, description string, tags ...string) catalog.Entry {
	return catalog.Entry{
		Identity:     catalog.Identity{Platform: catalog.PlatformClaude, Type: catalog.TypeSkill, Name: name},
		Origin:       catalog.OriginInHouse,
		Status:       catalog.StatusActive,
		Version:      "1.0.0",
		InstallPath:  "/skills/" + name,
		LastModified: testNow.Add(-time.Hour),
		Detail:       &catalog.SkillDetail{Description: description, Tags: tags},
	}
}

func server(platform catalog.Platform, name, command string) catalog.Entry {
	return catalog.Entry{
		Identity:    catalog.Identity{Platform: platform, Type: catalog.TypeServer, Name: name},
		Origin:      catalog.OriginExternal,
		Status:      catalog.StatusDisabled,
		InstallPath: "/config",
		Detail:      &catalog.ServerDetail{Command: command, Transport: "stdio"},
	}
}

func scanOf(entries ...catalog.Entry) catalog.ScanResult {
	var r catalog.ScanResult
	for _, e := range entries {
		r.Append(e.Type, e)
	}
	r.ScanTime = testNow
	return r
}

func TestUpsertIsIdempotent(t *testing.T) {
	s := openTestStore(t, "")
	ctx := context.Background()
	result := scanOf(skill("gmail-send", "Send email through Gmail", "email"))

	summary, err := s.Upsert(ctx, result)
	require.NoError(t, err)
	assert.Equal(t, UpsertSummary{Installed: 1}, summary)

	summary, err = s.Upsert(ctx, result)
	require.NoError(t, err)
	assert.Equal(t, UpsertSummary{Updated: 1}, summary)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	id := result.Skills[0].Identity
	events, err := s.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, catalog.EventInstalled, events[0].Kind)
	assert.Equal(t, catalog.EventUpdated, events[1].Kind)
	assert.Equal(t, "1.0.0", events[0].Version)
	require.NotNil(t, events[0].Snapshot)
	assert.Equal(t, "gmail-send", events[0].Snapshot.Name)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, result.Skills[0].InstallPath, got.InstallPath)
	assert.True(t, result.Skills[0].LastModified.Equal(got.LastModified))
	assert.Equal(t, "Send email through Gmail", got.Description())
}

func TestUpsertReplacesAttributes(t *testing.T) {
	s := openTestStore(t, "")
	ctx := context.Background()

	_, err := s.Upsert(ctx, scanOf(skill("notes", "Take notes", "writing", "docs")))
	require.NoError(t, err)

	changed := skill("notes", "Take meeting notes")
	changed.Version = "2.0.0"
	changed.Status = catalog.StatusDisabled
	_, err = s.Upsert(ctx, scanOf(changed))
	require.NoError(t, err)

	got, err := s.Get(ctx, changed.Identity)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", got.Version)
	assert.Equal(t, catalog.StatusDisabled, got.Status)
	assert.Empty(t, got.Detail.(*catalog.SkillDetail).Tags, "missing attributes are not preserved")

	found, err := s.Search(ctx, "meeting")
	require.NoError(t, err)
	require.Len(t, found, 1)
	found, err = s.Search(ctx, "writing")
	require.NoError(t, err)
	assert.Empty(t, found, "search row replaced with the entry")
}

func TestUpsertKeepsEntriesMissingFromScan(t *testing.T) {
	s := openTestStore(t, "")
	ctx := context.Background()

	_, err := s.Upsert(ctx, scanOf(skill("a", "first"), skill("b", "second")))
	require.NoError(t, err)
	_, err = s.Upsert(ctx, scanOf(skill("a", "first")))
	require.NoError(t, err)

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpsertRollsBackOnFailure(t *testing.T) {
	s := openTestStore(t, "")
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, `
		CREATE TRIGGER reject_bad BEFORE INSERT ON components
		WHEN NEW.name = 'bad'
		BEGIN SELECT RAISE(ABORT, 'rejected'); END
	`)
	require.NoError(t, err)

	_, err = s.Upsert(ctx, scanOf(skill("good", "first"), skill("bad", "second")))
	require.Error(t, err)
	assert.True(t, IsStoreError(err))

	for _, table := range []string{"components", "installation_events", "components_fts"} {
		var n int
		require.NoError(t, s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, table)
	}

	summary, err := s.Upsert(ctx, scanOf(skill("good", "first")))
	require.NoError(t, err)
	assert.Equal(t, UpsertSummary{Installed: 1}, summary)
}

func TestSearch(t *testing.T) {
	s := openTestStore(t, "")
	ctx := context.Background()
	_, err := s.Upsert(ctx, scanOf(
		skill("gmail-send", "Send email through Gmail", "email"),
		skill("slack-post", "Post a message to Slack"),
		server(catalog.PlatformCodex, "gmail", "gmail-mcp"),
	))
	require.NoError(t, err)

	names := func(entries []catalog.Entry) []string {
		var out []string
		for _, e := range entries {
			out = append(out, e.Identity.String())
		}
		return out
	}

	found, err := s.Search(ctx, "gmail")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"claude:skill:gmail-send", "codex:mcp:gmail"}, names(found))

	found, err = s.Search(ctx, "gma")
	require.NoError(t, err)
	assert.Len(t, found, 2, "tokens match as prefixes")

	found, err = s.Search(ctx, "send gmail")
	require.NoError(t, err)
	assert.Equal(t, []string{"claude:skill:gmail-send"}, names(found))

	found, err = s.Search(ctx, "mcp")
	require.NoError(t, err)
	assert.Equal(t, []string{"codex:mcp:gmail"}, names(found), "type keyword is indexed")

	found, err = s.Search(ctx, `"slack`)
	require.NoError(t, err)
	assert.Equal(t, []string{"claude:skill:slack-post"}, names(found))

	found, err = s.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = s.Search(ctx, "nothing-like-this")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSanitizeFTSQuery(t *testing.T) {
	tests := map[string]string{
		"gmail":          `"gmail"*`,
		"send  gmail":    `"send"* AND "gmail"*`,
		`say "hi"`:       `"say"* AND "hi"*`,
		"wild*":          `"wild"*`,
		"":               "",
		"\x00 \"\" ** ": "",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFTSQuery(in), "%q", in)
	}
}

func TestList(t *testing.T) {
	s := openTestStore(t, "")
	ctx := context.Background()
	_, err := s.Upsert(ctx, scanOf(
		skill("zeta", "last"),
		skill("alpha", "first"),
		server(catalog.PlatformClaude, "db", "db-server"),
		server(catalog.PlatformCodex, "db", "db-server"),
	))
	require.NoError(t, err)

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "zeta", all[3].Name)

	servers, err := s.List(ctx, Filter{Type: catalog.TypeServer, Status: catalog.StatusDisabled})
	require.NoError(t, err)
	assert.Len(t, servers, 2)

	codex, err := s.List(ctx, Filter{Platform: catalog.PlatformCodex})
	require.NoError(t, err)
	require.Len(t, codex, 1)
	assert.Equal(t, "db-server", codex[0].Detail.(*catalog.ServerDetail).Command)

	none, err := s.List(ctx, Filter{Origin: catalog.OriginOfficial})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFilterMatch(t *testing.T) {
	e := server(catalog.PlatformCodex, "docs", "docs-server")
	assert.True(t, Filter{}.Match(e))
	assert.True(t, Filter{Platform: catalog.PlatformCodex, Type: catalog.TypeServer, Status: catalog.StatusDisabled}.Match(e))
	assert.False(t, Filter{Platform: catalog.PlatformClaude}.Match(e))
	assert.False(t, Filter{Type: catalog.TypeSkill}.Match(e))
	assert.False(t, Filter{Origin: catalog.OriginOfficial}.Match(e))
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t, "")
	_, err := s.Get(context.Background(), catalog.Identity{Platform: catalog.PlatformClaude, Type: catalog.TypeSkill, Name: "ghost"})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsStoreError(err))

	_, err = s.History(context.Background(), catalog.Identity{Platform: catalog.PlatformClaude, Type: catalog.TypeSkill, Name: "ghost"})
	assert.True(t, IsNotFound(err))
}

func TestLastScan(t *testing.T) {
	s := openTestStore(t, "")
	ctx := context.Background()

	last, err := s.LastScan(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	_, err = s.Upsert(ctx, scanOf(skill("a", "x")))
	require.NoError(t, err)
	last, err = s.LastScan(ctx)
	require.NoError(t, err)
	assert.True(t, testNow.Equal(last))
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := Open(context.Background(), Options{Path: path})
	require.NoError(t, err)
	_, err = s.Upsert(context.Background(), scanOf(skill("kept", "survives reopen")))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s = openTestStore(t, path)
	found, err := s.Search(context.Background(), "survives")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestOperationsAfterCloseAreStoreErrors(t *testing.T) {
	s, err := Open(context.Background(), Options{Path: filepath.Join(t.TempDir(), "catalog.db")})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Upsert(context.Background(), scanOf(skill("a", "x")))
	assert.True(t, IsStoreError(err))
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), Options{})
	assert.Error(t, err)
}
