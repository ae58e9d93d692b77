package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relocate/internal/config"
	"relocate/internal/storage"
)

type fakePrompter struct {
	newURL      string
	parts       [3]bool
	confirm     bool
	confirmErr  error
	askedURL    bool
	askedParts  bool
	confirmText string
}

func (p *fakePrompter) NewURL() (string, error) {
	p.askedURL = true
	return p.newURL, nil
}

func (p *fakePrompter) Parts() (bool, bool, bool, error) {
	p.askedParts = true
	return p.parts[0], p.parts[1], p.parts[2], nil
}

func (p *fakePrompter) Confirm(message string) (bool, error) {
	p.confirmText = message
	return p.confirm, p.confirmErr
}

func newTestEnv(p prompter, interactive bool) *env {
	return &env{
		conf:        config.NewConfig(),
		prompt:      p,
		interactive: func() bool { return interactive },
	}
}

func execute(t *testing.T, e *env, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(e)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", filepath.Join("testdata", "empty.env")))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

type site struct {
	dsn        string
	post       int64
	attachment int64
}

func newSite(t *testing.T) site {
	t.Helper()
	ctx := context.Background()
	s := site{dsn: "file:" + filepath.Join(t.TempDir(), "wp.db")}

	out, err := execute(t, newTestEnv(nil, false), "migrate", "--database-dsn", s.dsn)
	require.NoError(t, err)
	require.Contains(t, out, "Tables are up to date.")

	db, err := storage.NewStorageDB(ctx, storage.DriverSQLite, s.dsn, storage.DefaultTablePrefix)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.UpdateOption(ctx, "siteurl", "http://old.example"))
	require.NoError(t, db.UpdateOption(ctx, "home", "http://old.example"))
	res, err := db.DBConn.Exec(
		"INSERT INTO wp_posts (post_type, post_status, post_content) VALUES ('post', 'publish', ?)",
		`<a href="http://old.example/about">About</a>`)
	require.NoError(t, err)
	s.post, err = res.LastInsertId()
	require.NoError(t, err)
	s.attachment, err = db.InsertAttachment(ctx, storage.Post{GUID: "http://old.example/wp-content/uploads/a.png"})
	require.NoError(t, err)
	return s
}

func (s site) read(t *testing.T) (home, content, guid string) {
	t.Helper()
	ctx := context.Background()
	db, err := storage.NewStorageDB(ctx, storage.DriverSQLite, s.dsn, storage.DefaultTablePrefix)
	require.NoError(t, err)
	defer db.Close()

	home, err = db.GetOption(ctx, "home")
	require.NoError(t, err)
	posts, err := db.QueryPosts(ctx, storage.PostQuery{IDs: []int64{s.post, s.attachment}})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	return home, posts[0].Content, posts[1].GUID
}

func TestRun(t *testing.T) {
	t.Run("All groups with --yes", func(t *testing.T) {
		s := newSite(t)
		journal := filepath.Join(t.TempDir(), "journal.jsonl")

		out, err := execute(t, newTestEnv(nil, false), "run",
			"--database-dsn", s.dsn, "--journal", journal, "--new", "https://new.example/", "--yes")
		require.NoError(t, err)
		assert.Contains(t, out, "Options Processed: 2")
		assert.Contains(t, out, "Attachments Processed: 1")
		assert.Contains(t, out, "Post Bodies Processed: 1")
		assert.Contains(t, out, "Log in at https://new.example/wp-login.php")

		home, content, guid := s.read(t)
		assert.Equal(t, "https://new.example", home)
		assert.Equal(t, `<a href="https://new.example/about">About</a>`, content)
		assert.Equal(t, "https://new.example/wp-content/uploads/a.png", guid)

		entries, err := storage.ReadJournalFile(journal)
		require.NoError(t, err)
		assert.Len(t, entries, 4)

		out, err = execute(t, newTestEnv(nil, false), "journal", journal)
		require.NoError(t, err)
		assert.Contains(t, out, "siteurl")
	})

	t.Run("Selected group", func(t *testing.T) {
		s := newSite(t)
		_, err := execute(t, newTestEnv(nil, false), "run",
			"--database-dsn", s.dsn, "--new", "https://new.example", "--content", "--yes")
		require.NoError(t, err)

		home, content, guid := s.read(t)
		assert.Equal(t, "http://old.example", home)
		assert.Contains(t, content, "https://new.example/about")
		assert.Equal(t, "http://old.example/wp-content/uploads/a.png", guid)
	})

	t.Run("Dry run", func(t *testing.T) {
		s := newSite(t)
		out, err := execute(t, newTestEnv(nil, false), "run",
			"--database-dsn", s.dsn, "--new", "https://new.example", "--dry-run")
		require.NoError(t, err)
		assert.Contains(t, out, "Dry run, nothing was written.")

		home, _, _ := s.read(t)
		assert.Equal(t, "http://old.example", home)
	})

	t.Run("Needs --yes without a terminal", func(t *testing.T) {
		s := newSite(t)
		_, err := execute(t, newTestEnv(nil, false), "run", "--database-dsn", s.dsn, "--new", "https://new.example")
		assert.ErrorIs(t, err, errNeedsYes)
	})

	t.Run("Interactive", func(t *testing.T) {
		s := newSite(t)
		p := &fakePrompter{newURL: "https://new.example", parts: [3]bool{true, false, false}, confirm: true}
		_, err := execute(t, newTestEnv(p, true), "run", "--database-dsn", s.dsn)
		require.NoError(t, err)
		assert.True(t, p.askedURL)
		assert.True(t, p.askedParts)
		assert.Equal(t, "Replace http://old.example with https://new.example?", p.confirmText)

		home, content, _ := s.read(t)
		assert.Equal(t, "https://new.example", home)
		assert.Contains(t, content, "http://old.example/about")
	})

	t.Run("Interactive declined", func(t *testing.T) {
		s := newSite(t)
		p := &fakePrompter{confirm: false}
		_, err := execute(t, newTestEnv(p, true), "run", "--database-dsn", s.dsn, "--new", "https://new.example", "--options")
		assert.ErrorIs(t, err, errNotConfirmed)
		assert.False(t, p.askedURL)
		assert.False(t, p.askedParts)
	})

	t.Run("Confirmation error", func(t *testing.T) {
		s := newSite(t)
		p := &fakePrompter{confirmErr: errors.New("interrupt")}
		_, err := execute(t, newTestEnv(p, true), "run", "--database-dsn", s.dsn, "--new", "https://new.example", "--options")
		assert.ErrorContains(t, err, "interrupt")
	})

	t.Run("Invalid new URL", func(t *testing.T) {
		s := newSite(t)
		_, err := execute(t, newTestEnv(nil, false), "run", "--database-dsn", s.dsn, "--new", "new.example", "--yes")
		assert.ErrorContains(t, err, "new site URL")
	})
}

func TestMigrate_NoDatabase(t *testing.T) {
	_, err := execute(t, newTestEnv(nil, false), "migrate")
	assert.ErrorIs(t, err, errNoDatabase)
}

func TestAbbreviate(t *testing.T) {
	assert.Equal(t, "a b", abbreviate("a\n  b", 10))
	assert.Equal(t, "abcdefg...", abbreviate("abcdefghijklmnop", 10))
}
