package storage

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// DefaultTablePrefix is the WordPress default $table_prefix.
const DefaultTablePrefix = "wp_"

// wpTime is the layout WordPress uses for post dates.
const wpTime = "2006-01-02 15:04:05"

// ErrUnsupportedDriver - the configured driver is not one of the Driver* names.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// ErrInvalidTablePrefix - the table prefix contains characters other than
// letters, digits and underscores.
var ErrInvalidTablePrefix = errors.New("invalid table prefix")

var tablePrefixPattern = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

var autoloadValues = []string{"yes", "on", "auto", "auto-on"}

var hiddenStatuses = []string{StatusTrash, StatusAutoDraft}

var postColumns = []string{
	"ID", "post_type", "post_status", "post_title", "post_name",
	"post_content", "guid", "post_parent", "post_mime_type",
}

// StorageDB stores posts and options in a WordPress database.
type StorageDB struct {
	DBConn    *sql.DB
	driver    string
	posts     string
	options   string
	revisions bool
	sb        sq.StatementBuilderType
}

// DBOption customises a StorageDB.
type DBOption func(*StorageDB)

// WithTablePrefix sets the WordPress table prefix. Default: "wp_".
func WithTablePrefix(prefix string) DBOption {
	return func(s *StorageDB) {
		s.posts = prefix + "posts"
		s.options = prefix + "options"
	}
}

// WithRevisions makes UpdatePost keep a revision of the previous body.
func WithRevisions(enabled bool) DBOption {
	return func(s *StorageDB) { s.revisions = enabled }
}

// NewStorageDB opens a database with one of the Driver* names and checks the
// connection.
func NewStorageDB(ctx context.Context, driver, dsn, prefix string, opts ...DBOption) (*StorageDB, error) {
	if !tablePrefixPattern.MatchString(prefix) {
		return nil, errors.Wrapf(ErrInvalidTablePrefix, "%q", prefix)
	}
	if _, err := placeholderFormat(driver); err != nil {
		return nil, err
	}

	dbConn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open database")
	}
	if driver == DriverSQLite && strings.Contains(dsn, ":memory:") {
		// every connection to :memory: is a separate database
		dbConn.SetMaxOpenConns(1)
	}
	if err := dbConn.PingContext(ctx); err != nil {
		_ = dbConn.Close()
		return nil, errors.Wrap(err, "unable to reach database")
	}

	s, err := NewStorageDBFromConn(dbConn, driver, append([]DBOption{WithTablePrefix(prefix)}, opts...)...)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	return s, nil
}

// NewStorageDBFromConn wraps an open connection.
func NewStorageDBFromConn(dbConn *sql.DB, driver string, opts ...DBOption) (*StorageDB, error) {
	format, err := placeholderFormat(driver)
	if err != nil {
		return nil, err
	}
	s := &StorageDB{
		DBConn: dbConn,
		driver: driver,
		sb:     sq.StatementBuilder.PlaceholderFormat(format),
	}
	WithTablePrefix(DefaultTablePrefix)(s)
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func placeholderFormat(driver string) (sq.PlaceholderFormat, error) {
	switch driver {
	case DriverPostgres:
		return sq.Dollar, nil
	case DriverMySQL, DriverSQLite:
		return sq.Question, nil
	}
	return nil, errors.Wrapf(ErrUnsupportedDriver, "%q", driver)
}

func (s *StorageDB) QueryPosts(ctx context.Context, q PostQuery) ([]Post, error) {
	b := s.sb.Select(postColumns...).
		From(s.posts).
		Where(sq.NotEq{"post_status": hiddenStatuses}).
		OrderBy("ID")
	if len(q.IDs) > 0 {
		b = b.Where(sq.Eq{"ID": q.IDs})
	}
	if len(q.Types) > 0 {
		b = b.Where(sq.Eq{"post_type": q.Types})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building posts query")
	}
	rows, err := s.DBConn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}
	defer func() {
		_ = rows.Close()
	}()

	var posts []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.Type, &p.Status, &p.Title, &p.Name,
			&p.Content, &p.GUID, &p.Parent, &p.MimeType); err != nil {
			return nil, errors.Wrap(err, "scanning post")
		}
		posts = append(posts, p)
	}
	return posts, errors.Wrap(rows.Err(), "reading posts")
}

func (s *StorageDB) PostTypes(ctx context.Context) ([]string, error) {
	query, args, err := s.sb.Select("post_type").Distinct().From(s.posts).OrderBy("post_type").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building post types query")
	}
	rows, err := s.DBConn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying post types")
	}
	defer func() {
		_ = rows.Close()
	}()

	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, errors.Wrap(err, "scanning post type")
		}
		types = append(types, t)
	}
	return types, errors.Wrap(rows.Err(), "reading post types")
}

func (s *StorageDB) UpdatePost(ctx context.Context, p Post) (int64, error) {
	tx, err := s.DBConn.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "starting post update")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := s.sb.Select("post_type", "post_title", "post_content").
		From(s.posts).Where(sq.Eq{"ID": p.ID}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building post lookup")
	}
	var current Post
	err = tx.QueryRowContext(ctx, query, args...).Scan(&current.Type, &current.Title, &current.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errors.Wrapf(ErrNotFound, "post %d", p.ID)
	}
	if err != nil {
		return 0, errors.Wrapf(err, "reading post %d", p.ID)
	}

	now := time.Now()
	if s.revisions && revisionedTypes[current.Type] {
		query, args, err = s.insertPost(Post{
			Type:    TypeRevision,
			Status:  StatusInherit,
			Title:   current.Title,
			Name:    RevisionName(p.ID),
			Content: current.Content,
			Parent:  p.ID,
		}, now).ToSql()
		if err != nil {
			return 0, errors.Wrap(err, "building revision insert")
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, errors.Wrapf(err, "saving revision of post %d", p.ID)
		}
	}

	query, args, err = s.sb.Update(s.posts).
		Set("post_content", p.Content).
		Set("post_modified", now.Format(wpTime)).
		Set("post_modified_gmt", now.UTC().Format(wpTime)).
		Where(sq.Eq{"ID": p.ID}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building post update")
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, errors.Wrapf(err, "updating post %d", p.ID)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrapf(err, "committing post %d", p.ID)
	}
	return p.ID, nil
}

func (s *StorageDB) InsertAttachment(ctx context.Context, p Post) (int64, error) {
	p.Type = TypeAttachment
	if p.Status == "" {
		p.Status = StatusInherit
	}
	now := time.Now()

	if p.ID == 0 {
		return s.insertReturningID(ctx, s.insertPost(p, now))
	}

	query, args, err := s.sb.Update(s.posts).
		Set("guid", p.GUID).
		Set("post_title", p.Title).
		Set("post_content", p.Content).
		Set("post_parent", p.Parent).
		Set("post_mime_type", p.MimeType).
		Set("post_modified", now.Format(wpTime)).
		Set("post_modified_gmt", now.UTC().Format(wpTime)).
		Where(sq.Eq{"ID": p.ID, "post_type": TypeAttachment}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building attachment update")
	}
	res, err := s.DBConn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrapf(err, "updating attachment %d", p.ID)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 for matched rows whose values did not change.
		exists, err := s.exists(ctx, s.posts, sq.Eq{"ID": p.ID, "post_type": TypeAttachment})
		if err != nil {
			return 0, err
		}
		if !exists {
			return 0, errors.Wrapf(ErrNotFound, "attachment %d", p.ID)
		}
	}
	return p.ID, nil
}

func (s *StorageDB) insertPost(p Post, now time.Time) sq.InsertBuilder {
	local, gmt := now.Format(wpTime), now.UTC().Format(wpTime)
	return s.sb.Insert(s.posts).
		Columns("post_date", "post_date_gmt", "post_content", "post_title", "post_excerpt",
			"post_status", "post_name", "to_ping", "pinged", "post_modified", "post_modified_gmt",
			"post_content_filtered", "post_parent", "guid", "post_type", "post_mime_type").
		Values(local, gmt, p.Content, p.Title, "",
			p.Status, p.Name, "", "", local, gmt,
			"", p.Parent, p.GUID, p.Type, p.MimeType)
}

func (s *StorageDB) insertReturningID(ctx context.Context, b sq.InsertBuilder) (int64, error) {
	if s.driver == DriverPostgres {
		query, args, err := b.Suffix("RETURNING ID").ToSql()
		if err != nil {
			return 0, errors.Wrap(err, "building insert")
		}
		var id int64
		if err := s.DBConn.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, errors.Wrap(err, "inserting post")
		}
		return id, nil
	}

	query, args, err := b.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building insert")
	}
	res, err := s.DBConn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "inserting post")
	}
	id, err := res.LastInsertId()
	return id, errors.Wrap(err, "reading inserted post id")
}

func (s *StorageDB) exists(ctx context.Context, table string, where sq.Sqlizer) (bool, error) {
	query, args, err := s.sb.Select("COUNT(*)").From(table).Where(where).ToSql()
	if err != nil {
		return false, errors.Wrap(err, "building existence check")
	}
	var n int64
	if err := s.DBConn.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, errors.Wrapf(err, "checking %s", table)
	}
	return n > 0, nil
}

func (s *StorageDB) AutoloadOptions(ctx context.Context) (map[string]string, error) {
	query, args, err := s.sb.Select("option_name", "option_value").
		From(s.options).
		Where(sq.Eq{"autoload": autoloadValues}).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building options query")
	}
	rows, err := s.DBConn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying options")
	}
	defer func() {
		_ = rows.Close()
	}()

	options := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, errors.Wrap(err, "scanning option")
		}
		options[name] = value
	}
	return options, errors.Wrap(rows.Err(), "reading options")
}

func (s *StorageDB) GetOption(ctx context.Context, name string) (string, error) {
	query, args, err := s.sb.Select("option_value").
		From(s.options).
		Where(sq.Eq{"option_name": name}).ToSql()
	if err != nil {
		return "", errors.Wrap(err, "building option lookup")
	}
	var value string
	err = s.DBConn.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errors.Wrapf(ErrNotFound, "option %q", name)
	}
	return value, errors.Wrapf(err, "reading option %q", name)
}

func (s *StorageDB) UpdateOption(ctx context.Context, name, value string) error {
	exists, err := s.exists(ctx, s.options, sq.Eq{"option_name": name})
	if err != nil {
		return err
	}

	var b sq.Sqlizer
	if exists {
		b = s.sb.Update(s.options).Set("option_value", value).Where(sq.Eq{"option_name": name})
	} else {
		b = s.sb.Insert(s.options).
			Columns("option_name", "option_value", "autoload").
			Values(name, value, "yes")
	}
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building option write")
	}
	if _, err := s.DBConn.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "writing option %q", name)
	}
	return nil
}

func (s *StorageDB) Ping(ctx context.Context) error {
	return s.DBConn.PingContext(ctx)
}

func (s *StorageDB) Close() error {
	return s.DBConn.Close()
}
