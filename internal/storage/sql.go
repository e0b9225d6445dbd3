package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/azure/mentions-dashboard/internal/models"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLStorage persists records through database/sql (SQLite or PostgreSQL)
type SQLStorage struct {
	db      *sql.DB
	dialect string
	now     func() time.Time
}

// Ensure SQLStorage implements Storage
var _ Storage = (*SQLStorage)(nil)

// OpenSQL opens the database, applies the schema and returns the backend.
// For sqlite the dsn is a file path; for postgres a lib/pq connection string.
func OpenSQL(dialect, dsn string, opts ...Option) (*SQLStorage, error) {
	var driverName string
	switch dialect {
	case "sqlite":
		driverName = "sqlite"
		dsn = sqliteDSN(dsn)
	case "postgres":
		driverName = "postgres"
	default:
		return nil, fmt.Errorf("unsupported SQL dialect %q", dialect)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	o := buildOptions(opts)
	s := &SQLStorage{db: db, dialect: dialect, now: o.now}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	logrus.Infof("Opened %s storage", dialect)
	return s, nil
}

// sqliteDSN adds the busy timeout, WAL journal and a sortable time format
func sqliteDSN(path string) string {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
}

// Close closes the database
func (s *SQLStorage) Close() error {
	return s.db.Close()
}

func (s *SQLStorage) initSchema(ctx context.Context) error {
	r := strings.NewReplacer(
		"{{id}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ts}}", "TIMESTAMP",
		"{{real}}", "REAL",
	)
	if s.dialect == "postgres" {
		r = strings.NewReplacer(
			"{{id}}", "BIGSERIAL PRIMARY KEY",
			"{{ts}}", "TIMESTAMPTZ",
			"{{real}}", "DOUBLE PRECISION",
		)
	}

	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, r.Replace(stmt)); err != nil {
			return err
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS mentions (
		id {{id}},
		content TEXT NOT NULL,
		source TEXT NOT NULL,
		source_url TEXT,
		author TEXT,
		published_at {{ts}} NOT NULL,
		collected_at {{ts}} NOT NULL,
		sentiment TEXT,
		sentiment_score {{real}},
		tags TEXT NOT NULL DEFAULT '[]',
		is_processed BOOLEAN NOT NULL DEFAULT FALSE,
		is_starred BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_mentions_collected ON mentions(collected_at)`,
	`CREATE INDEX IF NOT EXISTS idx_mentions_published ON mentions(published_at)`,
	`CREATE INDEX IF NOT EXISTS idx_mentions_source ON mentions(source)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id {{id}},
		name TEXT NOT NULL UNIQUE,
		color TEXT NOT NULL,
		created_at {{ts}} NOT NULL,
		usage_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS search_queries (
		id {{id}},
		query TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at {{ts}} NOT NULL,
		last_executed {{ts}}
	)`,
	`CREATE TABLE IF NOT EXISTS reports (
		id {{id}},
		title TEXT NOT NULL,
		date_range TEXT NOT NULL,
		filters TEXT,
		generated_at {{ts}} NOT NULL,
		total_mentions INTEGER NOT NULL DEFAULT 0,
		positive_count INTEGER NOT NULL DEFAULT 0,
		neutral_count INTEGER NOT NULL DEFAULT 0,
		negative_count INTEGER NOT NULL DEFAULT 0,
		summary TEXT NOT NULL DEFAULT ''
	)`,
}

// rebind rewrites ? placeholders into $n for postgres
func (s *SQLStorage) rebind(query string) string {
	if s.dialect != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type rowScanner interface {
	Scan(dest ...any) error
}

const mentionColumns = `id, content, source, source_url, author, published_at, collected_at,
	sentiment, sentiment_score, tags, is_processed, is_starred`

func scanMention(row rowScanner) (*models.Mention, error) {
	var (
		m         models.Mention
		sourceURL sql.NullString
		author    sql.NullString
		sentiment sql.NullString
		score     sql.NullFloat64
		tags      string
	)
	err := row.Scan(&m.ID, &m.Content, &m.Source, &sourceURL, &author, &m.PublishedAt, &m.CollectedAt,
		&sentiment, &score, &tags, &m.IsProcessed, &m.IsStarred)
	if err != nil {
		return nil, err
	}

	if sourceURL.Valid {
		m.SourceURL = &sourceURL.String
	}
	if author.Valid {
		m.Author = &author.String
	}
	if sentiment.Valid {
		label := models.Sentiment(sentiment.String)
		m.Sentiment = &label
	}
	if score.Valid {
		m.SentimentScore = &score.Float64
	}
	if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of mention %d: %w", m.ID, err)
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	m.PublishedAt = m.PublishedAt.UTC()
	m.CollectedAt = m.CollectedAt.UTC()
	return &m, nil
}

func mentionArgs(m *models.Mention) ([]any, error) {
	tags, err := json.Marshal(models.NormalizeTags(m.Tags))
	if err != nil {
		return nil, err
	}

	var sentiment, score any
	if m.Sentiment != nil {
		sentiment = string(*m.Sentiment)
	}
	if m.SentimentScore != nil {
		score = *m.SentimentScore
	}
	return []any{m.Content, m.Source, nullString(m.SourceURL), nullString(m.Author),
		m.PublishedAt.UTC(), sentiment, score, string(tags), m.IsProcessed, m.IsStarred}, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func (s *SQLStorage) CreateMention(ctx context.Context, m *models.Mention) (*models.Mention, error) {
	args, err := mentionArgs(m)
	if err != nil {
		return nil, wrapErr("create mention", err)
	}
	collectedAt := s.now().UTC()
	args = append(args, collectedAt)

	query := s.rebind(`INSERT INTO mentions (content, source, source_url, author, published_at,
		sentiment, sentiment_score, tags, is_processed, is_starred, collected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)

	var id int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return nil, wrapErr("create mention", err)
	}
	return s.GetMention(ctx, id)
}

func (s *SQLStorage) GetMention(ctx context.Context, id int64) (*models.Mention, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+mentionColumns+` FROM mentions WHERE id = ?`), id)
	m, err := scanMention(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, wrapErr("get mention", err)
}

func (s *SQLStorage) ListMentions(ctx context.Context, filter models.MentionFilter) ([]*models.Mention, error) {
	var (
		where []string
		args  []any
	)
	if filter.Sentiment != nil {
		where = append(where, "sentiment = ?")
		args = append(args, string(*filter.Sentiment))
	}
	if filter.Source != "" {
		where = append(where, "source = ?")
		args = append(args, filter.Source)
	}
	if filter.StartDate != nil {
		where = append(where, "published_at >= ?")
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		where = append(where, "published_at <= ?")
		args = append(args, filter.EndDate.UTC())
	}

	query := `SELECT ` + mentionColumns + ` FROM mentions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY collected_at DESC, id DESC"

	// Tag membership lives in a JSON column, so tag-filtered pages are cut in Go.
	paginateInSQL := len(filter.Tags) == 0 && filter.Limit > 0
	if paginateInSQL {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, wrapErr("list mentions", err)
	}
	defer rows.Close()

	mentions := []*models.Mention{}
	for rows.Next() {
		m, err := scanMention(rows)
		if err != nil {
			return nil, wrapErr("list mentions", err)
		}
		if filter.Matches(m) {
			mentions = append(mentions, m)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list mentions", err)
	}

	if paginateInSQL {
		return mentions, nil
	}
	return models.Paginate(mentions, filter.Limit, filter.Offset), nil
}

func (s *SQLStorage) UpdateMention(ctx context.Context, id int64, patch models.MentionPatch) (*models.Mention, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapErr("update mention", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, s.rebind(`SELECT `+mentionColumns+` FROM mentions WHERE id = ?`), id)
	m, err := scanMention(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("update mention", err)
	}

	patch.Apply(m)
	args, err := mentionArgs(m)
	if err != nil {
		return nil, wrapErr("update mention", err)
	}
	args = append(args, id)

	_, err = tx.ExecContext(ctx, s.rebind(`UPDATE mentions SET content = ?, source = ?, source_url = ?,
		author = ?, published_at = ?, sentiment = ?, sentiment_score = ?, tags = ?,
		is_processed = ?, is_starred = ? WHERE id = ?`), args...)
	if err != nil {
		return nil, wrapErr("update mention", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, wrapErr("update mention", err)
	}
	return m, nil
}

func (s *SQLStorage) DeleteMention(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, "mentions", id)
}

func (s *SQLStorage) deleteByID(ctx context.Context, table string, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM `+table+` WHERE id = ?`), id)
	if err != nil {
		return false, wrapErr("delete from "+table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr("delete from "+table, err)
	}
	return n > 0, nil
}

const tagColumns = `id, name, color, created_at, usage_count`

func scanTag(row rowScanner) (*models.Tag, error) {
	var t models.Tag
	if err := row.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt, &t.UsageCount); err != nil {
		return nil, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

func (s *SQLStorage) ListTags(ctx context.Context) ([]*models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+tagColumns+` FROM tags ORDER BY usage_count DESC, name ASC`)
	if err != nil {
		return nil, wrapErr("list tags", err)
	}
	defer rows.Close()

	tags := []*models.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, wrapErr("list tags", err)
		}
		tags = append(tags, t)
	}
	return tags, wrapErr("list tags", rows.Err())
}

func (s *SQLStorage) GetTagByName(ctx context.Context, name string) (*models.Tag, error) {
	t, err := scanTag(s.db.QueryRowContext(ctx, s.rebind(`SELECT `+tagColumns+` FROM tags WHERE name = ?`), name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, wrapErr("get tag", err)
}

func (s *SQLStorage) getTag(ctx context.Context, id int64) (*models.Tag, error) {
	t, err := scanTag(s.db.QueryRowContext(ctx, s.rebind(`SELECT `+tagColumns+` FROM tags WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, wrapErr("get tag", err)
}

func (s *SQLStorage) CreateTag(ctx context.Context, name, color string) (*models.Tag, error) {
	if color == "" {
		color = models.DefaultTagColor
	}

	var id int64
	err := s.db.QueryRowContext(ctx,
		s.rebind(`INSERT INTO tags (name, color, created_at, usage_count) VALUES (?, ?, ?, 0) RETURNING id`),
		name, color, s.now().UTC()).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrTagExists
		}
		return nil, wrapErr("create tag", err)
	}
	return s.getTag(ctx, id)
}

func (s *SQLStorage) IncrementTagUsage(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`UPDATE tags SET usage_count = usage_count + 1 WHERE name = ?`), name)
	return wrapErr("increment tag usage", err)
}

func (s *SQLStorage) UpdateTag(ctx context.Context, id int64, patch models.TagPatch) (*models.Tag, error) {
	t, err := s.getTag(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		t.Name = *patch.Name
	}
	if patch.Color != nil {
		t.Color = *patch.Color
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`UPDATE tags SET name = ?, color = ? WHERE id = ?`), t.Name, t.Color, id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrTagExists
		}
		return nil, wrapErr("update tag", err)
	}
	return t, nil
}

func (s *SQLStorage) DeleteTag(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, "tags", id)
}

const queryColumns = `id, query, is_active, created_at, last_executed`

func scanQuery(row rowScanner) (*models.SearchQuery, error) {
	var (
		q            models.SearchQuery
		lastExecuted sql.NullTime
	)
	if err := row.Scan(&q.ID, &q.Query, &q.IsActive, &q.CreatedAt, &lastExecuted); err != nil {
		return nil, err
	}
	q.CreatedAt = q.CreatedAt.UTC()
	if lastExecuted.Valid {
		at := lastExecuted.Time.UTC()
		q.LastExecuted = &at
	}
	return &q, nil
}

func (s *SQLStorage) ListSearchQueries(ctx context.Context) ([]*models.SearchQuery, error) {
	return s.listQueries(ctx, `SELECT `+queryColumns+` FROM search_queries ORDER BY created_at DESC, id DESC`)
}

func (s *SQLStorage) ListActiveSearchQueries(ctx context.Context) ([]*models.SearchQuery, error) {
	return s.listQueries(ctx, `SELECT `+queryColumns+` FROM search_queries WHERE is_active = TRUE ORDER BY created_at DESC, id DESC`)
}

func (s *SQLStorage) listQueries(ctx context.Context, query string) ([]*models.SearchQuery, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapErr("list search queries", err)
	}
	defer rows.Close()

	queries := []*models.SearchQuery{}
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, wrapErr("list search queries", err)
		}
		queries = append(queries, q)
	}
	return queries, wrapErr("list search queries", rows.Err())
}

func (s *SQLStorage) getQuery(ctx context.Context, id int64) (*models.SearchQuery, error) {
	q, err := scanQuery(s.db.QueryRowContext(ctx, s.rebind(`SELECT `+queryColumns+` FROM search_queries WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return q, wrapErr("get search query", err)
}

func (s *SQLStorage) CreateSearchQuery(ctx context.Context, query string, isActive *bool) (*models.SearchQuery, error) {
	active := isActive == nil || *isActive

	var id int64
	err := s.db.QueryRowContext(ctx,
		s.rebind(`INSERT INTO search_queries (query, is_active, created_at) VALUES (?, ?, ?) RETURNING id`),
		query, active, s.now().UTC()).Scan(&id)
	if err != nil {
		return nil, wrapErr("create search query", err)
	}
	return s.getQuery(ctx, id)
}

func (s *SQLStorage) UpdateSearchQuery(ctx context.Context, id int64, patch models.SearchQueryPatch) (*models.SearchQuery, error) {
	q, err := s.getQuery(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Query != nil {
		q.Query = *patch.Query
	}
	if patch.IsActive != nil {
		q.IsActive = *patch.IsActive
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`UPDATE search_queries SET query = ?, is_active = ? WHERE id = ?`),
		q.Query, q.IsActive, id)
	if err != nil {
		return nil, wrapErr("update search query", err)
	}
	return q, nil
}

func (s *SQLStorage) MarkSearchQueryExecuted(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE search_queries SET last_executed = ? WHERE id = ?`), at.UTC(), id)
	if err != nil {
		return wrapErr("mark search query executed", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("mark search query executed", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStorage) DeleteSearchQuery(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, "search_queries", id)
}

const reportColumns = `id, title, date_range, filters, generated_at, total_mentions,
	positive_count, neutral_count, negative_count, summary`

func scanReport(row rowScanner) (*models.Report, error) {
	var (
		r       models.Report
		filters sql.NullString
	)
	err := row.Scan(&r.ID, &r.Title, &r.DateRange, &filters, &r.GeneratedAt, &r.TotalMentions,
		&r.PositiveCount, &r.NeutralCount, &r.NegativeCount, &r.Summary)
	if err != nil {
		return nil, err
	}
	r.Filters = filters.String
	r.GeneratedAt = r.GeneratedAt.UTC()
	return &r, nil
}

func (s *SQLStorage) CreateReport(ctx context.Context, r *models.Report) (*models.Report, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(`INSERT INTO reports (title, date_range, filters, generated_at,
		total_mentions, positive_count, neutral_count, negative_count, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		r.Title, r.DateRange, r.Filters, s.now().UTC(),
		r.TotalMentions, r.PositiveCount, r.NeutralCount, r.NegativeCount, r.Summary).Scan(&id)
	if err != nil {
		return nil, wrapErr("create report", err)
	}
	return s.GetReport(ctx, id)
}

func (s *SQLStorage) ListReports(ctx context.Context) ([]*models.Report, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+reportColumns+` FROM reports ORDER BY generated_at DESC, id DESC`)
	if err != nil {
		return nil, wrapErr("list reports", err)
	}
	defer rows.Close()

	reports := []*models.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, wrapErr("list reports", err)
		}
		reports = append(reports, r)
	}
	return reports, wrapErr("list reports", rows.Err())
}

func (s *SQLStorage) GetReport(ctx context.Context, id int64) (*models.Report, error) {
	r, err := scanReport(s.db.QueryRowContext(ctx, s.rebind(`SELECT `+reportColumns+` FROM reports WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, wrapErr("get report", err)
}

func (s *SQLStorage) DeleteReport(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, "reports", id)
}
