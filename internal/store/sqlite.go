package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver

	"github.com/jmylchreest/hyprbar/internal/model"
)

// SchemaVersion is the current database schema version (PRAGMA user_version).
const SchemaVersion = 3

// migrations[i] upgrades a database from version i to i+1.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY,
		app_name TEXT NOT NULL DEFAULT '',
		app_icon TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		urgency INTEGER NOT NULL DEFAULT 1,
		category TEXT NOT NULL DEFAULT '',
		desktop_entry TEXT NOT NULL DEFAULT '',
		actions TEXT NOT NULL DEFAULT '[]',
		transient INTEGER NOT NULL DEFAULT 0,
		resident INTEGER NOT NULL DEFAULT 0,
		expire_timeout INTEGER NOT NULL DEFAULT -1,
		created_at INTEGER NOT NULL,
		closed_at INTEGER NOT NULL DEFAULT 0,
		close_reason INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);`,

	`ALTER TABLE notifications ADD COLUMN read INTEGER NOT NULL DEFAULT 0;
	ALTER TABLE notifications ADD COLUMN uid TEXT NOT NULL DEFAULT '';
	CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);`,

	`CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);
	ALTER TABLE notifications ADD COLUMN progress INTEGER NOT NULL DEFAULT -1;`,
}

// highWaterKey holds the largest id ever deleted, so removing the newest
// rows never lowers the identifier seed.
const highWaterKey = "high_water"

const selectColumns = `id, uid, app_name, app_icon, summary, body, urgency, category,
	desktop_entry, actions, transient, resident, expire_timeout, created_at,
	closed_at, close_reason, read, progress`

// SQLitePersistence implements Persistence on a SQLite database.
type SQLitePersistence struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
func OpenSQLite(path string) (*SQLitePersistence, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		path, (5 * time.Second).Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; the CLI opens its own handle.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &SQLitePersistence{db: db, path: path}
	if err := p.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return p, nil
}

// Path returns the database file path.
func (p *SQLitePersistence) Path() string {
	return p.path
}

func (p *SQLitePersistence) migrate() error {
	var version int
	if err := p.db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return err
	}
	if version > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported %d", version, SchemaVersion)
	}

	for v := version; v < SchemaVersion; v++ {
		tx, err := p.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, v+1)); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// MaxID implements Persistence. Deleted rows still count through the
// high-water mark.
func (p *SQLitePersistence) MaxID(ctx context.Context) (uint64, error) {
	var max int64
	err := p.db.QueryRowContext(ctx, `SELECT MAX(
		COALESCE((SELECT MAX(id) FROM notifications), 0),
		COALESCE((SELECT value FROM meta WHERE key = ?), 0))`, highWaterKey).Scan(&max)
	if err != nil {
		return 0, err
	}
	return uint64(max), nil
}

// Insert implements Persistence.
func (p *SQLitePersistence) Insert(ctx context.Context, n model.Notification) error {
	if model.IsInternalID(n.ID) {
		return ErrInternalID
	}
	actions, err := encodeActions(n.Actions)
	if err != nil {
		return err
	}

	_, err = p.db.ExecContext(ctx, `
	INSERT INTO notifications (id, uid, app_name, app_icon, summary, body, urgency, category,
		desktop_entry, actions, transient, resident, expire_timeout, created_at, closed_at,
		close_reason, read, progress)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(n.ID), n.UID, n.AppName, n.AppIcon, n.Summary, n.Body, n.Urgency, n.Category,
		n.DesktopEntry, actions, n.Transient, n.Resident, n.ExpireTimeout, n.CreatedAt,
		n.ClosedAt, uint32(n.CloseReason), n.Read, n.Progress)
	if err != nil {
		return fmt.Errorf("failed to insert notification %d: %w", n.ID, err)
	}
	return nil
}

// Replace implements Persistence. Lifecycle columns are reset because the
// replacement is shown again as a fresh notification.
func (p *SQLitePersistence) Replace(ctx context.Context, n model.Notification) (bool, error) {
	actions, err := encodeActions(n.Actions)
	if err != nil {
		return false, err
	}

	res, err := p.db.ExecContext(ctx, `
	UPDATE notifications SET app_name = ?, app_icon = ?, summary = ?, body = ?, urgency = ?,
		category = ?, desktop_entry = ?, actions = ?, transient = ?, resident = ?,
		expire_timeout = ?, progress = ?, closed_at = 0, close_reason = 0, read = 0
	WHERE id = ?`,
		n.AppName, n.AppIcon, n.Summary, n.Body, n.Urgency, n.Category, n.DesktopEntry,
		actions, n.Transient, n.Resident, n.ExpireTimeout, n.Progress, int64(n.ID))
	if err != nil {
		return false, fmt.Errorf("failed to replace notification %d: %w", n.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Get implements Persistence.
func (p *SQLitePersistence) Get(ctx context.Context, id uint64) (model.Notification, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM notifications WHERE id = ?`, int64(id))
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Notification{}, ErrNotFound
	}
	return n, err
}

// MarkClosed implements Persistence.
func (p *SQLitePersistence) MarkClosed(ctx context.Context, id uint64, reason model.CloseReason, at time.Time) error {
	var query string
	switch reason {
	case model.CloseReasonDismissed, model.CloseReasonClosed:
		query = `UPDATE notifications SET closed_at = ?, close_reason = ?, read = 1 WHERE id = ?`
	case model.CloseReasonExpired:
		query = `UPDATE notifications SET closed_at = ?, close_reason = ?,
			read = CASE WHEN actions = '[]' THEN 1 ELSE 0 END WHERE id = ?`
	default:
		query = `UPDATE notifications SET closed_at = ?, close_reason = ? WHERE id = ?`
	}

	res, err := p.db.ExecContext(ctx, query, at.Unix(), uint32(reason), int64(id))
	if err != nil {
		return fmt.Errorf("failed to close notification %d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRead implements Persistence.
func (p *SQLitePersistence) SetRead(ctx context.Context, ids []uint64, read bool) (int, error) {
	query := `UPDATE notifications SET read = ?`
	args := []any{read}
	if len(ids) > 0 {
		query += ` WHERE id IN (` + placeholders(len(ids)) + `)`
		args = appendIDs(args, ids)
	}

	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update read state: %w", err)
	}
	affected, err := res.RowsAffected()
	return int(affected), err
}

// List implements Persistence.
func (p *SQLitePersistence) List(ctx context.Context, opts FilterOptions) ([]model.Notification, error) {
	var (
		where []string
		args  []any
	)
	if opts.Since > 0 {
		where = append(where, `created_at >= ?`)
		args = append(args, time.Now().Add(-opts.Since).Unix())
	}
	if opts.App != "" {
		where = append(where, `app_name = ?`)
		args = append(args, opts.App)
	}
	if opts.Query != "" {
		where = append(where, `(summary LIKE ? OR body LIKE ?)`)
		like := "%" + opts.Query + "%"
		args = append(args, like, like)
	}
	if opts.Urgency != nil {
		where = append(where, `urgency = ?`)
		args = append(args, *opts.Urgency)
	}
	if opts.Unread {
		where = append(where, `read = 0`)
	}
	if opts.OpenOnly {
		where = append(where, `closed_at = 0`)
	}

	query := `SELECT ` + selectColumns + ` FROM notifications`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	if opts.Ascending {
		query += ` ORDER BY created_at ASC, id ASC`
	} else {
		query += ` ORDER BY created_at DESC, id DESC`
	}
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

// Delete implements Persistence.
func (p *SQLitePersistence) Delete(ctx context.Context, ids []uint64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO meta (key, value)
		SELECT ?, COALESCE(MAX(id), 0) FROM notifications WHERE true
		ON CONFLICT(key) DO UPDATE SET value = MAX(value, excluded.value)`, highWaterKey)
	if err != nil {
		return 0, fmt.Errorf("failed to record id high-water mark: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM notifications WHERE id IN (`+placeholders(len(ids))+`)`, appendIDs(nil, ids)...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(affected), nil
}

// Prune implements Persistence. The row holding MAX(id) is never removed so
// the identifier seed survives a prune.
func (p *SQLitePersistence) Prune(ctx context.Context, cutoff time.Time, keep int) (int, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	total := 0
	if !cutoff.IsZero() {
		res, err := tx.ExecContext(ctx, `DELETE FROM notifications WHERE created_at < ?
			AND id <> (SELECT MAX(id) FROM notifications)`, cutoff.Unix())
		if err != nil {
			return 0, fmt.Errorf("failed to prune by age: %w", err)
		}
		n, _ := res.RowsAffected()
		total += int(n)
	}
	if keep > 0 {
		res, err := tx.ExecContext(ctx, `DELETE FROM notifications WHERE id NOT IN (
			SELECT id FROM notifications ORDER BY created_at DESC, id DESC LIMIT ?)
			AND id <> (SELECT MAX(id) FROM notifications)`, keep)
		if err != nil {
			return 0, fmt.Errorf("failed to prune by count: %w", err)
		}
		n, _ := res.RowsAffected()
		total += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

// UnreadCount implements Persistence.
func (p *SQLitePersistence) UnreadCount(ctx context.Context) (int, error) {
	var count int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE read = 0`).Scan(&count)
	return count, err
}

// Close implements Persistence.
func (p *SQLitePersistence) Close() error {
	return p.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (model.Notification, error) {
	var (
		n       model.Notification
		id      int64
		actions string
		reason  uint32
	)
	err := row.Scan(&id, &n.UID, &n.AppName, &n.AppIcon, &n.Summary, &n.Body, &n.Urgency,
		&n.Category, &n.DesktopEntry, &actions, &n.Transient, &n.Resident, &n.ExpireTimeout,
		&n.CreatedAt, &n.ClosedAt, &reason, &n.Read, &n.Progress)
	if err != nil {
		return model.Notification{}, err
	}
	n.ID = uint64(id)
	n.Origin = model.OriginBus
	n.CloseReason = model.CloseReason(reason)
	n.Persisted = true
	n.Actions = decodeActions(actions)
	return n, nil
}

// Actions are stored as a JSON array of [key, label] pairs.
func encodeActions(actions []model.Action) (string, error) {
	pairs := make([][2]string, 0, len(actions))
	for _, a := range actions {
		pairs = append(pairs, [2]string{a.Key, a.Label})
	}
	data, err := json.Marshal(pairs)
	if err != nil {
		return "", fmt.Errorf("failed to encode actions: %w", err)
	}
	return string(data), nil
}

func decodeActions(data string) []model.Action {
	var pairs [][2]string
	if err := json.Unmarshal([]byte(data), &pairs); err != nil || len(pairs) == 0 {
		return nil
	}
	actions := make([]model.Action, 0, len(pairs))
	for _, p := range pairs {
		actions = append(actions, model.Action{Key: p[0], Label: p[1]})
	}
	return actions
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func appendIDs(args []any, ids []uint64) []any {
	for _, id := range ids {
		args = append(args, int64(id))
	}
	return args
}
