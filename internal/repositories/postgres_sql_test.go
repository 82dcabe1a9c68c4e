package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"helpinghands/internal/models"
)

// ===============================
// RECORDING DRIVER
// ===============================

// statement is one call seen by the driver
type statement struct {
	query string
	args  []driver.Value
}

// reply is what the driver answers to the next statement
type reply struct {
	columns  []string
	rows     [][]driver.Value
	affected int64
	err      error
}

// recordingConn records every statement and answers from a queue of replies
type recordingConn struct {
	mu      sync.Mutex
	calls   []statement
	replies []reply
}

func (c *recordingConn) Connect(context.Context) (driver.Conn, error) { return c, nil }
func (c *recordingConn) Driver() driver.Driver                      { return recordingDriver{c} }

type recordingDriver struct{ c *recordingConn }

func (d recordingDriver) Open(string) (driver.Conn, error) { return d.c, nil }

func (c *recordingConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements are not supported")
}

func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) Begin() (driver.Tx, error) {
	c.record("BEGIN", nil)
	return recordingTx{c}, nil
}

func (c *recordingConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	r := c.record(query, args)
	if r.err != nil {
		return nil, r.err
	}
	return &recordingRows{columns: r.columns, rows: r.rows}, nil
}

func (c *recordingConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	r := c.record(query, args)
	if r.err != nil {
		return nil, r.err
	}
	return driver.RowsAffected(r.affected), nil
}

func (c *recordingConn) record(query string, args []driver.NamedValue) reply {
	c.mu.Lock()
	defer c.mu.Unlock()

	values := make([]driver.Value, len(args))
	for i, a := range args {
		values[i] = a.Value
	}
	c.calls = append(c.calls, statement{query: query, args: values})

	if query == "BEGIN" || query == "COMMIT" || query == "ROLLBACK" || len(c.replies) == 0 {
		return reply{}
	}
	next := c.replies[0]
	c.replies = c.replies[1:]
	return next
}

func (c *recordingConn) expect(replies ...reply) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, replies...)
}

func (c *recordingConn) last(t *testing.T) statement {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.calls)
	return c.calls[len(c.calls)-1]
}

func (c *recordingConn) queries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	for i, s := range c.calls {
		out[i] = s.query
	}
	return out
}

type recordingTx struct{ c *recordingConn }

func (tx recordingTx) Commit() error   { tx.c.record("COMMIT", nil); return nil }
func (tx recordingTx) Rollback() error { tx.c.record("ROLLBACK", nil); return nil }

type recordingRows struct {
	columns []string
	rows    [][]driver.Value
}

func (r *recordingRows) Columns() []string { return r.columns }
func (r *recordingRows) Close() error      { return nil }

func (r *recordingRows) Next(dest []driver.Value) error {
	if len(r.rows) == 0 {
		return io.EOF
	}
	copy(dest, r.rows[0])
	r.rows = r.rows[1:]
	return nil
}

func newRecordingDB(t *testing.T) (*sql.DB, *recordingConn) {
	t.Helper()
	conn := &recordingConn{}
	db := sql.OpenDB(conn)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db, conn
}

func newRecordingBase(t *testing.T) (*BaseRepository, *recordingConn) {
	db, conn := newRecordingDB(t)
	return NewBaseRepository(db, nil, zap.NewNop()), conn
}

// compact collapses whitespace so assertions do not depend on indentation
func compact(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

func columnsOf(list string) []string {
	parts := strings.Split(list, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

var sqlNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func campaignRow(id, collected int64) reply {
	return reply{
		columns: columnsOf(campaignColumns),
		rows:    [][]driver.Value{{id, "Wells", "Healthcare", "Clean water", int64(1000), collected, "active", int64(1), sqlNow}},
	}
}

func userRow(id, points int64) reply {
	return reply{
		columns: columnsOf(userColumns),
		rows:    [][]driver.Value{{id, "Vol", "vol@example.com", "hash", "volunteer", points, "None", sqlNow}},
	}
}

func taskRow(id int64, status string, points int64) reply {
	return reply{
		columns: columnsOf(taskColumns),
		rows:    [][]driver.Value{{id, int64(5), "Sort", "Warehouse", "https://r.example.com/1", points, status, int64(1), sqlNow}},
	}
}

func requestRow(id int64, status string) reply {
	return reply{
		columns: columnsOf(requestColumns),
		rows:    [][]driver.Value{{id, int64(3), int64(2), "help", nil, status, int64(1), sqlNow, sqlNow}},
	}
}

func noRows(columns string) reply {
	return reply{columns: columnsOf(columns)}
}

var overflow = &pq.Error{Code: "22003", Message: "bigint out of range"}

// ===============================
// ATOMIC INCREMENTS
// ===============================

func TestPostgresIncrementCollected(t *testing.T) {
	base, conn := newRecordingBase(t)
	repo := &campaignRepository{BaseRepository: base}
	ctx := context.Background()

	conn.expect(campaignRow(7, 450))
	c, err := repo.IncrementCollected(ctx, 7, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(450), c.CollectedAmount)
	assert.Equal(t, models.CampaignActive, c.Status)

	stmt := conn.last(t)
	q := compact(stmt.query)
	assert.Contains(t, q, "UPDATE campaigns SET collected_amount = collected_amount + $2")
	assert.Contains(t, q, "WHERE id = $1 AND status = 'active'")
	assert.Contains(t, q, "RETURNING "+campaignColumns)
	assert.Equal(t, []driver.Value{int64(7), int64(50)}, stmt.args)

	// inactive or missing campaigns match no row
	conn.expect(noRows(campaignColumns))
	_, err = repo.IncrementCollected(ctx, 8, 50)
	assert.ErrorIs(t, err, ErrNotFound)

	conn.expect(reply{err: overflow})
	_, err = repo.IncrementCollected(ctx, 7, 50)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestPostgresAddPoints(t *testing.T) {
	base, conn := newRecordingBase(t)
	repo := &userRepository{BaseRepository: base}
	ctx := context.Background()

	conn.expect(userRow(4, 310))
	u, err := repo.AddPoints(ctx, 4, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(310), u.Points)
	assert.Equal(t, models.RoleVolunteer, u.Role)

	stmt := conn.last(t)
	q := compact(stmt.query)
	assert.Contains(t, q, "UPDATE users SET points = points + $2 WHERE id = $1")
	assert.Equal(t, []driver.Value{int64(4), int64(30)}, stmt.args)

	conn.expect(noRows(userColumns))
	_, err = repo.AddPoints(ctx, 99, 30)
	assert.ErrorIs(t, err, ErrNotFound)

	conn.expect(reply{err: overflow})
	_, err = repo.AddPoints(ctx, 4, 30)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestPostgresSetBadge(t *testing.T) {
	base, conn := newRecordingBase(t)
	repo := &userRepository{BaseRepository: base}
	ctx := context.Background()

	conn.expect(reply{affected: 1})
	require.NoError(t, repo.SetBadge(ctx, 4, models.BadgeSilver))
	stmt := conn.last(t)
	assert.Equal(t, "UPDATE users SET badge = $2 WHERE id = $1", compact(stmt.query))
	assert.Equal(t, []driver.Value{int64(4), "Silver"}, stmt.args)

	conn.expect(reply{affected: 0})
	assert.ErrorIs(t, repo.SetBadge(ctx, 5, models.BadgeSilver), ErrNotFound)
}

// ===============================
// CONDITIONAL TRANSITIONS
// ===============================

func TestPostgresTaskTransitions(t *testing.T) {
	base, conn := newRecordingBase(t)
	repo := &volunteerTaskRepository{BaseRepository: base}
	ctx := context.Background()

	conn.expect(taskRow(9, "submitted", 0))
	task, err := repo.SubmitReport(ctx, 9, "https://r.example.com/1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskSubmitted, task.Status)
	require.NotNil(t, task.ReportURL)

	stmt := conn.last(t)
	q := compact(stmt.query)
	assert.Contains(t, q, "SET report_url = $2, status = 'submitted'")
	assert.Contains(t, q, "WHERE id = $1 AND status <> 'approved'")
	assert.Equal(t, []driver.Value{int64(9), "https://r.example.com/1"}, stmt.args)

	conn.expect(taskRow(9, "approved", 30))
	task, err = repo.Approve(ctx, 9, 30)
	require.NoError(t, err)
	assert.Equal(t, models.TaskApproved, task.Status)
	assert.Equal(t, int64(30), task.PointsEarned)

	stmt = conn.last(t)
	q = compact(stmt.query)
	assert.Contains(t, q, "SET points_earned = $2, status = 'approved'")
	assert.Contains(t, q, "WHERE id = $1 AND status = 'submitted'")
	assert.Equal(t, []driver.Value{int64(9), int64(30)}, stmt.args)

	// a second approval finds the row already moved on
	conn.expect(noRows(taskColumns))
	_, err = repo.Approve(ctx, 9, 30)
	assert.ErrorIs(t, err, ErrStale)

	conn.expect(noRows(taskColumns))
	_, err = repo.SubmitReport(ctx, 9, "https://r.example.com/2")
	assert.ErrorIs(t, err, ErrStale)
}

func TestPostgresRequestReview(t *testing.T) {
	base, conn := newRecordingBase(t)
	repo := &beneficiaryRequestRepository{BaseRepository: base}
	ctx := context.Background()

	conn.expect(requestRow(11, "approved"))
	req, err := repo.Review(ctx, 11, models.RequestApproved, 1, sqlNow)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, req.Status)
	require.NotNil(t, req.ReviewedBy)
	assert.Equal(t, int64(1), *req.ReviewedBy)
	assert.Nil(t, req.DocumentURL)

	stmt := conn.last(t)
	q := compact(stmt.query)
	assert.Contains(t, q, "SET status = $2, reviewed_by = $3, reviewed_at = $4")
	assert.Contains(t, q, "WHERE id = $1 AND status = 'pending'")
	assert.Equal(t, []driver.Value{int64(11), "approved", int64(1), sqlNow}, stmt.args)

	conn.expect(noRows(requestColumns))
	_, err = repo.Review(ctx, 11, models.RequestRejected, 1, sqlNow)
	assert.ErrorIs(t, err, ErrStale)
}

// ===============================
// ERRORS AND TRANSACTIONS
// ===============================

func TestMapError(t *testing.T) {
	base := NewBaseRepository(nil, nil, nil)

	assert.NoError(t, base.mapError(nil))
	assert.ErrorIs(t, base.mapError(sql.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, base.mapError(&pq.Error{Code: "23505", Constraint: "users_email_key"}), ErrDuplicate)
	assert.ErrorIs(t, base.mapError(fmt.Errorf("scan: %w", overflow)), ErrOutOfRange)

	other := &pq.Error{Code: "40001"}
	assert.Equal(t, other, base.mapError(other))
}

func TestWithTransactionCommitsOrRollsBack(t *testing.T) {
	db, conn := newRecordingDB(t)
	ctx := context.Background()

	err := withTransaction(ctx, db, nil, zap.NewNop(), func(tx *sql.Tx) error {
		repo := &userRepository{BaseRepository: NewBaseRepository(tx, nil, nil)}
		conn.expect(reply{affected: 1})
		return repo.SetBadge(ctx, 1, models.BadgeGold)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"BEGIN", "UPDATE users SET badge = $2 WHERE id = $1", "COMMIT"}, conn.queries())

	db, conn = newRecordingDB(t)
	err = withTransaction(ctx, db, nil, zap.NewNop(), func(tx *sql.Tx) error {
		repo := &campaignRepository{BaseRepository: NewBaseRepository(tx, nil, nil)}
		conn.expect(reply{err: overflow})
		_, err := repo.IncrementCollected(ctx, 7, 50)
		return err
	})
	assert.ErrorIs(t, err, ErrOutOfRange)

	queries := conn.queries()
	require.Len(t, queries, 3)
	assert.Equal(t, "BEGIN", queries[0])
	assert.Equal(t, "ROLLBACK", queries[2])
}
