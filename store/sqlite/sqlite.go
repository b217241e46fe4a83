/*
Package sqlite provides the SQLite-backed implementation of the leave stores.

PURPOSE:
  Implements leave.RecordStore and leave.PolicyStore using SQLite. In
  production, the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  leave_records:  Raw leave records plus the engine's derived columns
  leave_policies: The tenant's quota policy (working days, allocations)

DERIVED COLUMNS:
  days, allocation_total, allocation_used, balance, limit_reached are
  owned by the recompute engine. The store exposes UpdateDerived as the
  only write path touching them after creation; everything else treats
  them as a cache the next sweep may overwrite.

INSERTION ORDER:
  Every record gets a monotonically increasing seq at insert. The engine
  uses it to break ties between records sharing a start date, keeping
  recomputation reproducible across sweeps.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  st, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

  svc := leave.NewService(st, st)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - leave/store.go: Interface definitions
  - leave/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/quota"
)

// Store implements the leave storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

var _ leave.RecordStore = (*Store)(nil)
var _ leave.PolicyStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS leave_records (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		person_id TEXT NOT NULL,
		person_name TEXT NOT NULL DEFAULT '',
		job_level TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL DEFAULT '',
		end_date TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,

		-- Derived columns, written by the recompute engine only
		days TEXT NOT NULL DEFAULT '0',
		allocation_total TEXT NOT NULL DEFAULT '0',
		allocation_used TEXT NOT NULL DEFAULT '0',
		balance TEXT NOT NULL DEFAULT '0',
		limit_reached INTEGER NOT NULL DEFAULT 0,

		submitted_at TEXT,
		approved_at TEXT,
		registered_date TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Person+period recomputation is the hot path
	CREATE INDEX IF NOT EXISTS idx_leave_records_person_date
		ON leave_records(person_id, start_date);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_leave_records_seq
		ON leave_records(seq);

	CREATE INDEX IF NOT EXISTS idx_leave_records_status
		ON leave_records(status);

	-- Single-tenant policy row
	CREATE TABLE IF NOT EXISTS leave_policies (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		quota_type TEXT NOT NULL,
		working_days TEXT NOT NULL,
		allocations TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORD STORE (leave.RecordStore interface)
// =============================================================================

const recordColumns = `id, seq, person_id, person_name, job_level, category, reason,
	start_date, end_date, status,
	days, allocation_total, allocation_used, balance, limit_reached,
	submitted_at, approved_at, registered_date, created_at, updated_at`

// Get returns a single record by ID.
func (s *Store) Get(ctx context.Context, id quota.RecordID) (*leave.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM leave_records WHERE id = ?`, string(id))

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, leave.ErrRecordNotFound
	}
	return rec, err
}

// List returns all records in insertion order.
func (s *Store) List(ctx context.Context) ([]*leave.Record, error) {
	return s.query(ctx, `SELECT `+recordColumns+` FROM leave_records ORDER BY seq`)
}

// ListByPerson returns one person's records in insertion order.
func (s *Store) ListByPerson(ctx context.Context, personID leave.PersonID) ([]*leave.Record, error) {
	return s.query(ctx,
		`SELECT `+recordColumns+` FROM leave_records WHERE person_id = ? ORDER BY seq`,
		string(personID))
}

// Create inserts a record and assigns its seq.
func (s *Store) Create(ctx context.Context, rec *leave.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM leave_records`).Scan(&seq); err != nil {
		return err
	}
	rec.Seq = seq

	_, err = tx.ExecContext(ctx, `
		INSERT INTO leave_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.ID), rec.Seq, string(rec.PersonID), rec.PersonName, rec.JobLevel,
		rec.Category, rec.Reason,
		dateColumn(rec.StartDate), dateColumn(rec.EndDate), string(rec.Status),
		rec.Days.String(), rec.AllocationTotal.String(), rec.AllocationUsed.String(),
		rec.Balance.String(), boolColumn(rec.LimitReached),
		timeColumn(rec.SubmittedAt), timeColumn(rec.ApprovedAt), rec.RegisteredDate,
		rec.CreatedAt.UTC().Format(time.RFC3339), rec.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return tx.Commit()
}

// Update writes the caller-owned fields. Seq and the derived columns are
// untouched; use UpdateDerived for the latter.
func (s *Store) Update(ctx context.Context, rec *leave.Record) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE leave_records SET
			person_name = ?, job_level = ?, category = ?, reason = ?,
			start_date = ?, end_date = ?, status = ?,
			submitted_at = ?, approved_at = ?, registered_date = ?, updated_at = ?
		WHERE id = ?`,
		rec.PersonName, rec.JobLevel, rec.Category, rec.Reason,
		dateColumn(rec.StartDate), dateColumn(rec.EndDate), string(rec.Status),
		timeColumn(rec.SubmittedAt), timeColumn(rec.ApprovedAt), rec.RegisteredDate,
		rec.UpdatedAt.UTC().Format(time.RFC3339),
		string(rec.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return requireRow(res)
}

// UpdateDerived writes back only the engine-owned columns.
func (s *Store) UpdateDerived(ctx context.Context, id quota.RecordID, f quota.DerivedFields) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE leave_records SET
			days = ?, allocation_total = ?, allocation_used = ?,
			balance = ?, limit_reached = ?
		WHERE id = ?`,
		f.Days.String(), f.AllocationTotal.String(), f.AllocationUsed.String(),
		f.Balance.String(), boolColumn(f.LimitReached),
		string(id),
	)
	if err != nil {
		return fmt.Errorf("failed to update derived columns: %w", err)
	}
	return requireRow(res)
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, id quota.RecordID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM leave_records WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return requireRow(res)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]*leave.Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []*leave.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// =============================================================================
// POLICY STORE (leave.PolicyStore interface)
// =============================================================================

// GetPolicy loads the tenant policy.
func (s *Store) GetPolicy(ctx context.Context) (quota.Policy, error) {
	var quotaType, workingDays, allocations string
	err := s.db.QueryRowContext(ctx,
		`SELECT quota_type, working_days, allocations FROM leave_policies WHERE id = 1`).
		Scan(&quotaType, &workingDays, &allocations)
	if err == sql.ErrNoRows {
		return quota.Policy{}, leave.ErrPolicyNotFound
	}
	if err != nil {
		return quota.Policy{}, err
	}

	var wd []int
	if err := json.Unmarshal([]byte(workingDays), &wd); err != nil {
		return quota.Policy{}, fmt.Errorf("corrupt working_days column: %w", err)
	}
	weekdays := make([]time.Weekday, len(wd))
	for i, d := range wd {
		weekdays[i] = time.Weekday(d)
	}

	var allocs map[string]string
	if err := json.Unmarshal([]byte(allocations), &allocs); err != nil {
		return quota.Policy{}, fmt.Errorf("corrupt allocations column: %w", err)
	}

	p := quota.Policy{
		QuotaType:   quota.ParseQuotaType(quotaType),
		WorkingDays: quota.NewWorkingDays(weekdays...),
		Allocations: make(map[string]quota.Days, len(allocs)),
	}
	for bucket, days := range allocs {
		p.Allocations[bucket] = quota.ParseDays(days)
	}
	return p, nil
}

// SavePolicy upserts the tenant policy.
func (s *Store) SavePolicy(ctx context.Context, p quota.Policy) error {
	var wd []int
	for _, d := range p.WorkingDays.List() {
		wd = append(wd, int(d))
	}
	allocs := make(map[string]string, len(p.Allocations))
	for bucket, days := range p.Allocations {
		allocs[bucket] = days.String()
	}

	workingDays, err := json.Marshal(wd)
	if err != nil {
		return err
	}
	allocations, err := json.Marshal(allocs)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO leave_policies (id, quota_type, working_days, allocations, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			quota_type = excluded.quota_type,
			working_days = excluded.working_days,
			allocations = excluded.allocations,
			updated_at = excluded.updated_at`,
		string(p.QuotaType), string(workingDays), string(allocations),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// =============================================================================
// SCAN / SERIALIZATION HELPERS
// =============================================================================

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*leave.Record, error) {
	var (
		rec                        leave.Record
		id, personID, status       string
		startDate, endDate         string
		days, total, used, balance string
		limitReached               int
		submittedAt, approvedAt    sql.NullString
		createdAt, updatedAt       string
	)

	err := row.Scan(
		&id, &rec.Seq, &personID, &rec.PersonName, &rec.JobLevel,
		&rec.Category, &rec.Reason,
		&startDate, &endDate, &status,
		&days, &total, &used, &balance, &limitReached,
		&submittedAt, &approvedAt, &rec.RegisteredDate, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.ID = quota.RecordID(id)
	rec.PersonID = leave.PersonID(personID)
	rec.Status = leave.Status(status)

	if rec.StartDate, err = parseDateColumn(startDate); err != nil {
		return nil, err
	}
	if rec.EndDate, err = parseDateColumn(endDate); err != nil {
		return nil, err
	}

	rec.Days = quota.ParseDays(days)
	rec.AllocationTotal = quota.ParseDays(total)
	rec.AllocationUsed = quota.ParseDays(used)
	rec.Balance = quota.ParseDays(balance)
	rec.LimitReached = limitReached != 0

	if rec.SubmittedAt, err = parseTimeColumn(submittedAt); err != nil {
		return nil, err
	}
	if rec.ApprovedAt, err = parseTimeColumn(approvedAt); err != nil {
		return nil, err
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("corrupt created_at column: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("corrupt updated_at column: %w", err)
	}
	return &rec, nil
}

func dateColumn(d quota.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func parseDateColumn(s string) (quota.Date, error) {
	if s == "" {
		return quota.Date{}, nil
	}
	return quota.ParseDate(s)
}

func timeColumn(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTimeColumn(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return nil, fmt.Errorf("corrupt timestamp column: %w", err)
	}
	return &t, nil
}

func boolColumn(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return leave.ErrRecordNotFound
	}
	return nil
}
