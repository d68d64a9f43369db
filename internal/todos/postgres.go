package todos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initTodoSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initTodoSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS todos (
			owner_id TEXT NOT NULL,
			todo_num INTEGER NOT NULL,
			task TEXT NOT NULL,
			due_date TEXT NOT NULL,
			due_time TEXT NULL,
			is_completed BOOLEAN NOT NULL DEFAULT FALSE,
			reminder_sent_at TIMESTAMPTZ NULL,
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (owner_id, todo_num)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_todos_due ON todos (due_date, due_time)
			WHERE NOT is_completed AND due_time IS NOT NULL AND reminder_sent_at IS NULL;`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init todo schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

const todoColumns = `owner_id, todo_num, task, due_date, due_time, is_completed, reminder_sent_at, created_at`

// Create assigns the smallest unused number for the owner. Two concurrent
// creates can compute the same number; the composite primary key turns that
// into a unique violation and the number is recomputed, a bounded number of
// times.
func (s *PostgresStore) Create(ctx context.Context, ownerID, task, dueDate string, dueTime *string) (Todo, error) {
	for attempt := 0; attempt < maxCreateRetries; attempt++ {
		rows, err := s.pool.Query(ctx,
			`SELECT todo_num FROM todos WHERE owner_id=$1 ORDER BY todo_num ASC`, ownerID)
		if err != nil {
			return Todo{}, fmt.Errorf("list used numbers: %w", err)
		}
		used, err := collectInts(rows)
		if err != nil {
			return Todo{}, fmt.Errorf("scan used numbers: %w", err)
		}

		todo := Todo{
			OwnerID:   ownerID,
			Num:       nextCompactNum(used),
			Task:      task,
			DueDate:   dueDate,
			DueTime:   cloneTime(dueTime),
			CreatedAt: time.Now().UTC(),
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO todos (owner_id, todo_num, task, due_date, due_time, is_completed, created_at)
			 VALUES ($1,$2,$3,$4,$5,FALSE,$6)`,
			todo.OwnerID, todo.Num, todo.Task, todo.DueDate, todo.DueTime, todo.CreatedAt,
		)
		if err == nil {
			return todo, nil
		}
		if isUniqueViolation(err) {
			continue
		}
		return Todo{}, fmt.Errorf("insert todo: %w", err)
	}
	return Todo{}, fmt.Errorf("%w for owner %s after %d attempts", ErrNumberConflict, ownerID, maxCreateRetries)
}

const listOrder = ` ORDER BY (due_time IS NULL) ASC, due_date ASC, due_time ASC, todo_num ASC`

func (s *PostgresStore) ListPastIncomplete(ctx context.Context, ownerID string, now time.Time) ([]Todo, error) {
	today := now.Format("2006-01-02")
	clock := now.Format("15:04")
	return s.query(ctx,
		`SELECT `+todoColumns+` FROM todos
		  WHERE owner_id=$1 AND NOT is_completed
		    AND (due_date < $2 OR (due_date = $2 AND due_time IS NOT NULL AND due_time < $3))`+listOrder,
		ownerID, today, clock)
}

func (s *PostgresStore) ListTodayIncomplete(ctx context.Context, ownerID string, now time.Time) ([]Todo, error) {
	return s.query(ctx,
		`SELECT `+todoColumns+` FROM todos
		  WHERE owner_id=$1 AND NOT is_completed AND due_date=$2`+listOrder,
		ownerID, now.Format("2006-01-02"))
}

func (s *PostgresStore) ListFutureIncomplete(ctx context.Context, ownerID string, now time.Time) ([]Todo, error) {
	return s.query(ctx,
		`SELECT `+todoColumns+` FROM todos
		  WHERE owner_id=$1 AND NOT is_completed AND due_date>$2`+listOrder,
		ownerID, now.Format("2006-01-02"))
}

func (s *PostgresStore) ListCompleted(ctx context.Context, ownerID string) ([]Todo, error) {
	return s.query(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE owner_id=$1 AND is_completed`+listOrder,
		ownerID)
}

func (s *PostgresStore) ToggleComplete(ctx context.Context, ownerID string, num int) (Todo, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE todos SET is_completed = NOT is_completed
		  WHERE owner_id=$1 AND todo_num=$2
		  RETURNING `+todoColumns,
		ownerID, num)
	return scanTodo(row)
}

func (s *PostgresStore) Update(ctx context.Context, ownerID string, num int, fields UpdateFields) (Todo, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE todos SET
			task = COALESCE($3, task),
			due_date = COALESCE($4, due_date),
			due_time = COALESCE($5, due_time)
		  WHERE owner_id=$1 AND todo_num=$2
		  RETURNING `+todoColumns,
		ownerID, num, fields.Task, fields.DueDate, fields.DueTime)
	return scanTodo(row)
}

func (s *PostgresStore) Delete(ctx context.Context, ownerID string, num int) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM todos WHERE owner_id=$1 AND todo_num=$2`, ownerID, num)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DueCandidates(ctx context.Context, w ReminderWindow) ([]Todo, error) {
	base := `SELECT ` + todoColumns + ` FROM todos
		  WHERE NOT is_completed AND reminder_sent_at IS NULL AND due_time IS NOT NULL AND `
	if !w.SpansMidnight() {
		return s.query(ctx,
			base+`due_date=$1 AND due_time >= $2 AND due_time < $3`+listOrder,
			w.StartDate, w.StartTime, w.EndTime)
	}
	// Window crosses midnight: tail of the start date plus head of the end date.
	return s.query(ctx,
		base+`((due_date=$1 AND due_time >= $2) OR (due_date=$3 AND due_time < $4))`+listOrder,
		w.StartDate, w.StartTime, w.EndDate, w.EndTime)
}

func (s *PostgresStore) MarkReminderSent(ctx context.Context, ownerID string, num int, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE todos SET reminder_sent_at=$3
		  WHERE owner_id=$1 AND todo_num=$2 AND reminder_sent_at IS NULL`,
		ownerID, num, at)
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Already marked or gone; either way the watermark holds.
		return nil
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) query(ctx context.Context, sql string, args ...any) ([]Todo, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	out := make([]Todo, 0, 8)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo row: %w", err)
		}
		out = append(out, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todo rows: %w", err)
	}
	return out, nil
}

func scanTodo(row pgx.Row) (Todo, error) {
	var todo Todo
	err := row.Scan(
		&todo.OwnerID,
		&todo.Num,
		&todo.Task,
		&todo.DueDate,
		&todo.DueTime,
		&todo.IsCompleted,
		&todo.ReminderSentAt,
		&todo.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Todo{}, ErrNotFound
		}
		return Todo{}, err
	}
	return todo, nil
}

func collectInts(rows pgx.Rows) ([]int, error) {
	defer rows.Close()
	var out []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
