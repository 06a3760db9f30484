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

	"github.com/google/uuid"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Simplici0/invoice-roi/internal/config"
	"github.com/Simplici0/invoice-roi/internal/roi"
)

var (
	ErrNotFound      = errors.New("scenario not found")
	ErrDuplicateName = errors.New("scenario name already exists")
)

// Fixed width so that lexical order on the TEXT column is chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Scenario is a named, persisted pair of inputs and the results computed
// from them at creation time.
type Scenario struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Inputs    roi.Inputs  `json:"data"`
	Results   roi.Results `json:"results"`
	CreatedAt time.Time   `json:"created_at"`
}

// EmailCapture records an address that requested a report.
type EmailCapture struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository is the scenario store used by the HTTP layer.
type Repository interface {
	Create(ctx context.Context, name string, in roi.Inputs, res roi.Results) (Scenario, error)
	Get(ctx context.Context, id string) (Scenario, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Scenario, error)
	CaptureEmail(ctx context.Context, email string) (EmailCapture, error)
	Ping(ctx context.Context) error
}

// SQLStore implements Repository on SQLite or PostgreSQL.
type SQLStore struct {
	db     *sql.DB
	driver string
	now    func() time.Time
	newID  func() string
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{
		db:     db,
		driver: driver,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (s *SQLStore) Create(ctx context.Context, name string, in roi.Inputs, res roi.Results) (Scenario, error) {
	inputsJSON, err := json.Marshal(in)
	if err != nil {
		return Scenario{}, fmt.Errorf("encode scenario inputs: %w", err)
	}
	resultsJSON, err := json.Marshal(res)
	if err != nil {
		return Scenario{}, fmt.Errorf("encode scenario results: %w", err)
	}

	sc := Scenario{
		ID:        s.newID(),
		Name:      name,
		Inputs:    in,
		Results:   res,
		CreatedAt: s.now().UTC(),
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO scenarios (id, name, inputs_json, results_json, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), sc.ID, sc.Name, string(inputsJSON), string(resultsJSON), sc.CreatedAt.Format(timeLayout))
	if err != nil {
		if isUniqueViolation(err) {
			return Scenario{}, ErrDuplicateName
		}
		return Scenario{}, fmt.Errorf("insert scenario: %w", err)
	}

	return sc, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Scenario, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, name, inputs_json, results_json, created_at
		FROM scenarios
		WHERE id = ?
	`), id)

	sc, err := scanScenario(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Scenario{}, ErrNotFound
	}
	if err != nil {
		return Scenario{}, fmt.Errorf("query scenario: %w", err)
	}
	return sc, nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM scenarios WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete scenario: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read deleted rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]Scenario, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, inputs_json, results_json, created_at
		FROM scenarios
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query scenarios: %w", err)
	}
	defer rows.Close()

	scenarios := []Scenario{}
	for rows.Next() {
		sc, err := scanScenario(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scenario: %w", err)
		}
		scenarios = append(scenarios, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenarios: %w", err)
	}

	return scenarios, nil
}

func (s *SQLStore) CaptureEmail(ctx context.Context, email string) (EmailCapture, error) {
	capture := EmailCapture{
		ID:        s.newID(),
		Email:     email,
		CreatedAt: s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO email_captures (id, email, created_at)
		VALUES (?, ?, ?)
	`), capture.ID, capture.Email, capture.CreatedAt.Format(timeLayout))
	if err != nil {
		return EmailCapture{}, fmt.Errorf("insert email capture: %w", err)
	}

	return capture, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanScenario(row scanner) (Scenario, error) {
	var (
		sc          Scenario
		inputsJSON  string
		resultsJSON string
		createdAt   string
	)
	if err := row.Scan(&sc.ID, &sc.Name, &inputsJSON, &resultsJSON, &createdAt); err != nil {
		return Scenario{}, err
	}

	if err := json.Unmarshal([]byte(inputsJSON), &sc.Inputs); err != nil {
		return Scenario{}, fmt.Errorf("decode inputs of scenario %s: %w", sc.ID, err)
	}
	if err := json.Unmarshal([]byte(resultsJSON), &sc.Results); err != nil {
		return Scenario{}, fmt.Errorf("decode results of scenario %s: %w", sc.ID, err)
	}

	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Scenario{}, fmt.Errorf("parse created_at of scenario %s: %w", sc.ID, err)
	}
	sc.CreatedAt = ts

	return sc, nil
}

// rebind turns ? placeholders into $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.driver != config.DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$")
			b.WriteString(strconv.Itoa(n))
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
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		// Older connections may report the primary code only.
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE"))
	}
	return false
}
