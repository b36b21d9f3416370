// Package store persists processos and their analysis sections in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("store: not found")

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

const (
	defaultMaxRetries = 3
	defaultLease      = 15 * time.Minute
)

// Config tunes a Store. Lease bounds how long a section may stay in
// processing before ClaimNextPending hands it out again.
type Config struct {
	Clock func() time.Time
	Lease time.Duration
}

type Processo struct {
	ID           string    `json:"id"`
	Nome         string    `json:"nome"`
	DocumentText string    `json:"-"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Section struct {
	ID             string    `json:"id"`
	ProcessoID     string    `json:"processo_id"`
	PromptTitle    string    `json:"prompt_title"`
	Category       string    `json:"category,omitempty"`
	PromptContent  string    `json:"prompt_content,omitempty"`
	SystemPrompt   string    `json:"system_prompt,omitempty"`
	Content        string    `json:"content,omitempty"`
	ExecutionOrder int       `json:"execution_order"`
	Status         Status    `json:"status"`
	RetryCount     int       `json:"retry_count"`
	MaxRetries     int       `json:"max_retries"`
	Error          string    `json:"error,omitempty"`
	Model          string    `json:"model,omitempty"`
	Method         string    `json:"method,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewSection is the input to AddSection. A section created with Content is
// stored as completed; otherwise it waits for generation.
type NewSection struct {
	PromptTitle    string
	Category       string
	PromptContent  string
	SystemPrompt   string
	Content        string
	ExecutionOrder int
	MaxRetries     int
}

const schema = `
CREATE TABLE IF NOT EXISTS processos (
	id            TEXT PRIMARY KEY,
	nome          TEXT NOT NULL,
	document_text TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'pending',
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS analysis_sections (
	id              TEXT PRIMARY KEY,
	processo_id     TEXT NOT NULL REFERENCES processos(id),
	prompt_title    TEXT NOT NULL,
	category        TEXT NOT NULL DEFAULT '',
	prompt_content  TEXT NOT NULL DEFAULT '',
	system_prompt   TEXT NOT NULL DEFAULT '',
	content         TEXT NOT NULL DEFAULT '',
	execution_order INTEGER NOT NULL DEFAULT 0,
	status          TEXT NOT NULL DEFAULT 'pending',
	retry_count     INTEGER NOT NULL DEFAULT 0,
	max_retries     INTEGER NOT NULL DEFAULT 3,
	error           TEXT NOT NULL DEFAULT '',
	model           TEXT NOT NULL DEFAULT '',
	method          TEXT NOT NULL DEFAULT '',
	created_at      TEXT NOT NULL,
	updated_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sections_processo_order
	ON analysis_sections(processo_id, status, execution_order);
`

type Store struct {
	db  *sqlx.DB
	cfg Config
}

func Open(dbPath string, cfg Config) (*Store, error) {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Lease <= 0 {
		cfg.Lease = defaultLease
	}
	dsn := dbPath
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, cfg: cfg}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) now() time.Time {
	return s.cfg.Clock().UTC()
}

func (s *Store) CreateProcesso(ctx context.Context, nome, documentText string) (Processo, error) {
	now := s.now()
	p := Processo{
		ID:           uuid.NewString(),
		Nome:         strings.TrimSpace(nome),
		DocumentText: documentText,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processos (id, nome, document_text, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Nome, p.DocumentText, string(p.Status), formatTime(now), formatTime(now))
	if err != nil {
		return Processo{}, fmt.Errorf("insert processo: %w", err)
	}
	return p, nil
}

func (s *Store) GetProcesso(ctx context.Context, id string) (Processo, error) {
	var row processoRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, nome, document_text, status, created_at, updated_at FROM processos WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Processo{}, fmt.Errorf("processo %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Processo{}, fmt.Errorf("get processo: %w", err)
	}
	return row.processo(), nil
}

func (s *Store) SetProcessoStatus(ctx context.Context, id string, status Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE processos SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(s.now()), id)
	if err != nil {
		return fmt.Errorf("update processo status: %w", err)
	}
	return expectOne(res, "processo "+id)
}

func (s *Store) AddSection(ctx context.Context, processoID string, in NewSection) (Section, error) {
	if _, err := s.GetProcesso(ctx, processoID); err != nil {
		return Section{}, err
	}
	now := s.now()
	sec := Section{
		ID:             uuid.NewString(),
		ProcessoID:     processoID,
		PromptTitle:    strings.TrimSpace(in.PromptTitle),
		Category:       strings.TrimSpace(in.Category),
		PromptContent:  in.PromptContent,
		SystemPrompt:   in.SystemPrompt,
		Content:        in.Content,
		ExecutionOrder: in.ExecutionOrder,
		Status:         StatusPending,
		MaxRetries:     in.MaxRetries,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if sec.MaxRetries <= 0 {
		sec.MaxRetries = defaultMaxRetries
	}
	if strings.TrimSpace(sec.Content) != "" {
		sec.Status = StatusCompleted
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_sections
			(id, processo_id, prompt_title, category, prompt_content, system_prompt, content,
			 execution_order, status, retry_count, max_retries, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		sec.ID, sec.ProcessoID, sec.PromptTitle, sec.Category, sec.PromptContent, sec.SystemPrompt, sec.Content,
		sec.ExecutionOrder, string(sec.Status), sec.MaxRetries, formatTime(now), formatTime(now))
	if err != nil {
		return Section{}, fmt.Errorf("insert section: %w", err)
	}
	return sec, nil
}

const sectionColumns = `id, processo_id, prompt_title, category, prompt_content, system_prompt, content,
	execution_order, status, retry_count, max_retries, error, model, method, created_at, updated_at`

// ListSections returns a processo's sections in execution order.
func (s *Store) ListSections(ctx context.Context, processoID string) ([]Section, error) {
	var rows []sectionRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+sectionColumns+` FROM analysis_sections WHERE processo_id = ? ORDER BY execution_order, created_at`,
		processoID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	out := make([]Section, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.section())
	}
	return out, nil
}

func (s *Store) GetSection(ctx context.Context, id string) (Section, error) {
	return getSection(ctx, s.db, id)
}

// ClaimNextPending moves the lowest-ordered pending section of a processo to
// processing and returns it. Sections left in processing longer than the
// lease are returned to pending first. ErrNotFound means nothing is pending.
func (s *Store) ClaimNextPending(ctx context.Context, processoID string) (Section, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Section{}, fmt.Errorf("begin claim: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	if _, err := tx.ExecContext(ctx, `
		UPDATE analysis_sections SET status = ?, updated_at = ?
		WHERE processo_id = ? AND status = ? AND updated_at < ?`,
		string(StatusPending), formatTime(now), processoID, string(StatusProcessing),
		formatTime(now.Add(-s.cfg.Lease))); err != nil {
		return Section{}, fmt.Errorf("reclaim stale sections: %w", err)
	}

	var id string
	err = tx.GetContext(ctx, &id, `
		SELECT id FROM analysis_sections
		WHERE processo_id = ? AND status = ?
		ORDER BY execution_order, created_at
		LIMIT 1`, processoID, string(StatusPending))
	if errors.Is(err, sql.ErrNoRows) {
		return Section{}, fmt.Errorf("pending section for %s: %w", processoID, ErrNotFound)
	}
	if err != nil {
		return Section{}, fmt.Errorf("select pending: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE analysis_sections SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(StatusProcessing), formatTime(now), id, string(StatusPending))
	if err != nil {
		return Section{}, fmt.Errorf("claim section: %w", err)
	}
	if err := expectOne(res, "section "+id); err != nil {
		return Section{}, err
	}
	sec, err := getSection(ctx, tx, id)
	if err != nil {
		return Section{}, err
	}
	if err := tx.Commit(); err != nil {
		return Section{}, fmt.Errorf("commit claim: %w", err)
	}
	return sec, nil
}

// CompleteSection stores generated content together with the model that
// produced it and the normalization method its view resolved to.
func (s *Store) CompleteSection(ctx context.Context, id, content, model, method string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE analysis_sections
		SET status = ?, content = ?, model = ?, method = ?, error = '', updated_at = ?
		WHERE id = ?`,
		string(StatusCompleted), content, model, method, formatTime(s.now()), id)
	if err != nil {
		return fmt.Errorf("complete section: %w", err)
	}
	return expectOne(res, "section "+id)
}

// FailSection records a failed attempt. The section returns to pending until
// its retries are used up, then it is marked failed.
func (s *Store) FailSection(ctx context.Context, id string, cause error) (Section, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Section{}, fmt.Errorf("begin fail: %w", err)
	}
	defer tx.Rollback()

	sec, err := getSection(ctx, tx, id)
	if err != nil {
		return Section{}, err
	}
	sec.RetryCount++
	sec.Status = StatusPending
	if sec.RetryCount >= sec.MaxRetries {
		sec.Status = StatusFailed
	}
	if cause != nil {
		sec.Error = cause.Error()
	}
	sec.UpdatedAt = s.now()
	if _, err := tx.ExecContext(ctx,
		`UPDATE analysis_sections SET status = ?, retry_count = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(sec.Status), sec.RetryCount, sec.Error, formatTime(sec.UpdatedAt), id); err != nil {
		return Section{}, fmt.Errorf("fail section: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Section{}, fmt.Errorf("commit fail: %w", err)
	}
	return sec, nil
}

// ReleaseSection returns a processing section to pending without spending a
// retry.
func (s *Store) ReleaseSection(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE analysis_sections SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(StatusPending), formatTime(s.now()), id, string(StatusProcessing))
	if err != nil {
		return fmt.Errorf("release section: %w", err)
	}
	return expectOne(res, "processing section "+id)
}

// CountOpen reports how many sections of a processo are pending or processing.
func (s *Store) CountOpen(ctx context.Context, processoID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM analysis_sections WHERE processo_id = ? AND status IN (?, ?)`,
		processoID, string(StatusPending), string(StatusProcessing))
	if err != nil {
		return 0, fmt.Errorf("count open sections: %w", err)
	}
	return n, nil
}

func getSection(ctx context.Context, q sqlx.QueryerContext, id string) (Section, error) {
	var row sectionRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT `+sectionColumns+` FROM analysis_sections WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Section{}, fmt.Errorf("section %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Section{}, fmt.Errorf("get section: %w", err)
	}
	return row.section(), nil
}

func expectOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

type processoRow struct {
	ID           string `db:"id"`
	Nome         string `db:"nome"`
	DocumentText string `db:"document_text"`
	Status       string `db:"status"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

func (r processoRow) processo() Processo {
	return Processo{
		ID:           r.ID,
		Nome:         r.Nome,
		DocumentText: r.DocumentText,
		Status:       Status(r.Status),
		CreatedAt:    parseTime(r.CreatedAt),
		UpdatedAt:    parseTime(r.UpdatedAt),
	}
}

type sectionRow struct {
	ID             string `db:"id"`
	ProcessoID     string `db:"processo_id"`
	PromptTitle    string `db:"prompt_title"`
	Category       string `db:"category"`
	PromptContent  string `db:"prompt_content"`
	SystemPrompt   string `db:"system_prompt"`
	Content        string `db:"content"`
	ExecutionOrder int    `db:"execution_order"`
	Status         string `db:"status"`
	RetryCount     int    `db:"retry_count"`
	MaxRetries     int    `db:"max_retries"`
	Error          string `db:"error"`
	Model          string `db:"model"`
	Method         string `db:"method"`
	CreatedAt      string `db:"created_at"`
	UpdatedAt      string `db:"updated_at"`
}

func (r sectionRow) section() Section {
	return Section{
		ID:             r.ID,
		ProcessoID:     r.ProcessoID,
		PromptTitle:    r.PromptTitle,
		Category:       r.Category,
		PromptContent:  r.PromptContent,
		SystemPrompt:   r.SystemPrompt,
		Content:        r.Content,
		ExecutionOrder: r.ExecutionOrder,
		Status:         Status(r.Status),
		RetryCount:     r.RetryCount,
		MaxRetries:     r.MaxRetries,
		Error:          r.Error,
		Model:          r.Model,
		Method:         r.Method,
		CreatedAt:      parseTime(r.CreatedAt),
		UpdatedAt:      parseTime(r.UpdatedAt),
	}
}

// timeLayout keeps a fixed width so stored times compare as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
