package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"createmovie/internal/allocation"
	"createmovie/internal/fileutil"
	"createmovie/internal/services"
	"createmovie/internal/usage"
)

// timestampLayout keeps a fixed fraction width so stored timestamps sort
// lexically in time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the run archive backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Entry is the input to Record.
type Entry struct {
	Result      *allocation.Result
	ProjectPath string
	Report      usage.Report
	Validation  usage.Validation
}

// Run is an archived allocation run.
type Run struct {
	RunID           string           `json:"run_id"`
	Strategy        string           `json:"strategy"`
	ProjectType     string           `json:"project_type"`
	ProjectPath     string           `json:"project_path"`
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      time.Time        `json:"finished_at"`
	Usage           usage.UsageRate  `json:"material_usage"`
	GenerationCount int              `json:"generation_count"`
	Validation      usage.Validation `json:"validation"`
	Report          *usage.Report    `json:"report,omitempty"`
	Cuts            []CutRecord      `json:"cuts,omitempty"`
}

// CutRecord is one archived cut outcome.
type CutRecord struct {
	Position           int     `json:"position"`
	CutID              int     `json:"cut_id"`
	SceneDescription   string  `json:"scene_description"`
	MaterialID         string  `json:"material_id,omitempty"`
	Filename           string  `json:"filename,omitempty"`
	Category           string  `json:"category,omitempty"`
	Confidence         float64 `json:"confidence,omitempty"`
	GenerationRequired bool    `json:"generation_required"`
	GenerationPrompt   string  `json:"generation_prompt,omitempty"`
}

// Open initializes or connects to the archive at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "history", "open", "archive path is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the archive location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record archives one run and its cut outcomes in a single transaction.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	res := entry.Result
	if res == nil || res.RunID == "" {
		return services.Wrap(services.ErrValidation, "history", "record", "run has no id", nil)
	}

	errorsJSON, err := marshalList(entry.Validation.Errors)
	if err != nil {
		return err
	}
	warningsJSON, err := marshalList(entry.Validation.Warnings)
	if err != nil {
		return err
	}
	reportJSON, err := json.Marshal(entry.Report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
            run_id, strategy, project_type, project_path, started_at, finished_at,
            materials_total, materials_used, usage_rate, generation_count,
            valid, errors_json, warnings_json, report_json, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID,
		res.Strategy,
		res.ProjectType,
		entry.ProjectPath,
		res.StartedAt.UTC().Format(timestampLayout),
		res.FinishedAt.UTC().Format(timestampLayout),
		res.Usage.Total,
		res.Usage.Used,
		res.Usage.Rate,
		res.GenerationCount(),
		boolToInt(entry.Validation.Valid),
		errorsJSON,
		warningsJSON,
		string(reportJSON),
		time.Now().UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, cut := range res.Cuts {
		var materialID, filename, category, prompt any
		var confidence any
		if cut.Source != nil {
			materialID = cut.Source.MaterialID
			filename = cut.Source.Filename
			category = cut.Source.Category
			confidence = cut.Source.Confidence
		}
		if cut.GenerationPrompt != "" {
			prompt = cut.GenerationPrompt
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO cut_results (
                run_id, position, cut_id, scene_description, material_id, filename,
                category, confidence, generation_required, generation_prompt
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.RunID, i, cut.CutID, cut.SceneDescription, materialID, filename,
			category, confidence, boolToInt(cut.GenerationRequired), prompt,
		)
		if err != nil {
			return fmt.Errorf("insert cut %d: %w", cut.CutID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// List returns the most recent runs first, without reports or cuts. A limit
// of zero or less returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT run_id, strategy, project_type, project_path, started_at, finished_at,
        materials_total, materials_used, usage_rate, generation_count,
        valid, errors_json, warnings_json
        FROM runs ORDER BY started_at DESC, created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get loads one run with its report and cut outcomes.
func (s *Store) Get(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, strategy, project_type, project_path, started_at, finished_at,
            materials_total, materials_used, usage_rate, generation_count,
            valid, errors_json, warnings_json, report_json
            FROM runs WHERE run_id = ?`, runID)

	var reportJSON string
	run, err := scanRun(row, &reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "history", "get", "run "+runID, nil)
	}
	if err != nil {
		return nil, err
	}

	var report usage.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("decode report for %s: %w", runID, err)
	}
	run.Report = &report

	cuts, err := s.cuts(ctx, runID)
	if err != nil {
		return nil, err
	}
	run.Cuts = cuts
	return &run, nil
}

func (s *Store) cuts(ctx context.Context, runID string) ([]CutRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, cut_id, scene_description, material_id, filename, category,
            confidence, generation_required, generation_prompt
            FROM cut_results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("load cuts: %w", err)
	}
	defer rows.Close()

	var out []CutRecord
	for rows.Next() {
		var (
			rec                            CutRecord
			materialID, filename, category sql.NullString
			prompt                         sql.NullString
			confidence                     sql.NullFloat64
			generation                     int
		)
		if err := rows.Scan(&rec.Position, &rec.CutID, &rec.SceneDescription, &materialID,
			&filename, &category, &confidence, &generation, &prompt); err != nil {
			return nil, err
		}
		rec.MaterialID = materialID.String
		rec.Filename = filename.String
		rec.Category = category.String
		rec.Confidence = confidence.Float64
		rec.GenerationRequired = generation != 0
		rec.GenerationPrompt = prompt.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep runs and returns how many were
// removed. It fails with a transient error when another prune holds the
// archive lock.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		return 0, services.Wrap(services.ErrValidation, "history", "prune", "keep must be non-negative", nil)
	}
	release, err := fileutil.TryLock(s.path)
	if err != nil {
		return 0, err
	}
	if release == nil {
		return 0, services.Wrap(services.ErrTransient, "history", "prune", "archive is locked by another process", nil)
	}
	defer release()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE run_id NOT IN (
            SELECT run_id FROM runs ORDER BY started_at DESC, created_at DESC LIMIT ?
        )`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner, extra ...any) (Run, error) {
	var (
		run                      Run
		started, finished        string
		valid                    int
		errorsJSON, warningsJSON string
	)
	dest := []any{
		&run.RunID, &run.Strategy, &run.ProjectType, &run.ProjectPath, &started, &finished,
		&run.Usage.Total, &run.Usage.Used, &run.Usage.Rate, &run.GenerationCount,
		&valid, &errorsJSON, &warningsJSON,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return Run{}, err
	}

	var err error
	if run.StartedAt, err = time.Parse(timestampLayout, started); err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	if run.FinishedAt, err = time.Parse(timestampLayout, finished); err != nil {
		return Run{}, fmt.Errorf("parse finished_at: %w", err)
	}
	run.Usage.Percentage = usage.FormatPercent(run.Usage.Rate)
	run.Validation.Valid = valid != 0
	if err := json.Unmarshal([]byte(errorsJSON), &run.Validation.Errors); err != nil {
		return Run{}, fmt.Errorf("decode errors: %w", err)
	}
	if err := json.Unmarshal([]byte(warningsJSON), &run.Validation.Warnings); err != nil {
		return Run{}, fmt.Errorf("decode warnings: %w", err)
	}
	return run, nil
}

func marshalList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(data), nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
