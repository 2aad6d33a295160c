package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Keywords are stored as a JSON array. Rows written before that hold a
// comma-joined list.
func encodeKeywords(keywords []string) (string, error) {
	if keywords == nil {
		keywords = []string{}
	}
	b, err := json.Marshal(keywords)
	return string(b), err
}

func decodeKeywords(raw string) ([]string, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	if !strings.HasPrefix(raw, "[") {
		return strings.Split(raw, ","), nil
	}
	var keywords []string
	if err := json.Unmarshal([]byte(raw), &keywords); err != nil {
		return nil, err
	}
	return keywords, nil
}

// InsertRun records a started run. Outcome defaults to running.
func (db *DB) InsertRun(r *Run) error {
	outcome := r.Outcome
	if outcome == "" {
		outcome = OutcomeRunning
	}
	keywords, err := encodeKeywords(r.Keywords)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO scan_runs (id, session, target, keywords, started_at, outcome)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		r.ID, r.Session, r.Target, keywords, r.StartedAt, outcome)
	return err
}

// UpdateRunProgress stores the latest counters of an in-flight run.
func (db *DB) UpdateRunProgress(id string, scanned, matched, forwarded int64, lastMsgID int) error {
	_, err := db.Exec(`
		UPDATE scan_runs SET scanned = ?, matched = ?, forwarded = ?, last_msg_id = ?
		WHERE id = ? AND outcome = 'running'`,
		scanned, matched, forwarded, lastMsgID, id)
	return err
}

// FinishRun stores the final outcome and counters of a run.
func (db *DB) FinishRun(r *Run) error {
	finished := r.FinishedAt
	if finished == 0 {
		finished = time.Now().UnixMilli()
	}
	_, err := db.Exec(`
		UPDATE scan_runs SET finished_at = ?, outcome = ?, error_kind = ?, error = ?,
			scanned = ?, matched = ?, forwarded = ?, last_msg_id = ?
		WHERE id = ?`,
		finished, r.Outcome, r.ErrorKind, r.Error,
		r.Scanned, r.Matched, r.Forwarded, r.LastMsgID, r.ID)
	return err
}

// MarkInterrupted closes runs left in flight by a daemon that died, and
// returns how many were closed.
func (db *DB) MarkInterrupted() (int64, error) {
	res, err := db.Exec(`
		UPDATE scan_runs SET outcome = ?, finished_at = ?
		WHERE outcome = 'running'`,
		OutcomeInterrupted, time.Now().UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const runColumns = `id, session, target, keywords, started_at, finished_at, outcome,
	error_kind, error, scanned, matched, forwarded, last_msg_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r        Run
		keywords string
	)
	err := row.Scan(&r.ID, &r.Session, &r.Target, &keywords, &r.StartedAt, &r.FinishedAt, &r.Outcome,
		&r.ErrorKind, &r.Error, &r.Scanned, &r.Matched, &r.Forwarded, &r.LastMsgID)
	if err != nil {
		return r, err
	}
	r.Keywords, err = decodeKeywords(keywords)
	return r, err
}

// GetRun returns a run by ID, or nil if it does not exist.
func (db *DB) GetRun(id string) (*Run, error) {
	r, err := scanRun(db.QueryRow(`SELECT `+runColumns+` FROM scan_runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRuns returns the most recent runs first. A non-empty session filters
// to runs made with that session.
func (db *DB) ListRuns(session string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT `+runColumns+` FROM scan_runs
		WHERE ? = '' OR session = ?
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, session, session, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Run lookup errors.
var (
	ErrRunNotFound  = errors.New("run not found")
	ErrAmbiguousRun = errors.New("run id prefix is ambiguous")
)

// ResolveRunID expands an exact id or a unique id prefix to the full id.
func (db *DB) ResolveRunID(prefix string) (string, error) {
	if prefix == "" || strings.ContainsAny(prefix, "%_") {
		return "", ErrRunNotFound
	}
	rows, err := db.Query(`
		SELECT id FROM scan_runs WHERE id = ? OR id LIKE ? || '%'
		ORDER BY id = ? DESC LIMIT 2`, prefix, prefix, prefix)
	if err != nil {
		return "", err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		if id == prefix {
			return id, nil
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", ErrRunNotFound
	case 1:
		return ids[0], nil
	default:
		return "", ErrAmbiguousRun
	}
}
