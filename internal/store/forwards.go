package store

// InsertForward journals a forwarded message. Duplicates within a run are
// ignored.
func (db *DB) InsertForward(f *Forward) error {
	_, err := db.Exec(`
		INSERT INTO forwards (run_id, msg_id, keyword, forwarded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, msg_id) DO NOTHING`,
		f.RunID, f.MsgID, f.Keyword, f.ForwardedAt)
	return err
}

// ListForwards returns the forwards of a run in the order they happened.
func (db *DB) ListForwards(runID string) ([]Forward, error) {
	rows, err := db.Query(`
		SELECT run_id, msg_id, keyword, forwarded_at
		FROM forwards WHERE run_id = ?
		ORDER BY forwarded_at ASC, id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Forward
	for rows.Next() {
		var f Forward
		if err := rows.Scan(&f.RunID, &f.MsgID, &f.Keyword, &f.ForwardedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
