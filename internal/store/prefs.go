package store

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/vango-dev/metalens/pkg/pref"
)

var _ pref.Store = (*DB)(nil)

// GetPref implements pref.Store.
func (d *DB) GetPref(ctx context.Context, owner, key string) (pref.Record, bool, error) {
	var value, updated string
	err := d.QueryRowContext(ctx,
		`SELECT value, updated_at FROM prefs WHERE owner = ? AND key = ?`, owner, key,
	).Scan(&value, &updated)
	if stderrors.Is(err, sql.ErrNoRows) {
		return pref.Record{}, false, nil
	}
	if err != nil {
		return pref.Record{}, false, queryError("load pref", err)
	}
	return pref.Record{Key: key, Value: []byte(value), UpdatedAt: parseTime(updated)}, true, nil
}

// SetPref implements pref.Store. Older writes never overwrite newer ones.
func (d *DB) SetPref(ctx context.Context, owner string, rec pref.Record) error {
	_, err := d.ExecContext(ctx, `
		INSERT INTO prefs (owner, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (owner, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
		WHERE excluded.updated_at >= prefs.updated_at`,
		owner, rec.Key, string(rec.Value), formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return queryError("save pref", err)
	}
	return nil
}
