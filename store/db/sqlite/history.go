package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/timexkit/store"
)

func (d *DB) CreateHistory(ctx context.Context, create *store.History) (*store.History, error) {
	fields := []string{"uid", "request_id", "timex", "reference_ts", "timezone", "policy", "candidates", "error_code", "payload", "created_ts"}
	args := []any{create.UID, create.RequestID, create.Timex, create.ReferenceTs, create.Timezone, create.Policy, create.Candidates, create.ErrorCode, create.Payload, create.CreatedTs}

	stmt := `INSERT INTO resolution_history (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create resolution_history: %w", err)
	}
	return create, nil
}

func (d *DB) ListHistory(ctx context.Context, find *store.FindHistory) ([]*store.History, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.Timex != nil {
		where, args = append(where, "timex = "+placeholder(len(args)+1)), append(args, *find.Timex)
	}
	if find.ErrorCode != nil {
		where, args = append(where, "error_code = "+placeholder(len(args)+1)), append(args, *find.ErrorCode)
	}

	query := `SELECT id, uid, request_id, timex, reference_ts, timezone, policy, candidates, error_code, payload, created_ts
		FROM resolution_history WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC, id DESC`
	if find.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", find.Limit)
		if find.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list resolution_history: %w", err)
	}
	defer rows.Close()

	list := make([]*store.History, 0)
	for rows.Next() {
		h := &store.History{}
		if err := rows.Scan(&h.ID, &h.UID, &h.RequestID, &h.Timex, &h.ReferenceTs, &h.Timezone, &h.Policy, &h.Candidates, &h.ErrorCode, &h.Payload, &h.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan resolution_history: %w", err)
		}
		list = append(list, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resolution_history: %w", err)
	}
	return list, nil
}

func (d *DB) DeleteHistory(ctx context.Context, delete *store.DeleteHistory) (int64, error) {
	result, err := d.db.ExecContext(ctx, `DELETE FROM resolution_history WHERE created_ts < `+placeholder(1), delete.CreatedBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to delete resolution_history: %w", err)
	}
	return result.RowsAffected()
}
