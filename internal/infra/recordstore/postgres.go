package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id          SERIAL PRIMARY KEY,
	table_name  TEXT        NOT NULL,
	fields      JSONB       NOT NULL DEFAULT '{}'::jsonb,
	created_on  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	modified_on TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS records_table_name_idx ON records (table_name);
`

// References maps table -> lookup column -> referenced table, so that
// RefCol selections can be expanded.
type References map[string]map[string]string

// PostgresStore keeps every entity table in one JSONB-backed records table.
type PostgresStore struct {
	db     *sql.DB
	refs   References
	logger *zap.Logger
}

func NewPostgresStore(db *sql.DB, refs References, logger *zap.Logger) *PostgresStore {
	if refs == nil {
		refs = References{}
	}
	return &PostgresStore{
		db:     db,
		refs:   refs,
		logger: logger.With(zap.String("component", "recordstore.postgres")),
	}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create records schema: %w", err)
	}
	return nil
}

type row struct {
	id         int
	fields     map[string]any
	modifiedOn time.Time
}

func (s *PostgresStore) FetchRecords(ctx context.Context, table string, params FetchParams) (*Response, error) {
	query := `SELECT id, fields, modified_on FROM records WHERE table_name = $1`
	args := []any{table}

	query += " ORDER BY " + orderClause(params.OrderBy)

	if p := params.PagingInfo; p != nil && p.Limit > 0 {
		args = append(args, p.Limit, p.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", table, err)
	}
	defer rows.Close()

	var found []row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		found = append(found, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", table, err)
	}
	rows.Close()

	out := make([]Record, 0, len(found))
	for _, r := range found {
		rec, err := s.project(ctx, table, r, params.Fields)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", table, err)
	}
	return &Response{Success: true, Data: data}, nil
}

func (s *PostgresStore) GetRecordByID(ctx context.Context, table string, id int, params FetchParams) (*Response, error) {
	r, err := scanRow(s.db.QueryRowContext(ctx,
		`SELECT id, fields, modified_on FROM records WHERE table_name = $1 AND id = $2`,
		table, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return &Response{Success: false, Message: fmt.Sprintf("Record with Id %d does not exist", id)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", table, id, err)
	}

	rec, err := s.project(ctx, table, r, params.Fields)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s %d: %w", table, id, err)
	}
	return &Response{Success: true, Data: data}, nil
}

func (s *PostgresStore) CreateRecord(ctx context.Context, table string, params RecordsParams) (*Response, error) {
	results := make([]Result, 0, len(params.Records))
	for _, rec := range params.Records {
		fields := withoutSystemColumns(rec)
		payload, err := json.Marshal(fields)
		if err != nil {
			results = append(results, Result{Success: false, Message: "invalid record: " + err.Error()})
			continue
		}

		r, err := scanRow(s.db.QueryRowContext(ctx,
			`INSERT INTO records (table_name, fields) VALUES ($1, $2::jsonb) RETURNING id, fields, modified_on`,
			table, string(payload),
		))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", table, err)
		}
		results = append(results, s.resultFor(r))
	}
	return &Response{Success: true, Results: results}, nil
}

// UpdateRecord merges the given columns into each record, leaving the
// other columns untouched.
func (s *PostgresStore) UpdateRecord(ctx context.Context, table string, params RecordsParams) (*Response, error) {
	results := make([]Result, 0, len(params.Records))
	for _, rec := range params.Records {
		id, ok := recordID(rec["Id"])
		if !ok {
			results = append(results, Result{Success: false, Message: "Id is required"})
			continue
		}

		payload, err := json.Marshal(withoutSystemColumns(rec))
		if err != nil {
			results = append(results, Result{Success: false, Message: "invalid record: " + err.Error()})
			continue
		}

		r, err := scanRow(s.db.QueryRowContext(ctx,
			`UPDATE records SET fields = fields || $1::jsonb, modified_on = NOW() WHERE table_name = $2 AND id = $3 RETURNING id, fields, modified_on`,
			string(payload), table, id,
		))
		if errors.Is(err, sql.ErrNoRows) {
			results = append(results, Result{Success: false, Message: fmt.Sprintf("Record with Id %d does not exist", id)})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update %s %d: %w", table, id, err)
		}
		results = append(results, s.resultFor(r))
	}
	return &Response{Success: true, Results: results}, nil
}

func (s *PostgresStore) DeleteRecord(ctx context.Context, table string, params DeleteParams) (*Response, error) {
	results := make([]Result, 0, len(params.RecordIDs))
	for _, id := range params.RecordIDs {
		res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE table_name = $1 AND id = $2`, table, id)
		if err != nil {
			return nil, fmt.Errorf("failed to delete %s %d: %w", table, id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to delete %s %d: %w", table, id, err)
		}
		if n == 0 {
			results = append(results, Result{Success: false, Message: fmt.Sprintf("Record with Id %d does not exist", id)})
			continue
		}
		results = append(results, Result{Success: true})
	}
	return &Response{Success: true, Results: results}, nil
}

func (s *PostgresStore) resultFor(r row) Result {
	data, err := json.Marshal(r.flatten())
	if err != nil {
		return Result{Success: false, Message: err.Error()}
	}
	return Result{Success: true, Data: data}
}

// project keeps the selected columns and expands lookup columns. An empty
// selection returns every column.
func (s *PostgresStore) project(ctx context.Context, table string, r row, fields []Field) (Record, error) {
	if len(fields) == 0 {
		return r.flatten(), nil
	}

	out := Record{"Id": r.id, "ModifiedOn": r.modifiedOn}
	for _, f := range fields {
		name := f.Field.Name
		if name == "Id" || name == "ModifiedOn" {
			continue
		}
		v, ok := r.fields[name]
		if !ok {
			continue
		}
		if f.ReferenceField == nil {
			out[name] = v
			continue
		}

		ref, err := s.expand(ctx, table, name, v, f.ReferenceField.Field.Name)
		if err != nil {
			return nil, err
		}
		out[name] = ref
	}
	return out, nil
}

func (s *PostgresStore) expand(ctx context.Context, table, column string, value any, refField string) (any, error) {
	refTable, ok := s.refs[table][column]
	refID, isID := recordID(value)
	if !ok || !isID {
		return value, nil
	}

	var display sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT fields->>$1 FROM records WHERE table_name = $2 AND id = $3`,
		refField, refTable, refID,
	).Scan(&display)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debug("dangling reference",
			zap.String("table", table),
			zap.String("column", column),
			zap.Int("ref_id", refID),
		)
		return Record{"Id": refID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to expand %s.%s: %w", table, column, err)
	}

	return Record{"Id": refID, refField: display.String}, nil
}

func (r row) flatten() Record {
	out := make(Record, len(r.fields)+2)
	for k, v := range r.fields {
		out[k] = v
	}
	out["Id"] = r.id
	out["ModifiedOn"] = r.modifiedOn
	return out
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(sc scanner) (row, error) {
	var (
		r   row
		raw []byte
	)
	if err := sc.Scan(&r.id, &raw, &r.modifiedOn); err != nil {
		return row{}, err
	}
	r.fields = map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &r.fields); err != nil {
			return row{}, fmt.Errorf("invalid fields payload: %w", err)
		}
	}
	return r, nil
}

func orderClause(order []OrderBy) string {
	if len(order) == 0 {
		return "id ASC"
	}
	parts := make([]string, 0, len(order))
	for _, o := range order {
		dir := "ASC"
		if strings.EqualFold(o.SortType, "DESC") {
			dir = "DESC"
		}
		switch o.FieldName {
		case "Id":
			parts = append(parts, "id "+dir)
		case "ModifiedOn":
			parts = append(parts, "modified_on "+dir)
		default:
			parts = append(parts, fmt.Sprintf("fields->>%s %s", pq.QuoteLiteral(o.FieldName), dir))
		}
	}
	return strings.Join(parts, ", ")
}

func withoutSystemColumns(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		if k == "Id" || k == "ModifiedOn" {
			continue
		}
		out[k] = v
	}
	return out
}

func recordID(v any) (int, bool) {
	switch id := v.(type) {
	case int:
		return id, id > 0
	case int64:
		return int(id), id > 0
	case float64:
		return int(id), id > 0 && id == float64(int(id))
	case json.Number:
		n, err := id.Int64()
		return int(n), err == nil && n > 0
	case string:
		n, err := strconv.Atoi(id)
		return n, err == nil && n > 0
	default:
		return 0, false
	}
}
