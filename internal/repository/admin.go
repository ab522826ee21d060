package repository

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/lib/pq"

	"theatre/internal/database"
	"theatre/internal/models"
)

// AdminRowLimit caps how many rows a table dump returns.
const AdminRowLimit = 200

// InspectionRepository backs the read-only admin console. Only tables in
// database.RequiredTables can be listed or dumped.
type InspectionRepository struct {
	db *database.DB
}

func NewInspectionRepository(db *database.DB) *InspectionRepository {
	return &InspectionRepository{db: db}
}

func IsKnownTable(name string) bool {
	return slices.Contains(database.RequiredTables, name)
}

func (r *InspectionRepository) ListTables(ctx context.Context) ([]models.TableSummary, error) {
	summaries := make([]models.TableSummary, 0, len(database.RequiredTables))
	for _, table := range database.RequiredTables {
		var n int64
		query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, pq.QuoteIdentifier(table))
		if err := r.db.GetContext(ctx, &n, query); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		summaries = append(summaries, models.TableSummary{Name: table, Rows: n})
	}
	return summaries, nil
}

// DumpTable returns up to AdminRowLimit rows rendered as strings, or nil
// when the table is not one the console exposes.
func (r *InspectionRepository) DumpTable(ctx context.Context, table string) (*models.TableDump, error) {
	if !IsKnownTable(table) {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT * FROM %s LIMIT %d`, pq.QuoteIdentifier(table), AdminRowLimit)
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	dump := &models.TableDump{Table: table, Columns: columns, Rows: [][]string{}}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		dump.Rows = append(dump.Rows, renderRow(values))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return dump, nil
}

func renderRow(values []interface{}) []string {
	out := make([]string, len(values))
	for i, v := range values {
		switch val := v.(type) {
		case nil:
			out[i] = ""
		case []byte:
			out[i] = string(val)
		case sql.RawBytes:
			out[i] = string(val)
		default:
			out[i] = fmt.Sprint(val)
		}
	}
	return out
}
