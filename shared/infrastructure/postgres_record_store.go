package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/draftea/order-fulfillment/shared/models"
	"github.com/draftea/order-fulfillment/shared/saga"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

var _ RecordStore = (*PostgresRecordStore)(nil)

// PostgresRecordStore keeps one table per record kind. The indexed columns
// are extracted from the record; the full record is kept in body as JSON.
type PostgresRecordStore struct {
	db     *sqlx.DB
	tables Tables
}

func NewPostgresRecordStore(db *sqlx.DB, tables Tables) *PostgresRecordStore {
	return &PostgresRecordStore{db: db, tables: tables}
}

type postgresRecord struct {
	ID         string    `db:"id"`
	OrderID    string    `db:"order_id"`
	CustomerID string    `db:"customer_id"`
	Status     string    `db:"status"`
	Body       []byte    `db:"body"`
	RecordedAt time.Time `db:"recorded_at"`
}

func (s *PostgresRecordStore) Save(ctx context.Context, record models.Record) error {
	table, err := s.tables.lookup(record.RecordKind())
	if err != nil {
		return err
	}

	body, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "failed to marshal record")
	}

	row := postgresRecord{
		ID:         record.RecordID(),
		OrderID:    record.RecordOrderID(),
		CustomerID: record.RecordCustomerID(),
		Status:     record.RecordStatus(),
		Body:       body,
		RecordedAt: record.RecordTime().UTC(),
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, order_id, customer_id, status, body, recorded_at)
		VALUES (:id, :order_id, :customer_id, :status, :body, :recorded_at)
		ON CONFLICT (id) DO UPDATE SET
			order_id = EXCLUDED.order_id,
			customer_id = EXCLUDED.customer_id,
			status = EXCLUDED.status,
			body = EXCLUDED.body,
			recorded_at = EXCLUDED.recorded_at`, pq.QuoteIdentifier(table))

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return errors.Wrapf(err, "failed to save %s record", record.RecordKind())
	}

	return nil
}

func (s *PostgresRecordStore) ObservationsByOrderID(ctx context.Context, orderID string) ([]saga.Observation, error) {
	var out []saga.Observation

	for _, kind := range models.Kinds() {
		table, err := s.tables.lookup(kind)
		if err != nil {
			return nil, err
		}

		var rows []postgresRecord
		query := fmt.Sprintf(`SELECT id, status, recorded_at FROM %s WHERE order_id = $1 ORDER BY recorded_at`,
			pq.QuoteIdentifier(table))
		if err := s.db.SelectContext(ctx, &rows, query, orderID); err != nil {
			return nil, errors.Wrapf(err, "failed to query %s", table)
		}

		for _, row := range rows {
			out = append(out, saga.Observation{
				Kind:     kind.String(),
				RecordID: row.ID,
				Status:   row.Status,
				At:       row.RecordedAt,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}
