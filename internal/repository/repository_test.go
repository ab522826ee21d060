package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"theatre/internal/database"
	apperrors "theatre/internal/errors"
	"theatre/internal/models"
)

func newMockDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return database.New(sqlx.NewDb(mockDB, "postgres")), mock
}

func beginTx(t *testing.T, db *database.DB, mock sqlmock.Sqlmock) *sqlx.Tx {
	t.Helper()
	mock.ExpectBegin()
	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	return tx
}

func TestOccupancyIsOccupied(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOccupancyRepository(db)
	tx := beginTx(t, db, mock)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(1), 2, 3).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(1), 2, 4).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	occupied, err := repo.IsOccupied(context.Background(), tx, 1, 2, 3)
	require.NoError(t, err)
	assert.True(t, occupied)

	occupied, err = repo.IsOccupied(context.Background(), tx, 1, 2, 4)
	require.NoError(t, err)
	assert.False(t, occupied)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupancyListOccupied(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOccupancyRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`o.status IN ('pending', 'paid')`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"row", "col"}).AddRow(1, 1).AddRow(1, 2))

	seats, err := repo.ListOccupied(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []models.Seat{{Row: 1, Col: 1}, {Row: 1, Col: 2}}, seats)

	mock.ExpectQuery("FROM tickets").
		WithArgs(int64(6)).
		WillReturnRows(sqlmock.NewRows([]string{"row", "col"}))

	seats, err = repo.ListOccupied(context.Background(), 6)
	require.NoError(t, err)
	assert.NotNil(t, seats)
	assert.Empty(t, seats)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromoFindByCode(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPromoRepository(db)

	until := "2030-01-01T00:00:00.000Z"
	mock.ExpectQuery(regexp.QuoteMeta(`lower(code) = lower($1)`)).
		WithArgs("winter10").
		WillReturnRows(sqlmock.NewRows([]string{"code", "discount_percent", "valid_until_iso"}).
			AddRow("WINTER10", 10, until))

	promo, err := repo.FindByCode(context.Background(), "winter10")
	require.NoError(t, err)
	require.NotNil(t, promo)
	assert.Equal(t, "WINTER10", promo.Code)
	assert.Equal(t, 10, promo.DiscountPercent)
	assert.Equal(t, until, *promo.ValidUntilISO)

	mock.ExpectQuery("FROM promos").
		WithArgs("NOPE").
		WillReturnRows(sqlmock.NewRows([]string{"code", "discount_percent", "valid_until_iso"}))

	promo, err = repo.FindByCode(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, promo)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTicketTxMapsConstraintErrors(t *testing.T) {
	ticket := &models.Ticket{OrderID: "ABC", SessionID: 9, Row: 4, Col: 5, Price: 1500}

	tests := []struct {
		name    string
		dbErr   error
		wantIs  error
		checkFn func(t *testing.T, err error)
	}{
		{
			name:   "active seat taken",
			dbErr:  &pq.Error{Code: "23505", Constraint: ActiveSeatConstraint},
			wantIs: apperrors.ErrSeatConflict,
			checkFn: func(t *testing.T, err error) {
				var conflict *apperrors.SeatConflictError
				require.True(t, errors.As(err, &conflict))
				assert.Equal(t, apperrors.SeatConflictError{SessionID: 9, Row: 4, Col: 5}, *conflict)
			},
		},
		{
			name:   "unknown session",
			dbErr:  &pq.Error{Code: "23503", Constraint: "tickets_session_id_fkey"},
			wantIs: apperrors.ErrInvalidRequest,
			checkFn: func(t *testing.T, err error) {
				var reqErr *apperrors.RequestError
				require.True(t, errors.As(err, &reqErr))
				assert.Equal(t, "unknown session 9", reqErr.Reason)
			},
		},
		{
			name:  "other unique violation passes through",
			dbErr: &pq.Error{Code: "23505", Constraint: "orders_pkey"},
			checkFn: func(t *testing.T, err error) {
				assert.False(t, errors.Is(err, apperrors.ErrSeatConflict))
				var pqErr *pq.Error
				assert.True(t, errors.As(err, &pqErr))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewOrderRepository(db)
			tx := beginTx(t, db, mock)

			mock.ExpectExec("INSERT INTO tickets").
				WithArgs("ABC", int64(9), 4, 5, int64(1500), models.OrderStatusPaid).
				WillReturnError(tt.dbErr)

			err := repo.CreateTicketTx(context.Background(), tx, ticket, models.OrderStatusPaid)
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			tt.checkFn(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOrderGetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	cols := []string{"id", "name", "email", "phone", "payment", "subtotal", "discount", "total", "status", "created_at_iso"}
	mock.ExpectQuery("FROM orders").
		WithArgs("K7M2Q9XA4B").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("K7M2Q9XA4B", "Айгерим", "a@example.com", "+77010000000", "card", 2000, 200, 1800, "paid", "2025-01-01T10:00:00.000Z"))

	order, err := repo.GetByID(context.Background(), "K7M2Q9XA4B")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, int64(1800), order.Total)
	assert.Equal(t, models.OrderStatusPaid, order.Status)

	mock.ExpectQuery("FROM orders").
		WithArgs("MISSING").
		WillReturnRows(sqlmock.NewRows(cols))

	order, err = repo.GetByID(context.Background(), "MISSING")
	require.NoError(t, err)
	assert.Nil(t, order)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderGetTickets(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectQuery("FROM tickets").
		WithArgs("K7M2Q9XA4B").
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "session_id", "row", "col", "price"}).
			AddRow("K7M2Q9XA4B", 1, 3, 4, 1000).
			AddRow("K7M2Q9XA4B", 1, 3, 5, 1000))

	tickets, err := repo.GetTickets(context.Background(), "K7M2Q9XA4B")
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, 5, tickets[1].Col)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSalesBySession(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)
	cols := []string{"session_id", "sold_seats", "revenue", "orders"}

	mock.ExpectQuery(regexp.QuoteMeta(`AND t.session_id = ANY($1)`)).
		WithArgs(pq.Array([]int64{1, 2})).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, 3, 3000, 2))

	stats, err := repo.SalesBySession(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []models.SessionStats{{SessionID: 1, SoldSeats: 3, Revenue: 3000, Orders: 2}}, stats)

	mock.ExpectQuery("GROUP BY t.session_id").
		WillReturnRows(sqlmock.NewRows(cols))

	stats, err = repo.SalesBySession(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, stats)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListShowsGroupsSessions(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCatalogRepository(db)

	showCols := []string{"id", "title", "poster_url", "description", "duration_min", "rating", "popularity",
		"venue_id", "genres_json", "cast_ids_json"}
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY popularity DESC, rating DESC")).
		WillReturnRows(sqlmock.NewRows(showCols).
			AddRow(2, "Ревизор", nil, nil, 120, 4.9, 90, 1, []byte(`["comedy"]`), []byte(`[1]`)).
			AddRow(1, "Гамлет", nil, nil, 180, 4.5, 80, 1, []byte(`["drama"]`), []byte(`[]`)))

	sessCols := []string{"id", "show_id", "date_iso", "time_iso", "base_price", "dynamic_factor"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions ORDER BY date_iso, time_iso")).
		WillReturnRows(sqlmock.NewRows(sessCols).
			AddRow(10, 2, "2025-05-01", "19:00", 3000, 1.0).
			AddRow(11, 2, "2025-05-02", "19:00", 3000, 1.2))

	shows, err := repo.ListShows(context.Background())
	require.NoError(t, err)
	require.Len(t, shows, 2)

	assert.Equal(t, "Ревизор", shows[0].Title)
	assert.Equal(t, `["comedy"]`, string(shows[0].Genres))
	require.Len(t, shows[0].Sessions, 2)
	assert.Equal(t, int64(11), shows[0].Sessions[1].ID)

	assert.NotNil(t, shows[1].Sessions)
	assert.Empty(t, shows[1].Sessions)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetShowMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCatalogRepository(db)

	mock.ExpectQuery("FROM shows WHERE id").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	show, err := repo.GetShow(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, show)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInspectionDumpTable(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInspectionRepository(db)

	dump, err := repo.DumpTable(context.Background(), "pg_user")
	require.NoError(t, err)
	assert.Nil(t, dump)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "promos" LIMIT 200`)).
		WillReturnRows(sqlmock.NewRows([]string{"code", "discount_percent", "valid_until_iso"}).
			AddRow([]byte("WINTER10"), 10, nil))

	dump, err = repo.DumpTable(context.Background(), "promos")
	require.NoError(t, err)
	require.NotNil(t, dump)
	assert.Equal(t, []string{"code", "discount_percent", "valid_until_iso"}, dump.Columns)
	assert.Equal(t, [][]string{{"WINTER10", "10", ""}}, dump.Rows)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInspectionListTables(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInspectionRepository(db)

	for i, table := range database.RequiredTables {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "` + table + `"`)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(i))
	}

	tables, err := repo.ListTables(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, len(database.RequiredTables))
	assert.Equal(t, database.RequiredTables[1], tables[1].Name)
	assert.Equal(t, int64(1), tables[1].Rows)

	assert.NoError(t, mock.ExpectationsWereMet())
}
