package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fbz-tec/storexport/internal/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a Source backed by a PostgreSQL catalog database.
type PgStore struct {
	dsn  string
	pool *pgxpool.Pool
}

// NewPgStore creates a new PostgreSQL store instance with the given DSN.
func NewPgStore(dsn string) *PgStore {
	return &PgStore{dsn: dsn}
}

// Connect opens the connection pool and verifies connectivity.
func (s *PgStore) Connect(ctx context.Context) error {
	if s.pool != nil {
		return nil // already connected
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	logger.Debug("Connection timeout: 10s")
	logger.Debug("Attempting to connect to database host: %s", sanitizeDSN(s.dsn))

	pool, err := pgxpool.New(ctx, s.dsn)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("unable to ping database: %w", err)
	}

	logger.Debug("Database ping successful")
	s.pool = pool
	return nil
}

// Close releases every pooled connection.
func (s *PgStore) Close() error {
	if s.pool != nil {
		logger.Debug("Closing database connection pool...")
		s.pool.Close()
		s.pool = nil
	}
	return nil
}

// Migrate applies Schema.
func (s *PgStore) Migrate(ctx context.Context) error {
	if s.pool == nil {
		return fmt.Errorf("database not connected")
	}
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("error applying catalog schema: %w", err)
	}
	return nil
}

func (s *PgStore) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("database not connected")
	}
	logger.Debug("Query: %s", sql)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	return rows, nil
}

func (s *PgStore) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if s.pool == nil {
		return errRow{fmt.Errorf("database not connected")}
	}
	logger.Debug("Query: %s", sql)
	return s.pool.QueryRow(ctx, sql, args...)
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

// where accumulates positional-parameter predicates.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.ReplaceAll(clause, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *where) raw(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *where) status(column string, statuses []string) {
	if restricts(statuses) {
		w.add(column+" = ANY(?)", statuses)
		return
	}
	w.raw(column + " NOT IN ('trash', 'auto-draft')")
}

func (w *where) dates(column string, r *DateRange) {
	if r == nil {
		return
	}
	if r.After != nil {
		w.add(column+" >= ?", *r.After)
	}
	if r.Before != nil {
		w.add(column+" <= ?", *r.Before)
	}
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func limitClause(limit int) string {
	if limit > 0 {
		return fmt.Sprintf(" LIMIT %d", limit)
	}
	return ""
}

func productDateColumn(r *DateRange) string {
	if r != nil && r.Column == DateModified {
		return "modified_at"
	}
	return "created_at"
}

func collectIDs(rows pgx.Rows, err error) ([]int64, error) {
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("error reading ids: %w", err)
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

func (s *PgStore) ProductIDs(ctx context.Context, q ProductQuery) ([]int64, error) {
	w := &where{}
	w.raw("type <> 'variation'")
	if restricts(q.Types) {
		w.add("type = ANY(?)", q.Types)
	}
	w.status("status", q.Statuses)
	w.dates(productDateColumn(q.Dates), q.Dates)
	rows, err := s.query(ctx, "SELECT id FROM products"+w.String()+" ORDER BY id"+limitClause(q.Limit), w.args...)
	return collectIDs(rows, err)
}

func (s *PgStore) VariationIDs(ctx context.Context, q VariationQuery) ([]Variation, error) {
	if len(q.ParentIDs) == 0 {
		return []Variation{}, nil
	}
	w := &where{}
	w.raw("type = 'variation'")
	w.add("parent_id = ANY(?)", q.ParentIDs)
	w.status("status", q.Statuses)
	w.dates(productDateColumn(q.Dates), q.Dates)
	rows, err := s.query(ctx, "SELECT id, parent_id FROM products"+w.String()+" ORDER BY id", w.args...)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Variation, error) {
		var v Variation
		err := row.Scan(&v.ID, &v.ParentID)
		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("error reading variations: %w", err)
	}
	if out == nil {
		out = []Variation{}
	}
	return out, nil
}

func (s *PgStore) UserIDs(ctx context.Context, q UserQuery) ([]int64, error) {
	w := &where{}
	if restricts(q.Roles) {
		w.add("id IN (SELECT user_id FROM user_roles WHERE role = ANY(?))", q.Roles)
	}
	w.dates("registered_at", q.Dates)
	rows, err := s.query(ctx, "SELECT id FROM users"+w.String()+" ORDER BY id"+limitClause(q.Limit), w.args...)
	return collectIDs(rows, err)
}

func (s *PgStore) OrderIDs(ctx context.Context, q OrderQuery) ([]int64, error) {
	w := &where{}
	w.status("status", q.Statuses)
	w.dates("created_at", q.Dates)
	rows, err := s.query(ctx, "SELECT id FROM orders"+w.String()+" ORDER BY id"+limitClause(q.Limit), w.args...)
	return collectIDs(rows, err)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *PgStore) Product(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := s.queryRow(ctx, `SELECT id, parent_id, type, status, name, sku, permalink,
		short_description, description, image_id, created_at, modified_at
		FROM products WHERE id = $1`, id).Scan(
		&p.ID, &p.ParentID, &p.Type, &p.Status, &p.Name, &p.SKU, &p.Permalink,
		&p.ShortDescription, &p.Description, &p.ImageID, &p.CreatedAt, &p.ModifiedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *PgStore) User(ctx context.Context, id int64) (*User, error) {
	var u User
	err := s.queryRow(ctx, `SELECT u.id, u.login, u.email, u.registered_at,
		COALESCE(array_agg(r.role ORDER BY r.role) FILTER (WHERE r.role IS NOT NULL), '{}')
		FROM users u LEFT JOIN user_roles r ON r.user_id = u.id
		WHERE u.id = $1 GROUP BY u.id`, id).Scan(&u.ID, &u.Login, &u.Email, &u.RegisteredAt, &u.Roles)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *PgStore) Order(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := s.queryRow(ctx, `SELECT id, number, status, created_at, customer_id, billing, shipping,
		payment_method, payment_method_title, transaction_id,
		total::text, subtotal::text, total_tax::text, shipping_total::text,
		shipping_tax::text, discount_total::text, currency
		FROM orders WHERE id = $1`, id).Scan(
		&o.ID, &o.Number, &o.Status, &o.CreatedAt, &o.CustomerID, &o.Billing, &o.Shipping,
		&o.PaymentMethod, &o.PaymentMethodTitle, &o.TransactionID,
		&o.Total, &o.Subtotal, &o.TotalTax, &o.ShippingTotal,
		&o.ShippingTax, &o.DiscountTotal, &o.Currency)
	if err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (s *PgStore) Meta(ctx context.Context, kind Kind, id int64, key string) (any, bool, error) {
	var v any
	err := s.queryRow(ctx, `SELECT meta_value FROM record_meta
		WHERE kind = $1 AND record_id = $2 AND meta_key = $3`, string(kind), id, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("error reading meta %q: %w", key, err)
	}
	return v, true, nil
}

func scanTerms(rows pgx.Rows, err error) ([]Term, error) {
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Term, error) {
		var t Term
		err := row.Scan(&t.ID, &t.Taxonomy, &t.Name, &t.Slug, &t.ParentID, &t.URL)
		return t, err
	})
}

func (s *PgStore) Terms(ctx context.Context, productID int64, taxonomy string) ([]Term, error) {
	rows, err := s.query(ctx, `SELECT t.id, t.taxonomy, t.name, t.slug, t.parent_id, t.url
		FROM terms t JOIN term_relationships r ON r.term_id = t.id
		WHERE r.product_id = $1 AND t.taxonomy = $2 ORDER BY t.name`, productID, taxonomy)
	return scanTerms(rows, err)
}

func (s *PgStore) Term(ctx context.Context, id int64) (*Term, error) {
	rows, err := s.query(ctx, `SELECT id, taxonomy, name, slug, parent_id, url FROM terms WHERE id = $1`, id)
	terms, err := scanTerms(rows, err)
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return nil, ErrNotFound
	}
	return &terms[0], nil
}

func (s *PgStore) AttachmentURL(ctx context.Context, id int64) (string, error) {
	var u string
	if err := s.queryRow(ctx, `SELECT url FROM attachments WHERE id = $1`, id).Scan(&u); err != nil {
		return "", notFound(err)
	}
	return u, nil
}

func (s *PgStore) LineItems(ctx context.Context, orderID int64) ([]LineItem, error) {
	rows, err := s.query(ctx, `SELECT name, quantity FROM order_items WHERE order_id = $1 ORDER BY position`, orderID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (LineItem, error) {
		var li LineItem
		err := row.Scan(&li.Name, &li.Quantity)
		return li, err
	})
}

func (s *PgStore) Notes(ctx context.Context, orderID int64) ([]Note, error) {
	rows, err := s.query(ctx, `SELECT content, created_at FROM order_notes WHERE order_id = $1 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Note, error) {
		var n Note
		err := row.Scan(&n.Content, &n.CreatedAt)
		return n, err
	})
}

func (s *PgStore) SampleIDs(ctx context.Context, kind Kind, limit int) ([]int64, error) {
	var sql string
	switch kind {
	case KindProduct:
		sql = "SELECT id FROM products WHERE type <> 'variation' ORDER BY id"
	case KindUser:
		sql = "SELECT id FROM users ORDER BY id"
	case KindOrder:
		sql = "SELECT id FROM orders ORDER BY id"
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
	rows, err := s.query(ctx, sql+limitClause(limit))
	return collectIDs(rows, err)
}

func (s *PgStore) MetaKeys(ctx context.Context, kind Kind, ids []int64) ([]string, error) {
	rows, err := s.query(ctx, `SELECT DISTINCT meta_key FROM record_meta
		WHERE kind = $1 AND record_id = ANY($2) ORDER BY meta_key`, string(kind), ids)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *PgStore) Taxonomies(ctx context.Context) ([]string, error) {
	rows, err := s.query(ctx, `SELECT DISTINCT taxonomy FROM terms ORDER BY taxonomy`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *PgStore) HasVariations(ctx context.Context) (bool, error) {
	var ok bool
	err := s.queryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE type = 'variation')`).Scan(&ok)
	return ok, err
}

func (s *PgStore) ProductTypes(ctx context.Context) ([]string, error) {
	rows, err := s.query(ctx, `SELECT DISTINCT type FROM products
		WHERE type <> 'variation' AND status IN ('publish', 'draft', 'private', 'pending') ORDER BY type`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *PgStore) UserRoles(ctx context.Context) ([]string, error) {
	rows, err := s.query(ctx, `SELECT DISTINCT role FROM user_roles ORDER BY role`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *PgStore) OrderStatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.query(ctx, `SELECT status, count(*) FROM orders
		WHERE status NOT IN ('trash', 'auto-draft') GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("error reading order status counts: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// sanitizeDSN masks the password inside a PostgreSQL DSN before logging.
func sanitizeDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "<invalid-dsn>"
	}

	var userInfo string
	if u.User != nil {
		username := u.User.Username()
		if _, hasPwd := u.User.Password(); hasPwd {
			userInfo = fmt.Sprintf("%s:***@", username)
		} else {
			userInfo = fmt.Sprintf("%s@", username)
		}
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	return fmt.Sprintf("%s://%s%s%s", u.Scheme, userInfo, u.Host, path)
}
