package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Lelcaren/mwangaza-rentals/internal/database"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrReferential is returned when a write would break a foreign key.
	ErrReferential = errors.New("referential integrity violation")
)

// pgForeignKeyViolation is the SQLSTATE for foreign_key_violation.
const pgForeignKeyViolation = "23503"

// Condition is one SQL predicate with its arguments.
type Condition struct {
	Query string
	Args  []interface{}
}

// Filter narrows a List call. Zero values mean "no restriction".
type Filter struct {
	// Equals maps column names to required values.
	Equals map[string]interface{}
	// Conditions are ANDed raw predicates, e.g. {"due_date < ?", asOf}.
	Conditions []Condition
	// Order overrides the repository's default ordering.
	Order string
	Limit int
}

// Where returns a copy of f with an extra predicate.
func (f Filter) Where(query string, args ...interface{}) Filter {
	f.Conditions = append(append([]Condition(nil), f.Conditions...), Condition{Query: query, Args: args})
	return f
}

// Eq returns a copy of f requiring column = value.
func (f Filter) Eq(column string, value interface{}) Filter {
	eq := make(map[string]interface{}, len(f.Equals)+1)
	for k, v := range f.Equals {
		eq[k] = v
	}
	eq[column] = value
	f.Equals = eq
	return f
}

// Repository is the persistence contract shared by every record type.
type Repository[T any] interface {
	// Create inserts the record; the id is assigned when empty.
	Create(ctx context.Context, record *T) error
	// Get returns the record with id, or ErrNotFound.
	Get(ctx context.Context, id string) (*T, error)
	// List returns the records matching filter in the repository's order.
	List(ctx context.Context, filter Filter) ([]T, error)
	// Update writes every column of the record back; ErrNotFound when it no longer exists.
	Update(ctx context.Context, record *T) error
	// Delete removes the record with id; ErrNotFound when nothing was deleted.
	Delete(ctx context.Context, id string) error
}

// gormRepository is the gorm implementation of Repository.
type gormRepository[T any] struct {
	db       *gorm.DB
	preloads []string
	order    string
}

func newGormRepository[T any](db *database.Database, order string, preloads ...string) *gormRepository[T] {
	return &gormRepository[T]{db: db.DB, preloads: preloads, order: order}
}

type txKey struct{}

// conn returns the transaction bound to ctx, or the base handle.
func (r *gormRepository[T]) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *gormRepository[T]) withPreloads(q *gorm.DB) *gorm.DB {
	for _, p := range r.preloads {
		q = q.Preload(p)
	}
	return q
}

func (r *gormRepository[T]) Create(ctx context.Context, record *T) error {
	if err := r.conn(ctx).Omit(clause.Associations).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create %s: %w", tableName[T](), translate(err))
	}
	return nil
}

func (r *gormRepository[T]) Get(ctx context.Context, id string) (*T, error) {
	var record T
	err := r.withPreloads(r.conn(ctx)).First(&record, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", tableName[T](), id, translate(err))
	}
	return &record, nil
}

func (r *gormRepository[T]) List(ctx context.Context, filter Filter) ([]T, error) {
	q := r.withPreloads(r.conn(ctx))
	if len(filter.Equals) > 0 {
		q = q.Where(filter.Equals)
	}
	for _, c := range filter.Conditions {
		q = q.Where(c.Query, c.Args...)
	}

	order := r.order
	if filter.Order != "" {
		order = filter.Order
	}
	if order != "" {
		q = q.Order(order)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	records := []T{}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", tableName[T](), translate(err))
	}
	return records, nil
}

func (r *gormRepository[T]) Update(ctx context.Context, record *T) error {
	res := r.conn(ctx).Select("*").Omit(clause.Associations, "created_at").Updates(record)
	if res.Error != nil {
		return fmt.Errorf("failed to update %s: %w", tableName[T](), translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to update %s: %w", tableName[T](), ErrNotFound)
	}
	return nil
}

func (r *gormRepository[T]) Delete(ctx context.Context, id string) error {
	var zero T
	res := r.conn(ctx).Delete(&zero, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete %s %s: %w", tableName[T](), id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to delete %s %s: %w", tableName[T](), id, ErrNotFound)
	}
	return nil
}

// Transactor runs functions inside one database transaction.
type Transactor interface {
	// WithinTx runs fn with a context bound to a transaction. Repositories called with
	// that context join the transaction. The transaction commits when fn returns nil.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor creates a Transactor over db.
func NewTransactor(db *database.Database) Transactor {
	return &gormTransactor{db: db.DB}
}

func (t *gormTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return fmt.Errorf("%w: %v", ErrReferential, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return fmt.Errorf("%w: %s", ErrReferential, pgErr.ConstraintName)
	}
	if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return fmt.Errorf("%w: %v", ErrReferential, err)
	}
	return err
}

type tabler interface {
	TableName() string
}

func tableName[T any]() string {
	var zero T
	if t, ok := interface{}(zero).(tabler); ok {
		return t.TableName()
	}
	if t, ok := interface{}(&zero).(tabler); ok {
		return t.TableName()
	}
	return "record"
}
