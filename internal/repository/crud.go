package repository

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/product-catalog/internal/query"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
	"github.com/tuanvumaihuynh/product-catalog/pkg/zerror"
)

// Record holds column values keyed by public field name. A nil value is
// written as NULL.
type Record map[string]any

// Table describes how one entity is stored.
type Table[T any] struct {
	Name   string
	Schema query.Schema
	// Columns is the select list, in the order Scan reads them.
	Columns []string
	// Writable lists the field names accepted in a Record.
	Writable []string
	// Touch sets updated_at = NOW() on every update.
	Touch bool
	// NotFound is returned by Get, Update and Delete for a missing id.
	NotFound zerror.ZError
	Scan     func(row pgx.Row) (T, error)
	ID       func(T) int64
}

func (t *Table[T]) selectFrom() string {
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(t.Columns, ", "), t.Name)
}

func (t *Table[T]) returning() string {
	return " RETURNING " + strings.Join(t.Columns, ", ")
}

// CRUD implements create, read, update, delete, list, search and count over one
// table. It is stateless apart from the db handle and safe to share.
type CRUD[T any] struct {
	db    db.DB
	table *Table[T]
}

func NewCRUD[T any](db db.DB, table *Table[T]) CRUD[T] {
	return CRUD[T]{db: db, table: table}
}

func (c CRUD[T]) WithDB(db db.DB) CRUD[T] {
	return CRUD[T]{db: db, table: c.table}
}

func (c CRUD[T]) idColumn() string {
	f, _ := c.table.Schema.Field(c.table.Schema.ID)
	return f.Column
}

func (c CRUD[T]) notFound(id int64) error {
	return c.table.NotFound.WithMsgf("%s with id %d not found", strings.TrimSuffix(c.table.Name, "s"), id)
}

func (c CRUD[T]) Get(ctx context.Context, id int64) (T, error) {
	sql := fmt.Sprintf("%s WHERE %s = @id", c.table.selectFrom(), c.idColumn())

	item, err := c.table.Scan(c.db.QueryRow(ctx, sql, pgx.NamedArgs{"id": id}))
	if err != nil {
		var zero T
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, c.notFound(id)
		}
		return zero, fmt.Errorf("get %s: %w", c.table.Name, err)
	}

	return item, nil
}

func (c CRUD[T]) List(ctx context.Context, spec query.Spec) ([]T, error) {
	plan := c.table.Schema.Compile(spec)

	items, err := c.collect(ctx, plan.Select(c.table.selectFrom()), plan.Args)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.table.Name, err)
	}

	return items, nil
}

// Search narrows spec with a case-insensitive substring match of term across
// fields. An empty term or field list makes it a plain List.
func (c CRUD[T]) Search(ctx context.Context, term string, fields []string, spec query.Spec) ([]T, error) {
	spec.Search = query.Search{Term: term, Fields: fields}
	return c.List(ctx, spec)
}

// Count applies the same criteria as List and ignores pagination.
func (c CRUD[T]) Count(ctx context.Context, criteria query.Criteria) (int64, error) {
	where, args := c.table.Schema.Where(criteria)

	var total int64
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", c.table.Name, where)
	if err := c.db.QueryRow(ctx, sql, args).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", c.table.Name, err)
	}

	return total, nil
}

func (c CRUD[T]) Create(ctx context.Context, rec Record) (T, error) {
	var zero T

	cols, args, err := c.encode(rec)
	if err != nil {
		return zero, err
	}

	sql := fmt.Sprintf("INSERT INTO %s DEFAULT VALUES%s", c.table.Name, c.table.returning())
	if len(cols) > 0 {
		placeholders := make([]string, len(cols))
		for i, col := range cols {
			placeholders[i] = "@w_" + col
		}
		sql = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)%s",
			c.table.Name, strings.Join(cols, ", "), strings.Join(placeholders, ", "), c.table.returning())
	}

	item, err := c.table.Scan(c.db.QueryRow(ctx, sql, args))
	if err != nil {
		return zero, fmt.Errorf("create %s: %w", c.table.Name, err)
	}

	return item, nil
}

// BatchCreate inserts every record in one transaction; if one insert fails
// none are kept.
func (c CRUD[T]) BatchCreate(ctx context.Context, recs []Record) ([]T, error) {
	items := make([]T, 0, len(recs))

	if err := c.db.WithTx(ctx, func(tx db.DB) error {
		repo := c.WithDB(tx)
		for i, rec := range recs {
			item, err := repo.Create(ctx, rec)
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			items = append(items, item)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("batch create %s: %w", c.table.Name, err)
	}

	return items, nil
}

// Update applies rec to the row with id. Fields absent from rec keep their
// value. An empty rec returns the current row.
func (c CRUD[T]) Update(ctx context.Context, id int64, rec Record) (T, error) {
	var zero T
	if len(rec) == 0 {
		return c.Get(ctx, id)
	}

	set, args, err := c.setClause(rec)
	if err != nil {
		return zero, err
	}
	args["id"] = id

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = @id%s", c.table.Name, set, c.idColumn(), c.table.returning())

	item, err := c.table.Scan(c.db.QueryRow(ctx, sql, args))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, c.notFound(id)
		}
		return zero, fmt.Errorf("update %s: %w", c.table.Name, err)
	}

	return item, nil
}

// BatchUpdate applies the same rec to every existing id. Missing ids are
// skipped. Results are ordered by id.
func (c CRUD[T]) BatchUpdate(ctx context.Context, ids []int64, rec Record) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	if len(rec) == 0 {
		return c.ListByIDs(ctx, ids)
	}

	set, args, err := c.setClause(rec)
	if err != nil {
		return nil, err
	}
	args["ids"] = ids

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ANY(@ids)%s", c.table.Name, set, c.idColumn(), c.table.returning())

	items, err := c.collect(ctx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("batch update %s: %w", c.table.Name, err)
	}

	return c.sortByID(items), nil
}

// Delete removes the row with id and returns its last state.
func (c CRUD[T]) Delete(ctx context.Context, id int64) (T, error) {
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = @id%s", c.table.Name, c.idColumn(), c.table.returning())

	item, err := c.table.Scan(c.db.QueryRow(ctx, sql, pgx.NamedArgs{"id": id}))
	if err != nil {
		var zero T
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, c.notFound(id)
		}
		return zero, fmt.Errorf("delete %s: %w", c.table.Name, err)
	}

	return item, nil
}

// BatchDelete removes every existing id. Missing ids are ignored. Results are
// ordered by id.
func (c CRUD[T]) BatchDelete(ctx context.Context, ids []int64) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = ANY(@ids)%s", c.table.Name, c.idColumn(), c.table.returning())

	items, err := c.collect(ctx, sql, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("batch delete %s: %w", c.table.Name, err)
	}

	return c.sortByID(items), nil
}

// ListByIDs returns the existing rows among ids, ordered by id.
func (c CRUD[T]) ListByIDs(ctx context.Context, ids []int64) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}

	sql := fmt.Sprintf("%s WHERE %s = ANY(@ids) ORDER BY %s",
		c.table.selectFrom(), c.idColumn(), c.idColumn())

	items, err := c.collect(ctx, sql, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("list %s by ids: %w", c.table.Name, err)
	}

	return items, nil
}

// ExistingIDs returns the subset of ids present in the table, ascending.
func (c CRUD[T]) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ANY(@ids) ORDER BY %s",
		c.idColumn(), c.table.Name, c.idColumn(), c.idColumn())

	rows, err := c.db.Query(ctx, sql, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("existing %s ids: %w", c.table.Name, err)
	}

	existing, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("existing %s ids: %w", c.table.Name, err)
	}

	return existing, nil
}

func (c CRUD[T]) collect(ctx context.Context, sql string, args pgx.NamedArgs) ([]T, error) {
	rows, err := c.db.Query(ctx, sql, args)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		return c.table.Scan(row)
	})
}

// encode validates rec against the writable fields and returns the columns in
// a stable order plus their named arguments.
func (c CRUD[T]) encode(rec Record) ([]string, pgx.NamedArgs, error) {
	names := make([]string, 0, len(rec))
	for name := range rec {
		if !slices.Contains(c.table.Writable, name) {
			return nil, nil, fmt.Errorf("%s: field %q is not writable", c.table.Name, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	cols := make([]string, len(names))
	args := pgx.NamedArgs{}
	for i, name := range names {
		f, ok := c.table.Schema.Field(name)
		if !ok {
			return nil, nil, fmt.Errorf("%s: field %q is not registered", c.table.Name, name)
		}
		cols[i] = f.Column
		args["w_"+f.Column] = query.Encode(f.Kind, rec[name])
	}

	return cols, args, nil
}

func (c CRUD[T]) setClause(rec Record) (string, pgx.NamedArgs, error) {
	cols, args, err := c.encode(rec)
	if err != nil {
		return "", nil, err
	}

	sets := make([]string, 0, len(cols)+1)
	for _, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = @w_%s", col, col))
	}
	if c.table.Touch {
		sets = append(sets, "updated_at = NOW()")
	}

	return strings.Join(sets, ", "), args, nil
}

// sortByID orders items by id since RETURNING does not guarantee an order.
func (c CRUD[T]) sortByID(items []T) []T {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(c.table.ID(a), c.table.ID(b))
	})
	return items
}
