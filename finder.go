package morm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FindOption refines a FindAll query.
type FindOption func(*findOptions)

type findOptions struct {
	where   string
	args    []interface{}
	orderBy string
	limit   []int
	limited bool
}

// Where appends a raw WHERE clause. Its ? placeholders bind args in order.
func Where(clause string, args ...interface{}) FindOption {
	return func(o *findOptions) {
		o.where = clause
		o.args = args
	}
}

// OrderBy appends a raw ORDER BY expression.
func OrderBy(expr string) FindOption {
	return func(o *findOptions) { o.orderBy = expr }
}

// Limit restricts the result: Limit(count) or Limit(offset, count).
// Both numbers are bound as parameters.
func Limit(n ...int) FindOption {
	return func(o *findOptions) {
		o.limit = n
		o.limited = true
	}
}

func (o *findOptions) validate() error {
	if err := validateSafeSQL(o.orderBy); err != nil {
		return err
	}
	if !o.limited {
		return nil
	}
	if len(o.limit) != 1 && len(o.limit) != 2 {
		return fmt.Errorf("%w: expected count or (offset, count), got %d values", ErrInvalidLimit, len(o.limit))
	}
	for _, n := range o.limit {
		if n < 0 {
			return fmt.Errorf("%w: negative value %v", ErrInvalidLimit, o.limit)
		}
	}
	return nil
}

// driverOf returns the dialect of ex; executors that do not report one are treated as MySQL.
func driverOf(ex Executor) DriverType {
	if d, ok := ex.(interface{ Driver() DriverType }); ok {
		return d.Driver()
	}
	return MySQL
}

// Find returns the row whose primary key equals pk, or nil when there is none.
func (s *Schema) Find(ctx context.Context, ex Executor, pk interface{}) (*Model, error) {
	if cached, ok := lookupRow(ex, s, pk); ok {
		return s.hydrate(cached), nil
	}

	query := fmt.Sprintf("%s WHERE %s=?", s.selectSQL, quoteIdentifier(s.columns[s.primaryKey]))
	rows, err := ex.Select(ctx, query, []interface{}{pk}, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	storeRow(ex, s, pk, rows[0])
	return s.hydrate(rows[0]), nil
}

// FindAll returns every row matching the options, in the order the database returns them.
//
//	users, err := User.FindAll(ctx, db, morm.Where("admin=?", true), morm.OrderBy("created_at desc"), morm.Limit(10, 5))
func (s *Schema) FindAll(ctx context.Context, ex Executor, opts ...FindOption) ([]*Model, error) {
	o := &findOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	parts := []string{s.selectSQL}
	args := make([]interface{}, 0, len(o.args)+2)
	if o.where != "" {
		parts = append(parts, "WHERE", o.where)
		args = append(args, o.args...)
	}
	if o.orderBy != "" {
		parts = append(parts, "ORDER BY", o.orderBy)
	}
	if o.limited {
		clause, limitArgs := driverOf(ex).limitClause(o.limit)
		parts = append(parts, clause)
		args = append(args, limitArgs...)
	}

	rows, err := ex.Select(ctx, strings.Join(parts, " "), args, 0)
	if err != nil {
		return nil, err
	}
	models := make([]*Model, 0, len(rows))
	for _, row := range rows {
		models = append(models, s.hydrate(row))
	}
	return models, nil
}

// Count evaluates selectExpr (e.g. "count(id)") over the rows matching where.
// It returns nil when the query yields no row.
func (s *Schema) Count(ctx context.Context, ex Executor, selectExpr string, where string, args ...interface{}) (interface{}, error) {
	if err := validateSafeSQL(selectExpr); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s AS _num_ FROM %s", selectExpr, quoteIdentifier(s.table))
	if where != "" {
		query += " WHERE " + where
	}
	rows, err := ex.Select(ctx, query, args, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0]["_num_"], nil
}

// Paginate counts the rows matching the Where option and loads the requested page.
// An empty or out-of-range page returns no rows without querying them.
func (s *Schema) Paginate(ctx context.Context, ex Executor, pageIndex, pageSize int, opts ...FindOption) (*Page, []*Model, error) {
	o := &findOptions{}
	for _, opt := range opts {
		opt(o)
	}
	num, err := s.Count(ctx, ex, "count("+quoteIdentifier(s.columns[s.primaryKey])+")", o.where, o.args...)
	if err != nil {
		return nil, nil, err
	}
	page := NewPage(int(Convert.ToInt64(num)), pageIndex, pageSize)
	if page.Limit == 0 {
		return page, []*Model{}, nil
	}
	pageOpts := append(append([]FindOption{}, opts...), Limit(page.Offset, page.Limit))
	models, err := s.FindAll(ctx, ex, pageOpts...)
	if err != nil {
		return nil, nil, err
	}
	return page, models, nil
}

// rowCacher is implemented by executors that carry a row cache (see DB.WithCache).
type rowCacher interface {
	rowCache() (CacheProvider, time.Duration)
}

func rowCacheKey(pk interface{}) string {
	return Convert.ToString(pk)
}

func lookupRow(ex Executor, s *Schema, pk interface{}) (map[string]interface{}, bool) {
	rc, ok := ex.(rowCacher)
	if !ok {
		return nil, false
	}
	cache, _ := rc.rowCache()
	if cache == nil {
		return nil, false
	}
	v, ok := cache.CacheGet(s.table, rowCacheKey(pk))
	if !ok {
		return nil, false
	}
	row, ok := s.decodeCachedRow(v)
	if ok {
		LogDebug("row cache hit", map[string]interface{}{"table": s.table, "key": rowCacheKey(pk)})
	}
	return row, ok
}

func storeRow(ex Executor, s *Schema, pk interface{}, row map[string]interface{}) {
	if rc, ok := ex.(rowCacher); ok {
		if cache, ttl := rc.rowCache(); cache != nil {
			cache.CacheSet(s.table, rowCacheKey(pk), row, ttl)
		}
	}
}

func invalidateRow(ex Executor, s *Schema, pk interface{}) {
	if rc, ok := ex.(rowCacher); ok {
		if cache, _ := rc.rowCache(); cache != nil {
			cache.CacheDelete(s.table, rowCacheKey(pk))
		}
	}
}

// decodeCachedRow accepts a row map from an in-process cache or the JSON
// bytes a remote cache returns, restoring field types from the schema.
func (s *Schema) decodeCachedRow(v interface{}) (map[string]interface{}, bool) {
	var raw map[string]interface{}
	switch val := v.(type) {
	case map[string]interface{}:
		return val, true
	case []byte:
		raw = decodeJSONObject(val)
	case string:
		raw = decodeJSONObject([]byte(val))
	}
	if raw == nil {
		return nil, false
	}

	row := make(map[string]interface{}, len(raw))
	for col, value := range raw {
		attr, ok := s.attrs[strings.ToLower(col)]
		if !ok || value == nil {
			row[col] = value
			continue
		}
		row[col] = normalizeKind(s.mappings[attr].Kind(), value)
	}
	return row, true
}

func decodeJSONObject(data []byte) map[string]interface{} {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var out map[string]interface{}
	if err := dec.Decode(&out); err != nil {
		return nil
	}
	return out
}

func normalizeKind(kind FieldKind, value interface{}) interface{} {
	if n, ok := value.(json.Number); ok {
		value = n.String()
	}
	switch kind {
	case KindInteger:
		if v, err := Convert.ToInt64WithError(value); err == nil {
			return v
		}
	case KindFloat:
		if v, err := Convert.ToFloat64WithError(value); err == nil {
			return v
		}
	case KindBoolean:
		if v, err := Convert.ToBoolWithError(value); err == nil {
			return v
		}
	case KindString, KindText:
		return Convert.ToString(value)
	}
	return value
}
