package morm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Model is one row of a defined model: an ordered attribute bag bound to its Schema.
// 同一个 Model 实例不应在多个 goroutine 间共享写入
type Model struct {
	schema *Schema
	values map[string]interface{}
	keys   []string // 保存属性写入顺序，用于 JSON 输出
	mu     sync.RWMutex
}

// New creates an instance of the model, optionally seeded from initial values.
func (s *Schema) New(initial ...map[string]interface{}) *Model {
	m := &Model{
		schema: s,
		values: make(map[string]interface{}, len(s.declared)),
		keys:   make([]string, 0, len(s.declared)),
	}
	for _, values := range initial {
		m.fill(values)
	}
	return m
}

// fill 按声明顺序写入已知属性，其余键按字母顺序写入
func (m *Model) fill(values map[string]interface{}) {
	for _, attr := range m.schema.declared {
		if v, ok := values[attr]; ok {
			m.Set(attr, v)
		}
	}
	extra := make([]string, 0)
	for k := range values {
		if _, declared := m.schema.mappings[k]; !declared {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		m.Set(k, values[k])
	}
}

// Schema returns the schema the instance belongs to.
func (m *Model) Schema() *Schema {
	return m.schema
}

// Set stores a value. Pointers are dereferenced, nil pointers stored as nil.
func (m *Model) Set(key string, value interface{}) *Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setDirect(key, derefPointer(value))
	return m
}

func (m *Model) setDirect(key string, value interface{}) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the stored value. ok is false when key was never set.
func (m *Model) Get(key string) (interface{}, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Value is Get without the presence flag.
func (m *Model) Value(key string) interface{} {
	v, _ := m.Get(key)
	return v
}

// GetOrDefault returns the stored value. When the key is unset or nil and the
// field declares a default, the default is resolved once, stored and returned.
func (m *Model) GetOrDefault(key string) interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.values[key]; ok && v != nil {
		return v
	}
	f, ok := m.schema.mappings[key]
	if !ok || !f.HasDefault() {
		return m.values[key]
	}
	v := f.DefaultValue()
	LogDebug("using default value", map[string]interface{}{"model": m.schema.name, "key": key, "value": v})
	m.setDirect(key, v)
	return v
}

// Has reports whether key was set.
func (m *Model) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Unset removes key from the instance.
func (m *Model) Unset(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.values[key]; !exists {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the set keys in insertion order.
func (m *Model) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// ToMap returns a copy of the stored values.
func (m *Model) ToMap() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]interface{}, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

func (m *Model) GetString(key string) string { return Convert.ToString(m.Value(key)) }
func (m *Model) GetInt(key string) int { return Convert.ToInt(m.Value(key)) }
func (m *Model) GetInt64(key string) int64 { return Convert.ToInt64(m.Value(key)) }
func (m *Model) GetFloat(key string) float64 { return Convert.ToFloat64(m.Value(key)) }
func (m *Model) GetBool(key string) bool { return Convert.ToBool(m.Value(key)) }

// MarshalJSON writes the attributes in insertion order.
func (m *Model) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		valJSON, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String 返回 JSON 格式，便于 fmt 输出
func (m *Model) String() string {
	data, err := m.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s %v>", m.schema.name, m.ToMap())
	}
	return m.schema.name + string(data)
}

// Save inserts the instance. Defaults are materialized for unset fields,
// including the primary key.
func (m *Model) Save(ctx context.Context, ex Executor) (int64, error) {
	s := m.schema
	args := make([]interface{}, 0, len(s.fields)+1)
	for _, attr := range s.fields {
		args = append(args, m.GetOrDefault(attr))
	}
	args = append(args, m.GetOrDefault(s.primaryKey))

	rows, err := ex.Execute(ctx, s.insertSQL, args)
	if err != nil {
		return 0, err
	}
	invalidateRow(ex, s, args[len(args)-1])
	return rows, checkAffected(ex, "insert", s.table, rows)
}

// Update writes every non-key field of the instance to the row with the same primary key.
// Unset fields are written as NULL.
func (m *Model) Update(ctx context.Context, ex Executor) (int64, error) {
	s := m.schema
	if s.updateSQL == "" {
		return 0, &DefinitionError{Model: s.name, Reason: "no non-key fields to update"}
	}
	args := make([]interface{}, 0, len(s.fields)+1)
	for _, attr := range s.fields {
		args = append(args, m.Value(attr))
	}
	pk := m.Value(s.primaryKey)
	args = append(args, pk)

	rows, err := ex.Execute(ctx, s.updateSQL, args)
	if err != nil {
		return 0, err
	}
	invalidateRow(ex, s, pk)
	return rows, checkAffected(ex, "update", s.table, rows)
}

// Remove deletes the row with the instance's primary key.
func (m *Model) Remove(ctx context.Context, ex Executor) (int64, error) {
	s := m.schema
	pk := m.Value(s.primaryKey)
	rows, err := ex.Execute(ctx, s.deleteSQL, []interface{}{pk})
	if err != nil {
		return 0, err
	}
	invalidateRow(ex, s, pk)
	return rows, checkAffected(ex, "remove", s.table, rows)
}

// strictRowCounter is implemented by executors that turn a row-count mismatch into an error.
type strictRowCounter interface {
	StrictRowCount() bool
}

func checkAffected(ex Executor, op, table string, rows int64) error {
	if rows == 1 {
		return nil
	}
	if sc, ok := ex.(strictRowCounter); ok && sc.StrictRowCount() {
		return &RowCountError{Op: op, Table: table, Affected: rows}
	}
	LogWarn(fmt.Sprintf("failed to %s record", op), map[string]interface{}{
		"op":       op,
		"table":    table,
		"affected": rows,
	})
	return nil
}
