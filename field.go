package morm

import (
	"fmt"
	"reflect"
)

// FieldKind names the variant of a Field.
type FieldKind string

const (
	KindString  FieldKind = "StringField"
	KindInteger FieldKind = "IntegerField"
	KindBoolean FieldKind = "BooleanField"
	KindFloat   FieldKind = "FloatField"
	KindText    FieldKind = "TextField"
)

// Field describes one persisted attribute of a model: its column, sql type,
// primary-key flag and default. A Field never changes after construction.
type Field struct {
	kind       FieldKind
	column     string
	columnType string
	primaryKey bool
	def        interface{}
}

// FieldOption configures a Field at construction time.
type FieldOption func(*Field)

// Column overrides the column name. Without it the attribute name is used.
func Column(name string) FieldOption {
	return func(f *Field) { f.column = name }
}

// PrimaryKey marks the field as the model's primary key.
func PrimaryKey() FieldOption {
	return func(f *Field) { f.primaryKey = true }
}

// Default sets the default value. A zero-argument function with one result
// is treated as a producer and invoked when the default is needed.
// Default(nil) removes the default.
func Default(v interface{}) FieldOption {
	return func(f *Field) { f.def = v }
}

// MapType overrides the sql type of a StringField, e.g. MapType("varchar(50)").
func MapType(t string) FieldOption {
	return func(f *Field) { f.columnType = t }
}

func newField(kind FieldKind, columnType string, def interface{}, opts []FieldOption) *Field {
	f := &Field{kind: kind, columnType: columnType, def: def}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// StringField is a varchar(100) column without a default.
func StringField(opts ...FieldOption) *Field {
	return newField(KindString, "varchar(100)", nil, opts)
}

// IntegerField is a bigint column defaulting to 0.
func IntegerField(opts ...FieldOption) *Field {
	f := newField(KindInteger, "bigint", int64(0), opts)
	f.columnType = "bigint"
	return f
}

// BooleanField is a boolean column defaulting to false. It can never be the primary key.
func BooleanField(opts ...FieldOption) *Field {
	f := newField(KindBoolean, "boolean", false, opts)
	f.columnType = "boolean"
	f.primaryKey = false
	return f
}

// FloatField is a real column defaulting to 0.0.
func FloatField(opts ...FieldOption) *Field {
	f := newField(KindFloat, "real", float64(0), opts)
	f.columnType = "real"
	return f
}

// TextField is a text column without a default. It can never be the primary key.
func TextField(opts ...FieldOption) *Field {
	f := newField(KindText, "text", nil, opts)
	f.columnType = "text"
	f.primaryKey = false
	return f
}

func (f *Field) Kind() FieldKind { return f.kind }
func (f *Field) ColumnName() string { return f.column }
func (f *Field) ColumnType() string { return f.columnType }
func (f *Field) IsPrimaryKey() bool { return f.primaryKey }
func (f *Field) HasDefault() bool { return f.def != nil }

// DefaultValue resolves the default: producers are invoked, literals returned as is.
// It returns nil when the field has no default.
func (f *Field) DefaultValue() interface{} {
	if f.def == nil {
		return nil
	}
	if fn, ok := f.def.(func() interface{}); ok {
		return fn()
	}
	v := reflect.ValueOf(f.def)
	if v.Kind() == reflect.Func && v.Type().NumIn() == 0 && v.Type().NumOut() == 1 {
		return v.Call(nil)[0].Interface()
	}
	return f.def
}

// String renders the field as <StringField, varchar(100):name>. Attr fills in
// the attribute name as column, so a field read back from a Schema always
// shows it; a bare field without Column renders an empty name.
func (f *Field) String() string {
	return fmt.Sprintf("<%s, %s:%s>", f.kind, f.columnType, f.column)
}
