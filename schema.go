package morm

import (
	"fmt"
	"strings"
	"sync"
)

// Declaration is one entry of a model definition: a Table override or an Attr.
type Declaration interface {
	declare(b *schemaBuilder) error
}

type tableDecl string

func (t tableDecl) declare(b *schemaBuilder) error {
	if b.table != "" {
		return &DefinitionError{Model: b.model, Reason: fmt.Sprintf("table declared twice (%s, %s)", b.table, string(t))}
	}
	b.table = string(t)
	return nil
}

// Table overrides the table name. Without it the model name is used.
func Table(name string) Declaration {
	return tableDecl(name)
}

type attrDecl struct {
	name  string
	field *Field
}

func (a attrDecl) declare(b *schemaBuilder) error {
	if a.field == nil {
		return &DefinitionError{Model: b.model, Reason: fmt.Sprintf("attribute %s has no field", a.name)}
	}
	if _, exists := b.mappings[a.name]; exists {
		return &DefinitionError{Model: b.model, Reason: fmt.Sprintf("duplicate attribute %s", a.name)}
	}
	// 拷贝一份，列名缺省为属性名；同一个 Field 可在多个 Attr 中复用
	f := *a.field
	if f.column == "" {
		f.column = a.name
	}
	b.mappings[a.name] = &f
	b.declared = append(b.declared, a.name)
	return nil
}

// Attr declares a persisted attribute. Declaration order is preserved and
// determines the column order of every generated statement.
func Attr(name string, f *Field) Declaration {
	return attrDecl{name: name, field: f}
}

type schemaBuilder struct {
	model    string
	table    string
	mappings map[string]*Field
	declared []string
}

// Schema is the immutable metadata of a model: its table, primary key,
// ordered fields and the four statement templates.
type Schema struct {
	name       string
	table      string
	primaryKey string
	fields     []string // non-key attributes, declaration order
	declared   []string // all attributes, declaration order
	mappings   map[string]*Field
	columns    map[string]string // attribute -> column
	attrs      map[string]string // lower(column) -> attribute

	selectSQL string
	insertSQL string
	updateSQL string
	deleteSQL string
}

var (
	registry   = make(map[string]*Schema)
	registryMu sync.RWMutex
)

// Define builds the schema of a model once and registers it under modelName.
//
//	User := morm.MustDefine("User",
//		morm.Table("users"),
//		morm.Attr("id", morm.StringField(morm.PrimaryKey(), morm.Default(morm.NextID), morm.MapType("varchar(50)"))),
//		morm.Attr("name", morm.StringField(morm.MapType("varchar(50)"))),
//		morm.Attr("created_at", morm.FloatField(morm.Default(morm.Now))),
//	)
func Define(modelName string, decls ...Declaration) (*Schema, error) {
	if modelName == "" {
		return nil, &DefinitionError{Model: modelName, Reason: "model name cannot be empty"}
	}
	b := &schemaBuilder{model: modelName, mappings: make(map[string]*Field)}
	for _, d := range decls {
		if err := d.declare(b); err != nil {
			return nil, err
		}
	}

	s, err := b.build()
	if err != nil {
		return nil, err
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[modelName]; exists {
		return nil, &DefinitionError{Model: modelName, Reason: "model already defined"}
	}
	registry[modelName] = s
	LogDebug("found model", map[string]interface{}{"model": modelName, "table": s.table})
	return s, nil
}

// MustDefine is like Define but panics on a definition error.
// It is intended for package-level model variables.
func MustDefine(modelName string, decls ...Declaration) *Schema {
	s, err := Define(modelName, decls...)
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup returns the schema registered under modelName.
func Lookup(modelName string) (*Schema, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[modelName]
	return s, ok
}

func (b *schemaBuilder) build() (*Schema, error) {
	s := &Schema{
		name:     b.model,
		table:    b.table,
		declared: b.declared,
		mappings: b.mappings,
		columns:  make(map[string]string, len(b.declared)),
		attrs:    make(map[string]string, len(b.declared)),
	}
	if s.table == "" {
		s.table = b.model
	}
	if err := validateIdentifier(s.table); err != nil {
		return nil, err
	}

	for _, attr := range b.declared {
		f := b.mappings[attr]
		if f.IsPrimaryKey() {
			if s.primaryKey != "" {
				return nil, &DuplicatePrimaryKeyError{Model: b.model, Field: attr, Existing: s.primaryKey}
			}
			s.primaryKey = attr
		} else {
			s.fields = append(s.fields, attr)
		}

		col := f.ColumnName()
		if col == "" {
			col = attr
		}
		if err := validateIdentifier(col); err != nil {
			return nil, err
		}
		lower := strings.ToLower(col)
		if other, dup := s.attrs[lower]; dup {
			return nil, &DefinitionError{Model: b.model, Reason: fmt.Sprintf("attributes %s and %s map to the same column %s", other, attr, col)}
		}
		s.columns[attr] = col
		s.attrs[lower] = attr
	}
	if s.primaryKey == "" {
		return nil, &MissingPrimaryKeyError{Model: b.model}
	}

	s.buildTemplates()
	return s, nil
}

func (s *Schema) buildTemplates() {
	table := quoteIdentifier(s.table)
	pk := quoteIdentifier(s.columns[s.primaryKey])

	selectCols := make([]string, 0, len(s.declared))
	for _, attr := range s.declared {
		selectCols = append(selectCols, quoteIdentifier(s.columns[attr]))
	}

	insertCols := make([]string, 0, len(s.fields)+1)
	assigns := make([]string, 0, len(s.fields))
	for _, attr := range s.fields {
		col := quoteIdentifier(s.columns[attr])
		insertCols = append(insertCols, col)
		assigns = append(assigns, col+"=?")
	}
	insertCols = append(insertCols, pk)

	s.selectSQL = fmt.Sprintf("SELECT %s FROM %s", strings.Join(selectCols, ", "), table)
	s.insertSQL = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(insertCols, ", "), placeholders(len(insertCols)))
	if len(assigns) > 0 {
		s.updateSQL = fmt.Sprintf("UPDATE %s SET %s WHERE %s=?", table, strings.Join(assigns, ", "), pk)
	}
	s.deleteSQL = fmt.Sprintf("DELETE FROM %s WHERE %s=?", table, pk)
}

// quoteIdentifier wraps each dot-separated part in backticks.
func quoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = "`" + p + "`"
	}
	return strings.Join(parts, ".")
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func (s *Schema) Name() string { return s.name }
func (s *Schema) Table() string { return s.table }
func (s *Schema) PrimaryKey() string { return s.primaryKey }

// Fields returns the non-key attributes in declaration order.
func (s *Schema) Fields() []string {
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field returns the descriptor of attr.
func (s *Schema) Field(attr string) (*Field, bool) {
	f, ok := s.mappings[attr]
	return f, ok
}

// ColumnOf returns the column name attr is stored in.
func (s *Schema) ColumnOf(attr string) string {
	if col, ok := s.columns[attr]; ok {
		return col
	}
	return attr
}

func (s *Schema) SelectSQL() string { return s.selectSQL }
func (s *Schema) InsertSQL() string { return s.insertSQL }
func (s *Schema) DeleteSQL() string { return s.deleteSQL }

// UpdateSQL returns the update template. It is empty for a model whose only
// attribute is the primary key.
func (s *Schema) UpdateSQL() string { return s.updateSQL }

// CreateTableSQL renders a CREATE TABLE IF NOT EXISTS statement for bootstrapping
// an empty database. It does not diff or migrate existing tables.
func (s *Schema) CreateTableSQL() string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE IF NOT EXISTS ")
	sb.WriteString(quoteIdentifier(s.table))
	sb.WriteString(" (\n")
	for _, attr := range s.declared {
		f := s.mappings[attr]
		sb.WriteString("  ")
		sb.WriteString(quoteIdentifier(s.columns[attr]))
		sb.WriteString(" ")
		sb.WriteString(f.ColumnType())
		if f.IsPrimaryKey() {
			sb.WriteString(" NOT NULL")
		}
		sb.WriteString(",\n")
	}
	sb.WriteString("  PRIMARY KEY (")
	sb.WriteString(quoteIdentifier(s.columns[s.primaryKey]))
	sb.WriteString(")\n)")
	return sb.String()
}

// hydrate turns a result row keyed by column into a Model keyed by attribute.
// Declared attributes are converted to their field kind, so a boolean stored
// as 0/1 reads back as a bool. Columns without a declared attribute keep
// their column name and driver value.
func (s *Schema) hydrate(row map[string]interface{}) *Model {
	values := make(map[string]interface{}, len(row))
	for col, v := range row {
		if attr, ok := s.attrs[strings.ToLower(col)]; ok {
			if v != nil {
				v = normalizeKind(s.mappings[attr].Kind(), v)
			}
			values[attr] = v
			continue
		}
		values[col] = v
	}
	m := s.New()
	m.fill(values)
	return m
}

func (s *Schema) String() string {
	return fmt.Sprintf("<Schema %s, table:%s, pk:%s, fields:%v>", s.name, s.table, s.primaryKey, s.fields)
}
