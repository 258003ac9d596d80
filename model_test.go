package morm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestModelGetSet(t *testing.T) {
	s := defineUser(t)
	name := "alice"
	m := s.New(map[string]interface{}{"name": &name, "zeta": 1, "alpha": 2})

	if v, ok := m.Get("name"); !ok || v != "alice" {
		t.Errorf("pointer should be dereferenced, got %#v", v)
	}
	if _, ok := m.Get("email"); ok {
		t.Error("unset field should report ok=false")
	}
	if m.Value("email") != nil {
		t.Error("Value of unset field should be nil")
	}
	if got := m.Keys(); len(got) != 3 || got[0] != "name" || got[1] != "alpha" || got[2] != "zeta" {
		t.Errorf("keys %v", got)
	}

	m.Set("admin", 1).Set("created_at", "1.5")
	if !m.GetBool("admin") || m.GetFloat("created_at") != 1.5 || m.GetInt("zeta") != 1 {
		t.Errorf("typed getters: %v", m.ToMap())
	}

	m.Unset("alpha")
	if m.Has("alpha") || len(m.Keys()) != 4 {
		t.Errorf("unset failed: %v", m.Keys())
	}
}

func TestGetOrDefaultProducerOnce(t *testing.T) {
	calls := 0
	s := MustDefine(uniqueName("Counter"),
		Attr("id", StringField(PrimaryKey(), Default(func() interface{} {
			calls++
			return "generated"
		}))),
		Attr("n", IntegerField()),
		Attr("note", StringField()),
	)
	m := s.New()

	first := m.GetOrDefault("id")
	second := m.GetOrDefault("id")
	if first != "generated" || second != first || calls != 1 {
		t.Errorf("producer calls=%d first=%v second=%v", calls, first, second)
	}
	if v, ok := m.Get("id"); !ok || v != "generated" {
		t.Error("default should be stored on the instance")
	}
	if m.GetOrDefault("n") != int64(0) {
		t.Errorf("literal default: %#v", m.GetOrDefault("n"))
	}
	if m.GetOrDefault("note") != nil || m.Has("note") {
		t.Error("field without default stays unset")
	}

	m.Set("n", nil)
	if m.GetOrDefault("n") != int64(0) {
		t.Error("nil value should resolve the default")
	}
	m.Set("n", int64(7))
	if m.GetOrDefault("n") != int64(7) {
		t.Error("set value must win over the default")
	}
}

func TestModelJSON(t *testing.T) {
	s := defineUser(t)
	m := s.New().Set("name", "alice").Set("id", "u1").Set("admin", true)
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"name":"alice","id":"u1","admin":true}` {
		t.Errorf("got %s", data)
	}
	if m.String() != s.Name()+string(data) {
		t.Errorf("String() = %s", m.String())
	}
}

func TestSaveArgumentOrder(t *testing.T) {
	s := defineUser(t)
	db, mock := newMockDB(t, nil)

	m := s.New(map[string]interface{}{
		"id": "u1", "email": "a@b.c", "passwd": "secret", "name": "alice", "image": "img",
	})
	mock.ExpectExec(userInsert).
		WithArgs("a@b.c", "secret", false, "alice", "img", sqlmock.AnyArg(), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows, err := m.Save(context.Background(), db)
	if err != nil || rows != 1 {
		t.Fatalf("save: rows=%d err=%v", rows, err)
	}
	if _, ok := m.Value("created_at").(float64); !ok {
		t.Errorf("created_at default not materialized: %#v", m.Value("created_at"))
	}
}

func TestSaveGeneratesPrimaryKeyOnce(t *testing.T) {
	s := defineUser(t)
	db, mock := newMockDB(t, nil)

	m := s.New(map[string]interface{}{"name": "alice"})
	mock.ExpectExec(userInsert).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(userInsert).WillReturnResult(sqlmock.NewResult(0, 1))

	if _, err := m.Save(context.Background(), db); err != nil {
		t.Fatal(err)
	}
	id := m.GetString("id")
	if len(id) != 50 {
		t.Fatalf("generated id %q", id)
	}
	if _, err := m.Save(context.Background(), db); err != nil {
		t.Fatal(err)
	}
	if m.GetString("id") != id {
		t.Error("second save must reuse the stored id")
	}
}

func TestUpdateUsesPlainValues(t *testing.T) {
	s := defineUser(t)
	db, mock := newMockDB(t, nil)

	m := s.New(map[string]interface{}{"id": "u1", "name": "bob", "admin": true, "created_at": 2.5})
	mock.ExpectExec(userUpdate).
		WithArgs(nil, nil, true, "bob", nil, 2.5, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if _, err := m.Update(context.Background(), db); err != nil {
		t.Fatal(err)
	}
	if m.Has("email") {
		t.Error("update must not materialize defaults")
	}
}

func TestRemove(t *testing.T) {
	s := defineUser(t)
	db, mock := newMockDB(t, nil)

	mock.ExpectExec(userDelete).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	if _, err := s.New().Set("id", "u1").Remove(context.Background(), db); err != nil {
		t.Fatal(err)
	}
}

func TestRowCountSoftFailure(t *testing.T) {
	logs := captureLogs(t)
	s := defineUser(t)
	db, mock := newMockDB(t, nil)

	mock.ExpectExec(userDelete).WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))
	rows, err := s.New().Set("id", "missing").Remove(context.Background(), db)
	if err != nil || rows != 0 {
		t.Fatalf("soft policy should not fail: rows=%d err=%v", rows, err)
	}
	e, ok := logs.find("failed to remove record")
	if !ok || e.level != LevelWarn {
		t.Fatalf("expected warning, got %+v", logs.entries)
	}
	if e.fields["table"] != "users" || e.fields["affected"] != int64(0) {
		t.Errorf("warning fields %v", e.fields)
	}
}

func TestRowCountStrict(t *testing.T) {
	s := defineUser(t)
	db, mock := newMockDB(t, &Config{StrictRowCount: true})

	mock.ExpectExec(userUpdate).WillReturnResult(sqlmock.NewResult(0, 0))
	rows, err := s.New().Set("id", "u1").Update(context.Background(), db)
	var rc *RowCountError
	if !errors.As(err, &rc) {
		t.Fatalf("expected RowCountError, got %v", err)
	}
	if rows != 0 || rc.Op != "update" || rc.Table != "users" || rc.Affected != 0 {
		t.Errorf("unexpected %+v rows=%d", rc, rows)
	}
}

func TestDriverErrorPropagates(t *testing.T) {
	s := defineUser(t)
	db, mock := newMockDB(t, nil)
	boom := errors.New("duplicate entry")

	mock.ExpectExec(userInsert).WillReturnError(boom)
	if _, err := s.New().Set("id", "u1").Save(context.Background(), db); !errors.Is(err, boom) {
		t.Fatalf("expected driver error, got %v", err)
	}
	sqlDB, _ := db.SqlDB()
	if inUse := sqlDB.Stats().InUse; inUse != 0 {
		t.Errorf("connection not released, in use: %d", inUse)
	}
}
