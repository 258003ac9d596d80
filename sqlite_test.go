package morm_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/zzguang83325/morm"
	"github.com/zzguang83325/morm/drivers/sqlite"
)

var sqliteUser = morm.MustDefine("SQLiteUser",
	morm.Table("users"),
	morm.Attr("id", morm.StringField(morm.PrimaryKey(), morm.Default(morm.NextID), morm.MapType("varchar(50)"))),
	morm.Attr("email", morm.StringField(morm.MapType("varchar(50)"))),
	morm.Attr("passwd", morm.StringField(morm.MapType("varchar(50)"))),
	morm.Attr("admin", morm.BooleanField()),
	morm.Attr("name", morm.StringField(morm.MapType("varchar(50)"))),
	morm.Attr("image", morm.StringField(morm.MapType("varchar(500)"))),
	morm.Attr("created_at", morm.FloatField(morm.Default(morm.Now))),
)

func openSQLite(t *testing.T) *morm.DB {
	t.Helper()
	ctx := context.Background()
	db, err := morm.Open(ctx, &morm.Config{
		Driver:         morm.DriverType(sqlite.DriverName()),
		Database:       filepath.Join(t.TempDir(), "awesome.db"),
		MaxSize:        2,
		StrictRowCount: true,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Execute(ctx, sqliteUser.CreateTableSQL(), nil); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func TestSQLiteUserLifecycle(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	u := sqliteUser.New(map[string]interface{}{
		"name":   "Test",
		"email":  "test@example.com",
		"passwd": "1234567890",
		"image":  "about:blank",
		"admin":  true,
	})
	if n, err := u.Save(ctx, db); err != nil || n != 1 {
		t.Fatalf("save: %d %v", n, err)
	}
	id := u.GetString("id")
	if len(id) != 50 {
		t.Fatalf("generated id %q", id)
	}

	found, err := sqliteUser.Find(ctx, db, id)
	if err != nil || found == nil {
		t.Fatalf("find: %v %v", found, err)
	}
	assertSameValues(t, u, found)

	found.Set("name", "Renamed")
	if _, err := found.Update(ctx, db); err != nil {
		t.Fatalf("update: %v", err)
	}
	reread, err := sqliteUser.Find(ctx, db, id)
	if err != nil || reread == nil {
		t.Fatalf("find after update: %v %v", reread, err)
	}
	if reread.Value("name") != "Renamed" {
		t.Errorf("name after update = %#v", reread.Value("name"))
	}
	assertSameValues(t, found, reread)

	n, err := sqliteUser.Count(ctx, db, "count(`id`)", "`name`=?", "Renamed")
	if err != nil || morm.Convert.ToInt(n) != 1 {
		t.Fatalf("count: %v %v", n, err)
	}

	if _, err := found.Remove(ctx, db); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if gone, err := sqliteUser.Find(ctx, db, id); err != nil || gone != nil {
		t.Fatalf("expected no row, got %v %v", gone, err)
	}

	_, err = found.Remove(ctx, db)
	var rowErr *morm.RowCountError
	if !errors.As(err, &rowErr) {
		t.Fatalf("expected RowCountError, got %v", err)
	}
}

func TestSQLiteCachedFindKeepsTypes(t *testing.T) {
	ctx := context.Background()
	cache := morm.NewLocalCache(time.Minute)
	defer cache.Close()
	db := openSQLite(t).WithCache(cache, time.Minute)

	u := sqliteUser.New(map[string]interface{}{"name": "alice", "admin": true})
	if _, err := u.Save(ctx, db); err != nil {
		t.Fatal(err)
	}
	for _, pass := range []string{"miss", "hit"} {
		found, err := sqliteUser.Find(ctx, db, u.Value("id"))
		if err != nil || found == nil {
			t.Fatalf("%s: %v %v", pass, found, err)
		}
		if found.Value("admin") != true || found.Value("created_at") != u.Value("created_at") {
			t.Errorf("%s: admin=%#v created_at=%#v", pass, found.Value("admin"), found.Value("created_at"))
		}
	}
}

// assertSameValues checks that every key set on want reads back unchanged, type included.
func assertSameValues(t *testing.T, want, got *morm.Model) {
	t.Helper()
	for _, k := range want.Keys() {
		if got.Value(k) != want.Value(k) {
			t.Errorf("%s: got %#v (%T), want %#v (%T)", k, got.Value(k), got.Value(k), want.Value(k), want.Value(k))
		}
	}
}

func TestSQLiteLimits(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	for i := 0; i < 15; i++ {
		u := sqliteUser.New(map[string]interface{}{
			"id":         fmt.Sprintf("u%02d", i),
			"name":       fmt.Sprintf("user %02d", i),
			"email":      fmt.Sprintf("u%02d@example.com", i),
			"created_at": float64(i),
		})
		if _, err := u.Save(ctx, db); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	first, err := sqliteUser.FindAll(ctx, db, morm.OrderBy("`created_at`"), morm.Limit(5))
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 5 || first[0].GetString("id") != "u00" {
		t.Fatalf("Limit(5) returned %v", first)
	}

	page, err := sqliteUser.FindAll(ctx, db, morm.OrderBy("`created_at`"), morm.Limit(10, 5))
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 5 || page[0].GetString("id") != "u10" || page[4].GetString("id") != "u14" {
		t.Fatalf("Limit(10, 5) returned %v", page)
	}

	p, users, err := sqliteUser.Paginate(ctx, db, 2, 10, morm.Where("`email` LIKE ?", "%@example.com"), morm.OrderBy("`created_at`"))
	if err != nil {
		t.Fatal(err)
	}
	if p.ItemCount != 15 || p.PageCount != 2 || len(users) != 5 || p.HasNext {
		t.Errorf("unexpected page %s with %d rows", p, len(users))
	}
}
