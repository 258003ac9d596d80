/*
Package morm is a small declarative ORM.

A model is declared once with Define. The schema derives its table name,
primary key and the select/insert/update/delete statements from the
declaration, and every instance of the model is a Model bound to that schema.
Statements are written with ? placeholders and backtick identifiers and are
translated for the driver the pool was opened with (MySQL, PostgreSQL, SQLite).

Basic Usage:

	import _ "github.com/zzguang83325/morm/drivers/mysql"

	var User = morm.MustDefine("User",
		morm.Table("users"),
		morm.Attr("id", morm.StringField(morm.PrimaryKey(), morm.Default(morm.NextID), morm.MapType("varchar(50)"))),
		morm.Attr("name", morm.StringField(morm.MapType("varchar(50)"))),
		morm.Attr("admin", morm.BooleanField()),
		morm.Attr("created_at", morm.FloatField(morm.Default(morm.Now))),
	)

	cfg := morm.NewConfig()
	cfg.User, cfg.Password, cfg.Database = "www", "www", "webdata"
	db, err := morm.Open(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	u := User.New(map[string]interface{}{"name": "alice"})
	if _, err := u.Save(ctx, db); err != nil {
		log.Fatal(err)
	}
	found, err := User.Find(ctx, db, u.Value("id"))
	admins, err := User.FindAll(ctx, db, morm.Where("admin=?", true), morm.OrderBy("created_at desc"), morm.Limit(10))

Save, Update and Remove log a warning when a statement does not affect exactly
one row; set Config.StrictRowCount to get a *RowCountError instead.
*/
package morm
