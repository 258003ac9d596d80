package main

import "github.com/zzguang83325/morm"

func idField() *morm.Field {
	return morm.StringField(morm.PrimaryKey(), morm.Default(morm.NextID), morm.MapType("varchar(50)"))
}

func createdAtField() *morm.Field {
	return morm.FloatField(morm.Default(morm.Now))
}

var User = morm.MustDefine("User",
	morm.Table("users"),
	morm.Attr("id", idField()),
	morm.Attr("email", morm.StringField(morm.MapType("varchar(50)"))),
	morm.Attr("passwd", morm.StringField(morm.MapType("varchar(50)"))),
	morm.Attr("admin", morm.BooleanField()),
	morm.Attr("name", morm.StringField(morm.MapType("varchar(50)"))),
	morm.Attr("image", morm.StringField(morm.MapType("varchar(500)"))),
	morm.Attr("created_at", createdAtField()),
)

var Blog = morm.MustDefine("Blog",
	morm.Table("blogs"),
	morm.Attr("id", idField()),
	morm.Attr("user_id", morm.StringField(morm.MapType("varchar(50)"))),
	morm.Attr("user_name", morm.StringField(morm.MapType("varchar(50)"))),
	morm.Attr("user_image", morm.StringField(morm.MapType("varchar(500)"))),
	morm.Attr("name", morm.StringField(morm.MapType("varchar(50)"))),
	morm.Attr("summary", morm.StringField(morm.MapType("varchar(200)"))),
	morm.Attr("content", morm.TextField()),
	morm.Attr("created_at", createdAtField()),
)

var Comment = morm.MustDefine("Comment",
	morm.Table("comments"),
	morm.Attr("id", idField()),
	morm.Attr("blog_id", morm.StringField(morm.MapType("varchar(50)"))),
	morm.Attr("user_id", morm.StringField(morm.MapType("varchar(50)"))),
	morm.Attr("user_name", morm.StringField(morm.MapType("varchar(50)"))),
	morm.Attr("user_image", morm.StringField(morm.MapType("varchar(500)"))),
	morm.Attr("content", morm.TextField()),
	morm.Attr("created_at", createdAtField()),
)

// schemas lists the models in table creation order.
var schemas = []*morm.Schema{User, Blog, Comment}
