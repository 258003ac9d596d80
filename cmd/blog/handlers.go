package main

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/zzguang83325/morm"
	"github.com/zzguang83325/morm/web"
)

var (
	emailRe = regexp.MustCompile(`^[a-z0-9.\-_]+@[a-z0-9\-_]+(\.[a-z0-9\-_]+){1,4}$`)
	sha1Re  = regexp.MustCompile(`^[0-9a-f]{40}$`)
)

type server struct {
	db    *morm.DB
	cache morm.CacheProvider
}

func (s *server) routes() *web.Router {
	r := web.NewRouter()
	r.Get("/api/users", s.listUsers)
	r.Post("/api/users", s.register)
	r.Get("/api/blogs", s.listBlogs)
	r.Post("/api/blogs", s.createBlog)
	r.Get("/api/blogs/{id}", s.getBlog)
	r.Put("/api/blogs/{id}", s.updateBlog)
	r.Delete("/api/blogs/{id}", s.deleteBlog)
	r.Get("/api/blogs/{id}/comments", s.listComments)
	r.Post("/api/blogs/{id}/comments", s.createComment)
	r.Get("/debug/pool", s.poolStatus)
	r.Handle("GET /metrics", http.HandlerFunc(s.metrics))
	return r
}

func (s *server) listUsers(req *web.Request) (interface{}, error) {
	page, users, err := User.Paginate(req.Context(), s.db, req.Int("page", morm.DefaultPage), morm.DefaultPageSize,
		morm.OrderBy("created_at desc"))
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		u.Set("passwd", "******")
	}
	return map[string]interface{}{"page": page, "users": users}, nil
}

func (s *server) register(req *web.Request) (interface{}, error) {
	if err := req.Require("email", "name", "passwd"); err != nil {
		return nil, err
	}
	name := req.String("name")
	email := strings.ToLower(req.String("email"))
	passwd := req.String("passwd")
	if name == "" {
		return nil, web.APIValueError("name", "Name is required.")
	}
	if !emailRe.MatchString(email) {
		return nil, web.APIValueError("email", "Invalid email.")
	}
	if !sha1Re.MatchString(passwd) {
		return nil, web.APIValueError("passwd", "Password must be a SHA1 hex digest.")
	}

	existing, err := User.FindAll(req.Context(), s.db, morm.Where("`email`=?", email), morm.Limit(1))
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, &web.APIError{Err: "register:failed", Data: "email", Message: "Email is already in use."}
	}

	uid := morm.NextID()
	sum := sha1.Sum([]byte(uid + ":" + passwd))
	avatar := md5.Sum([]byte(email))
	user := User.New(map[string]interface{}{
		"id":     uid,
		"name":   name,
		"email":  email,
		"passwd": hex.EncodeToString(sum[:]),
		"image":  fmt.Sprintf("http://www.gravatar.com/avatar/%s?d=mm&s=120", hex.EncodeToString(avatar[:])),
	})
	if _, err := user.Save(req.Context(), s.db); err != nil {
		return nil, err
	}
	user.Set("passwd", "******")
	return user, nil
}

func (s *server) listBlogs(req *web.Request) (interface{}, error) {
	page, blogs, err := Blog.Paginate(req.Context(), s.db, req.Int("page", morm.DefaultPage), morm.DefaultPageSize,
		morm.OrderBy("created_at desc"))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"page": page, "blogs": blogs}, nil
}

func (s *server) createBlog(req *web.Request) (interface{}, error) {
	if err := req.Require("name", "summary", "content"); err != nil {
		return nil, err
	}
	for _, field := range []string{"name", "summary", "content"} {
		if req.String(field) == "" {
			return nil, web.APIValueError(field, field+" cannot be empty.")
		}
	}
	blog := Blog.New(map[string]interface{}{
		"user_id":    req.String("user_id"),
		"user_name":  req.String("user_name"),
		"user_image": req.String("user_image"),
		"name":       req.String("name"),
		"summary":    req.String("summary"),
		"content":    req.String("content"),
	})
	if _, err := blog.Save(req.Context(), s.db); err != nil {
		return nil, err
	}
	return blog, nil
}

func (s *server) findBlog(req *web.Request) (*morm.Model, error) {
	blog, err := Blog.Find(req.Context(), s.db, req.String("id"))
	if err != nil {
		return nil, err
	}
	if blog == nil {
		return nil, web.APIResourceNotFoundError("Blog", "blog not found")
	}
	return blog, nil
}

func (s *server) getBlog(req *web.Request) (interface{}, error) {
	return s.findBlog(req)
}

func (s *server) updateBlog(req *web.Request) (interface{}, error) {
	blog, err := s.findBlog(req)
	if err != nil {
		return nil, err
	}
	for _, field := range []string{"name", "summary", "content"} {
		if !req.Has(field) {
			continue
		}
		v := req.String(field)
		if v == "" {
			return nil, web.APIValueError(field, field+" cannot be empty.")
		}
		blog.Set(field, v)
	}
	if _, err := blog.Update(req.Context(), s.db); err != nil {
		return nil, err
	}
	return blog, nil
}

func (s *server) deleteBlog(req *web.Request) (interface{}, error) {
	blog, err := s.findBlog(req)
	if err != nil {
		return nil, err
	}
	if _, err := blog.Remove(req.Context(), s.db); err != nil {
		return nil, err
	}
	return map[string]interface{}{"id": blog.Value("id")}, nil
}

func (s *server) listComments(req *web.Request) (interface{}, error) {
	if _, err := s.findBlog(req); err != nil {
		return nil, err
	}
	comments, err := Comment.FindAll(req.Context(), s.db,
		morm.Where("`blog_id`=?", req.String("id")), morm.OrderBy("created_at desc"))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"comments": comments}, nil
}

func (s *server) createComment(req *web.Request) (interface{}, error) {
	if err := req.Require("content"); err != nil {
		return nil, err
	}
	content := req.String("content")
	if content == "" {
		return nil, web.APIValueError("content", "content cannot be empty.")
	}
	blog, err := s.findBlog(req)
	if err != nil {
		return nil, err
	}
	comment := Comment.New(map[string]interface{}{
		"blog_id":    blog.Value("id"),
		"user_id":    req.String("user_id"),
		"user_name":  req.String("user_name"),
		"user_image": req.String("user_image"),
		"content":    content,
	})
	if _, err := comment.Save(req.Context(), s.db); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *server) poolStatus(req *web.Request) (interface{}, error) {
	status := map[string]interface{}{"pool": s.db.Stats().ToMap()}
	if s.cache != nil {
		status["cache"] = s.cache.Status()
	}
	return status, nil
}

func (s *server) metrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprint(w, s.db.Stats().PrometheusMetrics())
}
