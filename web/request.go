package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/zzguang83325/morm"
)

// Request is the incoming request plus its arguments. Args merges the query
// string (GET), the JSON or form body (POST, PUT) and the path values of the
// matched pattern; path values win on name clashes.
type Request struct {
	*http.Request
	Args map[string]interface{}
}

const maxBodyBytes = 10 << 20

// parseArgs 读取请求参数
func parseArgs(r *http.Request, pathNames []string) (map[string]interface{}, error) {
	args := make(map[string]interface{})

	switch r.Method {
	case http.MethodGet, http.MethodDelete:
		for k, v := range r.URL.Query() {
			if len(v) > 0 {
				args[k] = v[0]
			}
		}
	case http.MethodPost, http.MethodPut:
		ct := r.Header.Get("Content-Type")
		if ct == "" {
			return nil, errors.New("Missing Content-Type")
		}
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return nil, fmt.Errorf("Unsupported Content-Type: %s", ct)
		}
		switch {
		case mediaType == "application/json":
			body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
			dec := json.NewDecoder(body)
			dec.UseNumber()
			var data interface{}
			if err := dec.Decode(&data); err != nil {
				return nil, fmt.Errorf("Invalid JSON body: %v", err)
			}
			obj, ok := data.(map[string]interface{})
			if !ok {
				return nil, errors.New("JSON body must be object.")
			}
			args = obj
		case mediaType == "application/x-www-form-urlencoded":
			if err := r.ParseForm(); err != nil {
				return nil, err
			}
			for k, v := range r.PostForm {
				if len(v) > 0 {
					args[k] = v[0]
				}
			}
		case mediaType == "multipart/form-data":
			if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
				return nil, err
			}
			for k, v := range r.MultipartForm.Value {
				if len(v) > 0 {
					args[k] = v[0]
				}
			}
		default:
			return nil, fmt.Errorf("Unsupported Content-Type: %s", mediaType)
		}
	}

	for _, name := range pathNames {
		if _, dup := args[name]; dup {
			morm.LogWarn("duplicate arg name in args and path", map[string]interface{}{"name": name, "path": r.URL.Path})
		}
		args[name] = r.PathValue(name)
	}
	return args, nil
}

// Has reports whether the argument was supplied.
func (r *Request) Has(name string) bool {
	_, ok := r.Args[name]
	return ok
}

// Arg returns the raw argument value, nil when absent.
func (r *Request) Arg(name string) interface{} {
	return r.Args[name]
}

// String returns the argument as a trimmed string.
func (r *Request) String(name string) string {
	return strings.TrimSpace(morm.Convert.ToString(r.Args[name]))
}

// Int returns the argument as an int, or def when it is absent or not a number.
func (r *Request) Int(name string, def int) int {
	v, ok := r.Args[name]
	if !ok {
		return def
	}
	return morm.Convert.ToInt(v, def)
}

// Bool returns the argument as a bool.
func (r *Request) Bool(name string) bool {
	return morm.Convert.ToBool(r.Args[name])
}

// Require checks that every name was supplied and returns a
// *MissingArgumentError for the first one that was not.
func (r *Request) Require(names ...string) error {
	for _, name := range names {
		if !r.Has(name) {
			return &MissingArgumentError{Name: name}
		}
	}
	return nil
}
