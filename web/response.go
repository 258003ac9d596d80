package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/zzguang83325/morm"
)

// Status answers with an explicit status code and a plain-text body.
type Status struct {
	Code    int
	Message string
}

// TemplateKey marks a map result that should be rendered through the
// router's Renderer. The map itself is the template data.
const TemplateKey = "__template__"

// Renderer renders a named template.
type Renderer interface {
	Render(w io.Writer, name string, data map[string]interface{}) error
}

// writeResult 将 handler 返回值转换为 HTTP 响应
func writeResult(w http.ResponseWriter, r *http.Request, result interface{}, renderer Renderer) {
	switch v := result.(type) {
	case nil:
		w.WriteHeader(http.StatusNoContent)
	case http.Handler:
		v.ServeHTTP(w, r)
	case []byte:
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(v)
	case string:
		if strings.HasPrefix(v, "redirect:") {
			http.Redirect(w, r, v[len("redirect:"):], http.StatusFound)
			return
		}
		w.Header().Set("Content-Type", "text/html;charset=utf-8")
		io.WriteString(w, v)
	case map[string]interface{}:
		if name, ok := v[TemplateKey].(string); ok {
			writeTemplate(w, renderer, name, v)
			return
		}
		writeJSON(w, http.StatusOK, v)
	case int:
		if v >= 100 && v < 600 {
			w.WriteHeader(v)
			return
		}
		writeText(w, http.StatusOK, fmt.Sprintf("%d", v))
	case Status:
		writeText(w, v.Code, v.Message)
	case *Status:
		writeText(w, v.Code, v.Message)
	case *APIError:
		writeJSON(w, http.StatusOK, v)
	default:
		writeJSON(w, http.StatusOK, v)
	}
}

func writeText(w http.ResponseWriter, code int, text string) {
	w.Header().Set("Content-Type", "text/plain;charset=utf-8")
	w.WriteHeader(code)
	io.WriteString(w, text)
}

// writeJSON 输出 JSON，不转义非 ASCII 与 HTML 字符
func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		morm.LogError("response encode failed", map[string]interface{}{"error": err.Error(), "type": fmt.Sprintf("%T", v)})
		writeText(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	w.Header().Set("Content-Type", "application/json;charset=utf-8")
	w.WriteHeader(code)
	w.Write(buf.Bytes())
}

func writeTemplate(w http.ResponseWriter, renderer Renderer, name string, data map[string]interface{}) {
	if renderer == nil {
		morm.LogError("no renderer configured", map[string]interface{}{"template": name})
		writeText(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	var buf bytes.Buffer
	if err := renderer.Render(&buf, name, data); err != nil {
		morm.LogError("template render failed", map[string]interface{}{"template": name, "error": err.Error()})
		writeText(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	w.Header().Set("Content-Type", "text/html;charset=utf-8")
	w.Write(buf.Bytes())
}
