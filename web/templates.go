package web

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"time"

	"github.com/zzguang83325/morm"
)

// Templates renders html/template files with the datetime filter installed.
type Templates struct {
	tmpl *template.Template
}

var _ Renderer = (*Templates)(nil)

// NewTemplates parses the templates in fsys matching patterns.
func NewTemplates(fsys fs.FS, patterns ...string) (*Templates, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"datetime": Datetime,
	}).ParseFS(fsys, patterns...)
	if err != nil {
		return nil, err
	}
	morm.LogInfo("templates loaded", map[string]interface{}{"templates": tmpl.DefinedTemplates()})
	return &Templates{tmpl: tmpl}, nil
}

func (t *Templates) Render(w io.Writer, name string, data map[string]interface{}) error {
	return t.tmpl.ExecuteTemplate(w, name, data)
}

// Datetime formats a Unix timestamp in seconds relative to now:
// "1分钟前", "5分钟前", "3小时前", "2天前", or the date once it is a week old.
func Datetime(t interface{}) string {
	return datetimeAt(morm.Convert.ToFloat64(t), time.Now())
}

func datetimeAt(t float64, now time.Time) string {
	delta := int64(float64(now.UnixNano())/1e9 - t)
	switch {
	case delta < 60:
		return "1分钟前"
	case delta < 3600:
		return fmt.Sprintf("%d分钟前", delta/60)
	case delta < 86400:
		return fmt.Sprintf("%d小时前", delta/3600)
	case delta < 604800:
		return fmt.Sprintf("%d天前", delta/86400)
	}
	dt := time.Unix(int64(t), 0)
	return fmt.Sprintf("%d年%d月%d日", dt.Year(), int(dt.Month()), dt.Day())
}
