package templates

import (
	"bytes"
	"embed"
	"fmt"
	htmpl "html/template"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// Template names
const (
	Welcome      = "welcome"
	Cancellation = "cancellation"
)

// NewEmailData builds template data for an account notification.
func NewEmailData(appName, companyName, supportURL, name, email string, at time.Time) map[string]any {
	return map[string]any{
		"Name":        name,
		"Email":       email,
		"AppName":     appName,
		"CompanyName": companyName,
		"SupportURL":  supportURL,
		"Time":        at.UTC().Format("02 January 2006, 15:04 MST"),
	}
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		return value
	}
}

func baseFuncs() map[string]any {
	return map[string]any{
		"upper":   strings.ToUpper,
		"default": defaultFn,
	}
}

var (
	htmlFuncMap = htmpl.FuncMap(baseFuncs())
	textFuncMap = texttpl.FuncMap(baseFuncs())
)

// renderFile loads and renders a single template file from the embedded FS.
// isHTML indicates whether to use html/template (true) or text/template (false).
func renderFile(filename string, isHTML bool, data any) (string, error) {
	var (
		buf bytes.Buffer
		err error
	)

	if isHTML {
		tpl, e := htmpl.New(filename).Funcs(htmlFuncMap).ParseFS(FS, filename)
		if e != nil {
			return "", fmt.Errorf("parse html %q: %w", filename, e)
		}
		err = tpl.Execute(&buf, data)
	} else {
		tpl, e := texttpl.New(filename).Funcs(textFuncMap).ParseFS(FS, filename)
		if e != nil {
			return "", fmt.Errorf("parse text %q: %w", filename, e)
		}
		err = tpl.Execute(&buf, data)
	}
	if err != nil {
		return "", fmt.Errorf("exec %q: %w", filename, err)
	}
	return buf.String(), nil
}

// Render loads and renders subject, text, and html templates for the given base name.
// Expects: <name>.subject.tmpl, <name>.text.tmpl, <name>.html.tmpl
func Render(name string, data any) (subject string, text string, html string, err error) {
	subject, err = renderFile(name+".subject.tmpl", false, data)
	if err != nil {
		return "", "", "", err
	}
	text, err = renderFile(name+".text.tmpl", false, data)
	if err != nil {
		return "", "", "", err
	}
	html, err = renderFile(name+".html.tmpl", true, data)
	if err != nil {
		return "", "", "", err
	}
	return strings.TrimSpace(subject), text, html, nil
}
