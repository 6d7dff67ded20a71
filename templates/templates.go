// Package templates renders the portal's server side pages: the login and sign up forms, the shell and the
// pages of the embedded applications.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed *.html
var files embed.FS

const (
	LoginPage      = "login.html"
	SignUpPage     = "signup.html"
	ShellPage      = "shell.html"
	DiferencasPage = "diferencas.html"
	EscalaPage     = "escala.html"
	EscalasPage    = "escalas.html"
)

var pages = []string{LoginPage, SignUpPage, ShellPage, DiferencasPage, EscalaPage, EscalasPage}

// AuthData fills the login and sign up forms.
type AuthData struct {
	Name   string
	Action string
	Login  string
	// DisplayName is kept when a sign up form is sent back with errors.
	DisplayName string
	Error       string
	Notice      string
}

type RouteLink struct {
	Name  string
	Label string
}

type ShellData struct {
	Name    string
	ShellID string
	Handle  string
	User    string
	Today   string
	Routes  []RouteLink
	// GraceMillis is how long the page waits after a sign out notification before going to the login page.
	GraceMillis int64
}

// AppData fills the page of an embedded application. Origin is the only origin the page accepts tokens from.
type AppData struct {
	Title  string
	Origin string
}

type Templates struct {
	pages map[string]*template.Template
}

// New parses every page together with the base layout.
func New() (*Templates, error) {
	t := &Templates{pages: map[string]*template.Template{}}
	for _, page := range pages {
		tmpl, err := template.ParseFS(files, "base.html", page)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", page, err)
		}
		t.pages[page] = tmpl
	}
	return t, nil
}

func (t *Templates) Render(w io.Writer, page string, data any) error {
	tmpl, ok := t.pages[page]
	if !ok {
		return fmt.Errorf("no template named %s", page)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}
