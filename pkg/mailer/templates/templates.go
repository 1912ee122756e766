package templates

import (
	"bytes"
	"embed"
	"fmt"
	htmpl "html/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// EmailData defines the fields available to the notification templates.
type EmailData struct {
	Name          string `json:"Name"`
	Email         string `json:"Email"`
	AppName       string `json:"AppName"`
	CompanyName   string `json:"CompanyName"`
	SupportURL    string `json:"SupportURL"`
	VerifyURL     string `json:"VerifyURL"`
	ResetURL      string `json:"ResetURL"`
	ExpiresAtText string `json:"ExpiresAtText"`
	Year          int    `json:"Year"`
}

// Option mutates EmailData before rendering.
type Option func(*EmailData)

func WithVerifyURL(url string) Option { return func(d *EmailData) { d.VerifyURL = url } }
func WithResetURL(url string) Option  { return func(d *EmailData) { d.ResetURL = url } }

func WithExpiresAt(t time.Time) Option {
	return func(d *EmailData) {
		d.ExpiresAtText = t.UTC().Format("02 January 2006, 15:04 MST")
	}
}

// NewEmailData fills the common fields and applies the options.
func NewEmailData(appName, companyName, supportURL, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:        name,
		Email:       email,
		AppName:     appName,
		CompanyName: companyName,
		SupportURL:  supportURL,
		Year:        time.Now().UTC().Year(),
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// ToMap converts EmailData into the loosely typed payload carried by EmailJob.
func ToMap(d EmailData) map[string]any {
	return map[string]any{
		"Name":          d.Name,
		"Email":         d.Email,
		"AppName":       d.AppName,
		"CompanyName":   d.CompanyName,
		"SupportURL":    d.SupportURL,
		"VerifyURL":     d.VerifyURL,
		"ResetURL":      d.ResetURL,
		"ExpiresAtText": d.ExpiresAtText,
		"Year":          d.Year,
	}
}

var subjects = map[string]string{
	"verify_email":         "Verify your email address",
	"reset_password":       "Password reset request",
	"reset_password_admin": "Administrator password reset request",
	"welcome":              "Welcome aboard!",
}

// Subject returns the subject line for a template name.
func Subject(name string) string {
	if s, ok := subjects[name]; ok {
		return s
	}
	return "Notification"
}

// RenderHTML renders the named template with the given data.
func RenderHTML(name string, data map[string]any) (string, error) {
	if _, ok := subjects[name]; !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}
	filename := name + ".tmpl"
	t, err := htmpl.New(filename).ParseFS(FS, filename)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
