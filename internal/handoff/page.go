package handoff

import (
	"html/template"
	"io"
	"net/http"
)

// PageKind selects the page variant.
type PageKind string

const (
	PagePopup           PageKind = "popup"
	PageRedirectSuccess PageKind = "redirect_success"
	PageRedirectFailure PageKind = "redirect_failure"
)

// Page is the rendered callback outcome.
type Page struct {
	Kind      PageKind
	Success   bool
	Provider  string
	Heading   string
	Body      string
	ErrorCode string

	// Popup: Message is nil when there is no origin to post to.
	Message      *Message
	TargetOrigin string

	// Redirect success.
	ReturnTo string
	DelayMs  int

	// Failure actions, rendered for every failed outcome.
	RetryURL string
	BackURL  string

	Nonce string
}

// ContentSecurityPolicy allows only this page's inline style and script.
func (p *Page) ContentSecurityPolicy() string {
	return "default-src 'none'; " +
		"style-src 'nonce-" + p.Nonce + "'; " +
		"script-src 'nonce-" + p.Nonce + "'; " +
		"base-uri 'none'; " +
		"form-action 'self'; " +
		"frame-ancestors 'none'"
}

// Render writes the HTML document.
func (p *Page) Render(w io.Writer) error {
	return pageTemplate.Execute(w, p)
}

// ServeHTTP writes the page with anti-cache and CSP headers.
func (p *Page) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Content-Security-Policy", p.ContentSecurityPolicy())
	w.WriteHeader(http.StatusOK)
	_ = p.Render(w)
}

var pageTemplate = template.Must(template.New("handoff").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width,initial-scale=1">
  <meta name="color-scheme" content="light dark">
  <title>{{.Heading}}</title>
  <style nonce="{{.Nonce}}">
    body{margin:0;min-height:100vh;display:grid;place-items:center;font-family:system-ui,-apple-system,Segoe UI,Roboto,Arial,sans-serif;background:#f5f9fc;color:#0f172a}
    .card{width:min(480px,92vw);background:#fff;border-radius:16px;box-shadow:0 10px 30px rgba(2,132,199,.15);padding:28px}
    h1{margin:0 0 8px;font-size:20px}
    .ok h1{color:#16a34a}.err h1{color:#dc2626}
    p{color:#475569;line-height:1.5}
    code{font-size:12px;color:#64748b}
    .actions{display:flex;gap:12px;margin-top:20px}
    .btn{padding:10px 16px;border-radius:10px;text-decoration:none;font-weight:600;background:#e2e8f0;color:#0f172a}
    .btn.primary{background:#10b6b6;color:#fff}
    [hidden]{display:none}
  </style>
</head>
<body>
  <main class="card {{if .Success}}ok{{else}}err{{end}}" id="outcome"{{if and (eq .Kind "popup") .Message}} hidden{{end}}>
    <h1>{{.Heading}}</h1>
    <p>{{.Body}}</p>
    {{- if .ErrorCode}}<p><code>{{.ErrorCode}}</code></p>{{end}}
    {{- if eq .Kind "redirect_success"}}
    <p>Returning you to the application&hellip;</p>
    <noscript><meta http-equiv="refresh" content="2;url={{.ReturnTo}}"></noscript>
    {{- end}}
    <div class="actions">
      {{- if not .Success}}
      <a class="btn primary" href="{{.RetryURL}}">Try again</a>
      <a class="btn" href="{{.BackURL}}">Back to integrations</a>
      {{- else if eq .Kind "popup"}}
      <a class="btn primary" href="{{.ReturnTo}}">Return to the application</a>
      {{- else}}
      <a class="btn primary" href="{{.ReturnTo}}">Continue</a>
      {{- end}}
    </div>
  </main>
{{- if eq .Kind "popup"}}{{if .Message}}
  <script nonce="{{.Nonce}}">
  (function () {
    var msg = {{.Message}};
    var origin = {{.TargetOrigin}};
    if (window.__oauthHandoffDone) { return; }
    window.__oauthHandoffDone = true;
    if (window.opener && !window.opener.closed) {
      try {
        window.opener.postMessage(msg, origin);
        window.close();
        return;
      } catch (e) {}
    }
    document.getElementById("outcome").hidden = false;
  })();
  </script>
{{- end}}{{end}}
{{- if eq .Kind "redirect_success"}}
  <script nonce="{{.Nonce}}">
  setTimeout(function () { window.location.replace({{.ReturnTo}}); }, {{.DelayMs}});
  </script>
{{- end}}
</body>
</html>
`))
