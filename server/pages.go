package server

import (
	"html/template"

	"github.com/gin-gonic/gin"

	"github.com/wpmcp/tokenbroker/models"
)

// Browser-facing pages for the callback endpoint. Kept deliberately plain;
// the human only needs to read a short message or copy a code.
var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, sans-serif; max-width: 40em; margin: 4em auto; padding: 0 1em; color: #1d2327; }
code { background: #f0f0f1; padding: 0.3em 0.5em; border-radius: 4px; font-size: 1.1em; word-break: break-all; }
.ok { color: #00a32a; }
.err { color: #d63638; }
</style>
</head>
<body>
<h1 class="{{if .OK}}ok{{else}}err{{end}}">{{.Title}}</h1>
<p>{{.Message}}</p>
{{if .Code}}<p>Paste this code into your MCP client to finish connecting:</p>
<p><code>{{.Code}}</code></p>{{end}}
{{if .BlogURL}}<p>Connected site: {{.BlogURL}}</p>{{end}}
</body>
</html>
`))

type pageData struct {
	OK      bool
	Title   string
	Message string
	Code    string
	BlogURL string
}

func (s *Server) renderErrorPage(c *gin.Context, status int, title, message string) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	pageTemplate.Execute(c.Writer, pageData{Title: title, Message: message})
}

func (s *Server) renderSuccessPage(c *gin.Context, session models.SessionToken, code string) {
	c.Status(200)
	c.Header("Content-Type", "text/html; charset=utf-8")
	pageTemplate.Execute(c.Writer, pageData{
		OK:      true,
		Title:   "Authorization complete",
		Message: "Your WordPress.com account is connected.",
		Code:    code,
		BlogURL: session.UserInfo.BlogURL,
	})
}
