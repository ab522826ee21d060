package handlers

import (
	"html/template"
	"net/http"

	"theatre/internal/repository"

	"github.com/gin-gonic/gin"
)

const adminTemplates = `
{{define "admin_tables"}}<!doctype html>
<html><head><meta charset="utf-8"><title>Admin</title></head>
<body>
<h1>Tables</h1>
<table border="1" cellpadding="4">
<tr><th>Table</th><th>Rows</th></tr>
{{range .Tables}}<tr><td><a href="/admin/{{.Name}}">{{.Name}}</a></td><td>{{.Rows}}</td></tr>
{{end}}</table>
</body></html>{{end}}

{{define "admin_table"}}<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Table}}</title></head>
<body>
<p><a href="/admin">&larr; tables</a></p>
<h1>{{.Table}}</h1>
<p>First {{.Limit}} rows</p>
<table border="1" cellpadding="4">
<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>
</body></html>{{end}}
`

// AdminTemplates are registered on the router with SetHTMLTemplate.
// html/template escapes every cell, so stored text cannot inject markup.
func AdminTemplates() *template.Template {
	return template.Must(template.New("admin").Parse(adminTemplates))
}

// AdminTables - GET /admin
// Список таблиц с количеством строк
func (h *Handlers) AdminTables(c *gin.Context) {
	tables, err := h.admin.Tables(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "")
		return
	}
	c.HTML(http.StatusOK, "admin_tables", gin.H{"Tables": tables})
}

// AdminTable - GET /admin/:table
// Первые строки таблицы
func (h *Handlers) AdminTable(c *gin.Context) {
	dump, err := h.admin.Table(c.Request.Context(), c.Param("table"))
	if err != nil {
		respondServiceError(c, err, "Unknown table")
		return
	}
	c.HTML(http.StatusOK, "admin_table", gin.H{
		"Table":   dump.Table,
		"Limit":   repository.AdminRowLimit,
		"Columns": dump.Columns,
		"Rows":    dump.Rows,
	})
}
