package web

import (
	"html/template"
	"net/http"

	appLog "regcal/internal/log"
)

// calendarTmpl renders the grid as a plain HTML table. The data-ready
// attribute signals the capture waiter that the grid is in the DOM.
var calendarTmpl = template.Must(template.New("calendar").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.SemesterName}}</title>
<style>
body { font-family: sans-serif; margin: 16px; }
table { border-collapse: collapse; width: 100%; }
td, th { border: 1px solid #999; padding: 4px 6px; font-size: 13px; }
td.break { text-align: center; font-weight: bold; }
.weekno { width: 3em; text-align: center; color: #555; }
.midterm { display: inline-block; padding: 0 4px; margin-left: 4px; border: 1px solid #333; border-radius: 3px; font-size: 11px; }
</style>
</head>
<body>
<div data-ready="true">
<h1>{{.SemesterName}}</h1>
<table>
{{- range .Rows}}
<tr>
{{- if eq .Kind "date"}}<th class="weekno" rowspan="1">{{.WeekNumber}}</th>{{else}}<td class="weekno"></td>{{end}}
{{- $kind := .Kind}}
{{- range .Cells}}
<td{{if gt .Span 1}} colspan="{{.Span}}"{{end}}{{if eq $kind "break"}} class="break"{{end}} style="{{if .Background}}background:{{.Background}};{{end}}{{if .Foreground}}color:{{.Foreground}};{{end}}">{{.Text}}{{range .Midterms}}<span class="midterm">MT{{.}}</span>{{end}}</td>
{{- end}}
</tr>
{{- end}}
</table>
</div>
</body>
</html>
`))

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	s.mu.RLock()
	grid := s.grid
	s.mu.RUnlock()
	if grid == nil {
		http.Error(w, "no semester loaded", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := calendarTmpl.Execute(w, grid); err != nil {
		appLog.Error("calendar template render failed", err)
	}
}
