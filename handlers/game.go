package handlers

import (
	"html/template"
	"net/http"
)

var statusPage = template.Must(template.New("status").Parse(`<!doctype html>
<html>
<head><title>shipsync</title><meta http-equiv="refresh" content="1"></head>
<body>
<p>{{.State}}{{if .Me}} as <b>{{.Me}}</b>{{end}}</p>
<table>
<tr><th>name</th><th>x</th><th>y</th><th>rot</th><th>dead</th><th>guns</th></tr>
{{range .Players}}<tr><td>{{.Name}}</td><td>{{printf "%.1f" .Pos.X}}</td><td>{{printf "%.1f" .Pos.Y}}</td><td>{{printf "%.2f" .Rot}}</td><td>{{.IsDead}}</td><td>{{.GunCount}}</td></tr>
{{end}}</table>
<p>{{len .Shots}} shots in flight</p>
</body>
</html>
`))

func HandleRoot(sess *Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := snapshot(r.Context(), sess)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}

		err = statusPage.Execute(w, view)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}
