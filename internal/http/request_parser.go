package http

import (
	"fmt"
	"net/http"

	"surveystock/internal/core"
)

const maxFormBytes = 64 << 10

// consumptionForm is a parsed POST /consumptions body.
type consumptionForm struct {
	Categories []string
	Notes      string
}

// parseConsumptionForm reads repeated "category" fields in order, dropping
// blanks and repeats, plus the free-text "notes".
func parseConsumptionForm(w http.ResponseWriter, r *http.Request) (consumptionForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return consumptionForm{}, fmt.Errorf("parse form: %w", err)
	}

	var form consumptionForm
	seen := make(map[string]bool)
	for _, raw := range r.PostForm["category"] {
		name := sanitizeInput(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		form.Categories = append(form.Categories, name)
	}
	form.Notes = sanitizeInput(r.PostFormValue("notes"))
	return form, nil
}

// parseGroupTimestamp reads the "timestamp" field of a delete request.
func parseGroupTimestamp(w http.ResponseWriter, r *http.Request) (core.Timestamp, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return core.Timestamp{}, fmt.Errorf("parse form: %w", err)
	}
	return core.ParseTimestamp(r.PostFormValue("timestamp"))
}
