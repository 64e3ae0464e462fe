package http

import (
	"errors"
	"html/template"
	"net/http"
	"time"

	"surveystock/internal/core"
	applog "surveystock/internal/log"
	"surveystock/internal/services"
)

var dimensionTitles = map[core.Dimension]string{
	core.Age:     "Age group",
	core.Income:  "Income group",
	core.Product: "Milk type",
}

var templateFuncs = template.FuncMap{
	"dimensionTitle": func(d core.Dimension) string { return dimensionTitles[d] },
}

// stockRow is one table line. Untracked rows are catalog entries missing
// from the loaded stock; they show the catalog capacity and no counts.
type stockRow struct {
	Name      string
	Total     int
	Remaining int
	Consumed  int
	Tracked   bool
}

type dimensionSection struct {
	Dimension core.Dimension
	Items     []stockRow
}

type indexPage struct {
	Sections []dimensionSection
	Groups   []services.GroupView
	LastSync string
	Error    string
	Notes    string
}

func (s *Server) buildIndexPage() indexPage {
	state := s.inventory.State()
	stock := make(map[string]core.StockItem, len(state.Stock))
	for _, item := range state.Stock {
		stock[item.Category] = item
	}

	catalog := s.inventory.Catalog()
	page := indexPage{Groups: state.Groups}
	for _, d := range core.Dimensions() {
		section := dimensionSection{Dimension: d}
		for _, def := range catalog.ListByDimension(d) {
			item, ok := stock[def.Name]
			if !ok {
				section.Items = append(section.Items, stockRow{Name: def.Name, Total: def.TotalCapacity})
				continue
			}
			section.Items = append(section.Items, stockRow{
				Name:      def.Name,
				Total:     item.Total,
				Remaining: item.Remaining,
				Consumed:  item.Consumed(),
				Tracked:   true,
			})
		}
		page.Sections = append(page.Sections, section)
	}
	if state.LastSync > 0 {
		page.LastSync = time.UnixMilli(state.LastSync).UTC().Format(time.RFC3339)
	}
	return page
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, page indexPage) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "index.html", page); err != nil {
		applog.FromContext(r.Context()).Error("Failed rendering index",
			applog.FieldErrorType, applog.ErrorTypeInternal,
			applog.FieldError, err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, r, http.StatusOK, s.buildIndexPage())
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	form, err := parseConsumptionForm(w, r)
	if err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	_, err = s.inventory.RecordConsumption(r.Context(), form.Categories, form.Notes)
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		applog.FromContext(r.Context()).Debug("Rejected consumption",
			applog.FieldErrorType, applog.ErrorTypeValidation,
			applog.FieldError, err)
		page := s.buildIndexPage()
		page.Error = verr.Reason
		page.Notes = form.Notes
		s.renderIndex(w, r, http.StatusUnprocessableEntity, page)
		return
	case err != nil:
		applog.FromContext(r.Context()).Error("Consumption recorded but not saved",
			applog.FieldOperation, applog.OpRecord,
			applog.FieldError, err)
		http.Error(w, "recorded but could not be saved", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	ts, err := parseGroupTimestamp(w, r)
	if err != nil {
		http.Error(w, "invalid group timestamp", http.StatusBadRequest)
		return
	}

	if _, err := s.inventory.DeleteGroup(r.Context(), ts); err != nil {
		applog.FromContext(r.Context()).Error("Group deleted but not saved",
			applog.FieldOperation, applog.OpDelete,
			applog.FieldError, err)
		http.Error(w, "deleted but could not be saved", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.inventory.Reset(r.Context()); err != nil {
		applog.FromContext(r.Context()).Error("Reset applied but not saved",
			applog.FieldOperation, applog.OpReset,
			applog.FieldError, err)
		http.Error(w, "reset but could not be saved", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.inventory.State())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}
