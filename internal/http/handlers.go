package http

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"paytrack/internal/core"
	"paytrack/internal/services"
)

// View models for the templates. Amounts arrive pre-formatted so the
// templates stay free of money logic.
type (
	paymentView struct {
		Amount string
		Date   string
	}

	projectView struct {
		ID           int64
		Name         string
		Client       string
		Quotation    string
		TotalPaid    string
		RemainingDue string
		Overpaid     bool
		Created      string
		Payments     []paymentView
	}
)

func (s *Server) projectViews(summaries []services.ProjectSummary) []projectView {
	views := make([]projectView, 0, len(summaries))
	for _, sum := range summaries {
		v := projectView{
			ID:           sum.Project.ID,
			Name:         sum.Project.Name,
			Client:       sum.Project.Client,
			Quotation:    core.FormatAmount(s.currency, sum.Project.Quotation),
			TotalPaid:    core.FormatAmount(s.currency, sum.TotalPaid),
			RemainingDue: core.FormatAmount(s.currency, sum.RemainingDue),
			Overpaid:     sum.RemainingDue.Cents < 0,
			Created:      sum.Project.CreatedAtDisplay(),
		}
		for _, pay := range sum.Payments {
			v.Payments = append(v.Payments, paymentView{
				Amount: core.FormatAmount(s.currency, pay.Amount),
				Date:   pay.PaidAt.Format(core.TimestampLayout),
			})
		}
		views = append(views, v)
	}
	return views
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	summaries, err := s.svc.Summaries(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Project summaries error", "error", err)
		http.Error(w, "failed to load projects", http.StatusInternalServerError)
		return
	}

	data := struct {
		Projects []projectView
	}{Projects: s.projectViews(summaries)}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleProjectList renders the project list partial, re-fetched by
// the UI after every mutation.
func (s *Server) handleProjectList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	summaries, err := s.svc.Summaries(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Project summaries error", "error", err)
		_, _ = w.Write([]byte(`<section id="projects"><div class="error">Failed to load projects</div></section>`))
		return
	}

	data := struct {
		Projects []projectView
	}{Projects: s.projectViews(summaries)}

	if err := s.templates.ExecuteTemplate(w, "project_list.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "project_list.html")
		_, _ = w.Write([]byte(`<section id="projects"><div class="error">Failed to render projects</div></section>`))
	}
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request format</div>`))
		return
	}

	name := sanitizeInput(r.Form.Get("name"))
	client := sanitizeInput(r.Form.Get("client"))
	quotationStr := sanitizeInput(r.Form.Get("quotation"))

	cents, err := core.ParseDecimalToCents(quotationStr)
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid quotation amount</div>`))
		return
	}

	p := core.Project{Name: name, Client: client, Quotation: core.Money{Cents: cents}}
	if err := p.Validate(); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid data: ` + template.HTMLEscapeString(err.Error()) + `</div>`))
		return
	}

	created, err := s.svc.CreateProject(r.Context(), p.Name, p.Client, p.Quotation)
	if err != nil {
		slog.ErrorContext(r.Context(), "Project create error", "error", err, "name", p.Name, "client", p.Client)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to save project</div>`))
		return
	}

	w.Header().Set("HX-Trigger", "projects:changed")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Added project '` + template.HTMLEscapeString(created.Name) +
		`' for client '` + template.HTMLEscapeString(created.Client) + `'</div>`))
}

func (s *Server) handleAddPayment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<div class="error">Unknown project</div>`))
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request format</div>`))
		return
	}

	amountStr := sanitizeInput(r.Form.Get("amount"))
	cents, err := core.ParseDecimalToCents(amountStr)
	if err != nil || cents <= 0 {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Enter a valid payment amount</div>`))
		return
	}

	pay, err := s.svc.AddPayment(r.Context(), id, core.Money{Cents: cents})
	switch {
	case errors.Is(err, core.ErrProjectNotFound):
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<div class="error">Unknown project</div>`))
		return
	case errors.Is(err, core.ErrInvalidAmount):
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Enter a valid payment amount</div>`))
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Payment add error", "error", err, "project_id", id, "amount_cents", cents)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to record payment</div>`))
		return
	}

	w.Header().Set("HX-Trigger", "projects:changed")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Recorded payment of ` +
		template.HTMLEscapeString(core.FormatAmount(s.currency, pay.Amount)) + `</div>`))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<div class="error">Unknown project</div>`))
		return
	}

	err = s.svc.DeleteProject(r.Context(), id)
	switch {
	case errors.Is(err, core.ErrProjectNotFound):
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<div class="error">Unknown project</div>`))
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Project delete error", "error", err, "project_id", id)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to delete project</div>`))
		return
	}

	w.Header().Set("HX-Trigger", "projects:changed")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Deleted project and all related payments</div>`))
}

func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	filename, data, err := s.svc.ExportReceipt(r.Context(), id)
	switch {
	case errors.Is(err, core.ErrProjectNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Receipt export error", "error", err, "project_id", id)
		http.Error(w, "failed to generate receipt", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	data, err := s.svc.Backup(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Backup error", "error", err)
		http.Error(w, "failed to read database", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="paytrack_backup.db"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
