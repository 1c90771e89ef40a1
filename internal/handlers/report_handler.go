package handlers

import (
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"strconv"

	"salapoints/internal/backend"
	"salapoints/internal/export"
	"salapoints/internal/models"
	"salapoints/internal/roster"
	"salapoints/internal/security"
	"salapoints/internal/session"
)

// ReportHandler serves the reporting screen: the roster table, the Excel
// export and the per-class points chart feed.
type ReportHandler struct {
	client    *backend.Client
	cache     *session.Cache
	registry  *roster.Registry
	csrf      *security.CSRFGenerator
	flashes   *FlashStore
	templates *template.Template
}

// NewReportHandler creates a new report handler
func NewReportHandler(client *backend.Client, cache *session.Cache, registry *roster.Registry, csrf *security.CSRFGenerator, flashes *FlashStore, templates *template.Template) *ReportHandler {
	return &ReportHandler{
		client:    client,
		cache:     cache,
		registry:  registry,
		csrf:      csrf,
		flashes:   flashes,
		templates: templates,
	}
}

// ShowReport renders the reporting screen
func (h *ReportHandler) ShowReport(w http.ResponseWriter, r *http.Request) {
	children, err := h.client.AllChildren(r.Context())
	if err != nil {
		log.Printf("Error listing children for report: %v", err)
		h.flashes.Error(w, r, backend.UserMessage(err, "Não foi possível carregar o relatório"))
	}

	token, err := h.csrf.GenerateToken(h.cache.Token())
	if err != nil {
		log.Printf("Error generating CSRF token: %v", err)
	}

	data := ReportViewData{
		Title:     "Relatório - SalaPoints",
		IsAdmin:   h.cache.Level().CanAdminister(),
		Children:  children,
		Salas:     h.registry.Salas(),
		CSRFToken: token,
		Flashes:   h.flashes.Pop(w, r),
	}
	if err := h.templates.ExecuteTemplate(w, "report.tmpl", data); err != nil {
		log.Printf("Error rendering report.tmpl: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// ExportChildren streams the roster workbook as an Excel download
func (h *ReportHandler) ExportChildren(w http.ResponseWriter, r *http.Request) {
	children, err := h.client.AllChildren(r.Context())
	if err != nil {
		log.Printf("Error listing children for export: %v", err)
		http.Error(w, backend.UserMessage(err, "Export unavailable"), http.StatusBadGateway)
		return
	}

	workbook, err := export.ChildrenWorkbook(children, timeNow())
	if err != nil {
		log.Printf("Error building workbook: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer workbook.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="criancas.xlsx"`)
	if err := workbook.Write(w); err != nil {
		log.Printf("Error streaming workbook: %v", err)
	}
}

// ClassPoints returns the per-day point counts of one class as JSON for the
// report chart
func (h *ReportHandler) ClassPoints(w http.ResponseWriter, r *http.Request) {
	classID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid class id", http.StatusBadRequest)
		return
	}

	classPoints, err := h.client.AllPointsByClass(r.Context(), classID)
	if err != nil {
		log.Printf("Error fetching points for class %d: %v", classID, err)
		http.Error(w, backend.UserMessage(err, "Points unavailable"), http.StatusBadGateway)
		return
	}

	payload := struct {
		ClassID int64             `json:"classId"`
		Total   int               `json:"total"`
		ByDay   []models.DayCount `json:"byDay"`
	}{
		ClassID: classID,
		Total:   len(classPoints.Points),
		ByDay:   models.PointsByDay(classPoints.Points),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding class points: %v", err)
	}
}
