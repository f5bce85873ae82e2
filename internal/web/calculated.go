package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ghaggin/fluidbalance/internal/api"
	"github.com/ghaggin/fluidbalance/internal/model"
	"github.com/ghaggin/fluidbalance/internal/notify"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type calculatedPage struct {
	PatientID  int64
	Label      string
	Base       string
	PatientURL string
	PDFURL     string
	EmailURL   string
	Start      string
	End        string
	Summaries  []model.CalculatedFluidBalance
}

type calculatedRequest struct {
	patientID int64
	label     string
	rng       api.Range
	page      calculatedPage
}

// parseCalculated reads the patient, its display label and the optional
// date filter shared by the page, the PDF and the email routes.
func (h *handlers) parseCalculated(r *http.Request) (calculatedRequest, error) {
	id, ok := urlID(r, "patientID")
	if !ok {
		return calculatedRequest{}, errInvalidPatient
	}
	label := chi.URLParam(r, "label")
	if unescaped, err := url.PathUnescape(label); err == nil {
		label = unescaped
	}

	rng, start, end, err := h.parseRange(r)

	base := calculatedBase(model.Patient{ID: id, Name: label})
	filter := url.Values{}
	if rng.IsSet() {
		filter.Set("start", start)
		filter.Set("end", end)
	}

	return calculatedRequest{
		patientID: id,
		label:     label,
		rng:       rng,
		page: calculatedPage{
			PatientID:  id,
			Label:      label,
			Base:       base,
			PatientURL: withQuery(patientBase(id), filter),
			PDFURL:     withQuery(base+"/pdf", filter),
			EmailURL:   withQuery(base+"/email", filter),
			Start:      start,
			End:        end,
		},
	}, err
}

var errInvalidPatient = errors.New("web: invalid patient id")

func (h *handlers) calculated(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseCalculated(r)
	if req.patientID == 0 {
		h.notFound(w, r, "Paciente no válido.")
		return
	}
	if err != nil {
		h.failure(r, err, "No pudimos aplicar el filtro.")
	}

	summaries, err := h.svc.Calculated.Get(r.Context(), req.patientID, req.rng)
	if err != nil {
		h.failure(r, err, "No pudimos obtener el balance calculado.")
	}
	req.page.Summaries = summaries

	h.render(w, r, http.StatusOK, "calculated-balance.html", "Balance calculado", req.page)
}

// calculatedPDF streams the backend's report as a download named after the
// patient and the range.
func (h *handlers) calculatedPDF(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseCalculated(r)
	if req.patientID == 0 {
		h.notFound(w, r, "Paciente no válido.")
		return
	}
	if err != nil {
		h.failure(r, err, "No pudimos aplicar el filtro.")
		redirect(w, r, req.page.Base)
		return
	}

	pdf, err := h.svc.Calculated.PDF(r.Context(), req.patientID, req.rng)
	if err != nil {
		h.failure(r, err, "No pudimos generar el PDF.")
		redirect(w, r, req.page.Base)
		return
	}

	name := h.svc.Calculated.FileName(req.label, req.patientID, req.rng)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		h.log.Warn("failed writing pdf", zap.Error(err))
	}
}

func (h *handlers) calculatedEmail(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseCalculated(r)
	if req.patientID == 0 {
		h.flash.Flash(r.Context(), notify.LevelError, "Paciente no válido.")
		redirect(w, r, "/dashboard")
		return
	}
	back := withQuery(req.page.Base, url.Values{"start": {req.page.Start}, "end": {req.page.End}})
	if !req.rng.IsSet() {
		back = req.page.Base
	}
	defer redirect(w, r, back)

	if err != nil {
		h.failure(r, err, "No pudimos aplicar el filtro.")
		return
	}
	if err := h.svc.Calculated.Email(r.Context(), req.patientID, req.rng); err != nil {
		h.failure(r, err, "No pudimos enviar el correo.")
		return
	}
	h.success(r, "Enviamos el balance al correo configurado.")
}
