package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/ghaggin/fluidbalance/internal/model"
	"github.com/ghaggin/fluidbalance/internal/notify"
)

var patientStatuses = []model.PatientStatus{
	model.StatusStable,
	model.StatusNeedsCare,
	model.StatusNewAdmission,
}

type dashboardPage struct {
	Patients []model.Patient
	BagTypes []model.BagType
	Statuses []model.PatientStatus
}

func (h *handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	page := dashboardPage{Statuses: patientStatuses}

	if owner, ok := h.session.OwnerID(); ok {
		patients, err := h.svc.Patients.List(r.Context(), owner)
		if err != nil {
			h.failure(r, err, "No pudimos cargar los pacientes.")
		}
		page.Patients = patients
	} else {
		h.flash.Flash(r.Context(), notify.LevelError, "No se pudo determinar el usuario actual para registrar pacientes.")
	}

	bagTypes, err := h.svc.BagTypes.List(r.Context())
	if err != nil {
		h.failure(r, err, "No pudimos cargar los tipos de bolsa.")
	}
	page.BagTypes = bagTypes

	h.render(w, r, http.StatusOK, "dashboard.html", "Pacientes", page)
}

func patientRequest(r *http.Request, owner int64) model.PatientRequest {
	age, ok := formInt(r, "age")
	if !ok {
		age = -1
	}
	req := model.PatientRequest{
		Name:      strings.TrimSpace(r.PostForm.Get("name")),
		Age:       age,
		UserID:    owner,
		BagTypeID: formID(r, "bagTypeId"),
	}
	if s := model.PatientStatus(r.PostForm.Get("status")); s != "" {
		req.Status = &s
	}
	return req
}

func (h *handlers) createPatient(w http.ResponseWriter, r *http.Request) {
	defer redirect(w, r, "/dashboard")

	if err := r.ParseForm(); err != nil {
		h.failure(r, err, "Error al crear paciente.")
		return
	}
	owner, ok := h.session.OwnerID()
	if !ok {
		h.flash.Flash(r.Context(), notify.LevelError, "No se pudo determinar el usuario actual para registrar pacientes.")
		return
	}

	req := patientRequest(r, owner)
	req.Status = nil
	if _, err := h.svc.Patients.Create(r.Context(), req); err != nil {
		h.failure(r, err, "Error al crear paciente.")
		return
	}
	h.success(r, "Paciente registrado exitosamente.")
}

func (h *handlers) updatePatient(w http.ResponseWriter, r *http.Request) {
	defer redirect(w, r, "/dashboard")

	id, ok := urlID(r, "patientID")
	if !ok {
		h.flash.Flash(r.Context(), notify.LevelError, "Paciente no válido.")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.failure(r, err, "No pudimos actualizar el registro.")
		return
	}
	owner, _ := h.session.OwnerID()

	if _, err := h.svc.Patients.Update(r.Context(), id, patientRequest(r, owner)); err != nil {
		h.failure(r, err, "No pudimos actualizar el registro.")
		return
	}
	h.success(r, "Registro actualizado.")
}

func (h *handlers) deletePatient(w http.ResponseWriter, r *http.Request) {
	defer redirect(w, r, "/dashboard")

	id, ok := urlID(r, "patientID")
	if !ok {
		h.flash.Flash(r.Context(), notify.LevelError, "Paciente no válido.")
		return
	}
	if err := h.svc.Patients.Delete(r.Context(), id); err != nil {
		h.failure(r, err, "No pudimos eliminar este registro.")
		return
	}
	h.success(r, "Registro eliminado.")
}

// findPatient looks the patient up among the clinician's own; the backend
// has no single-patient endpoint.
func (h *handlers) findPatient(ctx context.Context, id int64) (model.Patient, bool, error) {
	owner, ok := h.session.OwnerID()
	if !ok {
		return model.Patient{}, false, nil
	}
	patients, err := h.svc.Patients.List(ctx, owner)
	if err != nil {
		return model.Patient{}, false, err
	}
	for _, p := range patients {
		if p.ID == id {
			return p, true, nil
		}
	}
	return model.Patient{}, false, nil
}
