package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ghaggin/fluidbalance/internal/model"
	"github.com/ghaggin/fluidbalance/internal/notify"
	"github.com/ghaggin/fluidbalance/internal/slots"
)

type balanceRow struct {
	ID      int64
	Balance model.FluidBalance
	// Selected is the slot value matching the balance's own time, if any.
	Selected string
	// Slots are the active times of the balance's own day.
	Slots []slots.Slot
}

type patientPage struct {
	Patient          model.Patient
	Base             string
	CalculatedURL    string
	Start            string
	End              string
	Slots            []slots.Slot
	Balances         []balanceRow
	ExtraFluids      []model.ExtraFluid
	MedicineDetails  []model.MedicineDetail
	Medicines        []model.Medicine
	VitalSignDetails []model.VitalSignDetail
	VitalSigns       []model.VitalSign
}

func patientBase(id int64) string {
	return fmt.Sprintf("/dashboard/patient/%d", id)
}

// calculatedBase is the calculated-balance route, keyed by the patient's
// display name.
func calculatedBase(p model.Patient) string {
	label := strings.TrimSpace(p.Name)
	if label == "" {
		label = fmt.Sprint(p.ID)
	}
	return patientBase(p.ID) + "/" + url.PathEscape(label) + "/calculated-balance"
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func (h *handlers) patient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := urlID(r, "patientID")
	if !ok {
		h.notFound(w, r, "Paciente no válido.")
		return
	}
	p, found, err := h.findPatient(ctx, id)
	if err != nil {
		h.failure(r, err, "No pudimos cargar el paciente.")
		redirect(w, r, "/dashboard")
		return
	}
	if !found {
		h.notFound(w, r, "Paciente no válido.")
		return
	}

	rng, start, end, rangeErr := h.parseRange(r)
	if rangeErr != nil {
		h.failure(r, rangeErr, "No pudimos aplicar el filtro.")
	}

	page := patientPage{
		Patient: p,
		Base:    patientBase(id),
		Start:   start,
		End:     end,
	}
	filter := url.Values{}
	if rng.IsSet() {
		filter.Set("start", start)
		filter.Set("end", end)
	}
	page.CalculatedURL = withQuery(calculatedBase(p), filter)

	times, err := h.svc.FluidDates.Active(ctx)
	if err != nil {
		h.failure(r, err, "No pudimos cargar las fechas activas.")
	}
	page.Slots = slots.Build(h.clock.Now(), times, h.loc, h.locale)

	balances, err := h.svc.FluidBalances.List(ctx, id, rng)
	if err != nil {
		h.failure(r, err, "No pudimos cargar los balances.")
	}
	for _, b := range balances {
		row := balanceRow{
			ID:      b.Key(),
			Balance: b,
			Slots:   slots.Build(b.Date.Time, times, h.loc, h.locale),
		}
		if s, ok := slots.FindTime(b.Date.Time, row.Slots); ok {
			row.Selected = s.Value()
		}
		page.Balances = append(page.Balances, row)
	}

	if rng.IsSet() {
		page.ExtraFluids, err = h.svc.ExtraFluids.Range(ctx, id, rng)
	} else {
		page.ExtraFluids, err = h.svc.ExtraFluids.Today(ctx, id)
	}
	if err != nil {
		h.failure(r, err, "No pudimos cargar los registros de extra fluidos.")
	}

	if page.MedicineDetails, err = h.svc.MedicineDetails.List(ctx, id); err != nil {
		h.failure(r, err, "No pudimos cargar los medicamentos.")
	}
	if page.Medicines, err = h.svc.Medicines.List(ctx); err != nil {
		h.failure(r, err, "No pudimos cargar el catálogo de medicamentos.")
	}

	if rng.IsSet() {
		page.VitalSignDetails, err = h.svc.VitalSignDetails.Range(ctx, id, rng)
	} else {
		page.VitalSignDetails, err = h.svc.VitalSignDetails.Today(ctx, id)
	}
	if err != nil {
		h.failure(r, err, "No pudimos cargar los signos vitales.")
	}
	if page.VitalSigns, err = h.svc.VitalSigns.List(ctx); err != nil {
		h.failure(r, err, "No pudimos cargar el catálogo de signos vitales.")
	}

	h.render(w, r, http.StatusOK, "patient.html", p.Name, page)
}

// patientAction resolves the patient id, parses the form and redirects back
// to the patient page once fn returns.
func (h *handlers) patientAction(fn func(r *http.Request, patientID int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "patientID")
		if !ok {
			h.flash.Flash(r.Context(), notify.LevelError, "Paciente no válido.")
			redirect(w, r, "/dashboard")
			return
		}
		defer redirect(w, r, patientBase(id))

		if err := r.ParseForm(); err != nil {
			h.failure(r, err, "No pudimos procesar tu solicitud.")
			return
		}
		fn(r, id)
	}
}

func (h *handlers) activeTimes(r *http.Request) ([]string, bool) {
	times, err := h.svc.FluidDates.Active(r.Context())
	if err != nil {
		h.failure(r, err, "No pudimos cargar las fechas activas.")
		return nil, false
	}
	return times, true
}

func balanceFromForm(r *http.Request, patientID int64) model.FluidBalance {
	infused, ok := formFloat(r, "infused")
	if !ok {
		infused = -1
	}
	drained, ok := formFloat(r, "drained")
	if !ok {
		drained = -1
	}
	return model.FluidBalance{
		PatientID:        patientID,
		Infused:          infused,
		Drained:          drained,
		DescriptionFluid: strings.TrimSpace(r.PostForm.Get("descriptionFluid")),
	}
}

// createBalance records a balance at one of today's active slots; any other
// time is refused before reaching the backend.
func (h *handlers) createBalance(r *http.Request, patientID int64) {
	times, ok := h.activeTimes(r)
	if !ok {
		return
	}
	today := slots.Build(h.clock.Now(), times, h.loc, h.locale)

	slot, ok := slots.Find(r.PostForm.Get("date"), today, h.loc)
	if !ok {
		h.flash.Flash(r.Context(), notify.LevelError, "Selecciona una fecha activa disponible.")
		return
	}

	b := balanceFromForm(r, patientID)
	b.Date = model.NewTime(slot.Time)
	if _, err := h.svc.FluidBalances.Create(r.Context(), b); err != nil {
		h.failure(r, err, "No pudimos agregar el balance.")
		return
	}
	h.success(r, "Balance agregado correctamente")
}

// updateBalance may move a balance only to another active slot of its own
// day.
func (h *handlers) updateBalance(r *http.Request, patientID int64) {
	balanceID, ok := urlID(r, "itemID")
	if !ok {
		h.flash.Flash(r.Context(), notify.LevelError, "No pudimos editar este registro.")
		return
	}
	day, ok := slots.ParseCandidate(r.PostForm.Get("original"), h.loc)
	if !ok {
		day, ok = slots.ParseCandidate(r.PostForm.Get("date"), h.loc)
	}
	if !ok {
		h.flash.Flash(r.Context(), notify.LevelError, "Selecciona un horario válido para este balance.")
		return
	}

	times, ok := h.activeTimes(r)
	if !ok {
		return
	}
	daySlots := slots.Build(day, times, h.loc, h.locale)
	slot, ok := slots.Find(r.PostForm.Get("date"), daySlots, h.loc)
	if !ok {
		h.flash.Flash(r.Context(), notify.LevelError, "Selecciona un horario válido para este balance.")
		return
	}

	b := balanceFromForm(r, patientID)
	b.ID = balanceID
	b.Date = model.NewTime(slot.Time)
	if _, err := h.svc.FluidBalances.Update(r.Context(), balanceID, b); err != nil {
		h.failure(r, err, "No pudimos actualizar el balance.")
		return
	}
	h.success(r, "Balance actualizado.")
}

func (h *handlers) deleteBalance(r *http.Request, _ int64) {
	balanceID, ok := urlID(r, "itemID")
	if !ok {
		h.flash.Flash(r.Context(), notify.LevelError, "No pudimos eliminar el balance.")
		return
	}
	if err := h.svc.FluidBalances.Delete(r.Context(), balanceID); err != nil {
		h.failure(r, err, "No pudimos eliminar el balance.")
		return
	}
	h.success(r, "Balance eliminado.")
}

// recordDate keeps an edited record's original timestamp; new records are
// stamped now.
func (h *handlers) recordDate(r *http.Request) model.Time {
	if raw := strings.TrimSpace(r.PostForm.Get("date")); raw != "" {
		if t, err := model.ParseTime(raw); err == nil {
			return model.NewTime(t)
		}
	}
	return model.NewTime(h.clock.Now())
}

func extraFluidFromForm(r *http.Request, patientID int64) model.ExtraFluid {
	urine, ok := formFloat(r, "urine")
	if !ok {
		urine = -1
	}
	ingested, ok := formFloat(r, "ingested")
	if !ok {
		ingested = -1
	}
	return model.ExtraFluid{PatientID: patientID, Urine: urine, Ingested: ingested}
}

func (h *handlers) createExtraFluid(r *http.Request, patientID int64) {
	e := extraFluidFromForm(r, patientID)
	e.Date = model.NewTime(h.clock.Now())
	if _, err := h.svc.ExtraFluids.Create(r.Context(), e); err != nil {
		h.failure(r, err, "No pudimos agregar el registro.")
		return
	}
	h.success(r, "Registro agregado correctamente.")
}

func (h *handlers) updateExtraFluid(r *http.Request, patientID int64) {
	itemID, ok := urlID(r, "itemID")
	if !ok {
		h.flash.Flash(r.Context(), notify.LevelError, "No pudimos actualizar este registro.")
		return
	}
	e := extraFluidFromForm(r, patientID)
	e.ID = itemID
	e.Date = h.recordDate(r)
	if _, err := h.svc.ExtraFluids.Update(r.Context(), itemID, e); err != nil {
		h.failure(r, err, "No pudimos actualizar este registro.")
		return
	}
	h.success(r, "Registro actualizado.")
}

func (h *handlers) deleteExtraFluid(r *http.Request, _ int64) {
	itemID, ok := urlID(r, "itemID")
	if !ok {
		h.flash.Flash(r.Context(), notify.LevelError, "No pudimos eliminar este registro.")
		return
	}
	if err := h.svc.ExtraFluids.Delete(r.Context(), itemID); err != nil {
		h.failure(r, err, "No pudimos eliminar este registro.")
		return
	}
	h.success(r, "Registro eliminado.")
}

func medicineDetailFromForm(r *http.Request, patientID int64) model.MedicineDetail {
	return model.MedicineDetail{
		PatientID: patientID,
		Medicine:  model.Medicine{ID: formID(r, "medicineId")},
		Dose:      strings.TrimSpace(r.PostForm.Get("dose")),
		Frequency: strings.TrimSpace(r.PostForm.Get("frequency")),
	}
}

func (h *handlers) createMedicineDetail(r *http.Request, patientID int64) {
	d := medicineDetailFromForm(r, patientID)
	d.Date = model.NewTime(h.clock.Now())
	if _, err := h.svc.MedicineDetails.Create(r.Context(), d); err != nil {
		h.failure(r, err, "No fue posible registrar la medicina. Intenta nuevamente.")
		return
	}
	h.success(r, "Medicina registrada exitosamente")
}

func (h *handlers) updateMedicineDetail(r *http.Request, patientID int64) {
	itemID, ok := urlID(r, "itemID")
	if !ok {
		h.flash.Flash(r.Context(), notify.LevelError, "No fue posible actualizar la medicina. Intenta nuevamente.")
		return
	}
	d := medicineDetailFromForm(r, patientID)
	d.ID = itemID
	d.Date = h.recordDate(r)
	if _, err := h.svc.MedicineDetails.Update(r.Context(), itemID, d); err != nil {
		h.failure(r, err, "No fue posible actualizar la medicina. Intenta nuevamente.")
		return
	}
	h.success(r, "Medicina actualizada exitosamente")
}

func (h *handlers) deleteMedicineDetail(r *http.Request, _ int64) {
	itemID, ok := urlID(r, "itemID")
	if !ok {
		h.flash.Flash(r.Context(), notify.LevelError, "No fue posible eliminar la medicina. Intenta nuevamente.")
		return
	}
	if err := h.svc.MedicineDetails.Delete(r.Context(), itemID); err != nil {
		h.failure(r, err, "No fue posible eliminar la medicina. Intenta nuevamente.")
		return
	}
	h.success(r, "Medicina eliminada exitosamente")
}

func vitalSignDetailFromForm(r *http.Request, patientID int64) model.VitalSignDetail {
	return model.VitalSignDetail{
		PatientID: patientID,
		VitalSign: model.VitalSign{ID: formID(r, "vitalSignId")},
		Value:     strings.TrimSpace(r.PostForm.Get("value")),
	}
}

func (h *handlers) createVitalSignDetail(r *http.Request, patientID int64) {
	d := vitalSignDetailFromForm(r, patientID)
	d.Date = model.NewTime(h.clock.Now())
	if _, err := h.svc.VitalSignDetails.Create(r.Context(), d); err != nil {
		h.failure(r, err, "No fue posible registrar el signo vital. Intenta nuevamente.")
		return
	}
	h.success(r, "Signo vital registrado exitosamente")
}

func (h *handlers) updateVitalSignDetail(r *http.Request, patientID int64) {
	itemID, ok := urlID(r, "itemID")
	if !ok {
		h.flash.Flash(r.Context(), notify.LevelError, "No fue posible actualizar el signo vital. Intenta nuevamente.")
		return
	}
	d := vitalSignDetailFromForm(r, patientID)
	d.ID = itemID
	d.Date = h.recordDate(r)
	if _, err := h.svc.VitalSignDetails.Update(r.Context(), itemID, d); err != nil {
		h.failure(r, err, "No fue posible actualizar el signo vital. Intenta nuevamente.")
		return
	}
	h.success(r, "Signo vital actualizado exitosamente")
}

func (h *handlers) deleteVitalSignDetail(r *http.Request, _ int64) {
	itemID, ok := urlID(r, "itemID")
	if !ok {
		h.flash.Flash(r.Context(), notify.LevelError, "No fue posible eliminar el signo vital. Intenta nuevamente.")
		return
	}
	if err := h.svc.VitalSignDetails.Delete(r.Context(), itemID); err != nil {
		h.failure(r, err, "No fue posible eliminar el signo vital. Intenta nuevamente.")
		return
	}
	h.success(r, "Signo vital eliminado exitosamente")
}

