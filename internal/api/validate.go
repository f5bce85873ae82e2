package api

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ghaggin/fluidbalance/internal/model"
)

// ValidationError rejects a request before it reaches the backend.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "api: invalid " + e.Field + ": " + e.Message
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

const (
	maxNameLen        = 80
	maxDescriptionLen = 150
	maxDetailLen      = 120
	minPasswordLen    = 4
	maxPasswordLen    = 100
	maxAge            = 120
)

func tooLong(s string, n int) bool {
	return utf8.RuneCountInString(s) > n
}

func ValidatePatient(p model.PatientRequest) error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return invalid("name", "El nombre es obligatorio.")
	}
	if tooLong(name, maxNameLen) {
		return invalid("name", "El nombre no puede exceder 80 caracteres.")
	}
	if p.Age < 0 || p.Age > maxAge {
		return invalid("age", "La edad debe estar entre 0 y 120.")
	}
	if p.BagTypeID <= 0 {
		return invalid("bagTypeId", "Selecciona un tipo de bolsa.")
	}
	return nil
}

func ValidateFluidBalance(b model.FluidBalance) error {
	if b.Date.IsZero() {
		return invalid("date", "Selecciona un horario válido.")
	}
	if b.Infused < 0 || b.Drained < 0 {
		return invalid("infused", "Los volúmenes no pueden ser negativos.")
	}
	if tooLong(b.DescriptionFluid, maxDescriptionLen) {
		return invalid("descriptionFluid", "La descripción no puede exceder 150 caracteres.")
	}
	return nil
}

func ValidateExtraFluid(e model.ExtraFluid) error {
	if e.Date.IsZero() {
		return invalid("date", "La fecha es obligatoria.")
	}
	if e.Urine < 0 || e.Ingested < 0 {
		return invalid("urine", "Los volúmenes no pueden ser negativos.")
	}
	return nil
}

// ValidateCatalogName covers medicine and vital sign names.
func ValidateCatalogName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("name", "El nombre es obligatorio.")
	}
	if tooLong(name, maxNameLen) {
		return invalid("name", "El nombre no puede exceder 80 caracteres.")
	}
	return nil
}

func ValidateMedicineDetail(d model.MedicineDetail) error {
	if d.Date.IsZero() {
		return invalid("date", "La fecha es obligatoria.")
	}
	if d.Medicine.ID <= 0 {
		return invalid("medicineId", "Selecciona un medicamento.")
	}
	if strings.TrimSpace(d.Dose) == "" || tooLong(d.Dose, maxDetailLen) {
		return invalid("dose", "La dosis es obligatoria y no puede exceder 120 caracteres.")
	}
	if strings.TrimSpace(d.Frequency) == "" || tooLong(d.Frequency, maxDetailLen) {
		return invalid("frequency", "La frecuencia es obligatoria y no puede exceder 120 caracteres.")
	}
	return nil
}

func ValidateVitalSignDetail(d model.VitalSignDetail) error {
	if d.Date.IsZero() {
		return invalid("date", "La fecha es obligatoria.")
	}
	if d.VitalSign.ID <= 0 {
		return invalid("vitalSignId", "Selecciona un signo vital.")
	}
	if strings.TrimSpace(d.Value) == "" || tooLong(d.Value, maxDetailLen) {
		return invalid("value", "El valor es obligatorio y no puede exceder 120 caracteres.")
	}
	return nil
}

// ValidatePasswordChange checks the plain-text passwords before encryption.
func ValidatePasswordChange(current, next string) error {
	if strings.TrimSpace(current) == "" || strings.TrimSpace(next) == "" {
		return invalid("password", "Ambas contraseñas son obligatorias.")
	}
	for _, p := range []string{current, next} {
		if n := utf8.RuneCountInString(p); n < minPasswordLen || n > maxPasswordLen {
			return invalid("password", "La contraseña debe tener entre 4 y 100 caracteres.")
		}
	}
	if current == next {
		return invalid("newPassword", "La nueva contraseña debe ser diferente a la actual.")
	}
	return nil
}

func ValidateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return invalid("range", "Selecciona la fecha inicial y la final.")
	}
	if start.After(end) {
		return invalid("range", "La fecha inicial no puede ser mayor que la final.")
	}
	return nil
}
