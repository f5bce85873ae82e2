package model

type BagType struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type PatientStatus string

const (
	StatusStable       PatientStatus = "Estable"
	StatusNeedsCare    PatientStatus = "Requiere atención"
	StatusNewAdmission PatientStatus = "Nuevo ingreso"
)

type Patient struct {
	ID      int64         `json:"id"`
	Name    string        `json:"name"`
	Age     int           `json:"age"`
	UserID  int64         `json:"userId"`
	BagType *BagType      `json:"bagType,omitempty"`
	Status  PatientStatus `json:"status"`
}

// PatientRequest creates or updates a patient. A nil Status lets the backend
// assign the initial one.
type PatientRequest struct {
	Name      string         `json:"name"`
	Age       int            `json:"age"`
	UserID    int64          `json:"userId"`
	BagTypeID int64          `json:"bagTypeId"`
	Status    *PatientStatus `json:"status"`
}
