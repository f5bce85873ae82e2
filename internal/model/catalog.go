package model

type Medicine struct {
	ID     int64  `json:"id,omitempty"`
	Name   string `json:"name"`
	UserID int64  `json:"userId"`
}

type MedicineDetail struct {
	ID        int64    `json:"id,omitempty"`
	PatientID int64    `json:"patientId"`
	Date      Time     `json:"date"`
	Medicine  Medicine `json:"medicine"`
	Dose      string   `json:"dose"`
	Frequency string   `json:"frequency"`
}

type VitalSign struct {
	ID     int64  `json:"id,omitempty"`
	Name   string `json:"name"`
	UserID int64  `json:"userId"`
}

type VitalSignDetail struct {
	ID        int64     `json:"id,omitempty"`
	PatientID int64     `json:"patientId"`
	Date      Time      `json:"date"`
	VitalSign VitalSign `json:"vitalSign"`
	Value     string    `json:"value"`
}
