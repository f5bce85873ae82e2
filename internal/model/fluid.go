package model

type FluidBalance struct {
	ID               int64   `json:"id,omitempty"`
	FluidBalanceID   int64   `json:"fluidBalanceId,omitempty"`
	PatientID        int64   `json:"patientId"`
	Date             Time    `json:"date"`
	Infused          float64 `json:"infused"`
	Drained          float64 `json:"drained"`
	DescriptionFluid string  `json:"descriptionFluid"`
}

// Key returns the record id; older backends only send fluidBalanceId.
func (b FluidBalance) Key() int64 {
	if b.ID != 0 {
		return b.ID
	}
	return b.FluidBalanceID
}

type FluidBalanceReport struct {
	PatientID        int64   `json:"patientId"`
	Date             Time    `json:"date"`
	Infused          float64 `json:"infused"`
	Drained          float64 `json:"drained"`
	DescriptionFluid string  `json:"descriptionFluid"`
	Ultrafiltration  float64 `json:"ultrafiltration"`
}

// CalculatedFluidBalance is one computed cut of a patient's balance.
type CalculatedFluidBalance struct {
	FluidBalances  []FluidBalanceReport `json:"fluidBalances"`
	PartialBalance float64              `json:"partialBalance"`
	TotalBalance   float64              `json:"totalBalance"`
	TotalIngested  float64              `json:"totalIngested"`
	TotalUrine     float64              `json:"totalUrine"`
	FinalBalance   float64              `json:"finalBalance"`
}

type ExtraFluid struct {
	ID        int64   `json:"id,omitempty"`
	PatientID int64   `json:"patientId"`
	Date      Time    `json:"date"`
	Urine     float64 `json:"urine"`
	Ingested  float64 `json:"ingested"`
}
