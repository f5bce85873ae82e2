package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/ghaggin/fluidbalance/internal/model"
)

type Medicines struct {
	c *Client
}

func (s *Medicines) List(ctx context.Context) ([]model.Medicine, error) {
	var out []model.Medicine
	if err := s.c.Do(ctx, http.MethodGet, "/api/medicines", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Medicines) Create(ctx context.Context, name string, userID int64) (*model.Medicine, error) {
	if err := ValidateCatalogName(name); err != nil {
		return nil, err
	}
	in := model.Medicine{Name: strings.TrimSpace(name), UserID: userID}
	out := &model.Medicine{}
	if err := s.c.Do(ctx, http.MethodPost, "/api/medicines/save", nil, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Medicines) Update(ctx context.Context, medicineID int64, name string, userID int64) (*model.Medicine, error) {
	if err := ValidateCatalogName(name); err != nil {
		return nil, err
	}
	in := model.Medicine{ID: medicineID, Name: strings.TrimSpace(name), UserID: userID}
	out := &model.Medicine{}
	if err := s.c.Do(ctx, http.MethodPatch, "/api/medicines/"+pathID(medicineID), nil, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Medicines) Delete(ctx context.Context, medicineID int64) error {
	return s.c.Do(ctx, http.MethodDelete, "/api/medicines/"+pathID(medicineID), nil, nil, nil)
}

type MedicineDetails struct {
	c *Client
}

func (s *MedicineDetails) List(ctx context.Context, patientID int64) ([]model.MedicineDetail, error) {
	var out []model.MedicineDetail
	if err := s.c.Do(ctx, http.MethodGet, "/api/medicines/details/patients/"+pathID(patientID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MedicineDetails) Create(ctx context.Context, d model.MedicineDetail) (*model.MedicineDetail, error) {
	if err := ValidateMedicineDetail(d); err != nil {
		return nil, err
	}
	out := &model.MedicineDetail{}
	if err := s.c.Do(ctx, http.MethodPost, "/api/medicines/details/save", nil, d, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MedicineDetails) Update(ctx context.Context, detailID int64, d model.MedicineDetail) (*model.MedicineDetail, error) {
	if err := ValidateMedicineDetail(d); err != nil {
		return nil, err
	}
	out := &model.MedicineDetail{}
	if err := s.c.Do(ctx, http.MethodPatch, "/api/medicines/details/"+pathID(detailID), nil, d, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MedicineDetails) Delete(ctx context.Context, detailID int64) error {
	return s.c.Do(ctx, http.MethodDelete, "/api/medicines/details/"+pathID(detailID), nil, nil, nil)
}

type VitalSigns struct {
	c *Client
}

func (s *VitalSigns) List(ctx context.Context) ([]model.VitalSign, error) {
	var out []model.VitalSign
	if err := s.c.Do(ctx, http.MethodGet, "/api/vital-signs", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *VitalSigns) Create(ctx context.Context, name string, userID int64) (*model.VitalSign, error) {
	if err := ValidateCatalogName(name); err != nil {
		return nil, err
	}
	in := model.VitalSign{Name: strings.TrimSpace(name), UserID: userID}
	out := &model.VitalSign{}
	if err := s.c.Do(ctx, http.MethodPost, "/api/vital-signs/save", nil, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *VitalSigns) Update(ctx context.Context, vitalSignID int64, name string, userID int64) (*model.VitalSign, error) {
	if err := ValidateCatalogName(name); err != nil {
		return nil, err
	}
	in := model.VitalSign{ID: vitalSignID, Name: strings.TrimSpace(name), UserID: userID}
	out := &model.VitalSign{}
	if err := s.c.Do(ctx, http.MethodPatch, "/api/vital-signs/"+pathID(vitalSignID), nil, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *VitalSigns) Delete(ctx context.Context, vitalSignID int64) error {
	return s.c.Do(ctx, http.MethodDelete, "/api/vital-signs/"+pathID(vitalSignID), nil, nil, nil)
}

type VitalSignDetails struct {
	c *Client
	days
}

// Today returns the readings taken since today's midnight.
func (s *VitalSignDetails) Today(ctx context.Context, patientID int64) ([]model.VitalSignDetail, error) {
	q := url.Values{"actualDate": {model.FormatISO(s.today())}}

	var out []model.VitalSignDetail
	path := "/api/vital-signs/details/patients/" + pathID(patientID) + "/actual-date"
	if err := s.c.Do(ctx, http.MethodGet, path, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *VitalSignDetails) Range(ctx context.Context, patientID int64, r Range) ([]model.VitalSignDetail, error) {
	if err := ValidateRange(r.Start, r.End); err != nil {
		return nil, err
	}
	q := url.Values{
		"startDate": {model.FormatISO(r.Start)},
		"endDate":   {model.FormatISO(r.End)},
	}

	var out []model.VitalSignDetail
	path := "/api/vital-signs/details/patients/" + pathID(patientID) + "/dates"
	if err := s.c.Do(ctx, http.MethodGet, path, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *VitalSignDetails) Create(ctx context.Context, d model.VitalSignDetail) (*model.VitalSignDetail, error) {
	if err := ValidateVitalSignDetail(d); err != nil {
		return nil, err
	}
	out := &model.VitalSignDetail{}
	if err := s.c.Do(ctx, http.MethodPost, "/api/vital-signs/details/save", nil, d, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *VitalSignDetails) Update(ctx context.Context, detailID int64, d model.VitalSignDetail) (*model.VitalSignDetail, error) {
	if err := ValidateVitalSignDetail(d); err != nil {
		return nil, err
	}
	out := &model.VitalSignDetail{}
	if err := s.c.Do(ctx, http.MethodPatch, "/api/vital-signs/details/"+pathID(detailID), nil, d, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *VitalSignDetails) Delete(ctx context.Context, detailID int64) error {
	return s.c.Do(ctx, http.MethodDelete, "/api/vital-signs/details/"+pathID(detailID), nil, nil, nil)
}
