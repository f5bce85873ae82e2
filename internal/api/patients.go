package api

import (
	"context"
	"net/http"

	"github.com/ghaggin/fluidbalance/internal/model"
)

type Patients struct {
	c *Client
}

// List returns the patients registered under ownerID.
func (s *Patients) List(ctx context.Context, ownerID int64) ([]model.Patient, error) {
	var out []model.Patient
	if err := s.c.Do(ctx, http.MethodGet, "/api/patients/users/"+pathID(ownerID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Patients) Create(ctx context.Context, req model.PatientRequest) (*model.Patient, error) {
	if err := ValidatePatient(req); err != nil {
		return nil, err
	}
	out := &model.Patient{}
	if err := s.c.Do(ctx, http.MethodPost, "/api/patients/save", nil, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Patients) Update(ctx context.Context, patientID int64, req model.PatientRequest) (*model.Patient, error) {
	if err := ValidatePatient(req); err != nil {
		return nil, err
	}
	out := &model.Patient{}
	if err := s.c.Do(ctx, http.MethodPatch, "/api/patients/"+pathID(patientID), nil, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Patients) Delete(ctx context.Context, patientID int64) error {
	return s.c.Do(ctx, http.MethodDelete, "/api/patients/"+pathID(patientID), nil, nil, nil)
}

type BagTypes struct {
	c *Client
}

func (s *BagTypes) List(ctx context.Context) ([]model.BagType, error) {
	var out []model.BagType
	if err := s.c.Do(ctx, http.MethodGet, "/api/bag-types", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
