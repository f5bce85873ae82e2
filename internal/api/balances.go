package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/ghaggin/fluidbalance/internal/model"
)

type FluidDates struct {
	c *Client
}

// Active returns the "HH:MM" times of day balances may be recorded at.
func (s *FluidDates) Active(ctx context.Context) ([]string, error) {
	var out []string
	if err := s.c.Do(ctx, http.MethodGet, "/api/fluid-dates/active-dates", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type FluidBalances struct {
	c *Client
	days
}

// List returns a patient's balances in r, or since today's midnight when r is unset.
func (s *FluidBalances) List(ctx context.Context, patientID int64, r Range) ([]model.FluidBalance, error) {
	if r.Start.IsZero() != r.End.IsZero() || r.IsSet() {
		if err := ValidateRange(r.Start, r.End); err != nil {
			return nil, err
		}
	}
	q := s.rangeQuery(url.Values{"patientId": {pathID(patientID)}}, r)

	var out []model.FluidBalance
	if err := s.c.Do(ctx, http.MethodGet, "/api/fluid-balances/dates", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *FluidBalances) Create(ctx context.Context, b model.FluidBalance) (*model.FluidBalance, error) {
	if err := ValidateFluidBalance(b); err != nil {
		return nil, err
	}
	out := &model.FluidBalance{}
	if err := s.c.Do(ctx, http.MethodPost, "/api/fluid-balances/save", nil, b, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *FluidBalances) Update(ctx context.Context, balanceID int64, b model.FluidBalance) (*model.FluidBalance, error) {
	if err := ValidateFluidBalance(b); err != nil {
		return nil, err
	}
	out := &model.FluidBalance{}
	if err := s.c.Do(ctx, http.MethodPatch, "/api/fluid-balances/"+pathID(balanceID), nil, b, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *FluidBalances) Delete(ctx context.Context, balanceID int64) error {
	return s.c.Do(ctx, http.MethodDelete, "/api/fluid-balances/"+pathID(balanceID), nil, nil, nil)
}

// MaxSummaries caps how many calculated cuts are shown.
const MaxSummaries = 15

type Calculated struct {
	c *Client
	days
}

// Get returns the calculated balance summaries. The backend answers with a
// single object or an array; both come back as a slice.
func (s *Calculated) Get(ctx context.Context, patientID int64, r Range) ([]model.CalculatedFluidBalance, error) {
	path := "/api/fluid-balances/calculate/patients/" + pathID(patientID) + "/dates"

	var raw json.RawMessage
	if err := s.c.Do(ctx, http.MethodGet, path, s.rangeQuery(nil, r), nil, &raw); err != nil {
		return nil, err
	}
	return normalizeSummaries(raw)
}

func normalizeSummaries(raw json.RawMessage) ([]model.CalculatedFluidBalance, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var out []model.CalculatedFluidBalance
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("api: decode calculated balance: %w", err)
		}
	} else {
		var one model.CalculatedFluidBalance
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, fmt.Errorf("api: decode calculated balance: %w", err)
		}
		out = append(out, one)
	}

	if len(out) > MaxSummaries {
		out = out[:MaxSummaries]
	}
	return out, nil
}

func (s *Calculated) PDF(ctx context.Context, patientID int64, r Range) ([]byte, error) {
	path := "/api/fluid-balances/reports/balances/patients/" + pathID(patientID) + "/dates"

	var out []byte
	if err := s.c.Do(ctx, http.MethodGet, path, s.rangeQuery(nil, r), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Email asks the backend to mail the PDF to the clinician's address.
func (s *Calculated) Email(ctx context.Context, patientID int64, r Range) error {
	path := "/api/fluid-balances/reports/balances/patients/" + pathID(patientID) + "/dates/email"
	return s.c.Do(ctx, http.MethodGet, path, s.rangeQuery(nil, r), nil, nil)
}

// FileName names the downloaded report after the patient and the range,
// or today when no range is set.
func (s *Calculated) FileName(patientLabel string, patientID int64, r Range) string {
	return PDFFileName(patientLabel, patientID, r, s.clock.Now(), s.loc)
}

var whitespace = regexp.MustCompile(`\s+`)

// PDFFileName writes each date as the calendar day it falls on in loc, the
// zone the clinician picked the range in.
func PDFFileName(patientLabel string, patientID int64, r Range, now time.Time, loc *time.Location) string {
	prefix := "Balance_" + pathID(patientID)
	if patientLabel != "" {
		prefix = "Balance_" + whitespace.ReplaceAllString(patientLabel, "_")
	}
	if r.IsSet() {
		return fmt.Sprintf("%s-%s-%s.pdf", prefix, fileDate(r.Start, loc), fileDate(r.End, loc))
	}
	return fmt.Sprintf("%s-%s.pdf", prefix, fileDate(now, loc))
}

func fileDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

type ExtraFluids struct {
	c *Client
	days
}

// Today returns the extra fluids recorded since today's midnight.
func (s *ExtraFluids) Today(ctx context.Context, patientID int64) ([]model.ExtraFluid, error) {
	q := url.Values{"actualDate": {model.FormatISO(s.today())}}

	var out []model.ExtraFluid
	if err := s.c.Do(ctx, http.MethodGet, "/api/extra-fluids/patients/actual-date/"+pathID(patientID), q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ExtraFluids) Range(ctx context.Context, patientID int64, r Range) ([]model.ExtraFluid, error) {
	if err := ValidateRange(r.Start, r.End); err != nil {
		return nil, err
	}
	q := url.Values{
		"startDate": {model.FormatISO(r.Start)},
		"endDate":   {model.FormatISO(r.End)},
	}

	var out []model.ExtraFluid
	if err := s.c.Do(ctx, http.MethodGet, "/api/extra-fluids/patients/"+pathID(patientID)+"/dates", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ExtraFluids) Create(ctx context.Context, e model.ExtraFluid) (*model.ExtraFluid, error) {
	if err := ValidateExtraFluid(e); err != nil {
		return nil, err
	}
	out := &model.ExtraFluid{}
	if err := s.c.Do(ctx, http.MethodPost, "/api/extra-fluids/save", nil, e, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ExtraFluids) Update(ctx context.Context, extraFluidID int64, e model.ExtraFluid) (*model.ExtraFluid, error) {
	if err := ValidateExtraFluid(e); err != nil {
		return nil, err
	}
	out := &model.ExtraFluid{}
	if err := s.c.Do(ctx, http.MethodPatch, "/api/extra-fluids/"+pathID(extraFluidID), nil, e, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ExtraFluids) Delete(ctx context.Context, extraFluidID int64) error {
	return s.c.Do(ctx, http.MethodDelete, "/api/extra-fluids/"+pathID(extraFluidID), nil, nil, nil)
}
