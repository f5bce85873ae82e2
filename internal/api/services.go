package api

import (
	"net/url"
	"strconv"
	"time"

	"github.com/ghaggin/fluidbalance/internal/config"
	"github.com/ghaggin/fluidbalance/internal/model"
	"github.com/ghaggin/fluidbalance/internal/slots"
	"github.com/jonboulle/clockwork"
	"go.uber.org/fx"
)

// Services groups one client per backend resource.
type Services struct {
	Users            *Users
	Patients         *Patients
	BagTypes         *BagTypes
	FluidDates       *FluidDates
	FluidBalances    *FluidBalances
	Calculated       *Calculated
	ExtraFluids      *ExtraFluids
	Medicines        *Medicines
	MedicineDetails  *MedicineDetails
	VitalSigns       *VitalSigns
	VitalSignDetails *VitalSignDetails
}

type servicesParams struct {
	fx.In

	Client *Client
	Clock  clockwork.Clock
	Config *config.Config
}

func NewServices(p servicesParams) (*Services, error) {
	loc, err := p.Config.Location()
	if err != nil {
		return nil, err
	}
	return New(p.Client, p.Clock, loc), nil
}

func New(c *Client, clock clockwork.Clock, loc *time.Location) *Services {
	d := days{clock: clock, loc: loc}
	return &Services{
		Users:            &Users{c: c},
		Patients:         &Patients{c: c},
		BagTypes:         &BagTypes{c: c},
		FluidDates:       &FluidDates{c: c},
		FluidBalances:    &FluidBalances{c: c, days: d},
		Calculated:       &Calculated{c: c, days: d},
		ExtraFluids:      &ExtraFluids{c: c, days: d},
		Medicines:        &Medicines{c: c},
		MedicineDetails:  &MedicineDetails{c: c},
		VitalSigns:       &VitalSigns{c: c},
		VitalSignDetails: &VitalSignDetails{c: c, days: d},
	}
}

// Range is an optional [Start, End] filter. Leaving either end zero means
// "today's cut".
type Range struct {
	Start time.Time
	End   time.Time
}

func (r Range) IsSet() bool {
	return !r.Start.IsZero() && !r.End.IsZero()
}

type days struct {
	clock clockwork.Clock
	loc   *time.Location
}

func (d days) today() time.Time {
	return slots.Midnight(d.clock.Now(), d.loc)
}

// rangeQuery sends startDate and endDate, or just startDate=today.
func (d days) rangeQuery(q url.Values, r Range) url.Values {
	if q == nil {
		q = url.Values{}
	}
	if r.IsSet() {
		q.Set("startDate", model.FormatISO(r.Start))
		q.Set("endDate", model.FormatISO(r.End))
		return q
	}
	q.Set("startDate", model.FormatISO(d.today()))
	return q
}

func pathID(n int64) string {
	return strconv.FormatInt(n, 10)
}
