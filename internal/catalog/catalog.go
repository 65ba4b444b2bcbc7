// Package catalog holds the immutable reference data of the portfolio: offices,
// response curve parameters, synthetic-series baselines and the recommendation
// candidates the dashboard starts with.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v2"

	"github.com/AngelCh415/paidmedia-mmm/internal/curve"
	"github.com/AngelCh415/paidmedia-mmm/internal/models"
)

//go:embed catalog.yaml
var defaultYAML []byte

type SeriesBaseline struct {
	OfficeID int                        `yaml:"office_id"`
	BaseCap  float64                    `yaml:"base_cap"`
	Spend    map[models.Channel]float64 `yaml:"spend"`
	Bookings map[models.Channel]float64 `yaml:"bookings"`
}

type ScheduleBaseline struct {
	OfficeID   int     `yaml:"office_id"`
	Capacity   float64 `yaml:"capacity"`
	DailySlots int     `yaml:"daily_slots"`
}

type Candidate struct {
	ID               string            `yaml:"id"`
	OfficeID         int               `yaml:"office_id"`
	Channel          models.Channel    `yaml:"channel"`
	CurrentSpend     float64           `yaml:"current_spend"`
	RecommendedSpend float64           `yaml:"recommended_spend"`
	Confidence       models.Confidence `yaml:"confidence"`
	Rationale        string            `yaml:"rationale"`
}

type Catalog struct {
	Offices         []models.Office              `yaml:"offices"`
	Curves          []models.ResponseCurveParams `yaml:"curves"`
	Series          []SeriesBaseline             `yaml:"series"`
	Schedule        []ScheduleBaseline           `yaml:"schedule"`
	Recommendations []Candidate                  `yaml:"recommendations"`

	byID map[int]models.Office
}

var ErrUnknownOffice = errors.New("unknown office")

// Default parses the embedded catalog.
func Default() (*Catalog, error) { return Parse(defaultYAML) }

func Parse(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.UnmarshalStrict(b, &c); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	c.byID = make(map[int]models.Office, len(c.Offices))
	for _, o := range c.Offices {
		if o.OfficeID <= 0 {
			return fmt.Errorf("catalog: office %q without id", o.Name)
		}
		if _, dup := c.byID[o.OfficeID]; dup {
			return fmt.Errorf("catalog: duplicate office %d", o.OfficeID)
		}
		c.byID[o.OfficeID] = o
	}
	for _, p := range c.Curves {
		if _, ok := c.byID[p.OfficeID]; !ok {
			return fmt.Errorf("catalog: curve %w %d", ErrUnknownOffice, p.OfficeID)
		}
		if err := curve.Params(p).Validate(); err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
	}
	for _, s := range c.Series {
		if _, ok := c.byID[s.OfficeID]; !ok {
			return fmt.Errorf("catalog: series %w %d", ErrUnknownOffice, s.OfficeID)
		}
	}
	for _, r := range c.Recommendations {
		if _, ok := c.byID[r.OfficeID]; !ok {
			return fmt.Errorf("catalog: recommendation %s %w %d", r.ID, ErrUnknownOffice, r.OfficeID)
		}
	}
	return nil
}

func (c *Catalog) Office(id int) (models.Office, bool) {
	o, ok := c.byID[id]
	return o, ok
}

// OfficesSorted returns offices ordered by id.
func (c *Catalog) OfficesSorted() []models.Office {
	out := append([]models.Office(nil), c.Offices...)
	sort.Slice(out, func(i, j int) bool { return out[i].OfficeID < out[j].OfficeID })
	return out
}

func (c *Catalog) CurvesFor(officeID int) []models.ResponseCurveParams {
	var out []models.ResponseCurveParams
	for _, p := range c.Curves {
		if p.OfficeID == officeID {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) Curve(officeID int, ch models.Channel) (models.ResponseCurveParams, bool) {
	for _, p := range c.Curves {
		if p.OfficeID == officeID && p.Channel == ch {
			return p, true
		}
	}
	return models.ResponseCurveParams{}, false
}
