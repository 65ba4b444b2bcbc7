package catalog

import (
	"errors"
	"testing"

	"github.com/AngelCh415/paidmedia-mmm/internal/curve"
	"github.com/AngelCh415/paidmedia-mmm/internal/models"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	if len(c.Offices) != 9 {
		t.Fatalf("offices = %d", len(c.Offices))
	}
	if len(c.Curves) != 27 {
		t.Fatalf("curves = %d", len(c.Curves))
	}
	if len(c.Recommendations) != 8 {
		t.Fatalf("recommendations = %d", len(c.Recommendations))
	}
	o, ok := c.Office(2372)
	if !ok || o.Name != "St Cloud Dentistry" || o.Market() != "Florida" {
		t.Fatalf("office 2372 = %+v ok=%v", o, ok)
	}
	p, ok := c.Curve(2372, models.GoogleSearch)
	if !ok || p.K != 35 || p.Beta != 5200 || p.N != 2.0 {
		t.Fatalf("st cloud curve = %+v", p)
	}
	if got := len(c.CurvesFor(8329)); got != 3 {
		t.Fatalf("woodmont curves = %d", got)
	}
	for _, s := range c.Series {
		if len(s.Spend) != 3 || len(s.Bookings) != 3 {
			t.Fatalf("series %d incomplete: %+v", s.OfficeID, s)
		}
	}
}

func TestParseRejectsInvalidCurve(t *testing.T) {
	doc := []byte(`
offices:
  - {id: 1, name: A, state: FL}
curves:
  - {office_id: 1, channel: Meta, k: 0, beta: 10, n: 1}
`)
	_, err := Parse(doc)
	if !errors.Is(err, curve.ErrInvalidParams) {
		t.Fatalf("expected invalid params, got %v", err)
	}
}

func TestParseRejectsUnknownOffice(t *testing.T) {
	doc := []byte(`
offices:
  - {id: 1, name: A, state: FL}
recommendations:
  - {id: r1, office_id: 2, channel: Meta, current_spend: 1, recommended_spend: 2, confidence: Low}
`)
	_, err := Parse(doc)
	if !errors.Is(err, ErrUnknownOffice) {
		t.Fatalf("expected unknown office, got %v", err)
	}
}

func TestOfficesSorted(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	out := c.OfficesSorted()
	for i := 1; i < len(out); i++ {
		if out[i-1].OfficeID >= out[i].OfficeID {
			t.Fatalf("not sorted at %d", i)
		}
	}
}
