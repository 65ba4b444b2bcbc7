package chat

import (
	"bytes"
	_ "embed"
	"fmt"
	"math"
	"strings"
	"text/template"

	"golang.org/x/text/language"
	xmessage "golang.org/x/text/message"

	"github.com/AngelCh415/paidmedia-mmm/internal/catalog"
	"github.com/AngelCh415/paidmedia-mmm/internal/models"
	"github.com/AngelCh415/paidmedia-mmm/internal/recommend"
)

//go:embed prompt.tmpl
var promptText string

var printer = xmessage.NewPrinter(language.English)

func money(f float64) string {
	return printer.Sprintf("$%d", int64(math.Round(f)))
}

func signedMoney(f float64) string {
	if f < 0 {
		return "-" + money(-f)
	}
	return "+" + money(f)
}

var promptTmpl = template.Must(template.New("prompt").Funcs(template.FuncMap{
	"money":       money,
	"signedMoney": signedMoney,
	"pct":         func(f float64) string { return fmt.Sprintf("%d%%", int(math.Round(f*100))) },
	"signed":      func(n int) string { return fmt.Sprintf("%+d", n) },
	"inc":         func(i int) int { return i + 1 },
	"channel":     func(c models.Channel) string { return strings.ReplaceAll(string(c), "_", " ") },
	"status":      func(u float64) string { return string(recommend.ClassifyInvestment(u)) },
	"officeName":  func(id int) string { return fmt.Sprintf("Office %d", id) },
}).Parse(promptText))

type promptData struct {
	Offices []models.Office
	Curves  []models.ResponseCurveParams
	Pending []models.Recommendation
	OverAt  float64
	UnderAt float64
}

// SystemPrompt renders the fixed instruction with the current portfolio facts.
// pending is the live list of recommendations still awaiting action.
func SystemPrompt(c *catalog.Catalog, pending []models.Recommendation) (string, error) {
	names := func(id int) string {
		if o, ok := c.Office(id); ok {
			return o.Name
		}
		return fmt.Sprintf("Office %d", id)
	}
	t, err := promptTmpl.Clone()
	if err != nil {
		return "", err
	}
	t.Funcs(template.FuncMap{"officeName": names})

	var buf bytes.Buffer
	err = t.Execute(&buf, promptData{
		Offices: c.OfficesSorted(),
		Curves:  c.Curves,
		Pending: pending,
		OverAt:  recommend.OverInvestedAt,
		UnderAt: recommend.UnderInvestedAt,
	})
	if err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return buf.String(), nil
}
