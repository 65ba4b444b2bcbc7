package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/AngelCh415/paidmedia-mmm/internal/catalog"
	"github.com/AngelCh415/paidmedia-mmm/internal/chat"
	"github.com/AngelCh415/paidmedia-mmm/internal/curve"
	"github.com/AngelCh415/paidmedia-mmm/internal/ingest"
	"github.com/AngelCh415/paidmedia-mmm/internal/metrics"
	"github.com/AngelCh415/paidmedia-mmm/internal/models"
	"github.com/AngelCh415/paidmedia-mmm/internal/recommend"
	"github.com/AngelCh415/paidmedia-mmm/internal/synth"
	"github.com/AngelCh415/paidmedia-mmm/internal/telemetry"
	"github.com/AngelCh415/paidmedia-mmm/internal/utils"
)

// Deps is everything the handlers read or mutate. Loader and Script are optional.
type Deps struct {
	Log       *slog.Logger
	Catalog   *catalog.Catalog
	Metrics   *metrics.Service
	Loader    *ingest.Loader
	Book      *recommend.Book
	Schedule  []models.ScheduleSlot
	Telemetry *telemetry.Metrics

	Provider    chat.Provider
	Session     *chat.Session
	System      func() (string, error)
	Script      *chat.Script
	ChatTimeout time.Duration

	HorizonWeeks int
}

func NewRouter(d Deps) http.Handler {
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(d.Log))
	mux.Use(utils.Instrument(d.Telemetry))
	mux.Use(middleware.Recoverer)

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	mux.Method(http.MethodGet, "/metrics", d.Telemetry.Handler())

	mux.Route("/api", func(r chi.Router) {
		r.Get("/performance-kpis", d.performanceKPIs)
		r.Get("/offices", d.listOffices)
		r.Get("/offices/{id}", d.officeDetail)
		r.Get("/offices/{id}/curves", d.officeCurves)

		r.Get("/trends", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 200, d.Metrics.Trends(r.URL.Query()))
		})
		r.Get("/weekly", func(w http.ResponseWriter, r *http.Request) {
			rows, total := d.Metrics.QueryWeekly(r.URL.Query())
			writeJSON(w, 200, map[string]any{"records": rows, "total": total})
		})

		r.Get("/recommendations", d.listRecommendations)
		r.Post("/recommendations/approve-all", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 200, map[string]any{"updated": d.Book.ApproveAll(), "pending": d.Book.PendingCount()})
		})
		r.Post("/recommendations/reject-all", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 200, map[string]any{"updated": d.Book.RejectAll(), "pending": d.Book.PendingCount()})
		})
		r.Post("/recommendations/{id}/approve", d.actOn(d.Book.Approve))
		r.Post("/recommendations/{id}/reject", d.actOn(d.Book.Reject))
		r.Post("/recommendations/{id}/modify", d.modifyRecommendation)

		r.Post("/chat", d.chatStateless)
		r.Post("/chat/send", d.chatSend)
		r.Get("/chat/messages", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 200, map[string]any{"messages": d.Session.Messages(), "provider": d.Session.Provider()})
		})
		r.Get("/chat/prompts", func(w http.ResponseWriter, r *http.Request) {
			prompts := []string{}
			if d.Script != nil {
				prompts = d.Script.Prompts
			}
			writeJSON(w, 200, map[string]any{"prompts": prompts})
		})
		r.Get("/chat/ws", d.chatWS)
	})

	return mux
}

func (d Deps) performanceKPIs(w http.ResponseWriter, r *http.Request) {
	if d.Loader == nil || !d.Loader.Configured() {
		writeJSON(w, 200, d.Metrics.SyntheticKPIs(d.Catalog.Offices))
		return
	}
	sum, err := d.Loader.Load(r.Context())
	if err != nil {
		d.Log.Warn("source unavailable", slog.String("rid", utils.RID(r.Context())), slog.String("err", err.Error()))
		writeError(w, http.StatusServiceUnavailable, "data unavailable: "+err.Error())
		return
	}
	source := d.Loader.Source()
	if sum.Skipped > 0 {
		d.Telemetry.RowsSkipped(source, sum.Skipped)
	}
	k := d.Metrics.KPIs(sum.Rows, d.HorizonWeeks, source)
	k.Skipped += sum.Skipped
	writeJSON(w, 200, k)
}

type officeView struct {
	models.Office
	Market             string                  `json:"market"`
	Status             models.InvestmentStatus `json:"status"`
	ScheduledOpenSlots int                     `json:"scheduledOpenSlots"`
}

func (d Deps) view(o models.Office) officeView {
	return officeView{
		Office:             o,
		Market:             o.Market(),
		Status:             recommend.ClassifyInvestment(o.CapacityUtilBaseline),
		ScheduledOpenSlots: synth.OpenSlots(d.Schedule, o.OfficeID),
	}
}

func (d Deps) listOffices(w http.ResponseWriter, r *http.Request) {
	market := strings.TrimSpace(r.URL.Query().Get("market"))
	status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))
	switch models.InvestmentStatus(status) {
	case "", "all", models.OverInvested, models.UnderInvested, models.Optimal:
	default:
		writeError(w, 400, "status must be all, over-invested, under-invested or optimal")
		return
	}

	out := []officeView{}
	for _, o := range d.Catalog.OfficesSorted() {
		v := d.view(o)
		if market != "" && !strings.EqualFold(market, "all") && !strings.EqualFold(market, v.Market) {
			continue
		}
		if status != "" && status != "all" && string(v.Status) != status {
			continue
		}
		out = append(out, v)
	}
	writeJSON(w, 200, out)
}

func (d Deps) office(w http.ResponseWriter, r *http.Request) (models.Office, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, 400, "office id must be numeric")
		return models.Office{}, false
	}
	o, ok := d.Catalog.Office(id)
	if !ok {
		writeError(w, 404, "office not found")
		return models.Office{}, false
	}
	return o, true
}

func (d Deps) officeDetail(w http.ResponseWriter, r *http.Request) {
	o, ok := d.office(w, r)
	if !ok {
		return
	}
	recs := d.Book.ByOffice(o.OfficeID)
	if recs == nil {
		recs = []models.Recommendation{}
	}
	writeJSON(w, 200, map[string]any{
		"office":          d.view(o),
		"curves":          d.Catalog.CurvesFor(o.OfficeID),
		"recommendations": recs,
		"schedule":        synth.ForOffice(d.Schedule, o.OfficeID),
	})
}

type curveView struct {
	models.ResponseCurveParams
	Points  []curve.Point  `json:"points"`
	Current curve.Position `json:"current"`
	Optimal curve.Position `json:"optimal"`
}

func (d Deps) officeCurves(w http.ResponseWriter, r *http.Request) {
	o, ok := d.office(w, r)
	if !ok {
		return
	}
	steps := curve.DefaultSteps
	if q := r.URL.Query().Get("steps"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > 1000 {
			writeError(w, 400, "steps must be between 1 and 1000")
			return
		}
		steps = n
	}

	out := []curveView{}
	for _, c := range d.Catalog.CurvesFor(o.OfficeID) {
		p := curve.Params(c)
		if err := p.Validate(); err != nil {
			d.Log.Warn("curve skipped", slog.String("err", err.Error()))
			continue
		}
		out = append(out, curveView{
			ResponseCurveParams: c,
			Points:              p.Points(steps),
			Current:             p.PositionAt(c.CurrentSpend),
			Optimal:             p.PositionAt(c.OptimalSpend),
		})
	}
	writeJSON(w, 200, out)
}

func (d Deps) listRecommendations(w http.ResponseWriter, r *http.Request) {
	status := models.RecommendationStatus(strings.ToLower(r.URL.Query().Get("status")))
	switch status {
	case "all":
		status = ""
	case "", models.StatusPending, models.StatusApproved, models.StatusRejected, models.StatusModified:
	default:
		writeError(w, 400, "unknown status")
		return
	}
	writeJSON(w, 200, map[string]any{"recommendations": d.Book.List(status), "pending": d.Book.PendingCount()})
}

func (d Deps) actOn(fn func(id string) (models.Recommendation, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := fn(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, 200, rec)
	}
}

type modifyRequest struct {
	RecommendedSpend *float64 `json:"recommendedSpend" validate:"required,gte=0"`
}

func (d Deps) modifyRecommendation(w http.ResponseWriter, r *http.Request) {
	var req modifyRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	rec, err := d.Book.Modify(chi.URLParam(r, "id"), *req.RecommendedSpend)
	if err != nil {
		if !errors.Is(err, recommend.ErrNotFound) {
			d.Log.Info("modify refused", slog.String("rid", utils.RID(r.Context())), slog.String("err", err.Error()))
		}
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, 200, rec)
}
