package models

import "time"

type Channel string

const (
	GoogleSearch       Channel = "Google_Search"
	Meta               Channel = "Meta"
	GoogleProgrammatic Channel = "Google_Programmatic"
)

// Channels in display order.
var Channels = []Channel{GoogleSearch, Meta, GoogleProgrammatic}

func (c Channel) Label() string {
	switch c {
	case GoogleSearch:
		return "Google"
	case GoogleProgrammatic:
		return "Programmatic"
	}
	return string(c)
}

type InvestmentStatus string

const (
	OverInvested  InvestmentStatus = "over-invested"
	UnderInvested InvestmentStatus = "under-invested"
	Optimal       InvestmentStatus = "optimal"
)

type Office struct {
	OfficeID             int     `yaml:"id" json:"officeId"`
	Name                 string  `yaml:"name" json:"officeName"`
	City                 string  `yaml:"city" json:"city"`
	State                string  `yaml:"state" json:"state"`
	MarketSize           string  `yaml:"market_size" json:"marketSize"`
	MaturityStage        string  `yaml:"maturity" json:"maturityStage"`
	CapacityUtilBaseline float64 `yaml:"capacity" json:"capacityUtilBaseline"`
	AvgWeeklySpendTotal  float64 `yaml:"avg_weekly_spend" json:"avgWeeklySpendTotal"`
	DominantChannel      Channel `yaml:"dominant_channel" json:"dominantChannel"`
	GoogleSearchIncr     float64 `yaml:"google_search_incr" json:"googleSearchIncr"`
	MetaIncr             float64 `yaml:"meta_incr" json:"metaIncr"`
	ProgrammaticIncr     float64 `yaml:"programmatic_incr" json:"programmaticIncr"`
	CPATarget            float64 `yaml:"cpa_target" json:"cpaTarget"`
	OpenSlots7Day        int     `yaml:"open_slots_7d" json:"openSlots7Day"`
	TotalSlots7Day       int     `yaml:"total_slots_7d" json:"totalSlots7Day"`
}

// Market agrupa oficinas por estado para el filtro del dashboard.
func (o Office) Market() string {
	switch o.State {
	case "FL":
		return "Florida"
	case "NY":
		return "New York"
	}
	return o.State
}

func (o Office) Incrementality(c Channel) float64 {
	switch c {
	case GoogleSearch:
		return o.GoogleSearchIncr
	case Meta:
		return o.MetaIncr
	case GoogleProgrammatic:
		return o.ProgrammaticIncr
	}
	return 0
}

type ResponseCurveParams struct {
	OfficeID     int     `yaml:"office_id" json:"officeId"`
	Channel      Channel `yaml:"channel" json:"channel"`
	K            float64 `yaml:"k" json:"K"`
	Beta         float64 `yaml:"beta" json:"beta"`
	N            float64 `yaml:"n" json:"n"`
	MaxSpend     float64 `yaml:"max_spend" json:"maxSpend"`
	CurrentSpend float64 `yaml:"current_spend" json:"currentSpend"`
	OptimalSpend float64 `yaml:"optimal_spend" json:"optimalSpend"`
}

type WeeklyPerformanceRecord struct {
	WeekStart              time.Time `json:"weekStart"`
	OfficeID               int       `json:"officeId" validate:"required,gt=0"`
	Channel                Channel   `json:"channel" validate:"required"`
	Spend                  float64   `json:"spend" validate:"gte=0"`
	Impressions            int       `json:"impressions" validate:"gte=0"`
	Clicks                 int       `json:"clicks" validate:"gte=0"`
	CTR                    float64   `json:"ctr" validate:"gte=0"`
	CPC                    float64   `json:"cpc" validate:"gte=0"`
	ConversionsObserved    int       `json:"conversionsObserved" validate:"gte=0"`
	ConversionsIncremental int       `json:"conversionsIncremental" validate:"gte=0,ltefield=ConversionsObserved"`
	IncrementalityRate     float64   `json:"incrementalityRate" validate:"gte=0,lte=1"`
	CPAObserved            float64   `json:"cpaObserved" validate:"gte=0"`
	CPAIncremental         float64   `json:"cpaIncremental" validate:"gte=0"`
	NewPatientBookings     int       `json:"newPatientBookings" validate:"gte=0"`
	AttributedRevenue      float64   `json:"attributedRevenue" validate:"gte=0"`
	CapacityUtilization    float64   `json:"capacityUtilization" validate:"gte=0,lte=1"`
	SeasonalityFactor      float64   `json:"seasonalityFactor" validate:"gt=0"`
}

// SourceRow es una fila del resumen por oficina x canal (tabla markdown o serie sintetica).
type SourceRow struct {
	OfficeID               int     `json:"officeId" validate:"required,gt=0"`
	OfficeName             string  `json:"officeName" validate:"required"`
	Channel                Channel `json:"channel" validate:"required"`
	Spend                  float64 `json:"spend" validate:"gte=0"`
	ConversionsObserved    float64 `json:"conversionsObserved" validate:"gte=0"`
	ConversionsIncremental float64 `json:"conversionsIncremental" validate:"gte=0,ltefield=ConversionsObserved"`
	Bookings               float64 `json:"bookings" validate:"gte=0"`
	AvgWeeklySpend         float64 `json:"avgWeeklySpend" validate:"gte=0"`
	CapacityUtil           float64 `json:"capacityUtil" validate:"gte=0,lte=1"`
}

type RecommendationStatus string

const (
	StatusPending  RecommendationStatus = "pending"
	StatusApproved RecommendationStatus = "approved"
	StatusRejected RecommendationStatus = "rejected"
	StatusModified RecommendationStatus = "modified"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

type Recommendation struct {
	RecID                  string               `json:"recId"`
	OfficeID               int                  `json:"officeId"`
	OfficeName             string               `json:"officeName"`
	Channel                Channel              `json:"channel"`
	Action                 string               `json:"action"` // increase | decrease
	CurrentSpend           float64              `json:"currentSpend"`
	RecommendedSpend       float64              `json:"recommendedSpend"`
	Delta                  float64              `json:"delta"`
	ProjectedBookingsDelta int                  `json:"projectedBookingsDelta"`
	Confidence             Confidence           `json:"confidence"`
	Rationale              string               `json:"rationale"`
	Status                 RecommendationStatus `json:"status"`
	Timestamp              time.Time            `json:"timestamp"`
}

type WeeklyTrend struct {
	WeekStart     string              `json:"weekStart"`
	TotalSpend    float64             `json:"totalSpend"`
	TotalBookings int                 `json:"totalBookings"`
	AvgCPA        float64             `json:"avgCPA"`
	CapacityUtil  float64             `json:"capacityUtil"`
	ChannelSpend  map[Channel]float64 `json:"channelSpend"`
}

type ChannelSummary struct {
	Channel                string  `json:"channel"`
	Spend                  float64 `json:"spend"`
	Bookings               float64 `json:"bookings"`
	Conversions            float64 `json:"conversions"`
	ConversionsIncremental float64 `json:"conversionsIncremental"`
	CPA                    float64 `json:"cpa"`
}

type OfficeSummary struct {
	OfficeID        int     `json:"officeId"`
	Name            string  `json:"name"`
	Spend           float64 `json:"spend"`
	Bookings        float64 `json:"bookings"`
	AvgCapacityUtil float64 `json:"avgCapacityUtil"`
}

type PortfolioSummary struct {
	TotalWeeklySpend    float64 `json:"totalWeeklySpend"`
	TotalWeeklyBookings int     `json:"totalWeeklyBookings"`
	AvgCPAObserved      float64 `json:"avgCPAObserved"`
	AvgCPAIncremental   float64 `json:"avgCPAIncremental"`
	AvgCapacityUtil     float64 `json:"avgCapacityUtil"`
}

type PerformanceKPIs struct {
	Summary  PortfolioSummary `json:"summary"`
	Channels []ChannelSummary `json:"channels"`
	Offices  []OfficeSummary  `json:"offices"`
	Skipped  int              `json:"skipped"`
	Source   string           `json:"source"`
}

type ScheduleSlot struct {
	OfficeID    int    `json:"officeId"`
	Date        string `json:"date"`
	TotalSlots  int    `json:"totalSlots"`
	BookedSlots int    `json:"bookedSlots"`
	OpenSlots   int    `json:"openSlots"`
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// Turn es lo que viaja al proveedor de chat.
type Turn struct {
	Role    Role   `json:"role" validate:"required,oneof=user agent"`
	Content string `json:"content"`
}
