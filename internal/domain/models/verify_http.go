package models

// Requests for verification HTTP endpoints. Defined in domain for consistency and reuse.

type AdvisorRequest struct {
	AdvisorName string `json:"advisor_name" validate:"required,min=2,max=200"`
}

type AnnouncementRequest struct {
	Announcement string `json:"announcement" validate:"required,min=5"`
	Ticker       string `json:"ticker" validate:"omitempty,max=20"`
}

type SocialRequest struct {
	Content string `json:"content" validate:"required,min=2"`
}

type AnomalyRequest struct {
	Ticker string `json:"ticker" validate:"required,max=20"`
}

type HistoryRequest struct {
	Limit int `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
	// Since accepts RFC3339 or unix seconds; empty means no lower bound.
	Since string `query:"since" json:"since,omitempty"`
}

// AdvisorResponse is the advisor verdict plus registry membership.
type AdvisorResponse struct {
	RiskVerdict
	SEBIRegistered bool `json:"sebi_registered"`
}

// AnnouncementResponse is the announcement verdict plus filing match.
type AnnouncementResponse struct {
	RiskVerdict
	OfficialFilingFound bool `json:"official_filing_found"`
}

// SocialResponse is the social verdict plus indicator count.
type SocialResponse struct {
	RiskVerdict
	FraudIndicatorsFound int `json:"fraud_indicators_found"`
}

// AnomalyResponse is the anomaly verdict plus the derived market signal.
type AnomalyResponse struct {
	RiskVerdict
	MarketData AnomalySignal `json:"market_data"`
}

// HistoryEntry is a trimmed record for history listings; content is
// truncated by the handler to keep responses small.
type HistoryEntry struct {
	ID        string           `json:"id"`
	Type      VerificationType `json:"type"`
	Content   string           `json:"content"`
	RiskScore int              `json:"risk_score"`
	RiskLevel RiskLevel        `json:"risk_level"`
	CreatedAt string           `json:"created_at"`
}
