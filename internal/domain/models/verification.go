package models

import "time"

// VerificationType identifies which verification flow produced a record.
type VerificationType string

const (
	VerificationAdvisor      VerificationType = "advisor"
	VerificationAnnouncement VerificationType = "announcement"
	VerificationSocial       VerificationType = "social"
	VerificationAnomaly      VerificationType = "anomaly"
)

// RiskLevel is a step function of the final numeric score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// LevelForScore maps a risk score onto its tier. The thresholds are shared
// by every component that classifies a score; boundary semantics are exact:
// 61 is High, 60 is Medium, 31 is Medium, 30 is Low.
func LevelForScore(score int) RiskLevel {
	switch {
	case score > 60:
		return RiskHigh
	case score > 30:
		return RiskMedium
	default:
		return RiskLow
	}
}

// CredibilitySource tags which path produced a CredibilityResult.
type CredibilitySource string

const (
	// SourceJudge: the external judge responded and its score parsed.
	SourceJudge CredibilitySource = "judge"
	// SourceJudgeUnparsed: the judge responded but the score line did not
	// parse; the numeric score came from the lexical scorer.
	SourceJudgeUnparsed CredibilitySource = "judge_unparsed"
	// SourceFallback: the whole call failed; score, level and explanation
	// all came from the lexical fallback.
	SourceFallback CredibilitySource = "fallback"
)

// CredibilityResult is the outcome of a credibility assessment. It is always
// valid: callers never see an error, only a (possibly degraded) result.
type CredibilityResult struct {
	RiskScore   int               `json:"risk_score"` // clamped to [5,95]
	RiskLevel   RiskLevel         `json:"risk_level"`
	Explanation string            `json:"explanation"`
	Source      CredibilitySource `json:"source"`
}

// Degraded reports whether the lexical fallback replaced the judge entirely.
func (r CredibilityResult) Degraded() bool { return r.Source == SourceFallback }

// RiskVerdict is the fused output of a verification request.
type RiskVerdict struct {
	FinalScore             int       `json:"risk_score"` // always in [0,95]
	RiskLevel              RiskLevel `json:"risk_level"`
	Reasons                []string  `json:"reasons"`
	CredibilityExplanation string    `json:"credibility_explanation"`
}

// VerificationRecord is the audit artifact persisted once per request.
// Append-only: the core never mutates or deletes rows.
type VerificationRecord struct {
	ID                     string           `json:"id" gorm:"primaryKey;type:uuid"`
	Type                   VerificationType `json:"type" gorm:"column:type;index"`
	Content                string           `json:"content"`
	FinalScore             int              `json:"risk_score" gorm:"column:risk_score"`
	RiskLevel              RiskLevel        `json:"risk_level"`
	Reasons                string           `json:"reasons"` // joined with "; "
	CredibilityExplanation string           `json:"credibility_explanation"`
	CreatedAt              time.Time        `json:"created_at" gorm:"autoCreateTime"`
}

// TableName maps the record onto the legacy history table.
func (VerificationRecord) TableName() string { return "history" }

// Intermediary is one row of the SEBI registry mirror.
type Intermediary struct {
	ID                 uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name               string    `json:"name" gorm:"index"`
	Email              string    `json:"email"`
	RegistrationNumber string    `json:"registration_number"`
	Category           string    `json:"category"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Intermediary) TableName() string { return "intermediaries" }

// Filing is an official corporate announcement mirrored from an exchange.
type Filing struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CompanyName string    `json:"company_name"`
	Ticker      string    `json:"ticker" gorm:"index"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	FilingDate  time.Time `json:"filing_date"`
	Source      string    `json:"source"` // "NSE" | "BSE"
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Filing) TableName() string { return "announcements" }
