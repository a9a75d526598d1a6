// Package contract defines the contract domain model and the clause segmenter.
package contract

import "time"

// Status tracks a contract through its processing lifecycle.
type Status string

const (
	StatusPending          Status = "PENDING"
	StatusUploading        Status = "UPLOADING"
	StatusAnalyzing        Status = "ANALYZING"
	StatusReviewed         Status = "REVIEWED"
	StatusNeedsNegotiation Status = "NEEDS_NEGOTIATION"
	StatusNegotiating      Status = "NEGOTIATING"
	StatusApproved         Status = "APPROVED"
	StatusRejected         Status = "REJECTED"
	StatusError            Status = "ERROR"
)

// ClauseType categorizes a contract section.
type ClauseType string

const (
	ClauseLiability         ClauseType = "LIABILITY"
	ClauseIP                ClauseType = "IP"
	ClausePayment           ClauseType = "PAYMENT"
	ClauseTermination       ClauseType = "TERMINATION"
	ClauseConfidentiality   ClauseType = "CONFIDENTIALITY"
	ClauseDataProtection    ClauseType = "DATA_PROTECTION"
	ClauseDisputeResolution ClauseType = "DISPUTE_RESOLUTION"
	ClauseWarranty          ClauseType = "WARRANTY"
	ClauseIndemnification   ClauseType = "INDEMNIFICATION"
	ClauseOther             ClauseType = "OTHER"
)

// RiskLevel is the categorical severity derived from a numeric risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
	RiskUnknown  RiskLevel = "UNKNOWN"
)

// Clause is a single extracted contract clause. The segmenter creates
// clauses; the risk scorer fills in score, level, and concerns.
type Clause struct {
	ID              string     `dynamodbav:"clauseId" json:"clause_id"`
	Type            ClauseType `dynamodbav:"type" json:"type"`
	Text            string     `dynamodbav:"text" json:"text"`
	FullText        string     `dynamodbav:"fullText" json:"full_text"`
	Section         int        `dynamodbav:"section" json:"section_number"`
	RiskScore       float64    `dynamodbav:"riskScore,omitempty" json:"risk_score,omitempty"`
	RiskLevel       RiskLevel  `dynamodbav:"riskLevel,omitempty" json:"risk_level,omitempty"`
	Concerns        []string   `dynamodbav:"concerns,omitempty" json:"concerns,omitempty"`
	Impact          string     `dynamodbav:"impact,omitempty" json:"impact,omitempty"`
	Recommendations []string   `dynamodbav:"recommendations,omitempty" json:"recommendations,omitempty"`
}

// UserContext carries the business context used when scoring clauses.
type UserContext struct {
	Industry      string `dynamodbav:"industry" json:"industry"`
	CompanySize   string `dynamodbav:"companySize" json:"company_size"`
	RiskTolerance string `dynamodbav:"riskTolerance" json:"risk_tolerance"`
	Jurisdiction  string `dynamodbav:"jurisdiction,omitempty" json:"jurisdiction,omitempty"`
}

// DefaultUserContext returns the context assumed when a user supplies none.
func DefaultUserContext() UserContext {
	return UserContext{Industry: "General", CompanySize: "Small", RiskTolerance: "Moderate"}
}

// ParseResult is the structured output of segmenting a contract document.
type ParseResult struct {
	ContractType   string   `dynamodbav:"contractType" json:"contract_type"`
	Parties        []string `dynamodbav:"parties" json:"parties"`
	EffectiveDate  string   `dynamodbav:"effectiveDate" json:"effective_date"`
	TermLength     string   `dynamodbav:"termLength" json:"term_length"`
	Clauses        []Clause `dynamodbav:"clauses" json:"key_clauses"`
	WordCount      int      `dynamodbav:"wordCount" json:"word_count"`
	EstimatedPages int      `dynamodbav:"estimatedPages" json:"estimated_pages"`
}

// RiskReport aggregates per-clause risk into a contract-level view.
// Reports are append-only history: re-analysis creates a new report.
type RiskReport struct {
	ContractID    string    `dynamodbav:"contractId" json:"contract_id"`
	OverallScore  float64   `dynamodbav:"overallScore" json:"overall_risk_score"`
	OverallLevel  RiskLevel `dynamodbav:"overallLevel" json:"risk_level"`
	HighRisk      []Clause  `dynamodbav:"highRisk" json:"high_risk_clauses"`
	MediumRisk    []Clause  `dynamodbav:"mediumRisk" json:"medium_risk_clauses"`
	LowRisk       []Clause  `dynamodbav:"lowRisk" json:"low_risk_clauses"`
	Summary       string    `dynamodbav:"summary" json:"summary"`
	AnalyzedAt    time.Time `dynamodbav:"analyzedAt" json:"analyzed_at"`
	ReportVersion int       `dynamodbav:"reportVersion" json:"report_version"`
}

// Clauses returns every clause in the report, high to low.
func (r *RiskReport) Clauses() []Clause {
	out := make([]Clause, 0, len(r.HighRisk)+len(r.MediumRisk)+len(r.LowRisk))
	out = append(out, r.HighRisk...)
	out = append(out, r.MediumRisk...)
	out = append(out, r.LowRisk...)
	return out
}

// Contract is the top-level entity owned by a user.
type Contract struct {
	ID          string `dynamodbav:"contractId" json:"contract_id"`
	UserID      string `dynamodbav:"userId" json:"user_id"`
	Title       string `dynamodbav:"title,omitempty" json:"title,omitempty"`
	S3Bucket    string `dynamodbav:"s3Bucket" json:"s3_bucket"`
	S3Key       string `dynamodbav:"s3Key" json:"s3_key"`
	ContentType string `dynamodbav:"contentType,omitempty" json:"content_type,omitempty"`
	Status      Status `dynamodbav:"status" json:"status"`
	StatusMsg   string `dynamodbav:"statusMsg,omitempty" json:"status_message,omitempty"`

	Parsed      *ParseResult `dynamodbav:"parsed,omitempty" json:"parsed_data,omitempty"`
	RiskReport  *RiskReport  `dynamodbav:"riskReport,omitempty" json:"risk_analysis,omitempty"`
	UserContext UserContext  `dynamodbav:"userContext" json:"user_context"`

	NegotiationSessionID string `dynamodbav:"negotiationSessionId,omitempty" json:"negotiation_session_id,omitempty"`

	CreatedAt time.Time `dynamodbav:"createdAt" json:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updatedAt" json:"updated_at"`
}
