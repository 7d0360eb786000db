package models

import (
	"time"
)

// Analyst is a registered user who owns audit projects.
type Analyst struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Project groups the datasets and audits of one fairness investigation.
type Project struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Dataset describes an uploaded CSV table.
type Dataset struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Hash      string    `json:"hash"`
	RowCount  int       `json:"row_count"`
	CreatedAt time.Time `json:"created_at"`
}

// RuleLiteral is one attribute constraint of a maximizing rule, rendered for
// display.
type RuleLiteral struct {
	Attribute string `json:"attribute"`
	Predicate string `json:"predicate"`
}

// AuditReport is the result of one MSD detection run.
type AuditReport struct {
	ID        string        `json:"id"`
	ProjectID string        `json:"project_id"`
	DatasetID string        `json:"dataset_id"`
	Mode      string        `json:"mode"` // "within" or "two-sample"
	Target    string        `json:"target,omitempty"`
	MSDValue  float64       `json:"msd_value"`
	Rule      []RuleLiteral `json:"rule"`
	RuleText  string        `json:"rule_text"`
	Status    string        `json:"status"` // "optimal" or "feasible"
	CreatedAt time.Time     `json:"created_at"`
}

// SimilarAudit pairs a past audit with its bias-profile similarity to a
// reference audit.
type SimilarAudit struct {
	Audit      AuditReport `json:"audit"`
	Similarity float64     `json:"similarity"`
}

// MapPoint places one audit on the 2-D bias-profile map.
type MapPoint struct {
	AuditID  string  `json:"audit_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	MSDValue float64 `json:"msd_value"`
	RuleText string  `json:"rule_text"`
}
