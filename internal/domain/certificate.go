package domain

import "encoding/json"

// Certificate is a stored certificate of analysis.
type Certificate struct {
	ID                      int64           `json:"id"`
	SaveDate                string          `json:"saveDate"`
	User                    string          `json:"user"`
	CertificateAsJSON       json.RawMessage `json:"certificateAsJson"`
	CertificateAsJSONBinary json.RawMessage `json:"certificateAsJsonBinary"`
}

// CertificateHeader is the summary row shown in certificate listings.
type CertificateHeader struct {
	ID             int64  `json:"id"`
	SaveDate       string `json:"saveDate"`
	User           string `json:"user"`
	BatchNumber    string `json:"batchNumber"`
	Site           string `json:"site"`
	MaterialNumber string `json:"materialNumber"`
	// Countries is the comma joined market list. A certificate without
	// markets yields the single blank entry "".
	Countries string `json:"countries"`
}

// InsertCertificateRequest is the body accepted when storing a certificate.
type InsertCertificateRequest struct {
	SaveDate          string          `json:"saveDate"`
	User              string          `json:"user"`
	CertificateAsJSON json.RawMessage `json:"certificateAsJson"`
}

// CertificateEvent is published after a certificate has been stored.
type CertificateEvent struct {
	Type     string `json:"type"`
	SaveDate string `json:"saveDate"`
	User     string `json:"user"`
	// CorrelationID ties the event to the request that produced it.
	CorrelationID string `json:"correlationId"`
}

const (
	EventCertificateInserted = "certificate.inserted"
	CertificateChannel       = "coa.certificates"
)
