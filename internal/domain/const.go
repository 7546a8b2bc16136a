package domain

const (
	CorrelationIDHeader = "X-Correlation-ID"
)
