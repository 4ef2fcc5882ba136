package types

// BillingRunStatus is the generation lifecycle of one (building, period)
// cycle. The Open→Closing compare-and-swap is the serialization point for
// concurrent generation requests.
type BillingRunStatus string

const (
	BillingRunStatusOpen    BillingRunStatus = "open"
	BillingRunStatusClosing BillingRunStatus = "closing"
	BillingRunStatusClosed  BillingRunStatus = "closed"
)

// SkipReason records why a (apartment, fee type) pair produced no invoice
// during a generation run. Skips are expected outcomes, not failures.
type SkipReason string

const (
	SkipReasonMissingArea        SkipReason = "missing_area"
	SkipReasonMissingUnitCount   SkipReason = "missing_unit_count"
	SkipReasonMissingReading     SkipReason = "missing_reading"
	SkipReasonReadingOutOfWindow SkipReason = "reading_out_of_window"
	SkipReasonAlreadyInvoiced    SkipReason = "already_invoiced"
)

// SkippedLineItem identifies one skipped pair and the reason.
type SkippedLineItem struct {
	ApartmentID string     `json:"apartment_id"`
	FeeType     FeeType    `json:"fee_type"`
	Reason      SkipReason `json:"reason"`
}

// GenerationResult is the recorded outcome of a generation run. It is
// persisted on the billing run so a re-invocation of a closed period can
// replay it without touching invoices.
type GenerationResult struct {
	CreatedInvoiceIDs []string          `json:"created_invoice_ids"`
	Skipped           []SkippedLineItem `json:"skipped"`
}
