// Package ledger defines the unified ledger-of-record model that every
// ingested file is normalized into, regardless of which source system
// produced it.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Format tags assigned by the ingest classifier. The ledger only ever sees
// records produced by one of the supported normalizers.
const (
	FormatPoBills      = "po_bills"
	FormatBankBatch    = "bank_batch"
	FormatHaloInvoices = "halo_invoices"
	FormatStripeCSV    = "stripe_csv"
	FormatBankGeneric  = "bank_generic"
	FormatUnknown      = "unknown"
)

// Source is the external system or file origin an entity was imported from.
// Every externally-identified entity is unique per (source_id, external_id).
type Source struct {
	ID         uuid.UUID
	Name       string
	SourceType string
	CreatedAt  time.Time
}

// ImportBatch records provenance for one ingest call. It is created before
// normalization runs so provenance survives downstream failures.
type ImportBatch struct {
	ID          uuid.UUID
	FileName    string
	ContentType string
	Checksum    string
	Format      string
	RowCount    int
	Headers     []string
	RowSample   []map[string]string
	Processed   bool
	CreatedAt   time.Time
}

// RawImportRecord stores one original row as an opaque blob. Immutable once
// written.
type RawImportRecord struct {
	ID         uuid.UUID
	BatchID    uuid.UUID
	ExternalID *string
	Checksum   string
	Payload    map[string]string
}

// Bill is a vendor purchase-order bill produced by the PO normalizer. Dates
// are canonical MM/DD/YYYY strings.
type Bill struct {
	ID          uuid.UUID
	SourceID    uuid.UUID
	Vendor      string
	RefNumber   string
	Date        string
	Terms       string
	DueDate     string
	TotalAmount decimal.Decimal
	Lines       []LineItem
}

// LineItem is one line of a Bill. LineAmount is always
// round(Quantity*UnitCost, 2).
type LineItem struct {
	ID          uuid.UUID
	BillID      uuid.UUID
	ItemName    string
	Description string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	LineAmount  decimal.Decimal
	Checksum    string
}

// Client is the MSP-domain identity representing an end customer. Resolved
// by (source, external_id) first, then case-insensitive name, else created
// with a fresh UUID.
type Client struct {
	ID         uuid.UUID
	SourceID   uuid.UUID
	ExternalID string
	Name       string
	CreatedAt  time.Time
}

// Location is a physical site belonging to a Client.
type Location struct {
	ID         uuid.UUID
	SourceID   uuid.UUID
	ClientID   uuid.UUID
	ExternalID string
	Name       string
}

// Contact is a person attached to a Client.
type Contact struct {
	ID         uuid.UUID
	SourceID   uuid.UUID
	ClientID   uuid.UUID
	ExternalID string
	Name       string
	Email      string
}

// Contract is a service agreement attached to a Client.
type Contract struct {
	ID         uuid.UUID
	SourceID   uuid.UUID
	ClientID   uuid.UUID
	ExternalID string
	Name       string
}

// CatalogItem is a sellable/purchasable item resolved per invoice or bill
// line.
type CatalogItem struct {
	ID          uuid.UUID
	SourceID    uuid.UUID
	ExternalID  string
	Name        string
	Description string
	UnitCost    decimal.Decimal
}

// Invoice is a customer invoice. Unique per (source, external_id); its lines
// are replaced wholesale on every re-import.
type Invoice struct {
	ID           uuid.UUID
	SourceID     uuid.UUID
	ExternalID   string
	Number       string
	CustomerName string
	ClientID     *uuid.UUID
	Date         string
	DueDate      string
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	Lines        []InvoiceLine
}

// InvoiceLine is one line of an Invoice.
type InvoiceLine struct {
	ID            uuid.UUID
	InvoiceID     uuid.UUID
	ItemName      string
	Description   string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	LineTotal     decimal.Decimal
	CatalogItemID *uuid.UUID
	Checksum      string
}

// BankTransaction is one settled bank movement. Debits carry negative
// amounts. ExternalID is synthesized ("<ref>-CR"/"<ref>-DR", or a checksum
// prefix) when the source row has none.
type BankTransaction struct {
	ID          uuid.UUID
	SourceID    uuid.UUID
	ExternalID  string
	Date        string
	Description string
	Amount      decimal.Decimal
	BatchNumber string
	Checksum    string
}

// LedgerTransaction is the source-agnostic projection of any financial event
// (invoice, bank_txn). Written best-effort after the primary commit; a failed
// projection never fails its parent.
type LedgerTransaction struct {
	ID           uuid.UUID
	TxnType      string
	Date         string
	Amount       decimal.Decimal
	Currency     string
	Description  string
	Counterparty string
	RawPayload   map[string]string
	EntityID     uuid.UUID
}

// InventoryItem carries the running weighted-average cost state for one item
// name. AverageUnitCost is defined as 0 when CurrentQuantity is 0.
type InventoryItem struct {
	ID                  uuid.UUID
	ItemName            string
	Description         string
	CurrentQuantity     decimal.Decimal
	TotalReceived       decimal.Decimal
	TotalCost           decimal.Decimal
	AverageUnitCost     decimal.Decimal
	LastTransactionDate string
	LastVendor          string
}

// InventoryTransaction is the immutable audit row recorded for every line
// item applied to an InventoryItem.
type InventoryTransaction struct {
	ID         uuid.UUID
	ItemName   string
	TxnType    string
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
	LineAmount decimal.Decimal
	Date       string
	Vendor     string
	BillID     uuid.UUID
}

// ReceiptTxn is the only inventory transaction type this pipeline produces.
const ReceiptTxn = "RECEIPT"

// Export records one interchange-file generation event.
type Export struct {
	ID             uuid.UUID
	Kind           string
	TransactionIDs []uuid.UUID
	TotalAmount    decimal.Decimal
	CreatedAt      time.Time
}
