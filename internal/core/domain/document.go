package domain

import "time"

// DocType classifies a logistics document.
type DocType string

// Recognised document types.
const (
	// DocTypeInvoice is a commercial invoice.
	DocTypeInvoice DocType = "invoice"

	// DocTypeBillOfLading is a bill of lading (B/L).
	DocTypeBillOfLading DocType = "bill_of_lading"

	// DocTypeCustoms is a customs declaration or clearance form.
	DocTypeCustoms DocType = "customs"

	// DocTypePackingList is a packing list.
	DocTypePackingList DocType = "packing_list"

	// DocTypeOther is any document that does not match a known type.
	DocTypeOther DocType = "other"
)

// IsValid returns true if the document type is recognised.
func (t DocType) IsValid() bool {
	switch t {
	case DocTypeInvoice, DocTypeBillOfLading, DocTypeCustoms, DocTypePackingList, DocTypeOther:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t DocType) String() string {
	return string(t)
}

// ProcessingStatus tracks a document through the ingestion pipeline.
type ProcessingStatus string

// Document lifecycle states. A document is created as StatusProcessing and
// ends in StatusCompleted or StatusFailed; terminal states are never mutated
// except by deletion.
const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// IsTerminal returns true once the document has finished processing.
func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// String returns the string representation.
func (s ProcessingStatus) String() string {
	return string(s)
}

// Metadata holds the structured fields extracted from a logistics document.
// All fields are optional; extraction fills what it can find.
type Metadata struct {
	// CustomerName is the customer or company the document belongs to.
	CustomerName string

	// DocType classifies the document.
	DocType DocType

	// DocDate is the document date in YYYY-MM-DD form.
	DocDate string

	// ShipmentID is the shipment or tracking identifier.
	ShipmentID string

	// ContainerID is the container identifier (four letters + seven digits).
	ContainerID string

	// PortOfOrigin is the origin port.
	PortOfOrigin string

	// PortOfDestination is the destination port.
	PortOfDestination string

	// InvoiceNumber is the invoice number.
	InvoiceNumber string

	// InvoiceAmount is the invoice total. Nil when not found.
	InvoiceAmount *float64
}

// Document represents one ingested source file.
type Document struct {
	// ID is the generated, opaque document identifier.
	ID string

	// Filename is the original file name.
	Filename string

	// LocalPath is where the stored copy lives on disk, if any.
	LocalPath string

	// BlobURL is the durable blob store reference, if uploaded.
	BlobURL string

	// FileSize is the source size in bytes.
	FileSize int64

	// FileHash is the SHA-256 hex digest of the source bytes.
	FileHash string

	// PageCount is the number of pages in the source document.
	PageCount int

	// Metadata holds the extracted logistics fields.
	Metadata Metadata

	// Status is the current processing state.
	Status ProcessingStatus

	// ErrorMessage explains a failed status.
	ErrorMessage string

	// CreatedAt is when ingestion started.
	CreatedAt time.Time

	// UpdatedAt is when the document last changed state.
	UpdatedAt time.Time
}

// Chunk represents one bounded substring of a document's extracted text.
// Chunks are created in a batch alongside their siblings and never updated.
type Chunk struct {
	// ID is the durable identifier assigned by the row store on insert.
	// Assignment is monotonic within the store.
	ID int64

	// DocumentID links to the owning Document.
	DocumentID string

	// Position is the zero-based ordinal within the document.
	Position int

	// Text is the raw chunk text.
	Text string

	// EmbeddingID is the chunk's position in the vector index at the time
	// it was added. Nil until the vector is indexed. Once assigned it is
	// unique across all chunks.
	EmbeddingID *int64

	// Denormalised copies of the owning document's filter fields. These
	// allow equality filtering during retrieval without a join.
	CustomerName string
	DocType      DocType
	DocDate      string
	ShipmentID   string
	BlobURL      string
}
