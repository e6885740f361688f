package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cargolens/cargolens-cli/internal/core/domain"
	"github.com/cargolens/cargolens-cli/internal/core/ports/driven"
	"github.com/cargolens/cargolens-cli/internal/logger"
)

// Ensure MetadataService implements the interface.
var _ driven.MetadataExtractor = (*MetadataService)(nil)

// metadataSampleSize limits how much document text is sent to the model.
const metadataSampleSize = 2000

const metadataSystemPrompt = "You are a logistics document analysis assistant. " +
	"Extract structured metadata from documents."

var (
	dateRe      = regexp.MustCompile(`\b(\d{4}[-/]\d{2}[-/]\d{2})\b`)
	invoiceRe   = regexp.MustCompile(`(?i)invoice\s*#?\s*:?\s*([A-Z0-9-]+)`)
	containerRe = regexp.MustCompile(`\b([A-Z]{4}\d{7})\b`)
)

// MetadataService extracts structured logistics fields from document text.
// When an LLM is available it asks the model for a JSON object; on any
// failure, or when the LLM is disabled, it falls back to keyword and
// pattern matching. Extraction never fails outright.
type MetadataService struct {
	llm driven.LLMService
}

// NewMetadataService creates a metadata extractor.
// The llm parameter is optional (can be nil).
func NewMetadataService(llm driven.LLMService) *MetadataService {
	return &MetadataService{llm: llm}
}

// ExtractMetadata pulls structured fields from document text.
func (s *MetadataService) ExtractMetadata(
	ctx context.Context, text, filename string, useLLM bool,
) domain.Metadata {
	if useLLM {
		meta, err := s.extractWithLLM(ctx, text, filename)
		if err == nil {
			return meta
		}
		if !errors.Is(err, domain.ErrLLMUnavailable) {
			logger.Warn("LLM metadata extraction failed for %s: %v", filename, err)
		}
	}
	return extractBasicMetadata(text, filename)
}

// llmMetadata mirrors the JSON shape the model is asked to return.
type llmMetadata struct {
	CustomerName      string   `json:"customer_name"`
	DocType           string   `json:"doc_type"`
	DocDate           string   `json:"doc_date"`
	ShipmentID        string   `json:"shipment_id"`
	ContainerID       string   `json:"container_id"`
	PortOfOrigin      string   `json:"port_of_origin"`
	PortOfDestination string   `json:"port_of_destination"`
	InvoiceNumber     string   `json:"invoice_number"`
	InvoiceAmount     *float64 `json:"invoice_amount"`
}

func (s *MetadataService) extractWithLLM(
	ctx context.Context, text, filename string,
) (domain.Metadata, error) {
	if s.llm == nil {
		return domain.Metadata{}, domain.ErrLLMUnavailable
	}

	sample := text
	if len(sample) > metadataSampleSize {
		sample = sample[:metadataSampleSize]
	}

	prompt := fmt.Sprintf(`Extract structured metadata from this logistics document. Return ONLY a valid JSON object.

Document filename: %s

Document content (first %d characters):
%s

Extract and return JSON with these fields (use null if not found):
{
    "customer_name": "Company or customer name",
    "doc_type": "invoice|bill_of_lading|customs|packing_list|other",
    "doc_date": "YYYY-MM-DD format if found",
    "shipment_id": "Shipment or tracking ID",
    "container_id": "Container ID if mentioned",
    "port_of_origin": "Origin port",
    "port_of_destination": "Destination port",
    "invoice_number": "Invoice number",
    "invoice_amount": 12345.67
}

Return only the JSON object, no other text.`, filename, metadataSampleSize, sample)

	raw, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		Temperature:  0.1,
		SystemPrompt: metadataSystemPrompt,
	})
	if err != nil {
		return domain.Metadata{}, err
	}

	var parsed llmMetadata
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return domain.Metadata{}, fmt.Errorf("parse model response: %w", err)
	}

	docType := domain.DocType(parsed.DocType)
	if !docType.IsValid() {
		docType = domain.DocTypeOther
	}

	return domain.Metadata{
		CustomerName:      parsed.CustomerName,
		DocType:           docType,
		DocDate:           parsed.DocDate,
		ShipmentID:        parsed.ShipmentID,
		ContainerID:       parsed.ContainerID,
		PortOfOrigin:      parsed.PortOfOrigin,
		PortOfDestination: parsed.PortOfDestination,
		InvoiceNumber:     parsed.InvoiceNumber,
		InvoiceAmount:     parsed.InvoiceAmount,
	}, nil
}

// stripCodeFence removes a surrounding markdown code fence, which chat
// models add despite instructions not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// extractBasicMetadata is the deterministic fallback: document type from
// keywords, then simple patterns for date, invoice number and container id.
func extractBasicMetadata(text, filename string) domain.Metadata {
	meta := domain.Metadata{DocType: domain.DocTypeOther}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "invoice") || strings.Contains(strings.ToLower(filename), "invoice"):
		meta.DocType = domain.DocTypeInvoice
	case strings.Contains(lower, "bill of lading") || strings.Contains(lower, "b/l"):
		meta.DocType = domain.DocTypeBillOfLading
	case strings.Contains(lower, "customs"):
		meta.DocType = domain.DocTypeCustoms
	case strings.Contains(lower, "packing list"):
		meta.DocType = domain.DocTypePackingList
	}

	if m := dateRe.FindStringSubmatch(text); m != nil {
		meta.DocDate = strings.ReplaceAll(m[1], "/", "-")
	}
	if m := invoiceRe.FindStringSubmatch(text); m != nil {
		meta.InvoiceNumber = m[1]
	}
	if m := containerRe.FindStringSubmatch(text); m != nil {
		meta.ContainerID = m[1]
	}

	return meta
}
