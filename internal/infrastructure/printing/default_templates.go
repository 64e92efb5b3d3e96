package printing

import (
	"embed"
	"fmt"

	"github.com/casaops/backend/internal/domain/printing"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultTemplate represents a default print template configuration
type DefaultTemplate struct {
	DocType     printing.DocType
	Name        string
	Description string
	PaperSize   printing.PaperSize
	Orientation printing.Orientation
	Margins     printing.Margins
	FilePath    string // Path within embed.FS
	IsDefault   bool   // Whether this is the default for its doc type
}

// GetDefaultTemplates returns all default template configurations
func GetDefaultTemplates() []DefaultTemplate {
	return []DefaultTemplate{
		// =============================================================================
		// PAYMENT_RECEIPT templates
		// =============================================================================
		{
			DocType:     printing.DocTypePaymentReceipt,
			Name:        "Payment Receipt - A5",
			Description: "A5 payment receipt with allocation breakdown, amount in words and signature lines",
			PaperSize:   printing.PaperSizeA5,
			Orientation: printing.OrientationPortrait,
			Margins:     printing.DefaultMargins(),
			FilePath:    "templates/payment_receipt_a5.html",
			IsDefault:   true,
		},
		{
			DocType:     printing.DocTypePaymentReceipt,
			Name:        "Payment Receipt - 80mm",
			Description: "80mm thermal receipt for front-desk printers, compact allocation breakdown",
			PaperSize:   printing.PaperSizeReceipt80MM,
			Orientation: printing.OrientationPortrait,
			Margins:     printing.ReceiptMargins(),
			FilePath:    "templates/payment_receipt_80mm.html",
			IsDefault:   false,
		},

		// =============================================================================
		// TENANT_STATEMENT templates
		// =============================================================================
		{
			DocType:     printing.DocTypeTenantStatement,
			Name:        "Statement of Account - A4",
			Description: "A4 statement of account with chronological charges, payments and running balance",
			PaperSize:   printing.PaperSizeA4,
			Orientation: printing.OrientationPortrait,
			Margins:     printing.DefaultMargins(),
			FilePath:    "templates/tenant_statement_a4.html",
			IsDefault:   true,
		},

		// =============================================================================
		// FINAL_BILL_STATEMENT templates
		// =============================================================================
		{
			DocType:     printing.DocTypeFinalBillStatement,
			Name:        "Final Bill Settlement - A4",
			Description: "A4 move-out settlement with charge breakdown, deposit application and conformity signatures",
			PaperSize:   printing.PaperSizeA4,
			Orientation: printing.OrientationPortrait,
			Margins:     printing.DefaultMargins(),
			FilePath:    "templates/final_bill_a4.html",
			IsDefault:   true,
		},
	}
}

// LoadTemplateContent loads the HTML content for a default template
func LoadTemplateContent(filePath string) (string, error) {
	content, err := templateFS.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read template file %s: %w", filePath, err)
	}
	return string(content), nil
}

// GetDefaultTemplateByDocTypeAndPaperSize finds a default template configuration
func GetDefaultTemplateByDocTypeAndPaperSize(docType printing.DocType, paperSize printing.PaperSize) *DefaultTemplate {
	templates := GetDefaultTemplates()
	for _, t := range templates {
		if t.DocType == docType && t.PaperSize == paperSize {
			return &t
		}
	}
	return nil
}

// GetDefaultTemplateForDocType finds the default template for a document type
func GetDefaultTemplateForDocType(docType printing.DocType) *DefaultTemplate {
	templates := GetDefaultTemplates()
	for _, t := range templates {
		if t.DocType == docType && t.IsDefault {
			return &t
		}
	}
	return nil
}

// GetTemplatesByDocType returns all templates for a document type
func GetTemplatesByDocType(docType printing.DocType) []DefaultTemplate {
	templates := GetDefaultTemplates()
	var result []DefaultTemplate
	for _, t := range templates {
		if t.DocType == docType {
			result = append(result, t)
		}
	}
	return result
}
