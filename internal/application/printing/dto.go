package printing

import (
	"io"
	"time"

	"github.com/google/uuid"

	domainprinting "github.com/casaops/backend/internal/domain/printing"
)

// EnqueueReceiptRequest queues a payment receipt for printing
type EnqueueReceiptRequest struct {
	PaymentID uuid.UUID `json:"payment_id" binding:"required"`
	Copies    int       `json:"copies" binding:"omitempty,min=1,max=100"`
}

// EnqueueStatementRequest queues a tenant statement of account for printing
type EnqueueStatementRequest struct {
	TenantID uuid.UUID `json:"tenant_id" binding:"required"`
	Copies   int       `json:"copies" binding:"omitempty,min=1,max=100"`
}

// EnqueueFinalBillRequest queues a move-out settlement statement for printing
type EnqueueFinalBillRequest struct {
	BillID uuid.UUID `json:"bill_id" binding:"required"`
	Copies int       `json:"copies" binding:"omitempty,min=1,max=100"`
}

// PrintJobListFilter filters the print job list
type PrintJobListFilter struct {
	DocumentType string `form:"document_type" binding:"omitempty,oneof=PAYMENT_RECEIPT TENANT_STATEMENT FINAL_BILL_STATEMENT"`
	Status       string `form:"status" binding:"omitempty,oneof=PENDING PROCESSING COMPLETED FAILED"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// PrintJobResponse represents a print job in API responses
type PrintJobResponse struct {
	ID             uuid.UUID  `json:"id"`
	TemplateID     uuid.UUID  `json:"template_id"`
	DocumentType   string     `json:"document_type"`
	DocumentID     uuid.UUID  `json:"document_id"`
	DocumentNumber string     `json:"document_number"`
	Status         string     `json:"status"`
	Copies         int        `json:"copies"`
	PdfURL         string     `json:"pdf_url,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	PrintedAt      *time.Time `json:"printed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ToPrintJobResponse converts a print job to a response DTO. pdfURL is the
// externally reachable URL for the stored artifact, empty until completed.
func ToPrintJobResponse(job *domainprinting.PrintJob, pdfURL string) *PrintJobResponse {
	return &PrintJobResponse{
		ID:             job.ID,
		TemplateID:     job.TemplateID,
		DocumentType:   job.DocumentType.String(),
		DocumentID:     job.DocumentID,
		DocumentNumber: job.DocumentNumber,
		Status:         job.Status.String(),
		Copies:         job.Copies,
		PdfURL:         pdfURL,
		ErrorMessage:   job.ErrorMessage,
		PrintedAt:      job.PrintedAt,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
	}
}

// PrintJobListResponse is a paginated list of print jobs
type PrintJobListResponse struct {
	Jobs     []PrintJobResponse `json:"jobs"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// ProcessPendingResult summarizes one pass over the pending job queue
type ProcessPendingResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// DownloadResult carries a stored PDF ready to stream to the client
type DownloadResult struct {
	Filename    string
	ContentType string
	Content     io.ReadCloser
}
