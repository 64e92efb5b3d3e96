package printing

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/casaops/backend/internal/application/audit"
	domainprinting "github.com/casaops/backend/internal/domain/printing"
	"github.com/casaops/backend/internal/domain/shared"
	infraprinting "github.com/casaops/backend/internal/infrastructure/printing"
)

// PrintingService orchestrates the document pipeline: a print job is queued
// for a business document, then processed by loading the document data,
// rendering the HTML template, converting to PDF and storing the artifact.
type PrintingService struct {
	jobRepo      domainprinting.PrintJobRepository
	templateRepo domainprinting.PrintTemplateRepository
	templates    *infraprinting.TemplateStore
	engine       *infraprinting.TemplateEngine
	renderer     infraprinting.PDFRenderer
	storage      infraprinting.PDFStorage
	providers    map[domainprinting.DocType]infraprinting.DataProvider
	orgProfile   infraprinting.OrgInfo
	logger       *zap.Logger
	recorder     *audit.Recorder
	publisher    shared.EventPublisher
}

// NewPrintingService creates a new PrintingService. The org profile supplies
// the letterhead fields (name, address, contact) printed on every document.
func NewPrintingService(
	jobRepo domainprinting.PrintJobRepository,
	templateRepo domainprinting.PrintTemplateRepository,
	templates *infraprinting.TemplateStore,
	engine *infraprinting.TemplateEngine,
	renderer infraprinting.PDFRenderer,
	storage infraprinting.PDFStorage,
	providers []infraprinting.DataProvider,
	orgProfile infraprinting.OrgInfo,
	logger *zap.Logger,
	recorder *audit.Recorder,
	publisher shared.EventPublisher,
) *PrintingService {
	byDocType := make(map[domainprinting.DocType]infraprinting.DataProvider, len(providers))
	for _, p := range providers {
		byDocType[p.GetDocType()] = p
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrintingService{
		jobRepo:      jobRepo,
		templateRepo: templateRepo,
		templates:    templates,
		engine:       engine,
		renderer:     renderer,
		storage:      storage,
		providers:    byDocType,
		orgProfile:   orgProfile,
		logger:       logger,
		recorder:     recorder,
		publisher:    publisher,
	}
}

// EnqueueReceipt queues a payment receipt print job
func (s *PrintingService) EnqueueReceipt(ctx context.Context, orgID uuid.UUID, actor audit.Actor, req EnqueueReceiptRequest) (*PrintJobResponse, error) {
	return s.enqueue(ctx, orgID, actor, domainprinting.DocTypePaymentReceipt, req.PaymentID, req.Copies)
}

// EnqueueStatement queues a tenant statement of account print job
func (s *PrintingService) EnqueueStatement(ctx context.Context, orgID uuid.UUID, actor audit.Actor, req EnqueueStatementRequest) (*PrintJobResponse, error) {
	return s.enqueue(ctx, orgID, actor, domainprinting.DocTypeTenantStatement, req.TenantID, req.Copies)
}

// EnqueueFinalBill queues a move-out settlement statement print job
func (s *PrintingService) EnqueueFinalBill(ctx context.Context, orgID uuid.UUID, actor audit.Actor, req EnqueueFinalBillRequest) (*PrintJobResponse, error) {
	return s.enqueue(ctx, orgID, actor, domainprinting.DocTypeFinalBillStatement, req.BillID, req.Copies)
}

func (s *PrintingService) enqueue(ctx context.Context, orgID uuid.UUID, actor audit.Actor, docType domainprinting.DocType, documentID uuid.UUID, copies int) (*PrintJobResponse, error) {
	provider, ok := s.providers[docType]
	if !ok {
		return nil, shared.NewDomainError("INVALID_DOC_TYPE", "No data provider registered for document type "+docType.String())
	}

	// Load the document now so a bad reference fails the request, not the job
	data, err := provider.GetData(ctx, orgID, documentID)
	if err != nil {
		return nil, err
	}

	template, err := s.resolveDefaultTemplate(ctx, orgID, docType)
	if err != nil {
		return nil, err
	}

	job, err := domainprinting.NewPrintJob(orgID, template.ID, docType, documentID, data.Meta.DocNo, actor.ID)
	if err != nil {
		return nil, err
	}
	if copies > 0 {
		if err := job.SetCopies(copies); err != nil {
			return nil, err
		}
	}

	if err := s.jobRepo.Save(ctx, job); err != nil {
		return nil, err
	}

	s.audit(ctx, orgID, actor, "print.enqueue", job.ID.String(), map[string]string{
		"document_type":   docType.String(),
		"document_number": job.DocumentNumber,
	})
	s.publish(ctx, job)

	return s.toResponse(job), nil
}

// ProcessJob runs the render pipeline for one pending job. A pipeline error
// marks the job failed and is returned to the caller.
func (s *PrintingService) ProcessJob(ctx context.Context, jobID uuid.UUID) error {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	if !job.IsPending() {
		return shared.NewDomainError("INVALID_STATE", "Print job is not pending")
	}

	if err := job.StartProcessing(); err != nil {
		return err
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		return err
	}
	s.publish(ctx, job)

	if err := s.render(ctx, job); err != nil {
		s.logger.Warn("print job failed",
			zap.String("job_id", job.ID.String()),
			zap.String("document_type", job.DocumentType.String()),
			zap.Error(err))
		if failErr := job.Fail(err.Error()); failErr == nil {
			_ = s.jobRepo.Save(ctx, job)
			s.publish(ctx, job)
		}
		return err
	}

	if err := s.jobRepo.Save(ctx, job); err != nil {
		return err
	}
	s.publish(ctx, job)

	s.logger.Info("print job completed",
		zap.String("job_id", job.ID.String()),
		zap.String("document_number", job.DocumentNumber))
	return nil
}

func (s *PrintingService) render(ctx context.Context, job *domainprinting.PrintJob) error {
	provider, ok := s.providers[job.DocumentType]
	if !ok {
		return shared.NewDomainError("INVALID_DOC_TYPE", "No data provider registered for document type "+job.DocumentType.String())
	}

	data, err := provider.GetData(ctx, job.OrgID, job.DocumentID)
	if err != nil {
		return err
	}
	data.Org = s.orgProfile
	data.Org.ID = job.OrgID

	template, err := s.resolveTemplate(ctx, job.OrgID, job.TemplateID, job.DocumentType)
	if err != nil {
		return err
	}

	rendered, err := s.engine.Render(ctx, &infraprinting.RenderTemplateRequest{
		Template: template,
		Data:     data,
	})
	if err != nil {
		return err
	}

	pdf, err := s.renderer.Render(ctx, &infraprinting.RenderRequest{
		HTML:        rendered.HTML,
		PaperSize:   template.PaperSize,
		Orientation: template.Orientation,
		Margins:     template.Margins,
		Title:       job.DocumentNumber,
	})
	if err != nil {
		return err
	}

	stored, err := s.storage.Store(ctx, &infraprinting.StoreRequest{
		OrgID:   job.OrgID,
		JobID:   job.ID,
		PDFData: pdf.PDFData,
	})
	if err != nil {
		return err
	}

	// The storage path is kept on the job; the public URL is derived on read
	return job.Complete(stored.Path)
}

// ProcessPending drains up to limit pending jobs
func (s *PrintingService) ProcessPending(ctx context.Context, limit int) (*ProcessPendingResult, error) {
	jobs, err := s.jobRepo.FindPending(ctx, limit)
	if err != nil {
		return nil, err
	}

	result := &ProcessPendingResult{}
	for i := range jobs {
		if err := s.ProcessJob(ctx, jobs[i].ID); err != nil {
			result.Failed++
			continue
		}
		result.Processed++
	}
	return result, nil
}

// GetJob returns a print job by ID
func (s *PrintingService) GetJob(ctx context.Context, orgID, jobID uuid.UUID) (*PrintJobResponse, error) {
	job, err := s.jobRepo.FindByIDForOrg(ctx, orgID, jobID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(job), nil
}

// ListJobs returns print jobs for an org with pagination
func (s *PrintingService) ListJobs(ctx context.Context, orgID uuid.UUID, filter PrintJobListFilter) (*PrintJobListResponse, error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  map[string]interface{}{},
	}
	if filter.DocumentType != "" {
		domainFilter.Filters["document_type"] = filter.DocumentType
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	jobs, err := s.jobRepo.FindAllForOrg(ctx, orgID, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.jobRepo.CountForOrg(ctx, orgID, domainFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]PrintJobResponse, 0, len(jobs))
	for i := range jobs {
		responses = append(responses, *s.toResponse(&jobs[i]))
	}
	return &PrintJobListResponse{
		Jobs:     responses,
		Total:    total,
		Page:     domainFilter.Page,
		PageSize: domainFilter.PageSize,
	}, nil
}

// Download streams the stored PDF for a completed job
func (s *PrintingService) Download(ctx context.Context, orgID, jobID uuid.UUID) (*DownloadResult, error) {
	job, err := s.jobRepo.FindByIDForOrg(ctx, orgID, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsCompleted() || !job.HasPDF() {
		return nil, shared.NewDomainError("INVALID_STATE", "PDF is not ready for this print job")
	}

	content, err := s.storage.Get(ctx, job.PdfURL)
	if err != nil {
		return nil, err
	}
	return &DownloadResult{
		Filename:    job.DocumentNumber + ".pdf",
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

// resolveDefaultTemplate finds the org's default template for a document
// type, falling back to the built-in static templates
func (s *PrintingService) resolveDefaultTemplate(ctx context.Context, orgID uuid.UUID, docType domainprinting.DocType) (*domainprinting.PrintTemplate, error) {
	template, err := s.templateRepo.FindDefault(ctx, orgID, docType)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if template != nil && template.CanBeUsed() {
		return template, nil
	}
	if s.templates != nil {
		if static := s.templates.GetDefault(docType); static != nil {
			return static.ToPrintTemplate(), nil
		}
	}
	return nil, shared.NewDomainError("TEMPLATE_NOT_FOUND", "No print template available for document type "+docType.String())
}

// resolveTemplate loads the template recorded on a job, checking the static
// catalog when it is not a stored org template
func (s *PrintingService) resolveTemplate(ctx context.Context, orgID, templateID uuid.UUID, docType domainprinting.DocType) (*domainprinting.PrintTemplate, error) {
	template, err := s.templateRepo.FindByIDForOrg(ctx, orgID, templateID)
	if err == nil && template != nil {
		return template, nil
	}
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if s.templates != nil {
		for _, static := range s.templates.GetByDocType(docType) {
			if static.ID == templateID.String() {
				return static.ToPrintTemplate(), nil
			}
		}
	}
	return nil, shared.NewDomainError("TEMPLATE_NOT_FOUND", "Print template no longer exists")
}

func (s *PrintingService) toResponse(job *domainprinting.PrintJob) *PrintJobResponse {
	pdfURL := ""
	if job.HasPDF() && s.storage != nil {
		pdfURL = s.storage.GetURL(job.PdfURL)
	}
	return ToPrintJobResponse(job, pdfURL)
}

func (s *PrintingService) audit(ctx context.Context, orgID uuid.UUID, actor audit.Actor, action, resourceID string, payload any) {
	if s.recorder == nil {
		return
	}
	body, _ := json.Marshal(payload)
	s.recorder.Record(ctx, orgID, actor, audit.Entry{
		Action:       action,
		ResourceType: "print_job",
		ResourceID:   resourceID,
		Payload:      body,
	})
}

func (s *PrintingService) publish(ctx context.Context, job *domainprinting.PrintJob) {
	if s.publisher == nil {
		return
	}
	events := job.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.publisher.Publish(ctx, events...)
	job.ClearDomainEvents()
}
