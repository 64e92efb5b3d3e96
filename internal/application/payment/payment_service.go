package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/casaops/backend/internal/application/audit"
	"github.com/casaops/backend/internal/domain/billing"
	"github.com/casaops/backend/internal/domain/ledger"
	"github.com/casaops/backend/internal/domain/shared"
	"github.com/casaops/backend/internal/domain/shared/valueobject"
	"github.com/casaops/backend/internal/infrastructure/telemetry"
)

// PaymentNumberGenerator produces unique payment numbers for an organization
type PaymentNumberGenerator interface {
	GeneratePaymentNumber(ctx context.Context, orgID uuid.UUID) (string, error)
}

// PaymentService records payments against bills and handles reversals
type PaymentService struct {
	paymentRepo    ledger.PaymentRepository
	billRepo       ledger.BillRepository
	paymentNumbers PaymentNumberGenerator
	settlement     *ledger.SettlementService
	idempotency    shared.IdempotencyStore
	tx             shared.TransactionManager
	metrics        *telemetry.BusinessMetrics
	recorder       *audit.Recorder
	publisher      shared.EventPublisher
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo ledger.PaymentRepository,
	billRepo ledger.BillRepository,
	paymentNumbers PaymentNumberGenerator,
	idempotency shared.IdempotencyStore,
	tx shared.TransactionManager,
	metrics *telemetry.BusinessMetrics,
	recorder *audit.Recorder,
	publisher shared.EventPublisher,
) *PaymentService {
	return &PaymentService{
		paymentRepo:    paymentRepo,
		billRepo:       billRepo,
		paymentNumbers: paymentNumbers,
		settlement:     ledger.NewSettlementService(),
		idempotency:    idempotency,
		tx:             tx,
		metrics:        metrics,
		recorder:       recorder,
		publisher:      publisher,
	}
}

// inTransaction runs fn atomically when a transaction manager is wired,
// falling back to a plain call otherwise.
func (s *PaymentService) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.InTransaction(ctx, fn)
}

// Record applies a payment to a single bill. The amount is allocated across
// the bill's charge buckets in settlement priority order and cannot exceed
// the bill's outstanding balance. A repeated idempotency key returns the
// payment the first request created.
func (s *PaymentService) Record(ctx context.Context, orgID uuid.UUID, actor audit.Actor, req RecordPaymentRequest) (*PaymentResponse, error) {
	if req.IdempotencyKey != "" {
		if replay, err := s.replayForKey(ctx, orgID, req.IdempotencyKey); replay != nil || err != nil {
			return replay, err
		}
	}

	method, err := manualPaymentMethod(req.Method)
	if err != nil {
		return nil, err
	}

	bill, err := s.billRepo.FindByIDForOrg(ctx, req.BillID, orgID)
	if err != nil {
		return nil, err
	}
	if bill.IsFullyPaid() {
		return nil, shared.NewDomainError("INVALID_STATE", "Bill is already fully paid")
	}

	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	outstanding := bill.OutstandingAmount()
	if req.Amount.GreaterThan(outstanding) {
		return nil, shared.NewDomainError("OVERPAYMENT",
			fmt.Sprintf("Payment %s exceeds the bill's outstanding balance %s", req.Amount, outstanding))
	}

	allocation, err := billing.AllocatePayment(bill.OutstandingComponents(), req.Amount)
	if err != nil {
		return nil, err
	}
	if !billing.ValidatePaymentAllocation(allocation, req.Amount) {
		return nil, shared.ErrAllocationMismatch
	}

	if err := bill.ApplyPayment(allocation); err != nil {
		return nil, err
	}

	paymentNumber, err := s.paymentNumbers.GeneratePaymentNumber(ctx, orgID)
	if err != nil {
		return nil, err
	}
	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	payment, err := ledger.NewPayment(orgID, bill.ID, bill.TenantID, paymentNumber,
		valueobject.NewMoneyPHP(req.Amount), method, allocation, paymentDate, req.Reference)
	if err != nil {
		return nil, err
	}
	if req.Notes != "" {
		payment.SetNotes(req.Notes)
	}
	if req.IdempotencyKey != "" {
		payment.SetIdempotencyKey(req.IdempotencyKey)
	}
	payment.SetCreatedBy(actor.ID)

	// The bill update and the payment record land or fail together.
	err = s.inTransaction(ctx, func(ctx context.Context) error {
		if err := s.billRepo.SaveWithLock(ctx, bill); err != nil {
			return err
		}
		return s.paymentRepo.Save(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordPayment(ctx, orgID, string(method), payment.Amount)
	}
	s.audit(ctx, orgID, actor, "payment.record", payment.ID.String(), req)
	s.publish(ctx, payment, bill)

	return ToPaymentResponse(payment), nil
}

// RecordBulk applies a lump-sum payment across a tenant's outstanding bills
// oldest-first, creating one payment record per bill touched. The amount
// cannot exceed the tenant's total outstanding balance.
func (s *PaymentService) RecordBulk(ctx context.Context, orgID uuid.UUID, actor audit.Actor, req RecordBulkPaymentRequest) (*BulkPaymentResponse, error) {
	if req.IdempotencyKey != "" {
		if replay, err := s.replayForKey(ctx, orgID, req.IdempotencyKey); err != nil {
			return nil, err
		} else if replay != nil {
			return &BulkPaymentResponse{
				Payments:     []PaymentResponse{*replay},
				TotalApplied: replay.Amount,
			}, nil
		}
	}

	method, err := manualPaymentMethod(req.Method)
	if err != nil {
		return nil, err
	}

	openBills, err := s.billRepo.FindOutstandingByTenant(ctx, orgID, req.TenantID)
	if err != nil {
		return nil, err
	}
	if len(openBills) == 0 {
		return nil, shared.NewDomainError("INVALID_STATE", "Tenant has no outstanding bills")
	}

	bills := make([]*ledger.Bill, len(openBills))
	for i := range openBills {
		bills[i] = &openBills[i]
	}

	plan, err := s.settlement.PlanBulkPayment(bills, req.Amount)
	if err != nil {
		return nil, err
	}
	if plan.RemainingAmount.IsPositive() {
		return nil, shared.NewDomainError("OVERPAYMENT",
			fmt.Sprintf("Payment %s exceeds the tenant's outstanding balance %s", req.Amount, plan.TotalApplied))
	}

	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	result := &BulkPaymentResponse{
		Payments:           make([]PaymentResponse, 0, len(plan.Slices)),
		TotalApplied:       plan.TotalApplied,
		BillsFullyPaid:     plan.BillsFullyPaid,
		BillsPartiallyPaid: plan.BillsPartiallyPaid,
	}
	payments := make([]*ledger.Payment, 0, len(plan.Slices))
	touched := make([]*ledger.Bill, 0, len(plan.Slices))

	for i, slice := range plan.Slices {
		if err := slice.Bill.ApplyPayment(slice.Allocation); err != nil {
			return nil, err
		}

		paymentNumber, err := s.paymentNumbers.GeneratePaymentNumber(ctx, orgID)
		if err != nil {
			return nil, err
		}
		payment, err := ledger.NewPayment(orgID, slice.Bill.ID, req.TenantID, paymentNumber,
			valueobject.NewMoneyPHP(slice.Amount), method, slice.Allocation, paymentDate, req.Reference)
		if err != nil {
			return nil, err
		}
		if req.Notes != "" {
			payment.SetNotes(req.Notes)
		}
		// Only the first record carries the key; a replay returns it as
		// the receipt for the whole sweep.
		if i == 0 && req.IdempotencyKey != "" {
			payment.SetIdempotencyKey(req.IdempotencyKey)
		}
		payment.SetCreatedBy(actor.ID)

		payments = append(payments, payment)
		touched = append(touched, slice.Bill)
	}

	// Every touched bill and every payment record of the sweep land or
	// fail together.
	err = s.inTransaction(ctx, func(ctx context.Context) error {
		if err := s.billRepo.SaveAll(ctx, touched); err != nil {
			return err
		}
		for _, payment := range payments {
			if err := s.paymentRepo.Save(ctx, payment); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, payment := range payments {
		if s.metrics != nil {
			s.metrics.RecordPayment(ctx, orgID, string(method), payment.Amount)
		}
		result.Payments = append(result.Payments, *ToPaymentResponse(payment))
	}

	s.audit(ctx, orgID, actor, "payment.record_bulk", req.TenantID.String(), req)
	for i := range payments {
		s.publish(ctx, payments[i], touched[i])
	}

	return result, nil
}

// Reverse backs a payment out: the record is marked reversed and its
// allocation is reverted on the bill, restoring the outstanding balance.
func (s *PaymentService) Reverse(ctx context.Context, orgID, id uuid.UUID, actor audit.Actor, req ReversePaymentRequest) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByIDForOrg(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	bill, err := s.billRepo.FindByIDForOrg(ctx, payment.BillID, orgID)
	if err != nil {
		return nil, err
	}

	if err := payment.Reverse(req.Reason); err != nil {
		return nil, err
	}
	if err := bill.RevertPayment(payment.Allocation); err != nil {
		return nil, err
	}

	// The reversal mark and the restored bill balance land or fail together.
	err = s.inTransaction(ctx, func(ctx context.Context) error {
		if err := s.paymentRepo.SaveWithLock(ctx, payment); err != nil {
			return err
		}
		return s.billRepo.SaveWithLock(ctx, bill)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordPaymentReversed(ctx, orgID, string(payment.Method))
	}
	s.audit(ctx, orgID, actor, "payment.reverse", payment.ID.String(), req)
	s.publish(ctx, payment, bill)

	return ToPaymentResponse(payment), nil
}

// GetByID retrieves a payment by ID
func (s *PaymentService) GetByID(ctx context.Context, orgID, id uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByIDForOrg(ctx, id, orgID)
	if err != nil {
		return nil, err
	}
	return ToPaymentResponse(payment), nil
}

// ListByBill retrieves all payments recorded against a bill, newest first
func (s *PaymentService) ListByBill(ctx context.Context, orgID, billID uuid.UUID) ([]PaymentResponse, error) {
	payments, err := s.paymentRepo.FindByBill(ctx, orgID, billID)
	if err != nil {
		return nil, err
	}

	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = *ToPaymentResponse(&payments[i])
	}
	return responses, nil
}

// List retrieves payments for an org with filtering and pagination
func (s *PaymentService) List(ctx context.Context, orgID uuid.UUID, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	domainFilter := shared.Filter{
		Filters: make(map[string]interface{}),
		Search:  filter.Search,
	}
	if filter.BillID != nil {
		domainFilter.Filters["bill_id"] = *filter.BillID
	}
	if filter.TenantID != nil {
		domainFilter.Filters["tenant_id"] = *filter.TenantID
	}
	if filter.Method != "" {
		domainFilter.Filters["method"] = filter.Method
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.PaidFrom != nil {
		domainFilter.Filters["paid_from"] = *filter.PaidFrom
	}
	if filter.PaidTo != nil {
		domainFilter.Filters["paid_to"] = *filter.PaidTo
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		domainFilter.Page = filter.Page
		domainFilter.PageSize = filter.PageSize
	}
	if filter.SortBy != "" {
		domainFilter.OrderBy = filter.SortBy
		domainFilter.OrderDir = "asc"
		if filter.SortDesc {
			domainFilter.OrderDir = "desc"
		}
	} else {
		domainFilter.OrderBy = "payment_date"
		domainFilter.OrderDir = "desc"
	}

	payments, err := s.paymentRepo.FindAllForOrg(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.paymentRepo.Count(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = *ToPaymentResponse(&payments[i])
	}

	return responses, total, nil
}

// replayForKey answers a repeated idempotency key with the payment the
// original request created. When the key is unseen it is marked in the
// idempotency store so concurrent retries fail fast instead of racing the
// repository's unique constraints.
func (s *PaymentService) replayForKey(ctx context.Context, orgID uuid.UUID, key string) (*PaymentResponse, error) {
	existing, err := s.paymentRepo.FindByIdempotencyKey(ctx, orgID, key)
	if err == nil {
		return ToPaymentResponse(existing), nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	if s.idempotency != nil {
		fresh, err := s.idempotency.MarkProcessed(ctx,
			fmt.Sprintf("payment:%s:%s", orgID, key), shared.DefaultIdempotencyConfig().TTL)
		if err == nil && !fresh {
			return nil, shared.NewDomainError("DUPLICATE_REQUEST",
				"A payment with this idempotency key is already being processed")
		}
	}

	return nil, nil
}

// manualPaymentMethod parses a request method, refusing the settlement-only
// deposit_application method.
func manualPaymentMethod(raw string) (ledger.PaymentMethod, error) {
	method := ledger.PaymentMethod(raw)
	if !method.IsValid() {
		return "", shared.NewDomainError("INVALID_METHOD", fmt.Sprintf("Invalid payment method: %s", raw))
	}
	if method == ledger.PaymentMethodDepositApplication {
		return "", shared.NewDomainError("INVALID_METHOD",
			"The deposit_application method is reserved for move-out settlements")
	}
	return method, nil
}

func (s *PaymentService) audit(ctx context.Context, orgID uuid.UUID, actor audit.Actor, action, resourceID string, payload any) {
	if s.recorder == nil {
		return
	}
	var body []byte
	if payload != nil {
		body, _ = json.Marshal(payload)
	}
	s.recorder.Record(ctx, orgID, actor, audit.Entry{
		Action:       action,
		ResourceType: "payment",
		ResourceID:   resourceID,
		Payload:      body,
	})
}

func (s *PaymentService) publish(ctx context.Context, payment *ledger.Payment, bill *ledger.Bill) {
	if s.publisher == nil {
		return
	}
	events := append(payment.GetDomainEvents(), bill.GetDomainEvents()...)
	if len(events) == 0 {
		return
	}
	_ = s.publisher.Publish(ctx, events...)
	payment.ClearDomainEvents()
	bill.ClearDomainEvents()
}
