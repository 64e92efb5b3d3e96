package tenancy

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/application/audit"
	"github.com/casaops/backend/internal/domain/billing"
	"github.com/casaops/backend/internal/domain/ledger"
	"github.com/casaops/backend/internal/domain/property"
	"github.com/casaops/backend/internal/domain/shared"
	"github.com/casaops/backend/internal/domain/shared/valueobject"
	"github.com/casaops/backend/internal/domain/tenancy"
)

// BillNumberGenerator issues the next bill number for an organization
type BillNumberGenerator interface {
	GenerateBillNumber(ctx context.Context, orgID uuid.UUID) (string, error)
}

// PaymentNumberGenerator issues the next payment number for an organization
type PaymentNumberGenerator interface {
	GeneratePaymentNumber(ctx context.Context, orgID uuid.UUID) (string, error)
}

// TenantService orchestrates the tenancy lifecycle: move-in, room transfer
// and the move-out settlement that composes the final bill and applies the
// released deposits against the tenant's ledger.
type TenantService struct {
	tenantRepo     tenancy.TenantRepository
	roomRepo       property.RoomRepository
	branchRepo     property.BranchRepository
	billRepo       ledger.BillRepository
	paymentRepo    ledger.PaymentRepository
	billNumbers    BillNumberGenerator
	paymentNumbers PaymentNumberGenerator
	settlement     *ledger.SettlementService
	tx             shared.TransactionManager
	recorder       *audit.Recorder
	publisher      shared.EventPublisher
}

// NewTenantService creates a new TenantService
func NewTenantService(
	tenantRepo tenancy.TenantRepository,
	roomRepo property.RoomRepository,
	branchRepo property.BranchRepository,
	billRepo ledger.BillRepository,
	paymentRepo ledger.PaymentRepository,
	billNumbers BillNumberGenerator,
	paymentNumbers PaymentNumberGenerator,
	tx shared.TransactionManager,
	recorder *audit.Recorder,
	publisher shared.EventPublisher,
) *TenantService {
	return &TenantService{
		tenantRepo:     tenantRepo,
		roomRepo:       roomRepo,
		branchRepo:     branchRepo,
		billRepo:       billRepo,
		paymentRepo:    paymentRepo,
		billNumbers:    billNumbers,
		paymentNumbers: paymentNumbers,
		settlement:     ledger.NewSettlementService(),
		tx:             tx,
		recorder:       recorder,
		publisher:      publisher,
	}
}

// inTransaction runs fn atomically when a transaction manager is wired,
// falling back to a plain call otherwise.
func (s *TenantService) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.InTransaction(ctx, fn)
}

// MoveIn creates a tenant occupying a vacant room. The rent start date
// becomes the billing anchor for every cycle of the occupancy.
func (s *TenantService) MoveIn(ctx context.Context, orgID uuid.UUID, actor audit.Actor, req MoveInRequest) (*TenantResponse, error) {
	room, err := s.roomRepo.FindByIDForOrg(ctx, orgID, req.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.IsAvailable() {
		return nil, shared.ErrRoomUnavailable
	}

	branch, err := s.branchRepo.FindByIDForOrg(ctx, orgID, room.BranchID)
	if err != nil {
		return nil, err
	}
	if !branch.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot move a tenant into an archived branch")
	}

	rent := room.MonthlyRent
	if req.MonthlyRent != nil {
		rent = *req.MonthlyRent
	}

	tenant, err := tenancy.NewTenant(
		orgID, room.BranchID, room.ID,
		req.FirstName, req.LastName, req.RentStartDate,
		valueobject.NewMoneyPHP(rent),
		valueobject.NewMoneyPHP(req.AdvancePayment),
		valueobject.NewMoneyPHP(req.SecurityDeposit),
	)
	if err != nil {
		return nil, err
	}

	if req.Phone != "" || req.Email != "" || req.EmergencyContact != "" {
		if err := tenant.UpdateContact(req.Phone, req.Email, req.EmergencyContact); err != nil {
			return nil, err
		}
	}
	if req.Notes != "" {
		tenant.SetNotes(req.Notes)
	}
	tenant.SetCreatedBy(actor.ID)

	if err := room.Occupy(tenant.ID); err != nil {
		return nil, err
	}

	// The new tenant and the occupied room land or fail together.
	err = s.inTransaction(ctx, func(ctx context.Context) error {
		if err := s.tenantRepo.Save(ctx, tenant); err != nil {
			return err
		}
		return s.roomRepo.SaveWithLock(ctx, room)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, orgID, actor, "tenant.move_in", tenant.ID.String(), req)
	s.publish(ctx, tenant)
	s.publishRoom(ctx, room)

	return ToTenantResponse(tenant), nil
}

// GetByID retrieves a tenant by ID
func (s *TenantService) GetByID(ctx context.Context, orgID, id uuid.UUID) (*TenantResponse, error) {
	tenant, err := s.tenantRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	return ToTenantResponse(tenant), nil
}

// List retrieves tenants for an org
func (s *TenantService) List(ctx context.Context, orgID uuid.UUID, filter TenantListFilter) ([]TenantResponse, int64, error) {
	domainFilter := shared.Filter{
		Filters: make(map[string]interface{}),
		Search:  filter.Search,
	}
	if filter.BranchID != nil {
		domainFilter.Filters["branch_id"] = *filter.BranchID
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
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
		domainFilter.OrderBy = "last_name"
		domainFilter.OrderDir = "asc"
	}

	tenants, err := s.tenantRepo.FindAllForOrg(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.tenantRepo.CountForOrg(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]TenantResponse, len(tenants))
	for i := range tenants {
		responses[i] = *ToTenantResponse(&tenants[i])
	}

	return responses, total, nil
}

// Update updates a tenant's personal and contact information
func (s *TenantService) Update(ctx context.Context, orgID, id uuid.UUID, actor audit.Actor, req UpdateTenantRequest) (*TenantResponse, error) {
	tenant, err := s.tenantRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil || req.LastName != nil {
		firstName := tenant.FirstName
		if req.FirstName != nil {
			firstName = *req.FirstName
		}
		lastName := tenant.LastName
		if req.LastName != nil {
			lastName = *req.LastName
		}
		if err := tenant.UpdateName(firstName, lastName); err != nil {
			return nil, err
		}
	}

	if req.Phone != nil || req.Email != nil || req.EmergencyContact != nil {
		phone := tenant.Phone
		if req.Phone != nil {
			phone = *req.Phone
		}
		email := tenant.Email
		if req.Email != nil {
			email = *req.Email
		}
		emergency := tenant.EmergencyContact
		if req.EmergencyContact != nil {
			emergency = *req.EmergencyContact
		}
		if err := tenant.UpdateContact(phone, email, emergency); err != nil {
			return nil, err
		}
	}

	if req.Notes != nil {
		tenant.SetNotes(*req.Notes)
	}

	if err := s.tenantRepo.SaveWithLock(ctx, tenant); err != nil {
		return nil, err
	}

	s.audit(ctx, orgID, actor, "tenant.update", tenant.ID.String(), req)
	s.publish(ctx, tenant)

	return ToTenantResponse(tenant), nil
}

// SetRent changes the tenant's agreed monthly rent for future cycles
func (s *TenantService) SetRent(ctx context.Context, orgID, id uuid.UUID, actor audit.Actor, req SetRentRequest) (*TenantResponse, error) {
	tenant, err := s.tenantRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if err := tenant.SetMonthlyRent(valueobject.NewMoneyPHP(req.MonthlyRent)); err != nil {
		return nil, err
	}

	if err := s.tenantRepo.SaveWithLock(ctx, tenant); err != nil {
		return nil, err
	}

	s.audit(ctx, orgID, actor, "tenant.set_rent", tenant.ID.String(), req)
	s.publish(ctx, tenant)

	return ToTenantResponse(tenant), nil
}

// PreviewMoveOut runs the settlement arithmetic without committing anything,
// so staff can review the breakdown with the tenant first.
func (s *TenantService) PreviewMoveOut(ctx context.Context, orgID, id uuid.UUID, req MoveOutRequest) (*SettlementPreviewResponse, error) {
	tenant, err := s.tenantRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	outcome, err := s.priceSettlement(ctx, tenant, req.MoveOutDate, req.FinalCycleCharges, false)
	if err != nil {
		return nil, err
	}

	return toSettlementPreview(outcome.period, outcome.breakdown, outcome.fullyPaidCycles), nil
}

// MoveOut closes a tenancy: prices the final cycle, composes the final bill,
// sweeps the released deposit across the tenant's ledger, and vacates the
// room.
func (s *TenantService) MoveOut(ctx context.Context, orgID, id uuid.UUID, actor audit.Actor, req MoveOutRequest) (*MoveOutResponse, error) {
	tenant, err := s.tenantRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	outcome, err := s.composeSettlement(ctx, tenant, req.MoveOutDate, req.FinalCycleCharges, tenancy.MoveOutReasonVacate, false)
	if err != nil {
		return nil, err
	}
	if req.Notes != "" {
		outcome.finalBill.SetNotes(req.Notes)
	}

	room, err := s.roomRepo.FindByIDForOrg(ctx, orgID, tenant.RoomID)
	if err != nil {
		return nil, err
	}

	if err := tenant.MoveOut(req.MoveOutDate, tenancy.MoveOutReasonVacate, &outcome.finalBill.ID); err != nil {
		return nil, err
	}
	if err := room.Vacate(); err != nil {
		return nil, err
	}

	// The settlement, the closed tenancy, and the vacated room land or
	// fail together.
	err = s.inTransaction(ctx, func(ctx context.Context) error {
		if err := s.persistSettlement(ctx, outcome); err != nil {
			return err
		}
		if err := s.tenantRepo.SaveWithLock(ctx, tenant); err != nil {
			return err
		}
		return s.roomRepo.SaveWithLock(ctx, room)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, orgID, actor, "tenant.move_out", tenant.ID.String(), outcome.finalBill.Settlement)
	s.publish(ctx, tenant)
	s.publishRoom(ctx, room)
	s.publishSettlement(ctx, outcome)

	return &MoveOutResponse{
		Tenant:          *ToTenantResponse(tenant),
		FinalBillID:     outcome.finalBill.ID,
		FinalBillNumber: outcome.finalBill.BillNumber,
		Settlement:      *toSettlementPreview(outcome.period, outcome.breakdown, outcome.fullyPaidCycles),
	}, nil
}

// Transfer moves an active tenant to another vacant room. The old occupancy
// is settled with the transfer deposit policy (security deposit released
// regardless of tenure); any refund carries into the new occupancy's advance
// payment unless the request sets the new deposits explicitly.
func (s *TenantService) Transfer(ctx context.Context, orgID, id uuid.UUID, actor audit.Actor, req TransferRequest) (*TransferResponse, error) {
	tenant, err := s.tenantRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if !tenant.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot transfer a moved-out tenant")
	}

	newRoom, err := s.roomRepo.FindByIDForOrg(ctx, orgID, req.NewRoomID)
	if err != nil {
		return nil, err
	}
	if !newRoom.IsAvailable() {
		return nil, shared.ErrRoomUnavailable
	}
	newBranch, err := s.branchRepo.FindByIDForOrg(ctx, orgID, newRoom.BranchID)
	if err != nil {
		return nil, err
	}
	if !newBranch.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot move a tenant into an archived branch")
	}

	oldRoom, err := s.roomRepo.FindByIDForOrg(ctx, orgID, tenant.RoomID)
	if err != nil {
		return nil, err
	}

	outcome, err := s.composeSettlement(ctx, tenant, req.EffectiveDate, req.FinalCycleCharges, tenancy.MoveOutReasonTransfer, true)
	if err != nil {
		return nil, err
	}

	newRent := newRoom.MonthlyRent
	if req.NewMonthlyRent != nil {
		newRent = *req.NewMonthlyRent
	}
	// The settlement refund becomes the new occupancy's advance payment by
	// default; the security deposit starts empty unless re-collected.
	newAdvance := outcome.breakdown.Deposits.RefundAmount
	if req.NewAdvancePayment != nil {
		newAdvance = *req.NewAdvancePayment
	}
	newSecurity := decimal.Zero
	if req.NewSecurityDeposit != nil {
		newSecurity = *req.NewSecurityDeposit
	}

	if err := tenant.Transfer(
		newRoom.BranchID, newRoom.ID, req.EffectiveDate,
		valueobject.NewMoneyPHP(newRent),
		valueobject.NewMoneyPHP(newAdvance),
		valueobject.NewMoneyPHP(newSecurity),
	); err != nil {
		return nil, err
	}
	if err := oldRoom.Vacate(); err != nil {
		return nil, err
	}
	if err := newRoom.Occupy(tenant.ID); err != nil {
		return nil, err
	}

	// The settlement, the re-anchored tenancy, and both room transitions
	// land or fail together.
	err = s.inTransaction(ctx, func(ctx context.Context) error {
		if err := s.persistSettlement(ctx, outcome); err != nil {
			return err
		}
		if err := s.tenantRepo.SaveWithLock(ctx, tenant); err != nil {
			return err
		}
		if err := s.roomRepo.SaveWithLock(ctx, oldRoom); err != nil {
			return err
		}
		return s.roomRepo.SaveWithLock(ctx, newRoom)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, orgID, actor, "tenant.transfer", tenant.ID.String(), outcome.finalBill.Settlement)
	s.publish(ctx, tenant)
	s.publishRoom(ctx, oldRoom)
	s.publishRoom(ctx, newRoom)
	s.publishSettlement(ctx, outcome)

	return &TransferResponse{
		Tenant:          *ToTenantResponse(tenant),
		FinalBillID:     outcome.finalBill.ID,
		FinalBillNumber: outcome.finalBill.BillNumber,
		Settlement:      *toSettlementPreview(outcome.period, outcome.breakdown, outcome.fullyPaidCycles),
	}, nil
}

// settlementOutcome is everything a committed settlement produced: the final
// bill, the open bills the deposit sweep touched, and the deposit-application
// payment records.
type settlementOutcome struct {
	period          billing.BillingPeriod
	breakdown       billing.FinalBillBreakdown
	fullyPaidCycles int
	finalBill       *ledger.Bill
	openBills       []*ledger.Bill
	sweptBills      []*ledger.Bill
	payments        []*ledger.Payment
}

// priceSettlement gathers the settlement inputs and runs the arithmetic
// without creating or mutating anything.
func (s *TenantService) priceSettlement(ctx context.Context, tenant *tenancy.Tenant, moveOutDate time.Time, charges FinalCycleCharges, isTransfer bool) (*settlementOutcome, error) {
	if !tenant.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Tenant has already moved out")
	}
	if moveOutDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_MOVE_OUT_DATE", "Move-out date is required")
	}
	if moveOutDate.Before(tenant.RentStartDate) {
		return nil, shared.NewDomainError("INVALID_MOVE_OUT_DATE", "Move-out date cannot be before the rent start date")
	}

	period := billing.CurrentBillingCycle(tenant.RentStartDate, moveOutDate)

	openBillRows, err := s.billRepo.FindOutstandingByTenant(ctx, tenant.OrgID, tenant.ID)
	if err != nil {
		return nil, err
	}
	openBills := make([]*ledger.Bill, len(openBillRows))
	for i := range openBillRows {
		openBills[i] = &openBillRows[i]
	}

	// If the final cycle was already billed as a regular cycle, that bill
	// carries the rent and flows in through the outstanding balance; charging
	// prorated rent again would double-bill the tenant.
	monthlyRent := tenant.MonthlyRent
	cycleBilled, err := s.billRepo.ExistsByTenantAndCycle(ctx, tenant.OrgID, tenant.ID, period.CycleNumber)
	if err != nil {
		return nil, err
	}
	if cycleBilled {
		monthlyRent = decimal.Zero
	}

	fullyPaidCycles, err := s.billRepo.CountFullyPaidCycles(ctx, tenant.OrgID, tenant.ID)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.settlement.Calculate(ledger.SettlementRequest{
		MonthlyRent: monthlyRent,
		Period:      period,
		MoveOutDate: moveOutDate,
		Charges: ledger.SettlementCharges{
			Electricity:   charges.ElectricityCharge,
			Water:         charges.WaterCharge,
			ExtraFees:     charges.ExtraFees,
			ExtraFeeLabel: charges.ExtraFeeLabel,
		},
		OpenBills:       openBills,
		AdvancePayment:  tenant.AdvancePayment,
		SecurityDeposit: tenant.SecurityDeposit,
		FullyPaidCycles: fullyPaidCycles,
		IsRoomTransfer:  isTransfer,
	})
	if err != nil {
		return nil, err
	}

	return &settlementOutcome{
		period:          period,
		breakdown:       breakdown,
		fullyPaidCycles: fullyPaidCycles,
		openBills:       openBills,
	}, nil
}

// composeSettlement prices the settlement, composes the final bill, and
// plans and applies the deposit sweep across the tenant's ledger. Nothing is
// persisted; the caller commits via persistSettlement.
func (s *TenantService) composeSettlement(ctx context.Context, tenant *tenancy.Tenant, moveOutDate time.Time, charges FinalCycleCharges, reason tenancy.MoveOutReason, isTransfer bool) (*settlementOutcome, error) {
	outcome, err := s.priceSettlement(ctx, tenant, moveOutDate, charges, isTransfer)
	if err != nil {
		return nil, err
	}

	input := billing.FinalBillInput{
		MonthlyRent:       tenant.MonthlyRent,
		PeriodStart:       outcome.period.Start,
		PeriodEnd:         outcome.period.End,
		MoveOutDate:       moveOutDate,
		ElectricityCharge: charges.ElectricityCharge,
		WaterCharge:       charges.WaterCharge,
		ExtraFees:         charges.ExtraFees,
		OutstandingBills:  outcome.breakdown.OutstandingBills,
		AdvancePayment:    tenant.AdvancePayment,
		SecurityDeposit:   tenant.SecurityDeposit,
		FullyPaidCycles:   outcome.fullyPaidCycles,
		IsRoomTransfer:    isTransfer,
	}
	snapshot := ledger.NewSettlementSnapshot(input, outcome.breakdown, string(reason))

	billNumber, err := s.billNumbers.GenerateBillNumber(ctx, tenant.OrgID)
	if err != nil {
		return nil, err
	}
	finalBill, err := ledger.NewFinalBill(
		tenant.OrgID, tenant.ID, tenant.RoomID, tenant.BranchID,
		billNumber, outcome.period, billing.CalculateDueDate(outcome.period.End), snapshot,
	)
	if err != nil {
		return nil, err
	}
	outcome.finalBill = finalBill

	available := outcome.breakdown.Deposits.AvailableAmount
	if !available.IsPositive() {
		return outcome, nil
	}

	plan, err := s.settlement.PlanDepositApplication(outcome.openBills, finalBill, available)
	if err != nil {
		return nil, err
	}
	for _, slice := range plan.Slices {
		if err := slice.Bill.ApplyPayment(slice.Allocation); err != nil {
			return nil, err
		}
		paymentNumber, err := s.paymentNumbers.GeneratePaymentNumber(ctx, tenant.OrgID)
		if err != nil {
			return nil, err
		}
		payment, err := ledger.NewPayment(
			tenant.OrgID, slice.Bill.ID, tenant.ID, paymentNumber,
			valueobject.NewMoneyPHP(slice.Amount), ledger.PaymentMethodDepositApplication,
			slice.Allocation, moveOutDate, "",
		)
		if err != nil {
			return nil, err
		}
		outcome.payments = append(outcome.payments, payment)
		if slice.Bill.ID != finalBill.ID {
			outcome.sweptBills = append(outcome.sweptBills, slice.Bill)
		}
	}

	return outcome, nil
}

// persistSettlement saves the final bill, the swept open bills, and the
// deposit-application payments.
func (s *TenantService) persistSettlement(ctx context.Context, outcome *settlementOutcome) error {
	bills := make([]*ledger.Bill, 0, len(outcome.sweptBills)+1)
	bills = append(bills, outcome.finalBill)
	bills = append(bills, outcome.sweptBills...)
	if err := s.billRepo.SaveAll(ctx, bills); err != nil {
		return err
	}
	for _, payment := range outcome.payments {
		if err := s.paymentRepo.Save(ctx, payment); err != nil {
			return err
		}
	}
	return nil
}

func (s *TenantService) audit(ctx context.Context, orgID uuid.UUID, actor audit.Actor, action, resourceID string, payload any) {
	if s.recorder == nil {
		return
	}
	var body []byte
	if payload != nil {
		body, _ = json.Marshal(payload)
	}
	s.recorder.Record(ctx, orgID, actor, audit.Entry{
		Action:       action,
		ResourceType: "tenant",
		ResourceID:   resourceID,
		Payload:      body,
	})
}

func (s *TenantService) publish(ctx context.Context, tenant *tenancy.Tenant) {
	if s.publisher == nil {
		return
	}
	events := tenant.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.publisher.Publish(ctx, events...)
	tenant.ClearDomainEvents()
}

func (s *TenantService) publishRoom(ctx context.Context, room *property.Room) {
	if s.publisher == nil {
		return
	}
	events := room.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.publisher.Publish(ctx, events...)
	room.ClearDomainEvents()
}

func (s *TenantService) publishSettlement(ctx context.Context, outcome *settlementOutcome) {
	if s.publisher == nil {
		return
	}
	events := outcome.finalBill.GetDomainEvents()
	outcome.finalBill.ClearDomainEvents()
	for _, bill := range outcome.sweptBills {
		events = append(events, bill.GetDomainEvents()...)
		bill.ClearDomainEvents()
	}
	for _, payment := range outcome.payments {
		events = append(events, payment.GetDomainEvents()...)
		payment.ClearDomainEvents()
	}
	if len(events) == 0 {
		return
	}
	_ = s.publisher.Publish(ctx, events...)
}
