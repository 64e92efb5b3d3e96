package billing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/application/audit"
	domainbilling "github.com/casaops/backend/internal/domain/billing"
	"github.com/casaops/backend/internal/domain/ledger"
	"github.com/casaops/backend/internal/domain/property"
	"github.com/casaops/backend/internal/domain/settings"
	"github.com/casaops/backend/internal/domain/shared"
	"github.com/casaops/backend/internal/domain/shared/valueobject"
	"github.com/casaops/backend/internal/domain/tenancy"
	"github.com/casaops/backend/internal/infrastructure/telemetry"
)

// BillNumberGenerator produces unique bill numbers for an organization
type BillNumberGenerator interface {
	GenerateBillNumber(ctx context.Context, orgID uuid.UUID) (string, error)
}

// schedulerActor is recorded on audit entries for runs triggered by the
// background scheduler rather than a staff member.
var schedulerActor = audit.Actor{Name: "scheduler", Role: "system"}

// BillingService generates cycle bills and runs the overdue penalty sweep
type BillingService struct {
	billRepo     ledger.BillRepository
	tenantRepo   tenancy.TenantRepository
	branchRepo   property.BranchRepository
	settingsRepo settings.SettingsRepository
	billNumbers  BillNumberGenerator
	metrics      *telemetry.BusinessMetrics
	recorder     *audit.Recorder
	publisher    shared.EventPublisher
}

// NewBillingService creates a new BillingService
func NewBillingService(
	billRepo ledger.BillRepository,
	tenantRepo tenancy.TenantRepository,
	branchRepo property.BranchRepository,
	settingsRepo settings.SettingsRepository,
	billNumbers BillNumberGenerator,
	metrics *telemetry.BusinessMetrics,
	recorder *audit.Recorder,
	publisher shared.EventPublisher,
) *BillingService {
	return &BillingService{
		billRepo:     billRepo,
		tenantRepo:   tenantRepo,
		branchRepo:   branchRepo,
		settingsRepo: settingsRepo,
		billNumbers:  billNumbers,
		metrics:      metrics,
		recorder:     recorder,
		publisher:    publisher,
	}
}

// Generate creates the cycle bill for a tenant. Rent comes from the tenant's
// agreed monthly rent; electricity can be a direct amount or metered usage
// priced at the branch's effective rate; water falls back to the branch's
// flat rate when not supplied.
func (s *BillingService) Generate(ctx context.Context, orgID uuid.UUID, actor audit.Actor, req GenerateBillRequest) (*BillResponse, error) {
	tenant, err := s.tenantRepo.FindByIDForOrg(ctx, orgID, req.TenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot generate a bill for a moved-out tenant")
	}

	var period domainbilling.BillingPeriod
	if req.CycleNumber != nil {
		period, err = domainbilling.CalculateBillingPeriod(tenant.RentStartDate, *req.CycleNumber)
		if err != nil {
			return nil, err
		}
	} else {
		period = domainbilling.CurrentBillingCycle(tenant.RentStartDate, time.Now())
	}

	exists, err := s.billRepo.ExistsByTenantAndCycle(ctx, orgID, tenant.ID, period.CycleNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A bill for this billing cycle already exists")
	}

	snap, err := s.orgSettings(ctx, orgID)
	if err != nil {
		return nil, err
	}
	branch, err := s.branchRepo.FindByIDForOrg(ctx, orgID, tenant.BranchID)
	if err != nil {
		return nil, err
	}

	electricity, err := resolveElectricity(req, branch.EffectiveElectricityRate(snap.ElectricityRate))
	if err != nil {
		return nil, err
	}
	water := branch.EffectiveWaterRate(snap.WaterRate)
	if req.WaterAmount != nil {
		water = *req.WaterAmount
	}
	extraFee := decimal.Zero
	if req.ExtraFeeAmount != nil {
		extraFee = *req.ExtraFeeAmount
	}

	billNumber, err := s.billNumbers.GenerateBillNumber(ctx, orgID)
	if err != nil {
		return nil, err
	}

	bill, err := ledger.NewBill(
		orgID, tenant.ID, tenant.RoomID, tenant.BranchID,
		billNumber, period, domainbilling.CalculateDueDate(period.End),
		valueobject.NewMoneyPHP(tenant.MonthlyRent),
		valueobject.NewMoneyPHP(electricity),
		valueobject.NewMoneyPHP(water),
		valueobject.NewMoneyPHP(extraFee),
		req.ExtraFeeLabel,
	)
	if err != nil {
		return nil, err
	}
	if req.Notes != "" {
		bill.SetNotes(req.Notes)
	}
	bill.SetCreatedBy(actor.ID)

	if err := s.billRepo.Save(ctx, bill); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordBillWithAmount(ctx, orgID, telemetry.BillKindCycle, bill.TotalAmount)
	}
	s.audit(ctx, orgID, actor, "bill.generate", bill.ID.String(), req)
	s.publish(ctx, bill)

	return ToBillResponse(bill), nil
}

// GenerateDueBills creates the current cycle's bill for every active tenant
// that does not have one yet. Electricity is left at zero because usage is
// metered and entered by staff; water uses the branch's flat rate. One
// tenant failing does not stop the sweep.
func (s *BillingService) GenerateDueBills(ctx context.Context, orgID uuid.UUID, asOf time.Time) (*GenerateDueBillsResult, error) {
	tenants, err := s.tenantRepo.FindActiveForOrg(ctx, orgID, shared.Filter{})
	if err != nil {
		return nil, err
	}

	snap, err := s.orgSettings(ctx, orgID)
	if err != nil {
		return nil, err
	}

	result := &GenerateDueBillsResult{}
	branches := make(map[uuid.UUID]*property.Branch)

	for i := range tenants {
		tenant := &tenants[i]
		period := domainbilling.CurrentBillingCycle(tenant.RentStartDate, asOf)

		exists, err := s.billRepo.ExistsByTenantAndCycle(ctx, orgID, tenant.ID, period.CycleNumber)
		if err != nil {
			result.Failed++
			continue
		}
		if exists {
			result.Skipped++
			continue
		}

		branch, ok := branches[tenant.BranchID]
		if !ok {
			branch, err = s.branchRepo.FindByIDForOrg(ctx, orgID, tenant.BranchID)
			if err != nil {
				result.Failed++
				continue
			}
			branches[tenant.BranchID] = branch
		}

		billNumber, err := s.billNumbers.GenerateBillNumber(ctx, orgID)
		if err != nil {
			result.Failed++
			continue
		}

		bill, err := ledger.NewBill(
			orgID, tenant.ID, tenant.RoomID, tenant.BranchID,
			billNumber, period, domainbilling.CalculateDueDate(period.End),
			valueobject.NewMoneyPHP(tenant.MonthlyRent),
			valueobject.NewMoneyPHP(decimal.Zero),
			valueobject.NewMoneyPHP(branch.EffectiveWaterRate(snap.WaterRate)),
			valueobject.NewMoneyPHP(decimal.Zero),
			"",
		)
		if err != nil {
			result.Failed++
			continue
		}

		if err := s.billRepo.Save(ctx, bill); err != nil {
			result.Failed++
			continue
		}

		if s.metrics != nil {
			s.metrics.RecordBillWithAmount(ctx, orgID, telemetry.BillKindCycle, bill.TotalAmount)
		}
		s.publish(ctx, bill)
		result.Generated++
	}

	s.audit(ctx, orgID, schedulerActor, "bill.generate_due", "", result)

	return result, nil
}

// ApplyPenalties finds overdue unpenalized bills across all organizations
// and applies each org's configured penalty percentage. Runs as part of the
// nightly billing job; limit caps one sweep's batch size, zero means no cap.
func (s *BillingService) ApplyPenalties(ctx context.Context, asOf time.Time, limit int) (*ApplyPenaltiesResult, error) {
	bills, err := s.billRepo.FindOverdueUnpenalized(ctx, asOf, limit)
	if err != nil {
		return nil, err
	}

	result := &ApplyPenaltiesResult{Scanned: len(bills), TotalPenalty: decimal.Zero}
	snapshots := make(map[uuid.UUID]settings.Snapshot)

	for i := range bills {
		bill := &bills[i]
		if !bill.IsOverdue(asOf) {
			continue
		}

		snap, ok := snapshots[bill.OrgID]
		if !ok {
			snap, err = s.orgSettings(ctx, bill.OrgID)
			if err != nil {
				result.Failed++
				continue
			}
			snapshots[bill.OrgID] = snap
		}

		penalty, err := domainbilling.CalculatePenalty(bill.OutstandingAmount(), asOf, bill.DueDate, snap.PenaltyPercent)
		if err != nil || !penalty.IsPositive() {
			continue
		}

		if err := bill.ApplyPenalty(valueobject.NewMoneyPHP(penalty)); err != nil {
			result.Failed++
			continue
		}
		if err := s.billRepo.SaveWithLock(ctx, bill); err != nil {
			result.Failed++
			continue
		}

		if s.metrics != nil {
			s.metrics.RecordPenaltyApplied(ctx, bill.OrgID, penalty)
		}
		s.audit(ctx, bill.OrgID, schedulerActor, "bill.apply_penalty", bill.ID.String(), map[string]string{
			"bill_number": bill.BillNumber,
			"penalty":     penalty.String(),
		})
		s.publish(ctx, bill)

		result.Applied++
		result.TotalPenalty = result.TotalPenalty.Add(penalty)
	}

	return result, nil
}

// GetByID retrieves a bill by ID
func (s *BillingService) GetByID(ctx context.Context, orgID, id uuid.UUID) (*BillResponse, error) {
	bill, err := s.billRepo.FindByIDForOrg(ctx, id, orgID)
	if err != nil {
		return nil, err
	}
	return ToBillResponse(bill), nil
}

// GetByNumber retrieves a bill by its bill number
func (s *BillingService) GetByNumber(ctx context.Context, orgID uuid.UUID, billNumber string) (*BillResponse, error) {
	bill, err := s.billRepo.FindByNumber(ctx, orgID, billNumber)
	if err != nil {
		return nil, err
	}
	return ToBillResponse(bill), nil
}

// List retrieves bills for an org with filtering and pagination
func (s *BillingService) List(ctx context.Context, orgID uuid.UUID, filter BillListFilter) ([]BillResponse, int64, error) {
	domainFilter := shared.Filter{
		Filters: make(map[string]interface{}),
		Search:  filter.Search,
	}
	if filter.TenantID != nil {
		domainFilter.Filters["tenant_id"] = *filter.TenantID
	}
	if filter.BranchID != nil {
		domainFilter.Filters["branch_id"] = *filter.BranchID
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Overdue {
		domainFilter.Filters["due_to"] = time.Now()
		domainFilter.Filters["statuses"] = []string{
			string(ledger.BillStatusActive), string(ledger.BillStatusPartiallyPaid),
		}
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
		domainFilter.OrderBy = "due_date"
		domainFilter.OrderDir = "desc"
	}

	bills, err := s.billRepo.FindAllForOrg(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.billRepo.Count(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]BillResponse, len(bills))
	for i := range bills {
		responses[i] = *ToBillResponse(&bills[i])
	}

	return responses, total, nil
}

// ListOutstandingByTenant retrieves a tenant's unpaid bills, oldest first
func (s *BillingService) ListOutstandingByTenant(ctx context.Context, orgID, tenantID uuid.UUID) ([]BillResponse, error) {
	bills, err := s.billRepo.FindOutstandingByTenant(ctx, orgID, tenantID)
	if err != nil {
		return nil, err
	}

	responses := make([]BillResponse, len(bills))
	for i := range bills {
		responses[i] = *ToBillResponse(&bills[i])
	}
	return responses, nil
}

// UpdateNotes replaces the free-form notes on a bill
func (s *BillingService) UpdateNotes(ctx context.Context, orgID, id uuid.UUID, actor audit.Actor, req UpdateBillNotesRequest) (*BillResponse, error) {
	bill, err := s.billRepo.FindByIDForOrg(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	bill.SetNotes(req.Notes)

	if err := s.billRepo.SaveWithLock(ctx, bill); err != nil {
		return nil, err
	}

	s.audit(ctx, orgID, actor, "bill.update_notes", bill.ID.String(), req)

	return ToBillResponse(bill), nil
}

// orgSettings loads the org's settings snapshot, falling back to defaults
// when the org has never saved settings.
func (s *BillingService) orgSettings(ctx context.Context, orgID uuid.UUID) (settings.Snapshot, error) {
	stored, err := s.settingsRepo.FindByOrg(ctx, orgID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return settings.DefaultSnapshot(), nil
		}
		return settings.Snapshot{}, err
	}
	return stored.Snapshot(), nil
}

// resolveElectricity prices the electricity charge from the request: a
// direct amount wins, metered usage is priced at the effective rate, and
// absent both the charge is zero.
func resolveElectricity(req GenerateBillRequest, effectiveRate decimal.Decimal) (decimal.Decimal, error) {
	if req.ElectricityAmount != nil && req.ElectricityUsageKwh != nil {
		return decimal.Zero, shared.NewDomainError("INVALID_INPUT",
			"Provide either an electricity amount or metered usage, not both")
	}
	if req.ElectricityAmount != nil {
		if req.ElectricityAmount.IsNegative() {
			return decimal.Zero, shared.NewDomainError("INVALID_AMOUNT", "Electricity amount cannot be negative")
		}
		return *req.ElectricityAmount, nil
	}
	if req.ElectricityUsageKwh != nil {
		if req.ElectricityUsageKwh.IsNegative() {
			return decimal.Zero, shared.NewDomainError("INVALID_AMOUNT", "Electricity usage cannot be negative")
		}
		return req.ElectricityUsageKwh.Mul(effectiveRate).Round(2), nil
	}
	return decimal.Zero, nil
}

func (s *BillingService) audit(ctx context.Context, orgID uuid.UUID, actor audit.Actor, action, resourceID string, payload any) {
	if s.recorder == nil {
		return
	}
	var body []byte
	if payload != nil {
		body, _ = json.Marshal(payload)
	}
	s.recorder.Record(ctx, orgID, actor, audit.Entry{
		Action:       action,
		ResourceType: "bill",
		ResourceID:   resourceID,
		Payload:      body,
	})
}

func (s *BillingService) publish(ctx context.Context, bill *ledger.Bill) {
	if s.publisher == nil {
		return
	}
	events := bill.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.publisher.Publish(ctx, events...)
	bill.ClearDomainEvents()
}
