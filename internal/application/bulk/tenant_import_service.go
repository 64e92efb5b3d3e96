package bulk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/casaops/backend/internal/application/audit"
	"github.com/casaops/backend/internal/domain/bulk"
	"github.com/casaops/backend/internal/domain/property"
	"github.com/casaops/backend/internal/domain/shared"
	"github.com/casaops/backend/internal/domain/shared/valueobject"
	"github.com/casaops/backend/internal/domain/tenancy"
	csvimport "github.com/casaops/backend/internal/infrastructure/import"
)

// Tenant CSV columns
const (
	colRoomNumber      = "room_number"
	colFirstName       = "first_name"
	colLastName        = "last_name"
	colPhone           = "phone"
	colEmail           = "email"
	colRentStartDate   = "rent_start_date"
	colAdvancePayment  = "advance_payment"
	colSecurityDeposit = "security_deposit"
)

func tenantImportRules() []csvimport.FieldRule {
	return []csvimport.FieldRule{
		csvimport.Field(colBranchCode).Required().MaxLength(20).Reference("branch").Build(),
		csvimport.Field(colRoomNumber).Required().MaxLength(50).Build(),
		csvimport.Field(colFirstName).Required().MaxLength(100).Build(),
		csvimport.Field(colLastName).Required().MaxLength(100).Build(),
		csvimport.Field(colPhone).MaxLength(30).Build(),
		csvimport.Field(colEmail).Email().Build(),
		csvimport.Field(colRentStartDate).Required().Date().Build(),
		csvimport.Field(colMonthlyRent).Decimal().MinValue(decimal.Zero).Build(),
		csvimport.Field(colAdvancePayment).Decimal().MinValue(decimal.Zero).Build(),
		csvimport.Field(colSecurityDeposit).Decimal().MinValue(decimal.Zero).Build(),
		csvimport.Field(colNotes).MaxLength(1000).Build(),
	}
}

// TenantImportService imports tenants from CSV files. Each imported tenant
// is moved into the referenced room, which must be vacant.
type TenantImportService struct {
	historyRepo bulk.ImportHistoryRepository
	tenantRepo  tenancy.TenantRepository
	roomRepo    property.RoomRepository
	branchRepo  property.BranchRepository
	recorder    *audit.Recorder
	publisher   shared.EventPublisher
	logger      *zap.Logger
}

// NewTenantImportService creates a new TenantImportService
func NewTenantImportService(
	historyRepo bulk.ImportHistoryRepository,
	tenantRepo tenancy.TenantRepository,
	roomRepo property.RoomRepository,
	branchRepo property.BranchRepository,
	recorder *audit.Recorder,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *TenantImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenantImportService{
		historyRepo: historyRepo,
		tenantRepo:  tenantRepo,
		roomRepo:    roomRepo,
		branchRepo:  branchRepo,
		recorder:    recorder,
		publisher:   publisher,
		logger:      logger,
	}
}

// Validate dry-runs a tenant CSV without importing anything
func (s *TenantImportService) Validate(ctx context.Context, orgID uuid.UUID, actor audit.Actor, req ImportRequest) (*csvimport.ValidationResult, error) {
	session := csvimport.NewImportSession(orgID, actor.ID, csvimport.EntityTenants, req.FileName, req.FileSize)
	processor := csvimport.NewImportProcessor(
		csvimport.WithMaxErrors(importMaxErrors),
		csvimport.WithReferenceLookup(func(refType, value string) (bool, error) {
			if refType != "branch" {
				return true, nil
			}
			return s.branchRepo.ExistsByCode(ctx, orgID, strings.ToUpper(value))
		}),
	)
	return processor.Validate(ctx, session, req.Data, tenantImportRules())
}

// Import runs a tenant CSV import. Rows pointing at an occupied room follow
// the conflict mode: skip keeps the sitting tenant, update refreshes the
// sitting tenant's contact details, fail records the row as an error.
func (s *TenantImportService) Import(ctx context.Context, orgID uuid.UUID, actor audit.Actor, req ImportRequest) (*ImportResult, error) {
	history, err := bulk.NewImportHistory(orgID, bulk.ImportEntityTenants, req.FileName, req.FileSize, req.ConflictMode, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.historyRepo.Save(ctx, history); err != nil {
		return nil, err
	}

	rows, headerErr := parseImportFile(req.Data, []string{colBranchCode, colRoomNumber, colFirstName, colLastName, colRentStartDate})
	if headerErr != nil {
		return failImport(ctx, s.historyRepo, history, headerErr)
	}

	if err := history.StartProcessing(len(rows)); err != nil {
		return nil, err
	}

	validator := csvimport.NewFieldValidator(tenantImportRules(), importMaxErrors)
	branches := make(map[string]*property.Branch)
	var details []bulk.ImportErrorDetail
	var imported, updated, skipped, failed int

	for _, row := range rows {
		if !validator.ValidateRow(row) {
			failed++
			continue
		}

		branch, detail := s.resolveBranch(ctx, orgID, branches, row)
		if detail != nil {
			details = append(details, *detail)
			failed++
			continue
		}

		outcome, detail := s.importRow(ctx, orgID, actor, branch, row, req.ConflictMode)
		if detail != nil {
			details = append(details, *detail)
			failed++
			continue
		}
		switch outcome {
		case rowImported:
			imported++
		case rowUpdated:
			updated++
		case rowSkipped:
			skipped++
		}
	}

	details = append(details, detailsFromRowErrors(validator.Errors().Errors())...)

	if err := history.Complete(imported, failed, skipped, updated, details); err != nil {
		return nil, err
	}
	if err := s.historyRepo.Save(ctx, history); err != nil {
		return nil, err
	}

	s.audit(ctx, orgID, actor, history)
	s.logger.Info("tenant import finished",
		zap.String("history_id", history.ID.String()),
		zap.Int("imported", imported),
		zap.Int("updated", updated),
		zap.Int("skipped", skipped),
		zap.Int("errors", failed),
	)

	return resultFromHistory(history, imported), nil
}

func (s *TenantImportService) importRow(ctx context.Context, orgID uuid.UUID, actor audit.Actor, branch *property.Branch, row *csvimport.Row, mode bulk.ConflictMode) (rowOutcome, *bulk.ImportErrorDetail) {
	number := row.Get(colRoomNumber)

	room, err := s.roomRepo.FindByNumber(ctx, orgID, branch.ID, number)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			detail := bulk.ImportErrorDetail{
				Row:     row.LineNumber,
				Column:  colRoomNumber,
				Code:    csvimport.ErrCodeImportReferenceNotFound,
				Message: fmt.Sprintf("room '%s' not found in branch %s", number, branch.Code),
				Value:   number,
			}
			return 0, &detail
		}
		return 0, lookupErrorDetail(row, colRoomNumber, err)
	}

	if room.IsOccupied() {
		switch mode {
		case bulk.ConflictModeSkip:
			return rowSkipped, nil
		case bulk.ConflictModeUpdate:
			return s.updateSittingTenant(ctx, orgID, room, row)
		default:
			detail := bulk.ImportErrorDetail{
				Row:     row.LineNumber,
				Column:  colRoomNumber,
				Code:    csvimport.ErrCodeImportDuplicateInDB,
				Message: fmt.Sprintf("room '%s' is already occupied", number),
				Value:   number,
			}
			return 0, &detail
		}
	}

	rentStart, _ := time.Parse("2006-01-02", row.Get(colRentStartDate))

	rent := room.MonthlyRent
	if raw := row.Get(colMonthlyRent); raw != "" {
		rent, _ = decimal.NewFromString(raw)
	}
	advance, _ := decimal.NewFromString(row.GetOrDefault(colAdvancePayment, "0"))
	security, _ := decimal.NewFromString(row.GetOrDefault(colSecurityDeposit, "0"))

	tenant, err := tenancy.NewTenant(orgID, branch.ID, room.ID,
		row.Get(colFirstName), row.Get(colLastName), rentStart,
		valueobject.NewMoneyPHP(rent), valueobject.NewMoneyPHP(advance), valueobject.NewMoneyPHP(security))
	if err != nil {
		return 0, domainErrorDetail(row, err)
	}
	if row.Get(colPhone) != "" || row.Get(colEmail) != "" {
		if err := tenant.UpdateContact(row.Get(colPhone), row.Get(colEmail), ""); err != nil {
			return 0, domainErrorDetail(row, err)
		}
	}
	if notes := row.Get(colNotes); notes != "" {
		tenant.SetNotes(notes)
	}
	tenant.SetCreatedBy(actor.ID)

	if err := room.Occupy(tenant.ID); err != nil {
		return 0, domainErrorDetail(row, err)
	}

	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		return 0, lookupErrorDetail(row, colRoomNumber, err)
	}
	if err := s.roomRepo.SaveWithLock(ctx, room); err != nil {
		return 0, lookupErrorDetail(row, colRoomNumber, err)
	}
	s.publishEvents(ctx, tenant.GetDomainEvents())
	tenant.ClearDomainEvents()
	s.publishEvents(ctx, room.GetDomainEvents())
	room.ClearDomainEvents()

	return rowImported, nil
}

func (s *TenantImportService) updateSittingTenant(ctx context.Context, orgID uuid.UUID, room *property.Room, row *csvimport.Row) (rowOutcome, *bulk.ImportErrorDetail) {
	tenant, err := s.tenantRepo.FindActiveByRoom(ctx, orgID, room.ID)
	if err != nil {
		return 0, lookupErrorDetail(row, colRoomNumber, err)
	}

	if err := tenant.UpdateContact(row.GetOrDefault(colPhone, tenant.Phone), row.GetOrDefault(colEmail, tenant.Email), tenant.EmergencyContact); err != nil {
		return 0, domainErrorDetail(row, err)
	}
	if notes := row.Get(colNotes); notes != "" {
		tenant.SetNotes(notes)
	}

	if err := s.tenantRepo.SaveWithLock(ctx, tenant); err != nil {
		return 0, lookupErrorDetail(row, colRoomNumber, err)
	}
	s.publishEvents(ctx, tenant.GetDomainEvents())
	tenant.ClearDomainEvents()

	return rowUpdated, nil
}

func (s *TenantImportService) resolveBranch(ctx context.Context, orgID uuid.UUID, cache map[string]*property.Branch, row *csvimport.Row) (*property.Branch, *bulk.ImportErrorDetail) {
	code := strings.ToUpper(row.Get(colBranchCode))
	if branch, ok := cache[code]; ok {
		if branch == nil {
			return nil, branchNotFoundDetail(row, code)
		}
		return branch, nil
	}

	branch, err := s.branchRepo.FindByCode(ctx, orgID, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			cache[code] = nil
			return nil, branchNotFoundDetail(row, code)
		}
		return nil, lookupErrorDetail(row, colBranchCode, err)
	}
	cache[code] = branch
	return branch, nil
}

func (s *TenantImportService) audit(ctx context.Context, orgID uuid.UUID, actor audit.Actor, history *bulk.ImportHistory) {
	if s.recorder == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"file_name":    history.FileName,
		"total_rows":   history.TotalRows,
		"success_rows": history.SuccessRows,
		"error_rows":   history.ErrorRows,
	})
	s.recorder.Record(ctx, orgID, actor, audit.Entry{
		Action:       "import.tenants",
		ResourceType: "import",
		ResourceID:   history.ID.String(),
		Payload:      payload,
	})
}

func (s *TenantImportService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	_ = s.publisher.Publish(ctx, events...)
}
