// Package bulk implements CSV bulk onboarding for rooms and tenants with
// per-row validation and import history tracking.
package bulk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/casaops/backend/internal/application/audit"
	"github.com/casaops/backend/internal/domain/bulk"
	"github.com/casaops/backend/internal/domain/property"
	"github.com/casaops/backend/internal/domain/shared"
	"github.com/casaops/backend/internal/domain/shared/valueobject"
	csvimport "github.com/casaops/backend/internal/infrastructure/import"
)

const importMaxErrors = 100

// Room CSV columns
const (
	colBranchCode  = "branch_code"
	colNumber      = "number"
	colFloor       = "floor"
	colMonthlyRent = "monthly_rent"
	colDescription = "description"
	colNotes       = "notes"
)

func roomImportRules() []csvimport.FieldRule {
	return []csvimport.FieldRule{
		csvimport.Field(colBranchCode).Required().MaxLength(20).Reference("branch").Build(),
		csvimport.Field(colNumber).Required().MaxLength(50).Build(),
		csvimport.Field(colFloor).Int().Build(),
		csvimport.Field(colMonthlyRent).Required().Decimal().MinValue(decimal.Zero).Build(),
		csvimport.Field(colDescription).MaxLength(500).Build(),
		csvimport.Field(colNotes).MaxLength(1000).Build(),
	}
}

// RoomImportService imports rooms from CSV files
type RoomImportService struct {
	historyRepo bulk.ImportHistoryRepository
	roomRepo    property.RoomRepository
	branchRepo  property.BranchRepository
	recorder    *audit.Recorder
	publisher   shared.EventPublisher
	logger      *zap.Logger
}

// NewRoomImportService creates a new RoomImportService
func NewRoomImportService(
	historyRepo bulk.ImportHistoryRepository,
	roomRepo property.RoomRepository,
	branchRepo property.BranchRepository,
	recorder *audit.Recorder,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *RoomImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomImportService{
		historyRepo: historyRepo,
		roomRepo:    roomRepo,
		branchRepo:  branchRepo,
		recorder:    recorder,
		publisher:   publisher,
		logger:      logger,
	}
}

// Validate dry-runs a room CSV without importing anything
func (s *RoomImportService) Validate(ctx context.Context, orgID uuid.UUID, actor audit.Actor, req ImportRequest) (*csvimport.ValidationResult, error) {
	session := csvimport.NewImportSession(orgID, actor.ID, csvimport.EntityRooms, req.FileName, req.FileSize)
	processor := csvimport.NewImportProcessor(
		csvimport.WithMaxErrors(importMaxErrors),
		csvimport.WithReferenceLookup(s.referenceLookup(ctx, orgID)),
	)
	return processor.Validate(ctx, session, req.Data, roomImportRules())
}

// Import runs a room CSV import, creating or updating rooms per the
// request's conflict mode and recording the outcome in import history.
func (s *RoomImportService) Import(ctx context.Context, orgID uuid.UUID, actor audit.Actor, req ImportRequest) (*ImportResult, error) {
	history, err := bulk.NewImportHistory(orgID, bulk.ImportEntityRooms, req.FileName, req.FileSize, req.ConflictMode, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.historyRepo.Save(ctx, history); err != nil {
		return nil, err
	}

	rows, headerErr := parseImportFile(req.Data, []string{colBranchCode, colNumber, colMonthlyRent})
	if headerErr != nil {
		return failImport(ctx, s.historyRepo, history, headerErr)
	}

	if err := history.StartProcessing(len(rows)); err != nil {
		return nil, err
	}

	validator := csvimport.NewFieldValidator(roomImportRules(), importMaxErrors)
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
	s.logger.Info("room import finished",
		zap.String("history_id", history.ID.String()),
		zap.Int("imported", imported),
		zap.Int("updated", updated),
		zap.Int("skipped", skipped),
		zap.Int("errors", failed),
	)

	return resultFromHistory(history, imported), nil
}

type rowOutcome int

const (
	rowImported rowOutcome = iota
	rowUpdated
	rowSkipped
)

func (s *RoomImportService) importRow(ctx context.Context, orgID uuid.UUID, actor audit.Actor, branch *property.Branch, row *csvimport.Row, mode bulk.ConflictMode) (rowOutcome, *bulk.ImportErrorDetail) {
	number := row.Get(colNumber)

	existing, err := s.roomRepo.FindByNumber(ctx, orgID, branch.ID, number)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return 0, lookupErrorDetail(row, colNumber, err)
	}

	if existing != nil {
		switch mode {
		case bulk.ConflictModeSkip:
			return rowSkipped, nil
		case bulk.ConflictModeFail:
			detail := bulk.ImportErrorDetail{
				Row:     row.LineNumber,
				Column:  colNumber,
				Code:    csvimport.ErrCodeImportDuplicateInDB,
				Message: fmt.Sprintf("room '%s' already exists in branch %s", number, branch.Code),
				Value:   number,
			}
			return 0, &detail
		case bulk.ConflictModeUpdate:
			return s.updateRow(ctx, existing, row)
		}
	}

	floor := 1
	if raw := row.Get(colFloor); raw != "" {
		floor, _ = strconv.Atoi(raw)
	}
	rent, _ := decimal.NewFromString(row.Get(colMonthlyRent))

	room, err := property.NewRoom(orgID, branch.ID, number, floor, valueobject.NewMoneyPHP(rent))
	if err != nil {
		return 0, domainErrorDetail(row, err)
	}
	if desc := row.Get(colDescription); desc != "" {
		if err := room.Update(room.Number, room.Floor, desc); err != nil {
			return 0, domainErrorDetail(row, err)
		}
	}
	if notes := row.Get(colNotes); notes != "" {
		room.SetNotes(notes)
	}
	room.SetCreatedBy(actor.ID)

	if err := s.roomRepo.Save(ctx, room); err != nil {
		return 0, lookupErrorDetail(row, colNumber, err)
	}
	s.publish(ctx, room)

	return rowImported, nil
}

func (s *RoomImportService) updateRow(ctx context.Context, room *property.Room, row *csvimport.Row) (rowOutcome, *bulk.ImportErrorDetail) {
	floor := room.Floor
	if raw := row.Get(colFloor); raw != "" {
		floor, _ = strconv.Atoi(raw)
	}
	description := row.GetOrDefault(colDescription, room.Description)

	if err := room.Update(room.Number, floor, description); err != nil {
		return 0, domainErrorDetail(row, err)
	}
	rent, _ := decimal.NewFromString(row.Get(colMonthlyRent))
	if err := room.SetMonthlyRent(valueobject.NewMoneyPHP(rent)); err != nil {
		return 0, domainErrorDetail(row, err)
	}
	if notes := row.Get(colNotes); notes != "" {
		room.SetNotes(notes)
	}

	if err := s.roomRepo.SaveWithLock(ctx, room); err != nil {
		return 0, lookupErrorDetail(row, colNumber, err)
	}
	s.publish(ctx, room)

	return rowUpdated, nil
}

func (s *RoomImportService) resolveBranch(ctx context.Context, orgID uuid.UUID, cache map[string]*property.Branch, row *csvimport.Row) (*property.Branch, *bulk.ImportErrorDetail) {
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

func (s *RoomImportService) referenceLookup(ctx context.Context, orgID uuid.UUID) func(refType, value string) (bool, error) {
	return func(refType, value string) (bool, error) {
		if refType != "branch" {
			return true, nil
		}
		return s.branchRepo.ExistsByCode(ctx, orgID, strings.ToUpper(value))
	}
}

func (s *RoomImportService) audit(ctx context.Context, orgID uuid.UUID, actor audit.Actor, history *bulk.ImportHistory) {
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
		Action:       "import.rooms",
		ResourceType: "import",
		ResourceID:   history.ID.String(),
		Payload:      payload,
	})
}

func (s *RoomImportService) publish(ctx context.Context, room *property.Room) {
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
