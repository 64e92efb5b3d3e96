package property

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/application/audit"
	"github.com/casaops/backend/internal/domain/property"
	"github.com/casaops/backend/internal/domain/shared"
	"github.com/casaops/backend/internal/domain/shared/valueobject"
)

// BranchService handles branch-related business operations
type BranchService struct {
	branchRepo property.BranchRepository
	roomRepo   property.RoomRepository
	recorder   *audit.Recorder
	publisher  shared.EventPublisher
}

// NewBranchService creates a new BranchService
func NewBranchService(
	branchRepo property.BranchRepository,
	roomRepo property.RoomRepository,
	recorder *audit.Recorder,
	publisher shared.EventPublisher,
) *BranchService {
	return &BranchService{
		branchRepo: branchRepo,
		roomRepo:   roomRepo,
		recorder:   recorder,
		publisher:  publisher,
	}
}

// Create creates a new branch
func (s *BranchService) Create(ctx context.Context, orgID uuid.UUID, actor audit.Actor, req CreateBranchRequest) (*BranchResponse, error) {
	exists, err := s.branchRepo.ExistsByCode(ctx, orgID, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Branch with this code already exists")
	}

	branch, err := property.NewBranch(orgID, req.Code, req.Name, req.Address)
	if err != nil {
		return nil, err
	}

	if req.ContactName != "" || req.ContactPhone != "" {
		if err := branch.SetContact(req.ContactName, req.ContactPhone); err != nil {
			return nil, err
		}
	}
	if req.ElectricityRate != nil || req.WaterRate != nil {
		electricity, water, err := ratesToMoney(req.ElectricityRate, req.WaterRate)
		if err != nil {
			return nil, err
		}
		if err := branch.SetUtilityRates(electricity, water); err != nil {
			return nil, err
		}
	}
	if req.Notes != "" {
		branch.SetNotes(req.Notes)
	}
	branch.SetCreatedBy(actor.ID)

	if err := s.branchRepo.Save(ctx, branch); err != nil {
		return nil, err
	}

	s.audit(ctx, orgID, actor, "branch.create", branch.ID.String(), req)
	s.publish(ctx, branch)

	return ToBranchResponse(branch), nil
}

// GetByID retrieves a branch by ID
func (s *BranchService) GetByID(ctx context.Context, orgID, id uuid.UUID) (*BranchResponse, error) {
	branch, err := s.branchRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	return ToBranchResponse(branch), nil
}

// GetOccupancy retrieves a branch with its room counts
func (s *BranchService) GetOccupancy(ctx context.Context, orgID, id uuid.UUID) (*BranchOccupancyResponse, error) {
	branch, err := s.branchRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	totalRooms, err := s.roomRepo.CountByBranch(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	occupiedRooms, err := s.roomRepo.CountOccupiedByBranch(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	return &BranchOccupancyResponse{
		BranchResponse: *ToBranchResponse(branch),
		TotalRooms:     totalRooms,
		OccupiedRooms:  occupiedRooms,
	}, nil
}

// List retrieves branches for an org
func (s *BranchService) List(ctx context.Context, orgID uuid.UUID, filter BranchListFilter) ([]BranchResponse, int64, error) {
	domainFilter := shared.Filter{
		Filters: make(map[string]interface{}),
		Search:  filter.Search,
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
		domainFilter.OrderBy = "sort_order"
		domainFilter.OrderDir = "asc"
	}

	branches, err := s.branchRepo.FindAllForOrg(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.branchRepo.CountForOrg(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]BranchResponse, len(branches))
	for i := range branches {
		responses[i] = *ToBranchResponse(&branches[i])
	}

	return responses, total, nil
}

// Update updates a branch's basic information
func (s *BranchService) Update(ctx context.Context, orgID, id uuid.UUID, actor audit.Actor, req UpdateBranchRequest) (*BranchResponse, error) {
	branch, err := s.branchRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	name := branch.Name
	if req.Name != nil {
		name = *req.Name
	}
	address := branch.Address
	if req.Address != nil {
		address = *req.Address
	}
	if err := branch.Update(name, address); err != nil {
		return nil, err
	}

	if req.ContactName != nil || req.ContactPhone != nil {
		contactName := branch.ContactName
		if req.ContactName != nil {
			contactName = *req.ContactName
		}
		contactPhone := branch.ContactPhone
		if req.ContactPhone != nil {
			contactPhone = *req.ContactPhone
		}
		if err := branch.SetContact(contactName, contactPhone); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		branch.SetNotes(*req.Notes)
	}

	if err := s.branchRepo.SaveWithLock(ctx, branch); err != nil {
		return nil, err
	}

	s.audit(ctx, orgID, actor, "branch.update", branch.ID.String(), req)
	s.publish(ctx, branch)

	return ToBranchResponse(branch), nil
}

// UpdateRates sets or clears the branch's utility rate overrides
func (s *BranchService) UpdateRates(ctx context.Context, orgID, id uuid.UUID, actor audit.Actor, req UpdateBranchRatesRequest) (*BranchResponse, error) {
	branch, err := s.branchRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	electricity, water, err := ratesToMoney(req.ElectricityRate, req.WaterRate)
	if err != nil {
		return nil, err
	}
	if err := branch.SetUtilityRates(electricity, water); err != nil {
		return nil, err
	}

	if err := s.branchRepo.SaveWithLock(ctx, branch); err != nil {
		return nil, err
	}

	s.audit(ctx, orgID, actor, "branch.update_rates", branch.ID.String(), req)
	s.publish(ctx, branch)

	return ToBranchResponse(branch), nil
}

// Archive retires a branch from operation. Branches with occupied rooms
// cannot be archived.
func (s *BranchService) Archive(ctx context.Context, orgID, id uuid.UUID, actor audit.Actor) (*BranchResponse, error) {
	branch, err := s.branchRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	occupied, err := s.roomRepo.CountOccupiedByBranch(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if occupied > 0 {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot archive a branch with occupied rooms")
	}

	if err := branch.Archive(); err != nil {
		return nil, err
	}

	if err := s.branchRepo.SaveWithLock(ctx, branch); err != nil {
		return nil, err
	}

	s.audit(ctx, orgID, actor, "branch.archive", branch.ID.String(), nil)
	s.publish(ctx, branch)

	return ToBranchResponse(branch), nil
}

// Restore returns an archived branch to active operation
func (s *BranchService) Restore(ctx context.Context, orgID, id uuid.UUID, actor audit.Actor) (*BranchResponse, error) {
	branch, err := s.branchRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if err := branch.Restore(); err != nil {
		return nil, err
	}

	if err := s.branchRepo.SaveWithLock(ctx, branch); err != nil {
		return nil, err
	}

	s.audit(ctx, orgID, actor, "branch.restore", branch.ID.String(), nil)
	s.publish(ctx, branch)

	return ToBranchResponse(branch), nil
}

// Delete removes a branch. Only branches with no rooms can be deleted;
// anything with history is archived instead.
func (s *BranchService) Delete(ctx context.Context, orgID, id uuid.UUID, actor audit.Actor) error {
	branch, err := s.branchRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return err
	}

	roomCount, err := s.roomRepo.CountByBranch(ctx, orgID, id)
	if err != nil {
		return err
	}
	if roomCount > 0 {
		return shared.NewDomainError("HAS_ROOMS", "Cannot delete a branch with rooms; archive it instead")
	}

	if err := s.branchRepo.DeleteForOrg(ctx, orgID, id); err != nil {
		return err
	}

	s.audit(ctx, orgID, actor, "branch.delete", branch.ID.String(), nil)

	return nil
}

func (s *BranchService) audit(ctx context.Context, orgID uuid.UUID, actor audit.Actor, action, resourceID string, payload any) {
	if s.recorder == nil {
		return
	}
	var body []byte
	if payload != nil {
		body, _ = json.Marshal(payload)
	}
	s.recorder.Record(ctx, orgID, actor, audit.Entry{
		Action:       action,
		ResourceType: "branch",
		ResourceID:   resourceID,
		Payload:      body,
	})
}

func (s *BranchService) publish(ctx context.Context, branch *property.Branch) {
	if s.publisher == nil {
		return
	}
	events := branch.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.publisher.Publish(ctx, events...)
	branch.ClearDomainEvents()
}

// ratesToMoney converts optional decimal rates to the money values the
// domain expects, rejecting negatives up front.
func ratesToMoney(electricity, water *decimal.Decimal) (*valueobject.Money, *valueobject.Money, error) {
	var electricityMoney, waterMoney *valueobject.Money
	if electricity != nil {
		if electricity.IsNegative() {
			return nil, nil, shared.NewDomainError("INVALID_RATE", "Electricity rate cannot be negative")
		}
		m := valueobject.NewMoneyPHP(*electricity)
		electricityMoney = &m
	}
	if water != nil {
		if water.IsNegative() {
			return nil, nil, shared.NewDomainError("INVALID_RATE", "Water rate cannot be negative")
		}
		m := valueobject.NewMoneyPHP(*water)
		waterMoney = &m
	}
	return electricityMoney, waterMoney, nil
}
