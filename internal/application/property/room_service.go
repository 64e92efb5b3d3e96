package property

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/casaops/backend/internal/application/audit"
	"github.com/casaops/backend/internal/domain/property"
	"github.com/casaops/backend/internal/domain/shared"
	"github.com/casaops/backend/internal/domain/shared/valueobject"
)

// RoomService handles room-related business operations. Occupancy
// transitions (move-in, move-out, transfer) belong to the tenancy service;
// this one manages the inventory itself.
type RoomService struct {
	roomRepo   property.RoomRepository
	branchRepo property.BranchRepository
	recorder   *audit.Recorder
	publisher  shared.EventPublisher
}

// NewRoomService creates a new RoomService
func NewRoomService(
	roomRepo property.RoomRepository,
	branchRepo property.BranchRepository,
	recorder *audit.Recorder,
	publisher shared.EventPublisher,
) *RoomService {
	return &RoomService{
		roomRepo:   roomRepo,
		branchRepo: branchRepo,
		recorder:   recorder,
		publisher:  publisher,
	}
}

// Create creates a new vacant room in a branch
func (s *RoomService) Create(ctx context.Context, orgID uuid.UUID, actor audit.Actor, req CreateRoomRequest) (*RoomResponse, error) {
	branch, err := s.branchRepo.FindByIDForOrg(ctx, orgID, req.BranchID)
	if err != nil {
		return nil, err
	}
	if !branch.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add rooms to an archived branch")
	}

	exists, err := s.roomRepo.ExistsByNumber(ctx, orgID, req.BranchID, req.Number)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Room with this number already exists in the branch")
	}

	floor := req.Floor
	if floor == 0 {
		floor = 1
	}

	room, err := property.NewRoom(orgID, req.BranchID, req.Number, floor, valueobject.NewMoneyPHP(req.MonthlyRent))
	if err != nil {
		return nil, err
	}

	if req.Description != "" {
		if err := room.Update(room.Number, room.Floor, req.Description); err != nil {
			return nil, err
		}
	}
	if req.Notes != "" {
		room.SetNotes(req.Notes)
	}
	room.SetCreatedBy(actor.ID)

	if err := s.roomRepo.Save(ctx, room); err != nil {
		return nil, err
	}

	s.audit(ctx, orgID, actor, "room.create", room.ID.String(), req)
	s.publish(ctx, room)

	return ToRoomResponse(room), nil
}

// GetByID retrieves a room by ID
func (s *RoomService) GetByID(ctx context.Context, orgID, id uuid.UUID) (*RoomResponse, error) {
	room, err := s.roomRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	return ToRoomResponse(room), nil
}

// List retrieves rooms for an org, optionally narrowed to a branch or
// occupancy status
func (s *RoomService) List(ctx context.Context, orgID uuid.UUID, filter RoomListFilter) ([]RoomResponse, int64, error) {
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
		domainFilter.OrderBy = "number"
		domainFilter.OrderDir = "asc"
	}

	rooms, err := s.roomRepo.FindAllForOrg(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.roomRepo.CountForOrg(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]RoomResponse, len(rooms))
	for i := range rooms {
		responses[i] = *ToRoomResponse(&rooms[i])
	}

	return responses, total, nil
}

// ListVacantByBranch retrieves rooms available for move-in within a branch
func (s *RoomService) ListVacantByBranch(ctx context.Context, orgID, branchID uuid.UUID) ([]RoomResponse, error) {
	rooms, err := s.roomRepo.FindVacantByBranch(ctx, orgID, branchID, shared.Filter{
		OrderBy:  "number",
		OrderDir: "asc",
	})
	if err != nil {
		return nil, err
	}

	responses := make([]RoomResponse, len(rooms))
	for i := range rooms {
		responses[i] = *ToRoomResponse(&rooms[i])
	}

	return responses, nil
}

// Update updates a room's descriptive information and rent
func (s *RoomService) Update(ctx context.Context, orgID, id uuid.UUID, actor audit.Actor, req UpdateRoomRequest) (*RoomResponse, error) {
	room, err := s.roomRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if req.Number != nil && *req.Number != room.Number {
		exists, err := s.roomRepo.ExistsByNumber(ctx, orgID, room.BranchID, *req.Number)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Room with this number already exists in the branch")
		}
	}

	number := room.Number
	if req.Number != nil {
		number = *req.Number
	}
	floor := room.Floor
	if req.Floor != nil {
		floor = *req.Floor
	}
	description := room.Description
	if req.Description != nil {
		description = *req.Description
	}
	if err := room.Update(number, floor, description); err != nil {
		return nil, err
	}

	if req.MonthlyRent != nil {
		if err := room.SetMonthlyRent(valueobject.NewMoneyPHP(*req.MonthlyRent)); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		room.SetNotes(*req.Notes)
	}

	if err := s.roomRepo.SaveWithLock(ctx, room); err != nil {
		return nil, err
	}

	s.audit(ctx, orgID, actor, "room.update", room.ID.String(), req)
	s.publish(ctx, room)

	return ToRoomResponse(room), nil
}

// StartMaintenance takes a vacant room out of the rentable inventory
func (s *RoomService) StartMaintenance(ctx context.Context, orgID, id uuid.UUID, actor audit.Actor) (*RoomResponse, error) {
	room, err := s.roomRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if err := room.StartMaintenance(); err != nil {
		return nil, err
	}

	if err := s.roomRepo.SaveWithLock(ctx, room); err != nil {
		return nil, err
	}

	s.audit(ctx, orgID, actor, "room.start_maintenance", room.ID.String(), nil)
	s.publish(ctx, room)

	return ToRoomResponse(room), nil
}

// EndMaintenance returns a room under maintenance to the vacant pool
func (s *RoomService) EndMaintenance(ctx context.Context, orgID, id uuid.UUID, actor audit.Actor) (*RoomResponse, error) {
	room, err := s.roomRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if err := room.EndMaintenance(); err != nil {
		return nil, err
	}

	if err := s.roomRepo.SaveWithLock(ctx, room); err != nil {
		return nil, err
	}

	s.audit(ctx, orgID, actor, "room.end_maintenance", room.ID.String(), nil)
	s.publish(ctx, room)

	return ToRoomResponse(room), nil
}

// Delete removes a room. Occupied rooms cannot be deleted.
func (s *RoomService) Delete(ctx context.Context, orgID, id uuid.UUID, actor audit.Actor) error {
	room, err := s.roomRepo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return err
	}

	if room.IsOccupied() {
		return shared.NewDomainError("INVALID_STATE", "Cannot delete an occupied room")
	}

	if err := s.roomRepo.DeleteForOrg(ctx, orgID, id); err != nil {
		return err
	}

	s.audit(ctx, orgID, actor, "room.delete", room.ID.String(), nil)

	return nil
}

func (s *RoomService) audit(ctx context.Context, orgID uuid.UUID, actor audit.Actor, action, resourceID string, payload any) {
	if s.recorder == nil {
		return
	}
	var body []byte
	if payload != nil {
		body, _ = json.Marshal(payload)
	}
	s.recorder.Record(ctx, orgID, actor, audit.Entry{
		Action:       action,
		ResourceType: "room",
		ResourceID:   resourceID,
		Payload:      body,
	})
}

func (s *RoomService) publish(ctx context.Context, room *property.Room) {
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
