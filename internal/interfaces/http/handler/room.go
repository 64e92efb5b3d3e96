package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/casaops/backend/internal/application/audit"
	propertyapp "github.com/casaops/backend/internal/application/property"
)

// RoomHandler handles room-related API endpoints
type RoomHandler struct {
	BaseHandler
	roomService *propertyapp.RoomService
}

// NewRoomHandler creates a new RoomHandler
func NewRoomHandler(roomService *propertyapp.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// Create godoc
// @ID           createRoom
// @Summary      Create a new room
// @Description  Create a new rentable room in a branch
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        request body property.CreateRoomRequest true "Room creation request"
// @Success      201 {object} APIResponse[property.RoomResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /rooms [post]
func (h *RoomHandler) Create(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Actor not resolved")
		return
	}

	var req propertyapp.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	room, err := h.roomService.Create(c.Request.Context(), orgID, actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, room)
}

// List godoc
// @ID           listRooms
// @Summary      List rooms
// @Description  List rooms with filtering and pagination
// @Tags         rooms
// @Produce      json
// @Param        branch_id query string false "Filter by branch" format(uuid)
// @Param        status query string false "Filter by status" Enums(vacant, occupied, maintenance)
// @Param        search query string false "Search by room number"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]property.RoomResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /rooms [get]
func (h *RoomHandler) List(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}

	var filter propertyapp.RoomListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rooms, total, err := h.roomService.List(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, rooms, total, filter.Page, filter.PageSize)
}

// ListVacantByBranch godoc
// @ID           listVacantRooms
// @Summary      List vacant rooms in a branch
// @Description  Rooms available for move-in, for the move-in and transfer pickers
// @Tags         rooms
// @Produce      json
// @Param        id path string true "Branch ID" format(uuid)
// @Success      200 {object} APIResponse[[]property.RoomResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /branches/{id}/vacant-rooms [get]
func (h *RoomHandler) ListVacantByBranch(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	branchID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid branch ID")
		return
	}

	rooms, err := h.roomService.ListVacantByBranch(c.Request.Context(), orgID, branchID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, rooms)
}

// GetByID godoc
// @ID           getRoomById
// @Summary      Get room by ID
// @Tags         rooms
// @Produce      json
// @Param        id path string true "Room ID" format(uuid)
// @Success      200 {object} APIResponse[property.RoomResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /rooms/{id} [get]
func (h *RoomHandler) GetByID(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid room ID")
		return
	}

	room, err := h.roomService.GetByID(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, room)
}

// Update godoc
// @ID           updateRoom
// @Summary      Update a room
// @Description  Update room details. Rent changes apply to future tenancies only.
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        id path string true "Room ID" format(uuid)
// @Param        request body property.UpdateRoomRequest true "Room update request"
// @Success      200 {object} APIResponse[property.RoomResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /rooms/{id} [put]
func (h *RoomHandler) Update(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Actor not resolved")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid room ID")
		return
	}

	var req propertyapp.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	room, err := h.roomService.Update(c.Request.Context(), orgID, id, actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, room)
}

// StartMaintenance godoc
// @ID           startRoomMaintenance
// @Summary      Take a room out of service
// @Description  Put a vacant room under maintenance so it cannot be rented
// @Tags         rooms
// @Produce      json
// @Param        id path string true "Room ID" format(uuid)
// @Success      200 {object} APIResponse[property.RoomResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /rooms/{id}/maintenance/start [post]
func (h *RoomHandler) StartMaintenance(c *gin.Context) {
	h.transition(c, h.roomService.StartMaintenance)
}

// EndMaintenance godoc
// @ID           endRoomMaintenance
// @Summary      Return a room to service
// @Tags         rooms
// @Produce      json
// @Param        id path string true "Room ID" format(uuid)
// @Success      200 {object} APIResponse[property.RoomResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /rooms/{id}/maintenance/end [post]
func (h *RoomHandler) EndMaintenance(c *gin.Context) {
	h.transition(c, h.roomService.EndMaintenance)
}

// Delete godoc
// @ID           deleteRoom
// @Summary      Delete a room
// @Description  Delete a room that has never been occupied. Occupied rooms cannot be deleted.
// @Tags         rooms
// @Produce      json
// @Param        id path string true "Room ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /rooms/{id} [delete]
func (h *RoomHandler) Delete(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Actor not resolved")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid room ID")
		return
	}

	if err := h.roomService.Delete(c.Request.Context(), orgID, id, actor); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

type roomTransition func(ctx context.Context, orgID, id uuid.UUID, actor audit.Actor) (*propertyapp.RoomResponse, error)

func (h *RoomHandler) transition(c *gin.Context, fn roomTransition) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Actor not resolved")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid room ID")
		return
	}

	room, err := fn(c.Request.Context(), orgID, id, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, room)
}
