package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainaudit "github.com/casaops/backend/internal/domain/audit"
	"github.com/casaops/backend/internal/domain/shared"
)

// Actor identifies who performed an audited action, extracted from the
// request's JWT claims by the handler layer.
type Actor struct {
	ID        uuid.UUID
	Name      string
	Role      string
	IP        string
	UserAgent string
}

// Entry describes one audited action. The payload, when present, is stored
// only as a SHA-256 digest.
type Entry struct {
	Action       string
	ResourceType string
	ResourceID   string
	Payload      []byte
	Metadata     map[string]string
}

// Recorder appends audit log entries on behalf of mutating services. A
// failed audit write is logged but never fails the business operation that
// triggered it; the log is an account of what happened, not a gate.
type Recorder struct {
	repo   domainaudit.LogRepository
	logger *zap.Logger
}

// NewRecorder creates a new audit recorder
func NewRecorder(repo domainaudit.LogRepository, logger *zap.Logger) *Recorder {
	return &Recorder{
		repo:   repo,
		logger: logger,
	}
}

// Record appends one audit entry
func (r *Recorder) Record(ctx context.Context, orgID uuid.UUID, actor Actor, entry Entry) {
	log, err := domainaudit.NewLog(orgID, actor.ID, actor.Name, actor.Role, entry.Action, entry.ResourceType, entry.ResourceID)
	if err != nil {
		r.logger.Warn("Dropping malformed audit entry",
			zap.Error(err),
			zap.String("action", entry.Action),
			zap.String("resource_type", entry.ResourceType),
		)
		return
	}

	log.WithPayload(entry.Payload).
		WithMetadata(entry.Metadata).
		WithRequestContext(actor.IP, actor.UserAgent)

	if err := r.repo.Save(ctx, log); err != nil {
		r.logger.Error("Failed to append audit entry",
			zap.Error(err),
			zap.String("org_id", orgID.String()),
			zap.String("action", entry.Action),
			zap.String("resource_type", entry.ResourceType),
			zap.String("resource_id", entry.ResourceID),
		)
	}
}

// QueryRequest narrows an audit log query
type QueryRequest struct {
	ActorID      *uuid.UUID `form:"actor_id"`
	Action       string     `form:"action" binding:"omitempty,max=100"`
	ResourceType string     `form:"resource_type" binding:"omitempty,max=50"`
	ResourceID   string     `form:"resource_id" binding:"omitempty,max=100"`
	From         *time.Time `form:"from" time_format:"2006-01-02"`
	To           *time.Time `form:"to" time_format:"2006-01-02"`
	Search       string     `form:"search" binding:"omitempty,max=200"`
	Page         int        `form:"page" binding:"omitempty,min=1"`
	PageSize     int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// LogResponse represents an audit log entry in API responses
type LogResponse struct {
	ID            uuid.UUID         `json:"id"`
	OrgID         uuid.UUID         `json:"org_id"`
	ActorID       uuid.UUID         `json:"actor_id"`
	ActorName     string            `json:"actor_name"`
	Role          string            `json:"role,omitempty"`
	Action        string            `json:"action"`
	ResourceType  string            `json:"resource_type"`
	ResourceID    string            `json:"resource_id,omitempty"`
	PayloadDigest string            `json:"payload_digest,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	IP            string            `json:"ip,omitempty"`
	UserAgent     string            `json:"user_agent,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Service answers audit log queries
type Service struct {
	repo domainaudit.LogRepository
}

// NewService creates a new audit query service
func NewService(repo domainaudit.LogRepository) *Service {
	return &Service{repo: repo}
}

// Query retrieves audit log entries for an org, newest first
func (s *Service) Query(ctx context.Context, orgID uuid.UUID, req QueryRequest) ([]LogResponse, int64, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	filter := domainaudit.LogFilter{
		ActorID:      req.ActorID,
		Action:       req.Action,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		From:         req.From,
		To:           req.To,
		Page: shared.Filter{
			Page:     page,
			PageSize: pageSize,
			Search:   req.Search,
		},
	}

	logs, err := s.repo.Query(ctx, orgID, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx, orgID, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]LogResponse, len(logs))
	for i := range logs {
		responses[i] = toLogResponse(&logs[i])
	}

	return responses, total, nil
}

// GetByID retrieves a single audit log entry
func (s *Service) GetByID(ctx context.Context, orgID, id uuid.UUID) (*LogResponse, error) {
	log, err := s.repo.FindByID(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	resp := toLogResponse(log)
	return &resp, nil
}

func toLogResponse(log *domainaudit.Log) LogResponse {
	return LogResponse{
		ID:            log.ID,
		OrgID:         log.OrgID,
		ActorID:       log.ActorID,
		ActorName:     log.ActorName,
		Role:          log.Role,
		Action:        log.Action,
		ResourceType:  log.ResourceType,
		ResourceID:    log.ResourceID,
		PayloadDigest: log.PayloadDigest,
		Metadata:      log.Metadata,
		IP:            log.IP,
		UserAgent:     log.UserAgent,
		CreatedAt:     log.CreatedAt,
	}
}
