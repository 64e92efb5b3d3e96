package audit

import (
	"crypto/sha256"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/casaops/backend/internal/domain/shared"
)

// Metadata is the structured context attached to an audit entry, stored
// as JSONB.
type Metadata map[string]string

// Value implements driver.Valuer interface for GORM to store as JSONB
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Metadata: unsupported type")
	}

	if len(bytes) == 0 {
		*m = Metadata{}
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// Log is one append-only audit record. Entries are written by every
// mutating application service and never updated or deleted; sensitive
// request payloads are stored only as a SHA-256 digest.
type Log struct {
	shared.BaseEntity
	OrgID         uuid.UUID `gorm:"type:uuid;not null;index"`
	ActorID       uuid.UUID `gorm:"type:uuid;not null;index"`
	ActorName     string    `gorm:"type:varchar(200);not null"`
	Role          string    `gorm:"type:varchar(50)"`
	Action        string    `gorm:"type:varchar(100);not null;index"`
	ResourceType  string    `gorm:"type:varchar(50);not null;index"`
	ResourceID    string    `gorm:"type:varchar(100);index"`
	PayloadDigest string    `gorm:"type:varchar(64)"`
	Metadata      Metadata  `gorm:"type:jsonb"`
	IP            string    `gorm:"type:varchar(45)"`
	UserAgent     string    `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Log) TableName() string {
	return "audit_logs"
}

// NewLog creates an audit log entry for an action on a resource
func NewLog(orgID, actorID uuid.UUID, actorName, role, action, resourceType, resourceID string) (*Log, error) {
	if orgID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORG", "Organization ID cannot be empty")
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, shared.NewDomainError("INVALID_ACTION", "Audit action cannot be empty")
	}
	if len(action) > 100 {
		return nil, shared.NewDomainError("INVALID_ACTION", "Audit action cannot exceed 100 characters")
	}
	resourceType = strings.TrimSpace(resourceType)
	if resourceType == "" {
		return nil, shared.NewDomainError("INVALID_RESOURCE", "Resource type cannot be empty")
	}

	return &Log{
		BaseEntity:   shared.NewBaseEntity(),
		OrgID:        orgID,
		ActorID:      actorID,
		ActorName:    strings.TrimSpace(actorName),
		Role:         role,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}, nil
}

// WithPayload records a digest of the request payload on the entry
func (l *Log) WithPayload(payload []byte) *Log {
	l.PayloadDigest = Digest(payload)
	return l
}

// WithMetadata attaches structured context to the entry
func (l *Log) WithMetadata(metadata map[string]string) *Log {
	if len(metadata) == 0 {
		return l
	}
	if l.Metadata == nil {
		l.Metadata = make(Metadata, len(metadata))
	}
	for k, v := range metadata {
		l.Metadata[k] = v
	}
	return l
}

// WithRequestContext records where the request came from
func (l *Log) WithRequestContext(ip, userAgent string) *Log {
	l.IP = ip
	if len(userAgent) > 500 {
		userAgent = userAgent[:500]
	}
	l.UserAgent = userAgent
	return l
}

// Digest computes the SHA-256 hex digest of a payload. Empty payloads
// produce an empty digest.
func Digest(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// LogFilter narrows audit log queries
type LogFilter struct {
	ActorID      *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   string
	From         *time.Time
	To           *time.Time
	Page         shared.Filter
}
