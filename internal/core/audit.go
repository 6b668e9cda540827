package core

import (
	"context"
	"encoding/json"
	"net"
	"net/netip"
	"time"

	"github.com/animelib/catalog/internal/database"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionCatalogCreate AuditAction = "catalog_create"
	ActionCatalogUpdate AuditAction = "catalog_update"
	ActionSystemEvent   AuditAction = "system_event"
)

// Audit roles. Imports run as the system.
const (
	RoleSystem = "system"
	RoleAdmin  = "admin"
)

// EntityImportBatch is the audit entity type for batch-level events.
const EntityImportBatch = "import_batch"

// DefaultAuditLimit is the page size used when a query omits one.
const DefaultAuditLimit = 50

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID          int64          `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	UserRole    string         `json:"user_role"`
	Action      AuditAction    `json:"action"`
	EntityType  string         `json:"entity_type"`
	EntityID    int64          `json:"entity_id"`
	Description string         `json:"description"`
	Changes     map[string]any `json:"changes,omitempty"`
	BatchID     string         `json:"batch_id,omitempty"`
	IPAddress   string         `json:"ip_address,omitempty"`
	UserAgent   string         `json:"user_agent,omitempty"`
}

// AuditLogParams contains parameters for creating an audit log entry.
// IPAddress and UserAgent fall back to the values stored on the context.
type AuditLogParams struct {
	Action      AuditAction
	UserRole    string
	EntityType  string
	EntityID    int64
	Description string
	Changes     any
	BatchID     string
	IPAddress   string
	UserAgent   string
}

// AuditLogger is what the orchestrator needs from the audit trail.
type AuditLogger interface {
	Log(ctx context.Context, params AuditLogParams) (*AuditEntry, error)
}

// AuditService reads and writes the audit_log table.
type AuditService struct {
	db database.DBTX
}

// NewAuditService creates a new audit service.
func NewAuditService(db database.DBTX) *AuditService {
	return &AuditService{db: db}
}

// Log creates a new audit log entry.
func (a *AuditService) Log(ctx context.Context, params AuditLogParams) (*AuditEntry, error) {
	if params.UserRole == "" {
		params.UserRole = RoleSystem
	}
	if params.IPAddress == "" {
		params.IPAddress = GetIPAddressFromContext(ctx)
	}
	if params.UserAgent == "" {
		params.UserAgent = GetUserAgentFromContext(ctx)
	}

	var changes []byte
	if params.Changes != nil {
		var err error
		changes, err = json.Marshal(params.Changes)
		if err != nil {
			changes = nil // Fall back to nil if marshaling fails
		}
	}

	insertParams := database.InsertAuditLogParams{
		UserRole:    params.UserRole,
		ActionType:  string(params.Action),
		EntityType:  params.EntityType,
		EntityID:    params.EntityID,
		Description: TruncateMessage(params.Description, MaxErrorMessageLength),
		Changes:     changes,
		BatchID:     ToPgUUID(params.BatchID),
		UserAgent:   ToPgText(&params.UserAgent),
	}

	// Strip port if present
	if params.IPAddress != "" {
		host := params.IPAddress
		if h, _, err := net.SplitHostPort(params.IPAddress); err == nil {
			host = h
		}
		if addr, err := netip.ParseAddr(host); err == nil {
			insertParams.IpAddress = &addr
		}
	}

	row, err := database.New(a.db).InsertAuditLog(ctx, insertParams)
	if err != nil {
		return nil, err
	}
	return auditRowToEntry(row), nil
}

// AuditLogOptions contains options for querying audit logs.
type AuditLogOptions struct {
	EntityType string
	BatchID    string
	Limit      int
	Offset     int
}

// GetAuditLog retrieves audit log entries, newest first.
func (a *AuditService) GetAuditLog(ctx context.Context, opts AuditLogOptions) ([]AuditEntry, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultAuditLimit
	}

	rows, err := database.New(a.db).ListAuditLog(ctx, database.ListAuditLogParams{
		EntityType: opts.EntityType,
		BatchID:    ToPgUUID(opts.BatchID),
		Limit:      int32(opts.Limit),
		Offset:     int32(opts.Offset),
	})
	if err != nil {
		return nil, err
	}

	entries := make([]AuditEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, *auditRowToEntry(row))
	}
	return entries, nil
}

// ArchiveOldAuditLogs moves entries older than daysToKeep to the archive
// table, at most batchSize rows per call.
func (a *AuditService) ArchiveOldAuditLogs(ctx context.Context, daysToKeep, batchSize int) (int64, error) {
	return database.New(a.db).ArchiveOldAuditLogs(ctx, database.ArchiveOldAuditLogsParams{
		Column1: int32(daysToKeep),
		Column2: int32(batchSize),
	})
}

// PurgeOldArchives deletes archived entries older than yearsToKeep.
func (a *AuditService) PurgeOldArchives(ctx context.Context, yearsToKeep int) (int64, error) {
	return database.New(a.db).PurgeOldArchives(ctx, int32(yearsToKeep))
}

func auditRowToEntry(row database.AuditLog) *AuditEntry {
	entry := &AuditEntry{
		ID:          row.ID,
		Timestamp:   row.EventTimestamp.Time,
		UserRole:    row.UserRole,
		Action:      AuditAction(row.ActionType),
		EntityType:  row.EntityType,
		EntityID:    row.EntityID,
		Description: row.Description,
		BatchID:     PgUUIDToString(row.BatchID),
		UserAgent:   row.UserAgent.String,
	}
	if row.IpAddress != nil {
		entry.IPAddress = row.IpAddress.String()
	}
	if len(row.Changes) > 0 {
		var changes map[string]any
		if err := json.Unmarshal(row.Changes, &changes); err == nil {
			entry.Changes = changes
		}
	}
	return entry
}
