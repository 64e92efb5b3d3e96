package event

import (
	"github.com/casaops/backend/internal/domain/ledger"
	"github.com/casaops/backend/internal/domain/printing"
	"github.com/casaops/backend/internal/domain/property"
	"github.com/casaops/backend/internal/domain/settings"
	"github.com/casaops/backend/internal/domain/tenancy"
)

// RegisterAllEvents registers all domain event types with the serializer
// This is required for the OutboxProcessor to deserialize events from the outbox table
func RegisterAllEvents(serializer *EventSerializer) {
	// Ledger domain - Bill events
	serializer.Register(ledger.EventTypeBillGenerated, &ledger.BillGeneratedEvent{})
	serializer.Register(ledger.EventTypeBillPenaltyApplied, &ledger.BillPenaltyAppliedEvent{})
	serializer.Register(ledger.EventTypeBillPaymentApplied, &ledger.BillPaymentAppliedEvent{})
	serializer.Register(ledger.EventTypeBillPaymentReverted, &ledger.BillPaymentRevertedEvent{})
	serializer.Register(ledger.EventTypeBillFullyPaid, &ledger.BillFullyPaidEvent{})

	// Ledger domain - Payment events
	serializer.Register(ledger.EventTypePaymentRecorded, &ledger.PaymentRecordedEvent{})
	serializer.Register(ledger.EventTypePaymentReversed, &ledger.PaymentReversedEvent{})

	// Property domain - Branch events
	serializer.Register(property.EventTypeBranchCreated, &property.BranchCreatedEvent{})
	serializer.Register(property.EventTypeBranchUpdated, &property.BranchUpdatedEvent{})
	serializer.Register(property.EventTypeBranchRatesChanged, &property.BranchRatesChangedEvent{})
	serializer.Register(property.EventTypeBranchArchived, &property.BranchArchivedEvent{})

	// Property domain - Room events
	serializer.Register(property.EventTypeRoomCreated, &property.RoomCreatedEvent{})
	serializer.Register(property.EventTypeRoomUpdated, &property.RoomUpdatedEvent{})
	serializer.Register(property.EventTypeRoomRentChanged, &property.RoomRentChangedEvent{})
	serializer.Register(property.EventTypeRoomOccupied, &property.RoomOccupiedEvent{})
	serializer.Register(property.EventTypeRoomVacated, &property.RoomVacatedEvent{})
	serializer.Register(property.EventTypeRoomMaintenanceStarted, &property.RoomMaintenanceStartedEvent{})
	serializer.Register(property.EventTypeRoomMaintenanceEnded, &property.RoomMaintenanceEndedEvent{})

	// Tenancy domain events
	serializer.Register(tenancy.EventTypeTenantMovedIn, &tenancy.TenantMovedInEvent{})
	serializer.Register(tenancy.EventTypeTenantUpdated, &tenancy.TenantUpdatedEvent{})
	serializer.Register(tenancy.EventTypeTenantRentChanged, &tenancy.TenantRentChangedEvent{})
	serializer.Register(tenancy.EventTypeTenantMovedOut, &tenancy.TenantMovedOutEvent{})
	serializer.Register(tenancy.EventTypeTenantTransferred, &tenancy.TenantTransferredEvent{})

	// Settings domain events
	serializer.Register(settings.EventTypeSettingsInitialized, &settings.SettingsInitializedEvent{})
	serializer.Register(settings.EventTypeSettingsUpdated, &settings.SettingsUpdatedEvent{})

	// Printing domain - template events
	serializer.Register(printing.EventTypePrintTemplateCreated, &printing.PrintTemplateCreatedEvent{})
	serializer.Register(printing.EventTypePrintTemplateUpdated, &printing.PrintTemplateUpdatedEvent{})
	serializer.Register(printing.EventTypePrintTemplateStatusChanged, &printing.PrintTemplateStatusChangedEvent{})
	serializer.Register(printing.EventTypePrintTemplateSetAsDefault, &printing.PrintTemplateSetAsDefaultEvent{})
	serializer.Register(printing.EventTypePrintTemplateDeleted, &printing.PrintTemplateDeletedEvent{})

	// Printing domain - job events
	serializer.Register(printing.EventTypePrintJobCreated, &printing.PrintJobCreatedEvent{})
	serializer.Register(printing.EventTypePrintJobStatusChanged, &printing.PrintJobStatusChangedEvent{})
	serializer.Register(printing.EventTypePrintJobCompleted, &printing.PrintJobCompletedEvent{})
	serializer.Register(printing.EventTypePrintJobFailed, &printing.PrintJobFailedEvent{})
}
