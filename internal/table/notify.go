package table

import (
	"errors"
	"fmt"
)

// NotificationKind is the severity of a user notification.
type NotificationKind string

const (
	KindSuccess NotificationKind = "success"
	KindInfo    NotificationKind = "info"
	KindWarning NotificationKind = "warning"
	KindError   NotificationKind = "error"
)

// Notification is a message shown to the user after an operation.
type Notification struct {
	Kind    NotificationKind
	Message string
}

// NotificationFor turns the outcome of an operation into a user notification.
// A nil error yields a success notification with an empty message.
func NotificationFor(err error) Notification {
	var already *AlreadyExportedError
	switch {
	case err == nil:
		return Notification{Kind: KindSuccess}
	case errors.As(err, &already):
		return Notification{Kind: KindInfo, Message: already.Error()}
	case errors.Is(err, ErrUnauthorized):
		return Notification{Kind: KindError, Message: "Session expired, please log in again"}
	case errors.Is(err, ErrNothingSelected),
		errors.Is(err, ErrNoChanges),
		errors.Is(err, ErrNotSingleSelection),
		errors.Is(err, ErrPageOutOfRange):
		return Notification{Kind: KindWarning, Message: err.Error()}
	case errors.Is(err, ErrIndexStale):
		return Notification{Kind: KindWarning, Message: ErrIndexStale.Error()}
	case errors.Is(err, ErrSuperseded):
		return Notification{Kind: KindInfo, Message: err.Error()}
	default:
		return Notification{Kind: KindError, Message: fmt.Sprintf("Operation failed: %v", err)}
	}
}

// ExportNotification describes a successful export.
func ExportNotification(res ExportResult) Notification {
	msg := fmt.Sprintf("Exported %d properties with %d contracts", len(res.ExportedIDs), res.ContractsCount)
	if res.AlreadyExported > 0 {
		msg += fmt.Sprintf(" (%d already exported)", res.AlreadyExported)
	}
	return Notification{Kind: KindSuccess, Message: msg}
}

// SaveNotification describes a successful edit.
func SaveNotification(res SaveResult) Notification {
	if res.SyncErr != nil {
		return Notification{Kind: KindWarning, Message: fmt.Sprintf("Property %d saved, export record not updated: %v", res.Property.ID, res.SyncErr)}
	}
	if res.Handle != "" {
		return Notification{Kind: KindSuccess, Message: fmt.Sprintf("Property %d saved and export record %s updated", res.Property.ID, res.Handle)}
	}
	return Notification{Kind: KindSuccess, Message: fmt.Sprintf("Property %d saved", res.Property.ID)}
}
