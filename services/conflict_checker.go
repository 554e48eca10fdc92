package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type SlotKeyMode string

const (
	// SlotKeyDate treats every calendar date as a single bookable slot.
	SlotKeyDate SlotKeyMode = "date"
	// SlotKeyInstructorDateTime keys slots on date, instructor and start time.
	SlotKeyInstructorDateTime SlotKeyMode = "instructor_date_time"
)

func ParseSlotKeyMode(s string) SlotKeyMode {
	if SlotKeyMode(strings.ToLower(s)) == SlotKeyInstructorDateTime {
		return SlotKeyInstructorDateTime
	}
	return SlotKeyDate
}

type SlotRequest struct {
	Date         string
	InstructorID *uuid.UUID
	StartTime    *string
}

// ConflictChecker decides whether a slot is already held by a non-cancelled
// booking. Keys are compared for exact equality, there is no interval math.
type ConflictChecker struct {
	store      ConflictStore
	mode       SlotKeyMode
	failClosed bool
}

// NewConflictChecker builds a checker. With failClosedOnMissingDate unset a
// request without a date is reported as conflict-free.
func NewConflictChecker(store ConflictStore, mode SlotKeyMode, failClosedOnMissingDate bool) *ConflictChecker {
	return &ConflictChecker{store: store, mode: mode, failClosed: failClosedOnMissingDate}
}

func (c *ConflictChecker) Mode() SlotKeyMode {
	return c.mode
}

func (c *ConflictChecker) SlotKey(slot SlotRequest) string {
	if c.mode != SlotKeyInstructorDateTime {
		return slot.Date
	}
	instructor := ""
	if slot.InstructorID != nil {
		instructor = slot.InstructorID.String()
	}
	start := ""
	if slot.StartTime != nil {
		start = *slot.StartTime
	}
	return slot.Date + "|" + instructor + "|" + start
}

func (c *ConflictChecker) HasConflict(ctx context.Context, slot SlotRequest, excludeID *uuid.UUID) (bool, error) {
	return c.Check(ctx, c.store, slot, excludeID)
}

// Check runs the lookup against store, which lets callers pass a transaction.
func (c *ConflictChecker) Check(ctx context.Context, store ConflictStore, slot SlotRequest, excludeID *uuid.UUID) (bool, error) {
	if strings.TrimSpace(slot.Date) == "" {
		if c.failClosed {
			return false, ValidationError("date", "date is required to check for booking conflicts")
		}
		return false, nil
	}
	exists, err := store.ExistsConflictingBooking(ctx, c.SlotKey(slot), excludeID)
	if err != nil {
		return false, StoreError("conflict check", err)
	}
	return exists, nil
}
