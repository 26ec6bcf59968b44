package enum

import (
	"errors"
	"fmt"
)

// ErrUnknownValue is returned when a string does not name a member of a closed enum.
var ErrUnknownValue = errors.New("unknown enum value")

// FilterAll is the list filter value that matches any status or priority.
const FilterAll = "all"

// AppealStatus represents the lifecycle state of an appeal.
//
//go:generate go tool enumer -type=AppealStatus -trimprefix=AppealStatus -transform=snake -sql -text
type AppealStatus int

const (
	// AppealStatusPending is the state of every newly submitted appeal.
	AppealStatusPending AppealStatus = iota
	// AppealStatusUnderReview indicates a staff member is working the appeal.
	AppealStatusUnderReview
	// AppealStatusApproved indicates the punishment was lifted.
	AppealStatusApproved
	// AppealStatusDenied indicates the punishment stands. Closed appeals end here too.
	AppealStatusDenied
	// AppealStatusEscalated indicates the appeal needs senior staff.
	AppealStatusEscalated
)

// IsTerminal reports whether the status closes the review.
// Terminal transitions stamp the reviewer and review time.
func (s AppealStatus) IsTerminal() bool {
	switch s {
	case AppealStatusApproved, AppealStatusDenied:
		return true
	case AppealStatusPending, AppealStatusUnderReview, AppealStatusEscalated:
		return false
	default:
		return false
	}
}

// ParseAppealStatus converts an exact status name to an AppealStatus.
func ParseAppealStatus(s string) (AppealStatus, error) {
	status, err := AppealStatusString(s)
	if err != nil || status.String() != s {
		return 0, fmt.Errorf("%w: status %q", ErrUnknownValue, s)
	}
	return status, nil
}

// ParseAppealStatusFilter converts a list filter value to a status.
// An empty value or FilterAll yields nil, which matches every status.
func ParseAppealStatusFilter(s string) (*AppealStatus, error) {
	if s == "" || s == FilterAll {
		return nil, nil //nolint:nilnil // nil filter matches all
	}
	status, err := ParseAppealStatus(s)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// AppealPriority represents how urgently an appeal should be handled.
//
//go:generate go tool enumer -type=AppealPriority -trimprefix=AppealPriority -transform=snake -sql -text
type AppealPriority int

const (
	AppealPriorityLow AppealPriority = iota
	AppealPriorityNormal
	AppealPriorityHigh
	AppealPriorityUrgent
)

// Rank returns the sort rank of the priority. Lower ranks are listed first.
func (p AppealPriority) Rank() int {
	switch p {
	case AppealPriorityUrgent:
		return 0
	case AppealPriorityHigh:
		return 1
	case AppealPriorityNormal:
		return 2
	case AppealPriorityLow:
		return 3
	default:
		return 3
	}
}

// ParseAppealPriority converts an exact priority name to an AppealPriority.
func ParseAppealPriority(s string) (AppealPriority, error) {
	priority, err := AppealPriorityString(s)
	if err != nil || priority.String() != s {
		return 0, fmt.Errorf("%w: priority %q", ErrUnknownValue, s)
	}
	return priority, nil
}

// ParseAppealPriorityFilter converts a list filter value to a priority.
// An empty value or FilterAll yields nil, which matches every priority.
func ParseAppealPriorityFilter(s string) (*AppealPriority, error) {
	if s == "" || s == FilterAll {
		return nil, nil //nolint:nilnil // nil filter matches all
	}
	priority, err := ParseAppealPriority(s)
	if err != nil {
		return nil, err
	}
	return &priority, nil
}

// SenderType represents who wrote an appeal message.
//
//go:generate go tool enumer -type=SenderType -trimprefix=SenderType -transform=snake -sql -text
type SenderType int

const (
	SenderTypeUser SenderType = iota
	SenderTypeStaff
	SenderTypeSystem
)

// HistoryAction tags an entry in the appeal audit trail.
//
//go:generate go tool enumer -type=HistoryAction -trimprefix=HistoryAction -transform=snake-upper -sql -text
type HistoryAction int

const (
	HistoryActionCreated HistoryAction = iota
	HistoryActionStatusChanged
	HistoryActionPriorityChanged
	HistoryActionAssigned
	HistoryActionDeleted
)
