package service

import (
	"errors"

	"github.com/grievance_desk/backend/internal/triage"
)

var (
	ErrClassificationDefaulted = triage.ErrClassificationDefaulted
	ErrNoUnitForCategory       = errors.New("no unit for category")
	ErrNoOfficersAvailable     = errors.New("no officers available")
	ErrAlreadyAssigned         = errors.New("grievance already assigned")
	ErrInvalidOfficer          = errors.New("invalid officer")
	ErrGrievanceNotFound       = errors.New("grievance not found")
	ErrInvalidStatus           = errors.New("invalid status")
	ErrFeedbackNotAllowed      = errors.New("feedback allowed only on resolved grievances")
	ErrNotSubmitter            = errors.New("only the submitting citizen may give feedback")
	ErrInvalidRating           = errors.New("rating must be between 1 and 5")
	ErrInvalidInput            = errors.New("invalid input")
)

var reasonCodes = []struct {
	err  error
	code string
}{
	{ErrClassificationDefaulted, "CLASSIFICATION_DEFAULTED"},
	{ErrNoUnitForCategory, "NO_UNIT_FOR_CATEGORY"},
	{ErrNoOfficersAvailable, "NO_OFFICERS_AVAILABLE"},
	{ErrAlreadyAssigned, "ALREADY_ASSIGNED"},
	{ErrInvalidOfficer, "INVALID_OFFICER"},
	{ErrGrievanceNotFound, "GRIEVANCE_NOT_FOUND"},
	{ErrInvalidStatus, "INVALID_STATUS"},
	{ErrFeedbackNotAllowed, "FEEDBACK_NOT_ALLOWED"},
	{ErrNotSubmitter, "NOT_SUBMITTER"},
	{ErrInvalidRating, "INVALID_RATING"},
	{ErrInvalidInput, "INVALID_INPUT"},
}

// ReasonCode maps an engine error to the stable code reported to callers.
// Unknown errors map to INTERNAL_ERROR; nil maps to "".
func ReasonCode(err error) string {
	if err == nil {
		return ""
	}
	for _, rc := range reasonCodes {
		if errors.Is(err, rc.err) {
			return rc.code
		}
	}
	return "INTERNAL_ERROR"
}
