package treatment

import "errors"

var (
	ErrTreatmentNotFound = errors.New("treatment not found")
	ErrEmptyRegimen      = errors.New("treatment requires at least one regimen line")
	ErrProtocolRequired  = errors.New("treatment requires a selected protocol")
	ErrEndBeforeStart    = errors.New("treatment end date cannot precede start date")
)
