package catalog

import "errors"

var (
	ErrServiceNotFound  = errors.New("service not found")
	ErrMedicineNotFound = errors.New("medicine not found")
	ErrProtocolNotFound = errors.New("protocol not found")
	ErrInvalidCategory  = errors.New("invalid service category")
	ErrServiceInactive  = errors.New("service is not bookable")
)
