package wizard

import "errors"

var (
	ErrServiceNotSelected  = errors.New("no service selected")
	ErrDateNotSelected     = errors.New("no date selected")
	ErrSlotNotSelected     = errors.New("no slot selected")
	ErrSlotNotInGrid       = errors.New("slot is not in the bookable grid")
	ErrDoctorNotSelected   = errors.New("no doctor selected")
	ErrProtocolNotSelected = errors.New("no protocol selected")
	ErrInvalidStep         = errors.New("operation not valid in the current step")
	ErrFlowFinished        = errors.New("flow already finished")
)
