package model

// CheckinType is the way a car was handed back at the end of a rental.
type CheckinType string

const (
	CheckinMobile  CheckinType = "mobile"
	CheckinConnect CheckinType = "connect"
)

// CheckinTypes lists the checkin types in display order.
var CheckinTypes = []CheckinType{CheckinConnect, CheckinMobile}

// Rental is one row of the delay analysis spreadsheet.
// Nil pointers are cells that were empty in the source file.
type Rental struct {
	RentalID              int64       `json:"rental_id"`
	CarID                 int64       `json:"car_id"`
	CheckinType           CheckinType `json:"checkin_type"`
	State                 string      `json:"state"`
	DelayAtCheckout       *float64    `json:"delay_at_checkout_in_minutes"`
	PreviousEndedRentalID *int64      `json:"previous_ended_rental_id"`
	TimeDeltaWithPrevious *float64    `json:"time_delta_with_previous_rental_in_minutes"`
}

// Column names of the delay spreadsheet.
const (
	RentalIDColumn              = "rental_id"
	CarIDColumn                 = "car_id"
	CheckinTypeColumn           = "checkin_type"
	StateColumn                 = "state"
	DelayAtCheckoutColumn       = "delay_at_checkout_in_minutes"
	PreviousEndedRentalIDColumn = "previous_ended_rental_id"
	TimeDeltaColumn             = "time_delta_with_previous_rental_in_minutes"
)

// RentalColumns lists the delay spreadsheet columns in file order.
var RentalColumns = []string{
	RentalIDColumn,
	CarIDColumn,
	CheckinTypeColumn,
	StateColumn,
	DelayAtCheckoutColumn,
	PreviousEndedRentalIDColumn,
	TimeDeltaColumn,
}
