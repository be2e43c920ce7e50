package domain

import "time"

type ClinicSettings struct {
	QueriedAt time.Time

	ClinicID string

	Name            string
	Timezone        string
	SlotMinutes     int
	BookingLeadDays int
	ClosedWeekdays  []time.Weekday
	LineChannelID   *string
}

type AppointmentStatus string

const (
	AppointmentStatusBooked    AppointmentStatus = "booked"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

type Appointment struct {
	QueriedAt time.Time

	ID        string
	ClinicID  string
	PatientID string

	StartsAt time.Time
	EndsAt   time.Time
	Status   AppointmentStatus

	PractitionerName *string
	Note             *string
}

type Patient struct {
	QueriedAt time.Time

	ID       string
	ClinicID string

	DisplayName string
	Kana        *string
	BirthDate   *time.Time
	Phone       *string
	LineUserID  *string
}
