package clinicapi

// Response shapes for the upstream clinic API. All fields are pointers (or
// slices) so missing and present-but-zero can be told apart when validating.

type clinicSettingsResponse struct {
	Clinic *clinicAPIClinic `json:"clinic"`
	Error  *string          `json:"error,omitempty"`
}

type clinicAPIClinic struct {
	ID              *string `json:"id"`
	Name            *string `json:"name"`
	Timezone        *string `json:"timezone"`
	SlotMinutes     *int    `json:"slotMinutes"`
	BookingLeadDays *int    `json:"bookingLeadDays"`
	ClosedWeekdays  []int   `json:"closedWeekdays"`
	LineChannelID   *string `json:"lineChannelId,omitempty"`
}

type appointmentListResponse struct {
	Appointments []clinicAPIAppointment `json:"appointments"`
	Error        *string                `json:"error,omitempty"`
}

type clinicAPIAppointment struct {
	ID               *string `json:"id"`
	PatientID        *string `json:"patientId"`
	StartsAt         *string `json:"startsAt"`
	EndsAt           *string `json:"endsAt"`
	Status           *string `json:"status"`
	PractitionerName *string `json:"practitionerName,omitempty"`
	Note             *string `json:"note,omitempty"`
}

type patientResponse struct {
	Patient *clinicAPIPatient `json:"patient"`
	Error   *string           `json:"error,omitempty"`
}

type clinicAPIPatient struct {
	ID          *string `json:"id"`
	DisplayName *string `json:"displayName"`
	Kana        *string `json:"kana,omitempty"`
	BirthDate   *string `json:"birthDate,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	LineUserID  *string `json:"lineUserId,omitempty"`
}
