package api

// Backend resource models. Field sets follow the backend's JSON payloads;
// optional fields stay zero-valued when absent.

// UserProfile is the full user record the backend keeps. The session
// carries only the identity subset of it.
type UserProfile struct {
	ID           string `json:"id"`
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	BloodGroup   string `json:"bloodGroup,omitempty"`
	Phone        string `json:"phone,omitempty"`
	City         string `json:"city,omitempty"`
	LastDonation string `json:"lastDonation,omitempty"` // YYYY-MM-DD
}

// Appointment is a donation appointment.
type Appointment struct {
	ID              int64  `json:"id"`
	UserID          string `json:"userId"`
	CenterID        int64  `json:"centerId"`
	CenterName      string `json:"centerName,omitempty"`
	AppointmentDate string `json:"appointmentDate"` // YYYY-MM-DD
	TimeSlot        string `json:"timeSlot"`
	Status          string `json:"status"` // PENDING | CONFIRMED | COMPLETED | CANCELLED
	Notes           string `json:"notes,omitempty"`
}

// BookingRequest is the payload for booking or rescheduling.
type BookingRequest struct {
	UserID          string `json:"userId"`
	CenterID        int64  `json:"centerId"`
	AppointmentDate string `json:"appointmentDate"`
	TimeSlot        string `json:"timeSlot"`
}

// DonationCenter is a fixed donation site.
type DonationCenter struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	State     string  `json:"state,omitempty"`
	Pincode   string  `json:"pincode"`
	Contact   string  `json:"contact,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// DonationCamp is a temporary donation drive.
type DonationCamp struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location"`
	Date      string `json:"date"`
	Organizer string `json:"organizer,omitempty"`
	Contact   string `json:"contact,omitempty"`
}

// UrgentRequest is an urgent blood request.
type UrgentRequest struct {
	ID         int64  `json:"id"`
	BloodGroup string `json:"bloodGroup"`
	Units      int    `json:"units"`
	Hospital   string `json:"hospital"`
	City       string `json:"city"`
	Contact    string `json:"contact"`
	Fulfilled  bool   `json:"fulfilled"`
}

// Resource is an educational resource entry.
type Resource struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}

// Badge is a single gamification badge.
type Badge struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Earned      bool   `json:"earned"`
}

// BadgeData is a user's gamification summary.
type BadgeData struct {
	TotalDonations int     `json:"totalDonations"`
	Points         int     `json:"points"`
	Badges         []Badge `json:"badges"`
}

// BloodStockEntry is one blood group's stock level.
type BloodStockEntry struct {
	BloodGroup string `json:"bloodGroup"`
	Units      int    `json:"units"`
	Status     string `json:"status,omitempty"` // e.g. LOW, ADEQUATE
}

// HealthStats is the screening data recorded for a completed donation.
type HealthStats struct {
	AppointmentID int64   `json:"appointmentId"`
	Hemoglobin    float64 `json:"hemoglobin,omitempty"`
	BloodPressure string  `json:"bloodPressure,omitempty"`
	Pulse         int     `json:"pulse,omitempty"`
	Weight        float64 `json:"weight,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

// Feedback is a donor's feedback on a completed appointment.
type Feedback struct {
	Rating   int    `json:"rating"`
	Comments string `json:"comments,omitempty"`
}

// EligibilityRequest is the self-check questionnaire payload.
type EligibilityRequest struct {
	Age           int    `json:"age"`
	WeightKg      int    `json:"weightKg"`
	LastDonation  string `json:"lastDonation,omitempty"` // YYYY-MM-DD
	RecentIllness bool   `json:"recentIllness"`
	OnMedication  bool   `json:"onMedication"`
	RecentTattoo  bool   `json:"recentTattoo"`
}

// EligibilityResult is the backend's eligibility decision.
type EligibilityResult struct {
	Eligible bool     `json:"eligible"`
	Reasons  []string `json:"reasons,omitempty"`
}

// ReportsSummary is the platform-wide totals panel. Admin only.
type ReportsSummary struct {
	Donors         int `json:"donors"`
	Appointments   int `json:"appointments"`
	Donations      int `json:"donations"`
	UrgentRequests int `json:"urgentRequests"`
}

// MonthlyReports carries twelve months of counts, January first.
type MonthlyReports struct {
	Donations    []int `json:"donations"`
	Appointments []int `json:"appointments"`
}

// PlatformStats is the public landing-page counter set.
type PlatformStats struct {
	Donors     int `json:"donors"`
	LivesSaved int `json:"livesSaved"`
	Hospitals  int `json:"hospitals"`
}

// ChatHistoryMessage is one entry of the persisted chat history the
// backend keeps alongside the realtime feed.
type ChatHistoryMessage struct {
	Sender    string `json:"sender"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}
