package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
)

// ---------------------------------------------------------------------------
// Appointments
// ---------------------------------------------------------------------------

// Appointments returns a user's appointments.
func (c *Client) Appointments(ctx context.Context, userID string) ([]Appointment, error) {
	var out []Appointment
	err := c.do(ctx, http.MethodGet, "/appointments/user/"+url.PathEscape(userID), nil, nil, &out)
	return out, err
}

// AppointmentHistory returns a user's past appointments.
func (c *Client) AppointmentHistory(ctx context.Context, userID string) ([]Appointment, error) {
	var out []Appointment
	err := c.do(ctx, http.MethodGet, "/appointments/history/"+url.PathEscape(userID), nil, nil, &out)
	return out, err
}

// UpcomingAppointments returns a user's upcoming appointments.
func (c *Client) UpcomingAppointments(ctx context.Context, userID string) ([]Appointment, error) {
	var out []Appointment
	err := c.do(ctx, http.MethodGet, "/appointments/upcoming/"+url.PathEscape(userID), nil, nil, &out)
	return out, err
}

// AvailableSlots returns the open time slots at a center on a date
// (YYYY-MM-DD).
func (c *Client) AvailableSlots(ctx context.Context, centerID int64, date string) ([]string, error) {
	query := url.Values{}
	query.Set("centerId", strconv.FormatInt(centerID, 10))
	query.Set("date", date)
	var out []string
	err := c.do(ctx, http.MethodGet, "/appointments/available-slots", query, nil, &out)
	return out, err
}

// BookAppointment books a new appointment. Slot conflicts come back as
// *APIError with the backend's message.
func (c *Client) BookAppointment(ctx context.Context, req BookingRequest) (*Appointment, error) {
	var out Appointment
	if err := c.do(ctx, http.MethodPost, "/appointments/book", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RescheduleAppointment moves an existing appointment to a new slot.
func (c *Client) RescheduleAppointment(ctx context.Context, appointmentID int64, req BookingRequest) (*Appointment, error) {
	var out Appointment
	path := fmt.Sprintf("/appointments/%d", appointmentID)
	if err := c.do(ctx, http.MethodPut, path, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelAppointment cancels an appointment.
func (c *Client) CancelAppointment(ctx context.Context, appointmentID int64) error {
	path := fmt.Sprintf("/appointments/cancel/%d", appointmentID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// CompleteAppointment marks an appointment completed with its screening
// stats. Admin only.
func (c *Client) CompleteAppointment(ctx context.Context, appointmentID int64, stats HealthStats) error {
	path := fmt.Sprintf("/appointments/%d/complete", appointmentID)
	return c.do(ctx, http.MethodPut, path, nil, stats, nil)
}

// AllAppointments returns every appointment. Admin only.
func (c *Client) AllAppointments(ctx context.Context) ([]Appointment, error) {
	var out []Appointment
	err := c.do(ctx, http.MethodGet, "/admin/appointments", nil, nil, &out)
	return out, err
}

// UpdateAppointmentStatus sets an appointment's status. Admin only.
func (c *Client) UpdateAppointmentStatus(ctx context.Context, appointmentID int64, status string) error {
	path := fmt.Sprintf("/admin/appointments/%d/status", appointmentID)
	return c.do(ctx, http.MethodPut, path, nil, map[string]string{"status": status}, nil)
}

// ---------------------------------------------------------------------------
// Donation centers and camps
// ---------------------------------------------------------------------------

var digitsOnly = regexp.MustCompile(`^\d+$`)

// DonationCenters lists all donation centers.
func (c *Client) DonationCenters(ctx context.Context) ([]DonationCenter, error) {
	var out []DonationCenter
	err := c.do(ctx, http.MethodGet, "/donationCenters", nil, nil, &out)
	return out, err
}

// SearchDonationCenters searches centers by city name, or by pincode when
// the query is all digits. An empty query lists everything.
func (c *Client) SearchDonationCenters(ctx context.Context, queryText string) ([]DonationCenter, error) {
	if queryText == "" {
		return c.DonationCenters(ctx)
	}
	path := "/donationCenters/search/city"
	query := url.Values{}
	if digitsOnly.MatchString(queryText) {
		path = "/donationCenters/search/pincode"
		query.Set("pincode", queryText)
	} else {
		query.Set("city", queryText)
	}
	var out []DonationCenter
	err := c.do(ctx, http.MethodGet, path, query, nil, &out)
	return out, err
}

// CreateDonationCenter adds a center. Admin only.
func (c *Client) CreateDonationCenter(ctx context.Context, center DonationCenter) (*DonationCenter, error) {
	var out DonationCenter
	if err := c.do(ctx, http.MethodPost, "/donationCenters", nil, center, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateDonationCenter updates a center. Admin only.
func (c *Client) UpdateDonationCenter(ctx context.Context, center DonationCenter) error {
	path := fmt.Sprintf("/donationCenters/%d", center.ID)
	return c.do(ctx, http.MethodPut, path, nil, center, nil)
}

// DeleteDonationCenter removes a center. Admin only.
func (c *Client) DeleteDonationCenter(ctx context.Context, centerID int64) error {
	path := fmt.Sprintf("/donationCenters/%d", centerID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// DonationCamps lists all donation camps.
func (c *Client) DonationCamps(ctx context.Context) ([]DonationCamp, error) {
	var out []DonationCamp
	err := c.do(ctx, http.MethodGet, "/donationCamps", nil, nil, &out)
	return out, err
}

// CreateDonationCamp adds a camp. Admin only.
func (c *Client) CreateDonationCamp(ctx context.Context, camp DonationCamp) (*DonationCamp, error) {
	var out DonationCamp
	if err := c.do(ctx, http.MethodPost, "/donationCamps", nil, camp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateDonationCamp updates a camp. Admin only.
func (c *Client) UpdateDonationCamp(ctx context.Context, camp DonationCamp) error {
	path := fmt.Sprintf("/donationCamps/%d", camp.ID)
	return c.do(ctx, http.MethodPut, path, nil, camp, nil)
}

// DeleteDonationCamp removes a camp. Admin only.
func (c *Client) DeleteDonationCamp(ctx context.Context, campID int64) error {
	path := fmt.Sprintf("/donationCamps/%d", campID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// ---------------------------------------------------------------------------
// Urgent requests
// ---------------------------------------------------------------------------

// UrgentRequests lists all urgent blood requests.
func (c *Client) UrgentRequests(ctx context.Context) ([]UrgentRequest, error) {
	var out []UrgentRequest
	err := c.do(ctx, http.MethodGet, "/urgent-requests/all", nil, nil, &out)
	return out, err
}

// CreateUrgentRequest posts a new urgent request. Admin only.
func (c *Client) CreateUrgentRequest(ctx context.Context, req UrgentRequest) (*UrgentRequest, error) {
	var out UrgentRequest
	if err := c.do(ctx, http.MethodPost, "/urgent-requests/add", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FulfillUrgentRequest marks an urgent request fulfilled. Admin only.
func (c *Client) FulfillUrgentRequest(ctx context.Context, requestID int64) error {
	path := fmt.Sprintf("/urgent-requests/fulfill/%d", requestID)
	return c.do(ctx, http.MethodPut, path, nil, nil, nil)
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// UserProfile returns a user's profile.
func (c *Client) UserProfile(ctx context.Context, userID string) (*UserProfile, error) {
	var out UserProfile
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUserProfile updates a user's profile.
func (c *Client) UpdateUserProfile(ctx context.Context, userID string, profile UserProfile) error {
	return c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(userID), nil, profile, nil)
}

// AllUsers lists every user. Admin only.
func (c *Client) AllUsers(ctx context.Context) ([]UserProfile, error) {
	var out []UserProfile
	err := c.do(ctx, http.MethodGet, "/admin/users", nil, nil, &out)
	return out, err
}

// DeleteUser removes a user account. Admin only.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(userID), nil, nil, nil)
}

// CheckEligibility submits the self-check questionnaire. The decision is
// the backend's; nothing is evaluated client-side.
func (c *Client) CheckEligibility(ctx context.Context, req EligibilityRequest) (*EligibilityResult, error) {
	var out EligibilityResult
	if err := c.do(ctx, http.MethodPost, "/users/eligibility-check", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---------------------------------------------------------------------------
// Dashboards, resources, gamification, feedback, chat history
// ---------------------------------------------------------------------------

// BloodStock returns current stock levels per blood group.
func (c *Client) BloodStock(ctx context.Context) ([]BloodStockEntry, error) {
	var out []BloodStockEntry
	err := c.do(ctx, http.MethodGet, "/bloodStock", nil, nil, &out)
	return out, err
}

// HealthStatsFor returns the screening stats of a completed appointment.
func (c *Client) HealthStatsFor(ctx context.Context, appointmentID int64) (*HealthStats, error) {
	var out HealthStats
	path := fmt.Sprintf("/healthstats/%d", appointmentID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserHealthStats returns a user's most recent screening stats.
func (c *Client) UserHealthStats(ctx context.Context, userID string) (*HealthStats, error) {
	var out HealthStats
	if err := c.do(ctx, http.MethodGet, "/healthStats/"+url.PathEscape(userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Resources lists educational resources.
func (c *Client) Resources(ctx context.Context) ([]Resource, error) {
	var out []Resource
	err := c.do(ctx, http.MethodGet, "/resources", nil, nil, &out)
	return out, err
}

// AddResource adds a resource. Admin only.
func (c *Client) AddResource(ctx context.Context, res Resource) (*Resource, error) {
	var out Resource
	if err := c.do(ctx, http.MethodPost, "/resources/add", nil, res, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BadgeData returns a user's gamification summary.
func (c *Client) BadgeData(ctx context.Context, userID string) (*BadgeData, error) {
	var out BadgeData
	if err := c.do(ctx, http.MethodGet, "/gamification/"+url.PathEscape(userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitFeedback posts feedback for a completed appointment.
func (c *Client) SubmitFeedback(ctx context.Context, appointmentID int64, fb Feedback) error {
	path := fmt.Sprintf("/feedbacks/%d", appointmentID)
	return c.do(ctx, http.MethodPost, path, nil, fb, nil)
}

// ChatMessages returns the persisted chat history for a user.
func (c *Client) ChatMessages(ctx context.Context, userID string) ([]ChatHistoryMessage, error) {
	var out []ChatHistoryMessage
	err := c.do(ctx, http.MethodGet, "/chat/messages/"+url.PathEscape(userID), nil, nil, &out)
	return out, err
}

// ---------------------------------------------------------------------------
// Reports and platform stats
// ---------------------------------------------------------------------------

// ReportsSummary returns the platform-wide totals. Admin only.
func (c *Client) ReportsSummary(ctx context.Context) (*ReportsSummary, error) {
	var out ReportsSummary
	if err := c.do(ctx, http.MethodGet, "/reports/summary", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MonthlyReports returns per-month donation and appointment counts for
// the current year. Admin only.
func (c *Client) MonthlyReports(ctx context.Context) (*MonthlyReports, error) {
	var out MonthlyReports
	if err := c.do(ctx, http.MethodGet, "/reports/monthly", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PlatformStats returns the public landing-page counters. No session
// required.
func (c *Client) PlatformStats(ctx context.Context) (*PlatformStats, error) {
	var out PlatformStats
	if err := c.doPublic(ctx, http.MethodGet, "/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
