package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchDonationCenters_Routing(t *testing.T) {
	var gotPath, gotQuery string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	})
	client, _ := newTestClient(t, handler, nil)
	ctx := context.Background()

	if _, err := client.SearchDonationCenters(ctx, "560001"); err != nil {
		t.Fatalf("pincode search error: %v", err)
	}
	if gotPath != "/donationCenters/search/pincode" || gotQuery != "pincode=560001" {
		t.Errorf("digit query routed to %s?%s, want pincode search", gotPath, gotQuery)
	}

	if _, err := client.SearchDonationCenters(ctx, "Bengaluru"); err != nil {
		t.Fatalf("city search error: %v", err)
	}
	if gotPath != "/donationCenters/search/city" || gotQuery != "city=Bengaluru" {
		t.Errorf("city query routed to %s?%s, want city search", gotPath, gotQuery)
	}

	if _, err := client.SearchDonationCenters(ctx, ""); err != nil {
		t.Fatalf("empty search error: %v", err)
	}
	if gotPath != "/donationCenters" {
		t.Errorf("empty query routed to %s, want plain listing", gotPath)
	}
}

func TestAvailableSlots(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/appointments/available-slots" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("centerId") != "7" || r.URL.Query().Get("date") != "2026-09-01" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Write([]byte(`["09:00","09:30","11:00"]`))
	})
	client, _ := newTestClient(t, handler, nil)

	slots, err := client.AvailableSlots(context.Background(), 7, "2026-09-01")
	if err != nil {
		t.Fatalf("AvailableSlots() error: %v", err)
	}
	if len(slots) != 3 || slots[2] != "11:00" {
		t.Errorf("slots = %v", slots)
	}
}

func TestBadgeData(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gamification/u1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"totalDonations":4,"points":120,"badges":[{"name":"First Drop","earned":true},{"name":"Regular","earned":false}]}`))
	})
	client, _ := newTestClient(t, handler, nil)

	data, err := client.BadgeData(context.Background(), "u1")
	if err != nil {
		t.Fatalf("BadgeData() error: %v", err)
	}
	if data.TotalDonations != 4 || len(data.Badges) != 2 || !data.Badges[0].Earned {
		t.Errorf("BadgeData() = %+v", data)
	}
}

func TestUpdateAppointmentStatus(t *testing.T) {
	var gotMethod, gotPath, gotBody string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		buf := make([]byte, 256)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.WriteHeader(http.StatusOK)
	})
	client, _ := newTestClient(t, handler, nil)

	if err := client.UpdateAppointmentStatus(context.Background(), 42, "CONFIRMED"); err != nil {
		t.Fatalf("UpdateAppointmentStatus() error: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/admin/appointments/42/status" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
	if gotBody != `{"status":"CONFIRMED"}` {
		t.Errorf("body = %s", gotBody)
	}
}

func TestReports(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-test" {
			t.Errorf("missing bearer header on %s", r.URL.Path)
		}
		switch r.URL.Path {
		case "/reports/summary":
			w.Write([]byte(`{"donors":120,"appointments":340,"donations":280,"urgentRequests":15}`))
		case "/reports/monthly":
			w.Write([]byte(`{"donations":[65,59,80],"appointments":[28,48,40]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	client, _ := newTestClient(t, handler, nil)
	ctx := context.Background()

	summary, err := client.ReportsSummary(ctx)
	if err != nil {
		t.Fatalf("ReportsSummary() error: %v", err)
	}
	if summary.Donors != 120 || summary.UrgentRequests != 15 {
		t.Errorf("summary = %+v", summary)
	}

	monthly, err := client.MonthlyReports(ctx)
	if err != nil {
		t.Fatalf("MonthlyReports() error: %v", err)
	}
	if len(monthly.Donations) != 3 || monthly.Appointments[1] != 48 {
		t.Errorf("monthly = %+v", monthly)
	}
}

func TestPlatformStatsIsPublic(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stats" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("landing-page stats must not carry the bearer token")
		}
		w.Write([]byte(`{"donors":5000,"livesSaved":12000,"hospitals":150}`))
	})
	client, _ := newTestClient(t, handler, nil)

	stats, err := client.PlatformStats(context.Background())
	if err != nil {
		t.Fatalf("PlatformStats() error: %v", err)
	}
	if stats.LivesSaved != 12000 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestUserHealthStats(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthStats/u1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"appointmentId":9,"hemoglobin":13.5,"pulse":72}`))
	})
	client, _ := newTestClient(t, handler, nil)

	stats, err := client.UserHealthStats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("UserHealthStats() error: %v", err)
	}
	if stats.Pulse != 72 || stats.Hemoglobin != 13.5 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestDeleteUser(t *testing.T) {
	var gotMethod, gotPath string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	})
	client, _ := newTestClient(t, handler, nil)

	if err := client.DeleteUser(context.Background(), "u9"); err != nil {
		t.Fatalf("DeleteUser() error: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/users/u9" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("NewClient with empty config should fail")
	}

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	if _, err := NewClient(Config{BaseURL: server.URL}); err == nil {
		t.Error("NewClient without a store should fail")
	}
}
