package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/lifelink/donorlink/internal/api"
	"github.com/lifelink/donorlink/internal/session"
)

// currentUser loads the stored identity. Guarded commands have already
// passed the access check, so a missing session here is a hard stop.
func currentUser(ctx context.Context, store session.Store) session.User {
	sess, err := store.Read(ctx)
	if err != nil {
		log.Fatalf("read session: %v", err)
	}
	if sess == nil {
		log.Fatalf("not signed in; run 'donorctl login'")
	}
	return sess.User
}

func prompt(label string) string {
	fmt.Printf("%s: ", label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		log.Fatalf("read input: %v", err)
	}
	return strings.TrimSpace(line)
}

// -----------------------------------------------------------------------
// Account
// -----------------------------------------------------------------------

func runLogin(ctx context.Context, client *api.Client, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Account email (prompted when empty)")
	fs.Parse(args)

	addr := *email
	if addr == "" {
		addr = prompt("Email")
	}
	password := prompt("Password")

	sess, err := client.Login(ctx, addr, password)
	if err != nil {
		log.Fatalf("login: %v", err)
	}
	fmt.Printf("Signed in as %s (%s)\n", sess.User.FullName, sess.User.Role)
}

func runRegister(ctx context.Context, client *api.Client, args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	bloodGroup := fs.String("blood-group", "", "Blood group, e.g. O+")
	phone := fs.String("phone", "", "Contact phone")
	city := fs.String("city", "", "Home city")
	fs.Parse(args)

	req := api.RegisterRequest{
		FullName:   prompt("Full name"),
		Email:      prompt("Email"),
		Password:   prompt("Password"),
		BloodGroup: *bloodGroup,
		Phone:      *phone,
		City:       *city,
	}
	sess, err := client.Register(ctx, req)
	if err != nil {
		log.Fatalf("register: %v", err)
	}
	fmt.Printf("Account created. Signed in as %s (%s)\n", sess.User.FullName, sess.User.Role)
}

func runLogout(ctx context.Context, client *api.Client) {
	if err := client.Logout(ctx); err != nil {
		log.Fatalf("logout: %v", err)
	}
	fmt.Println("Signed out.")
}

func runWhoami(ctx context.Context, store session.Store) {
	sess, err := store.Read(ctx)
	if err != nil {
		log.Fatalf("read session: %v", err)
	}
	if sess == nil {
		fmt.Println("Not signed in.")
		return
	}
	fmt.Printf("%s <%s> role=%s\n", sess.User.FullName, sess.User.Email, sess.User.Role)
}

func runValidate(ctx context.Context, client *api.Client) {
	user, err := client.Validate(ctx)
	if err != nil {
		log.Fatalf("validate: %v", err)
	}
	fmt.Printf("Session valid for %s (%s)\n", user.FullName, user.Role)
}

// -----------------------------------------------------------------------
// Centers, camps, slots
// -----------------------------------------------------------------------

func runCenters(ctx context.Context, client *api.Client, args []string) {
	var (
		centers []api.DonationCenter
		err     error
	)
	if len(args) > 0 {
		centers, err = client.SearchDonationCenters(ctx, strings.Join(args, " "))
	} else {
		centers, err = client.DonationCenters(ctx)
	}
	if err != nil {
		log.Fatalf("centers: %v", err)
	}
	if len(centers) == 0 {
		fmt.Println("No donation centers found.")
		return
	}
	for _, c := range centers {
		fmt.Printf("  #%d %s — %s, %s %s\n", c.ID, c.Name, c.Address, c.City, c.Pincode)
	}
}

func runCamps(ctx context.Context, client *api.Client) {
	camps, err := client.DonationCamps(ctx)
	if err != nil {
		log.Fatalf("camps: %v", err)
	}
	if len(camps) == 0 {
		fmt.Println("No upcoming donation camps.")
		return
	}
	for _, c := range camps {
		fmt.Printf("  #%d %s — %s on %s", c.ID, c.Name, c.Location, c.Date)
		if c.Organizer != "" {
			fmt.Printf(" (by %s)", c.Organizer)
		}
		fmt.Println()
	}
}

func runSlots(ctx context.Context, client *api.Client, args []string) {
	fs := flag.NewFlagSet("slots", flag.ExitOnError)
	centerID := fs.Int64("center", 0, "Donation center ID")
	date := fs.String("date", "", "Date (YYYY-MM-DD)")
	fs.Parse(args)

	if *centerID == 0 || *date == "" {
		log.Fatalf("slots: -center and -date are required")
	}
	slots, err := client.AvailableSlots(ctx, *centerID, *date)
	if err != nil {
		log.Fatalf("slots: %v", err)
	}
	if len(slots) == 0 {
		fmt.Println("No free slots for that day.")
		return
	}
	fmt.Printf("Free slots at center #%d on %s:\n", *centerID, *date)
	for _, s := range slots {
		fmt.Printf("  %s\n", s)
	}
}

// -----------------------------------------------------------------------
// Appointments
// -----------------------------------------------------------------------

func runAppointments(ctx context.Context, client *api.Client, store session.Store, args []string) {
	fs := flag.NewFlagSet("appointments", flag.ExitOnError)
	history := fs.Bool("history", false, "Show past appointments instead of upcoming")
	fs.Parse(args)

	user := currentUser(ctx, store)

	var (
		appts []api.Appointment
		err   error
	)
	if *history {
		appts, err = client.AppointmentHistory(ctx, user.ID)
	} else {
		appts, err = client.UpcomingAppointments(ctx, user.ID)
	}
	if err != nil {
		log.Fatalf("appointments: %v", err)
	}
	if len(appts) == 0 {
		fmt.Println("No appointments.")
		return
	}
	for _, a := range appts {
		name := a.CenterName
		if name == "" {
			name = fmt.Sprintf("center #%d", a.CenterID)
		}
		fmt.Printf("  #%d %s %s at %s [%s]\n", a.ID, a.AppointmentDate, a.TimeSlot, name, a.Status)
	}
}

func runBook(ctx context.Context, client *api.Client, store session.Store, args []string) {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	centerID := fs.Int64("center", 0, "Donation center ID")
	date := fs.String("date", "", "Date (YYYY-MM-DD)")
	slot := fs.String("slot", "", "Time slot, e.g. 10:00")
	fs.Parse(args)

	if *centerID == 0 || *date == "" || *slot == "" {
		log.Fatalf("book: -center, -date and -slot are required")
	}
	user := currentUser(ctx, store)

	appt, err := client.BookAppointment(ctx, api.BookingRequest{
		UserID:          user.ID,
		CenterID:        *centerID,
		AppointmentDate: *date,
		TimeSlot:        *slot,
	})
	if err != nil {
		log.Fatalf("book: %v", err)
	}
	fmt.Printf("Booked appointment #%d for %s %s [%s]\n", appt.ID, appt.AppointmentDate, appt.TimeSlot, appt.Status)
}

func runReschedule(ctx context.Context, client *api.Client, store session.Store, args []string) {
	fs := flag.NewFlagSet("reschedule", flag.ExitOnError)
	id := fs.Int64("id", 0, "Appointment ID")
	centerID := fs.Int64("center", 0, "Donation center ID")
	date := fs.String("date", "", "New date (YYYY-MM-DD)")
	slot := fs.String("slot", "", "New time slot")
	fs.Parse(args)

	if *id == 0 || *centerID == 0 || *date == "" || *slot == "" {
		log.Fatalf("reschedule: -id, -center, -date and -slot are required")
	}
	user := currentUser(ctx, store)

	appt, err := client.RescheduleAppointment(ctx, *id, api.BookingRequest{
		UserID:          user.ID,
		CenterID:        *centerID,
		AppointmentDate: *date,
		TimeSlot:        *slot,
	})
	if err != nil {
		log.Fatalf("reschedule: %v", err)
	}
	fmt.Printf("Appointment #%d moved to %s %s\n", appt.ID, appt.AppointmentDate, appt.TimeSlot)
}

func runCancel(ctx context.Context, client *api.Client, args []string) {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	id := fs.Int64("id", 0, "Appointment ID")
	fs.Parse(args)

	if *id == 0 {
		log.Fatalf("cancel: -id is required")
	}
	if err := client.CancelAppointment(ctx, *id); err != nil {
		log.Fatalf("cancel: %v", err)
	}
	fmt.Printf("Appointment #%d cancelled.\n", *id)
}

func runFeedback(ctx context.Context, client *api.Client, args []string) {
	fs := flag.NewFlagSet("feedback", flag.ExitOnError)
	id := fs.Int64("id", 0, "Appointment ID")
	rating := fs.Int("rating", 0, "Rating 1-5")
	comments := fs.String("comments", "", "Optional comments")
	fs.Parse(args)

	if *id == 0 || *rating < 1 || *rating > 5 {
		log.Fatalf("feedback: -id and -rating (1-5) are required")
	}
	err := client.SubmitFeedback(ctx, *id, api.Feedback{Rating: *rating, Comments: *comments})
	if err != nil {
		log.Fatalf("feedback: %v", err)
	}
	fmt.Println("Thanks for the feedback.")
}

// -----------------------------------------------------------------------
// Platform data
// -----------------------------------------------------------------------

func runStock(ctx context.Context, client *api.Client) {
	stock, err := client.BloodStock(ctx)
	if err != nil {
		log.Fatalf("stock: %v", err)
	}
	for _, entry := range stock {
		line := fmt.Sprintf("  %-3s %3d units", entry.BloodGroup, entry.Units)
		if entry.Status != "" {
			line += " [" + entry.Status + "]"
		}
		fmt.Println(line)
	}
}

func runUrgent(ctx context.Context, client *api.Client) {
	requests, err := client.UrgentRequests(ctx)
	if err != nil {
		log.Fatalf("urgent: %v", err)
	}
	open := 0
	for _, r := range requests {
		if r.Fulfilled {
			continue
		}
		open++
		fmt.Printf("  #%d %s x%d — %s, %s (%s)\n", r.ID, r.BloodGroup, r.Units, r.Hospital, r.City, r.Contact)
	}
	if open == 0 {
		fmt.Println("No open urgent requests.")
	}
}

func runResources(ctx context.Context, client *api.Client) {
	resources, err := client.Resources(ctx)
	if err != nil {
		log.Fatalf("resources: %v", err)
	}
	for _, r := range resources {
		fmt.Printf("  %s", r.Title)
		if r.URL != "" {
			fmt.Printf(" — %s", r.URL)
		}
		fmt.Println()
	}
}

func runBadges(ctx context.Context, client *api.Client, store session.Store) {
	user := currentUser(ctx, store)
	data, err := client.BadgeData(ctx, user.ID)
	if err != nil {
		log.Fatalf("badges: %v", err)
	}
	fmt.Printf("%d donations, %d points\n", data.TotalDonations, data.Points)
	for _, b := range data.Badges {
		mark := " "
		if b.Earned {
			mark = "*"
		}
		fmt.Printf("  [%s] %s\n", mark, b.Name)
	}
}

func runProfile(ctx context.Context, client *api.Client, store session.Store) {
	user := currentUser(ctx, store)
	profile, err := client.UserProfile(ctx, user.ID)
	if err != nil {
		log.Fatalf("profile: %v", err)
	}
	fmt.Printf("%s <%s> role=%s\n", profile.FullName, profile.Email, profile.Role)
	if profile.BloodGroup != "" {
		fmt.Printf("  blood group:   %s\n", profile.BloodGroup)
	}
	if profile.City != "" {
		fmt.Printf("  city:          %s\n", profile.City)
	}
	if profile.LastDonation != "" {
		fmt.Printf("  last donation: %s\n", profile.LastDonation)
	}

	// Latest screening, when one is on record.
	if stats, err := client.UserHealthStats(ctx, user.ID); err == nil && stats.Pulse != 0 {
		fmt.Printf("  last screening: hemoglobin %.1f, pulse %d, BP %s\n",
			stats.Hemoglobin, stats.Pulse, stats.BloodPressure)
	}
}

func runEligibility(ctx context.Context, client *api.Client, args []string) {
	fs := flag.NewFlagSet("eligibility", flag.ExitOnError)
	age := fs.Int("age", 0, "Age in years")
	weight := fs.Int("weight", 0, "Weight in kg")
	lastDonation := fs.String("last-donation", "", "Last donation date (YYYY-MM-DD)")
	illness := fs.Bool("recent-illness", false, "Illness in the last two weeks")
	medication := fs.Bool("on-medication", false, "Currently on medication")
	tattoo := fs.Bool("recent-tattoo", false, "Tattoo or piercing in the last six months")
	fs.Parse(args)

	if *age == 0 || *weight == 0 {
		log.Fatalf("eligibility: -age and -weight are required")
	}
	result, err := client.CheckEligibility(ctx, api.EligibilityRequest{
		Age:           *age,
		WeightKg:      *weight,
		LastDonation:  *lastDonation,
		RecentIllness: *illness,
		OnMedication:  *medication,
		RecentTattoo:  *tattoo,
	})
	if err != nil {
		log.Fatalf("eligibility: %v", err)
	}
	if result.Eligible {
		fmt.Println("You are eligible to donate.")
		return
	}
	fmt.Println("You are not currently eligible:")
	for _, reason := range result.Reasons {
		fmt.Printf("  - %s\n", reason)
	}
}

func runUsers(ctx context.Context, client *api.Client, args []string) {
	fs := flag.NewFlagSet("users", flag.ExitOnError)
	deleteID := fs.String("delete", "", "Delete the user with this ID instead of listing")
	fs.Parse(args)

	if *deleteID != "" {
		if err := client.DeleteUser(ctx, *deleteID); err != nil {
			log.Fatalf("users: %v", err)
		}
		fmt.Printf("User %s deleted.\n", *deleteID)
		return
	}

	users, err := client.AllUsers(ctx)
	if err != nil {
		log.Fatalf("users: %v", err)
	}
	for _, u := range users {
		fmt.Printf("  %s  %s <%s> role=%s\n", u.ID, u.FullName, u.Email, u.Role)
	}
}

var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func runReports(ctx context.Context, client *api.Client) {
	summary, err := client.ReportsSummary(ctx)
	if err != nil {
		log.Fatalf("reports: %v", err)
	}
	fmt.Printf("Donors: %d  Appointments: %d  Donations: %d  Urgent requests: %d\n",
		summary.Donors, summary.Appointments, summary.Donations, summary.UrgentRequests)

	monthly, err := client.MonthlyReports(ctx)
	if err != nil {
		log.Fatalf("reports: %v", err)
	}
	fmt.Println("\nMonth  Donations  Appointments")
	for i := 0; i < len(monthly.Donations) && i < len(monthNames); i++ {
		appointments := 0
		if i < len(monthly.Appointments) {
			appointments = monthly.Appointments[i]
		}
		fmt.Printf("%-5s  %9d  %12d\n", monthNames[i], monthly.Donations[i], appointments)
	}

	if stats, err := client.PlatformStats(ctx); err == nil {
		fmt.Printf("\nPublic counters: %d donors, %d lives saved, %d hospitals\n",
			stats.Donors, stats.LivesSaved, stats.Hospitals)
	}
}
