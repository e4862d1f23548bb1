package bot

import (
	"fmt"
	"strings"

	"github.com/zulandar/quorum/internal/models"
)

// displayLayout is how meeting times are rendered in chat.
const displayLayout = "2006-01-02 at 15:04"

// rosterLayout is the short form used next to roster entries.
const rosterLayout = "01-02 15:04"

// helpText describes the commands the bot understands.
func helpText() string {
	return strings.Join([]string{
		"Quorum keeps track of community meetings.",
		"",
		"Commands:",
		"  `!qm create` - create a new meeting",
		"  `!qm upcoming` - view all upcoming meetings",
		"  `!qm mine` - view meetings you created",
		"  `!qm delete <id>` - delete a meeting you created",
		"  `!qm help` - show this message",
		"",
		"Create a meeting, then other members can register with one click.",
	}, "\n")
}

// upcomingCard renders a meeting for the shared upcoming list, with
// register and stats buttons.
func upcomingCard(m models.Meeting, count int64) MeetingCard {
	return MeetingCard{
		Title: m.Title,
		Body:  m.Description,
		Link:  m.CalendarLink,
		Fields: []Field{
			{Name: "When", Value: m.StartTime.Format(displayLayout), Short: true},
			{Name: "Created by", Value: "@" + displayName(m.CreatorUsername), Short: true},
			{Name: "Registered", Value: fmt.Sprintf("%d members", count), Short: true},
			{Name: "Meeting ID", Value: fmt.Sprintf("%d", m.ID), Short: true},
		},
		Buttons: []Button{
			{Label: fmt.Sprintf("Register (%d registered)", count), ActionID: fmt.Sprintf("register_%d", m.ID)},
			{Label: "Stats", ActionID: fmt.Sprintf("stats_%d", m.ID)},
		},
	}
}

// creatorCard renders a meeting for its creator, with stats and delete
// buttons instead of register.
func creatorCard(m models.Meeting, count int64) MeetingCard {
	return MeetingCard{
		Title: m.Title,
		Body:  m.Description,
		Link:  m.CalendarLink,
		Fields: []Field{
			{Name: "When", Value: m.StartTime.Format(displayLayout), Short: true},
			{Name: "Registered", Value: fmt.Sprintf("%d members", count), Short: true},
			{Name: "Meeting ID", Value: fmt.Sprintf("%d", m.ID), Short: true},
		},
		Buttons: []Button{
			{Label: "Stats", ActionID: fmt.Sprintf("stats_%d", m.ID)},
			{Label: "Delete", ActionID: fmt.Sprintf("delete_%d", m.ID)},
		},
	}
}

// confirmationText renders the success message after a meeting is created.
func confirmationText(m *models.Meeting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Meeting created!\n\n")
	fmt.Fprintf(&b, "%s\n", m.Title)
	if m.Description != "" {
		fmt.Fprintf(&b, "%s\n", m.Description)
	}
	fmt.Fprintf(&b, "%s\n", m.StartTime.Format(displayLayout))
	if m.CalendarLink != "" {
		fmt.Fprintf(&b, "\nCalendar: %s\n", m.CalendarLink)
	}
	fmt.Fprintf(&b, "\nMeeting ID: %d. Members can now register.", m.ID)
	return b.String()
}

// statsText renders the detail view of a meeting: metadata plus the roster
// in registration order.
func statsText(m *models.Meeting, regs []models.Registration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Meeting stats\n\n")
	fmt.Fprintf(&b, "%s\n", m.Title)
	if m.Description != "" {
		fmt.Fprintf(&b, "%s\n", m.Description)
	}
	fmt.Fprintf(&b, "%s\n", m.StartTime.Format(displayLayout))
	fmt.Fprintf(&b, "Created by: @%s\n", displayName(m.CreatorUsername))
	if m.CalendarLink != "" {
		fmt.Fprintf(&b, "Calendar: %s\n", m.CalendarLink)
	}
	fmt.Fprintf(&b, "\nTotal registered: %d members\n", len(regs))
	if len(regs) > 0 {
		fmt.Fprintf(&b, "\nRegistered members:\n")
		for _, r := range regs {
			fmt.Fprintf(&b, "- @%s (registered %s)\n",
				displayName(r.Username), r.RegisteredAt.Format(rosterLayout))
		}
	}
	return b.String()
}

// displayName substitutes a placeholder for users with no username.
func displayName(name string) string {
	if name == "" {
		return "Unknown"
	}
	return name
}
