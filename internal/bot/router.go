package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/zulandar/quorum/internal/meeting"
)

// commandPrefix is the prefix that triggers command handling.
const commandPrefix = "!qm"

// genericFailure is the user-visible message for persistence faults. The
// underlying error goes to the log, never to chat.
const genericFailure = "Sorry, something went wrong. Please try again."

// Router classifies inbound chat events and routes them: button actions to
// the registration/lifecycle handlers, "!qm" commands to the command
// handlers, and plain text to the conversation tracker.
type Router struct {
	manager   *meeting.Manager
	tracker   *Tracker
	adapter   Adapter
	botUserID string // the bot's own user ID (to filter self-messages)
	out       io.Writer
}

// RouterOpts holds parameters for creating a Router.
type RouterOpts struct {
	Manager   *meeting.Manager
	Tracker   *Tracker
	Adapter   Adapter
	BotUserID string    // bot's user ID for self-message filtering
	Out       io.Writer // defaults to os.Stdout
}

// NewRouter creates a Router.
func NewRouter(opts RouterOpts) (*Router, error) {
	if opts.Manager == nil {
		return nil, fmt.Errorf("bot: router: meeting manager is required")
	}
	if opts.Tracker == nil {
		return nil, fmt.Errorf("bot: router: tracker is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("bot: router: adapter is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Router{
		manager:   opts.Manager,
		tracker:   opts.Tracker,
		adapter:   opts.Adapter,
		botUserID: opts.BotUserID,
		out:       out,
	}, nil
}

// SetBotUserID sets the bot's own user id once the adapter learns it.
func (r *Router) SetBotUserID(id string) {
	r.botUserID = id
}

// Handle classifies and routes a single inbound event. Routing paths:
//  1. Bot self-message → ignore
//  2. Button action → action handler (register/stats/delete)
//  3. Command prefix "!qm" → command handler
//  4. Plain text → conversation tracker (no-op when no dialogue is active)
func (r *Router) Handle(ctx context.Context, msg InboundMessage) {
	if r.isSelfMessage(msg) {
		return
	}

	if msg.ActionID != "" {
		fmt.Fprintf(r.out, "bot: router: action [ch=%s user=%s] %s\n",
			msg.ChannelID, msg.UserName, msg.ActionID)
		r.handleAction(ctx, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if isCommand(text) {
		fmt.Fprintf(r.out, "bot: router: command [ch=%s user=%s] %q\n",
			msg.ChannelID, msg.UserName, truncate(text, 80))
		r.handleCommand(ctx, msg, text)
		return
	}

	// Plain text: feed the creation dialogue. Messages from users with no
	// active dialogue fall through untouched.
	res := r.tracker.Advance(msg.UserID, msg.Text)
	if !res.Active {
		return
	}
	if res.Draft != nil {
		r.completeDraft(ctx, msg, res.Draft)
		return
	}
	r.reply(ctx, msg.ChannelID, res.Prompt)
}

// handleCommand dispatches a "!qm" command.
func (r *Router) handleCommand(ctx context.Context, msg InboundMessage, text string) {
	args := parseCommand(text)
	if len(args) == 0 {
		r.reply(ctx, msg.ChannelID, helpText())
		return
	}

	switch args[0] {
	case "create":
		prompt := r.tracker.Begin(msg.UserID)
		r.reply(ctx, msg.ChannelID, prompt)
	case "upcoming":
		r.cmdUpcoming(ctx, msg)
	case "mine":
		r.cmdMine(ctx, msg)
	case "delete":
		r.cmdDelete(ctx, msg, args[1:])
	case "help":
		r.reply(ctx, msg.ChannelID, helpText())
	default:
		r.reply(ctx, msg.ChannelID,
			fmt.Sprintf("Unknown command: `%s`\n\n%s", args[0], helpText()))
	}
}

// parseCommand strips the "!qm" prefix and splits the remaining text.
func parseCommand(text string) []string {
	text = strings.TrimSpace(text)
	if text == commandPrefix {
		return nil
	}
	text = strings.TrimPrefix(text, commandPrefix+" ")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return strings.Fields(text)
}

// cmdUpcoming sends one card per upcoming meeting, or a nudge when there
// are none.
func (r *Router) cmdUpcoming(ctx context.Context, msg InboundMessage) {
	meetings, err := r.manager.ListUpcoming()
	if err != nil {
		log.Printf("bot: router: list upcoming: %v", err)
		r.reply(ctx, msg.ChannelID, genericFailure)
		return
	}
	if len(meetings) == 0 {
		r.reply(ctx, msg.ChannelID,
			"No upcoming meetings scheduled.\n\nBe the first to create one with `!qm create`.")
		return
	}

	cards := make([]MeetingCard, 0, len(meetings))
	for _, m := range meetings {
		count, err := r.manager.Count(m.ID)
		if err != nil {
			log.Printf("bot: router: count for %d: %v", m.ID, err)
		}
		cards = append(cards, upcomingCard(m, count))
	}
	r.send(ctx, OutboundMessage{ChannelID: msg.ChannelID, Text: "Upcoming meetings", Cards: cards})
}

// cmdMine sends one card per meeting the user created, past ones included.
func (r *Router) cmdMine(ctx context.Context, msg InboundMessage) {
	meetings, err := r.manager.ListByCreator(msg.UserID)
	if err != nil {
		log.Printf("bot: router: list by creator: %v", err)
		r.reply(ctx, msg.ChannelID, genericFailure)
		return
	}
	if len(meetings) == 0 {
		r.reply(ctx, msg.ChannelID,
			"You haven't created any meetings yet.\n\nCreate your first one with `!qm create`.")
		return
	}

	cards := make([]MeetingCard, 0, len(meetings))
	for _, m := range meetings {
		count, err := r.manager.Count(m.ID)
		if err != nil {
			log.Printf("bot: router: count for %d: %v", m.ID, err)
		}
		cards = append(cards, creatorCard(m, count))
	}
	r.send(ctx, OutboundMessage{ChannelID: msg.ChannelID, Text: "Your meetings", Cards: cards})
}

// cmdDelete handles "!qm delete <id>".
func (r *Router) cmdDelete(ctx context.Context, msg InboundMessage, args []string) {
	if len(args) != 1 {
		r.reply(ctx, msg.ChannelID, "Usage: `!qm delete <meeting-id>`")
		return
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		r.reply(ctx, msg.ChannelID, fmt.Sprintf("Invalid meeting id %q.", args[0]))
		return
	}
	r.deleteMeeting(ctx, msg, uint(id))
}

// handleAction dispatches a button click: "register_<id>", "stats_<id>" or
// "delete_<id>".
func (r *Router) handleAction(ctx context.Context, msg InboundMessage) {
	verb, id, ok := parseAction(msg.ActionID)
	if !ok {
		fmt.Fprintf(r.out, "bot: router: ignoring malformed action %q\n", msg.ActionID)
		return
	}

	switch verb {
	case "register":
		r.actionRegister(ctx, msg, id)
	case "stats":
		r.actionStats(ctx, msg, id)
	case "delete":
		r.deleteMeeting(ctx, msg, id)
	default:
		fmt.Fprintf(r.out, "bot: router: ignoring unknown action %q\n", msg.ActionID)
	}
}

// parseAction splits an action id like "register_7" into verb and meeting id.
func parseAction(actionID string) (string, uint, bool) {
	verb, idStr, found := strings.Cut(actionID, "_")
	if !found {
		return "", 0, false
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return "", 0, false
	}
	return verb, uint(id), true
}

// actionRegister registers the clicking user for the meeting.
func (r *Router) actionRegister(ctx context.Context, msg InboundMessage, meetingID uint) {
	m, err := r.manager.GetByID(meetingID)
	if err != nil {
		log.Printf("bot: router: register lookup %d: %v", meetingID, err)
		r.reply(ctx, msg.ChannelID, genericFailure)
		return
	}
	if m == nil {
		r.reply(ctx, msg.ChannelID, "That meeting no longer exists.")
		return
	}

	outcome, err := r.manager.Register(meetingID, msg.UserID, msg.UserName)
	if err != nil {
		log.Printf("bot: router: register %d: %v", meetingID, err)
		r.reply(ctx, msg.ChannelID, genericFailure)
		return
	}
	if outcome == meeting.AlreadyRegistered {
		r.reply(ctx, msg.ChannelID, "You're already registered for this meeting.")
		return
	}

	count, err := r.manager.Count(meetingID)
	if err != nil {
		log.Printf("bot: router: count for %d: %v", meetingID, err)
	}
	r.reply(ctx, msg.ChannelID,
		fmt.Sprintf("You're registered for %q. Total registered: %d members.", m.Title, count))
}

// actionStats sends the detail view with the roster.
func (r *Router) actionStats(ctx context.Context, msg InboundMessage, meetingID uint) {
	m, err := r.manager.GetByID(meetingID)
	if err != nil {
		log.Printf("bot: router: stats lookup %d: %v", meetingID, err)
		r.reply(ctx, msg.ChannelID, genericFailure)
		return
	}
	if m == nil {
		r.reply(ctx, msg.ChannelID, "Meeting not found.")
		return
	}
	regs, err := r.manager.Roster(meetingID)
	if err != nil {
		log.Printf("bot: router: roster for %d: %v", meetingID, err)
		r.reply(ctx, msg.ChannelID, genericFailure)
		return
	}
	r.reply(ctx, msg.ChannelID, statsText(m, regs))
}

// deleteMeeting performs an authorized deletion for both the command and
// the button paths.
func (r *Router) deleteMeeting(ctx context.Context, msg InboundMessage, meetingID uint) {
	err := r.manager.Delete(ctx, meetingID, msg.UserID)
	switch {
	case errors.Is(err, meeting.ErrNotAuthorized):
		r.reply(ctx, msg.ChannelID, "You can only delete meetings you created.")
	case err != nil:
		log.Printf("bot: router: delete %d: %v", meetingID, err)
		r.reply(ctx, msg.ChannelID, genericFailure)
	default:
		r.reply(ctx, msg.ChannelID, "Meeting deleted.")
	}
}

// completeDraft hands a finished dialogue to the lifecycle manager. The
// tracker has already cleared its state; a creation failure here does not
// restart the dialogue.
func (r *Router) completeDraft(ctx context.Context, msg InboundMessage, draft *Draft) {
	m, err := r.manager.Create(ctx, meeting.CreateInput{
		Title:       draft.Title,
		Description: draft.Description,
		Start:       draft.Start,
		CreatorID:   msg.UserID,
		CreatorName: msg.UserName,
	})
	if err != nil {
		log.Printf("bot: router: create meeting: %v", err)
		r.reply(ctx, msg.ChannelID, "Sorry, there was an error creating the meeting. Please try again.")
		return
	}
	r.reply(ctx, msg.ChannelID, confirmationText(m))
}

// reply sends a plain text message back to the channel the event came from.
func (r *Router) reply(ctx context.Context, channelID, text string) {
	r.send(ctx, OutboundMessage{ChannelID: channelID, Text: text})
}

// send delivers an outbound message, logging delivery failures.
func (r *Router) send(ctx context.Context, msg OutboundMessage) {
	if err := r.adapter.Send(ctx, msg); err != nil {
		log.Printf("bot: router: send: %v", err)
	}
}

// isSelfMessage returns true if the event is from the bot itself.
func (r *Router) isSelfMessage(msg InboundMessage) bool {
	return r.botUserID != "" && msg.UserID == r.botUserID
}

// isCommand returns true if the text starts with the command prefix.
func isCommand(text string) bool {
	return strings.HasPrefix(text, commandPrefix+" ") || text == commandPrefix
}

// truncate returns s truncated to maxLen with "..." appended if needed.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
