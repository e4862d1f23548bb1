package bot

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Step identifies the current prompt of the creation dialogue.
type Step string

const (
	StepTitle       Step = "title"
	StepDescription Step = "description"
	StepDateTime    Step = "datetime"
)

// inputLayout is the datetime format users type. All times are UTC.
const inputLayout = "2006-01-02 15:04"

// Prompts and validation messages of the creation dialogue.
const (
	promptTitle    = "Let's create a new meeting!\n\nPlease send me the meeting title:"
	promptDateTime = "Please provide the date and time for the meeting.\nFormat: YYYY-MM-DD HH:MM\nExample: 2026-12-25 14:30"

	errBadFormat  = "Invalid date format. Please use: YYYY-MM-DD HH:MM\nExample: 2026-12-25 14:30"
	errPastTime   = "Please provide a future date and time.\nFormat: YYYY-MM-DD HH:MM"
	errEmptyTitle = "The title can't be empty. Please send me the meeting title:"
)

// Draft is a completed creation dialogue, ready for the lifecycle manager.
type Draft struct {
	Title       string
	Description string
	Start       time.Time
}

// AdvanceResult is the outcome of feeding one line of input to the tracker.
// Exactly one of the progress fields is meaningful: Draft when the dialogue
// completed, otherwise Prompt (with Err set when the input was rejected).
type AdvanceResult struct {
	Active bool   // false: no dialogue in progress, input was not consumed
	Prompt string // next prompt, or re-prompt after a validation error
	Err    string // user-facing validation message, "" if input was accepted
	Draft  *Draft // non-nil when the dialogue completed
}

// draftState is the per-user progress of an in-flight dialogue.
type draftState struct {
	step        Step
	title       string
	description string
}

// Tracker drives the per-user meeting-creation dialogue. State is
// process-local and ephemeral: it is lost on restart and an abandoned
// dialogue lingers until the user starts a fresh one. There is no cancel.
type Tracker struct {
	mu     sync.Mutex
	active map[string]*draftState
	now    func() time.Time
}

// TrackerOpts holds parameters for creating a Tracker.
type TrackerOpts struct {
	Now func() time.Time // defaults to time.Now
}

// NewTracker creates a Tracker.
func NewTracker(opts TrackerOpts) *Tracker {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		active: make(map[string]*draftState),
		now:    now,
	}
}

// Begin starts (or restarts) the creation dialogue for a user, discarding
// any prior draft. It returns the first prompt.
func (t *Tracker) Begin(userID string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active[userID] = &draftState{step: StepTitle}
	return promptTitle
}

// CurrentStep reports the user's dialogue step, or false if no dialogue is
// in progress.
func (t *Tracker) CurrentStep(userID string) (Step, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.active[userID]
	if !ok {
		return "", false
	}
	return st.step, true
}

// Advance consumes one line of input according to the user's current step.
// With no dialogue in progress it is a no-op (Active=false), so free-form
// chat passes through untouched. On datetime success the completed draft is
// returned and the state is cleared unconditionally, whether or not the
// caller's subsequent handoff succeeds.
func (t *Tracker) Advance(userID, input string) AdvanceResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.active[userID]
	if !ok {
		return AdvanceResult{}
	}

	switch st.step {
	case StepTitle:
		title := strings.TrimSpace(input)
		if title == "" {
			return AdvanceResult{Active: true, Prompt: errEmptyTitle, Err: errEmptyTitle}
		}
		st.title = title
		st.step = StepDescription
		return AdvanceResult{
			Active: true,
			Prompt: fmt.Sprintf("Title: %s\n\nNow, please provide a description for the meeting:", title),
		}

	case StepDescription:
		st.description = input
		st.step = StepDateTime
		return AdvanceResult{Active: true, Prompt: promptDateTime}

	case StepDateTime:
		start, err := time.ParseInLocation(inputLayout, strings.TrimSpace(input), time.UTC)
		if err != nil {
			// Re-prompt, state stays at the datetime step.
			return AdvanceResult{Active: true, Prompt: errBadFormat, Err: errBadFormat}
		}
		if !start.After(t.now()) {
			return AdvanceResult{Active: true, Prompt: errPastTime, Err: errPastTime}
		}
		draft := &Draft{Title: st.title, Description: st.description, Start: start}
		delete(t.active, userID)
		return AdvanceResult{Active: true, Draft: draft}
	}

	// Unknown step: drop the broken state rather than trapping the user.
	delete(t.active, userID)
	return AdvanceResult{}
}
