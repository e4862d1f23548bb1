package slack

import (
	"context"
	"sync"
	"testing"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"github.com/zulandar/quorum/internal/bot"
)

// mockSlackClient implements slackClient for testing.
type mockSlackClient struct {
	mu       sync.Mutex
	posted   []postedMessage
	users    map[string]*slackapi.User
	postErr  error
	authResp *slackapi.AuthTestResponse
}

type postedMessage struct {
	channelID string
	options   []slackapi.MsgOption
}

func newMockSlackClient() *mockSlackClient {
	return &mockSlackClient{
		users:    make(map[string]*slackapi.User),
		authResp: &slackapi.AuthTestResponse{UserID: "BOT123"},
	}
}

func (m *mockSlackClient) AuthTest() (*slackapi.AuthTestResponse, error) {
	return m.authResp, nil
}

func (m *mockSlackClient) PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postErr != nil {
		return "", "", m.postErr
	}
	m.posted = append(m.posted, postedMessage{channelID: channelID, options: options})
	return channelID, "1234567890.123456", nil
}

func (m *mockSlackClient) GetUserInfo(userID string) (*slackapi.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		return u, nil
	}
	return nil, slackapi.StatusCodeError{Code: 404}
}

func (m *mockSlackClient) postCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posted)
}

// mockSocketClient implements socketClient for testing.
type mockSocketClient struct {
	mu     sync.Mutex
	events chan socketmode.Event
	acked  int
}

func newMockSocketClient() *mockSocketClient {
	return &mockSocketClient{events: make(chan socketmode.Event, 10)}
}

func (m *mockSocketClient) Run() error                        { return nil }
func (m *mockSocketClient) EventsChan() chan socketmode.Event { return m.events }
func (m *mockSocketClient) Ack(req socketmode.Request, payload ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked++
}

func newTestAdapter(t *testing.T) (*Adapter, *mockSlackClient, *mockSocketClient) {
	t.Helper()
	client := newMockSlackClient()
	socket := newMockSocketClient()
	a, err := New(AdapterOpts{ChannelID: "C123", Client: client, Socket: socket})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	return a, client, socket
}

// --- New tests ---

func TestNew_RequiresBotToken(t *testing.T) {
	_, err := New(AdapterOpts{AppToken: "xapp-1"})
	if err == nil {
		t.Fatal("expected error for missing bot token")
	}
}

func TestNew_RequiresAppToken(t *testing.T) {
	_, err := New(AdapterOpts{BotToken: "xoxb-1"})
	if err == nil {
		t.Fatal("expected error for missing app token")
	}
}

// --- Connect tests ---

func TestConnect_SetsBotUserID(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if a.BotUserID() != "BOT123" {
		t.Errorf("bot user id = %q, want BOT123", a.BotUserID())
	}
}

func TestConnect_AfterClose(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	a.Connect(context.Background())
	a.Close()
	if err := a.Connect(context.Background()); err == nil {
		t.Fatal("expected error connecting a closed adapter")
	}
}

// --- Send tests ---

func TestSend_NotConnected(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	if err := a.Send(context.Background(), bot.OutboundMessage{Text: "hi"}); err == nil {
		t.Fatal("expected error before connect")
	}
}

func TestSend_TextOnly(t *testing.T) {
	a, client, _ := newTestAdapter(t)
	a.Connect(context.Background())

	if err := a.Send(context.Background(), bot.OutboundMessage{Text: "hello"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if client.postCount() != 1 {
		t.Errorf("posted = %d, want 1", client.postCount())
	}
	if client.posted[0].channelID != "C123" {
		t.Errorf("channel = %q", client.posted[0].channelID)
	}
}

// Each card is posted separately so its action buttons stay with it.
func TestSend_OneMessagePerCard(t *testing.T) {
	a, client, _ := newTestAdapter(t)
	a.Connect(context.Background())

	msg := bot.OutboundMessage{
		Text: "Upcoming meetings",
		Cards: []bot.MeetingCard{
			{Title: "A", Buttons: []bot.Button{{Label: "Register", ActionID: "register_1"}}},
			{Title: "B"},
		},
	}
	if err := a.Send(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if client.postCount() != 3 {
		t.Errorf("posted = %d, want 3 (text + 2 cards)", client.postCount())
	}
}

func TestSend_ExplicitChannelOverridesDefault(t *testing.T) {
	a, client, _ := newTestAdapter(t)
	a.Connect(context.Background())

	a.Send(context.Background(), bot.OutboundMessage{ChannelID: "C999", Text: "hi"})
	if client.posted[0].channelID != "C999" {
		t.Errorf("channel = %q, want C999", client.posted[0].channelID)
	}
}

// --- Event handling tests ---

func messageEvent(user, text string) socketmode.Event {
	return socketmode.Event{
		Type:    socketmode.EventTypeEventsAPI,
		Request: &socketmode.Request{},
		Data: slackevents.EventsAPIEvent{
			Type: slackevents.CallbackEvent,
			InnerEvent: slackevents.EventsAPIInnerEvent{
				Data: &slackevents.MessageEvent{
					Channel:   "C123",
					User:      user,
					Text:      text,
					TimeStamp: "1234567890.123456",
				},
			},
		},
	}
}

func TestHandleSocketEvent_Message(t *testing.T) {
	a, _, socket := newTestAdapter(t)
	a.Connect(context.Background())

	a.handleSocketEvent(messageEvent("U1", "!qm help"))

	select {
	case msg := <-a.inbound:
		if msg.Platform != "slack" || msg.UserID != "U1" || msg.Text != "!qm help" {
			t.Errorf("inbound = %+v", msg)
		}
		if msg.Timestamp.Unix() != 1234567890 {
			t.Errorf("timestamp = %v", msg.Timestamp)
		}
	default:
		t.Fatal("no inbound message")
	}
	if socket.acked != 1 {
		t.Errorf("acked = %d, want 1", socket.acked)
	}
}

func TestHandleSocketEvent_FiltersSelf(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	a.Connect(context.Background())

	a.handleSocketEvent(messageEvent("BOT123", "from myself"))

	select {
	case msg := <-a.inbound:
		t.Fatalf("self message not filtered: %+v", msg)
	default:
	}
}

func TestHandleSocketEvent_BlockAction(t *testing.T) {
	a, _, socket := newTestAdapter(t)
	a.Connect(context.Background())

	callback := slackapi.InteractionCallback{
		Type: slackapi.InteractionTypeBlockActions,
		User: slackapi.User{ID: "U2"},
		ActionCallback: slackapi.ActionCallbacks{
			BlockActions: []*slackapi.BlockAction{{ActionID: "register_7"}},
		},
	}
	callback.Channel.ID = "C123"

	a.handleSocketEvent(socketmode.Event{
		Type:    socketmode.EventTypeInteractive,
		Request: &socketmode.Request{},
		Data:    callback,
	})

	select {
	case msg := <-a.inbound:
		if msg.ActionID != "register_7" || msg.UserID != "U2" || msg.ChannelID != "C123" {
			t.Errorf("inbound = %+v", msg)
		}
	default:
		t.Fatal("no inbound message for block action")
	}
	if socket.acked != 1 {
		t.Errorf("acked = %d, want 1", socket.acked)
	}
}

func TestHandleInteractive_IgnoresOtherTypes(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	a.Connect(context.Background())

	a.handleInteractive(slackapi.InteractionCallback{Type: slackapi.InteractionTypeShortcut})

	select {
	case msg := <-a.inbound:
		t.Fatalf("non-block-action interaction not ignored: %+v", msg)
	default:
	}
}

// --- Helper tests ---

func TestResolveUserName(t *testing.T) {
	a, client, _ := newTestAdapter(t)
	client.users["U1"] = &slackapi.User{
		RealName: "Alice Smith",
		Profile:  slackapi.UserProfile{DisplayName: "alice"},
	}

	if got := a.resolveUserName("U1"); got != "alice" {
		t.Errorf("name = %q, want alice", got)
	}
	// Unknown user falls back to the id.
	if got := a.resolveUserName("U9"); got != "U9" {
		t.Errorf("name = %q, want U9", got)
	}
}

func TestCardToBlocks(t *testing.T) {
	blocks := cardToBlocks(bot.MeetingCard{
		Title:  "Sync",
		Body:   "Weekly",
		Fields: []bot.Field{{Name: "When", Value: "2026-09-15"}},
		Buttons: []bot.Button{
			{Label: "Register", ActionID: "register_1"},
		},
	})
	// Section, fields section, actions.
	if len(blocks) != 3 {
		t.Fatalf("blocks = %d, want 3", len(blocks))
	}
	actions, ok := blocks[2].(*slackapi.ActionBlock)
	if !ok {
		t.Fatalf("block type = %T", blocks[2])
	}
	button, ok := actions.Elements.ElementSet[0].(*slackapi.ButtonBlockElement)
	if !ok || button.ActionID != "register_1" {
		t.Errorf("button = %+v", actions.Elements.ElementSet[0])
	}
}

func TestParseSlackTimestamp(t *testing.T) {
	ts := parseSlackTimestamp("1234567890.123456")
	if !ts.Equal(time.Unix(1234567890, 0)) {
		t.Errorf("ts = %v", ts)
	}
	if !parseSlackTimestamp("garbage").IsZero() {
		t.Error("garbage timestamp should parse to zero time")
	}
}
