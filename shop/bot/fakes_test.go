package bot

import (
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/grocerybot/shop/config"
	"github.com/m3rciful/grocerybot/shop/domain"
	"github.com/m3rciful/grocerybot/shop/session"
	"github.com/m3rciful/grocerybot/shop/storage/memory"

	tele "gopkg.in/telebot.v4"
)

type sentMessage struct {
	chat   string
	text   string
	markup *tele.ReplyMarkup
}

func markupOf(opts []interface{}) *tele.ReplyMarkup {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil {
				return v.ReplyMarkup
			}
		case *tele.ReplyMarkup:
			return v
		}
	}
	return nil
}

func textOf(what interface{}) string {
	s, _ := what.(string)
	return s
}

// fakeContext implements the parts of tele.Context the handlers use.
type fakeContext struct {
	tele.Context

	sender *tele.User
	msg    *tele.Message
	cb     *tele.Callback
	values map[string]interface{}

	sent      []sentMessage
	edits     []sentMessage
	responses []*tele.CallbackResponse
}

func (c *fakeContext) Update() tele.Update {
	return tele.Update{ID: 1, Message: c.msg, Callback: c.cb}
}
func (c *fakeContext) Sender() *tele.User { return c.sender }
func (c *fakeContext) Chat() *tele.Chat { return &tele.Chat{ID: c.sender.ID} }
func (c *fakeContext) Callback() *tele.Callback { return c.cb }
func (c *fakeContext) Get(key string) interface{} { return c.values[key] }
func (c *fakeContext) Set(key string, val interface{}) {
	c.values[key] = val
}

func (c *fakeContext) Message() *tele.Message {
	if c.cb != nil {
		return c.cb.Message
	}
	return c.msg
}

func (c *fakeContext) Text() string {
	if c.msg == nil {
		return ""
	}
	if c.msg.Text != "" {
		return c.msg.Text
	}
	return c.msg.Caption
}

func (c *fakeContext) Send(what interface{}, opts ...interface{}) error {
	c.sent = append(c.sent, sentMessage{text: textOf(what), markup: markupOf(opts)})
	return nil
}

func (c *fakeContext) Edit(what interface{}, opts ...interface{}) error {
	c.edits = append(c.edits, sentMessage{text: textOf(what), markup: markupOf(opts)})
	return nil
}

func (c *fakeContext) EditOrSend(what interface{}, opts ...interface{}) error {
	if c.cb != nil {
		return c.Edit(what, opts...)
	}
	return c.Send(what, opts...)
}

func (c *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	if len(resp) == 0 {
		c.responses = append(c.responses, &tele.CallbackResponse{})
		return nil
	}
	c.responses = append(c.responses, resp[0])
	return nil
}

// last returns the latest outgoing text, edits included.
func (c *fakeContext) last() sentMessage {
	switch {
	case len(c.edits) > 0 && c.cb != nil:
		return c.edits[len(c.edits)-1]
	case len(c.sent) > 0:
		return c.sent[len(c.sent)-1]
	}
	return sentMessage{}
}

func (c *fakeContext) toast() string {
	for _, r := range c.responses {
		if r.Text != "" {
			return r.Text
		}
	}
	return ""
}

// fakeMessenger records the calls the transport makes.
type fakeMessenger struct {
	mu      sync.Mutex
	nextID  int
	sent    []sentMessage
	edits   []sentMessage
	deleted []string
	editErr error
}

func (m *fakeMessenger) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.sent = append(m.sent, sentMessage{chat: to.Recipient(), text: textOf(what), markup: markupOf(opts)})
	return &tele.Message{ID: 1000 + m.nextID}, nil
}

func (m *fakeMessenger) Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.editErr != nil {
		return nil, m.editErr
	}
	id, chat := msg.MessageSig()
	m.edits = append(m.edits, sentMessage{chat: strconv.FormatInt(chat, 10) + "/" + id, text: textOf(what)})
	return &tele.Message{}, nil
}

func (m *fakeMessenger) Delete(msg tele.Editable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, chat := msg.MessageSig()
	m.deleted = append(m.deleted, strconv.FormatInt(chat, 10)+"/"+id)
	return nil
}

func (m *fakeMessenger) sentTo(chat int64) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMessage
	for _, s := range m.sent {
		if s.chat == strconv.FormatInt(chat, 10) {
			out = append(out, s)
		}
	}
	return out
}

type testEnv struct {
	store    *memory.Store
	sessions *session.Store
	api      *fakeMessenger
	svc      *Services
	h        *Handlers
	dialog   *Dialog
}

const ownerTelegramID = 1

func testShop() config.ShopConfig {
	return config.ShopConfig{
		MinOrderAmount: decimal.NewFromInt(1500),
		AdminIDs:       []int64{2},
		AboutText:      "О нас",
		SupportText:    "Поддержка",
		OrderNotes:     "Заказ через Telegram бота",
	}
}

func newEnv(t *testing.T, shop config.ShopConfig) *testEnv {
	t.Helper()
	store := memory.New()
	sessions, err := session.NewMemoryStore(session.Config{
		Backend:   session.BackendMemory,
		IdleTTL:   time.Hour,
		SweepSpec: session.DefaultSweepSpec,
	})
	require.NoError(t, err)
	api := &fakeMessenger{}
	transport := NewTransport(nil)
	transport.Attach(api)
	svc := NewServices(store, sessions, transport, shop)
	h := NewHandlers(svc, shop, ownerTelegramID)
	return &testEnv{store: store, sessions: sessions, api: api, svc: svc, h: h, dialog: NewDialog(h)}
}

func (e *testEnv) customer(telegramID int64) domain.User {
	phone := "79123456789"
	return e.store.PutUser(domain.User{
		TelegramID: telegramID,
		FirstName:  "Анна",
		Phone:      &phone,
		Role:       domain.RoleUser,
		IsActive:   true,
	})
}

func (e *testEnv) product(name string, price int64, step, minQty int) domain.Product {
	cat := e.store.PutCategory(domain.Category{Name: "Фрукты", IsActive: true})
	return e.store.PutProduct(domain.Product{
		CategoryID:  cat.ID,
		Name:        name,
		Price:       decimal.NewFromInt(price),
		Unit:        "кг",
		Step:        step,
		MinQuantity: minQty,
		IsAvailable: true,
	})
}

func sender(id int64) *tele.User {
	return &tele.User{ID: id, FirstName: "Анна"}
}

// press builds a callback update for unique with payload.
func press(from int64, unique, payload string) *fakeContext {
	return &fakeContext{
		sender: sender(from),
		cb: &tele.Callback{
			Sender:  sender(from),
			Unique:  unique,
			Data:    payload,
			Message: &tele.Message{ID: 77, Chat: &tele.Chat{ID: from}},
		},
		values: map[string]interface{}{},
	}
}

// message builds a text message update.
func message(from int64, text string) *fakeContext {
	return &fakeContext{
		sender: sender(from),
		msg:    &tele.Message{ID: 10, Text: text, Sender: sender(from), Chat: &tele.Chat{ID: from}},
		values: map[string]interface{}{},
	}
}

func findButton(m *tele.ReplyMarkup, unique string) (tele.InlineButton, bool) {
	if m == nil {
		return tele.InlineButton{}, false
	}
	for _, row := range m.InlineKeyboard {
		for _, b := range row {
			if b.Unique == unique {
				return b, true
			}
		}
	}
	return tele.InlineButton{}, false
}

func id64(v int64) string { return strconv.FormatInt(v, 10) }

func containsAll(t *testing.T, text string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		require.True(t, strings.Contains(text, p), "%q not found in:\n%s", p, text)
	}
}
