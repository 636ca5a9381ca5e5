package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"orderpulse/internal/common"
	"orderpulse/internal/domain/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChat is a configurable ChatTransport for tests.
type fakeChat struct {
	configured  bool
	templateErr error
	textErr     map[string]error // per recipient; missing key means success

	templateCalls []string
	textCalls     []string
}

func newFakeChat() *fakeChat {
	return &fakeChat{configured: true, textErr: map[string]error{}}
}

func (f *fakeChat) SendTemplate(_ context.Context, to string, _ TemplateMessage) error {
	f.templateCalls = append(f.templateCalls, to)
	return f.templateErr
}

func (f *fakeChat) SendText(_ context.Context, to, _ string) error {
	f.textCalls = append(f.textCalls, to)
	return f.textErr[to]
}

func (f *fakeChat) Configured() bool { return f.configured }

// fakePush is a configurable PushTransport for tests.
type fakePush struct {
	configured bool
	errByToken map[string]error

	calls []string
}

func newFakePush() *fakePush {
	return &fakePush{configured: true, errByToken: map[string]error{}}
}

func (f *fakePush) Send(_ context.Context, token, _, _ string, _ map[string]string) error {
	f.calls = append(f.calls, token)
	return f.errByToken[token]
}

func (f *fakePush) Configured() bool { return f.configured }

func testOrder() order.Order {
	return order.Order{
		ID:            "doc-1",
		OrderID:       "ORD-42",
		CustomerName:  "Ravi Kumar",
		CustomerPhone: "+911234567890",
		TotalAmount:   350,
		Items: []order.Item{
			{Name: "Butter Naan", Quantity: 2},
			{Name: "Dal Makhani", Quantity: 1},
		},
		OrderStatus: "pending",
		CreatedAt:   time.Now(),
	}
}

func TestNotifyCustomer_TemplateSucceeds(t *testing.T) {
	chat := newFakeChat()
	n := NewNotifier(chat, newFakePush(), NotifierConfig{})

	res := n.NotifyCustomer(context.Background(), testOrder())

	assert.Equal(t, OutcomeSent, res.Outcome)
	assert.Equal(t, "+911234567890", res.Recipient)
	assert.Len(t, chat.templateCalls, 1)
	assert.Empty(t, chat.textCalls, "no fallback on template success")
}

func TestNotifyCustomer_FallsBackToText(t *testing.T) {
	chat := newFakeChat()
	chat.templateErr = errors.New("template not approved")
	n := NewNotifier(chat, newFakePush(), NotifierConfig{})

	res := n.NotifyCustomer(context.Background(), testOrder())

	assert.Equal(t, OutcomeSentFallback, res.Outcome)
	assert.True(t, res.Outcome.Delivered())
	assert.Len(t, chat.textCalls, 1)
}

func TestNotifyCustomer_CredentialExpiredShortCircuits(t *testing.T) {
	chat := newFakeChat()
	chat.templateErr = common.NewCredentialExpiredError("whatsapp")
	n := NewNotifier(chat, newFakePush(), NotifierConfig{})

	res := n.NotifyCustomer(context.Background(), testOrder())

	assert.Equal(t, OutcomeCredentialExpired, res.Outcome)
	assert.Empty(t, chat.textCalls, "expired credential must not trigger the text fallback")
}

func TestNotifyCustomer_NotConfigured(t *testing.T) {
	chat := newFakeChat()
	chat.configured = false
	n := NewNotifier(chat, newFakePush(), NotifierConfig{})

	res := n.NotifyCustomer(context.Background(), testOrder())

	assert.Equal(t, OutcomeNotConfigured, res.Outcome)
	assert.Empty(t, chat.templateCalls)
}

func TestNotifyCustomer_NoPhone(t *testing.T) {
	chat := newFakeChat()
	n := NewNotifier(chat, newFakePush(), NotifierConfig{})

	o := testOrder()
	o.CustomerPhone = ""
	res := n.NotifyCustomer(context.Background(), o)

	assert.Equal(t, OutcomeNoRecipient, res.Outcome)
	assert.Empty(t, chat.templateCalls)
}

func TestNotifyAdmins_PartialFailure(t *testing.T) {
	chat := newFakeChat()
	chat.textErr["+91111"] = errors.New("network down")
	n := NewNotifier(chat, newFakePush(), NotifierConfig{
		AdminNumbers: []string{"+91111", "+92222", "+93333"},
	})

	res := n.NotifyAdmins(context.Background(), testOrder())

	require.Len(t, res.Results, 3)
	assert.True(t, res.Delivered, "one success is enough for delivered")
	assert.Equal(t, OutcomeFailed, res.Results[0].Outcome)
	assert.Equal(t, OutcomeSent, res.Results[1].Outcome)
	assert.Equal(t, OutcomeSent, res.Results[2].Outcome)
	assert.Len(t, chat.textCalls, 3, "every admin is attempted regardless of earlier failures")
}

func TestNotifyAdmins_NoAdminsConfigured(t *testing.T) {
	n := NewNotifier(newFakeChat(), newFakePush(), NotifierConfig{})

	res := n.NotifyAdmins(context.Background(), testOrder())

	assert.False(t, res.Delivered)
	require.Len(t, res.Results, 1)
	assert.Equal(t, OutcomeNoRecipient, res.Results[0].Outcome)
}

func TestSendPush_BatchIndependence(t *testing.T) {
	p := newFakePush()
	p.errByToken["tok-bad"] = fmt.Errorf("fcm: NotRegistered: %w", ErrUnregisteredToken)
	p.errByToken["tok-down"] = errors.New("timeout")
	n := NewNotifier(newFakeChat(), p, NotifierConfig{})

	res, err := n.SendPush(context.Background(), []string{"tok-good-1", "tok-bad", "tok-down", "tok-good-2"}, "t", "b")

	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, res.Outcome)
	assert.Equal(t, 4, res.Summary.Total)
	assert.Equal(t, 2, res.Summary.Successful)
	assert.Equal(t, 2, res.Summary.Failed)
	assert.Len(t, p.calls, 4, "a failing token must not abort the batch")

	require.Len(t, res.Results, 4)
	assert.True(t, res.Results[1].Unregistered)
	assert.False(t, res.Results[2].Unregistered, "generic failures are not classified as unregistered")
}

func TestSendPush_AllFailed(t *testing.T) {
	p := newFakePush()
	p.errByToken["tok-1"] = errors.New("boom")
	n := NewNotifier(newFakeChat(), p, NotifierConfig{})

	res, err := n.SendPush(context.Background(), []string{"tok-1"}, "t", "b")

	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestSendPush_EmptyTokens(t *testing.T) {
	n := NewNotifier(newFakeChat(), newFakePush(), NotifierConfig{})

	_, err := n.SendPush(context.Background(), nil, "t", "b")

	var validation *common.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestSendPush_NotConfigured(t *testing.T) {
	p := newFakePush()
	p.configured = false
	n := NewNotifier(newFakeChat(), p, NotifierConfig{})

	res, err := n.SendPush(context.Background(), []string{"tok-1"}, "t", "b")

	require.NoError(t, err, "a missing credential is a result, not an error")
	assert.Equal(t, OutcomeNotConfigured, res.Outcome)
	assert.Empty(t, p.calls)
}

func TestInlineItems_Truncation(t *testing.T) {
	items := make([]order.Item, 20)
	for i := range items {
		items[i] = order.Item{Name: strings.Repeat("x", 15), Quantity: 1}
	}

	got := inlineItems(items)

	assert.LessOrEqual(t, len([]rune(got)), templateParamLimit)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestInlineItems_ShortListUntouched(t *testing.T) {
	got := inlineItems([]order.Item{{Name: "Chai", Quantity: 2}})
	assert.Equal(t, "Chai x2", got)
}

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Ravi", firstName("Ravi Kumar"))
	assert.Equal(t, "Customer", firstName(""))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "₹350", formatAmount(350))
	assert.Equal(t, "₹99.5", formatAmount(99.5))
	assert.Equal(t, "N/A", formatAmount(0))
}
