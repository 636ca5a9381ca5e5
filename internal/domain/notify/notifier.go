package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"orderpulse/internal/common"
	"orderpulse/internal/domain/order"
)

// templateParamLimit caps the item-list template parameter; the chat
// platform rejects longer variables.
const templateParamLimit = 150

// NotifierConfig holds the delivery settings for the channel adapter.
type NotifierConfig struct {
	AdminNumbers     []string
	TemplateName     string
	TemplateLanguage string
	Location         *time.Location
}

// Notifier sends order and custom notifications over the chat and push
// transports. Each recipient is attempted independently; a failure on
// one never blocks another.
type Notifier struct {
	chat    ChatTransport
	push    PushTransport
	admins  []string
	tplName string
	tplLang string
	loc     *time.Location
	now     func() time.Time
}

// NewNotifier creates a new channel adapter.
func NewNotifier(chat ChatTransport, push PushTransport, cfg NotifierConfig) *Notifier {
	if cfg.TemplateName == "" {
		cfg.TemplateName = "order"
	}
	if cfg.TemplateLanguage == "" {
		cfg.TemplateLanguage = "en"
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Notifier{
		chat:    chat,
		push:    push,
		admins:  cfg.AdminNumbers,
		tplName: cfg.TemplateName,
		tplLang: cfg.TemplateLanguage,
		loc:     cfg.Location,
		now:     time.Now,
	}
}

// NotifyCustomer sends the "new order" notification to the ordering
// customer: template message first, plain text on any transport error.
func (n *Notifier) NotifyCustomer(ctx context.Context, o order.Order) ChatResult {
	if !n.chat.Configured() {
		return ChatResult{Outcome: OutcomeNotConfigured}
	}

	if o.CustomerPhone == "" {
		slog.Warn("customer notification skipped: no phone number", "order_id", o.OrderID)
		return ChatResult{Outcome: OutcomeNoRecipient}
	}

	res := ChatResult{Recipient: o.CustomerPhone}

	err := n.chat.SendTemplate(ctx, o.CustomerPhone, n.customerTemplate(o))
	if err == nil {
		res.Outcome = OutcomeSent
		return res
	}

	var expired *common.CredentialExpiredError
	if errors.As(err, &expired) {
		res.Outcome = OutcomeCredentialExpired
		res.Error = err.Error()
		return res
	}

	slog.Warn("template message rejected, falling back to text",
		"order_id", o.OrderID,
		"to", o.CustomerPhone,
		"error", err,
	)

	if err := n.chat.SendText(ctx, o.CustomerPhone, n.customerText(o)); err != nil {
		if errors.As(err, &expired) {
			res.Outcome = OutcomeCredentialExpired
		} else {
			res.Outcome = OutcomeFailed
		}
		res.Error = err.Error()
		return res
	}

	res.Outcome = OutcomeSentFallback
	return res
}

// NotifyAdmins fans the "new order" text out to every configured admin
// recipient independently and aggregates the per-recipient outcomes.
func (n *Notifier) NotifyAdmins(ctx context.Context, o order.Order) AdminResult {
	if !n.chat.Configured() {
		return AdminResult{Results: []ChatResult{{Outcome: OutcomeNotConfigured}}}
	}

	if len(n.admins) == 0 {
		return AdminResult{Results: []ChatResult{{Outcome: OutcomeNoRecipient}}}
	}

	body := n.adminText(o)
	agg := AdminResult{Results: make([]ChatResult, 0, len(n.admins))}

	for _, admin := range n.admins {
		res := ChatResult{Recipient: admin, Outcome: OutcomeSent}
		if err := n.chat.SendText(ctx, admin, body); err != nil {
			var expired *common.CredentialExpiredError
			if errors.As(err, &expired) {
				res.Outcome = OutcomeCredentialExpired
			} else {
				res.Outcome = OutcomeFailed
			}
			res.Error = err.Error()
			slog.Error("admin notification failed", "order_id", o.OrderID, "to", admin, "error", err)
		}
		if res.Outcome.Delivered() {
			agg.Delivered = true
		}
		agg.Results = append(agg.Results, res)
	}

	return agg
}

// SendPush delivers {title, body} to every token independently. One
// token's failure never aborts the batch. An empty token set is an
// error; a missing push credential is a distinguishable non-error
// result.
func (n *Notifier) SendPush(ctx context.Context, tokens []string, title, body string) (PushResult, error) {
	if len(tokens) == 0 {
		return PushResult{}, common.NewValidationError("no push tokens provided")
	}

	if !n.push.Configured() {
		return PushResult{Outcome: OutcomeNotConfigured}, nil
	}

	data := map[string]string{
		"title":        title,
		"body":         body,
		"timestamp":    n.now().UTC().Format(time.RFC3339),
		"click_action": "FLUTTER_NOTIFICATION_CLICK",
	}

	res := PushResult{Summary: PushSummary{Total: len(tokens)}}
	for _, token := range tokens {
		tr := TokenResult{Token: maskToken(token), Success: true}
		if err := n.push.Send(ctx, token, title, body, data); err != nil {
			tr.Success = false
			tr.Error = err.Error()
			tr.Unregistered = errors.Is(err, ErrUnregisteredToken)
			res.Summary.Failed++
			slog.Error("push send failed",
				"token", tr.Token,
				"unregistered", tr.Unregistered,
				"error", err,
			)
		} else {
			res.Summary.Successful++
		}
		res.Results = append(res.Results, tr)
	}

	if res.Summary.Successful > 0 {
		res.Outcome = OutcomeSent
	} else {
		res.Outcome = OutcomeFailed
	}
	return res, nil
}

// customerTemplate builds the template payload with its fixed parameter
// order: first name, order id, formatted local order time, item list.
func (n *Notifier) customerTemplate(o order.Order) TemplateMessage {
	items := inlineItems(o.Items)
	if items == "" {
		items = "Your ordered items"
	}

	return TemplateMessage{
		Name:     n.tplName,
		Language: n.tplLang,
		Parameters: []string{
			firstName(o.CustomerName),
			o.OrderID,
			n.now().In(n.loc).Format("02/01/2006, 15:04"),
			items,
		},
	}
}

// customerText builds the free-form fallback message for the customer.
func (n *Notifier) customerText(o order.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 *Thank you for your order!*\n\n")
	fmt.Fprintf(&b, "Hi %s! 👋\n\n", firstName(o.CustomerName))
	b.WriteString("Your order has been received and is being processed.\n\n")
	fmt.Fprintf(&b, "📋 *Order ID:* %s\n", o.OrderID)
	fmt.Fprintf(&b, "💰 *Total Amount:* %s\n", formatAmount(o.TotalAmount))
	fmt.Fprintf(&b, "⏰ *Order Time:* %s\n", n.now().In(n.loc).Format("02/01/2006, 15:04:05"))
	if lines := bulletItems(o.Items); lines != "" {
		fmt.Fprintf(&b, "\n*Your Order:*\n%s\n", lines)
	}
	b.WriteString("\nWe'll notify you when your order is ready for delivery! 🚚")
	return b.String()
}

// adminText builds the full-detail message sent to admin recipients.
func (n *Notifier) adminText(o order.Order) string {
	var b strings.Builder
	b.WriteString("🆕 *New Order!*\n\n")
	fmt.Fprintf(&b, "📋 *Order ID:* %s\n", o.OrderID)
	fmt.Fprintf(&b, "👤 *Customer:* %s\n", o.CustomerName)
	fmt.Fprintf(&b, "💰 *Total Amount:* %s\n", formatAmount(o.TotalAmount))
	fmt.Fprintf(&b, "📦 *Items:* %d\n", len(o.Items))
	fmt.Fprintf(&b, "📞 *Phone:* %s\n", valueOrNA(o.CustomerPhone))
	fmt.Fprintf(&b, "📍 *Address:* %s\n", valueOrNA(o.DeliveryAddress))
	fmt.Fprintf(&b, "⏰ *Time:* %s\n", n.now().In(n.loc).Format("02/01/2006, 15:04:05"))
	if lines := bulletItems(o.Items); lines != "" {
		fmt.Fprintf(&b, "\n*Order Items:*\n%s\n", lines)
	}
	b.WriteString("\nPlease check the dashboard for more details.")
	return b.String()
}

// inlineItems joins items with commas, truncated to the template
// parameter limit with an ellipsis.
func inlineItems(items []order.Item) string {
	if len(items) == 0 {
		return ""
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprintf("%s x%d", item.Name, item.Quantity)
	}
	joined := strings.Join(parts, ", ")
	if r := []rune(joined); len(r) > templateParamLimit {
		joined = string(r[:templateParamLimit-3]) + "..."
	}
	return joined
}

// bulletItems lists the first three items, with a suffix counting the rest.
func bulletItems(items []order.Item) string {
	if len(items) == 0 {
		return ""
	}
	shown := items
	if len(shown) > 3 {
		shown = shown[:3]
	}
	lines := make([]string, 0, len(shown)+1)
	for _, item := range shown {
		lines = append(lines, fmt.Sprintf("• %s x%d", item.Name, item.Quantity))
	}
	if rest := len(items) - len(shown); rest > 0 {
		lines = append(lines, fmt.Sprintf("• ... and %d more items", rest))
	}
	return strings.Join(lines, "\n")
}

func firstName(name string) string {
	if name == "" {
		return "Customer"
	}
	return strings.Fields(name)[0]
}

func formatAmount(amount float64) string {
	if amount == 0 {
		return "N/A"
	}
	return "₹" + strconv.FormatFloat(amount, 'f', -1, 64)
}

func valueOrNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
