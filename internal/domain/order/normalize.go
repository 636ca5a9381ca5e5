package order

import (
	"strings"
	"time"
)

// Upstream order sources use two incompatible schemas for the same
// concept: a flat document, or a document whose orderId field is itself
// the order-details payload. DecodeRaw sniffs the shape exactly once so
// Normalize can be a plain match instead of repeated field probing.

// DecodeRaw resolves a raw document into its tagged shape.
func DecodeRaw(doc map[string]any) Raw {
	if details, ok := doc["orderId"].(map[string]any); ok {
		return Raw{Shape: ShapeNested, Doc: doc, Details: details}
	}
	return Raw{Shape: ShapeFlat, Doc: doc, OrderID: stringField(doc, "orderId")}
}

// Normalize maps a raw order document into the canonical Order. It is
// total: every input yields a fully populated record, with defaults
// substituted for anything missing, and it never fails.
func Normalize(id string, createdAt time.Time, doc map[string]any) Order {
	raw := DecodeRaw(doc)

	o := Order{
		ID:        id,
		OrderID:   raw.OrderID,
		CreatedAt: createdAt,
	}
	if o.OrderID == "" {
		o.OrderID = id
	}

	switch raw.Shape {
	case ShapeNested:
		// The nested payload is authoritative; name and phone fall back
		// to the outer document when the payload has neither.
		o.CustomerName = firstNonEmpty(resolveName(raw.Details), resolveName(raw.Doc))
		o.CustomerPhone = firstNonEmpty(resolvePhone(raw.Details), resolvePhone(raw.Doc))
		o.TotalAmount = numberField(raw.Details, "totalAmount", "total_amount", "amount")
		o.DeliveryAddress = stringField(raw.Details, "deliveryAddress", "delivery_address", "address")
		o.Items = itemsField(raw.Details, "items", "orderItems")
		o.OrderStatus = stringField(raw.Details, "status", "orderStatus")
	default:
		o.CustomerName = resolveName(raw.Doc)
		o.CustomerPhone = resolvePhone(raw.Doc)
		o.TotalAmount = numberField(raw.Doc, "totalAmount", "total_amount", "amount")
		o.DeliveryAddress = stringField(raw.Doc, "deliveryAddress", "delivery_address", "address")
		o.Items = itemsField(raw.Doc, "items", "orderItems", "products")
		o.OrderStatus = stringField(raw.Doc, "status", "orderStatus")
	}

	if o.CustomerName == "" {
		o.CustomerName = "Customer"
	}
	if o.OrderStatus == "" {
		o.OrderStatus = "pending"
	}
	if o.Items == nil {
		o.Items = []Item{}
	}

	return o
}

// resolveName resolves a customer name from one document level:
// explicit customerName, then author first+last, then author.name.
// Returns "" when the level has no usable name.
func resolveName(m map[string]any) string {
	if name := stringField(m, "customerName"); name != "" {
		return name
	}
	author := subMap(m, "author")
	if author == nil {
		return ""
	}
	first := stringField(author, "firstName")
	last := stringField(author, "lastName")
	if joined := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last)); joined != "" {
		return joined
	}
	return stringField(author, "name")
}

// resolvePhone resolves a customer phone from one document level.
func resolvePhone(m map[string]any) string {
	if phone := stringField(m, "customerPhone"); phone != "" {
		return phone
	}
	if author := subMap(m, "author"); author != nil {
		return stringField(author, "phoneNumber")
	}
	return ""
}

// itemsField extracts line items from the first key holding a list.
// Entries tolerate name/itemName aliases and a missing quantity.
func itemsField(m map[string]any, keys ...string) []Item {
	for _, key := range keys {
		list, ok := m[key].([]any)
		if !ok {
			continue
		}
		items := make([]Item, 0, len(list))
		for _, entry := range list {
			em, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			name := firstNonEmpty(stringField(em, "name"), stringField(em, "itemName"), "Item")
			qty := int(numberField(em, "quantity"))
			if qty <= 0 {
				qty = 1
			}
			items = append(items, Item{Name: name, Quantity: qty})
		}
		return items
	}
	return nil
}

// stringField returns the first non-empty string value among keys.
func stringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// numberField returns the first numeric value among keys, tolerating the
// numeric types JSON decoding and store SDKs produce.
func numberField(m map[string]any, keys ...string) float64 {
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			return v
		case float32:
			return float64(v)
		case int:
			return float64(v)
		case int64:
			return float64(v)
		}
	}
	return 0
}

// subMap returns a nested map value, or nil.
func subMap(m map[string]any, key string) map[string]any {
	sub, _ := m[key].(map[string]any)
	return sub
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
