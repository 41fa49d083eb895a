package notify

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/models"
)

func money(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

func itemLines(items []models.OrderItem) string {
	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "  %d x %s @ %s\n", it.Quantity, it.Name, money(it.Price))
		for _, sub := range it.BoxItems {
			fmt.Fprintf(&b, "      - %s\n", sub.Name)
		}
	}
	return b.String()
}

func OrderConfirmation(o models.Order) Message {
	var b strings.Builder
	name := o.CustomerName
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s,\n\nThanks for your order %s.\n\n", name, o.OrderNumber)
	b.WriteString(itemLines(o.Items))
	fmt.Fprintf(&b, "\nTotal: %s\nPickup: %s at %s\n", money(o.Total), o.PickupDate, o.PickupTime)

	return Message{
		Kind:    KindOrderConfirmation,
		To:      o.CustomerEmail,
		Subject: "Order confirmed: " + o.OrderNumber,
		Body:    b.String(),
	}
}

func BusinessAlert(o models.Order, businessEmail string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "New order %s from %s <%s>", o.OrderNumber, o.CustomerName, o.CustomerEmail)
	if o.CustomerPhone != "" {
		fmt.Fprintf(&b, " %s", o.CustomerPhone)
	}
	b.WriteString("\n\n")
	b.WriteString(itemLines(o.Items))
	fmt.Fprintf(&b, "\nTotal: %s\nPickup: %s at %s\n", money(o.Total), o.PickupDate, o.PickupTime)

	return Message{
		Kind:    KindBusinessAlert,
		To:      businessEmail,
		Subject: fmt.Sprintf("New order %s (%s)", o.OrderNumber, money(o.Total)),
		Body:    b.String(),
	}
}

func BalancePaid(o models.Order) Message {
	return Message{
		Kind:    KindBalancePaid,
		To:      o.CustomerEmail,
		Subject: "Payment received: " + o.OrderNumber,
		Body: fmt.Sprintf("Your order %s is paid in full (%s via %s). See you on %s at %s.\n",
			o.OrderNumber, money(o.Total), o.BalanceMethod, o.PickupDate, o.PickupTime),
	}
}

func ContactReceived(m models.ContactMessage, businessEmail string) Message {
	subject := m.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	return Message{
		Kind:    KindContactReceived,
		To:      businessEmail,
		Subject: "Contact form: " + subject,
		Body:    fmt.Sprintf("From %s <%s> %s\n\n%s\n", m.Name, m.Email, m.Phone, m.Message),
	}
}
