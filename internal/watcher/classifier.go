package watcher

import (
	"regexp"
	"strconv"
	"strings"
)

// PaymentEvent is a detected in-game payment to the bank account.
type PaymentEvent struct {
	Payer  string
	Amount int64
}

// LinkEvent is a detected in-game linking-code confirmation.
type LinkEvent struct {
	Player string
	Code   string
}

// Classifier matches raw chat lines against the payment and linking
// patterns. The patterns themselves are a black box to the rest of the
// watcher: everything downstream only sees the typed events.
type Classifier struct {
	payment *regexp.Regexp
	link    *regexp.Regexp
}

// NewClassifier builds the default classifier for the server's economy
// plugin chat format.
func NewClassifier() *Classifier {
	return &Classifier{
		// e.g. "Alice paid you $1,500."
		payment: regexp.MustCompile(`^(\w+) paid you \$?([\d,]+)\.?$`),
		// e.g. "<Alice> !link k3mp2x"
		link: regexp.MustCompile(`^<(\w+)> !link ([a-z0-9]{6})$`),
	}
}

// Payment returns the payment event in a chat line, if any.
func (c *Classifier) Payment(line string) (PaymentEvent, bool) {
	m := c.payment.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return PaymentEvent{}, false
	}

	amount, err := strconv.ParseInt(strings.ReplaceAll(m[2], ",", ""), 10, 64)
	if err != nil || amount <= 0 {
		return PaymentEvent{}, false
	}

	return PaymentEvent{Payer: m[1], Amount: amount}, true
}

// Link returns the linking-code event in a chat line, if any.
func (c *Classifier) Link(line string) (LinkEvent, bool) {
	m := c.link.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return LinkEvent{}, false
	}

	return LinkEvent{Player: m[1], Code: m[2]}, true
}
