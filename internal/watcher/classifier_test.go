package watcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifierPayment(t *testing.T) {
	c := NewClassifier()

	testCases := []struct {
		name   string
		line   string
		want   PaymentEvent
		wantOK bool
	}{
		{
			name:   "plain payment",
			line:   "Alice paid you $100.",
			want:   PaymentEvent{Payer: "Alice", Amount: 100},
			wantOK: true,
		},
		{
			name:   "thousands separator",
			line:   "Alice paid you $1,500.",
			want:   PaymentEvent{Payer: "Alice", Amount: 1500},
			wantOK: true,
		},
		{
			name:   "no currency symbol or period",
			line:   "Bob_99 paid you 42",
			want:   PaymentEvent{Payer: "Bob_99", Amount: 42},
			wantOK: true,
		},
		{
			name:   "surrounding whitespace",
			line:   "  Alice paid you $100.  ",
			want:   PaymentEvent{Payer: "Alice", Amount: 100},
			wantOK: true,
		},
		{
			name:   "zero amount rejected",
			line:   "Alice paid you $0.",
			wantOK: false,
		},
		{
			name:   "ordinary chat line",
			line:   "<Alice> hello everyone",
			wantOK: false,
		},
		{
			name:   "payment phrase embedded in chat",
			line:   "<Bob> Alice paid you $100.",
			wantOK: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := c.Payment(tc.line)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestClassifierLink(t *testing.T) {
	c := NewClassifier()

	event, ok := c.Link("<Alice> !link k3mp2x")
	assert.True(t, ok)
	assert.Equal(t, LinkEvent{Player: "Alice", Code: "k3mp2x"}, event)

	_, ok = c.Link("<Alice> !link TOOLONGCODE")
	assert.False(t, ok)

	_, ok = c.Link("Alice !link k3mp2x")
	assert.False(t, ok, "Link confirmations only count inside chat brackets")

	_, ok = c.Link("<Alice> !link K3MP2X")
	assert.False(t, ok, "Codes are issued lowercase only")
}
