package service

import (
	"context"
	"fmt"

	"sigilo/pkg/telegram"
)

// Notifier pushes the "payment confirmed" message with the released secret
// link to the customer who originated the purchase.
type Notifier interface {
	NotifyPaymentConfirmed(ctx context.Context, customerID int64, productTitle, secretLink string) error
}

// TelegramNotifier delivers secret links over the Telegram Bot API. The
// customer id is the originating chat id.
type TelegramNotifier struct {
	tg *telegram.Client
	// fallback link used when a payment snapshot carries no secret link
	secretAccessURL string
}

func NewTelegramNotifier(tg *telegram.Client, secretAccessURL string) *TelegramNotifier {
	return &TelegramNotifier{tg: tg, secretAccessURL: secretAccessURL}
}

func (n *TelegramNotifier) NotifyPaymentConfirmed(ctx context.Context, customerID int64, productTitle, secretLink string) error {
	link := secretLink
	if link == "" {
		link = n.secretAccessURL
	}
	text := fmt.Sprintf("Pagamento confirmado para %s!\nLink liberado: %s", productTitle, link)
	return n.tg.SendMessage(ctx, customerID, text)
}

// NoopNotifier is used when no delivery channel is configured; web-originated
// customers poll the read path instead.
type NoopNotifier struct{}

func (NoopNotifier) NotifyPaymentConfirmed(ctx context.Context, customerID int64, productTitle, secretLink string) error {
	return nil
}
