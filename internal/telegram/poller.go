package telegram

import (
	"context"
	"strconv"
	"time"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/utils"
)

const pollTimeoutSeconds = 30

// RouteFunc is the inbound side of the message router: it turns one
// user message into one reply.
type RouteFunc func(ctx context.Context, chatID, text string) string

// ReplyFunc hands the reply to the outbound path (the dispatch queue);
// the poller never blocks on delivery.
type ReplyFunc func(chatID string, text string)

// Poller drives the Telegram long-poll loop and feeds messages to the
// router.
type Poller struct {
	client *Client
	route  RouteFunc
	reply  ReplyFunc
}

func NewPoller(client *Client, route RouteFunc, reply ReplyFunc) *Poller {
	return &Poller{client: client, route: route, reply: reply}
}

// Run polls until the context is cancelled. Each inbound message is
// handled on its own goroutine; per-user ordering is the router's job.
func (p *Poller) Run(ctx context.Context) {
	utils.Logger.Info("Starting Telegram long-poll loop")

	var offset int64
	for {
		if ctx.Err() != nil {
			utils.Logger.Info("Telegram poller stopped")
			return
		}

		updates, err := p.client.GetUpdates(ctx, offset, pollTimeoutSeconds)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			utils.Logger.WithError(err).Warn("getUpdates failed; backing off")
			select {
			case <-ctx.Done():
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			if upd.Message == nil {
				continue
			}

			msg := upd.Message
			chatID := strconv.FormatInt(msg.Chat.ID, 10)
			text := msg.Text

			go func() {
				var reply string
				if text == "" {
					reply = "Only text messages are supported."
				} else {
					reply = p.route(ctx, chatID, text)
				}
				if reply != "" {
					p.reply(chatID, reply)
				}
			}()
		}
	}
}
