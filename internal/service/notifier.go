package service

import (
	"context"
	"log"
	"time"

	"github.com/ramikh/marketplace-auction/internal/model"
	"github.com/ramikh/marketplace-auction/internal/queue"
)

// DeviceTokenStore resolves a user's registered push token.
type DeviceTokenStore interface {
	DeviceToken(ctx context.Context, userID uint64) (*string, error)
}

// QueueNotifier publishes auction-won events to the broker, where the
// external push collaborator picks them up. A token lookup failure only
// degrades the event (no token attached); it never blocks publishing.
type QueueNotifier struct {
	Users DeviceTokenStore
}

func NewQueueNotifier(users DeviceTokenStore) *QueueNotifier {
	return &QueueNotifier{Users: users}
}

// NotifyAuctionWon implements Notifier by publishing the winner event to
// the auction.won queue.
func (n *QueueNotifier) NotifyAuctionWon(ctx context.Context, ad *model.Ad, winner *model.Bid) error {
	var token *string
	if n.Users != nil {
		t, err := n.Users.DeviceToken(ctx, winner.BidderID)
		if err != nil {
			log.Printf("notifier: device token lookup for user=%d failed: %v", winner.BidderID, err)
		} else {
			token = t
		}
	}
	return queue.PublishAuctionWon(ctx, queue.AuctionWonEvent{
		BidID:           winner.ID,
		AdID:            ad.ID,
		SessionID:       winner.AuctionSessionID,
		BidderID:        winner.BidderID,
		SellerID:        winner.SellerID,
		AdTitle:         ad.Title,
		WinningBidCents: winner.CurrentBidCents,
		DeviceToken:     token,
		ClosedAt:        time.Now().UTC().Format(time.RFC3339),
	})
}
