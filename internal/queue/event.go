// Package queue defines the message payloads exchanged over the broker
// and the publisher/consumer pair for the delayed auction-close job.
package queue

// AuctionCloseJob is the delayed job that finalizes one bidding round.
// The session id travels with the job so the consumer can detect a stale
// job from a superseded session and no-op. ScheduledFor is the fire time:
// the consumer refuses to run the job before it and re-queues instead.
type AuctionCloseJob struct {
	AdID         uint64 `json:"ad_id"`
	SessionID    string `json:"session_id"`
	ScheduledFor string `json:"scheduled_for"` // RFC3339, the auction end time
}

// AuctionWonEvent is published when a session closes with a winner. It
// carries everything the downstream push-notification collaborator needs
// to notify the winning bidder without querying the primary database.
// DeviceToken is nil when the winner never registered a device.
type AuctionWonEvent struct {
	BidID           uint64  `json:"bid_id"`
	AdID            uint64  `json:"ad_id"`
	SessionID       string  `json:"session_id"`
	BidderID        uint64  `json:"bidder_id"`
	SellerID        uint64  `json:"seller_id"`
	AdTitle         string  `json:"ad_title"`
	WinningBidCents uint64  `json:"winning_bid_cents"`
	DeviceToken     *string `json:"device_token,omitempty"`
	ClosedAt        string  `json:"closed_at"` // RFC3339
}
