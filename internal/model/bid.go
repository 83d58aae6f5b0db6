package model

import (
	"encoding/json"
	"time"
)

// Bid represents one placed bid as stored in the `bids` table.  Bids are
// append-only: users never update them, and the only mutation ever applied
// is the auction closer marking exactly one bid per session as winning.
//
// Fields:
//  ID               – primary key identifier.
//  AuctionSessionID – bidding round this bid belongs to.
//  AdID             – the listing being bid on.
//  BidderID         – user who placed the bid.
//  SellerID         – owner of the listing, denormalized for seller queries.
//  StartingBidCents – the floor the bidder was competing against when they
//                     bid (their own prior highest, else the starting price).
//  CurrentBidCents  – the bid amount itself.
//  Attributes       – opaque bidder-selected option data (variant choices
//                     and the like); passed through unvalidated.
//  IsWinningBid     – false until the closer selects this bid.
//  CreatedAt        – insertion time, used for recency and tie-breaking.
type Bid struct {
	ID               uint64          // bids.id
	AuctionSessionID string          // bids.auction_session_id
	AdID             uint64          // bids.ad_id
	BidderID         uint64          // bids.bidder_id
	SellerID         uint64          // bids.seller_id
	StartingBidCents uint64          // bids.starting_bid_cents
	CurrentBidCents  uint64          // bids.current_bid_cents
	Attributes       json.RawMessage // bids.attributes (JSON, nullable)
	IsWinningBid     bool            // bids.is_winning_bid
	CreatedAt        time.Time       // bids.created_at
}
