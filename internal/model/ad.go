package model

import "time"

// Sale types of an ad listing.  Only AUCTION items participate in the
// bidding subsystem; the other two values exist because a closed auction
// flips its item to NOT_FOR_SALE.
const (
	SaleTypeAuction    = "AUCTION"
	SaleTypeBuyNow     = "BUY_NOW"
	SaleTypeNotForSale = "NOT_FOR_SALE"
)

// Listing lifecycle statuses.  Auction ads are created PENDING and become
// ACTIVE on admin approval.  SOLD_OUT and EXPIRED are terminal: no
// transition leads back to ACTIVE for the same listing.
const (
	AdStatusPending = "PENDING"
	AdStatusActive  = "ACTIVE"
	AdStatusSoldOut = "SOLD_OUT"
	AdStatusExpired = "EXPIRED"
)

// Ad represents the auction view of an ad listing as stored in the `ads`
// table.  The session id acts as a generation counter: it is re-minted
// every time a bidding round starts and cleared when the round closes, so
// exactly one session is live per ad at any time. The reserve price is
// checked at creation only; the window fields are nil until approval.
type Ad struct {
	ID                  uint64     // ads.id
	SellerID            uint64     // ads.seller_id
	Title               string     // ads.title
	SaleType            string     // ads.sale_type
	Status              string     // ads.status
	IsAuctionEnabled    bool       // ads.is_auction_enabled
	AuctionSessionID    *string    // ads.current_auction_session_id (nullable)
	AuctionStartAt      *time.Time // ads.auction_start_at (nullable)
	AuctionEndAt        *time.Time // ads.auction_end_at (nullable)
	AuctionDurationDays int        // ads.auction_duration_days
	StartingPriceCents  uint64     // ads.starting_price_cents
	ReservePriceEnabled bool       // ads.reserve_price_enabled
	ReservePriceCents   uint64     // ads.reserve_price_cents
	AvailableUnits      uint32     // ads.available_units
	ScheduledPublishAt  *time.Time // ads.scheduled_publish_at (nullable)
	CreatedAt           time.Time  // ads.created_at
	UpdatedAt           time.Time  // ads.updated_at
}
