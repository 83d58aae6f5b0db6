package auction

import (
	"fmt"
	"time"

	"github.com/ramikh/marketplace-auction/internal/model"
)

// Rejection codes returned by ValidateBid.  Handlers surface the message
// to the caller; the code is for logging and tests.
const (
	RejectNotAuction      = "not_auction"
	RejectAuctionDisabled = "auction_disabled"
	RejectNoActiveSession = "no_active_session"
	RejectNotStarted      = "not_started"
	RejectAlreadyEnded    = "already_ended"
	RejectInvalidAmount   = "invalid_amount"
	RejectBelowFloor      = "below_floor"
)

// RejectionError carries the first failed bid precondition.  It is a
// normal outcome of bid placement, not a server fault: handlers translate
// it into {accepted:false, reason} and never retry it.
type RejectionError struct {
	Code    string
	Message string
}

func (e *RejectionError) Error() string { return e.Message }

// ValidateBid decides whether a bid amount is accepted against an ad's
// auction state.  Preconditions are checked in a fixed order and the first
// failing one is returned; nil means the bid is accepted and the caller
// may insert it into the ledger.  The decision is pure: no I/O, no side
// effects.
//
// bidderHighestCents is the calling bidder's own highest prior bid in the
// current session, or nil when they have not bid yet.  The floor a new bid
// must exceed is that per-bidder amount, falling back to the starting
// price, not the global high bid (see Floor).
func ValidateBid(amountCents uint64, ad *model.Ad, bidderHighestCents *uint64, now time.Time) *RejectionError {
	if ad.SaleType != model.SaleTypeAuction {
		return &RejectionError{Code: RejectNotAuction, Message: "this item is not an auction item"}
	}
	if !ad.IsAuctionEnabled {
		return &RejectionError{Code: RejectAuctionDisabled, Message: "auction is not enabled for this item"}
	}
	if ad.AuctionSessionID == nil || *ad.AuctionSessionID == "" {
		return &RejectionError{Code: RejectNoActiveSession, Message: "no active auction session for this item"}
	}
	// An auction without a timed window is never open for bidding.
	if ad.AuctionStartAt == nil || ad.AuctionEndAt == nil || ad.AuctionDurationDays <= 0 {
		return &RejectionError{Code: RejectAlreadyEnded, Message: "auction has already ended"}
	}
	switch PhaseAt(now, *ad.AuctionStartAt, *ad.AuctionEndAt) {
	case PhaseNotStarted:
		return &RejectionError{Code: RejectNotStarted, Message: "auction has not started yet"}
	case PhaseEnded:
		return &RejectionError{Code: RejectAlreadyEnded, Message: "auction has already ended"}
	}
	if amountCents == 0 {
		return &RejectionError{Code: RejectInvalidAmount, Message: "bid amount must be greater than zero"}
	}
	floor, own := Floor(ad, bidderHighestCents)
	if amountCents <= floor {
		if own {
			return &RejectionError{
				Code:    RejectBelowFloor,
				Message: fmt.Sprintf("bid must be higher than your current bid: %d", floor),
			}
		}
		return &RejectionError{
			Code:    RejectBelowFloor,
			Message: fmt.Sprintf("bid must be higher than the starting price: %d", floor),
		}
	}
	return nil
}

// Floor returns the amount a new bid from this bidder must exceed, and
// whether that floor is the bidder's own prior bid (as opposed to the
// starting price).  Acceptance is per-bidder monotonic, not globally
// monotonic: two bidders can both hold accepted bids where one is below
// the other's, because each competes only against their own history.
func Floor(ad *model.Ad, bidderHighestCents *uint64) (cents uint64, ownBid bool) {
	if bidderHighestCents != nil {
		return *bidderHighestCents, true
	}
	return ad.StartingPriceCents, false
}
