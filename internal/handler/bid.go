package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ramikh/marketplace-auction/internal/auction"
	"github.com/ramikh/marketplace-auction/internal/model"
	"github.com/ramikh/marketplace-auction/internal/repository"
)

// BidHandler serves bid placement and the bid listing endpoints. Placement
// runs inside a transaction that locks the ad row, which serializes
// concurrent bids on the same ad (two requests from one bidder cannot both
// read the same floor) and fences against the closer: once the close
// commits, the cleared session id makes the validator reject late bids.
type BidHandler struct {
	Ads  *repository.AdRepo
	Bids *repository.BidRepo
}

// NewBidHandler constructs a BidHandler. All dependencies must be non-nil.
func NewBidHandler(ads *repository.AdRepo, bids *repository.BidRepo) *BidHandler {
	if ads == nil || bids == nil {
		panic("nil repository passed to NewBidHandler")
	}
	return &BidHandler{Ads: ads, Bids: bids}
}

type placeBidReq struct {
	BidAmountCents uint64          `json:"bid_amount_cents"`
	Attributes     json.RawMessage `json:"attributes"` // opaque option data, stored as-is
}

// PlaceBid handles POST /v1/ads/:id/bids. Every rejection category is a
// normal response, `{"accepted":false,"reason":...}` with HTTP 200, so
// clients can show the reason; only store failures surface as 5xx.
func (h *BidHandler) PlaceBid(c echo.Context) error {
	bidderID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	adID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ad id"})
	}
	var req placeBidReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	tx, err := h.Ads.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// The row lock holds until commit/rollback; everything below sees a
	// stable auction state for this ad.
	ad, err := h.Ads.GetForUpdateTx(ctx, tx, adID)
	if err != nil {
		if errors.Is(err, repository.ErrAdNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ad not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ad"})
	}

	var bidderHighest *uint64
	if ad.AuctionSessionID != nil {
		prior, err := h.Bids.HighestForBidderTx(ctx, tx, adID, *ad.AuctionSessionID, bidderID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bid history"})
		}
		if prior != nil {
			bidderHighest = &prior.CurrentBidCents
		}
	}

	if rej := auction.ValidateBid(req.BidAmountCents, ad, bidderHighest, time.Now().UTC()); rej != nil {
		return c.JSON(http.StatusOK, echo.Map{"accepted": false, "reason": rej.Message})
	}

	floor, _ := auction.Floor(ad, bidderHighest)
	bid := &model.Bid{
		AuctionSessionID: *ad.AuctionSessionID,
		AdID:             adID,
		BidderID:         bidderID,
		SellerID:         ad.SellerID,
		StartingBidCents: floor,
		CurrentBidCents:  req.BidAmountCents,
		Attributes:       req.Attributes,
	}
	if err := h.Bids.InsertTx(ctx, tx, bid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record bid"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusCreated, echo.Map{
		"accepted":          true,
		"bid_id":            bid.ID,
		"current_bid_cents": bid.CurrentBidCents,
	})
}

// ListAdBids handles GET /v1/ads/:id/bids. Public, paginated, ordered by
// amount descending.
func (h *BidHandler) ListAdBids(c echo.Context) error {
	adID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ad id"})
	}
	if _, err := h.Ads.GetByID(c.Request().Context(), adID); err != nil {
		if errors.Is(err, repository.ErrAdNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ad not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ad"})
	}
	limit, offset := pagination(c)
	items, err := h.Bids.ListByAd(c.Request().Context(), adID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bids"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// MyBids handles GET /v1/my-bids and returns the caller's bid history.
func (h *BidHandler) MyBids(c echo.Context) error {
	bidderID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Bids.ListByBidder(c.Request().Context(), bidderID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bids"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// SellerBids handles GET /v1/my-ads/bids and returns the bids received on
// the caller's listings, grouped per ad with the per-ad highest bid.
func (h *BidHandler) SellerBids(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Bids.ListBySeller(c.Request().Context(), sellerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bids"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
