package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ramikh/marketplace-auction/internal/auction"
	"github.com/ramikh/marketplace-auction/internal/model"
	"github.com/ramikh/marketplace-auction/internal/queue"
	"github.com/ramikh/marketplace-auction/internal/repository"
)

// AdHandler bundles the repositories for listing creation, public listing
// reads and the admin approval that activates an auction round.
type AdHandler struct {
	Ads *repository.AdRepo
}

// NewAdHandler constructs an AdHandler. The repository must be non-nil.
func NewAdHandler(ads *repository.AdRepo) *AdHandler {
	if ads == nil {
		panic("nil repository passed to NewAdHandler")
	}
	return &AdHandler{Ads: ads}
}

type createAdReq struct {
	Title               string `json:"title" validate:"required"`
	SaleType            string `json:"sale_type" validate:"required,oneof=AUCTION BUY_NOW NOT_FOR_SALE"`
	IsAuctionEnabled    bool   `json:"is_auction_enabled"`
	AuctionDurationDays int    `json:"auction_duration_days"`
	StartingPriceCents  uint64 `json:"starting_price_cents"`
	ReservePriceEnabled bool   `json:"reserve_price_enabled"`
	ReservePriceCents   uint64 `json:"reserve_price_cents"`
	AvailableUnits      uint32 `json:"available_units"`
	ScheduledPublishAt  string `json:"scheduled_publish_at"` // RFC3339, optional
}

// adResp is the sanitized listing shape returned to clients.
type adResp struct {
	ID                  uint64     `json:"id"`
	SellerID            uint64     `json:"seller_id"`
	Title               string     `json:"title"`
	SaleType            string     `json:"sale_type"`
	Status              string     `json:"status"`
	IsAuctionEnabled    bool       `json:"is_auction_enabled"`
	AuctionSessionID    *string    `json:"auction_session_id,omitempty"`
	AuctionStartAt      *time.Time `json:"auction_start_at,omitempty"`
	AuctionEndAt        *time.Time `json:"auction_end_at,omitempty"`
	AuctionDurationDays int        `json:"auction_duration_days"`
	StartingPriceCents  uint64     `json:"starting_price_cents"`
	AvailableUnits      uint32     `json:"available_units"`
	CreatedAt           time.Time  `json:"created_at"`
}

func toAdResp(ad *model.Ad) adResp {
	return adResp{
		ID:                  ad.ID,
		SellerID:            ad.SellerID,
		Title:               ad.Title,
		SaleType:            ad.SaleType,
		Status:              ad.Status,
		IsAuctionEnabled:    ad.IsAuctionEnabled,
		AuctionSessionID:    ad.AuctionSessionID,
		AuctionStartAt:      ad.AuctionStartAt,
		AuctionEndAt:        ad.AuctionEndAt,
		AuctionDurationDays: ad.AuctionDurationDays,
		StartingPriceCents:  ad.StartingPriceCents,
		AvailableUnits:      ad.AvailableUnits,
		CreatedAt:           ad.CreatedAt,
	}
}

// CreateAd handles POST /v1/ads. Sellers create listings; auction listings
// enter moderation as PENDING and only start their bidding round on admin
// approval. The reserve price, when enabled, must exceed the starting
// price; this is the only point where the reserve is checked.
func (h *AdHandler) CreateAd(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createAdReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	var publishAt *time.Time
	if s := strings.TrimSpace(req.ScheduledPublishAt); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid scheduled_publish_at format"})
		}
		tu := t.UTC()
		publishAt = &tu
	}

	status := model.AdStatusActive
	if req.SaleType == model.SaleTypeAuction {
		if !req.IsAuctionEnabled {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "auction items must enable the auction"})
		}
		if req.AuctionDurationDays < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "auction_duration_days must be at least 1"})
		}
		if req.StartingPriceCents == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "starting_price_cents is required for auctions"})
		}
		if req.ReservePriceEnabled && req.ReservePriceCents <= req.StartingPriceCents {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "reserve price must exceed the starting price"})
		}
		status = model.AdStatusPending
	} else if req.IsAuctionEnabled {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "only auction items can enable the auction"})
	}

	units := req.AvailableUnits
	if units == 0 {
		units = 1
	}

	ad := &model.Ad{
		SellerID:            sellerID,
		Title:               req.Title,
		SaleType:            req.SaleType,
		Status:              status,
		IsAuctionEnabled:    req.IsAuctionEnabled,
		AuctionDurationDays: req.AuctionDurationDays,
		StartingPriceCents:  req.StartingPriceCents,
		ReservePriceEnabled: req.ReservePriceEnabled,
		ReservePriceCents:   req.ReservePriceCents,
		AvailableUnits:      units,
		ScheduledPublishAt:  publishAt,
	}
	if err := h.Ads.Create(c.Request().Context(), ad); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create ad"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": toAdResp(ad)})
}

// GetAd handles GET /v1/ads/:id and returns a single listing.
func (h *AdHandler) GetAd(c echo.Context) error {
	adID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ad id"})
	}
	ad, err := h.Ads.GetByID(c.Request().Context(), adID)
	if err != nil {
		if errors.Is(err, repository.ErrAdNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ad not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ad"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toAdResp(ad)})
}

// ApproveAd handles POST /v1/admin/ads/:id/approve. Approving a pending
// auction listing mints a fresh session id, computes the bidding window
// and schedules the delayed close job for the end of the window. The job
// enqueue is best-effort: a broker outage must not fail the approval that
// already committed, so the error is logged and swallowed.
func (h *AdHandler) ApproveAd(c echo.Context) error {
	adID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ad id"})
	}
	ctx := c.Request().Context()

	ad, err := h.Ads.GetByID(ctx, adID)
	if err != nil {
		if errors.Is(err, repository.ErrAdNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ad not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ad"})
	}
	if ad.SaleType != model.SaleTypeAuction || !ad.IsAuctionEnabled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "ad is not an auction listing"})
	}
	if ad.Status != model.AdStatusPending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "ad is not pending approval"})
	}
	if ad.AuctionDurationDays < 1 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "ad has no auction duration"})
	}

	sessionID, err := auction.NewSessionID()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to mint session"})
	}
	now := time.Now().UTC()
	start, end := auction.ComputeWindow(ad.ScheduledPublishAt, ad.AuctionDurationDays, now)

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
	if err := h.Ads.ActivateAuctionTx(ctx, tx, adID, sessionID, start, end); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "ad was approved concurrently"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to activate auction"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	// The activation is durable at this point. Enqueue failure leaves an
	// auction without a close job; the error is logged for the operator.
	job := queue.AuctionCloseJob{
		AdID:         adID,
		SessionID:    sessionID,
		ScheduledFor: end.Format(time.RFC3339),
	}
	if err := queue.PublishAuctionClose(ctx, job, end.Sub(now)); err != nil {
		log.Printf("approve: scheduling close job for ad=%d session=%s failed: %v", adID, sessionID, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"ad_id":            adID,
		"session_id":       sessionID,
		"auction_start_at": start.Format(time.RFC3339),
		"auction_end_at":   end.Format(time.RFC3339),
	})
}
