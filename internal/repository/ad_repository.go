package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ramikh/marketplace-auction/internal/model"
)

// AdRepo provides data access to the `ads` table. Auction state changes
// (activation, close) run inside caller-owned transactions so that they
// can be combined with bid-ledger writes; plain reads use the pool
// directly. All timestamps are stored and compared in UTC.
type AdRepo struct {
	db *sql.DB
}

// NewAdRepo returns a new AdRepo bound to the provided database.
func NewAdRepo(db *sql.DB) *AdRepo { return &AdRepo{db: db} }

// DB exposes the underlying pool so handlers can begin transactions.
func (r *AdRepo) DB() *sql.DB { return r.db }

const adColumns = `id, seller_id, title, sale_type, status, is_auction_enabled,
       current_auction_session_id, auction_start_at, auction_end_at,
       auction_duration_days, starting_price_cents, reserve_price_enabled,
       reserve_price_cents, available_units, scheduled_publish_at,
       created_at, updated_at`

type adScanner interface {
	Scan(dest ...any) error
}

func scanAd(row adScanner) (*model.Ad, error) {
	var (
		ad        model.Ad
		sessionID sql.NullString
		startAt   sql.NullTime
		endAt     sql.NullTime
		publishAt sql.NullTime
	)
	err := row.Scan(
		&ad.ID, &ad.SellerID, &ad.Title, &ad.SaleType, &ad.Status, &ad.IsAuctionEnabled,
		&sessionID, &startAt, &endAt,
		&ad.AuctionDurationDays, &ad.StartingPriceCents, &ad.ReservePriceEnabled,
		&ad.ReservePriceCents, &ad.AvailableUnits, &publishAt,
		&ad.CreatedAt, &ad.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if sessionID.Valid {
		ad.AuctionSessionID = &sessionID.String
	}
	if startAt.Valid {
		t := startAt.Time.UTC()
		ad.AuctionStartAt = &t
	}
	if endAt.Valid {
		t := endAt.Time.UTC()
		ad.AuctionEndAt = &t
	}
	if publishAt.Valid {
		t := publishAt.Time.UTC()
		ad.ScheduledPublishAt = &t
	}
	return &ad, nil
}

// Create inserts a new ad listing and populates its ID. Auction ads enter
// the moderation queue as PENDING with no session; the session and window
// are only set on activation.
func (r *AdRepo) Create(ctx context.Context, ad *model.Ad) error {
	var publishAt any
	if ad.ScheduledPublishAt != nil {
		publishAt = ad.ScheduledPublishAt.UTC().Format("2006-01-02 15:04:05")
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO ads (seller_id, title, sale_type, status, is_auction_enabled,
		                  auction_duration_days, starting_price_cents,
		                  reserve_price_enabled, reserve_price_cents,
		                  available_units, scheduled_publish_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		ad.SellerID, ad.Title, ad.SaleType, ad.Status, ad.IsAuctionEnabled,
		ad.AuctionDurationDays, ad.StartingPriceCents,
		ad.ReservePriceEnabled, ad.ReservePriceCents,
		ad.AvailableUnits, publishAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ad.ID = uint64(id)
	return nil
}

// GetByID fetches an ad by id. Returns ErrAdNotFound when no row exists.
func (r *AdRepo) GetByID(ctx context.Context, id uint64) (*model.Ad, error) {
	ad, err := scanAd(r.db.QueryRowContext(ctx,
		`SELECT `+adColumns+` FROM ads WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrAdNotFound
	}
	return ad, err
}

// GetForUpdateTx fetches an ad inside the given transaction with a row
// lock. The lock is the per-ad serialization point: concurrent bid
// placements and the auction closer all take it, so a bidder's floor
// check and the closer's winner selection each observe a consistent
// snapshot. Returns ErrAdNotFound when no row exists.
func (r *AdRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Ad, error) {
	ad, err := scanAd(tx.QueryRowContext(ctx,
		`SELECT `+adColumns+` FROM ads WHERE id = ? FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return nil, ErrAdNotFound
	}
	return ad, err
}

// ActivateAuctionTx performs the Inactive -> Live transition: it stores
// the freshly minted session id and the computed bidding window and flips
// the listing to ACTIVE. The WHERE clause restricts the update to pending
// auction ads so a double approval is rejected with ErrConflict rather
// than silently re-minting a session.
func (r *AdRepo) ActivateAuctionTx(ctx context.Context, tx *sql.Tx, adID uint64, sessionID string, start, end time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE ads
		    SET status = ?, current_auction_session_id = ?,
		        auction_start_at = ?, auction_end_at = ?, updated_at = NOW()
		  WHERE id = ? AND sale_type = ? AND is_auction_enabled = 1 AND status = ?`,
		model.AdStatusActive, sessionID,
		start.UTC().Format("2006-01-02 15:04:05"), end.UTC().Format("2006-01-02 15:04:05"),
		adID, model.SaleTypeAuction, model.AdStatusPending,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// CloseAuctionTx performs the terminal Live -> SoldOut/Expired transition.
// The session id in the WHERE clause is the optimistic generation guard:
// if the ad's live session changed (or was already cleared by an earlier
// close), zero rows match and ErrStaleSession is returned, making repeated
// close jobs safe no-ops. Either way the item leaves the auction path for
// good: auction disabled, session cleared, sale type NOT_FOR_SALE.
func (r *AdRepo) CloseAuctionTx(ctx context.Context, tx *sql.Tx, adID uint64, sessionID string, sold bool) error {
	status := model.AdStatusExpired
	units := ""
	if sold {
		status = model.AdStatusSoldOut
		units = ", available_units = 0"
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE ads
		    SET status = ?, sale_type = ?, is_auction_enabled = 0,
		        current_auction_session_id = NULL, updated_at = NOW()`+units+`
		  WHERE id = ? AND current_auction_session_id = ?`,
		status, model.SaleTypeNotForSale, adID, sessionID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleSession
	}
	return nil
}
