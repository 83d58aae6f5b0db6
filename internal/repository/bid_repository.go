package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ramikh/marketplace-auction/internal/model"
)

// BidRepo provides data access to the `bids` table, the append-only bid
// ledger. Writes that participate in the bid-placement or close critical
// sections take a caller-owned *sql.Tx (the caller also holds the ad row
// lock); listing queries for the read endpoints use the pool directly.
type BidRepo struct {
	db *sql.DB
}

// NewBidRepo returns a new BidRepo bound to the provided database.
func NewBidRepo(db *sql.DB) *BidRepo { return &BidRepo{db: db} }

const bidColumns = `id, auction_session_id, ad_id, bidder_id, seller_id,
       starting_bid_cents, current_bid_cents, attributes, is_winning_bid, created_at`

func scanBid(row adScanner) (*model.Bid, error) {
	var (
		b     model.Bid
		attrs sql.NullString
	)
	err := row.Scan(
		&b.ID, &b.AuctionSessionID, &b.AdID, &b.BidderID, &b.SellerID,
		&b.StartingBidCents, &b.CurrentBidCents, &attrs, &b.IsWinningBid, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if attrs.Valid {
		b.Attributes = []byte(attrs.String)
	}
	b.CreatedAt = b.CreatedAt.UTC()
	return &b, nil
}

// InsertTx appends a bid record within the provided transaction and
// populates its ID. The caller must have validated the amount and must
// hold the ad row lock so the session it observed is still the live one
// when this insert commits.
func (r *BidRepo) InsertTx(ctx context.Context, tx *sql.Tx, b *model.Bid) error {
	var attrs any
	if len(b.Attributes) > 0 {
		attrs = []byte(b.Attributes)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bids (auction_session_id, ad_id, bidder_id, seller_id,
		                   starting_bid_cents, current_bid_cents, attributes)
		 VALUES (?,?,?,?,?,?,?)`,
		b.AuctionSessionID, b.AdID, b.BidderID, b.SellerID,
		b.StartingBidCents, b.CurrentBidCents, attrs,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// HighestForBidderTx returns the calling bidder's highest bid in the given
// session, or nil when they have not bid yet. Used to compute the
// per-bidder floor during placement; runs in the placement transaction.
func (r *BidRepo) HighestForBidderTx(ctx context.Context, tx *sql.Tx, adID uint64, sessionID string, bidderID uint64) (*model.Bid, error) {
	b, err := scanBid(tx.QueryRowContext(ctx,
		`SELECT `+bidColumns+`
		   FROM bids
		  WHERE ad_id = ? AND auction_session_id = ? AND bidder_id = ?
		  ORDER BY current_bid_cents DESC, created_at ASC
		  LIMIT 1`,
		adID, sessionID, bidderID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return b, err
}

// HighestForSessionTx returns the session's global top bid, or nil when the
// session has no bids. Ties on amount resolve to the earliest bid. Used
// only by the auction closer, inside its transaction.
func (r *BidRepo) HighestForSessionTx(ctx context.Context, tx *sql.Tx, adID uint64, sessionID string) (*model.Bid, error) {
	b, err := scanBid(tx.QueryRowContext(ctx,
		`SELECT `+bidColumns+`
		   FROM bids
		  WHERE ad_id = ? AND auction_session_id = ?
		  ORDER BY current_bid_cents DESC, created_at ASC
		  LIMIT 1`,
		adID, sessionID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return b, err
}

// MarkWinnerTx resets every bid in the session to non-winning and then
// flags the selected bid. Re-running it for the same (session, bid) pair
// produces the same final rows, so close-job redelivery is harmless.
func (r *BidRepo) MarkWinnerTx(ctx context.Context, tx *sql.Tx, sessionID string, bidID uint64) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE bids SET is_winning_bid = 0 WHERE auction_session_id = ?`,
		sessionID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE bids SET is_winning_bid = 1 WHERE id = ? AND auction_session_id = ?`,
		bidID, sessionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBidNotFound
	}
	return nil
}

// AdBid is the shape returned for bid listings on an ad. Bidder identity
// is reduced to the opaque id; profile data belongs to the identity
// collaborator.
type AdBid struct {
	ID              uint64    `json:"id"`
	BidderID        uint64    `json:"bidder_id"`
	CurrentBidCents uint64    `json:"current_bid_cents"`
	IsWinningBid    bool      `json:"is_winning_bid"`
	CreatedAt       time.Time `json:"created_at"`
}

// ListByAd returns the bids of an ad's current or most recent session,
// ordered by amount descending, paginated with limit/offset.
func (r *BidRepo) ListByAd(ctx context.Context, adID uint64, limit, offset int) ([]AdBid, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, bidder_id, current_bid_cents, is_winning_bid, created_at
		   FROM bids
		  WHERE ad_id = ?
		  ORDER BY current_bid_cents DESC, created_at ASC
		  LIMIT ? OFFSET ?`,
		adID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]AdBid, 0)
	for rows.Next() {
		var b AdBid
		if err := rows.Scan(&b.ID, &b.BidderID, &b.CurrentBidCents, &b.IsWinningBid, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.CreatedAt = b.CreatedAt.UTC()
		items = append(items, b)
	}
	return items, rows.Err()
}

// BidderBid is the shape returned for a user's own bid history, joined
// with the listing title so clients can render the list directly.
type BidderBid struct {
	ID              uint64    `json:"id"`
	AdID            uint64    `json:"ad_id"`
	AdTitle         string    `json:"ad_title"`
	AdStatus        string    `json:"ad_status"`
	CurrentBidCents uint64    `json:"current_bid_cents"`
	IsWinningBid    bool      `json:"is_winning_bid"`
	CreatedAt       time.Time `json:"created_at"`
}

// ListByBidder returns all bids placed by a user, most recent first.
func (r *BidRepo) ListByBidder(ctx context.Context, bidderID uint64) ([]BidderBid, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.ad_id, a.title, a.status, b.current_bid_cents, b.is_winning_bid, b.created_at
		   FROM bids b
		   JOIN ads a ON a.id = b.ad_id
		  WHERE b.bidder_id = ?
		  ORDER BY b.created_at DESC`,
		bidderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]BidderBid, 0)
	for rows.Next() {
		var b BidderBid
		if err := rows.Scan(&b.ID, &b.AdID, &b.AdTitle, &b.AdStatus, &b.CurrentBidCents, &b.IsWinningBid, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.CreatedAt = b.CreatedAt.UTC()
		items = append(items, b)
	}
	return items, rows.Err()
}

// SellerAdBids aggregates the bids on one of a seller's ads: how many bids
// it attracted and the highest amount so far.
type SellerAdBids struct {
	AdID            uint64 `json:"ad_id"`
	AdTitle         string `json:"ad_title"`
	AdStatus        string `json:"ad_status"`
	BidCount        uint64 `json:"bid_count"`
	HighestBidCents uint64 `json:"highest_bid_cents"`
}

// ListBySeller returns the seller's ads that received bids, grouped per ad
// with the per-ad bid count and highest amount, most recently bid first.
func (r *BidRepo) ListBySeller(ctx context.Context, sellerID uint64) ([]SellerAdBids, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.ad_id, a.title, a.status, COUNT(*), MAX(b.current_bid_cents)
		   FROM bids b
		   JOIN ads a ON a.id = b.ad_id
		  WHERE b.seller_id = ?
		  GROUP BY b.ad_id, a.title, a.status
		  ORDER BY MAX(b.created_at) DESC`,
		sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]SellerAdBids, 0)
	for rows.Next() {
		var s SellerAdBids
		if err := rows.Scan(&s.AdID, &s.AdTitle, &s.AdStatus, &s.BidCount, &s.HighestBidCents); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
