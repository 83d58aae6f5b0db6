// Package service contains the auction closer worker logic and the winner
// notification path. The closer consumes delayed close jobs and performs
// the terminal state transition for a bidding round.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/ramikh/marketplace-auction/internal/model"
	"github.com/ramikh/marketplace-auction/internal/repository"
)

// TxRunner executes fn inside a database transaction, committing when fn
// returns nil and rolling back otherwise. It exists so the closer's
// decision logic can be exercised with fakes.
type TxRunner interface {
	RunTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// SQLTxRunner is the production TxRunner backed by *sql.DB.
type SQLTxRunner struct{ DB *sql.DB }

func (r SQLTxRunner) RunTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// AdStore is the slice of the ad repository the closer needs.
type AdStore interface {
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Ad, error)
	CloseAuctionTx(ctx context.Context, tx *sql.Tx, adID uint64, sessionID string, sold bool) error
}

// BidStore is the slice of the bid ledger the closer needs.
type BidStore interface {
	HighestForSessionTx(ctx context.Context, tx *sql.Tx, adID uint64, sessionID string) (*model.Bid, error)
	MarkWinnerTx(ctx context.Context, tx *sql.Tx, sessionID string, bidID uint64) error
}

// Notifier delivers the auction-won notification. Best-effort: the closer
// logs a failure and moves on, the committed close is never rolled back.
type Notifier interface {
	NotifyAuctionWon(ctx context.Context, ad *model.Ad, winner *model.Bid) error
}

// Closer finalizes auction sessions. It implements queue.CloseHandler.
type Closer struct {
	Tx     TxRunner
	Ads    AdStore
	Bids   BidStore
	Notify Notifier
}

// NewCloser constructs a Closer. Notify may be nil when no notification
// path is configured (e.g. in tools).
func NewCloser(tx TxRunner, ads AdStore, bids BidStore, notify Notifier) *Closer {
	if tx == nil || ads == nil || bids == nil {
		panic("nil dependency passed to NewCloser")
	}
	return &Closer{Tx: tx, Ads: ads, Bids: bids, Notify: notify}
}

// Close finalizes the given (ad, session) pair:
//
//  1. The ad is loaded under a row lock and re-checked: a missing ad, a
//     non-auction sale type, a disabled auction or a session id other than
//     the job's means the job is stale (superseded session, or an earlier
//     delivery already closed it), so the job is acknowledged as a no-op.
//  2. With bids, the top one (highest amount, earliest on ties) is marked
//     the single winner and the ad goes to SOLD_OUT.
//  3. Without bids, the ad goes to EXPIRED. Either way the item leaves the
//     auction path permanently.
//
// The ledger update and the ad transition commit atomically; the row lock
// keeps concurrent bid placements serialized behind the close, at which
// point the cleared session makes the validator reject them. Only
// transient store errors are returned, so queue redelivery retries the
// whole job; a second run is a guarded no-op.
func (c *Closer) Close(ctx context.Context, adID uint64, sessionID string) error {
	var (
		ad     *model.Ad
		winner *model.Bid
	)
	err := c.Tx.RunTx(ctx, func(tx *sql.Tx) error {
		a, err := c.Ads.GetForUpdateTx(ctx, tx, adID)
		if errors.Is(err, repository.ErrAdNotFound) {
			log.Printf("closer: ad=%d gone, dropping close job", adID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load ad: %w", err)
		}
		if a.SaleType != model.SaleTypeAuction || !a.IsAuctionEnabled ||
			a.AuctionSessionID == nil || *a.AuctionSessionID != sessionID {
			log.Printf("closer: ad=%d session=%s stale, dropping close job", adID, sessionID)
			return nil
		}

		top, err := c.Bids.HighestForSessionTx(ctx, tx, adID, sessionID)
		if err != nil {
			return fmt.Errorf("load highest bid: %w", err)
		}
		if top == nil {
			if err := c.Ads.CloseAuctionTx(ctx, tx, adID, sessionID, false); err != nil {
				return fmt.Errorf("expire auction: %w", err)
			}
			log.Printf("closer: ad=%d session=%s expired with no bids", adID, sessionID)
			return nil
		}

		if err := c.Bids.MarkWinnerTx(ctx, tx, sessionID, top.ID); err != nil {
			return fmt.Errorf("mark winner: %w", err)
		}
		if err := c.Ads.CloseAuctionTx(ctx, tx, adID, sessionID, true); err != nil {
			return fmt.Errorf("close auction: %w", err)
		}
		ad, winner = a, top
		log.Printf("closer: ad=%d session=%s sold to bidder=%d for %d",
			adID, sessionID, top.BidderID, top.CurrentBidCents)
		return nil
	})
	if err != nil {
		return err
	}

	if winner != nil && c.Notify != nil {
		if err := c.Notify.NotifyAuctionWon(ctx, ad, winner); err != nil {
			// Never propagate: the close is committed and correct.
			log.Printf("closer: winner notification for ad=%d failed: %v", adID, err)
		}
	}
	return nil
}
