package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/ramikh/marketplace-auction/internal/model"
	"github.com/ramikh/marketplace-auction/internal/repository"
)

// fakeTxRunner executes fn directly; the fakes below ignore the tx.
type fakeTxRunner struct{}

func (fakeTxRunner) RunTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

type fakeAdStore struct {
	ads map[uint64]*model.Ad
}

func (f *fakeAdStore) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Ad, error) {
	ad, ok := f.ads[id]
	if !ok {
		return nil, repository.ErrAdNotFound
	}
	return ad, nil
}

func (f *fakeAdStore) CloseAuctionTx(ctx context.Context, tx *sql.Tx, adID uint64, sessionID string, sold bool) error {
	ad, ok := f.ads[adID]
	if !ok || ad.AuctionSessionID == nil || *ad.AuctionSessionID != sessionID {
		return repository.ErrStaleSession
	}
	if sold {
		ad.Status = model.AdStatusSoldOut
		ad.AvailableUnits = 0
	} else {
		ad.Status = model.AdStatusExpired
	}
	ad.SaleType = model.SaleTypeNotForSale
	ad.IsAuctionEnabled = false
	ad.AuctionSessionID = nil
	return nil
}

type fakeBidStore struct {
	bids       []*model.Bid
	highestErr error
}

func (f *fakeBidStore) HighestForSessionTx(ctx context.Context, tx *sql.Tx, adID uint64, sessionID string) (*model.Bid, error) {
	if f.highestErr != nil {
		return nil, f.highestErr
	}
	var top *model.Bid
	for _, b := range f.bids {
		if b.AdID != adID || b.AuctionSessionID != sessionID {
			continue
		}
		if top == nil ||
			b.CurrentBidCents > top.CurrentBidCents ||
			(b.CurrentBidCents == top.CurrentBidCents && b.CreatedAt.Before(top.CreatedAt)) {
			top = b
		}
	}
	return top, nil
}

func (f *fakeBidStore) MarkWinnerTx(ctx context.Context, tx *sql.Tx, sessionID string, bidID uint64) error {
	found := false
	for _, b := range f.bids {
		if b.AuctionSessionID == sessionID {
			b.IsWinningBid = b.ID == bidID
			found = found || b.ID == bidID
		}
	}
	if !found {
		return repository.ErrBidNotFound
	}
	return nil
}

func (f *fakeBidStore) winners(sessionID string) []*model.Bid {
	var out []*model.Bid
	for _, b := range f.bids {
		if b.AuctionSessionID == sessionID && b.IsWinningBid {
			out = append(out, b)
		}
	}
	return out
}

type fakeNotifier struct {
	events []uint64 // winning bid ids
	err    error
}

func (f *fakeNotifier) NotifyAuctionWon(ctx context.Context, ad *model.Ad, winner *model.Bid) error {
	f.events = append(f.events, winner.ID)
	return f.err
}

const testSession = "f00dcafef00dcafef00dcafef00dcafe"

func liveAd() *model.Ad {
	session := testSession
	start := time.Now().UTC().AddDate(0, 0, -1)
	end := time.Now().UTC()
	return &model.Ad{
		ID:                  42,
		SellerID:            7,
		Title:               "vintage camera",
		SaleType:            model.SaleTypeAuction,
		Status:              model.AdStatusActive,
		IsAuctionEnabled:    true,
		AuctionSessionID:    &session,
		AuctionStartAt:      &start,
		AuctionEndAt:        &end,
		AuctionDurationDays: 1,
		StartingPriceCents:  100,
		AvailableUnits:      1,
	}
}

func bid(id, bidder, amount uint64, at time.Time) *model.Bid {
	return &model.Bid{
		ID:               id,
		AuctionSessionID: testSession,
		AdID:             42,
		BidderID:         bidder,
		SellerID:         7,
		StartingBidCents: 100,
		CurrentBidCents:  amount,
		CreatedAt:        at,
	}
}

func TestCloseSelectsSingleWinner(t *testing.T) {
	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	ads := &fakeAdStore{ads: map[uint64]*model.Ad{42: liveAd()}}
	bids := &fakeBidStore{bids: []*model.Bid{
		bid(1, 100, 150, t0),
		bid(2, 101, 120, t0.Add(time.Minute)),
		bid(3, 102, 150, t0.Add(2*time.Minute)), // same amount, later: loses the tie
	}}
	notify := &fakeNotifier{}
	c := NewCloser(fakeTxRunner{}, ads, bids, notify)

	if err := c.Close(context.Background(), 42, testSession); err != nil {
		t.Fatalf("Close: %v", err)
	}

	winners := bids.winners(testSession)
	if len(winners) != 1 || winners[0].ID != 1 {
		t.Fatalf("winners=%v want exactly bid 1", winners)
	}
	ad := ads.ads[42]
	if ad.Status != model.AdStatusSoldOut {
		t.Fatalf("status=%s want=%s", ad.Status, model.AdStatusSoldOut)
	}
	if ad.SaleType != model.SaleTypeNotForSale || ad.IsAuctionEnabled || ad.AuctionSessionID != nil {
		t.Fatalf("ad did not leave the auction path: %+v", ad)
	}
	if ad.AvailableUnits != 0 {
		t.Fatalf("available_units=%d want=0", ad.AvailableUnits)
	}
	if len(notify.events) != 1 || notify.events[0] != 1 {
		t.Fatalf("notify events=%v want=[1]", notify.events)
	}
}

func TestCloseNoBidsExpires(t *testing.T) {
	ads := &fakeAdStore{ads: map[uint64]*model.Ad{42: liveAd()}}
	bids := &fakeBidStore{}
	notify := &fakeNotifier{}
	c := NewCloser(fakeTxRunner{}, ads, bids, notify)

	if err := c.Close(context.Background(), 42, testSession); err != nil {
		t.Fatalf("Close: %v", err)
	}
	ad := ads.ads[42]
	if ad.Status != model.AdStatusExpired {
		t.Fatalf("status=%s want=%s", ad.Status, model.AdStatusExpired)
	}
	if ad.SaleType != model.SaleTypeNotForSale || ad.AuctionSessionID != nil {
		t.Fatalf("ad did not leave the auction path: %+v", ad)
	}
	if len(notify.events) != 0 {
		t.Fatalf("no-bid expiry must not notify, got %v", notify.events)
	}
}

func TestCloseIdempotent(t *testing.T) {
	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	ads := &fakeAdStore{ads: map[uint64]*model.Ad{42: liveAd()}}
	bids := &fakeBidStore{bids: []*model.Bid{bid(1, 100, 150, t0)}}
	notify := &fakeNotifier{}
	c := NewCloser(fakeTxRunner{}, ads, bids, notify)

	if err := c.Close(context.Background(), 42, testSession); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	// Redelivered job: the session is cleared, so this must be a no-op.
	if err := c.Close(context.Background(), 42, testSession); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if got := len(bids.winners(testSession)); got != 1 {
		t.Fatalf("winner count after double close=%d want=1", got)
	}
	if len(notify.events) != 1 {
		t.Fatalf("double close must not double-notify, got %v", notify.events)
	}
	if ads.ads[42].Status != model.AdStatusSoldOut {
		t.Fatalf("status=%s want=%s", ads.ads[42].Status, model.AdStatusSoldOut)
	}
}

func TestCloseStaleSessionNoops(t *testing.T) {
	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	ads := &fakeAdStore{ads: map[uint64]*model.Ad{42: liveAd()}}
	bids := &fakeBidStore{bids: []*model.Bid{bid(1, 100, 150, t0)}}
	notify := &fakeNotifier{}
	c := NewCloser(fakeTxRunner{}, ads, bids, notify)

	if err := c.Close(context.Background(), 42, "0123456789abcdef0123456789abcdef"); err != nil {
		t.Fatalf("Close with stale session: %v", err)
	}
	if ads.ads[42].Status != model.AdStatusActive {
		t.Fatalf("stale job must not change ad state, status=%s", ads.ads[42].Status)
	}
	if len(bids.winners(testSession)) != 0 || len(notify.events) != 0 {
		t.Fatalf("stale job must not mark winners or notify")
	}
}

func TestCloseMissingAdNoops(t *testing.T) {
	c := NewCloser(fakeTxRunner{}, &fakeAdStore{ads: map[uint64]*model.Ad{}}, &fakeBidStore{}, &fakeNotifier{})
	if err := c.Close(context.Background(), 99, testSession); err != nil {
		t.Fatalf("Close on missing ad: %v", err)
	}
}

func TestCloseNotifyFailureDoesNotFailJob(t *testing.T) {
	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	ads := &fakeAdStore{ads: map[uint64]*model.Ad{42: liveAd()}}
	bids := &fakeBidStore{bids: []*model.Bid{bid(1, 100, 150, t0)}}
	notify := &fakeNotifier{err: errors.New("broker down")}
	c := NewCloser(fakeTxRunner{}, ads, bids, notify)

	if err := c.Close(context.Background(), 42, testSession); err != nil {
		t.Fatalf("Close must swallow notification errors, got %v", err)
	}
	if ads.ads[42].Status != model.AdStatusSoldOut {
		t.Fatalf("close must commit despite notify failure, status=%s", ads.ads[42].Status)
	}
}

func TestCloseTransientErrorPropagates(t *testing.T) {
	ads := &fakeAdStore{ads: map[uint64]*model.Ad{42: liveAd()}}
	bids := &fakeBidStore{highestErr: errors.New("connection reset")}
	c := NewCloser(fakeTxRunner{}, ads, bids, &fakeNotifier{})

	if err := c.Close(context.Background(), 42, testSession); err == nil {
		t.Fatalf("transient store error must propagate for redelivery")
	}
	if ads.ads[42].Status != model.AdStatusActive {
		t.Fatalf("failed close must not commit state, status=%s", ads.ads[42].Status)
	}
}
