package auction

import (
	"strings"
	"testing"
	"time"

	"github.com/ramikh/marketplace-auction/internal/model"
)

func liveAuctionAd(now time.Time) *model.Ad {
	session := "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"
	start := now.Add(-time.Hour)
	end := start.AddDate(0, 0, 1)
	return &model.Ad{
		ID:                  1,
		SellerID:            7,
		SaleType:            model.SaleTypeAuction,
		Status:              model.AdStatusActive,
		IsAuctionEnabled:    true,
		AuctionSessionID:    &session,
		AuctionStartAt:      &start,
		AuctionEndAt:        &end,
		AuctionDurationDays: 1,
		StartingPriceCents:  100,
	}
}

func uintPtr(v uint64) *uint64 { return &v }

func TestValidateBidPreconditionOrder(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(ad *model.Ad)
		amount uint64
		want   string
	}{
		{
			name:   "buy now item",
			mutate: func(ad *model.Ad) { ad.SaleType = model.SaleTypeBuyNow },
			amount: 200,
			want:   RejectNotAuction,
		},
		{
			name:   "auction disabled",
			mutate: func(ad *model.Ad) { ad.IsAuctionEnabled = false },
			amount: 200,
			want:   RejectAuctionDisabled,
		},
		{
			name:   "no session",
			mutate: func(ad *model.Ad) { ad.AuctionSessionID = nil },
			amount: 200,
			want:   RejectNoActiveSession,
		},
		{
			name: "not started",
			mutate: func(ad *model.Ad) {
				start := now.Add(time.Hour)
				end := start.AddDate(0, 0, 1)
				ad.AuctionStartAt, ad.AuctionEndAt = &start, &end
			},
			amount: 200,
			want:   RejectNotStarted,
		},
		{
			name: "already ended",
			mutate: func(ad *model.Ad) {
				start := now.AddDate(0, 0, -2)
				end := start.AddDate(0, 0, 1)
				ad.AuctionStartAt, ad.AuctionEndAt = &start, &end
			},
			amount: 200,
			want:   RejectAlreadyEnded,
		},
		{
			name:   "untimed auction",
			mutate: func(ad *model.Ad) { ad.AuctionDurationDays = 0 },
			amount: 200,
			want:   RejectAlreadyEnded,
		},
		{
			name:   "zero amount",
			mutate: func(ad *model.Ad) {},
			amount: 0,
			want:   RejectInvalidAmount,
		},
		{
			name:   "equal to starting price",
			mutate: func(ad *model.Ad) {},
			amount: 100,
			want:   RejectBelowFloor,
		},
	}
	for _, tt := range tests {
		ad := liveAuctionAd(now)
		tt.mutate(ad)
		rej := ValidateBid(tt.amount, ad, nil, now)
		if rej == nil {
			t.Fatalf("%s: expected rejection %s, got accept", tt.name, tt.want)
		}
		if rej.Code != tt.want {
			t.Fatalf("%s: code=%s want=%s (msg=%q)", tt.name, rej.Code, tt.want, rej.Message)
		}
	}
}

func TestValidateBidAccepts(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	ad := liveAuctionAd(now)
	if rej := ValidateBid(101, ad, nil, now); rej != nil {
		t.Fatalf("expected accept, got %s: %s", rej.Code, rej.Message)
	}
}

// Per-bidder monotonic acceptance: each subsequent bid from the same
// bidder must exceed that bidder's own prior highest, and the rejection
// message reports the floor.
func TestValidateBidPerBidderMonotonic(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	ad := liveAuctionAd(now)

	if rej := ValidateBid(100+50, ad, nil, now); rej != nil {
		t.Fatalf("first bid 150: unexpected rejection %s", rej.Message)
	}
	if rej := ValidateBid(150, ad, uintPtr(150), now); rej == nil || rej.Code != RejectBelowFloor {
		t.Fatalf("repeat of own bid must be rejected, got %#v", rej)
	}
	rej := ValidateBid(120, ad, uintPtr(150), now)
	if rej == nil || rej.Code != RejectBelowFloor {
		t.Fatalf("120 after 150 must be rejected, got %#v", rej)
	}
	if !strings.Contains(rej.Message, "150") {
		t.Fatalf("rejection message must report the floor 150, got %q", rej.Message)
	}
	if rej := ValidateBid(151, ad, uintPtr(150), now); rej != nil {
		t.Fatalf("151 after 150: unexpected rejection %s", rej.Message)
	}
}

// Two bidders compete against their own floors only: a second bidder's
// lower bid is accepted against the starting price even while a higher
// bid from someone else exists.
func TestValidateBidPerBidderFloorScenario(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	ad := liveAuctionAd(now)

	// Bidder X bids 150.
	if rej := ValidateBid(150, ad, nil, now); rej != nil {
		t.Fatalf("bidder X 150: unexpected rejection %s", rej.Message)
	}
	// Bidder Y has no prior bid; their floor is the starting price 100,
	// not X's 150, so 120 is accepted.
	if rej := ValidateBid(120, ad, nil, now); rej != nil {
		t.Fatalf("bidder Y 120: unexpected rejection %s", rej.Message)
	}
}

func TestFloor(t *testing.T) {
	ad := &model.Ad{StartingPriceCents: 100}
	if f, own := Floor(ad, nil); f != 100 || own {
		t.Fatalf("Floor(nil)=%d,%v want=100,false", f, own)
	}
	if f, own := Floor(ad, uintPtr(250)); f != 250 || !own {
		t.Fatalf("Floor(250)=%d,%v want=250,true", f, own)
	}
}
