package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophloyalty/internal/client/client"
	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
	"github.com/dmitrijs2005/gophloyalty/internal/common"
	"github.com/dmitrijs2005/gophloyalty/internal/logging"
	"github.com/dmitrijs2005/gophloyalty/internal/loyalty"
)

// Feed sizes shown by the client.
const (
	DealsLimit        = 4
	TransactionsLimit = 5
	PurchasesLimit    = 10
	// LedgerScanLimit bounds the ledger read used for reconciliation.
	LedgerScanLimit = 1000
)

// PurchaseView is a purchase with the store's display name.
type PurchaseView struct {
	models.Purchase
	StoreName string
}

// Feed is the home screen data. Sections that failed to load are empty and
// Partial is set.
type Feed struct {
	Deals        []models.Deal
	Transactions []models.PointTransaction
	UnreadCount  int
	Purchases    []PurchaseView
	Partial      bool
}

// ActivityService reads the member's activity.
type ActivityService interface {
	Feed(ctx context.Context) Feed
	Reconcile(ctx context.Context) (loyalty.Reconciliation, error)
}

type activityService struct {
	data     client.DataClient
	users    UserSource
	profiles ProfileSource
	log      logging.Logger
}

// NewActivityService wires an ActivityService.
func NewActivityService(data client.DataClient, users UserSource, profiles ProfileSource, log logging.Logger) ActivityService {
	if log == nil {
		log = logging.Discard()
	}
	return &activityService{data: data, users: users, profiles: profiles, log: log}
}

func (s *activityService) Feed(ctx context.Context) Feed {
	var f Feed
	note := func(section string, err error) {
		if err != nil {
			f.Partial = true
			s.log.Warn(ctx, "feed section failed", "section", section, "error", err)
		}
	}

	deals, err := s.data.ActiveDeals(ctx, DealsLimit)
	note("deals", err)
	f.Deals = deals

	userID := s.users.UserID()
	if userID == "" {
		return f
	}

	txs, err := s.data.Transactions(ctx, userID, TransactionsLimit)
	note("transactions", err)
	f.Transactions = txs

	n, err := s.data.UnreadNotificationCount(ctx, userID)
	note("notifications", err)
	f.UnreadCount = n

	purchases, err := s.data.Purchases(ctx, userID, PurchasesLimit)
	note("purchases", err)
	if len(purchases) > 0 {
		names := map[string]string{}
		if stores, err := s.data.Stores(ctx); err == nil {
			for _, st := range stores {
				names[st.ID] = st.Name
			}
		} else {
			note("stores", err)
		}
		for _, p := range purchases {
			v := PurchaseView{Purchase: p, StoreName: "Unknown store"}
			if p.StoreID != nil {
				if name, ok := names[*p.StoreID]; ok {
					v.StoreName = name
				}
			}
			f.Purchases = append(f.Purchases, v)
		}
	}
	return f
}

// Reconcile compares the ledger with the profile's denormalised balance.
func (s *activityService) Reconcile(ctx context.Context) (loyalty.Reconciliation, error) {
	userID := s.users.UserID()
	if userID == "" {
		return loyalty.Reconciliation{}, common.ErrNotAuthenticated
	}
	txs, err := s.data.Transactions(ctx, userID, LedgerScanLimit)
	if err != nil {
		return loyalty.Reconciliation{}, fmt.Errorf("%w: ledger: %w", common.ErrFetch, err)
	}
	snap := s.profiles.Refresh(ctx)
	return loyalty.Reconcile(snap.Profile, txs), nil
}
