package cli

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
	"github.com/dmitrijs2005/gophloyalty/internal/common"
)

// Home prints the member card: name, tier, points and progress.
func (a *App) Home(ctx context.Context) error {
	if !a.isLoggedIn() {
		return common.ErrNotAuthenticated
	}
	snap := a.profiles.Refresh(ctx)
	view := a.rewards.Catalog(ctx)
	sum := view.Summary

	p := snap.Profile
	a.printf("%s\n", p.DisplayName())
	if p == nil {
		a.printf("  (profile not loaded yet)\n")
	} else {
		a.printf("  Email:   %s\n", p.Email)
		a.printf("  Barcode: %s\n", deref(p.Barcode, "-"))
	}
	a.printf("  Tier:    %s\n", sum.TierName)
	a.printf("  Points:  %s (earned %s, redeemed %s)\n",
		formatPoints(sum.Points), formatPoints(sum.TotalEarned), formatPoints(sum.Redeemed))
	a.printf("  %s %.0f%% to %s (%s points to go)\n",
		progressBar(sum.Progress), sum.Progress, sum.NextTierName, formatPoints(sum.PointsToNext))
	if snap.Tier != nil && snap.Tier.DiscountPercentage > 0 {
		a.printf("  %s members save %.0f%%\n", snap.Tier.Name, snap.Tier.DiscountPercentage)
	}
	return nil
}

// EditProfile updates name, surname and phone. Empty answers keep the
// current values.
func (a *App) EditProfile(ctx context.Context) error {
	if !a.isLoggedIn() {
		return common.ErrNotAuthenticated
	}
	var cur models.Profile
	if p := a.profiles.Snapshot().Profile; p != nil {
		cur = *p
	}

	var upd models.ProfileUpdate
	var err error
	if upd.Name, err = getOptionalText(a.reader, "First name", cur.Name, a.out); err != nil {
		return err
	}
	if upd.Surname, err = getOptionalText(a.reader, "Surname", cur.Surname, a.out); err != nil {
		return err
	}
	if upd.Phone, err = getOptionalText(a.reader, "Phone", cur.Phone, a.out); err != nil {
		return err
	}

	snap, err := a.profiles.UpdateDetails(ctx, upd)
	if err != nil {
		return err
	}
	a.printf("Profile saved for %s\n", snap.Profile.DisplayName())
	return nil
}

// Picture uploads the image at args[0] as the profile picture.
func (a *App) Picture(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: picture <file>")
	}
	if !a.isLoggedIn() {
		return common.ErrNotAuthenticated
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open picture: %w", err)
	}
	defer f.Close()

	ct := mime.TypeByExtension(filepath.Ext(args[0]))
	if ct == "" {
		ct = "application/octet-stream"
	}

	url, err := a.profiles.UploadPicture(ctx, filepath.Base(args[0]), ct, f)
	if err != nil {
		return err
	}
	a.printf("Profile picture updated: %s\n", url)
	return nil
}
