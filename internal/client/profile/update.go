package profile

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
	"github.com/dmitrijs2005/gophloyalty/internal/common"
)

// UpdateDetails saves the member-editable fields and refreshes the cache.
func (r *Resolver) UpdateDetails(ctx context.Context, upd models.ProfileUpdate) (Snapshot, error) {
	userID := r.currentUser()
	if userID == "" {
		return r.Snapshot(), common.ErrNotAuthenticated
	}
	upd.Name = strings.TrimSpace(upd.Name)
	upd.Surname = strings.TrimSpace(upd.Surname)
	upd.Phone = strings.TrimSpace(upd.Phone)
	if upd.Name == "" || upd.Surname == "" {
		return r.Snapshot(), fmt.Errorf("%w: name and surname are required", common.ErrValidation)
	}

	if err := r.data.UpdateProfile(ctx, userID, upd.Patch()); err != nil {
		return r.Snapshot(), fmt.Errorf("%w: %w", common.ErrUpdate, err)
	}
	return r.Refresh(ctx), nil
}

// PictureKey is the object key of a profile picture uploaded at millis.
func PictureKey(userID string, millis int64, fileName string) string {
	return fmt.Sprintf("%s/%d-%s", userID, millis, path.Base(strings.ReplaceAll(fileName, "\\", "/")))
}

// UploadPicture stores body as the member's profile picture and points the
// profile at its public URL. When any step fails the uploaded object is
// removed and ErrUpload is returned.
func (r *Resolver) UploadPicture(ctx context.Context, fileName, contentType string, body io.Reader) (string, error) {
	userID := r.currentUser()
	if userID == "" {
		return "", common.ErrNotAuthenticated
	}
	if r.storage == nil {
		return "", fmt.Errorf("%w: storage is not configured", common.ErrUpload)
	}

	key := PictureKey(userID, r.now().UnixMilli(), fileName)
	if err := r.storage.Upload(ctx, key, contentType, body); err != nil {
		r.discard(ctx, key)
		return "", fmt.Errorf("%w: %w", common.ErrUpload, err)
	}

	url := r.storage.PublicURL(key)
	if err := r.data.UpdateProfile(ctx, userID, models.ProfilePatch{ProfilePictureURL: &url}); err != nil {
		r.discard(ctx, key)
		return "", fmt.Errorf("%w: %w", common.ErrUpload, err)
	}

	r.Refresh(ctx)
	return url, nil
}

func (r *Resolver) discard(ctx context.Context, key string) {
	if err := r.storage.Delete(context.WithoutCancel(ctx), key); err != nil {
		r.log.Warn(ctx, "remove orphaned picture", "key", key, "error", err)
	}
}
