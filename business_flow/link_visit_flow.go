package businessflow

import (
	"context"

	"github.com/gigshare/sharelinks/app/metrics"
	"github.com/gigshare/sharelinks/models"
	"github.com/gigshare/sharelinks/repository"
	"github.com/gigshare/sharelinks/utils"
	"gorm.io/gorm"
)

// LinkVisitFlow handles a redirect request end to end: resolve the short
// code, durably record the click, hand the reward off for asynchronous
// processing, and return the destination URL
// The click row and the click counter bump commit in one transaction, so a
// counted click always has a row and vice versa. Reward dispatch happens
// only after that commit and never delays or fails the redirect
type LinkVisitFlow interface {
	Visit(ctx context.Context, shortCode string, clientMeta *ClientMetadata) (string, error)
}

type LinkVisitFlowImpl struct {
	db          *gorm.DB
	resolution  LinkResolutionFlow
	clickRepo   repository.ClickRepository
	linkRepo    repository.LinkRepository
	dispatcher  RewardDispatcher
	rewardCents int64
}

func NewLinkVisitFlow(
	db *gorm.DB,
	resolution LinkResolutionFlow,
	clickRepo repository.ClickRepository,
	linkRepo repository.LinkRepository,
	dispatcher RewardDispatcher,
	rewardCents int64,
) LinkVisitFlow {
	if rewardCents <= 0 {
		rewardCents = utils.DefaultRewardCents
	}
	return &LinkVisitFlowImpl{
		db:          db,
		resolution:  resolution,
		clickRepo:   clickRepo,
		linkRepo:    linkRepo,
		dispatcher:  dispatcher,
		rewardCents: rewardCents,
	}
}

// Visit returns the original URL to redirect to. An unknown or malformed
// short code returns ErrLinkNotFound / ErrInvalidShortCode without recording
// anything.
func (f *LinkVisitFlowImpl) Visit(ctx context.Context, shortCode string, clientMeta *ClientMetadata) (string, error) {
	if shortCode == "" || len(shortCode) > utils.MaxShortCodeLength {
		return "", ErrInvalidShortCode
	}

	link, err := f.resolution.Resolve(ctx, shortCode)
	if err != nil {
		return "", err
	}

	click := &models.Click{
		LinkID:       link.ID,
		ClickedAt:    utils.UTCNow(),
		RewardStatus: models.RewardStatusPending,
	}
	if clientMeta != nil {
		if clientMeta.IPAddress != "" {
			click.IPAddress = utils.ToPtr(clientMeta.IPAddress)
		}
		if clientMeta.UserAgent != "" {
			click.UserAgent = utils.ToPtr(clientMeta.UserAgent)
		}
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.clickRepo.Save(txCtx, click); err != nil {
			return err
		}
		return f.linkRepo.IncrementClickCount(txCtx, link.ID)
	})
	if err != nil {
		return "", NewBusinessError("CLICK_RECORD_FAILED", "Failed to record click", err)
	}
	metrics.ClicksRecordedTotal.Inc()

	f.dispatcher.Dispatch(ctx, click.ID, link.SellerID, link.ID, f.rewardCents)

	return link.OriginalURL, nil
}
