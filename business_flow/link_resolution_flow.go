package businessflow

import (
	"context"
	"log"
	"strconv"

	"github.com/gigshare/sharelinks/models"
	"github.com/gigshare/sharelinks/repository"
	"github.com/gigshare/sharelinks/utils"
	"github.com/redis/go-redis/v9"
)

// LinkResolutionFlow resolves a short code to its link, cache-aside
// The cache is strictly an accelerator: a nil client, a miss, or any cache
// error falls through to the store, so resolution availability never depends
// on cache availability
type LinkResolutionFlow interface {
	Resolve(ctx context.Context, shortCode string) (*models.Link, error)
}

type LinkResolutionFlowImpl struct {
	linkRepo    repository.LinkRepository
	rc          *redis.Client
	cachePrefix string
}

func NewLinkResolutionFlow(linkRepo repository.LinkRepository, rc *redis.Client, cachePrefix string) LinkResolutionFlow {
	return &LinkResolutionFlowImpl{linkRepo: linkRepo, rc: rc, cachePrefix: cachePrefix}
}

func (f *LinkResolutionFlowImpl) cacheKey(shortCode string) string {
	return f.cachePrefix + "link:" + shortCode
}

func (f *LinkResolutionFlowImpl) Resolve(ctx context.Context, shortCode string) (*models.Link, error) {
	if link := f.fromCache(ctx, shortCode); link != nil {
		return link, nil
	}

	link, err := f.linkRepo.ByShortCode(ctx, shortCode)
	if err != nil {
		return nil, NewBusinessError("LINK_LOOKUP_FAILED", "Failed to look up short link", err)
	}
	if link == nil {
		return nil, ErrLinkNotFound
	}

	f.populateCache(ctx, link)
	return link, nil
}

// fromCache returns a link synthesized from the cached hash, or nil on miss
// or any cache failure. The cached triple (id, original URL, seller) is all
// the redirect path needs: the click is recorded against the link id without
// another store round-trip.
func (f *LinkResolutionFlowImpl) fromCache(ctx context.Context, shortCode string) *models.Link {
	if f.rc == nil {
		return nil
	}
	fields, err := f.rc.HGetAll(ctx, f.cacheKey(shortCode)).Result()
	if err != nil {
		// Cache down mid-request; degrade to the store.
		log.Printf("link cache lookup degraded for %q: %v", shortCode, err)
		return nil
	}
	if len(fields) == 0 {
		return nil
	}
	id, err := strconv.ParseUint(fields["id"], 10, 64)
	if err != nil || fields["original_url"] == "" {
		return nil
	}
	return &models.Link{
		ID:          uint(id),
		SellerID:    fields["seller_id"],
		OriginalURL: fields["original_url"],
		ShortCode:   shortCode,
	}
}

// populateCache writes the resolved link back with a bounded TTL; failures
// only cost the next resolution a store lookup.
func (f *LinkResolutionFlowImpl) populateCache(ctx context.Context, link *models.Link) {
	if f.rc == nil {
		return
	}
	key := f.cacheKey(link.ShortCode)
	err := f.rc.HSet(ctx, key, map[string]any{
		"id":           strconv.FormatUint(uint64(link.ID), 10),
		"original_url": link.OriginalURL,
		"seller_id":    link.SellerID,
	}).Err()
	if err == nil {
		err = f.rc.Expire(ctx, key, utils.LinkCacheTTL).Err()
	}
	if err != nil {
		log.Printf("link cache populate failed for %q: %v", link.ShortCode, err)
	}
}
