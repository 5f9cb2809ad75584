package businessflow

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"github.com/gigshare/sharelinks/models"
	"github.com/gigshare/sharelinks/repository"
	"github.com/gigshare/sharelinks/utils"
)

// maxShortCodeAttempts caps collision retries. With 8 URL-safe base64
// characters (~2^48 codes) a retry is already vanishingly unlikely at any
// realistic table size, so hitting the cap signals a broken randomness source
// or an operational problem and is surfaced as a fatal error, never silently
// looped past.
const maxShortCodeAttempts = 10

// ShortCodeGenerator produces short codes guaranteed unique against the link store
type ShortCodeGenerator interface {
	Generate(ctx context.Context) (string, error)
}

type ShortCodeGeneratorImpl struct {
	linkRepo repository.LinkRepository
	length   int
}

func NewShortCodeGenerator(linkRepo repository.LinkRepository) ShortCodeGenerator {
	return &ShortCodeGeneratorImpl{linkRepo: linkRepo, length: utils.ShortCodeLength}
}

func (g *ShortCodeGeneratorImpl) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxShortCodeAttempts; attempt++ {
		code, err := randomCode(g.length)
		if err != nil {
			return "", NewBusinessError("SHORT_CODE_RANDOM_FAILED", "Failed to draw random short code", err)
		}
		exists, err := g.linkRepo.Exists(ctx, models.LinkFilter{ShortCode: &code})
		if err != nil {
			return "", NewBusinessError("SHORT_CODE_LOOKUP_FAILED", "Failed to check short code for collision", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrShortCodeSpaceExhausted
}

// randomCode draws length URL-safe characters from crypto/rand.
func randomCode(length int) (string, error) {
	// base64 yields 4 characters per 3 bytes; over-provision and trim.
	buf := make([]byte, (length*3+3)/4+1)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:length], nil
}
