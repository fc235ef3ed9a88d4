package jet

import (
	"context"
	"encoding/hex"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/FocuswithJustin/jetdb/core/errors"
)

// Pages fetches the given pages using up to workers goroutines. Page
// decryption is independent per page, so the result is identical to calling
// Page for each number in turn. workers <= 0 means one.
func (d *Database) Pages(ctx context.Context, pages []uint32, workers int) ([][]byte, error) {
	out := make([][]byte, len(pages))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, n := range pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			page, err := d.Page(n)
			if err != nil {
				return apperrors.Wrapf(err, "page %d", n)
			}
			out[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// PageDigest returns the hex BLAKE3 digest of page n as Page returns it.
func (d *Database) PageDigest(n uint32) (string, error) {
	page, err := d.Page(n)
	if err != nil {
		return "", err
	}
	return Digest(page), nil
}

// Digest returns the hex BLAKE3 digest of b.
func Digest(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}
