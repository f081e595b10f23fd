// Package scheme ties diffusion, share generation and reconstruction
// together into the (k, n) image sharing scheme.
package scheme

import (
	"errors"
	"fmt"
	"io"

	"github.com/Davincible/shadowshare/pkg/crypto/diffusion"
	"github.com/Davincible/shadowshare/pkg/crypto/gf257"
	"github.com/Davincible/shadowshare/pkg/crypto/shamir"
	"github.com/Davincible/shadowshare/pkg/grid"
	"github.com/Davincible/shadowshare/pkg/secure"
)

var ErrSeedMismatch = errors.New("scheme: shares were made with different seeds")

// Params configures Distribute.
type Params struct {
	Threshold int
	Shares    int
	// BlockSize is 1 (or 0) for per-pixel sharing, or Threshold for block mode.
	BlockSize int
	Policy    shamir.Policy
	// Seed fixes the diffusion seed. Nil draws a random one.
	Seed *uint16
	// Coefficients feeds shamir.PolicyKeystream. Nil means crypto/rand.
	Coefficients io.Reader
}

// Share is one participant's share together with everything needed to use
// it for recovery.
type Share struct {
	Index     byte
	Seed      uint16
	Threshold int
	BlockSize int
	Width     int
	Height    int
	Values    []gf257.Element
}

func (p Params) blockSize() int {
	if p.BlockSize == 0 {
		return 1
	}
	return p.BlockSize
}

// Distribute diffuses secret with the seed's mask and splits it into
// p.Shares shares. It returns all shares or none.
func Distribute(secret *grid.Grid, p Params) ([]Share, error) {
	if secret == nil || secret.Len() == 0 {
		return nil, fmt.Errorf("%w: secret image is empty", shamir.ErrInvalidParameters)
	}

	var seed uint16
	if p.Seed != nil {
		seed = *p.Seed
	} else {
		s, err := shamir.GenerateSeed()
		if err != nil {
			return nil, err
		}
		seed = s
	}

	mask, err := diffusion.Build(seed, secret.Width, secret.Height)
	if err != nil {
		return nil, fmt.Errorf("failed to build diffusion mask: %w", err)
	}
	diffused, err := diffusion.Apply(secret, mask)
	if err != nil {
		return nil, fmt.Errorf("failed to diffuse secret: %w", err)
	}
	defer secure.Zero(diffused.Pix)

	parts, err := shamir.Split(diffused.Pix, shamir.Config{
		Parts:        p.Shares,
		Threshold:    p.Threshold,
		BlockSize:    p.BlockSize,
		Policy:       p.Policy,
		Coefficients: p.Coefficients,
	})
	if err != nil {
		return nil, err
	}

	shares := make([]Share, len(parts))
	for i, part := range parts {
		shares[i] = Share{
			Index:     part.Index,
			Seed:      seed,
			Threshold: p.Threshold,
			BlockSize: p.blockSize(),
			Width:     secret.Width,
			Height:    secret.Height,
			Values:    part.Values,
		}
	}
	return shares, nil
}

// Recover rebuilds the secret from at least Threshold shares. All shares
// must agree on seed, threshold, block size and dimensions.
func Recover(shares []Share) (*grid.Grid, error) {
	if len(shares) == 0 {
		return nil, fmt.Errorf("%w: no shares provided", shamir.ErrInsufficientShares)
	}

	ref := shares[0]
	for _, s := range shares[1:] {
		if s.Seed != ref.Seed {
			return nil, fmt.Errorf("%w: share %d has seed %d, share %d has %d",
				ErrSeedMismatch, ref.Index, ref.Seed, s.Index, s.Seed)
		}
		if s.Threshold != ref.Threshold || s.BlockSize != ref.BlockSize {
			return nil, fmt.Errorf("%w: share %d is (k=%d, block=%d), share %d is (k=%d, block=%d)",
				shamir.ErrMismatchedLength, ref.Index, ref.Threshold, ref.BlockSize, s.Index, s.Threshold, s.BlockSize)
		}
		if s.Width != ref.Width || s.Height != ref.Height {
			return nil, fmt.Errorf("%w: share %d is %dx%d, share %d is %dx%d",
				shamir.ErrMismatchedLength, ref.Index, ref.Width, ref.Height, s.Index, s.Width, s.Height)
		}
	}
	if ref.BlockSize < 1 || ref.Width*ref.Height%ref.BlockSize != 0 {
		return nil, fmt.Errorf("%w: block size %d cannot tile %dx%d",
			shamir.ErrMismatchedLength, ref.BlockSize, ref.Width, ref.Height)
	}

	count := ref.Width * ref.Height / ref.BlockSize
	parts := make([]shamir.Share, len(shares))
	for i, s := range shares {
		parts[i] = shamir.Share{Index: s.Index, Values: s.Values}
		if err := shamir.VerifyShare(parts[i], count); err != nil {
			return nil, fmt.Errorf("share %d of a %dx%d secret: %w", s.Index, ref.Width, ref.Height, err)
		}
	}

	samples, err := shamir.Combine(parts, ref.Threshold, ref.BlockSize)
	if err != nil {
		return nil, err
	}
	defer secure.Zero(samples)

	diffused, err := grid.FromPixels(ref.Width, ref.Height, samples)
	if err != nil {
		return nil, err
	}
	mask, err := diffusion.Build(ref.Seed, ref.Width, ref.Height)
	if err != nil {
		return nil, fmt.Errorf("failed to build diffusion mask: %w", err)
	}
	secret, err := diffusion.Invert(diffused, mask)
	secure.Zero(diffused.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to undo diffusion: %w", err)
	}
	return secret, nil
}

// Wipe zeroes the share values.
func (s *Share) Wipe() {
	secure.ZeroValues(s.Values)
}
