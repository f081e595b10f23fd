// Package shamir splits grayscale samples into threshold shares over GF(257)
// and reconstructs them from any k of the n shares.
package shamir

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/Davincible/shadowshare/pkg/crypto/gf257"
)

const (
	// MinThreshold and MaxThreshold bound k.
	MinThreshold = 2
	MaxThreshold = 10
	// MaxParts bounds n. Evaluation points are 1..n.
	MaxParts = 10
)

var (
	ErrInvalidParameters  = errors.New("invalid parameters")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrDuplicateIndex     = errors.New("duplicate share index")
	ErrMismatchedLength   = errors.New("mismatched share length")
	ErrSingularSystem     = errors.New("singular system")
	ErrInconsistentShares = errors.New("inconsistent shares")
)

// Policy selects how the non-constant coefficients of each per-pixel
// polynomial are formed.
type Policy int

const (
	// PolicyReplicate uses the secret sample for every coefficient.
	PolicyReplicate Policy = iota
	// PolicyKeystream draws coefficients 1..k-1 from Config.Coefficients.
	PolicyKeystream
)

func (p Policy) String() string {
	switch p {
	case PolicyReplicate:
		return "replicate"
	case PolicyKeystream:
		return "keystream"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy maps a policy name to its value.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "replicate":
		return PolicyReplicate, nil
	case "keystream":
		return PolicyKeystream, nil
	default:
		return 0, fmt.Errorf("%w: unknown policy %q", ErrInvalidParameters, name)
	}
}

// Share is one share's index (its evaluation point) and its values, one per
// sample in per-pixel mode or one per block in block mode.
type Share struct {
	Index  byte
	Values []gf257.Element
}

// Config describes a (Threshold, Parts) split.
type Config struct {
	Parts     int
	Threshold int
	// BlockSize is 1 for per-pixel sharing or Threshold to pack Threshold
	// consecutive samples into the coefficients of one polynomial.
	// Zero means 1.
	BlockSize int
	Policy    Policy
	// Coefficients supplies PolicyKeystream coefficients. Nil means
	// crypto/rand.
	Coefficients io.Reader
}

func (c *Config) blockSize() int {
	if c.BlockSize == 0 {
		return 1
	}
	return c.BlockSize
}

func (c *Config) Validate() error {
	if c.Threshold < MinThreshold {
		return fmt.Errorf("%w: threshold must be at least %d, got %d", ErrInvalidParameters, MinThreshold, c.Threshold)
	}
	if c.Threshold > MaxThreshold {
		return fmt.Errorf("%w: threshold cannot exceed %d, got %d", ErrInvalidParameters, MaxThreshold, c.Threshold)
	}
	if c.Threshold > c.Parts {
		return fmt.Errorf("%w: threshold (%d) cannot be greater than parts (%d)", ErrInvalidParameters, c.Threshold, c.Parts)
	}
	if c.Parts > MaxParts {
		return fmt.Errorf("%w: parts cannot exceed %d, got %d", ErrInvalidParameters, MaxParts, c.Parts)
	}
	if bs := c.blockSize(); bs != 1 && bs != c.Threshold {
		return fmt.Errorf("%w: block size must be 1 or the threshold (%d), got %d", ErrInvalidParameters, c.Threshold, bs)
	}
	if c.Policy != PolicyReplicate && c.Policy != PolicyKeystream {
		return fmt.Errorf("%w: unknown policy %d", ErrInvalidParameters, int(c.Policy))
	}
	if c.Policy == PolicyKeystream && c.blockSize() != 1 {
		return fmt.Errorf("%w: keystream policy requires per-pixel mode", ErrInvalidParameters)
	}
	return nil
}

// Split evaluates one polynomial per sample (or per block) at x = 1..Parts.
func Split(samples []byte, config Config) ([]Share, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: secret cannot be empty", ErrInvalidParameters)
	}

	k := config.Threshold
	block := config.blockSize()
	if len(samples)%block != 0 {
		return nil, fmt.Errorf("%w: %d samples do not divide into blocks of %d", ErrInvalidParameters, len(samples), block)
	}
	count := len(samples) / block

	// Keystream coefficients are drawn up front, in position order, so the
	// parallel evaluation below never touches the reader.
	var extra []byte
	if config.Policy == PolicyKeystream {
		src := config.Coefficients
		if src == nil {
			src = rand.Reader
		}
		extra = make([]byte, count*(k-1))
		if _, err := io.ReadFull(src, extra); err != nil {
			return nil, fmt.Errorf("failed to draw coefficients: %w", err)
		}
	}

	result := make([]Share, config.Parts)
	for i := range result {
		result[i] = Share{
			Index:  byte(i + 1),
			Values: make([]gf257.Element, count),
		}
	}

	err := forEachChunk(count, func(lo, hi int) error {
		coeffs := make([]gf257.Element, k)
		for p := lo; p < hi; p++ {
			switch {
			case block > 1:
				for i := 0; i < k; i++ {
					coeffs[i] = gf257.Element(samples[p*block+i])
				}
			case extra != nil:
				coeffs[0] = gf257.Element(samples[p])
				for i := 1; i < k; i++ {
					coeffs[i] = gf257.Element(extra[p*(k-1)+i-1])
				}
			default:
				s := gf257.Element(samples[p])
				for i := range coeffs {
					coeffs[i] = s
				}
			}

			for j := range result {
				result[j].Values[p] = gf257.Eval(coeffs, gf257.Element(result[j].Index))
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to split secret: %w", err)
	}

	return result, nil
}

// Method selects the per-pixel reconstruction algorithm.
type Method int

const (
	MethodLagrange Method = iota
	MethodGaussJordan
)

// Combine reconstructs the samples from at least threshold shares. Only the
// threshold shares with the lowest indices are used.
func Combine(shares []Share, threshold, blockSize int) ([]byte, error) {
	return Reconstruct(shares, threshold, blockSize, MethodLagrange)
}

// Reconstruct is Combine with an explicit per-pixel algorithm. Block mode
// always solves the full Vandermonde system.
func Reconstruct(shares []Share, threshold, blockSize int, method Method) ([]byte, error) {
	if threshold < MinThreshold || threshold > MaxThreshold {
		return nil, fmt.Errorf("%w: threshold must be between %d and %d, got %d",
			ErrInvalidParameters, MinThreshold, MaxThreshold, threshold)
	}
	if blockSize == 0 {
		blockSize = 1
	}
	if blockSize != 1 && blockSize != threshold {
		return nil, fmt.Errorf("%w: block size must be 1 or %d, got %d", ErrInvalidParameters, threshold, blockSize)
	}
	if len(shares) < threshold {
		return nil, fmt.Errorf("%w: need %d, got %d", ErrInsufficientShares, threshold, len(shares))
	}

	selected, err := selectShares(shares, threshold)
	if err != nil {
		return nil, err
	}

	xs := make([]gf257.Element, threshold)
	for i, share := range selected {
		xs[i] = gf257.Element(share.Index)
	}
	count := len(selected[0].Values)
	out := make([]byte, count*blockSize)

	if blockSize == 1 && method == MethodLagrange {
		weights, err := LagrangeWeights(xs)
		if err != nil {
			return nil, err
		}
		err = forEachChunk(count, func(lo, hi int) error {
			for p := lo; p < hi; p++ {
				var v gf257.Element
				for i, share := range selected {
					v = gf257.Add(v, gf257.Mul(weights[i], share.Values[p]))
				}
				if v > 255 {
					return fmt.Errorf("%w: position %d reconstructs to %d", ErrInconsistentShares, p, v)
				}
				out[p] = byte(v)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	}

	err = forEachChunk(count, func(lo, hi int) error {
		ys := make([]gf257.Element, threshold)
		for p := lo; p < hi; p++ {
			for i, share := range selected {
				ys[i] = share.Values[p]
			}
			coeffs, err := GaussJordan(xs, ys)
			if err != nil {
				return err
			}
			for i := 0; i < blockSize; i++ {
				if coeffs[i] > 255 {
					return fmt.Errorf("%w: position %d reconstructs to %d", ErrInconsistentShares, p*blockSize+i, coeffs[i])
				}
				out[p*blockSize+i] = byte(coeffs[i])
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// selectShares validates all supplied shares and returns the threshold shares
// with the lowest indices.
func selectShares(shares []Share, threshold int) ([]Share, error) {
	seen := make(map[byte]bool, len(shares))
	length := len(shares[0].Values)
	if length == 0 {
		return nil, fmt.Errorf("%w: share %d has empty data", ErrMismatchedLength, shares[0].Index)
	}
	for _, share := range shares {
		if err := VerifyShare(share, length); err != nil {
			return nil, fmt.Errorf("share %d: %w", share.Index, err)
		}
		if seen[share.Index] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateIndex, share.Index)
		}
		seen[share.Index] = true
	}

	sorted := make([]Share, len(shares))
	copy(sorted, shares)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })
	return sorted[:threshold], nil
}

// VerifyShare checks a share's index and length.
func VerifyShare(share Share, expectedLen int) error {
	if len(share.Values) != expectedLen {
		return fmt.Errorf("%w: expected %d, got %d", ErrMismatchedLength, expectedLen, len(share.Values))
	}
	if share.Index == 0 {
		return fmt.Errorf("%w: share index cannot be 0", ErrInvalidParameters)
	}
	return nil
}

// GenerateSeed returns a random 16-bit seed.
func GenerateSeed() (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(rand.Reader, b[:]); err != nil {
		return 0, fmt.Errorf("failed to generate seed: %w", err)
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}
