package scheme

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/Davincible/shadowshare/pkg/bmp"
	"github.com/Davincible/shadowshare/pkg/carrier"
	"github.com/Davincible/shadowshare/pkg/crypto/shamir"
	"github.com/Davincible/shadowshare/pkg/grid"
	"github.com/Davincible/shadowshare/pkg/stego"
)

// Hider hides shares in carrier bitmaps and finds them again.
type Hider struct {
	store  *carrier.Store
	codec  stego.Codec
	logger *slog.Logger
}

// NewHider returns a Hider. A nil logger means slog.Default().
func NewHider(store *carrier.Store, codec stego.Codec, logger *slog.Logger) (*Hider, error) {
	if err := codec.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		store = carrier.NewStore(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hider{store: store, codec: codec, logger: logger}, nil
}

// Report lists the outcome of DistributeToCarriers.
type Report struct {
	Seed     uint16         `json:"seed"`
	Written  []string       `json:"written"`
	Failures []ShareFailure `json:"failures,omitempty"`
}

// ShareFailure records a share that could not be written.
type ShareFailure struct {
	Index  byte   `json:"index"`
	Path   string `json:"path"`
	Reason string `json:"error"`
	Err    error  `json:"-"`
}

func (f ShareFailure) Error() string {
	return fmt.Sprintf("share %d (%s): %v", f.Index, f.Path, f.Err)
}

func (f ShareFailure) Unwrap() error {
	return f.Err
}

// SharePath is the file name used for a dedicated share image.
func SharePath(dir string, index byte) string {
	return filepath.Join(dir, fmt.Sprintf("share-%02d.bmp", index))
}

// CarrierSize is the number of carrier pixels needed to hide one share of a
// width x height secret.
func CarrierSize(width, height, blockSize int, codec stego.Codec) int {
	if blockSize < 1 {
		blockSize = 1
	}
	return codec.Required(stego.FrameSize(width * height / blockSize))
}

func toFrame(s Share) stego.Frame {
	return stego.Frame{
		Header: stego.Header{
			Threshold: s.Threshold,
			BlockSize: s.BlockSize,
			Width:     s.Width,
			Height:    s.Height,
			Count:     len(s.Values),
		},
		Values: s.Values,
	}
}

// DistributeToCarriers splits secret and writes one share per output file in
// outDir. With 1 or 2 bits per byte each share is hidden in the matching
// carrier, which keeps its palette and file name; with 8 bits the shares are
// written as dedicated images and carriers are ignored.
//
// Writes are best effort: every share is attempted and the returned error
// joins the individual failures.
func (h *Hider) DistributeToCarriers(secret *grid.Grid, p Params, carriers []string, outDir string) (*Report, error) {
	dedicated := h.codec.Bits == 8
	if !dedicated && len(carriers) < p.Shares {
		return nil, fmt.Errorf("%w: need %d, got %d", carrier.ErrNotEnoughCarriers, p.Shares, len(carriers))
	}

	shares, err := Distribute(secret, p)
	if err != nil {
		return nil, err
	}
	defer func() {
		for i := range shares {
			shares[i].Wipe()
		}
	}()

	report := &Report{Seed: shares[0].Seed}
	var errs []error
	for i, s := range shares {
		var (
			path string
			img  *bmp.Image
			err  error
		)
		if dedicated {
			path = SharePath(outDir, s.Index)
			img, err = h.shareImage(s)
		} else {
			path = filepath.Join(outDir, filepath.Base(carriers[i]))
			img, err = h.hide(carriers[i], s)
		}
		if err == nil {
			if h.store.Exists(path) {
				h.logger.Debug("Overwriting existing file", "path", path)
			}
			err = h.store.Save(path, img)
		}
		if err != nil {
			failure := ShareFailure{Index: s.Index, Path: path, Reason: err.Error(), Err: err}
			h.logger.Warn("Failed to write share", "index", s.Index, "path", path, "error", err)
			report.Failures = append(report.Failures, failure)
			errs = append(errs, failure)
			continue
		}

		h.logger.Debug("Wrote share", "index", s.Index, "path", path)
		report.Written = append(report.Written, path)
	}

	return report, errors.Join(errs...)
}

func (h *Hider) hide(path string, s Share) (*bmp.Image, error) {
	img, err := h.store.Load(path)
	if err != nil {
		return nil, err
	}
	if need := CarrierSize(s.Width, s.Height, s.BlockSize, h.codec); img.Grid.Len() < need {
		return nil, fmt.Errorf("%w: %s has %d pixels, need %d", stego.ErrCapacity, path, img.Grid.Len(), need)
	}

	pix, err := h.codec.WriteFrame(img.Grid.Pix, toFrame(s))
	if err != nil {
		return nil, err
	}
	g, err := grid.FromPixels(img.Grid.Width, img.Grid.Height, pix)
	if err != nil {
		return nil, err
	}

	img.Grid = g
	img.Side = bmp.SideChannel{Seed: s.Seed, Index: uint16(s.Index)}
	return img, nil
}

// shareImage lays the frame out row by row at the secret's width.
func (h *Hider) shareImage(s Share) (*bmp.Image, error) {
	size := CarrierSize(s.Width, s.Height, s.BlockSize, h.codec)
	height := (size + s.Width - 1) / s.Width

	canvas, err := grid.New(s.Width, height)
	if err != nil {
		return nil, err
	}
	pix, err := h.codec.WriteFrame(canvas.Pix, toFrame(s))
	if err != nil {
		return nil, err
	}
	canvas.Pix = pix

	img := bmp.NewGray(canvas)
	img.Side = bmp.SideChannel{Seed: s.Seed, Index: uint16(s.Index)}
	return img, nil
}

// ReadShare loads the share hidden in path.
func (h *Hider) ReadShare(path string) (Share, error) {
	img, err := h.store.Load(path)
	if err != nil {
		return Share{}, err
	}
	if img.Side.Index == 0 || img.Side.Index > 255 {
		return Share{}, fmt.Errorf("%w: %s has share index %d", stego.ErrNotAShare, path, img.Side.Index)
	}

	frame, err := h.codec.ReadFrame(img.Grid.Pix)
	if err != nil {
		return Share{}, fmt.Errorf("failed to read share from %s: %w", path, err)
	}

	return Share{
		Index:     byte(img.Side.Index),
		Seed:      img.Side.Seed,
		Threshold: frame.Threshold,
		BlockSize: frame.BlockSize,
		Width:     frame.Width,
		Height:    frame.Height,
		Values:    frame.Values,
	}, nil
}

func notAShare(err error) bool {
	return errors.Is(err, stego.ErrNotAShare) ||
		errors.Is(err, stego.ErrMismatchedLength) ||
		errors.Is(err, bmp.ErrUnsupportedFormat) ||
		errors.Is(err, bmp.ErrInvalidBitmap)
}

type foundShare struct {
	Share
	path string
}

// RecoverFromCarriers reads the shares hidden in files and recovers the
// secret. Files that do not hold a share are skipped. Shares are ordered by
// index and duplicates dropped. A threshold of 0 accepts the one written in
// the shares; any other value must match it.
//
// The returned paths are the files whose shares were used, in index order.
func (h *Hider) RecoverFromCarriers(files []string, threshold int) (*grid.Grid, []string, error) {
	var found []foundShare
	defer func() {
		for i := range found {
			found[i].Wipe()
		}
	}()

	for _, f := range files {
		s, err := h.ReadShare(f)
		if err != nil {
			if notAShare(err) {
				h.logger.Debug("Skipping file without a share", "path", f, "error", err)
				continue
			}
			return nil, nil, err
		}
		if threshold > 0 && s.Threshold != threshold {
			return nil, nil, fmt.Errorf("%w: %s was made for threshold %d, not %d",
				shamir.ErrInvalidParameters, f, s.Threshold, threshold)
		}
		found = append(found, foundShare{Share: s, path: f})
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Index < found[j].Index
	})
	var unique []foundShare
	for i, s := range found {
		if i > 0 && s.Index == found[i-1].Index {
			h.logger.Debug("Dropping duplicate share", "index", s.Index, "path", s.path)
			continue
		}
		unique = append(unique, s)
	}

	if len(unique) == 0 {
		return nil, nil, fmt.Errorf("%w: no shares found in %d files", shamir.ErrInsufficientShares, len(files))
	}
	k := unique[0].Threshold
	if len(unique) < k {
		return nil, nil, fmt.Errorf("%w: found %d distinct shares, need %d", shamir.ErrInsufficientShares, len(unique), k)
	}
	h.logger.Debug("Recovering secret", "shares", len(unique), "threshold", k, "seed", unique[0].Seed)

	shares := make([]Share, k)
	used := make([]string, k)
	for i, s := range unique[:k] {
		shares[i] = s.Share
		used[i] = s.path
	}
	secret, err := Recover(shares)
	if err != nil {
		return nil, nil, err
	}
	return secret, used, nil
}

// Inspection describes a bitmap as seen by the Hider.
type Inspection struct {
	Path     string          `json:"path"`
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	Side     bmp.SideChannel `json:"side_channel"`
	Capacity int             `json:"capacity"`
	Header   *stego.Header   `json:"header,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Inspect reports the side channel, payload capacity and frame header of
// path. A file without a valid frame is not an error; Error says why.
func (h *Hider) Inspect(path string) (*Inspection, error) {
	img, err := h.store.Load(path)
	if err != nil {
		return nil, err
	}

	in := &Inspection{
		Path:     path,
		Width:    img.Grid.Width,
		Height:   img.Grid.Height,
		Side:     img.Side,
		Capacity: h.codec.Capacity(img.Grid.Len()),
	}
	frame, err := h.codec.ReadFrame(img.Grid.Pix)
	if err != nil {
		in.Error = err.Error()
		return in, nil
	}
	in.Header = &frame.Header
	return in, nil
}
