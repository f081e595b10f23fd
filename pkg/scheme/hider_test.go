package scheme

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/Davincible/shadowshare/pkg/bmp"
	"github.com/Davincible/shadowshare/pkg/carrier"
	"github.com/Davincible/shadowshare/pkg/crypto/shamir"
	"github.com/Davincible/shadowshare/pkg/grid"
	"github.com/Davincible/shadowshare/pkg/stego"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHider(t *testing.T, bits int) (*Hider, *carrier.Store) {
	t.Helper()
	return newHiderOn(t, afero.NewMemMapFs(), bits)
}

func newHiderOn(t *testing.T, fs afero.Fs, bits int) (*Hider, *carrier.Store) {
	t.Helper()
	store := carrier.NewStore(fs)
	codec, err := stego.NewCodec(bits)
	require.NoError(t, err)
	h, err := NewHider(store, codec, nil)
	require.NoError(t, err)
	return h, store
}

func writeCarriers(t *testing.T, store *carrier.Store, dir string, n, w, h int) []string {
	t.Helper()
	r := rand.New(rand.NewSource(int64(n * w * h)))
	var paths []string
	for i := 0; i < n; i++ {
		g := randomGrid(t, w, h, r)
		path := filepath.Join(dir, fmt.Sprintf("carrier-%d.bmp", i))
		require.NoError(t, store.Save(path, bmp.NewGray(g)))
		paths = append(paths, path)
	}
	return paths
}

func TestCarrierRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		bits   int
		params Params
	}{
		{"one bit", 1, Params{Threshold: 3, Shares: 5, Seed: seed(43)}},
		{"two bits", 2, Params{Threshold: 2, Shares: 4}},
		{"two bits block mode", 2, Params{Threshold: 4, Shares: 6, BlockSize: 4}},
		{"dedicated images", 8, Params{Threshold: 3, Shares: 3, Policy: shamir.PolicyKeystream}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, store := newHider(t, tt.bits)
			secret := randomGrid(t, 12, 8, rand.New(rand.NewSource(21)))

			var carriers []string
			if tt.bits != 8 {
				carriers = writeCarriers(t, store, "carriers", tt.params.Shares, 48, 40)
			}

			report, err := h.DistributeToCarriers(secret, tt.params, carriers, "shares")
			require.NoError(t, err)
			assert.Len(t, report.Written, tt.params.Shares)
			assert.Empty(t, report.Failures)
			if tt.params.Seed != nil {
				assert.Equal(t, *tt.params.Seed, report.Seed)
			}

			files, err := store.List("shares", "*.bmp", tt.params.Shares)
			require.NoError(t, err)

			got, _, err := h.RecoverFromCarriers(files, tt.params.Threshold)
			require.NoError(t, err)
			assert.True(t, got.Equal(secret))
		})
	}
}

func TestCarrierKeepsImage(t *testing.T) {
	h, store := newHider(t, 2)
	carriers := writeCarriers(t, store, "in", 2, 32, 32)
	secret := randomGrid(t, 4, 4, rand.New(rand.NewSource(3)))

	_, err := h.DistributeToCarriers(secret, Params{Threshold: 2, Shares: 2, Seed: seed(77)}, carriers, "out")
	require.NoError(t, err)

	for i, path := range carriers {
		before, err := store.Load(path)
		require.NoError(t, err)
		after, err := store.Load(filepath.Join("out", filepath.Base(path)))
		require.NoError(t, err)

		assert.Equal(t, before.Palette, after.Palette)
		assert.True(t, before.Grid.SameSize(after.Grid))
		assert.Equal(t, bmp.SideChannel{Seed: 77, Index: uint16(i + 1)}, after.Side)
		for p := range before.Grid.Pix {
			assert.Equal(t, before.Grid.Pix[p]&^0x03, after.Grid.Pix[p]&^0x03, "high bits of pixel %d", p)
		}
	}
}

func TestRedistributeOverwritesShares(t *testing.T) {
	h, store := newHider(t, 8)
	first := randomGrid(t, 5, 5, rand.New(rand.NewSource(20)))
	second := randomGrid(t, 5, 5, rand.New(rand.NewSource(21)))

	_, err := h.DistributeToCarriers(first, Params{Threshold: 2, Shares: 3, Seed: seed(1)}, nil, "out")
	require.NoError(t, err)
	report, err := h.DistributeToCarriers(second, Params{Threshold: 2, Shares: 3, Seed: seed(2)}, nil, "out")
	require.NoError(t, err)
	assert.Len(t, report.Written, 3)

	files, err := store.List("out", "*.bmp", 3)
	require.NoError(t, err)
	got, _, err := h.RecoverFromCarriers(files, 2)
	require.NoError(t, err)
	assert.True(t, got.Equal(second))
}

func TestDedicatedImageGeometry(t *testing.T) {
	h, store := newHider(t, 8)
	secret := randomGrid(t, 10, 3, rand.New(rand.NewSource(4)))

	report, err := h.DistributeToCarriers(secret, Params{Threshold: 2, Shares: 2}, nil, "out")
	require.NoError(t, err)
	require.Equal(t, []string{SharePath("out", 1), SharePath("out", 2)}, report.Written)

	img, err := store.Load(report.Written[0])
	require.NoError(t, err)
	size := stego.FrameSize(30)
	assert.Equal(t, 10, img.Grid.Width)
	assert.Equal(t, (size+9)/10, img.Grid.Height)
}

func TestRecoverSkipsAndOrders(t *testing.T) {
	fs := afero.NewMemMapFs()
	h, store := newHiderOn(t, fs, 2)
	carriers := writeCarriers(t, store, "in", 5, 32, 32)
	secret, err := grid.FromRows([][]byte{{10, 20}, {30, 40}})
	require.NoError(t, err)

	_, err = h.DistributeToCarriers(secret, Params{Threshold: 3, Shares: 5, Seed: seed(43)}, carriers, "out")
	require.NoError(t, err)

	// A plain bitmap and a non-bitmap file sit next to the shares.
	plain := writeCarriers(t, store, "other", 1, 16, 16)
	require.NoError(t, afero.WriteFile(fs, "other/readme.bmp", []byte("not a bitmap"), 0600))

	files := []string{
		"out/carrier-4.bmp",
		plain[0],
		"out/carrier-2.bmp",
		"other/readme.bmp",
		"out/carrier-0.bmp",
		"out/carrier-2.bmp",
	}
	got, used, err := h.RecoverFromCarriers(files, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 20, 30, 40}, got.Pix)
	assert.Equal(t, []string{"out/carrier-0.bmp", "out/carrier-2.bmp", "out/carrier-4.bmp"}, used)

	_, _, err = h.RecoverFromCarriers([]string{"out/carrier-1.bmp", "out/carrier-3.bmp", "out/carrier-3.bmp"}, 3)
	assert.ErrorIs(t, err, shamir.ErrInsufficientShares)

	_, _, err = h.RecoverFromCarriers(files, 2)
	assert.ErrorIs(t, err, shamir.ErrInvalidParameters)

	_, _, err = h.RecoverFromCarriers([]string{"out/missing.bmp"}, 3)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, shamir.ErrInsufficientShares)
}

func TestRecoverSeedMismatch(t *testing.T) {
	h, _ := newHider(t, 8)
	secret := randomGrid(t, 3, 3, rand.New(rand.NewSource(8)))

	_, err := h.DistributeToCarriers(secret, Params{Threshold: 2, Shares: 2, Seed: seed(1)}, nil, "a")
	require.NoError(t, err)
	_, err = h.DistributeToCarriers(secret, Params{Threshold: 2, Shares: 2, Seed: seed(2)}, nil, "b")
	require.NoError(t, err)

	_, _, err = h.RecoverFromCarriers([]string{SharePath("a", 1), SharePath("b", 2)}, 2)
	assert.ErrorIs(t, err, ErrSeedMismatch)
}

func TestDistributeBestEffort(t *testing.T) {
	h, store := newHider(t, 2)
	carriers := writeCarriers(t, store, "in", 2, 32, 32)
	small := writeCarriers(t, store, "tiny", 1, 4, 4)
	carriers = append(carriers, small...)

	secret := randomGrid(t, 4, 4, rand.New(rand.NewSource(6)))
	report, err := h.DistributeToCarriers(secret, Params{Threshold: 2, Shares: 3}, carriers, "out")
	require.Error(t, err)
	assert.ErrorIs(t, err, stego.ErrCapacity)

	assert.Len(t, report.Written, 2)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, byte(3), report.Failures[0].Index)

	// The two written shares still recover the secret.
	got, _, err := h.RecoverFromCarriers(report.Written, 2)
	require.NoError(t, err)
	assert.True(t, got.Equal(secret))
}

func TestDistributeNotEnoughCarriers(t *testing.T) {
	h, store := newHider(t, 1)
	carriers := writeCarriers(t, store, "in", 2, 32, 32)
	secret := randomGrid(t, 2, 2, rand.New(rand.NewSource(2)))

	_, err := h.DistributeToCarriers(secret, Params{Threshold: 2, Shares: 3}, carriers, "out")
	assert.ErrorIs(t, err, carrier.ErrNotEnoughCarriers)
}

func TestInspect(t *testing.T) {
	h, store := newHider(t, 2)
	carriers := writeCarriers(t, store, "in", 2, 32, 32)
	secret := randomGrid(t, 4, 4, rand.New(rand.NewSource(9)))

	_, err := h.DistributeToCarriers(secret, Params{Threshold: 2, Shares: 2, Seed: seed(5)}, carriers, "out")
	require.NoError(t, err)

	in, err := h.Inspect("out/carrier-1.bmp")
	require.NoError(t, err)
	assert.Equal(t, bmp.SideChannel{Seed: 5, Index: 2}, in.Side)
	assert.Equal(t, 32*32/4, in.Capacity)
	require.NotNil(t, in.Header)
	assert.Equal(t, stego.Header{Threshold: 2, BlockSize: 1, Width: 4, Height: 4, Count: 16}, *in.Header)
	assert.Empty(t, in.Error)

	plain, err := h.Inspect(carriers[0])
	require.NoError(t, err)
	assert.Nil(t, plain.Header)
	assert.NotEmpty(t, plain.Error)
}

func TestCarrierSize(t *testing.T) {
	codec := stego.Codec{Bits: 2}
	assert.Equal(t, codec.Required(stego.FrameSize(16)), CarrierSize(4, 4, 1, codec))
	assert.Equal(t, codec.Required(stego.FrameSize(4)), CarrierSize(4, 4, 4, codec))
	assert.Equal(t, CarrierSize(4, 4, 1, codec), CarrierSize(4, 4, 0, codec))
}

func TestNewHiderRejectsBits(t *testing.T) {
	_, err := NewHider(nil, stego.Codec{Bits: 3}, nil)
	assert.ErrorIs(t, err, stego.ErrInvalidBits)
}
