package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSplitParams(t *testing.T) {
	tests := []struct {
		name      string
		parts     int
		threshold int
		wantErr   bool
	}{
		{"minimum", 2, 2, false},
		{"maximum", 10, 10, false},
		{"typical", 5, 3, false},
		{"too few parts", 1, 1, true},
		{"too many parts", 11, 3, true},
		{"threshold above parts", 3, 4, true},
		{"threshold one", 3, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSplitParams(tt.parts, tt.threshold)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateThreshold(t *testing.T) {
	assert.NoError(t, ValidateThreshold(2))
	assert.NoError(t, ValidateThreshold(10))
	assert.Error(t, ValidateThreshold(1))
	assert.Error(t, ValidateThreshold(11))
}

func TestValidateBits(t *testing.T) {
	for _, bits := range []int{1, 2, 8} {
		assert.NoError(t, ValidateBits(bits))
	}
	for _, bits := range []int{0, 3, 4, 16} {
		assert.Error(t, ValidateBits(bits))
	}
}

func TestValidatePattern(t *testing.T) {
	assert.NoError(t, ValidatePattern("*.bmp"))
	assert.NoError(t, ValidatePattern("share-{1,2,3}.bmp"))
	assert.Error(t, ValidatePattern(""))
	assert.Error(t, ValidatePattern("dir/*.bmp"))
	assert.Error(t, ValidatePattern("["))
}

func TestValidateBitmapPath(t *testing.T) {
	assert.NoError(t, ValidateBitmapPath("secret.bmp"))
	assert.NoError(t, ValidateBitmapPath("dir/SECRET.BMP"))
	assert.Error(t, ValidateBitmapPath(""))
	assert.Error(t, ValidateBitmapPath("secret.png"))
}

func TestValidateDirs(t *testing.T) {
	assert.NoError(t, ValidateDirs("carriers", "shares"))
	assert.Error(t, ValidateDirs("carriers", "./carriers"))
	assert.Error(t, ValidateDirs("carriers", " "))
}
