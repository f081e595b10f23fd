package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

var bmpPattern = regexp.MustCompile(`(?i)\.bmp$`)

func ValidateSplitParams(parts, threshold int) error {
	if parts < 2 || parts > 10 {
		return fmt.Errorf("shares must be between 2 and 10 (got %d)", parts)
	}

	if threshold < 2 || threshold > parts {
		return fmt.Errorf("threshold must be between 2 and %d (got %d)", parts, threshold)
	}

	return nil
}

func ValidateThreshold(threshold int) error {
	if threshold < 2 || threshold > 10 {
		return fmt.Errorf("threshold must be between 2 and 10 (got %d)", threshold)
	}
	return nil
}

func ValidateBits(bits int) error {
	switch bits {
	case 1, 2, 8:
		return nil
	default:
		return fmt.Errorf("bits must be 1, 2 or 8 (got %d)", bits)
	}
}

func ValidatePattern(pattern string) error {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return fmt.Errorf("carrier pattern cannot be empty")
	}

	if strings.ContainsRune(pattern, filepath.Separator) {
		return fmt.Errorf("carrier pattern matches file names, not paths: %s", pattern)
	}

	if _, err := glob.Compile(pattern); err != nil {
		return fmt.Errorf("invalid carrier pattern %q: %w", pattern, err)
	}

	return nil
}

func ValidateBitmapPath(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("bitmap path cannot be empty")
	}

	if !bmpPattern.MatchString(path) {
		return fmt.Errorf("bitmap path must end in .bmp: %s", path)
	}

	return nil
}

func ValidateDirs(carrierDir, outputDir string) error {
	if strings.TrimSpace(outputDir) == "" {
		return fmt.Errorf("output directory cannot be empty")
	}

	a, err := filepath.Abs(carrierDir)
	if err != nil {
		return fmt.Errorf("failed to resolve carrier directory: %w", err)
	}
	b, err := filepath.Abs(outputDir)
	if err != nil {
		return fmt.Errorf("failed to resolve output directory: %w", err)
	}
	if a == b {
		return fmt.Errorf("output directory must differ from the carrier directory")
	}

	return nil
}
