package pkg

import (
	"fmt"
)

const (
	maxBorrowerIDLength  = 128
	maxAssetSymbolLength = 12
)

// ValidateBorrowerID checks that a borrower identity is non-empty, bounded
// in length and restricted to [A-Za-z0-9._:-].
func ValidateBorrowerID(id string) error {
	if id == "" {
		return fmt.Errorf("borrower id is empty")
	}
	if len(id) > maxBorrowerIDLength {
		return fmt.Errorf("borrower id exceeds %d characters", maxBorrowerIDLength)
	}
	for _, r := range id {
		if isAlphaNum(r) || r == '.' || r == '-' || r == '_' || r == ':' {
			continue
		}
		return fmt.Errorf("borrower id contains invalid character %q", r)
	}
	return nil
}

// ValidateAssetSymbol checks that a collateral asset symbol is a short
// uppercase alphanumeric ticker starting with a letter.
func ValidateAssetSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("asset symbol is empty")
	}
	if len(symbol) > maxAssetSymbolLength {
		return fmt.Errorf("asset symbol exceeds %d characters", maxAssetSymbolLength)
	}
	if symbol[0] < 'A' || symbol[0] > 'Z' {
		return fmt.Errorf("asset symbol must start with an uppercase letter")
	}
	for _, r := range symbol {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			continue
		}
		return fmt.Errorf("asset symbol contains invalid character %q", r)
	}
	return nil
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
