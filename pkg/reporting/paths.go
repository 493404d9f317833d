package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
)

// ResultsDir is the root of all generated reports
const ResultsDir = "results"

// DefaultPathManager implements path management functionality
type DefaultPathManager struct{}

// NewDefaultPathManager creates a new path manager
func NewDefaultPathManager() *DefaultPathManager {
	return &DefaultPathManager{}
}

// GetDefaultOutputDir returns results/<ASSET>_<CURRENCY>
func (p *DefaultPathManager) GetDefaultOutputDir(asset, currency string) string {
	a := strings.ToUpper(strings.TrimSpace(asset))
	c := strings.ToUpper(strings.TrimSpace(currency))
	if a == "" {
		a = "UNKNOWN"
	}
	if c == "" {
		c = "UNKNOWN"
	}

	return filepath.Join(ResultsDir, fmt.Sprintf("%s_%s", a, c))
}

// EnsureDirectoryExists creates the parent directory of path
func (p *DefaultPathManager) EnsureDirectoryExists(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// DefaultOutputDir is the package-level form of GetDefaultOutputDir
func DefaultOutputDir(asset, currency string) string {
	return NewDefaultPathManager().GetDefaultOutputDir(asset, currency)
}

// Money rounds a currency amount to cents
func Money(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// FormatMoney renders a currency amount with two decimals
func FormatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatAmount renders a coin quantity with eight decimals
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(8)
}
