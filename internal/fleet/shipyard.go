package fleet

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"space-mining-server/internal/resources"
	"space-mining-server/internal/shared/errors"
)

const (
	maxShipNameLength = 30
	scrapRefundRatio  = 0.5
)

// AdjustedCost applies a faction build cost multiplier, flooring each component
func AdjustedCost(base resources.Resources, reduction float64) resources.Resources {
	return base.Scale(reduction)
}

// ScrapRefund is half of the base cost, not the faction adjusted one
func ScrapRefund(base resources.Resources) resources.Resources {
	return base.Scale(scrapRefundRatio)
}

func AdjustedSpeed(speed int, modifier float64) int {
	adjusted := int(math.Floor(float64(speed) * modifier))
	if adjusted < 1 {
		return 1
	}
	return adjusted
}

func DefaultShipName(templateName string, ownedShips int) string {
	return fmt.Sprintf("%s #%d", templateName, ownedShips+1)
}

// NormalizeShipName trims name and checks its length. An empty result means
// the caller should fall back to DefaultShipName.
func NormalizeShipName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > maxShipNameLength {
		return "", errors.Validationf("ship name must be at most %d characters", maxShipNameLength)
	}
	return name, nil
}

func percentDelta(multiplier float64) int {
	return int(math.Round((multiplier - 1) * 100))
}
