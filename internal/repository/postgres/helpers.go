package postgres

import (
	"github.com/shopspring/decimal"
	ierr "github.com/towerbill/towerbill/internal/errors"
)

func parseDecimalInto(s string, dst *decimal.Decimal) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to parse stored decimal value").
			Mark(ierr.ErrDatabase)
	}
	*dst = d
	return nil
}
