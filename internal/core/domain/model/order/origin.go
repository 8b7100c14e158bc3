package order

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Origin is the channel an order was taken through.
type Origin int

const (
	OriginUnknown Origin = iota
	OriginTelemarketing
	OriginBranch
	OriginEcommerce
	OriginCourier
)

var originNames = map[Origin]string{
	OriginTelemarketing: "telemarketing",
	OriginBranch:        "sucursal",
	OriginEcommerce:     "ecommerce",
	OriginCourier:       "rutero",
}

func ParseOrigin(s string) (Origin, error) {
	for o, name := range originNames {
		if name == s {
			return o, nil
		}
	}
	return OriginUnknown, errs.NewValueIsInvalidErrorWithCause("origin", fmt.Errorf("%q is not a valid origin", s))
}

func (o Origin) String() string {
	if name, ok := originNames[o]; ok {
		return name
	}
	return "unknown"
}

func (o Origin) Validate() error {
	if _, ok := originNames[o]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("origin", fmt.Errorf("%d is not a valid origin", o))
	}
	return nil
}
