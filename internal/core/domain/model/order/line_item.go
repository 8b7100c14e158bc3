package order

import (
	"errors"
	"fmt"
	"strings"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrLineItemIsNotConstructed = errors.New("LineItem must be created via NewLineItem constructor")

// MoneyScale is the number of decimal places an amount may carry.
const MoneyScale = 2

// LineItem is one product line of an order. Line items are value objects and
// become immutable together with the order once it leaves pendiente.
type LineItem struct {
	productRef string
	quantity   int
	unitPrice  decimal.Decimal
	guard      guard.ConstructorGuard
}

// NewLineItem validates a non-empty product reference, a positive quantity
// and a non-negative unit price.
func NewLineItem(productRef string, quantity int, unitPrice decimal.Decimal) (LineItem, error) {
	item := LineItem{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		item.setProductRef(productRef),
		item.setQuantity(quantity),
		item.setUnitPrice(unitPrice),
	); err != nil {
		return LineItem{}, err
	}

	return item, nil
}

func (i LineItem) Validate() error {
	return i.guard.Validate(ErrLineItemIsNotConstructed)
}

func (i LineItem) ProductRef() string {
	return i.productRef
}

func (i LineItem) Quantity() int {
	return i.quantity
}

func (i LineItem) UnitPrice() decimal.Decimal {
	return i.unitPrice
}

// Amount is quantity times unit price.
func (i LineItem) Amount() decimal.Decimal {
	return i.unitPrice.Mul(decimal.NewFromInt(int64(i.quantity)))
}

func (i *LineItem) setProductRef(productRef string) error {
	productRef = strings.TrimSpace(productRef)
	if productRef == "" {
		return errs.NewValueIsRequiredError("productRef")
	}
	i.productRef = productRef
	return nil
}

func (i *LineItem) setQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", quantity))
	}
	i.quantity = quantity
	return nil
}

func (i *LineItem) setUnitPrice(unitPrice decimal.Decimal) error {
	if err := checkAmount("unitPrice", unitPrice); err != nil {
		return err
	}
	i.unitPrice = unitPrice
	return nil
}

// checkAmount rejects negative amounts and amounts finer than MoneyScale.
func checkAmount(name string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("%s is negative", amount))
	}
	if !amount.Equal(amount.Truncate(MoneyScale)) {
		return errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("%s has more than %d decimal places", amount, MoneyScale))
	}
	return nil
}
