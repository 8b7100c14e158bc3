package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", errs.NewObjectNotFoundError("orderID", "x"), http.StatusNotFound},
		{"invalid transition", errs.NewInvalidTransitionError("approve", "cancelado"), http.StatusConflict},
		{"conflict", errs.NewConflictError("order", "F-1", 2), http.StatusConflict},
		{"courier full", fmt.Errorf("claim: %w", courier.ErrCourierAtCapacity), http.StatusConflict},
		{"required", errs.NewValueIsRequiredError("reason"), http.StatusUnprocessableEntity},
		{"joined validation", errors.Join(errs.NewValueIsInvalidError("origin"), errs.NewValueIsRequiredError("items")), http.StatusUnprocessableEntity},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusOf(tt.err))
		})
	}
}

func TestNewOrder_IntakeReportsEveryField(t *testing.T) {
	body := NewOrder{
		Folio:       "F-1",
		Origin:      "fax",
		Priority:    "ya",
		Taxes:       "diez",
		Destination: &Point{Lat: 95, Lng: 0},
		Items:       []NewLineItem{{ProductRef: "A", Quantity: 0, UnitPrice: "1"}},
	}

	_, err := body.Intake()
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	for _, field := range []string{"origin", "priority", "taxes"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestNewOrder_IntakeDefaults(t *testing.T) {
	body := NewOrder{
		Folio:  "F-2",
		Origin: "sucursal",
		Items:  []NewLineItem{{ProductRef: "A", Quantity: 2, UnitPrice: "12.50"}},
	}

	intake, err := body.Intake()
	require.NoError(t, err)
	assert.Equal(t, "normal", intake.Priority.String())
	assert.True(t, intake.Taxes.IsZero())
	assert.True(t, intake.ShippingCost.IsZero())
	assert.Nil(t, intake.Destination)
	require.Len(t, intake.Items, 1)
	assert.Equal(t, "25", intake.Items[0].Amount().String())
}
