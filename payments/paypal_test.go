package payments

import (
	"errors"
	"fmt"
	"testing"

	"github.com/plutov/paypal/v4"
	"github.com/stretchr/testify/assert"
)

func TestAlreadyCaptured(t *testing.T) {
	captured := &paypal.ErrorResponse{
		Name:    "UNPROCESSABLE_ENTITY",
		Message: "The requested action could not be performed.",
		Details: []paypal.ErrorResponseDetail{{Issue: "ORDER_ALREADY_CAPTURED"}},
	}
	assert.True(t, alreadyCaptured(captured))
	assert.True(t, alreadyCaptured(fmt.Errorf("paypal capture order: %w", captured)))

	declined := &paypal.ErrorResponse{
		Name:    "UNPROCESSABLE_ENTITY",
		Details: []paypal.ErrorResponseDetail{{Issue: "INSTRUMENT_DECLINED"}},
	}
	assert.False(t, alreadyCaptured(declined))
	assert.False(t, alreadyCaptured(errors.New("connection reset")))
	assert.False(t, alreadyCaptured(nil))
}
