package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type bookReq struct {
	BikeID int64  `json:"bike_id" validate:"required,gt=0"`
	Method string `json:"payment_method" validate:"required,oneof=cod card upi"`
	Note   string `validate:"max=3"`
}

func TestFields_UsesJSONNames(t *testing.T) {
	err := New().Validate(bookReq{Method: "cash", Note: "long"})
	require.Error(t, err)

	f := Fields(err)
	require.Equal(t, "required", f["bike_id"])
	require.Equal(t, "oneof=cod card upi", f["payment_method"])
	require.Equal(t, "max=3", f["Note"])
}

func TestFields_Valid(t *testing.T) {
	require.NoError(t, New().Validate(bookReq{BikeID: 1, Method: "upi"}))
	require.Empty(t, Fields(nil))
}
