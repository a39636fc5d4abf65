package gatewayrepo

import (
	"context"
	"fmt"
	"time"
)

type ChargeReq struct {
	ExternalID  string
	Amount      float64
	Method      string
	PayerEmail  string
	Description string
}

type ChargeResp struct {
	Reference string
	Status    string
}

type Repo interface {
	Charge(ctx context.Context, req ChargeReq) (*ChargeResp, error)
}

type stub struct{}

// NewStub returns a gateway that approves every charge with a synthetic reference.
func NewStub() Repo { return stub{} }

func (stub) Charge(_ context.Context, req ChargeReq) (*ChargeResp, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("gateway: invalid amount %.2f", req.Amount)
	}
	return &ChargeResp{Reference: fmt.Sprintf("PAY-%d", time.Now().UnixNano()), Status: "SUCCEEDED"}, nil
}
