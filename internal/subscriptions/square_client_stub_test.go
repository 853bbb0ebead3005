package subscriptions

import "context"

type stubSquareSubscriptionClient struct {
	createResp   *SquareSubscription
	cancelResp   *SquareSubscription
	getResp      map[string]*SquareSubscription
	createErr    error
	cancelErr    error
	getErr       error
	createParams *SquareSubscriptionParams
	cancelCalls  []string
}

func (s *stubSquareSubscriptionClient) Create(ctx context.Context, params *SquareSubscriptionParams) (*SquareSubscription, error) {
	s.createParams = params
	return s.createResp, s.createErr
}

func (s *stubSquareSubscriptionClient) Cancel(ctx context.Context, id string) (*SquareSubscription, error) {
	s.cancelCalls = append(s.cancelCalls, id)
	return s.cancelResp, s.cancelErr
}

func (s *stubSquareSubscriptionClient) Get(ctx context.Context, id string) (*SquareSubscription, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.getResp != nil {
		return s.getResp[id], nil
	}
	return nil, nil
}
