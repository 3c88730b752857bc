package weavetest

import weave "github.com/iov-one/trustd"

// Handler is a mock implementation of the weave.Handler interface.
//
// Each method call is counted. Set CheckErr or DeliverErr to force an error
// response.
type Handler struct {
	checkCall   int
	CheckResult weave.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult weave.DeliverResult
	DeliverErr    error
	// OnDeliver if set is called with the store before returning.
	OnDeliver func(weave.KVStore) error
}

var _ weave.Handler = (*Handler)(nil)

// Check returns the configured result.
func (h *Handler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	h.checkCall++
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

// Deliver returns the configured result.
func (h *Handler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	h.deliverCall++
	if h.OnDeliver != nil {
		if err := h.OnDeliver(db); err != nil {
			return nil, err
		}
	}
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

// CheckCallCount returns the number of Check calls.
func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

// DeliverCallCount returns the number of Deliver calls.
func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

// CallCount returns the number of all calls.
func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}
