package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/x/trust"
	"github.com/tendermint/tendermint/libs/log"
)

type server struct {
	svc    Service
	logger log.Logger
}

func (s *server) info(w http.ResponseWriter, r *http.Request) {
	JSONResp(w, http.StatusOK, struct {
		Version string `json:"version"`
	}{
		Version: weave.Version(),
	})
}

func (s *server) create(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var msg trust.CreateMsg
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		JSONErr(w, http.StatusBadRequest, "request body must be a JSON encoded trust.")
		return
	}
	id, err := s.svc.Create(r.Context(), caller, &msg)
	if err != nil {
		s.fail(w, err)
		return
	}
	JSONResp(w, http.StatusCreated, struct {
		ID int64 `json:"id"`
	}{
		ID: id,
	})
}

func (s *server) release(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := s.callerAndID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Release(r.Context(), caller, id); err != nil {
		s.fail(w, err)
		return
	}
	s.writeTrust(w, id)
}

func (s *server) dispute(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := s.callerAndID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Dispute(r.Context(), caller, id); err != nil {
		s.fail(w, err)
		return
	}
	s.writeTrust(w, id)
}

func (s *server) resolve(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := s.callerAndID(w, r)
	if !ok {
		return
	}
	var body struct {
		RefundToTrustor bool `json:"refund_to_trustor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		JSONErr(w, http.StatusBadRequest, "request body must be a JSON object with refund_to_trustor.")
		return
	}
	if err := s.svc.Resolve(r.Context(), caller, id, body.RefundToTrustor); err != nil {
		s.fail(w, err)
		return
	}
	s.writeTrust(w, id)
}

func (s *server) withdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	amount, err := s.svc.Withdraw(r.Context(), caller)
	if err != nil {
		s.fail(w, err)
		return
	}
	JSONResp(w, http.StatusOK, struct {
		Account weave.Address `json:"account"`
		Amount  int64         `json:"amount"`
	}{
		Account: caller.Address(),
		Amount:  amount,
	})
}

func (s *server) trust(w http.ResponseWriter, r *http.Request) {
	id, ok := trustID(w, r)
	if !ok {
		return
	}
	s.writeTrust(w, id)
}

func (s *server) writeTrust(w http.ResponseWriter, id int64) {
	t, err := s.svc.Trust(id)
	if err != nil {
		s.fail(w, err)
		return
	}
	JSONResp(w, http.StatusOK, t)
}

func (s *server) userTrusts(w http.ResponseWriter, r *http.Request) {
	addr, ok := address(w, r)
	if !ok {
		return
	}
	ids, err := s.svc.UserTrusts(addr)
	if err != nil {
		s.fail(w, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	JSONResp(w, http.StatusOK, struct {
		Trusts []int64 `json:"trusts"`
	}{
		Trusts: ids,
	})
}

func (s *server) stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Stats()
	if err != nil {
		s.fail(w, err)
		return
	}
	JSONResp(w, http.StatusOK, st)
}

func (s *server) balance(w http.ResponseWriter, r *http.Request) {
	addr, ok := address(w, r)
	if !ok {
		return
	}
	amount, err := s.svc.Balance(addr)
	if err != nil {
		s.fail(w, err)
		return
	}
	JSONResp(w, http.StatusOK, struct {
		Account weave.Address `json:"account"`
		Amount  int64         `json:"amount"`
	}{
		Account: addr,
		Amount:  amount,
	})
}

func (s *server) payouts(w http.ResponseWriter, r *http.Request) {
	addr, ok := address(w, r)
	if !ok {
		return
	}
	payouts, err := s.svc.Payouts(addr)
	if err != nil {
		s.fail(w, err)
		return
	}
	JSONResp(w, http.StatusOK, struct {
		Payouts interface{} `json:"payouts"`
	}{
		Payouts: payouts,
	})
}

func (s *server) caller(w http.ResponseWriter, r *http.Request) (weave.Condition, bool) {
	raw := r.Header.Get(CallerHeader)
	if raw == "" {
		JSONErr(w, http.StatusUnauthorized, CallerHeader+" header is required.")
		return nil, false
	}
	c, err := weave.ParseCondition(raw)
	if err != nil {
		JSONErr(w, http.StatusUnauthorized, CallerHeader+" header must be a valid condition.")
		return nil, false
	}
	return c, true
}

func (s *server) callerAndID(w http.ResponseWriter, r *http.Request) (weave.Condition, int64, bool) {
	caller, ok := s.caller(w, r)
	if !ok {
		return nil, 0, false
	}
	id, ok := trustID(w, r)
	if !ok {
		return nil, 0, false
	}
	return caller, id, true
}

// fail writes the response matching the error code. Only unexpected errors
// are logged.
func (s *server) fail(w http.ResponseWriter, err error) {
	code := StatusCode(err)
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
		JSONErr(w, code, http.StatusText(code))
		return
	}
	JSONErr(w, code, err.Error())
}

// StatusCode maps an operation error to the HTTP status code.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.ErrNotFound.Is(err):
		return http.StatusNotFound
	case errors.ErrUnauthorized.Is(err):
		return http.StatusForbidden
	case errors.ErrInvalidState.Is(err),
		errors.ErrTooEarly.Is(err),
		errors.ErrInsufficientFunds.Is(err):
		return http.StatusConflict
	case errors.ErrTransferFailed.Is(err):
		return http.StatusBadGateway
	case errors.ErrInvalidInput.Is(err),
		errors.ErrInvalidMsg.Is(err),
		errors.ErrInvalidAmount.Is(err),
		errors.ErrEmpty.Is(err),
		errors.ErrOverflow.Is(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func trustID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		JSONErr(w, http.StatusBadRequest, "trust id must be an integer.")
		return 0, false
	}
	return id, true
}

func address(w http.ResponseWriter, r *http.Request) (weave.Address, bool) {
	addr, err := weave.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		JSONErr(w, http.StatusBadRequest, "address must be a valid address value.")
		return nil, false
	}
	return addr, true
}
