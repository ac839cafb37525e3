// Package httptransport is the thin JSON layer the game process calls into.
// It decodes requests, builds pre-validated commands, and delegates to the
// dispatcher; no business logic lives here.
package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"stallworks/internal/coinhouse"
	"stallworks/internal/persona"
	"stallworks/internal/stall"
	"stallworks/internal/stall/commands"
	dErrors "stallworks/pkg/domain-errors"
)

type Handler struct {
	dispatcher *commands.Dispatcher
	stalls     stall.Store
	bank       *coinhouse.Service
	logger     *slog.Logger
}

func NewHandler(dispatcher *commands.Dispatcher, stalls stall.Store, bank *coinhouse.Service, logger *slog.Logger) *Handler {
	return &Handler{dispatcher: dispatcher, stalls: stalls, bank: bank, logger: logger}
}

// resultResponse is the uniform command outcome envelope.
type resultResponse struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, cmd commands.Command, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	res := h.dispatcher.Dispatch(r.Context(), cmd)
	status := http.StatusOK
	if !res.OK {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resultResponse{OK: res.OK, Reason: res.Reason})
}

func (h *Handler) handleGetStall(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "stallID")
	if err != nil {
		writeError(w, err)
		return
	}
	s, err := h.stalls.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeNotFound, "stall not found"))
		return
	}
	writeJSON(w, http.StatusOK, s)
}

type claimRequest struct {
	Claimant     string `json:"claimant"`
	DisplayName  string `json:"display_name"`
	LinkAccount  bool   `json:"link_account"`
	HoldEarnings bool   `json:"hold_earnings"`
}

func (h *Handler) handleClaim(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "stallID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req claimRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	claimant, err := parsePersona(req.Claimant)
	if err != nil {
		writeError(w, err)
		return
	}
	cmd, err := commands.NewClaimStall(id, claimant, req.DisplayName, req.LinkAccount, req.HoldEarnings)
	h.dispatch(w, r, cmd, err)
}

type releaseRequest struct {
	Requestor string `json:"requestor"`
}

func (h *Handler) handleRelease(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "stallID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req releaseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	requestor, err := parsePersona(req.Requestor)
	if err != nil {
		writeError(w, err)
		return
	}
	cmd, err := commands.NewReleaseStall(id, requestor)
	h.dispatch(w, r, cmd, err)
}

type addMemberRequest struct {
	Requestor            string `json:"requestor"`
	Member               string `json:"member"`
	DisplayName          string `json:"display_name"`
	CanManageInventory   bool   `json:"can_manage_inventory"`
	CanConfigureSettings bool   `json:"can_configure_settings"`
	CanCollectEarnings   bool   `json:"can_collect_earnings"`
}

func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "stallID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req addMemberRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	requestor, err := parsePersona(req.Requestor)
	if err != nil {
		writeError(w, err)
		return
	}
	member, err := parsePersona(req.Member)
	if err != nil {
		writeError(w, err)
		return
	}
	cmd, err := commands.NewAddMember(id, requestor, member, req.DisplayName,
		req.CanManageInventory, req.CanConfigureSettings, req.CanCollectEarnings)
	h.dispatch(w, r, cmd, err)
}

type removeMemberRequest struct {
	Requestor string `json:"requestor"`
	Member    string `json:"member"`
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "stallID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req removeMemberRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	requestor, err := parsePersona(req.Requestor)
	if err != nil {
		writeError(w, err)
		return
	}
	member, err := parsePersona(req.Member)
	if err != nil {
		writeError(w, err)
		return
	}
	cmd, err := commands.NewRemoveMember(id, requestor, member)
	h.dispatch(w, r, cmd, err)
}

type escrowRequest struct {
	Persona string `json:"persona"`
	Amount  int64  `json:"amount"`
}

func (h *Handler) handleDepositEscrow(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "stallID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req escrowRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := parsePersona(req.Persona)
	if err != nil {
		writeError(w, err)
		return
	}
	cmd, err := commands.NewDepositEscrow(id, p, req.Amount)
	h.dispatch(w, r, cmd, err)
}

func (h *Handler) handleWithdrawEscrow(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "stallID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req escrowRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := parsePersona(req.Persona)
	if err != nil {
		writeError(w, err)
		return
	}
	cmd, err := commands.NewWithdrawEscrow(id, p, req.Amount)
	h.dispatch(w, r, cmd, err)
}

type payRentRequest struct {
	Source string `json:"source"`
}

func (h *Handler) handlePayRent(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "stallID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req payRentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	source := commands.RentSource(req.Source)
	if req.Source == "" {
		source = commands.SourceAuto
	}
	cmd, err := commands.NewPayRent(id, source)
	h.dispatch(w, r, cmd, err)
}

type consignRequest struct {
	Requestor string          `json:"requestor"`
	ItemData  json.RawMessage `json:"item_data"`
	Price     int64           `json:"price"`
	Quantity  int             `json:"quantity"`
}

func (h *Handler) handleConsign(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "stallID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req consignRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := parsePersona(req.Requestor)
	if err != nil {
		writeError(w, err)
		return
	}
	cmd, err := commands.NewConsignProduct(id, p, req.ItemData, req.Price, req.Quantity)
	h.dispatch(w, r, cmd, err)
}

type saleRequest struct {
	Buyer string `json:"buyer"`
}

func (h *Handler) handleSale(w http.ResponseWriter, r *http.Request) {
	stallID, err := pathUUID(r, "stallID")
	if err != nil {
		writeError(w, err)
		return
	}
	productID, err := pathUUID(r, "productID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req saleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	buyer, err := parsePersona(req.Buyer)
	if err != nil {
		writeError(w, err)
		return
	}
	cmd, err := commands.NewRecordSale(stallID, productID, buyer)
	h.dispatch(w, r, cmd, err)
}

type accountRequest struct {
	Persona      string `json:"persona"`
	CoinhouseTag string `json:"coinhouse_tag"`
	Amount       int64  `json:"amount"`
	Memo         string `json:"memo"`
}

func (h *Handler) handleAccountDeposit(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := parsePersona(req.Persona)
	if err != nil {
		writeError(w, err)
		return
	}
	cmd, err := commands.NewDepositAccount(p, req.CoinhouseTag, req.Amount, req.Memo)
	h.dispatch(w, r, cmd, err)
}

func (h *Handler) handleAccountWithdraw(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := parsePersona(req.Persona)
	if err != nil {
		writeError(w, err)
		return
	}
	cmd, err := commands.NewWithdrawAccount(p, req.CoinhouseTag, req.Amount, req.Memo)
	h.dispatch(w, r, cmd, err)
}

func (h *Handler) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	p, err := parsePersona(chi.URLParam(r, "persona"))
	if err != nil {
		writeError(w, err)
		return
	}
	tag := r.URL.Query().Get("coinhouse")
	if tag == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "coinhouse query parameter is required"))
		return
	}
	balance, err := h.bank.BalanceOf(r.Context(), p, tag)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s", key)
	}
	return id, nil
}

func parsePersona(raw string) (persona.ID, error) {
	p, err := persona.Parse(raw)
	if err != nil {
		return persona.ID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid persona")
	}
	return p, nil
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "malformed request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError centralizes domain error translation to HTTP responses so every
// endpoint returns the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"
	if dErrors.IsDomain(err) {
		message = dErrors.MessageOf(err)
		switch {
		case dErrors.HasCode(err, dErrors.CodeInvalidInput):
			status = http.StatusBadRequest
		case dErrors.HasCode(err, dErrors.CodeNotFound):
			status = http.StatusNotFound
		case dErrors.HasCode(err, dErrors.CodeForbidden):
			status = http.StatusForbidden
		case dErrors.HasCode(err, dErrors.CodeConflict):
			status = http.StatusConflict
		case dErrors.HasCode(err, dErrors.CodeInsufficientFunds):
			status = http.StatusUnprocessableEntity
		default:
			status = http.StatusInternalServerError
		}
	}
	writeJSON(w, status, map[string]string{"error": message})
}
