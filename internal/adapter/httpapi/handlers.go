package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ovolkov/bankcards-backend/internal/auth"
	"github.com/ovolkov/bankcards-backend/internal/domain"
	"github.com/ovolkov/bankcards-backend/internal/usecase/card"
	"github.com/ovolkov/bankcards-backend/internal/usecase/transfer"
)

// errBadRequest marks request decoding and validation failures
var errBadRequest = errors.New("bad request")

// Handler binds the HTTP surface to the use-case services
type Handler struct {
	Auth      *auth.Service
	Cards     *card.Service
	Transfers *transfer.Engine
	Log       *logrus.Logger
}

// NewHandler creates a new Handler instance
func NewHandler(authSvc *auth.Service, cardSvc *card.Service, engine *transfer.Engine, log *logrus.Logger) *Handler {
	return &Handler{Auth: authSvc, Cards: cardSvc, Transfers: engine, Log: log}
}

type registerRequest struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("invalid body: %w", errBadRequest))
		return
	}
	if req.Username == "" || req.Password == "" || req.FullName == "" {
		writeError(w, fmt.Errorf("username, fullName and password are required: %w", errBadRequest))
		return
	}

	holder, err := h.Auth.Register(r.Context(), req.Username, req.FullName, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":       holder.ID,
		"username": holder.Username,
		"fullName": holder.FullName,
		"role":     holder.Role,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("invalid body: %w", errBadRequest))
		return
	}

	token, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type createCardRequest struct {
	HolderID uuid.UUID `json:"holderId"`
}

// CreateCard handles POST /api/admin/cards
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("invalid body: %w", errBadRequest))
		return
	}
	if req.HolderID == uuid.Nil {
		writeError(w, fmt.Errorf("holderId is required: %w", errBadRequest))
		return
	}

	view, err := h.Cards.IssueCard(r.Context(), req.HolderID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

// ChangeCardStatus handles PATCH /api/admin/cards/{id}/status
func (h *Handler) ChangeCardStatus(w http.ResponseWriter, r *http.Request) {
	cardID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req changeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("invalid body: %w", errBadRequest))
		return
	}

	target := domain.CardStatusName(req.Status)
	if !target.Valid() {
		writeError(w, fmt.Errorf("unknown card status %q: %w", req.Status, errBadRequest))
		return
	}

	view, err := h.Cards.ChangeStatus(r.Context(), cardID, target)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// DeleteCard handles DELETE /api/admin/cards/{id}
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	cardID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	msg, err := h.Cards.DeleteCard(r.Context(), cardID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// ListAllCards handles GET /api/admin/cards
func (h *Handler) ListAllCards(w http.ResponseWriter, r *http.Request) {
	page, err := h.Cards.ListCards(r.Context(), listQuery(r, ""))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ListMyCards handles GET /api/cards
func (h *Handler) ListMyCards(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	page, err := h.Cards.ListCards(r.Context(), listQuery(r, p.Username))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetCard handles GET /api/cards/{id}
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	cardID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	p, _ := principalFrom(r.Context())
	view, err := h.Cards.GetCard(r.Context(), cardID, p.Username, p.Role == domain.RoleAdmin)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// GetBalance handles GET /api/cards/{id}/balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	cardID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	p, _ := principalFrom(r.Context())
	view, err := h.Cards.GetBalance(r.Context(), cardID, p.Username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// BlockCard handles POST /api/cards/{id}/block
func (h *Handler) BlockCard(w http.ResponseWriter, r *http.Request) {
	cardID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	p, _ := principalFrom(r.Context())
	msg, err := h.Cards.SelfBlock(r.Context(), cardID, p.Username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

type transferRequest struct {
	FromCardID uuid.UUID       `json:"fromCardId"`
	ToCardID   uuid.UUID       `json:"toCardId"`
	Amount     decimal.Decimal `json:"amount"`
}

// Transfer handles POST /api/transfers
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("invalid body: %w", errBadRequest))
		return
	}
	if req.FromCardID == uuid.Nil || req.ToCardID == uuid.Nil {
		writeError(w, fmt.Errorf("fromCardId and toCardId are required: %w", errBadRequest))
		return
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		writeError(w, fmt.Errorf("amount must be positive: %w", errBadRequest))
		return
	}

	p, _ := principalFrom(r.Context())
	result, err := h.Transfers.Transfer(r.Context(), req.FromCardID, req.ToCardID, req.Amount, p.Username)
	if err != nil {
		if result != nil && errors.Is(err, domain.ErrInsufficientBalance) {
			// surface the FAILED entry id alongside the rejection
			writeJSON(w, http.StatusBadRequest, result)
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func pathID(r *http.Request) (uuid.UUID, error) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid card id %q: %w", raw, errBadRequest)
	}
	return id, nil
}

func listQuery(r *http.Request, username string) domain.ListCardsQuery {
	q := domain.ListCardsQuery{
		Username: username,
		Search:   r.URL.Query().Get("search"),
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 {
		size = 10
	}
	if page < 0 {
		page = 0
	}

	q.Limit = size
	q.Offset = page * size
	return q
}
