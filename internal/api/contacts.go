package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/lunar-ledger/internal/database"
	"github.com/zapponejosh/lunar-ledger/internal/ledger"
)

const (
	defaultContactLimit = 50
	maxContactLimit     = 500
)

// ContactRequest is the body of POST and PUT /api/v1/contacts.
// Birthday uses year 0000 when the birth year is unknown.
type ContactRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation"`
	Birthday string `json:"birthday"` // YYYY-MM-DD
	Calendar string `json:"calendar"` // solar (default) or lunar
	IsLeap   bool   `json:"is_leap"`
	Memo     string `json:"memo,omitempty"`
}

// toContact validates the request and maps it onto a contact row.
func (req ContactRequest) toContact() (*database.Contact, error) {
	if req.Birthday == "" {
		return nil, fmt.Errorf("birthday is required")
	}

	b, err := parseBirthday(req.Birthday, req.Calendar, strconv.FormatBool(req.IsLeap))
	if err != nil {
		return nil, err
	}
	return b.Contact(req.Name, req.Phone, req.Relation, req.Memo)
}

// ContactResponse is a contact together with its next birthday.
type ContactResponse struct {
	database.Contact
	NextBirthday *ledger.Occurrence `json:"next_birthday,omitempty"`
}

// ContactListResponse is returned by GET /api/v1/contacts.
type ContactListResponse struct {
	Contacts []database.Contact `json:"contacts"`
	Total    int                `json:"total"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

// ListContacts handles GET /api/v1/contacts?limit=N&offset=M
func (h *Handlers) ListContacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultContactLimit
	if r.URL.Query().Get("limit") != "" {
		var err error
		limit, err = parseIntParam(r, "limit", 1, maxContactLimit)
		if err != nil {
			WriteBadRequest(w, err.Error())
			return
		}
	}

	offset := 0
	if r.URL.Query().Get("offset") != "" {
		var err error
		offset, err = parseIntParam(r, "offset", 0, math.MaxInt32)
		if err != nil {
			WriteBadRequest(w, err.Error())
			return
		}
	}

	contacts, err := h.db.ListContacts(ctx, limit, offset)
	if err != nil {
		h.logger.Error("failed to list contacts", slog.Any("error", err))
		WriteInternalError(w, "Failed to retrieve contacts")
		return
	}

	total, err := h.db.CountContacts(ctx)
	if err != nil {
		h.logger.Error("failed to count contacts", slog.Any("error", err))
		WriteInternalError(w, "Failed to retrieve contacts")
		return
	}

	WriteSuccess(w, ContactListResponse{
		Contacts: contacts,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}

// CreateContact handles POST /api/v1/contacts
func (h *Handlers) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}

	c, err := req.toContact()
	if err != nil {
		writeContactInputError(w, err)
		return
	}

	if err := h.db.CreateContact(r.Context(), c); err != nil {
		h.writeStoreError(w, err, "create contact")
		return
	}

	h.logger.Info("contact created",
		slog.Int64("contact_id", c.ID),
		slog.String("calendar", string(c.BirthCalendar)))

	WriteCreated(w, h.contactResponse(*c))
}

// GetContact handles GET /api/v1/contacts/{id}
func (h *Handlers) GetContact(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(w, r)
	if !ok {
		return
	}

	c, err := h.db.GetContact(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "get contact")
		return
	}

	WriteSuccess(w, h.contactResponse(*c))
}

// UpdateContact handles PUT /api/v1/contacts/{id}
func (h *Handlers) UpdateContact(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(w, r)
	if !ok {
		return
	}

	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}

	c, err := req.toContact()
	if err != nil {
		writeContactInputError(w, err)
		return
	}
	c.ID = id

	if err := h.db.UpdateContact(r.Context(), c); err != nil {
		h.writeStoreError(w, err, "update contact")
		return
	}

	// Re-read for the stored created_at.
	updated, err := h.db.GetContact(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "get contact")
		return
	}

	WriteSuccess(w, h.contactResponse(*updated))
}

// DeleteContact handles DELETE /api/v1/contacts/{id}
func (h *Handlers) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(w, r)
	if !ok {
		return
	}

	if err := h.db.DeleteContact(r.Context(), id); err != nil {
		h.writeStoreError(w, err, "delete contact")
		return
	}

	h.logger.Info("contact deleted", slog.Int64("contact_id", id))

	WriteSuccess(w, map[string]interface{}{
		"deleted": true,
		"id":      id,
	})
}

// UpcomingResponse is returned by GET /api/v1/contacts/upcoming.
type UpcomingResponse struct {
	Today      string                    `json:"today"`
	WindowDays int                       `json:"window_days"`
	Birthdays  []ledger.UpcomingBirthday `json:"birthdays"`
}

// GetUpcomingBirthdays handles GET /api/v1/contacts/upcoming?days=N
func (h *Handlers) GetUpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	days := h.cfg.UpcomingWindowDays
	if r.URL.Query().Get("days") != "" {
		var err error
		days, err = parseIntParam(r, "days", 0, 366)
		if err != nil {
			WriteBadRequest(w, err.Error())
			return
		}
	}

	today := h.now()
	upcoming, err := h.birthday.Upcoming(r.Context(), today, days)
	if err != nil {
		h.logger.Error("failed to resolve upcoming birthdays", slog.Any("error", err))
		WriteInternalError(w, "Failed to retrieve upcoming birthdays")
		return
	}

	WriteSuccess(w, UpcomingResponse{
		Today:      today.Format("2006-01-02"),
		WindowDays: days,
		Birthdays:  upcoming,
	})
}

// contactResponse attaches the next birthday. A birthday that cannot be
// resolved is logged and left out rather than failing the request.
func (h *Handlers) contactResponse(c database.Contact) ContactResponse {
	resp := ContactResponse{Contact: c}

	occ, err := ledger.NextBirthday(h.now(), ledger.FromContact(c))
	if err != nil {
		h.logger.Warn("next birthday unavailable",
			slog.Int64("contact_id", c.ID),
			slog.Any("error", err))
		return resp
	}

	resp.NextBirthday = &occ
	return resp
}

// contactID parses the {id} path parameter, writing a 400 on failure.
func contactID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id < 1 {
		WriteBadRequest(w, fmt.Sprintf("Invalid contact id: %s", idStr))
		return 0, false
	}
	return id, true
}

func writeContactInputError(w http.ResponseWriter, err error) {
	if errors.Is(err, ledger.ErrInvalidBirthday) {
		WriteError(w, http.StatusBadRequest, err.Error(), CodeInvalidBirthday)
		return
	}
	WriteBadRequest(w, err.Error())
}

func (h *Handlers) writeStoreError(w http.ResponseWriter, err error, op string) {
	switch {
	case database.IsNotFound(err):
		WriteNotFound(w, "Contact not found")
	case errors.Is(err, database.ErrDuplicate):
		WriteError(w, http.StatusConflict, "A contact with this name and phone already exists", CodeDuplicate)
	default:
		h.logger.Error("contact store failure", slog.String("op", op), slog.Any("error", err))
		WriteInternalError(w, "Failed to "+op)
	}
}
