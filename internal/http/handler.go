package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/emersion/go-ical"
	"go.uber.org/zap"

	"gitea.jw6.us/james/calconv/internal/convert"
	httperrors "gitea.jw6.us/james/calconv/internal/http/errors"
)

// ConvertHandler accepts an iCalendar payload, runs every component in it
// through the conversion engine against one collection, and reports the
// per-component outcome.
type ConvertHandler struct {
	conv *convert.Converter
	log  *zap.Logger
}

func NewConvertHandler(conv *convert.Converter, log *zap.Logger) *ConvertHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ConvertHandler{conv: conv, log: log}
}

type componentResult struct {
	Component    string   `json:"component"`
	UID          string   `json:"uid,omitempty"`
	RecurrenceID string   `json:"recurrenceId,omitempty"`
	Status       string   `json:"status"`
	New          bool     `json:"new,omitempty"`
	Changed      []string `json:"changed,omitempty"`
	Error        string   `json:"error,omitempty"`
	ErrorCode    string   `json:"errorCode,omitempty"`
}

type convertResponse struct {
	Collection       string              `json:"collection"`
	Results          []componentResult   `json:"results"`
	RemovedOverrides map[string][]string `json:"removedOverrides,omitempty"`
}

// Convert handles POST /convert. The target collection comes from the
// "collection" query parameter; "mergeAttendees" switches the attendee
// merge into the attendee-update mode where only the caller's own record
// is accepted.
func (h *ConvertHandler) Convert(w http.ResponseWriter, r *http.Request) {
	colPath := strings.TrimSpace(r.URL.Query().Get("collection"))
	if colPath == "" {
		httperrors.BadRequestError(w, r, errors.New("missing collection"), "collection query parameter is required")
		return
	}
	mergeAttendees := r.URL.Query().Get("mergeAttendees") == "true"

	cal, err := ical.NewDecoder(io.LimitReader(r.Body, maxPayloadBytes)).Decode()
	if err != nil {
		httperrors.BadRequestError(w, r, err, "unparseable icalendar payload")
		return
	}

	batch := &convert.Batch{ColPath: colPath}
	if prop := cal.Props.Get("METHOD"); prop != nil {
		batch.Method = strings.ToUpper(strings.TrimSpace(prop.Value))
	}

	resp := convertResponse{Collection: colPath}
	for _, comp := range cal.Children {
		if comp.Name == ical.CompTimezone {
			continue
		}

		cres := componentResult{Component: comp.Name}
		if prop := comp.Props.Get(ical.PropUID); prop != nil {
			cres.UID = strings.TrimSpace(prop.Value)
		}
		if prop := comp.Props.Get(ical.PropRecurrenceID); prop != nil {
			cres.RecurrenceID = strings.TrimSpace(prop.Value)
		}

		res, err := h.conv.Convert(r.Context(), batch, comp, mergeAttendees)
		if err != nil {
			var ce *convert.Error
			if errors.As(err, &ce) {
				cres.Status = "rejected"
				cres.Error = ce.Message
				cres.ErrorCode = string(ce.Code)
				resp.Results = append(resp.Results, cres)
				continue
			}
			httperrors.InternalError(w, r, err, "conversion failed")
			return
		}

		switch res.Status {
		case convert.StatusNotFound:
			cres.Status = "not_found"
		default:
			cres.Status = "ok"
		}
		cres.New = res.New
		for _, idx := range res.Changes.Changed() {
			cres.Changed = append(cres.Changed, idx.String())
		}
		resp.Results = append(resp.Results, cres)
	}

	resp.RemovedOverrides = h.conv.FinishBatch(batch)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		httperrors.LogError(r, "encode response", err)
	}
}

// maxPayloadBytes caps a single conversion payload at 10 MiB.
const maxPayloadBytes = 10 << 20
