package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"zalonotify/pkg/dispatch"
	"zalonotify/pkg/metrics"
	"zalonotify/pkg/notify"
	"zalonotify/pkg/order"
)

// orderEvent is the body of POST <order_events_path>.
type orderEvent struct {
	From  string          `json:"from"`
	To    string          `json:"to"`
	Order json.RawMessage `json:"order"`
}

type orderEventData struct {
	Message  string             `json:"message"`
	BatchID  string             `json:"batch_id,omitempty"`
	Sent     int                `json:"success_count"`
	Failures []dispatch.Failure `json:"failures,omitempty"`
	Notes    []string           `json:"notes,omitempty"`
}

type orderEventResponse struct {
	Success bool           `json:"success"`
	Data    orderEventData `json:"data"`
}

// handleOrderEvent accepts a status transition pushed by the storefront,
// authenticated with the same shared secret as the webhook.
func (s *Service) handleOrderEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.respondOrder(w, http.StatusMethodNotAllowed, orderEventResponse{Data: orderEventData{Message: http.StatusText(http.StatusMethodNotAllowed)}})
		return
	}

	settings := s.store.Settings()
	if !validSecret(r.URL.Query().Get("token"), settings.SecretToken) {
		s.metrics.ObserveOrderEvent(metrics.OrderRejected)
		s.respondOrder(w, http.StatusForbidden, orderEventResponse{Data: orderEventData{Message: "Invalid Token"}})
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		s.metrics.ObserveOrderEvent(metrics.OrderRejected)
		s.respondOrder(w, http.StatusRequestEntityTooLarge, orderEventResponse{Data: orderEventData{Message: "Payload Too Large"}})
		return
	}

	var event orderEvent
	if err := json.Unmarshal(raw, &event); err != nil || len(event.Order) == 0 || string(event.Order) == "null" {
		s.metrics.ObserveOrderEvent(metrics.OrderRejected)
		s.respondOrder(w, http.StatusBadRequest, orderEventResponse{Data: orderEventData{Message: "Invalid Order Event"}})
		return
	}

	doc, err := order.Decode(event.Order)
	if err != nil {
		s.metrics.ObserveOrderEvent(metrics.OrderRejected)
		s.respondOrder(w, http.StatusBadRequest, orderEventResponse{Data: orderEventData{Message: "Invalid Order Event"}})
		return
	}

	to := event.To
	if to == "" {
		to = doc.Status()
	}

	log := s.log.With("order", doc.Number(), "from", event.From, "to", to)
	result, err := s.notifier.HandleStatusChange(r.Context(), settings, doc, event.From, to)
	switch {
	case errors.Is(err, notify.ErrStatusDisabled), errors.Is(err, notify.ErrNotConfigured):
		s.metrics.ObserveOrderEvent(metrics.OrderSkipped)
		log.Info("Order event skipped", "reason", err)
		s.respondOrder(w, http.StatusOK, orderEventResponse{Success: true, Data: orderEventData{Message: "Skipped: " + err.Error()}})
		return
	case err != nil:
		s.metrics.ObserveOrderEvent(metrics.OrderFailed)
		log.Error("Order notification failed", "error", err)
		s.respondOrder(w, http.StatusBadGateway, orderEventResponse{Data: orderEventData{Message: err.Error()}})
		return
	}

	s.metrics.ObserveOrderEvent(metrics.OrderNotified)
	s.respondOrder(w, http.StatusOK, orderEventResponse{
		Success: result.OK(),
		Data: orderEventData{
			Message:  result.AuditNote(),
			BatchID:  result.BatchID,
			Sent:     result.SuccessCount,
			Failures: result.Failures,
			Notes:    doc.Notes(),
		},
	})
}

func (s *Service) respondOrder(w http.ResponseWriter, status int, payload orderEventResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write order event response", "error", err)
	}
}

func validSecret(provided, stored string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(stored)) == 1
}
