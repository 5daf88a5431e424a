package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"yallapost/internal/core"
	"yallapost/internal/flows"
	"yallapost/internal/query"
	"yallapost/internal/validation"
	"yallapost/pkg/yalla"
)

const confirmParam = "confirm"

type notificationsKey struct{}

type notificationLog struct {
	mu   sync.Mutex
	list []Notification
}

// Notification is a flow notification as rendered in responses.
type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func withNotifications(ctx context.Context) context.Context {
	return context.WithValue(ctx, notificationsKey{}, &notificationLog{})
}

func notifications(ctx context.Context) []Notification {
	l, ok := ctx.Value(notificationsKey{}).(*notificationLog)
	if !ok {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]Notification(nil), l.list...)
}

// Notifier attaches notifications to the response of the request that
// caused them and logs the ones raised outside of a request.
type Notifier struct {
	Logger *slog.Logger
}

func (n Notifier) Notify(ctx context.Context, notification core.Notification) {
	l, ok := ctx.Value(notificationsKey{}).(*notificationLog)
	if !ok {
		core.LogNotifier{Logger: n.Logger}.Notify(ctx, notification)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.list = append(l.list, Notification{Level: notification.Level.String(), Message: notification.Message})
}

type confirmKey struct{}

// Confirmer answers with the confirm query parameter of the request.
type Confirmer struct{}

func (Confirmer) Confirm(ctx context.Context, _ string) (bool, error) {
	confirmed, _ := ctx.Value(confirmKey{}).(bool)
	return confirmed, nil
}

func withConfirmation(r *http.Request) context.Context {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get(confirmParam))
	return context.WithValue(r.Context(), confirmKey{}, confirmed)
}

type response struct {
	Data          any               `json:"data,omitempty"`
	Location      string            `json:"location,omitempty"`
	Error         string            `json:"error,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
	Notifications []Notification    `json:"notifications,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body response) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

func (s *Server) ok(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSON(w, status, response{
		Data:          data,
		Location:      s.App.Navigator.Current().Path,
		Notifications: notifications(r.Context()),
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	body := response{Error: err.Error(), Notifications: notifications(r.Context())}

	var fields validation.FieldErrors
	var failure *flows.Failure
	switch {
	case errors.As(err, &fields):
		body.Error = validation.ErrValidation.Error()
		body.Fields = make(map[string]string, len(fields))
		for _, fe := range fields {
			body.Fields[fe.Field] = fe.Message
		}
	case errors.As(err, &failure):
		body.Error = failure.Message
	}

	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		requestLogger(r.Context()).Error("request failed", "error", err)
	}
	writeJSON(w, status, body)
}

func errorStatus(err error) int {
	var apiErr *yalla.APIError

	switch {
	case errors.Is(err, validation.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrPending):
		return http.StatusConflict
	case errors.Is(err, core.ErrCancelled):
		return http.StatusPreconditionRequired
	case errors.Is(err, core.ErrNotAuthenticated), errors.Is(err, yalla.ErrUnauthorized), errors.Is(err, query.ErrDisabled):
		return http.StatusUnauthorized
	case errors.Is(err, yalla.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, yalla.ErrTransport):
		return http.StatusBadGateway
	case errors.As(err, &apiErr) && apiErr.Status >= http.StatusBadRequest:
		return apiErr.Status
	case errors.Is(err, yalla.ErrApplication):
		return http.StatusBadGateway
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
