package notification

import (
	"net/http"

	"quicktable/infras/otel"
	"quicktable/internal/domains/notification/service"
	"quicktable/shared/constant"
	gDto "quicktable/shared/dto"
	"quicktable/transport/http/middleware"
	"quicktable/transport/http/response"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service service.Notification
	auth    middleware.Auth
	otel    otel.Otel
}

func New(service service.Notification, auth middleware.Auth, otel otel.Otel) Handler {
	return Handler{
		service: service,
		auth:    auth,
		otel:    otel,
	}
}

func (handler *Handler) Router(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(handler.auth.Authenticate)

			r.Get("/my", handler.ListMine)
		})
	})
}

// ListMine pages through the caller's notifications, newest first.
func (handler *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ListMine")
	defer scope.End()

	params := gDto.QueryParams{}
	params.FromRequest(r, true)

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	res, err := handler.service.ListByUser(ctx, userID, params)
	if err != nil {
		scope.TraceError(err)

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}
