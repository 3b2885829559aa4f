package realtime

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"echochat/internal/chat/service"
	"echochat/internal/common"
)

// API is the polling read path. The socket push is only a hint; clients
// re-read conversations from here on a fixed interval, which is what makes
// a missed push harmless.
type API struct {
	messages service.MessageService
	log      *logrus.Logger
}

func NewAPI(messages service.MessageService, log *logrus.Logger) *API {
	return &API{messages: messages, log: log}
}

// ListConversations returns one summary per partner: latest message plus
// unread count, newest first.
func (a *API) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	summaries, err := a.messages.ListConversations(r.Context(), userID)
	if err != nil {
		a.log.WithField("user_id", userID).WithError(err).Error("failed to list conversations")
		http.Error(w, "failed to list conversations", http.StatusInternalServerError)
		return
	}

	writeJSON(w, summaries)
}

// ConversationHistory returns the full ordered history with one partner
// and marks that partner's messages read.
func (a *API) ConversationHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	partnerID, err := strconv.ParseUint(mux.Vars(r)["partnerID"], 10, 64)
	if err != nil || partnerID == 0 {
		http.Error(w, "invalid partner id", http.StatusBadRequest)
		return
	}

	messages, err := a.messages.ListConversation(r.Context(), userID, partnerID)
	if err != nil {
		a.log.WithFields(logrus.Fields{
			"user_id":    userID,
			"partner_id": partnerID,
		}).WithError(err).Error("failed to fetch conversation")
		http.Error(w, "failed to fetch conversation", http.StatusInternalServerError)
		return
	}

	writeJSON(w, messages)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// NewRouter mounts the websocket endpoint and the authenticated polling
// API. The websocket handshake does its own credential check, so only the
// API subrouter carries the middleware.
func NewRouter(gateway *Gateway, api *API, auth mux.MiddlewareFunc) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", gateway.ServeWS)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(auth)
	apiRouter.HandleFunc("/conversations", api.ListConversations).Methods(http.MethodGet)
	apiRouter.HandleFunc("/conversations/{partnerID}/messages", api.ConversationHistory).Methods(http.MethodGet)

	return r
}
