package handlers_test

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/truthlens/truthlens-api/api"
	"github.com/truthlens/truthlens-api/api/handlers"
	"github.com/truthlens/truthlens-api/databases/mocks"
	"github.com/truthlens/truthlens-api/models"
)

// wsAuthHeader carries the signIn credential on a websocket dial
func wsAuthHeader() http.Header {
	cred := base64.StdEncoding.EncodeToString([]byte("caller@example.com:correct-horse"))
	return http.Header{"Authorization": {"Basic " + cred}}
}

func TestChatHistory_Unauthenticated(t *testing.T) {
	api.MiddlewareDB{DB: &mocks.UserDatabase{}}.SetupGoGuardian()
	h := handlers.SupportChat{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/support/history", nil)
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.ChatHistoryHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestChatHistory_ReturnsOnlyCallersConversation(t *testing.T) {
	_, userID, authed := signIn(t, models.TierFree)

	msgDB := &mocks.SupportMessageDatabase{}
	msgDB.On("Find", mock.Anything, mock.MatchedBy(func(filter interface{}) bool {
		m, ok := filter.(bson.M)
		return ok && m["userId"] == userID.Hex()
	}), mock.Anything).Return([]models.SupportMessage{
		{UserID: userID.Hex(), Sender: "user", Body: "hello"},
		{UserID: userID.Hex(), Sender: "agent", Body: "hi there"},
	}, nil)

	h := handlers.SupportChat{DB: msgDB}

	// The query userId names someone else; the filter must ignore it
	req := httptest.NewRequest(http.MethodGet, "/api/v1/support/history?userId=somebody-else", nil)
	authed(req)
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.ChatHistoryHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "hi there")
	msgDB.AssertExpectations(t)
}

func TestServeWS_PersistsAndEchoesMessages(t *testing.T) {
	_, userID, _ := signIn(t, models.TierFree)

	msgDB := &mocks.SupportMessageDatabase{}
	persisted := make(chan models.SupportMessage, 1)
	msgDB.On("InsertOne", mock.Anything, mock.MatchedBy(func(msg models.SupportMessage) bool {
		select {
		case persisted <- msg:
		default:
		}
		return true
	})).Return(nil, nil)

	h := handlers.SupportChat{DB: msgDB, Hub: handlers.NewChatHub()}

	server := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, wsAuthHeader())
	assert.NoError(t, err)
	defer conn.Close()

	err = conn.WriteJSON(map[string]string{"sender": "user", "body": "is this additive safe?"})
	assert.NoError(t, err)

	// The message comes back to the sender's own room
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var echoed models.SupportMessage
	assert.NoError(t, conn.ReadJSON(&echoed))
	assert.Equal(t, userID.Hex(), echoed.UserID)
	assert.Equal(t, "user", echoed.Sender)
	assert.Equal(t, "is this additive safe?", echoed.Body)

	select {
	case msg := <-persisted:
		assert.Equal(t, "is this additive safe?", msg.Body)
	case <-time.After(2 * time.Second):
		t.Fatal("message was never persisted")
	}
}

func TestServeWS_NormalizesUnknownSender(t *testing.T) {
	signIn(t, models.TierFree)

	msgDB := &mocks.SupportMessageDatabase{}
	msgDB.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)

	h := handlers.SupportChat{DB: msgDB, Hub: handlers.NewChatHub()}

	server := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, wsAuthHeader())
	assert.NoError(t, err)
	defer conn.Close()

	assert.NoError(t, conn.WriteJSON(map[string]string{"sender": "administrator", "body": "hello"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var echoed models.SupportMessage
	assert.NoError(t, conn.ReadJSON(&echoed))
	assert.Equal(t, "user", echoed.Sender)
}

func TestServeWS_RequiresCredential(t *testing.T) {
	api.MiddlewareDB{DB: &mocks.UserDatabase{}}.SetupGoGuardian()
	h := handlers.SupportChat{Hub: handlers.NewChatHub()}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/support/chat", nil)
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.ServeWS).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
