package handler

import (
	"net/http"
	"strconv"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"marketsync/internal/adapter/api/middleware"
	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/internal/infrastructure/firebase"
	ws "marketsync/internal/infrastructure/websocket"
	"marketsync/internal/usecase"
	"marketsync/pkg/errors"
	"marketsync/pkg/logger"
	"marketsync/pkg/response"
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler exposes the live streams over WebSocket. Each connection
// serves exactly one stream and receives a full snapshot per change.
type WebSocketHandler struct {
	wsManager     *ws.Manager
	catalog       *usecase.CatalogIndex
	chats         *usecase.ChatDirectory
	messages      *usecase.MessageStream
	notifications *usecase.NotificationCenter
	userRepo      repository.UserRepository
	verifier      firebase.TokenVerifier
}

func NewWebSocketHandler(
	wsManager *ws.Manager,
	catalog *usecase.CatalogIndex,
	chats *usecase.ChatDirectory,
	messages *usecase.MessageStream,
	notifications *usecase.NotificationCenter,
	userRepo repository.UserRepository,
	verifier firebase.TokenVerifier,
) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:     wsManager,
		catalog:       catalog,
		chats:         chats,
		messages:      messages,
		notifications: notifications,
		userRepo:      userRepo,
		verifier:      verifier,
	}
}

func (h *WebSocketHandler) upgrade(c echo.Context) (*ws.Client, error) {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("WebSocket: upgrade failed: %v", err)
		return nil, err
	}
	return ws.NewClient(middleware.UID(c), conn), nil
}

// Products streams the catalog for the filters in the query string.
func (h *WebSocketHandler) Products(c echo.Context) error {
	filters, err := productFiltersFromQuery(c)
	if err != nil {
		return response.Error(c, err)
	}
	products, err := h.catalog.ListProducts(c.Request().Context(), filters)
	if err != nil {
		return response.Error(c, err)
	}

	client, err := h.upgrade(c)
	if err != nil {
		products.Cancel()
		return nil
	}
	ws.Serve(h.wsManager, client, "products", products, nil)
	return nil
}

func productFiltersFromQuery(c echo.Context) (usecase.ProductFilters, error) {
	filters := usecase.ProductFilters{
		Category: entity.Category(c.QueryParam("category")),
		SellerID: c.QueryParam("seller_id"),
	}

	parse := func(name string) (*float64, error) {
		raw := c.QueryParam(name)
		if raw == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.Validation(name+" must be a number", err)
		}
		return &v, nil
	}

	var err error
	if filters.MinPrice, err = parse("min_price"); err != nil {
		return filters, err
	}
	if filters.MaxPrice, err = parse("max_price"); err != nil {
		return filters, err
	}

	lat, err := parse("lat")
	if err != nil {
		return filters, err
	}
	lon, err := parse("lon")
	if err != nil {
		return filters, err
	}
	radius, err := parse("radius_km")
	if err != nil {
		return filters, err
	}
	switch {
	case lat == nil && lon == nil && radius == nil:
	case lat != nil && lon != nil && radius != nil:
		filters.Location = &usecase.GeoFilter{Latitude: *lat, Longitude: *lon, RadiusKm: *radius}
	default:
		return filters, errors.Validation("lat, lon and radius_km must be given together", nil)
	}
	return filters, nil
}

// Chats streams the caller's chat list joined with product and counterpart.
func (h *WebSocketHandler) Chats(c echo.Context) error {
	client, err := h.upgrade(c)
	if err != nil {
		return nil
	}
	ws.Serve(h.wsManager, client, "chats", h.chats.ListChatSummaries(c.Request().Context(), client.UserID), nil)
	return nil
}

func (h *WebSocketHandler) Messages(c echo.Context) error {
	chatID, uid := c.Param("id"), middleware.UID(c)
	chat, err := h.chats.GetChat(c.Request().Context(), chatID)
	if err != nil {
		return response.Error(c, err)
	}
	if chat == nil {
		return response.Error(c, errors.NotFound("Chat", nil))
	}
	if !chat.HasParticipant(uid) {
		return response.Error(c, errors.Forbidden("You are not a participant of this chat", nil))
	}

	client, err := h.upgrade(c)
	if err != nil {
		return nil
	}
	ws.Serve(h.wsManager, client, "messages", h.messages.Subscribe(c.Request().Context(), chatID), nil)
	return nil
}

func (h *WebSocketHandler) Notifications(c echo.Context) error {
	client, err := h.upgrade(c)
	if err != nil {
		return nil
	}
	ws.Serve(h.wsManager, client, "notifications", h.notifications.Subscribe(c.Request().Context(), client.UserID), nil)
	return nil
}

func (h *WebSocketHandler) UnreadCount(c echo.Context) error {
	client, err := h.upgrade(c)
	if err != nil {
		return nil
	}
	ws.Serve(h.wsManager, client, "unread_count", h.notifications.UnreadCount(c.Request().Context(), client.UserID), nil)
	return nil
}

// Me streams the signed-in user's profile. The connection starts signed out;
// the client sends sign_in frames carrying a Firebase ID token and sign_out
// frames to end the session.
func (h *WebSocketHandler) Me(c echo.Context) error {
	client, err := h.upgrade(c)
	if err != nil {
		return nil
	}

	session := firebase.NewSessionTracker(h.verifier)
	identity := usecase.NewIdentityStream(session, h.userRepo)

	handle := func(_ *ws.Client, msg ws.WSMessage) error {
		switch msg.Type {
		case ws.MessageTypeSignIn:
			_, err := session.SignIn(c.Request().Context(), msg.Token)
			return err
		case ws.MessageTypeSignOut:
			session.SignOut()
			return nil
		}
		return errors.BadRequest("Unsupported message type "+msg.Type, nil)
	}

	ws.Serve(h.wsManager, client, "me", identity.Current(c.Request().Context()), handle)
	return nil
}
