package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ovachat/relay"
	"github.com/ovachat/relay/auth"
	"github.com/ovachat/relay/config"
	"github.com/ovachat/relay/directory"
	"github.com/ovachat/relay/event"
	"github.com/ovachat/relay/metrics"
	"github.com/ovachat/relay/ratelimit"
	"github.com/ovachat/relay/signaling"
)

// Server exposes the relay core over websocket and HTTP.
type Server struct {
	core     *relay.Core
	users    directory.UserStore
	cfg      config.Config
	limiter  *ratelimit.MapLimiter
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
}

// NewServer creates a gateway over the given core and user store.
func NewServer(core *relay.Core, users directory.UserStore, cfg config.Config, m *metrics.Metrics) *Server {
	return &Server{
		core:    core,
		users:   users,
		cfg:     cfg,
		limiter: ratelimit.New(cfg.RateLimit.EventsPerSecond, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL),
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect from the product's own origin; the
			// deployment fronts this with its own origin policy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Router returns the HTTP routes of the gateway.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	return r
}

// Run serves the gateway until the listener fails.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.Router(),
		ReadTimeout:  0, // websocket sessions are long-lived
		WriteTimeout: 0,
	}

	logrus.WithFields(logrus.Fields{
		"function": "Run",
		"addr":     s.cfg.ListenAddr,
	}).Info("Gateway listening")

	return srv.ListenAndServe()
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nickname string `json:"nickname,omitempty"`
}

type apiResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	User    *directory.Profile `json:"user,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Message: "malformed request body"})
		return
	}

	user, err := s.core.Accounts().Register(req.Username, req.Password, req.Nickname)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingCredentials):
			writeJSON(w, http.StatusBadRequest, apiResponse{Message: err.Error()})
		case errors.Is(err, directory.ErrUsernameTaken):
			writeJSON(w, http.StatusConflict, apiResponse{Message: "username already taken"})
		default:
			logrus.WithFields(logrus.Fields{
				"function": "handleRegister",
				"error":    err,
			}).Error("Registration failed")
			writeJSON(w, http.StatusInternalServerError, apiResponse{Message: "registration failed"})
		}
		return
	}

	profile := user.Profile()
	writeJSON(w, http.StatusCreated, apiResponse{Success: true, User: &profile})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Message: "malformed request body"})
		return
	}

	user, err := s.core.Accounts().Login(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrMissingCredentials):
			writeJSON(w, http.StatusUnauthorized, apiResponse{Message: "invalid username or password"})
		default:
			logrus.WithFields(logrus.Fields{
				"function": "handleLogin",
				"error":    err,
			}).Error("Login failed")
			writeJSON(w, http.StatusInternalServerError, apiResponse{Message: "login failed"})
		}
		return
	}

	profile := user.Profile()
	writeJSON(w, http.StatusOK, apiResponse{Success: true, User: &profile})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleWS upgrades the connection and runs the session: the first
// envelope must be an attach naming a registered identity, after which
// inbound events are dispatched to the core until the transport closes.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "handleWS",
			"error":    err,
		}).Debug("Upgrade failed")
		return
	}

	c := newClient(conn, s.cfg.SendBuffer, s.cfg.WriteTimeout, s.cfg.PingInterval, s.metrics)
	go c.writePump()

	userID, ok := s.awaitAttach(conn, c)
	if !ok {
		c.Close()
		return
	}

	s.core.Attach(userID, c)
	s.metrics.SessionsOnline.Set(float64(s.core.Registry().OnlineCount()))

	s.readLoop(conn, c, userID)

	s.core.DetachHandle(userID, c.ID())
	c.Close()
	s.metrics.SessionsOnline.Set(float64(s.core.Registry().OnlineCount()))
	s.metrics.CallsActive.Set(float64(s.core.Calls().ActiveCalls()))
}

// awaitAttach reads envelopes until a valid attach arrives. Any other
// event first is answered with an error event.
func (s *Server) awaitAttach(conn *websocket.Conn, c *client) (int64, bool) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return 0, false
		}

		env, err := event.ParseEnvelope(raw)
		if err != nil {
			c.Deliver(&event.Error{Message: err.Error()})
			continue
		}

		ev, err := event.DecodeClient(env)
		if err != nil {
			c.Deliver(&event.Error{Message: err.Error()})
			continue
		}

		attach, ok := ev.(*event.Attach)
		if !ok {
			c.Deliver(&event.Error{Message: "session is not attached yet"})
			continue
		}

		if _, err := s.users.UserByID(attach.UserID); err != nil {
			c.Deliver(&event.Error{Message: "unknown user identity"})
			return 0, false
		}
		return attach.UserID, true
	}
}

func (s *Server) readLoop(conn *websocket.Conn, c *client, userID int64) {
	limiterKey := strconv.FormatInt(userID, 10)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.WithFields(logrus.Fields{
					"function": "readLoop",
					"user_id":  userID,
					"error":    err,
				}).Debug("Session read failed")
			}
			return
		}

		if !s.limiter.Allow(limiterKey, time.Now()) {
			c.Deliver(&event.Error{Message: "too many events, slow down"})
			continue
		}

		env, err := event.ParseEnvelope(raw)
		if err != nil {
			c.Deliver(&event.Error{Message: err.Error()})
			continue
		}
		s.metrics.EventsReceived.WithLabelValues(env.Event).Inc()

		ev, err := event.DecodeClient(env)
		if err != nil {
			c.Deliver(&event.Error{Message: err.Error()})
			continue
		}

		if _, isAttach := ev.(*event.Attach); isAttach {
			c.Deliver(&event.Error{Message: "session already attached"})
			continue
		}

		s.dispatch(c, userID, ev)
	}
}

// dispatch runs one event through the core and translates failures into
// events for the initiating session only.
func (s *Server) dispatch(c *client, userID int64, ev event.Event) {
	err := s.core.HandleEvent(userID, ev)
	if err == nil {
		switch ev.(type) {
		case *event.SendMessage:
			s.metrics.MessagesRelayed.Inc()
		case *event.CallUser, *event.EndCall:
			s.metrics.CallsActive.Set(float64(s.core.Calls().ActiveCalls()))
		}
		return
	}

	// A failed call initiation has its own client-facing surface.
	if _, isCall := ev.(*event.CallUser); isCall && errors.Is(err, signaling.ErrPeerUnreachable) {
		c.Deliver(&event.CallFailed{Reason: "user is currently offline"})
		return
	}

	logrus.WithFields(logrus.Fields{
		"function": "dispatch",
		"user_id":  userID,
		"event":    ev.EventName(),
		"error":    err,
	}).Debug("Event failed")

	c.Deliver(&event.Error{Message: err.Error()})
}
