package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/ride-hail/internal/auth"
	"github.com/example/ride-hail/internal/cache"
	"github.com/example/ride-hail/internal/config"
	"github.com/example/ride-hail/internal/dispatch"
	"github.com/example/ride-hail/internal/eta"
	"github.com/example/ride-hail/internal/ingest"
	"github.com/example/ride-hail/internal/location"
	"github.com/example/ride-hail/internal/models"
	"github.com/example/ride-hail/internal/payments"
	"github.com/example/ride-hail/internal/ride"
	"github.com/example/ride-hail/internal/service"
	"github.com/example/ride-hail/internal/storage"
	"github.com/example/ride-hail/internal/token"
)

type Server struct {
	cfg    config.ServerConfig
	logger *slog.Logger

	rides     *service.RideService
	auth      *auth.Service
	tokens    *token.Service
	locations *location.Store
	wsreg     *dispatch.WSRegistry

	mux *mux.Router
}

// NewServer wires the full service from configuration. Redis and Postgres
// fall back to in-memory implementations when unconfigured so the binary
// runs locally without infrastructure; Kafka, Stripe and OSRM stay off
// unless configured.
func NewServer(cfg config.ServerConfig, logger *slog.Logger) (*Server, error) {
	var kv cache.Store
	if cfg.RedisAddr != "" {
		kv = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	} else {
		kv = cache.NewMemory()
	}

	var (
		rideStore storage.RideStore
		userStore storage.UserStore
	)
	if cfg.PGDSN != "" {
		ps, err := storage.NewPostgresStore(cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		rideStore, userStore = ps, ps
	} else {
		ms := storage.NewMemoryStore()
		rideStore, userStore = ms, ms
	}

	tokens := token.NewService(cfg.JWTSecret, cfg.TokenTTL)
	locations := location.NewStore(kv, cfg.LocationTTL)
	wsreg := dispatch.NewWSRegistry()

	svc := &service.RideService{
		Machine:         ride.NewMachine(rideStore, logger),
		Locations:       locations,
		Logger:          logger,
		Notifier:        wsreg,
		Currency:        cfg.Currency,
		DefaultSpeedMps: cfg.DefaultSpeedMps,
	}
	if len(cfg.KafkaBrokers) > 0 {
		svc.Publisher = ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	if cfg.StripeAPIKey != "" {
		svc.Charger = payments.NewStripeCharger(cfg.StripeAPIKey)
	}
	if cfg.OSRMEndpoint != "" {
		svc.ETAClient = eta.NewOSRMClient(cfg.OSRMEndpoint)
		svc.ETACache = eta.NewCache(5 * time.Minute)
	}

	authSvc := auth.NewService(userStore, kv, tokens, &dispatch.LogSMS{Logger: logger}, cfg.OTPTTL, logger)

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		rides:     svc,
		auth:      authSvc,
		tokens:    tokens,
		locations: locations,
		wsreg:     wsreg,
		mux:       mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("/riders/create", s.handleRegister(models.RoleRider)).Methods("POST")
	s.mux.HandleFunc("/drivers/create", s.handleRegister(models.RoleDriver)).Methods("POST")
	s.mux.HandleFunc("/riders/login", s.handleLogin(models.RoleRider)).Methods("POST")
	s.mux.HandleFunc("/drivers/login", s.handleLogin(models.RoleDriver)).Methods("POST")
	s.mux.HandleFunc("/riders/verify", s.handleVerify(models.RoleRider)).Methods("POST")
	s.mux.HandleFunc("/drivers/verify", s.handleVerify(models.RoleDriver)).Methods("POST")

	s.mux.HandleFunc("/drivers/location", s.requireRole(models.RoleDriver, s.handlePingLocation)).Methods("POST")
	s.mux.HandleFunc("/drivers/location/all", s.handleActiveDrivers).Methods("GET")
	s.mux.HandleFunc("/drivers/location/{id}", s.handleGetLocation).Methods("GET")

	s.mux.HandleFunc("/rides", s.requireRole(models.RoleRider, s.handleRequestRide)).Methods("POST")
	s.mux.HandleFunc("/rides/nearest-driver", s.requireRole(models.RoleRider, s.handleNearestDriver)).Methods("GET")
	s.mux.HandleFunc("/rides/{id}/status", s.requireRole(models.RoleDriver, s.handleUpdateStatus)).Methods("PATCH")

	s.mux.HandleFunc("/ws/{driver_id}", s.handleWS)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) handleRegister(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name  string `json:"name"`
			Phone string `json:"phone"`
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		u, err := s.auth.Register(r.Context(), role, req.Name, req.Phone, req.Email)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}

func (s *Server) handleLogin(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Phone string `json:"phone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phone == "" {
			writeError(w, http.StatusBadRequest, "Phone not found")
			return
		}
		if err := s.auth.Login(r.Context(), role, req.Phone); err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent successfully"})
	}
}

func (s *Server) handleVerify(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Phone string `json:"phone"`
			OTP   string `json:"otp"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phone == "" || req.OTP == "" {
			writeError(w, http.StatusBadRequest, "Phone or OTP missing")
			return
		}
		tok, _, err := s.auth.VerifyOTP(r.Context(), role, req.Phone, req.OTP)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": tok})
	}
}

func (s *Server) handlePingLocation(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	var req struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeError(w, http.StatusBadRequest, "Latitude or Longitude not found")
		return
	}
	loc := models.LiveLocation{Latitude: *req.Latitude, Longitude: *req.Longitude, Phone: claims.Phone}
	if err := s.rides.PingLocation(r.Context(), claims.UserID, loc); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "Location updated"})
}

func (s *Server) handleActiveDrivers(w http.ResponseWriter, r *http.Request) {
	ids, err := s.locations.ActiveDriverIDs(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid driver id")
		return
	}
	loc, err := s.locations.Get(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handleRequestRide(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	var req models.RideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.RiderID = claims.UserID
	created, err := s.rides.RequestRide(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	rideID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ride id")
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := s.rides.UpdateRideStatus(r.Context(), rideID, ride.Status(req.Status), claims.UserID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleNearestDriver(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		writeError(w, http.StatusBadRequest, "Latitude or Longitude not found")
		return
	}
	near, err := s.rides.FindNearestDriver(r.Context(), models.Coord{Lat: lat, Lon: lon})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, near)
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["driver_id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid driver id")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	s.wsreg.Add(id, conn)
}

// writeDomainError maps domain sentinels to HTTP responses in one place
// so handlers never hand-roll status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ride.ErrInvalidLocation):
		writeError(w, http.StatusBadRequest, "Latitude or Longitude not found")
	case errors.Is(err, ride.ErrUnknownStatus):
		writeError(w, http.StatusBadRequest, "Invalid Ride Status")
	case errors.Is(err, ride.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, "Invalid Ride Status")
	case errors.Is(err, ride.ErrUnmodifiedStatus):
		writeError(w, http.StatusConflict, "Unmodified Ride Status")
	case errors.Is(err, ride.ErrRideNotFound):
		writeError(w, http.StatusNotFound, "Ride not found")
	case errors.Is(err, storage.ErrPhoneTaken):
		writeError(w, http.StatusConflict, "Phone number already registered")
	case errors.Is(err, storage.ErrEmailTaken):
		writeError(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, auth.ErrNotRegistered):
		writeError(w, http.StatusUnauthorized, "Not registered")
	case errors.Is(err, auth.ErrInvalidOTP):
		writeError(w, http.StatusBadRequest, "Invalid OTP")
	case errors.Is(err, auth.ErrUnknownRole):
		writeError(w, http.StatusBadRequest, "Unauthorized")
	case errors.Is(err, token.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, service.ErrNoDriversAvailable):
		writeError(w, http.StatusNotFound, "Driver not online")
	case errors.Is(err, location.ErrNotFound):
		writeError(w, http.StatusNotFound, "Driver not online")
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
