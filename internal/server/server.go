package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dukerupert/mom/internal/backup"
	"github.com/dukerupert/mom/internal/database"
	"github.com/dukerupert/mom/internal/handler"
	"github.com/dukerupert/mom/internal/middleware"
	"github.com/dukerupert/mom/internal/notify"
	"github.com/dukerupert/mom/internal/push"
	"github.com/dukerupert/mom/internal/reminder"
	"github.com/dukerupert/mom/internal/store"
	ws "github.com/dukerupert/mom/internal/websocket"
)

const maxSessions = 32

// Options configures the reminder pipeline and its outer services.
type Options struct {
	Reminder      reminder.Config
	Push          push.Config
	Backup        backup.S3Config
	DisplayWindow time.Duration
	// Clock defaults to the wall clock.
	Clock reminder.Clock
}

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	gate          *notify.Gate
	platform      *push.Platform
	scheduler     *reminder.Scheduler
	source        *store.SnapshotSource
	backupManager *backup.Manager
	rateLimiter   *middleware.RateLimiter

	medicationH   *handler.MedicationHandler
	appointmentH  *handler.AppointmentHandler
	shoppingH     *handler.ShoppingHandler
	recipeH       *handler.RecipeHandler
	photoH        *handler.PhotoHandler
	summaryH      *handler.SummaryHandler
	notificationH *handler.NotificationHandler
	pushH         *handler.PushHandler
	backupH       *handler.BackupHandler
	reminderH     *handler.ReminderHandler

	mu     sync.Mutex
	handle *reminder.Handle

	logger *slog.Logger
}

func New(db *sql.DB, opts Options, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	medicationStore := store.NewMedicationStore(db)
	appointmentStore := store.NewAppointmentStore(db)
	pushStore := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)
	archiveStore := store.NewArchiveStore(db)
	source := store.NewSnapshotSource(db)

	// Notification pipeline: web push platform behind the permission gate
	pushSvc := push.NewService(opts.Push)
	platform := push.NewPlatform(pushSvc, pushStore, hub, logger.With("component", "push"))
	gate := notify.NewGate(platform, opts.DisplayWindow, logger.With("component", "notify"))

	clock := opts.Clock
	if clock == nil {
		clock = reminder.SystemClock{}
	}
	scheduler := reminder.New(opts.Reminder, clock, logger.With("component", "reminder"))
	scheduler.OnDue(func(ev reminder.DueEvent) {
		hub.Broadcast(ws.NewMessage(ws.EntityReminder, "due", ev.ID, map[string]any{
			"kind":  ev.Kind,
			"title": ev.Title,
			"body":  ev.Body,
		}))
	})

	backupMgr := backup.NewManager(opts.Backup, archiveStore, backupStore, logger.With("component", "backup"), func(s backup.Status) {
		hub.Broadcast(ws.Message{
			Type:   "backup_status",
			Entity: ws.EntityData,
			Action: string(s.State),
			Extra: map[string]any{
				"in_progress": s.InProgress,
				"error":       s.Error,
			},
		})
	})

	notificationH := handler.NewNotificationHandler(gate, platform, logger.With("component", "notification_handler"))

	return &Server{
		db:            db,
		hub:           hub,
		gate:          gate,
		platform:      platform,
		scheduler:     scheduler,
		source:        source,
		backupManager: backupMgr,
		rateLimiter:   middleware.NewRateLimiter(),
		medicationH:   handler.NewMedicationHandler(medicationStore, hub, logger.With("component", "medication")),
		appointmentH:  handler.NewAppointmentHandler(appointmentStore, hub, logger.With("component", "appointment")),
		shoppingH:     handler.NewShoppingHandler(store.NewShoppingStore(db), hub, logger.With("component", "shopping")),
		recipeH:       handler.NewRecipeHandler(store.NewRecipeStore(db), hub, logger.With("component", "recipe")),
		photoH:        handler.NewPhotoHandler(store.NewPhotoStore(db), hub, logger.With("component", "photo")),
		summaryH:      handler.NewSummaryHandler(archiveStore, logger.With("component", "summary")),
		notificationH: notificationH,
		pushH:         handler.NewPushHandler(pushStore, pushSvc, notificationH, logger.With("component", "push_handler")),
		backupH:       handler.NewBackupHandler(backupMgr, hub, logger.With("component", "backup_handler")),
		reminderH:     handler.NewReminderHandler(scheduler, source, logger.With("component", "reminder_handler")),
		logger:        logger,
	}
}

// Start runs the reminder loop until ctx is done or Stop is called.
// Calling Start on a running server is a no-op.
func (s *Server) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle != nil {
		return
	}
	s.handle = s.scheduler.Start(ctx, s.source, s.gate)
}

// Stop halts the reminder loop and abandons any open consent prompt.
func (s *Server) Stop() {
	s.mu.Lock()
	h := s.handle
	s.handle = nil
	s.mu.Unlock()

	h.Stop()
	s.gate.Close()
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Gate returns the notification permission gate.
func (s *Server) Gate() *notify.Gate {
	return s.gate
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, ws.HandlerOptions{
		MaxClients: maxSessions,
		Greeting:   s.greeting,
	}, s.logger.With("component", "websocket")))

	// Medication API routes
	mux.HandleFunc("GET /api/medications", s.medicationH.List)
	mux.HandleFunc("POST /api/medications", s.medicationH.Create)
	mux.HandleFunc("PUT /api/medications/{id}", s.medicationH.Update)
	mux.HandleFunc("DELETE /api/medications/{id}", s.medicationH.Delete)
	mux.HandleFunc("POST /api/medications/{id}/toggle", s.medicationH.Toggle)

	// Appointment API routes
	mux.HandleFunc("GET /api/appointments", s.appointmentH.List)
	mux.HandleFunc("POST /api/appointments", s.appointmentH.Create)
	mux.HandleFunc("PUT /api/appointments/{id}", s.appointmentH.Update)
	mux.HandleFunc("DELETE /api/appointments/{id}", s.appointmentH.Delete)

	// Household routes
	mux.HandleFunc("GET /api/summary", s.summaryH.Get)
	mux.HandleFunc("GET /api/shopping", s.shoppingH.List)
	mux.HandleFunc("POST /api/shopping", s.shoppingH.Create)
	mux.HandleFunc("POST /api/shopping/{id}/toggle", s.shoppingH.Toggle)
	mux.HandleFunc("DELETE /api/shopping/{id}", s.shoppingH.Delete)
	mux.HandleFunc("GET /api/recipes", s.recipeH.List)
	mux.HandleFunc("POST /api/recipes", s.recipeH.Create)
	mux.HandleFunc("DELETE /api/recipes/{id}", s.recipeH.Delete)
	mux.HandleFunc("GET /api/photos", s.photoH.List)
	mux.HandleFunc("POST /api/photos", s.photoH.Create)
	mux.HandleFunc("DELETE /api/photos/{id}", s.photoH.Delete)

	// Notification permission routes
	mux.HandleFunc("GET /api/notifications/permission", s.notificationH.GetPermission)
	mux.HandleFunc("POST /api/notifications/permission", s.notificationH.RequestPermission)
	mux.HandleFunc("POST /api/notifications/permission/retry", s.notificationH.RetryPermission)
	mux.HandleFunc("POST /api/notifications/permission/deny", s.notificationH.DenyPermission)

	// Push notification API routes
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	mux.HandleFunc("POST /api/push/test", s.rateLimitedHandler(pushTestPolicy, s.pushH.TestNotification))

	// Backup API routes
	mux.HandleFunc("GET /api/backup/export", s.backupH.Export)
	mux.HandleFunc("POST /api/backup/import", s.rateLimitedHandler(importPolicy, s.backupH.Import))
	mux.HandleFunc("GET /api/backup/status", s.backupH.Status)
	mux.HandleFunc("GET /api/backup/offsite", s.backupH.ListOffsite)
	mux.HandleFunc("POST /api/backup/offsite", s.rateLimitedHandler(offsitePolicy, s.backupH.Offsite))
	mux.HandleFunc("POST /api/backup/offsite/{id}/restore", s.rateLimitedHandler(offsitePolicy, s.backupH.RestoreOffsite))
	mux.HandleFunc("DELETE /api/data", s.backupH.ClearAll)

	mux.HandleFunc("GET /api/reminders/due", s.reminderH.Due)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

// greeting tells a new browser session where the consent flow stands,
// including a prompt still waiting for an answer.
func (s *Server) greeting() []ws.Message {
	msgs := []ws.Message{
		ws.NewMessage(ws.EntityPermission, "state", "", map[string]any{
			"state":     s.gate.CurrentState(),
			"supported": s.gate.CheckSupport(),
		}),
	}
	if s.platform.Prompting() {
		msgs = append(msgs, ws.NewMessage(ws.EntityPermission, "request", "", nil))
	}
	return msgs
}

type healthResponse struct {
	Status        string       `json:"status"`
	Database      string       `json:"database"`
	Schema        int64        `json:"schema,omitempty"`
	Notifications notify.State `json:"notifications"`
	Clients       int          `json:"clients"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        "ok",
		Database:      "ok",
		Notifications: s.gate.CurrentState(),
		Clients:       s.hub.ClientCount(),
	}
	status := http.StatusOK
	if v, err := database.SchemaVersion(r.Context(), s.db); err != nil {
		s.logger.Error("health check", "error", err)
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	} else {
		resp.Schema = v
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

var (
	importPolicy   = middleware.Policy{Name: "import", Limit: 10, Window: time.Minute}
	offsitePolicy  = middleware.Policy{Name: "offsite", Limit: 5, Window: time.Minute}
	pushTestPolicy = middleware.Policy{Name: "push-test", Limit: 10, Window: time.Minute}
)

func (s *Server) rateLimitedHandler(policy middleware.Policy, h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, policy, middleware.RealIP)
	return rl(h).ServeHTTP
}
