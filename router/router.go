package router

import (
	"context"
	"eventhub-backend/config"
	"eventhub-backend/event"
	"eventhub-backend/factory"
	"eventhub-backend/handler"
	"eventhub-backend/healthcheck"
	"eventhub-backend/logger"
	"eventhub-backend/middleware"
	"eventhub-backend/moderation"
	"eventhub-backend/notify"
	"eventhub-backend/payment"
	"eventhub-backend/reminder"
	"eventhub-backend/response"
	"eventhub-backend/ticket"
	"eventhub-backend/user"
	"eventhub-backend/vault"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/spf13/viper"
)

// Router wires every API handler.
func Router(ctx context.Context) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.SetCorrelationIDHeader)
	r.Use(middleware.PanicHandler)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		response.ResourceNotFound(fmt.Sprintf("The requested resource was not found: path: %s, method: %s", req.URL.Path, req.Method), "The requested resource was not found!").Send(req.Context(), w)
	})

	r.Use(middleware.ResponseTimeLogging)
	r.Use(middleware.RequestLogging)
	r.Use(middleware.SetContentTypeHeader)

	loadVaultSecrets(ctx)

	f := factory.NewFactory()
	store := f.Store(ctx)

	sessions := payment.NewClient(
		viper.GetString(config.PaymentAPIURL),
		viper.GetString(config.PaymentSecretKey),
		viper.GetString(config.PaymentSuccessURL),
		viper.GetString(config.PaymentCancelURL),
		viper.GetString(config.PaymentCurrency),
	)
	notifier := notify.NewSender(viper.GetString(config.NotifyWebhookURL), viper.GetString(config.NotifyAccessPass))
	moderator := moderation.NewSubmitter(viper.GetString(config.ModerationWebhookURL), viper.GetString(config.ModerationAccessPass))

	ticketService := ticket.NewService(store, sessions, notifier)
	eventService := event.NewService(store, moderator)
	userService := user.NewService(store)
	reminderService := reminder.NewService(store, notifier, f.Redis(ctx))

	r.HandleFunc("/healthcheck", healthcheck.Self).Methods(http.MethodGet)
	baseRouter := r.PathPrefix("/v1").Subrouter()

	eventRouter := baseRouter.PathPrefix("/events").Subrouter()
	eventRouter.HandleFunc("", handler.SearchEvents(eventService)).Methods(http.MethodGet)
	eventRouter.HandleFunc("", handler.CreateEvent(eventService, f)).Methods(http.MethodPost)
	eventRouter.HandleFunc("/{eventID}", handler.GetEvent(eventService, f)).Methods(http.MethodGet)
	eventRouter.HandleFunc("/{eventID}", handler.UpdateEvent(eventService, f)).Methods(http.MethodPatch)
	eventRouter.HandleFunc("/{eventID}", handler.DeleteEvent(eventService, f)).Methods(http.MethodDelete)
	eventRouter.HandleFunc("/{eventID}/related", handler.RelatedEvents(eventService)).Methods(http.MethodGet)
	eventRouter.HandleFunc("/{eventID}/checkout", handler.Checkout(ticketService, f)).Methods(http.MethodPost)

	userRouter := baseRouter.PathPrefix("/users").Subrouter()
	userRouter.HandleFunc("/me", handler.Me(f)).Methods(http.MethodGet)
	userRouter.HandleFunc("/me", handler.UpdateMe(userService, f)).Methods(http.MethodPatch)
	userRouter.HandleFunc("/me/tickets", handler.MyTickets(userService, f)).Methods(http.MethodGet)
	userRouter.HandleFunc("/{userID}/events", handler.EventsByOrganizer(eventService)).Methods(http.MethodGet)

	adminRouter := baseRouter.PathPrefix("/admin").Subrouter()
	adminRouter.HandleFunc("/events/pending", handler.PendingEvents(eventService, f)).Methods(http.MethodGet)
	adminRouter.HandleFunc("/events/{eventID}/status", handler.SetEventStatus(eventService, f)).Methods(http.MethodPatch)

	webhookRouter := baseRouter.PathPrefix("/webhooks").Subrouter()
	webhookRouter.HandleFunc("/payment", handler.PaymentWebhook(ticketService)).Methods(http.MethodPost)
	webhookRouter.HandleFunc("/moderation", handler.ModerationWebhook(eventService)).Methods(http.MethodPost)

	baseRouter.HandleFunc("/reminders/sweep", handler.SweepReminders(reminderService)).Methods(http.MethodPost)

	return r
}

// loadVaultSecrets overrides config with secrets from the vault kv mount
// when a vault address is configured. Keys mirror their config names.
func loadVaultSecrets(ctx context.Context) {
	address := viper.GetString(config.VaultAddress)
	if address == "" {
		return
	}

	v, err := vault.New(
		viper.GetString(config.VaultToken),
		viper.GetString(config.VaultUnSealKey),
		address,
		viper.GetString(config.VaultSecretPath))
	if err != nil {
		logger.Fatalf(ctx, "router: Error creating vault client: %+v", err)
	}

	secrets, err := v.Secrets()
	if err != nil {
		logger.Fatalf(ctx, "router: Error reading vault secrets: %+v", err)
	}

	for key, configKey := range map[string]string{
		"payment_secret_key":     config.PaymentSecretKey,
		"payment_webhook_secret": config.PaymentWebhookSecret,
		"notify_access_pass":     config.NotifyAccessPass,
		"moderation_access_pass": config.ModerationAccessPass,
	} {
		if value, ok := secrets[key]; ok && value != "" {
			viper.Set(configKey, value)
		}
	}
}
