package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"github.com/truthlens/truthlens-api/access"
	"github.com/truthlens/truthlens-api/ai"
	"github.com/truthlens/truthlens-api/api"
	"github.com/truthlens/truthlens-api/api/scheduler"
	"github.com/truthlens/truthlens-api/config"
	"github.com/truthlens/truthlens-api/databases"
	"github.com/truthlens/truthlens-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	codeDB := databases.NewAccessCodeDatabase(a.dbHelper)
	requestDB := databases.NewAccessRequestDatabase(a.dbHelper)
	scanDB := databases.NewScanRecordDatabase(a.dbHelper)
	userDB := databases.NewUserDatabase(a.dbHelper)
	adminDB := databases.NewAdminDatabase(a.dbHelper)

	ac := AccessCode{DB: codeDB, RDB: requestDB, Validator: access.NewValidator(codeDB)}
	ar := AccessRequest{DB: requestDB, UDB: userDB}
	scan := Scan{DB: scanDB, UDB: userDB, Quota: access.NewQuotaChecker(scanDB), Analyzer: a.newAnalyzer()}
	u := User{DB: userDB}
	sub := Subscription{UDB: userDB, Config: a.Config}
	upload := Upload{RDB: requestDB}
	admin := Admin{ADB: adminDB, UDB: userDB, RDB: requestDB, CDB: codeDB, SDB: scanDB}
	chat := SupportChat{DB: databases.NewSupportMessageDatabase(a.dbHelper), Hub: NewChatHub()}
	pc := PCBuild{DB: databases.NewPCComponentDatabase(a.dbHelper)}
	metrics := Metrics{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	// access codes: validation and redemption are reachable before a user
	// has any entitlement, so they sit outside the auth middleware
	apiCreate.Handle("/access-code/validate", http.HandlerFunc(ac.ValidateAccessCodeHandler)).Methods("POST")
	apiCreate.Handle("/access-code/redeem", http.HandlerFunc(ac.RedeemAccessCodeHandler)).Methods("POST")

	apiCreate.Handle("/scan", api.Middleware(http.HandlerFunc(scan.CreateScanHandler))).Methods("POST")
	apiCreate.Handle("/scan/quota", api.Middleware(http.HandlerFunc(scan.ScanQuotaHandler))).Methods("GET")
	apiCreate.Handle("/scan/history", api.Middleware(http.HandlerFunc(scan.ScanHistoryHandler))).Methods("GET")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/check-user", http.HandlerFunc(u.UserCheckEmailHandler)).Methods("POST")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")

	apiCreate.Handle("/subscription/checkout", api.Middleware(http.HandlerFunc(sub.CreateCheckoutSessionHandler))).Methods("POST")
	apiCreate.Handle("/subscription/verify", api.Middleware(http.HandlerFunc(sub.VerifySubscriptionHandler))).Methods("POST")
	apiCreate.Handle("/subscription/cancel", api.Middleware(http.HandlerFunc(sub.UnsubscribeHandler))).Methods("POST")
	apiCreate.Handle("/subscription/success", http.HandlerFunc(sub.HandleSuccessRedirect)).Methods("GET")
	apiCreate.Handle("/subscription/cancelled", http.HandlerFunc(sub.HandleCancelRedirect)).Methods("GET")

	apiCreate.Handle("/upload/proof", api.Middleware(http.HandlerFunc(upload.UploadProofHandler))).Methods("POST")
	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(upload.GenerateSignature))).Methods("POST")

	apiCreate.Handle("/support/chat", api.Middleware(http.HandlerFunc(chat.ServeWS))).Methods("GET")
	apiCreate.Handle("/support/history", api.Middleware(http.HandlerFunc(chat.ChatHistoryHandler))).Methods("GET")

	apiCreate.Handle("/pc-builds/recommend", api.Middleware(http.HandlerFunc(pc.RecommendBuildHandler))).Methods("GET")
	apiCreate.Handle("/pc-builds/components", api.Middleware(http.HandlerFunc(pc.ListComponentsHandler))).Methods("GET")

	// admin console
	apiCreate.Handle("/admin/login", http.HandlerFunc(admin.AdminLoginHandler)).Methods("POST")
	apiCreate.Handle("/admin/stats", api.AdminMiddleware(http.HandlerFunc(admin.AdminStatsHandler))).Methods("GET")
	apiCreate.Handle("/admin/access-codes", api.AdminMiddleware(http.HandlerFunc(ac.CreateAccessCodeHandler))).Methods("POST")
	apiCreate.Handle("/admin/access-codes", api.AdminMiddleware(http.HandlerFunc(ac.ListAccessCodesHandler))).Methods("GET")
	apiCreate.Handle("/admin/access-codes/{code_id}/deactivate", api.AdminMiddleware(http.HandlerFunc(ac.DeactivateAccessCodeHandler))).Methods("POST")
	apiCreate.Handle("/admin/access-codes/{code_id}", api.AdminMiddleware(http.HandlerFunc(ac.DeleteAccessCodeHandler))).Methods("DELETE")
	apiCreate.Handle("/admin/access-requests", api.AdminMiddleware(http.HandlerFunc(ar.ListAccessRequestsHandler))).Methods("GET")
	apiCreate.Handle("/admin/access-requests/{request_id}/approve", api.AdminMiddleware(http.HandlerFunc(ar.ApproveAccessRequestHandler))).Methods("POST")
	apiCreate.Handle("/admin/access-requests/{request_id}/deny", api.AdminMiddleware(http.HandlerFunc(ar.DenyAccessRequestHandler))).Methods("POST")
	apiCreate.Handle("/admin/pc-builds/components", api.AdminMiddleware(http.HandlerFunc(pc.CreateComponentHandler))).Methods("POST")
	apiCreate.Handle("/admin/pc-builds/components/{component_id}", api.AdminMiddleware(http.HandlerFunc(pc.DeleteComponentHandler))).Methods("DELETE")

	apiCreate.Handle("/metrics/summary", api.AdminMiddleware(http.HandlerFunc(metrics.MetricsSummaryHandler))).Methods("GET")
	apiCreate.Handle("/metrics/routes", api.AdminMiddleware(http.HandlerFunc(metrics.MetricsRoutesHandler))).Methods("GET")
	apiCreate.Handle("/metrics/slowest", api.AdminMiddleware(http.HandlerFunc(metrics.MetricsSlowestHandler))).Methods("GET")

	r.Use(api.MetricsMiddleware)
	r.Use(api.TimeoutMiddleware(30 * time.Second))

	// swagger docs hosted at "/"
	r.PathPrefix("/").Handler(http.StripPrefix("/", http.FileServer(http.Dir("./docs/"))))
	return r
}

// newAnalyzer picks the AI backend based on config. Without an API key the
// noop keeps scans working in development.
func (a *App) newAnalyzer() ai.Analyzer {
	apiKey := os.Getenv("AI_API_KEY")
	if apiKey == "" || a.Config.AIBaseUrl == "" {
		zap.S().Warn("no AI backend configured, scan analysis will return a placeholder")
		return ai.Noop{}
	}
	model := a.Config.AIModel
	if model == "" {
		model = "gpt-4o-mini"
	}
	return ai.NewClient(a.Config.AIBaseUrl, apiKey, model)
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("truthlens-api has connected to the database")

	if err := databases.EnsureHeadAdmin(a.dbHelper); err != nil {
		zap.S().With(err).Error("failed to bootstrap head admin")
		return err
	}

	// initialize stripe
	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		zap.S().Warn("STRIPE_SECRET_KEY is not set, subscription routes will fail")
	}
	stripe.Key = stripeKey

	api.InitMetrics()

	a.Scheduler = scheduler.NewScheduler(
		databases.NewAccessCodeDatabase(a.dbHelper),
		databases.NewAccessRequestDatabase(a.dbHelper),
		databases.NewScanRecordDatabase(a.dbHelper),
		databases.NewUserDatabase(a.dbHelper),
		databases.NewSchedulerLockDatabase(a.dbHelper),
	)
	a.Scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
