// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	aboutfeature "github.com/dalemusser/housematch/internal/app/features/about"
	categoriesfeature "github.com/dalemusser/housematch/internal/app/features/categories"
	couplesfeature "github.com/dalemusser/housematch/internal/app/features/couples"
	errorsfeature "github.com/dalemusser/housematch/internal/app/features/errors"
	healthfeature "github.com/dalemusser/housematch/internal/app/features/health"
	homefeature "github.com/dalemusser/housematch/internal/app/features/home"
	housesfeature "github.com/dalemusser/housematch/internal/app/features/houses"
	loginfeature "github.com/dalemusser/housematch/internal/app/features/login"
	logoutfeature "github.com/dalemusser/housematch/internal/app/features/logout"
	profilefeature "github.com/dalemusser/housematch/internal/app/features/profile"
	reportsfeature "github.com/dalemusser/housematch/internal/app/features/reports"
	signupfeature "github.com/dalemusser/housematch/internal/app/features/signup"
	auditstore "github.com/dalemusser/housematch/internal/app/store/audit"
	"github.com/dalemusser/housematch/internal/app/system/auditlog"
	"github.com/dalemusser/housematch/internal/app/system/auth"
	"github.com/dalemusser/housematch/internal/app/system/mailer"
	"github.com/dalemusser/housematch/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// HouseMatch initializes the template engine, applies session and CSRF
// middleware, and mounts feature routers for the homebuyer area (houses,
// categories, report), the realtor area (couples, invitations, reports),
// and the shared auth pages.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)

	audit := auditlog.New(auditstore.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Grade: appCfg.AuditLogGrade,
		Admin: appCfg.AuditLogAdmin,
	})

	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
	}, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(auth.LoadSessionUser)

	// Every browser form carries the gorilla/csrf token; secure cookies
	// in production only so local HTTP development works.
	r.Use(csrf.Protect([]byte(appCfg.CSRFKey),
		csrf.Secure(coreCfg.Env == "prod"),
		csrf.Path("/"),
	))

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Landing page and role dashboards
	homeHandler := homefeature.NewHandler(deps.MongoDatabase, errLog, logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(deps.MongoDatabase, errLog, audit, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(audit, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Registration: realtor self-signup and token-based homebuyer signup
	signupHandler := signupfeature.NewHandler(deps.MongoDatabase, errLog, audit, logger)
	r.Mount("/signup", signupfeature.Routes(signupHandler))

	aboutHandler := aboutfeature.NewHandler(logger)
	r.Mount("/about", aboutfeature.Routes(aboutHandler))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Account settings for any signed-in user
	profileHandler := profilefeature.NewHandler(deps.MongoDatabase, errLog, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler))

	// Homebuyer area
	housesHandler := housesfeature.NewHandler(deps.MongoDatabase, errLog, audit, logger)
	r.Mount("/houses", housesfeature.Routes(housesHandler))

	categoriesHandler := categoriesfeature.NewHandler(deps.MongoDatabase, errLog, audit, logger)
	r.Mount("/categories", categoriesfeature.Routes(categoriesHandler))

	// Realtor area
	couplesHandler := couplesfeature.NewHandler(deps.MongoDatabase, errLog, audit, mail, appCfg.BaseURL, logger)
	r.Mount("/couples", couplesfeature.Routes(couplesHandler))

	// Reports: a homebuyer's own couple at /report, a realtor's managed
	// couples at /reports/{coupleID}
	reportsHandler := reportsfeature.NewHandler(deps.MongoDatabase, errLog, logger)
	r.With(auth.RequireSignedIn, auth.RequireRole(models.RoleHomebuyer)).
		Get("/report", reportsHandler.ServeOwnReport)
	r.Mount("/reports", reportsfeature.Routes(reportsHandler))

	return r, nil
}
