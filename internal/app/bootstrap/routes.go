// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	healthfeature "github.com/dalemusser/larder/internal/app/features/health"
	householdsfeature "github.com/dalemusser/larder/internal/app/features/households"
	"github.com/dalemusser/larder/internal/app/household"
	"github.com/dalemusser/larder/internal/app/system/limits"
	"github.com/dalemusser/larder/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Larder mounts the health probe and the
// household JSON API.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc := household.NewFromDB(deps.LarderMongoDatabase, logger.Named("household"))
	auditLog := newAuditLogger(appCfg, deps, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.LarderMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	householdsHandler := householdsfeature.NewHandler(svc, auditLog, logger)
	householdsHandler.InviteLimit = ratelimit.NewInviteLimiter(
		limits.InviteAcceptPerActor, limits.InviteAcceptActorWindow,
		limits.InviteAcceptPerIP, limits.InviteAcceptIPWindow)
	r.Mount("/households", householdsfeature.Routes(householdsHandler))

	return r, nil
}
