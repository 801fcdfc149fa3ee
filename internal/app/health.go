package app

import (
	"context"

	"github.com/conneroisu/viewnav/internal/monitoring"
)

// HealthChecks reports whether the application has started and shows a view.
func (a *App) HealthChecks() []monitoring.HealthChecker {
	return []monitoring.HealthChecker{
		monitoring.NewHealthCheckFunc("router", true, func(ctx context.Context) monitoring.HealthCheck {
			if a.Destroyed() {
				return monitoring.HealthCheck{Status: monitoring.HealthStatusUnhealthy, Message: "application destroyed"}
			}
			adapter := a.Router()
			if adapter == nil {
				return monitoring.HealthCheck{Status: monitoring.HealthStatusUnhealthy, Message: "application not started"}
			}
			return monitoring.HealthCheck{
				Status:   monitoring.HealthStatusHealthy,
				Metadata: map[string]interface{}{"path": adapter.Get(), "kind": a.cfg.Router.Kind},
			}
		}),
		monitoring.NewHealthCheckFunc("view", false, func(ctx context.Context) monitoring.HealthCheck {
			top := a.View()
			if top == nil {
				return monitoring.HealthCheck{Status: monitoring.HealthStatusDegraded, Message: "no view mounted"}
			}
			return monitoring.HealthCheck{
				Status:   monitoring.HealthStatusHealthy,
				Metadata: map[string]interface{}{"page": top.Name(), "views": a.tree.Len()},
			}
		}),
	}
}
