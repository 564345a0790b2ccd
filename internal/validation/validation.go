package validation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/zaplinker/backend/internal/cache"
	"github.com/zaplinker/backend/internal/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotConfigured is returned by a check whose service has no connection settings
var ErrNotConfigured = errors.New("service not configured")

// Check probes one backing service
type Check func(ctx context.Context) error

// ServiceValidator fails startup when a required backing service is unreachable
type ServiceValidator struct {
	requiredServices []string
	checks           map[string]Check
	timeout          time.Duration
}

// NewServiceValidator creates a validator for the given service names (REQUIRED_SERVICES)
func NewServiceValidator(required []string) *ServiceValidator {
	normalized := make([]string, 0, len(required))
	for _, name := range required {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			normalized = append(normalized, name)
		}
	}
	return &ServiceValidator{
		requiredServices: normalized,
		checks:           make(map[string]Check),
		timeout:          10 * time.Second,
	}
}

// Register adds or replaces the check for a service name
func (sv *ServiceValidator) Register(name string, check Check) *ServiceValidator {
	sv.checks[strings.ToLower(name)] = check
	return sv
}

// Known returns the registered service names
func (sv *ServiceValidator) Known() []string {
	names := make([]string, 0, len(sv.checks))
	for name := range sv.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateServices runs the check of every required service and stops at the first failure
func (sv *ServiceValidator) ValidateServices(ctx context.Context) error {
	if len(sv.requiredServices) == 0 {
		logger.Log.Info("No required services configured for validation")
		return nil
	}

	logger.Log.Info("Validating required services",
		zap.Strings("services", sv.requiredServices),
	)

	for _, serviceName := range sv.requiredServices {
		check, ok := sv.checks[serviceName]
		if !ok {
			return fmt.Errorf("unknown required service %q (known: %s)", serviceName, strings.Join(sv.Known(), ", "))
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, sv.timeout)
		err := check(timeoutCtx)
		cancel()
		if err != nil {
			logger.Log.Error("Required service validation failed",
				zap.String("service", serviceName),
				zap.Error(err),
			)
			return fmt.Errorf("required service %q validation failed: %w", serviceName, err)
		}

		logger.Log.Info("Service validated successfully",
			zap.String("service", serviceName),
		)
	}

	logger.Log.Info("All required services validated successfully")
	return nil
}

// DatabaseCheck pings the SQL connection behind db
func DatabaseCheck(db *gorm.DB) Check {
	return func(ctx context.Context) error {
		if db == nil {
			return ErrNotConfigured
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to get database handle: %w", err)
		}
		return sqlDB.PingContext(ctx)
	}
}

// RedisCheck pings Redis. A nil client means REDIS_HOST was not set.
func RedisCheck(rc *cache.RedisClient) Check {
	return func(ctx context.Context) error {
		if rc == nil {
			return ErrNotConfigured
		}
		return rc.Ping(ctx)
	}
}

// NATSCheck opens and closes a connection to url
func NATSCheck(url string) Check {
	return func(ctx context.Context) error {
		if url == "" {
			return ErrNotConfigured
		}
		timeout := 5 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		nc, err := nats.Connect(url, nats.Name("zaplinker-validation"), nats.Timeout(timeout))
		if err != nil {
			return fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
		}
		nc.Close()
		return nil
	}
}
