// internal/services/container.go
// Service container wiring every domain service to its repository and
// cache dependencies.

package services

import (
	"log"

	"lumberjack-engine/internal/config"
	"lumberjack-engine/internal/database"
	"lumberjack-engine/internal/repositories"
)

// Container holds every service instance for the running process.
type Container struct {
	Cache        *CacheService
	Audit        *AuditService
	Registration *RegistrationService
	EventConfig  *EventConfigService
	Schedule     *ScheduleBuilderService
	Flight       *FlightBuilderService
	HeatGen      *HeatGeneratorService
	Scoring      *ScoringService
	PartneredAxe *PartneredAxeService
	Birling      *BirlingService
	ProAmRelay   *ProAmRelayService
	ReadView     *ReadViewService
	Jobs         *JobService
}

// NewContainer wires the repository container and tournament config
// into every service.
func NewContainer(conn *database.Connections, repos *repositories.Container, cfg config.TournamentConfig, workerPoolSize int, logger *log.Logger) *Container {
	cache := NewCacheService(conn.Redis, logger)
	audit := NewAuditService(repos)

	return &Container{
		Cache:        cache,
		Audit:        audit,
		Registration: NewRegistrationService(repos, audit, cache, cfg, logger),
		EventConfig:  NewEventConfigService(repos, audit, cache, cfg, logger),
		Schedule:     NewScheduleBuilderService(repos),
		Flight:       NewFlightBuilderService(repos, audit, cache, cfg, logger),
		HeatGen:      NewHeatGeneratorService(repos, audit, cache, cfg, logger),
		Scoring:      NewScoringService(repos, audit, cache, cfg, logger),
		PartneredAxe: NewPartneredAxeService(repos, audit, cache, cfg, logger),
		Birling:      NewBirlingService(repos, audit, cache, cfg, logger),
		ProAmRelay:   NewProAmRelayService(repos, audit, cache, cfg, logger),
		ReadView:     NewReadViewService(repos, cache, cfg, logger),
		Jobs:         NewJobService(workerPoolSize, logger),
	}
}
