package api

import (
	"roomworks/channelsync/internal/common"
	"roomworks/channelsync/internal/db"
	"roomworks/channelsync/internal/db/repositories"
	"roomworks/channelsync/internal/metrics"
	"roomworks/channelsync/internal/providers"
	"roomworks/channelsync/internal/services"
	"roomworks/channelsync/internal/vault"
)

type Repositories struct {
	Connections     *repositories.ConnectionRepo
	SyncStates      *repositories.SyncStateRepo
	IdMappings      *repositories.IdMappingRepo
	AuditLogs       *repositories.AuditLogRepo
	RatePushHistory *repositories.RatePushHistoryRepo
	Bookings        *repositories.BookingRepo
	RoomTypes       *repositories.RoomTypeRepo
	Guests          *repositories.GuestRepo
	Calendar        *repositories.CalendarRepo
	Keys            *repositories.KeysRepo
}

type Services struct {
	Vault      *vault.Vault
	Provider   *providers.Beds24Provider
	Audit      *services.AuditService
	Bootstrap  *services.BootstrapService
	DeltaSync  *services.DeltaSyncService
	RatePush   *services.RatePushService
	Recovery   *services.RecoveryService
	Monitoring *services.MonitoringService
	SyncLock   *common.RedisSyncLock
}

type Dependencies struct {
	Repo     *Repositories
	Services *Services
}

func InitDependencies(metricsReg *metrics.MetricsRegistry) (*Dependencies, error) {

	repos := &Repositories{
		Connections:     repositories.NewConnectionRepo(db.PgDB),
		SyncStates:      repositories.NewSyncStateRepo(db.DB),
		IdMappings:      repositories.NewIdMappingRepo(db.DB),
		AuditLogs:       repositories.NewAuditLogRepo(db.DB),
		RatePushHistory: repositories.NewRatePushHistoryRepo(db.PgDB),
		Bookings:        repositories.NewBookingRepo(db.DB),
		RoomTypes:       repositories.NewRoomTypeRepo(db.DB),
		Guests:          repositories.NewGuestRepo(db.DB),
		Calendar:        repositories.NewCalendarRepo(db.DB),
		Keys:            repositories.NewApiKeysRepo(db.DB),
	}

	vaultSvc := vault.NewVault(repos.Connections)
	provider := providers.NewBeds24Provider(vaultSvc, metricsReg)
	auditSvc := services.NewAuditService(repos.AuditLogs)

	redisClient := common.NewRedisClient()
	syncLock := common.NewRedisSyncLock(redisClient)

	bootstrapSvc := services.NewBootstrapService(
		repos.Connections, repos.SyncStates, repos.IdMappings,
		repos.RoomTypes, repos.Bookings, repos.Guests,
		provider, auditSvc,
	)
	deltaSyncSvc := services.NewDeltaSyncService(
		repos.Connections, repos.SyncStates, repos.IdMappings,
		repos.Bookings, repos.Guests, repos.Calendar,
		provider, auditSvc, syncLock, metricsReg,
	)
	ratePushSvc := services.NewRatePushService(
		repos.Connections, repos.IdMappings, repos.RoomTypes,
		repos.Calendar, repos.RatePushHistory,
		provider, auditSvc, metricsReg,
	)
	recoverySvc := services.NewRecoveryService(
		repos.Connections, repos.SyncStates, repos.IdMappings,
		repos.AuditLogs, vaultSvc, auditSvc,
	)
	monitoringSvc := services.NewMonitoringService(
		repos.Connections, repos.SyncStates, repos.AuditLogs, recoverySvc,
	)

	svcs := &Services{
		Vault:      vaultSvc,
		Provider:   provider,
		Audit:      auditSvc,
		Bootstrap:  bootstrapSvc,
		DeltaSync:  deltaSyncSvc,
		RatePush:   ratePushSvc,
		Recovery:   recoverySvc,
		Monitoring: monitoringSvc,
		SyncLock:   syncLock,
	}

	return &Dependencies{
		Repo:     repos,
		Services: svcs,
	}, nil
}
