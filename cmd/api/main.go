package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/quartzhr/attendance-sync-go/internal/config"
	appHTTP "github.com/quartzhr/attendance-sync-go/internal/handler/http"
	"github.com/quartzhr/attendance-sync-go/internal/pkg/cron"
	"github.com/quartzhr/attendance-sync-go/internal/pkg/database"
	"github.com/quartzhr/attendance-sync-go/internal/pkg/etimetrack"
	"github.com/quartzhr/attendance-sync-go/internal/pkg/jwt"
	"github.com/quartzhr/attendance-sync-go/internal/repository/postgresql"
	attendanceService "github.com/quartzhr/attendance-sync-go/internal/service/attendance"
	"github.com/quartzhr/attendance-sync-go/internal/service/identity"
	leaveService "github.com/quartzhr/attendance-sync-go/internal/service/leave"
	"github.com/quartzhr/attendance-sync-go/internal/service/normalizer"
	"github.com/quartzhr/attendance-sync-go/internal/service/reconciler"
	syncService "github.com/quartzhr/attendance-sync-go/internal/service/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	vendorLoc, err := time.LoadLocation(cfg.ETimeTrack.Timezone)
	if err != nil {
		log.Fatal("Invalid VENDOR_TIMEZONE: ", err)
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	dayRecordRepo := postgresql.NewDayRecordRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	mappingRepo := postgresql.NewMappingRepository(db)
	cursorStore := postgresql.NewCursorStore(db)
	pendingPunchRepo := postgresql.NewPendingPunchRepository(db)
	leaveRepo := postgresql.NewLeaveRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	vendorClient := etimetrack.NewClient(etimetrack.Config{
		BaseURL:  cfg.ETimeTrack.BaseURL,
		CorpID:   cfg.ETimeTrack.CorpID,
		Username: cfg.ETimeTrack.Username,
		Password: cfg.ETimeTrack.Password,
	})

	reconcilerService := reconciler.New(dayRecordRepo, reconciler.Config{
		Location:         vendorLoc,
		ShiftStartHour:   cfg.Shift.StartHour,
		ShiftStartMinute: cfg.Shift.StartMinute,
		GraceMinutes:     cfg.Shift.GraceMinutes,
	}, slog.Default())

	normalizerService := normalizer.New(vendorLoc, slog.Default())

	mapper := identity.NewMapper(
		mappingRepo,
		employeeRepo,
		pendingPunchRepo,
		reconcilerService,
		identity.Config{
			AutoMapThreshold: cfg.Identity.AutoMapThreshold,
			ReviewFloor:      cfg.Identity.ReviewFloor,
		},
		slog.Default(),
	)

	orchestrator := syncService.NewOrchestrator(
		vendorClient,
		cursorStore,
		normalizerService,
		mapper,
		reconcilerService,
		employeeRepo,
		mappingRepo,
		dayRecordRepo,
		syncService.Config{
			EmployeeFilter: cfg.ETimeTrack.EmployeeFilter,
			VendorLocation: vendorLoc,
			MaxRetries:     cfg.Sync.MaxRetries,
			RetryDelay:     cfg.Sync.RetryDelay,
			RunTimeout:     cfg.Sync.RunTimeout,
		},
		slog.Default(),
	)

	attendanceSvc := attendanceService.NewService(dayRecordRepo, reconcilerService, vendorLoc, slog.Default())
	leaveSvc := leaveService.NewService(leaveRepo, employeeRepo, slog.Default())

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	syncHandler := appHTTP.NewSyncHandler(orchestrator)
	mappingHandler := appHTTP.NewMappingHandler(mapper)
	leaveHandler := appHTTP.NewLeaveHandler(leaveSvc)
	employeeHandler := appHTTP.NewEmployeeHandler(employeeRepo)

	router := appHTTP.NewRouter(
		JWTService,
		attendanceHandler,
		syncHandler,
		mappingHandler,
		leaveHandler,
		employeeHandler,
	)

	scheduler := cron.NewScheduler()
	cron.NewSyncJobs(orchestrator, cfg.Sync.Interval).Register(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
}
