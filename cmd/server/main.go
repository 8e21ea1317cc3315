package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/config"
	"github.com/iliyamo/cinema-ticket-booking/internal/database"
	"github.com/iliyamo/cinema-ticket-booking/internal/handler"
	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
	"github.com/iliyamo/cinema-ticket-booking/internal/middleware"
	"github.com/iliyamo/cinema-ticket-booking/internal/queue"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository/memstore"
	"github.com/iliyamo/cinema-ticket-booking/internal/router"
	"github.com/iliyamo/cinema-ticket-booking/internal/service"
)

// stores groups the persistence selected at startup.
type stores struct {
	driver   string
	bookings booking.Store
	movies   handler.MovieStore
	halls    handler.HallStore
	users    handler.UserStore
	close    func() error
}

// openStores connects to MySQL when configured and falls back to the
// in-memory store when the database cannot be reached.
func openStores(ctx context.Context, cfg config.Config, log *logger.Logger) stores {
	if cfg.StorageDriver == config.StorageMySQL {
		db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err == nil {
			err = database.Migrate(ctx, db)
			if err != nil {
				_ = db.Close()
			}
		}
		if err == nil {
			log.Info("storage: mysql", "host", cfg.DBHost, "db", cfg.DBName)
			return stores{
				driver:   config.StorageMySQL,
				bookings: repository.NewBookingRepo(db),
				movies:   repository.NewMovieRepo(db),
				halls:    repository.NewHallRepo(db),
				users:    repository.NewUserRepo(db),
				close:    db.Close,
			}
		}
		log.Warn("mysql unavailable, falling back to in-memory storage; data will not survive a restart", "error", err)
	}
	if cfg.StorageDriver != config.StorageMySQL && cfg.StorageDriver != config.StorageMemory {
		log.Warn("unknown STORAGE_DRIVER, using in-memory storage", "driver", cfg.StorageDriver)
	}
	log.Info("storage: memory")
	return stores{
		driver:   config.StorageMemory,
		bookings: memstore.NewBookings(),
		movies:   memstore.NewMovies(),
		halls:    memstore.NewHalls(),
		users:    memstore.NewUsers(),
		close:    func() error { return nil },
	}
}

func main() {
	cfg := config.Load() // Load environment config
	log := logger.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := openStores(ctx, cfg, log)
	defer st.close()

	// Redis backs rate limiting and the listing cache; nil disables both.
	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		log.Warn("redis unavailable: rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}
	rlCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()

	opts := []booking.Option{}
	if cfg.EventsEnabled {
		opts = append(opts, booking.WithPublisher(queue.NewPublisher(cfg.RabbitURL, log)))
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.BookingLogDir, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("booking event consumer stopped", "error", err)
			}
		}()
	}
	svc := booking.NewService(st.bookings, st.movies, log, cfg.DefaultSeatPriceCents, opts...)

	if _, err := service.SeedAdmin(ctx, st.users, service.AdminAccount{
		Name:       cfg.AdminName,
		Email:      cfg.AdminEmail,
		Password:   cfg.AdminPassword,
		BcryptCost: cfg.BcryptCost,
	}, log); err != nil {
		log.Error("admin seed failed", "error", err)
	}

	sched := service.NewScheduler(log)
	if err := sched.AddImageCleanup(cfg.ImageCleanupSchedule, svc); err != nil {
		log.Error("invalid IMAGE_CLEANUP_SCHEDULE", "spec", cfg.ImageCleanupSchedule, "error", err)
	}
	sched.Start()

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: []string{"*"}}))
	e.Use(middleware.RequestLogger(log))

	limit := middleware.NewTokenBucket(rlCfg, rdb, log)
	movieH := handler.NewMovieHandler(st.movies, svc, log, cfg.DefaultSeatPriceCents)
	hallH := handler.NewHallHandler(st.halls, log)

	router.RegisterRoutes(e, st.driver)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, st.users, log), cfg.JWTSecret, limit)
	router.RegisterPublic(e, movieH, hallH,
		middleware.NewRedisCache(cacheCfg, rdb, "movies"),
		middleware.NewRedisCache(cacheCfg, rdb, "halls"),
	)
	router.RegisterBookings(e, handler.NewBookingHandler(svc), cfg.JWTSecret, limit)
	router.RegisterAdmin(e, movieH, hallH,
		handler.NewDashboardHandler(st.movies, st.halls, st.users, svc, log),
		cfg.JWTSecret,
		middleware.PurgeOnWrite(cacheCfg, rdb, log, "movies", "halls"),
	)

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
	sched.Stop(shutdownCtx)
}
