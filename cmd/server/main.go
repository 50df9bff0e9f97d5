package main

import (
    "context"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/home-service-booking/internal/config"
    "github.com/iliyamo/home-service-booking/internal/database"
    "github.com/iliyamo/home-service-booking/internal/geoindex"
    "github.com/iliyamo/home-service-booking/internal/handler"
    "github.com/iliyamo/home-service-booking/internal/lifecycle"
    "github.com/iliyamo/home-service-booking/internal/matching"
    "github.com/iliyamo/home-service-booking/internal/middleware"
    "github.com/iliyamo/home-service-booking/internal/model"
    "github.com/iliyamo/home-service-booking/internal/payment"
    "github.com/iliyamo/home-service-booking/internal/queue"
    "github.com/iliyamo/home-service-booking/internal/realtime"
    "github.com/iliyamo/home-service-booking/internal/repository"
    "github.com/iliyamo/home-service-booking/internal/router"
    "github.com/iliyamo/home-service-booking/internal/tracking"
)

func main() {
    // .env is optional; real deployments inject the environment.
    _ = godotenv.Load()
    cfg := config.Load()

    if cfg.Env == "prod" {
        logrus.SetFormatter(&logrus.JSONFormatter{})
    }

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        logrus.WithError(err).Fatal("open database")
    }
    defer db.Close()

    // Redis backs the geo index and the rate limiter; nil degrades both.
    rdb := config.NewRedisClient()
    if rdb == nil {
        logrus.Warn("redis unavailable; matching hints and rate limiting disabled")
    }

    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    pros := repository.NewProfessionalRepo(db)
    services := repository.NewServiceRepo(db)
    bookings := repository.NewBookingRepo(db)
    settlements := repository.NewSettlementRepo(db)
    schedules := repository.NewScheduleRepo(db, bookings)

    geoIdx := geoindex.NewRedisIndex(rdb)
    publisher := realtime.NewPublisher(0)
    defer publisher.Close()

    engine := lifecycle.NewEngine(bookings, services, pros, geoIdx, publisher, cfg.CommissionRateBps)
    tracker := tracking.NewEngine(bookings, positionSink{geoIdx, pros}, publisher, cfg.AssumedSpeedKmh)
    finder := matching.NewFinder(geoIdx, services, schedules, cfg.AssumedSpeedKmh)
    verifier := payment.NewHMACVerifier(cfg.GatewaySecret)

    authH := handler.NewAuthHandler(cfg, users, tokens, pros)
    bookingH := handler.NewBookingHandler(engine, bookings, settlements)
    trackingH := handler.NewTrackingHandler(tracker)
    matchingH := handler.NewMatchingHandler(finder, services)
    proH := handler.NewProfessionalHandler(pros, schedules, settlements, geoIdx)

    e := echo.New()
    e.HideBanner = true

    limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

    router.RegisterRoutes(e, matchingH)
    router.RegisterAuth(e, authH, cfg.JWTSecret)
    router.RegisterBookings(e, bookingH, trackingH, matchingH, cfg.JWTSecret, limiter)
    router.RegisterPayments(e, bookingH, verifier.Verify, cfg.JWTSecret)
    router.RegisterProfessional(e, proH, cfg.JWTSecret)
    router.RegisterAdmin(e, proH, cfg.JWTSecret)

    go func() {
        if err := queue.StartStatusConsumer(); err != nil {
            logrus.WithError(err).Warn("status consumer stopped")
        }
    }()

    addr := ":" + cfg.Port
    logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
    if err := e.Start(addr); err != nil {
        logrus.WithError(err).Fatal("server stopped")
    }
}

// positionSink fans a professional's live position out to the Redis geo
// index (per capability category) and the durable last-seen columns.
// Both writes are hints; errors propagate so the tracking engine can log
// them without failing the sample.
type positionSink struct {
    idx  geoindex.Index
    pros *repository.ProfessionalRepo
}

func (s positionSink) UpdatePosition(ctx context.Context, professionalID uint64, p model.Point) error {
    now := time.Now().UTC()
    if err := s.pros.UpdatePosition(ctx, professionalID, p, now); err != nil {
        return err
    }
    cats, err := s.pros.Categories(ctx, professionalID)
    if err != nil || len(cats) == 0 {
        return err
    }
    return s.idx.UpdatePosition(ctx, professionalID, p, cats)
}
