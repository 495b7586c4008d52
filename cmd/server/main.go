// Command server runs the family registration and approval API.
//
// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages. Every external
// system is optional: without Mongo the stores are in-memory, without Redis
// the serial allocator uses the Mongo counter (or memory), without Kafka
// audit events stay local, without SMTP approval emails are skipped.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"vanshavali/internal/approval"
	"vanshavali/internal/audit"
	"vanshavali/internal/member"
	"vanshavali/internal/notify"
	"vanshavali/internal/platform/config"
	"vanshavali/internal/platform/httpserver"
	"vanshavali/internal/platform/logger"
	"vanshavali/internal/platform/middleware"
	"vanshavali/internal/platform/mongodb"
	"vanshavali/internal/platform/redis"
	"vanshavali/internal/registration"
	"vanshavali/internal/rejected"
	"vanshavali/internal/serial"
	transport "vanshavali/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores.
	var (
		registrationStore registration.Store = registration.NewInMemory()
		memberStore       member.Store       = member.NewInMemory()
		rejectedStore     rejected.Store     = rejected.NewInMemory()
		auditStore        audit.Store        = audit.NewInMemoryStore()
		mongoClient       *mongodb.Client
	)
	if cfg.Mongo.URI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		client, err := mongodb.Connect(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database)
		cancel()
		if err != nil {
			log.Error("mongodb connection failed", "error", err)
			os.Exit(1)
		}
		mongoClient = client
		defer func() { _ = client.Disconnect(context.Background()) }()

		if err := mongodb.EnsureIndexes(ctx, client); err != nil {
			log.Error("mongodb index bootstrap failed", "error", err)
			os.Exit(1)
		}
		registrationStore = registration.NewMongo(client)
		memberStore = member.NewMongo(client)
		rejectedStore = rejected.NewMongo(client)
		auditStore = audit.NewMongoStore(client)
		log.Info("mongodb connected", "database", cfg.Mongo.Database)
	} else {
		log.Warn("MONGO_URI not set, using in-memory stores")
	}

	// Serial allocator: Redis when configured, otherwise the Mongo counter,
	// otherwise memory. Whatever the backend, it is seeded past the highest
	// serial already assigned.
	var allocator serial.Allocator
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	switch {
	case redisClient != nil:
		allocator = serial.NewRedis(redisClient.Client)
		defer redisClient.Close()
		log.Info("serial allocator using redis")
	case mongoClient != nil:
		allocator = serial.NewMongo(mongoClient.DB.Collection(mongodb.CollCounters))
		log.Info("serial allocator using mongodb counters")
	default:
		allocator = serial.NewMemory(0)
	}
	maxSerNo, err := memberStore.MaxSerNo(ctx)
	if err != nil {
		log.Error("failed to read max serial number", "error", err)
		os.Exit(1)
	}
	if err := allocator.Ensure(ctx, maxSerNo); err != nil {
		log.Error("failed to seed serial allocator", "error", err)
		os.Exit(1)
	}

	// Audit pipeline.
	auditOpts := []audit.PublisherOption{audit.WithLogger(log)}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka audit sink failed", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		auditOpts = append(auditOpts, audit.WithSink(sink))
		log.Info("audit events mirrored to kafka", "brokers", cfg.Kafka.Brokers)
	}
	auditPub := audit.NewPublisher(auditStore, auditOpts...)

	// Mailer.
	var mailer notify.Mailer = notify.NopMailer{}
	if cfg.SMTP.Host != "" {
		mailer = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.Username,
			Password:  cfg.SMTP.Password,
			From:      cfg.SMTP.From,
			PortalURL: cfg.SMTP.PortalURL,
		})
		log.Info("smtp mailer configured", "host", cfg.SMTP.Host)
	} else {
		log.Warn("SMTP_HOST not set, approval emails disabled")
	}

	// Services.
	regSvc := registration.NewService(registrationStore,
		registration.WithLogger(log),
		registration.WithMetrics(registration.NewMetrics()))
	memSvc := member.NewService(memberStore,
		member.WithLogger(log),
		member.WithAuditPublisher(auditPub))
	rejSvc := rejected.NewService(rejectedStore,
		rejected.WithLogger(log),
		rejected.WithAuditPublisher(auditPub))
	appSvc := approval.NewService(registrationStore, memberStore, rejectedStore, allocator,
		approval.WithLogger(log),
		approval.WithMailer(mailer),
		approval.WithAuditPublisher(auditPub),
		approval.WithMetrics(approval.NewMetrics()))

	router := transport.NewRouter(transport.Deps{
		Registrations: transport.NewRegistrationHandler(regSvc, appSvc, log),
		Members:       transport.NewMemberHandler(memSvc, log),
		Rejections:    transport.NewRejectedHandler(rejSvc, log),
		Audit:         transport.NewAuditHandler(auditPub, log),
		Validator:     middleware.NewJWTValidator(cfg.Server.JWTSigningKey),
		Logger:        log,
		Health: func(ctx context.Context) error {
			if mongoClient != nil {
				if err := mongoClient.Ping(ctx, nil); err != nil {
					return err
				}
			}
			if redisClient != nil {
				return redisClient.Health(ctx)
			}
			return nil
		},
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
