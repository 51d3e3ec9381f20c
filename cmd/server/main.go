package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/selfreg/api/handler"
	"github.com/fastygo/selfreg/internal/config"
	"github.com/fastygo/selfreg/internal/identity"
	"github.com/fastygo/selfreg/internal/infrastructure/monitor"
	"github.com/fastygo/selfreg/internal/mail"
	"github.com/fastygo/selfreg/internal/middleware"
	"github.com/fastygo/selfreg/internal/page"
	"github.com/fastygo/selfreg/internal/router"
	"github.com/fastygo/selfreg/internal/services/lifecycle"
	"github.com/fastygo/selfreg/pkg/httpcontext"
	"github.com/fastygo/selfreg/pkg/logger"
	registrationUC "github.com/fastygo/selfreg/usecase/registration"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	identityClient, err := identity.NewClient(identity.Config{
		Endpoint:        cfg.Identity.Endpoint,
		Timeout:         cfg.Identity.Timeout,
		MaxConnsPerHost: cfg.Identity.MaxConnsPerHost,
	}, zapLogger.Named("identity"))
	if err != nil {
		zapLogger.Fatal("identity client setup failed", zap.Error(err))
	}

	smtpSender := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		Timeout:  cfg.Mail.Timeout,
	})
	mailer := mail.NewService(cfg.Mail.TemplateDir, smtpSender, zapLogger.Named("mail"))

	mon := monitor.New(identityClient, smtpSender, cfg.Monitor.Interval, zapLogger.Named("monitor"))
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop(ctx)
		return nil
	})

	registrationUseCase := registrationUC.New(identityClient, mailer, registrationUC.Settings{
		LinkPrefix:   cfg.Registration.LinkPrefix,
		FromAddress:  cfg.Mail.From,
		ExtensionURN: cfg.Registration.ExtensionURN,
		TokenField:   cfg.Registration.ActivationTokenField,
		DefaultRole:  cfg.Registration.DefaultRole,
	}, zapLogger.Named("registration"))

	form := page.NewRenderer(cfg.Registration.PagePath, map[string]string{
		"$REGISTERLINK": cfg.Registration.ClientRegistrationURI,
		"$BOOTSTRAP":    cfg.Registration.BootstrapURL,
		"$ANGULAR":      cfg.Registration.AngularURL,
		"$JQUERY":       cfg.Registration.JQueryURL,
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Registration: apiHandler.NewRegistrationHandler(registrationUseCase, form, ctxAdapter, zapLogger),
		Health:       apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	r := router.New(handlers, middleware.RequireCredential(zapLogger))

	server := &fasthttp.Server{
		Handler:      middleware.RequestLog(zapLogger)(r.Handler),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("identity", cfg.Identity.Endpoint),
			zap.String("smtp", cfg.SMTPAddress()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
