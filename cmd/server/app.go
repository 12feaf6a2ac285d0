package main

import (
	"fmt"

	"civicadmin/config"
	"civicadmin/internal/database"
	"civicadmin/internal/repository"
	"civicadmin/internal/service"
	"civicadmin/internal/supabase"
	"civicadmin/pkg/cloudinary"

	"go.uber.org/zap"
)

type app struct {
	dashboard *service.Dashboard
	// repo is set only for the database source.
	repo  *repository.AdminRepository
	close func() error
}

func (a *app) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

// buildApp wires the configured data source and the optional integrations
// into a Dashboard. events may be nil for one-shot commands.
func buildApp(cfg *config.Config, log *zap.Logger, events service.Publisher) (*app, error) {
	a := &app{}
	var src service.Source
	switch cfg.Source.Kind {
	case "database":
		db, err := database.NewDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := database.AutoMigrate(db); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		a.close = sqlDB.Close
		a.repo = repository.NewAdminRepository(db)
		src = a.repo
	default:
		src = supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey, cfg.Supabase.Timeout)
	}

	opts := service.Options{
		ResolveReporters: cfg.Dashboard.ResolveReporters,
		FetchTimeout:     cfg.Dashboard.FetchTimeout,
		Events:           events,
	}
	if a.repo != nil {
		opts.Auditor = a.repo
	}
	if cfg.Cloudinary.CloudName != "" {
		thumbs, err := cloudinary.NewThumbnailer(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret, cfg.Cloudinary.ThumbSize)
		if err != nil {
			return nil, fmt.Errorf("cloudinary: %w", err)
		}
		opts.Thumbnailer = thumbs
	}
	if fcm := service.NewFCMService(cfg.Firebase.ServiceAccountPath, log); fcm != nil {
		log.Info("push notifications enabled")
		opts.Notifier = service.NewNotificationService(fcm, cfg.Firebase.TopicPrefix)
	} else if cfg.Firebase.ServiceAccountPath != "" {
		log.Warn("push notifications disabled: failed to init (check service account file)")
	}

	a.dashboard = service.NewDashboard(src, opts, log)
	return a, nil
}
