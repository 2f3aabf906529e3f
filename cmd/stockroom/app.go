package main

import (
	"context"
	"errors"
	"strings"

	"github.com/emberline/stockroom/internal/auth"
	"github.com/emberline/stockroom/internal/config"
	"github.com/emberline/stockroom/internal/database"
	"github.com/emberline/stockroom/internal/inventory"
	"github.com/emberline/stockroom/internal/logging"
	"github.com/emberline/stockroom/internal/users"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const systemAccountName = "system"

var errSignInRequired = errors.New("sign in required: pass --user and --password")

// app is the wired set of services every command runs against.
type app struct {
	config   config.AppConfig
	logger   *zap.Logger
	users    *users.Service
	store    *inventory.Store
	tokens   *auth.TokenIssuer
	presence *auth.PresenceDispatcher
	gate     *auth.Gate
	close    func()
}

func openApp(ctx context.Context) (*app, error) {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel, appConfig.LogFormat)
	if err != nil {
		return nil, err
	}

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	userService, err := users.NewService(users.ServiceConfig{Database: db, Logger: logger})
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	// The system account owns level 0 and is never signed in interactively,
	// so its password is random on first creation.
	if _, created, err := userService.EnsureAccount(ctx, systemAccountName, uuid.NewString(), users.SystemLevel); err != nil {
		sqlDB.Close()
		return nil, err
	} else if created {
		logger.Info("system account created", zap.String("name", systemAccountName))
	}

	store, err := inventory.NewStore(inventory.StoreConfig{Database: db, Logger: logger})
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	tokens, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		TokenTTL:      appConfig.SessionTTL,
	})
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	presence := auth.NewPresenceDispatcher()
	gate, err := auth.NewGate(auth.GateConfig{
		Credentials: userService,
		Accounts:    userService,
		Tokens:      tokens,
		Presence:    presence,
		WriteLevel:  appConfig.WriteLevel,
		AdminLevel:  appConfig.AdminLevel,
		Logger:      logger,
	})
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &app{
		config:   appConfig,
		logger:   logger,
		users:    userService,
		store:    store,
		tokens:   tokens,
		presence: presence,
		gate:     gate,
		close: func() {
			_ = logger.Sync()
			_ = sqlDB.Close()
		},
	}, nil
}

// signIn signs the gate in with the --user and --password flags.
func (a *app) signIn(ctx context.Context) error {
	name := strings.TrimSpace(viper.GetString("cli.user"))
	if name == "" {
		return errSignInRequired
	}
	_, err := a.gate.SignIn(ctx, name, viper.GetString("cli.password"))
	return err
}

// withApp opens the application for one command run and optionally signs in
// first.
func withApp(ctx context.Context, signIn bool, run func(*app) error) error {
	application, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer application.close()
	if signIn {
		if err := application.signIn(ctx); err != nil {
			return err
		}
		defer application.gate.SignOut()
	}
	return run(application)
}
