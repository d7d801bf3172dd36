package main

import (
	"context"
	"fmt"

	"github.com/ridebook/ride-booking/internal/config"
	"github.com/ridebook/ride-booking/internal/domain/location"
	"github.com/ridebook/ride-booking/internal/domain/trip"
	"github.com/ridebook/ride-booking/internal/repository/memory"
	"github.com/ridebook/ride-booking/internal/repository/mongodb"
	"github.com/ridebook/ride-booking/internal/repository/postgres"
	"github.com/ridebook/ride-booking/pkg/database"
	"github.com/ridebook/ride-booking/pkg/logger"
)

// stores bundles the backends selected by STORE_DRIVER
type stores struct {
	Trips     trip.Repository
	Locations location.Store
	closers   []func()
}

// Close releases the backend connections
func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(cfg *config.Config, log *logger.Logger) (*stores, error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		log.Info("Using in-memory store")
		return &stores{
			Trips:     memory.NewTripRepository(),
			Locations: memory.NewDefaultLocationStore(),
		}, nil

	case config.StorePostgres:
		db, err := database.NewPostgresDB(database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.Name,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.MaxConnections,
			MaxIdle:  cfg.Database.MaxIdleConns,
		})
		if err != nil {
			return nil, err
		}
		if cfg.Store.Migrate {
			if err := database.Migrate(db); err != nil {
				db.Close()
				return nil, err
			}
			log.Info("Database migrations applied")
		}
		log.Info("Connected to PostgreSQL successfully")
		return &stores{
			Trips:     postgres.NewTripRepository(db),
			Locations: postgres.NewLocationStore(db),
			closers:   []func(){func() { _ = db.Close() }},
		}, nil

	case config.StoreMongo:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
		defer cancel()

		client, db, err := database.NewMongoDB(ctx, database.MongoConfig{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  cfg.Mongo.Timeout,
		})
		if err != nil {
			return nil, err
		}
		repo := mongodb.NewTripRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		log.Info("Connected to MongoDB successfully", logger.String("database", cfg.Mongo.Database))
		// the location catalog is static and served from memory
		return &stores{
			Trips:     repo,
			Locations: memory.NewDefaultLocationStore(),
			closers: []func(){func() {
				ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
				defer cancel()
				_ = client.Disconnect(ctx)
			}},
		}, nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
