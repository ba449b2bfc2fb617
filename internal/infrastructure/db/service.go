package db

import (
	"embed"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/mintmarket/marketd/internal/core/domain"
	"github.com/mintmarket/marketd/internal/core/ports"
	badgerdb "github.com/mintmarket/marketd/internal/infrastructure/db/badger"
	sqlitedb "github.com/mintmarket/marketd/internal/infrastructure/db/sqlite"
)

//go:embed sqlite/migration/*
var migrations embed.FS

const sqliteDbFile = "marketd.sqlite"

var (
	eventStoreTypes = map[string]func(...interface{}) (domain.EventRepository, error){
		"badger": badgerdb.NewEventRepository,
	}
	listingStoreTypes = map[string]func(...interface{}) (domain.ListingRepository, error){
		"badger": badgerdb.NewListingRepository,
		"sqlite": sqlitedb.NewListingRepository,
	}
	offerStoreTypes = map[string]func(...interface{}) (domain.OfferRepository, error){
		"badger": badgerdb.NewOfferRepository,
		"sqlite": sqlitedb.NewOfferRepository,
	}
	escrowStoreTypes = map[string]func(...interface{}) (domain.EscrowRepository, error){
		"badger": badgerdb.NewEscrowRepository,
		"sqlite": sqlitedb.NewEscrowRepository,
	}
	investmentStoreTypes = map[string]func(...interface{}) (domain.InvestmentRepository, error){
		"badger": badgerdb.NewInvestmentRepository,
		"sqlite": sqlitedb.NewInvestmentRepository,
	}
	settingsStoreTypes = map[string]func(...interface{}) (domain.SettingsRepository, error){
		"badger": badgerdb.NewSettingsRepository,
		"sqlite": sqlitedb.NewSettingsRepository,
	}
)

type ServiceConfig struct {
	EventStoreType string
	DataStoreType  string

	EventStoreConfig []interface{}
	DataStoreConfig  []interface{}
}

type service struct {
	eventStore      domain.EventRepository
	listingStore    domain.ListingRepository
	offerStore      domain.OfferRepository
	escrowStore     domain.EscrowRepository
	investmentStore domain.InvestmentRepository
	settingsStore   domain.SettingsRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	eventStoreFactory, ok := eventStoreTypes[config.EventStoreType]
	if !ok {
		return nil, fmt.Errorf("event store type not supported")
	}
	listingStoreFactory, ok := listingStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	offerStoreFactory, ok := offerStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	escrowStoreFactory, ok := escrowStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	investmentStoreFactory, ok := investmentStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	settingsStoreFactory, ok := settingsStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}

	eventStore, err := eventStoreFactory(config.EventStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %s", err)
	}

	var listingStore domain.ListingRepository
	var offerStore domain.OfferRepository
	var escrowStore domain.EscrowRepository
	var investmentStore domain.InvestmentRepository
	var settingsStore domain.SettingsRepository

	switch config.DataStoreType {
	case "badger":
		listingStore, err = listingStoreFactory(config.DataStoreConfig...)
		if err != nil {
			return nil, fmt.Errorf("failed to open listing store: %s", err)
		}
		offerStore, err = offerStoreFactory(config.DataStoreConfig...)
		if err != nil {
			return nil, fmt.Errorf("failed to open offer store: %s", err)
		}
		escrowStore, err = escrowStoreFactory(config.DataStoreConfig...)
		if err != nil {
			return nil, fmt.Errorf("failed to open escrow store: %s", err)
		}
		investmentStore, err = investmentStoreFactory(config.DataStoreConfig...)
		if err != nil {
			return nil, fmt.Errorf("failed to open investment store: %s", err)
		}
		settingsStore, err = settingsStoreFactory(config.DataStoreConfig...)
		if err != nil {
			return nil, fmt.Errorf("failed to open settings store: %s", err)
		}

	case "sqlite":
		if len(config.DataStoreConfig) != 1 {
			return nil, fmt.Errorf("invalid data store config")
		}

		baseDir, ok := config.DataStoreConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid base directory")
		}

		dbFile := filepath.Join(baseDir, sqliteDbFile)
		db, err := sqlitedb.OpenDb(dbFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open db: %s", err)
		}

		driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to init driver: %s", err)
		}

		source, err := iofs.New(migrations, "sqlite/migration")
		if err != nil {
			return nil, fmt.Errorf("failed to embed migrations: %s", err)
		}

		m, err := migrate.NewWithInstance("iofs", source, "marketdb", driver)
		if err != nil {
			return nil, fmt.Errorf("failed to create migration instance: %s", err)
		}

		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, fmt.Errorf("failed to run migrations: %s", err)
		}

		listingStore, err = listingStoreFactory(db)
		if err != nil {
			return nil, fmt.Errorf("failed to open listing store: %s", err)
		}
		offerStore, err = offerStoreFactory(db)
		if err != nil {
			return nil, fmt.Errorf("failed to open offer store: %s", err)
		}
		escrowStore, err = escrowStoreFactory(db)
		if err != nil {
			return nil, fmt.Errorf("failed to open escrow store: %s", err)
		}
		investmentStore, err = investmentStoreFactory(db)
		if err != nil {
			return nil, fmt.Errorf("failed to open investment store: %s", err)
		}
		settingsStore, err = settingsStoreFactory(db)
		if err != nil {
			return nil, fmt.Errorf("failed to open settings store: %s", err)
		}

	default:
		return nil, fmt.Errorf("unknown data store db type")
	}

	return &service{
		eventStore:      eventStore,
		listingStore:    listingStore,
		offerStore:      offerStore,
		escrowStore:     escrowStore,
		investmentStore: investmentStore,
		settingsStore:   settingsStore,
	}, nil
}

func (s *service) Listings() domain.ListingRepository {
	return s.listingStore
}

func (s *service) Offers() domain.OfferRepository {
	return s.offerStore
}

func (s *service) Escrows() domain.EscrowRepository {
	return s.escrowStore
}

func (s *service) Investments() domain.InvestmentRepository {
	return s.investmentStore
}

func (s *service) Settings() domain.SettingsRepository {
	return s.settingsStore
}

func (s *service) Events() domain.EventRepository {
	return s.eventStore
}

func (s *service) Close() {
	s.eventStore.Close()
	s.listingStore.Close()
	s.offerStore.Close()
	s.escrowStore.Close()
	s.investmentStore.Close()
	s.settingsStore.Close()
}
