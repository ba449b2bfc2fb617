package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/mintmarket/marketd/internal/core/application"
	"github.com/mintmarket/marketd/internal/core/ports"
	"github.com/mintmarket/marketd/internal/infrastructure/db"
	inmemorylivestore "github.com/mintmarket/marketd/internal/infrastructure/live-store/inmemory"
	redislivestore "github.com/mintmarket/marketd/internal/infrastructure/live-store/redis"
	inmemorypayments "github.com/mintmarket/marketd/internal/infrastructure/payments/inmemory"
	inmemoryregistry "github.com/mintmarket/marketd/internal/infrastructure/registry/inmemory"
	timescheduler "github.com/mintmarket/marketd/internal/infrastructure/scheduler/gocron"
)

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}

var (
	supportedEventDbs = supportedType{
		"badger": {},
	}
	supportedDbs = supportedType{
		"badger": {},
		"sqlite": {},
	}
	supportedLiveStores = supportedType{
		"inmemory": {},
		"redis":    {},
	}
	supportedRegistries = supportedType{
		"inmemory": {},
	}
	supportedPayments = supportedType{
		"inmemory": {},
	}
)

type Config struct {
	Datadir  string
	Port     uint32
	LogLevel int

	DbType        string
	EventDbType   string
	DbDir         string
	EventDbDir    string
	LiveStoreType string
	RedisUrl      string
	RegistryType  string
	PaymentsType  string

	FeeRateBps            uint64
	Admin                 string
	SettlementCoordinator string

	HeartbeatInterval     int64
	ExpiredOffersInterval int64

	repo      ports.RepoManager
	liveStore ports.LiveStore
	registry  *inmemoryregistry.Registry
	payments  *inmemorypayments.Ledger
	scheduler ports.SchedulerService
	clock     ports.Clock
	svc       application.Service
	escrowSvc application.EscrowService
	adminSvc  application.AdminService
}

func (c *Config) String() string {
	clone := *c
	encoded, err := json.MarshalIndent(clone, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(encoded)
}

var (
	defaultDatadir               = dataDir()
	DefaultPort                  = 7080
	defaultLogLevel              = 4
	defaultDbType                = "badger"
	defaultEventDbType           = "badger"
	defaultLiveStoreType         = "inmemory"
	defaultRegistryType          = "inmemory"
	defaultPaymentsType          = "inmemory"
	defaultFeeRateBps            = 250
	defaultHeartbeatInterval     = 60   // seconds
	defaultExpiredOffersInterval = 3600 // seconds
)

// env returns a list of strings prefixed with `MARKETD_`.
// This is used as a syntax sugar for defining env vars.
func env(values ...string) []string {
	envs := make([]string, len(values))

	for i, value := range values {
		envs[i] = fmt.Sprintf("MARKETD_%s", value)
	}

	return envs
}

var (
	Datadir = &cli.StringFlag{
		Usage: "Directory to store data",
		Name:  "datadir", EnvVars: env("DATADIR"),
		Value: defaultDatadir,
	}

	Port = &cli.UintFlag{
		Usage: "Port to listen on",
		Name:  "port", EnvVars: env("PORT"),
		Value: uint(DefaultPort),
	}

	LogLevel = &cli.IntFlag{
		Usage: "Logging level (0-6, where 6 is trace)",
		Name:  "log-level", EnvVars: env("LOG_LEVEL"),
		Value: defaultLogLevel,
	}

	DbType = &cli.StringFlag{
		Usage: "Database type (badger, sqlite)",
		Name:  "db-type", EnvVars: env("DB_TYPE"),
		Value: defaultDbType,
	}

	EventDbType = &cli.StringFlag{
		Usage: "Event database type (badger)",
		Name:  "event-db-type", EnvVars: env("EVENT_DB_TYPE"),
		Value: defaultEventDbType,
	}

	LiveStoreType = &cli.StringFlag{
		Usage: "Live store type (inmemory, redis)",
		Name:  "live-store-type", EnvVars: env("LIVE_STORE_TYPE"),
		Value: defaultLiveStoreType,
	}

	RedisUrl = &cli.StringFlag{
		Usage: "Redis connection url if MARKETD_LIVE_STORE_TYPE is set to redis",
		Name:  "redis-url", EnvVars: env("REDIS_URL"),
	}

	RegistryType = &cli.StringFlag{
		Usage: "Asset registry type (inmemory)",
		Name:  "registry-type", EnvVars: env("REGISTRY_TYPE"),
		Value: defaultRegistryType,
	}

	PaymentsType = &cli.StringFlag{
		Usage: "Payment service type (inmemory)",
		Name:  "payments-type", EnvVars: env("PAYMENTS_TYPE"),
		Value: defaultPaymentsType,
	}

	FeeRateBps = &cli.Uint64Flag{
		Usage: "Marketplace fee rate in basis points",
		Name:  "fee-rate-bps", EnvVars: env("FEE_RATE_BPS"),
		Value: uint64(defaultFeeRateBps),
	}

	Admin = &cli.StringFlag{
		Usage: "Administrator identity entitled to update settings and claim fees",
		Name:  "admin", EnvVars: env("ADMIN"),
		Value: "admin",
	}

	SettlementCoordinator = &cli.StringFlag{
		Usage: "Settlement coordinator identity entitled to drive escrows",
		Name:  "settlement-coordinator", EnvVars: env("SETTLEMENT_COORDINATOR"),
		Value: "coordinator",
	}

	HeartbeatInterval = &cli.Int64Flag{
		Usage: "Interval in seconds between heartbeat logs, 0 to disable",
		Name:  "heartbeat-interval", EnvVars: env("HEARTBEAT_INTERVAL"),
		Value: int64(defaultHeartbeatInterval),
	}

	ExpiredOffersInterval = &cli.Int64Flag{
		Usage: "Interval in seconds between expired offers reports, 0 to disable",
		Name:  "expired-offers-interval", EnvVars: env("EXPIRED_OFFERS_INTERVAL"),
		Value: int64(defaultExpiredOffersInterval),
	}
)

var Flags = []cli.Flag{
	Datadir,
	Port,
	LogLevel,
	DbType,
	EventDbType,
	LiveStoreType,
	RedisUrl,
	RegistryType,
	PaymentsType,
	FeeRateBps,
	Admin,
	SettlementCoordinator,
	HeartbeatInterval,
	ExpiredOffersInterval,
}

func LoadConfig(c *cli.Context) (*Config, error) {
	if err := initDatadir(c); err != nil {
		return nil, fmt.Errorf("failed to create datadir: %s", err)
	}

	dbPath := filepath.Join(c.String(Datadir.Name), "db")

	var redisUrl string
	if c.String(LiveStoreType.Name) == "redis" {
		redisUrl = c.String(RedisUrl.Name)
		if redisUrl == "" {
			return nil, fmt.Errorf("live store type set to 'redis' but redis url is missing")
		}
	}

	return &Config{
		Datadir:               c.String(Datadir.Name),
		Port:                  uint32(c.Uint(Port.Name)),
		LogLevel:              c.Int(LogLevel.Name),
		DbType:                c.String(DbType.Name),
		EventDbType:           c.String(EventDbType.Name),
		DbDir:                 dbPath,
		EventDbDir:            dbPath,
		LiveStoreType:         c.String(LiveStoreType.Name),
		RedisUrl:              redisUrl,
		RegistryType:          c.String(RegistryType.Name),
		PaymentsType:          c.String(PaymentsType.Name),
		FeeRateBps:            c.Uint64(FeeRateBps.Name),
		Admin:                 c.String(Admin.Name),
		SettlementCoordinator: c.String(SettlementCoordinator.Name),
		HeartbeatInterval:     c.Int64(HeartbeatInterval.Name),
		ExpiredOffersInterval: c.Int64(ExpiredOffersInterval.Name),
	}, nil
}

func initDatadir(c *cli.Context) error {
	datadir := c.String(Datadir.Name)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0o755)
	}
	return nil
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".marketd"
	}
	return filepath.Join(home, ".marketd")
}

func (c *Config) Validate() error {
	if !supportedEventDbs.supports(c.EventDbType) {
		return fmt.Errorf(
			"event db type not supported, please select one of: %s", supportedEventDbs,
		)
	}
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if !supportedLiveStores.supports(c.LiveStoreType) {
		return fmt.Errorf(
			"live store type not supported, please select one of: %s", supportedLiveStores,
		)
	}
	if !supportedRegistries.supports(c.RegistryType) {
		return fmt.Errorf(
			"registry type not supported, please select one of: %s", supportedRegistries,
		)
	}
	if !supportedPayments.supports(c.PaymentsType) {
		return fmt.Errorf(
			"payments type not supported, please select one of: %s", supportedPayments,
		)
	}
	if c.Admin == "" {
		return fmt.Errorf("missing administrator identity")
	}
	if c.SettlementCoordinator == "" {
		return fmt.Errorf("missing settlement coordinator identity")
	}

	if err := c.repoManager(); err != nil {
		return err
	}
	if err := c.liveStoreService(); err != nil {
		return err
	}
	if err := c.schedulerService(); err != nil {
		return err
	}
	c.registry = inmemoryregistry.NewRegistry()
	c.payments = inmemorypayments.NewLedger()
	c.clock = ports.SystemClock{}
	return nil
}

func (c *Config) MarketService() (application.Service, error) {
	if c.svc == nil {
		if err := c.appService(); err != nil {
			return nil, err
		}
	}
	return c.svc, nil
}

func (c *Config) EscrowService() application.EscrowService {
	if c.escrowSvc == nil {
		c.escrowSvc = application.NewEscrowService(c.repo, c.payments, c.liveStore, c.clock)
	}
	return c.escrowSvc
}

func (c *Config) AdminService() application.AdminService {
	if c.adminSvc == nil {
		c.adminSvc = application.NewAdminService(c.repo, c.clock)
	}
	return c.adminSvc
}

func (c *Config) SchedulerService() ports.SchedulerService {
	return c.scheduler
}

func (c *Config) RepoManager() ports.RepoManager {
	return c.repo
}

func (c *Config) AssetRegistry() *inmemoryregistry.Registry {
	return c.registry
}

func (c *Config) PaymentService() *inmemorypayments.Ledger {
	return c.payments
}

func (c *Config) repoManager() error {
	var eventStoreConfig []interface{}
	var dataStoreConfig []interface{}
	var badgerLogger interface{} // badger is noisy, keep it quiet

	switch c.EventDbType {
	case "badger":
		eventStoreConfig = []interface{}{c.EventDbDir, badgerLogger}
	default:
		return fmt.Errorf("unknown event db type")
	}

	switch c.DbType {
	case "badger":
		dataStoreConfig = []interface{}{c.DbDir, badgerLogger}
	case "sqlite":
		dataStoreConfig = []interface{}{c.DbDir}
	default:
		return fmt.Errorf("unknown db type")
	}

	repo, err := db.NewService(db.ServiceConfig{
		EventStoreType:   c.EventDbType,
		DataStoreType:    c.DbType,
		EventStoreConfig: eventStoreConfig,
		DataStoreConfig:  dataStoreConfig,
	})
	if err != nil {
		return err
	}
	c.repo = repo
	return nil
}

func (c *Config) liveStoreService() error {
	switch c.LiveStoreType {
	case "inmemory":
		c.liveStore = inmemorylivestore.NewLiveStore()
	case "redis":
		redisOpts, err := redis.ParseURL(c.RedisUrl)
		if err != nil {
			return fmt.Errorf("failed to parse redis url: %s", err)
		}
		rdb := redis.NewClient(redisOpts)
		c.liveStore = redislivestore.NewLiveStore(rdb)
	default:
		return fmt.Errorf("unknown live store type")
	}
	return nil
}

func (c *Config) schedulerService() error {
	c.scheduler = timescheduler.NewScheduler()
	return nil
}

func (c *Config) appService() error {
	svc, err := application.NewMarketService(
		c.repo, c.registry, c.registry, c.payments, c.liveStore, c.clock,
	)
	if err != nil {
		return err
	}
	c.svc = svc
	return nil
}
