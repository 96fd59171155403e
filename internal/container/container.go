package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/clinical-monitor/config"
	"github.com/oksasatya/clinical-monitor/pkg/helpers"
)

// app-level container to share constructed components across packages.
// The router wires its modules from these singletons. Optional clients
// (GCS, RabbitMQ, Elasticsearch) stay nil when not configured.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	avatars     *helpers.GCSUploader

	jwtManager *helpers.JWTManager

	rabbitPub *helpers.RabbitPublisher
	esClient  *elasticsearch.Client
)

func SetConfig(c *config.Config)        { cfg = c }
func GetConfig() *config.Config         { return cfg }
func SetLogger(l *logrus.Logger)        { logger = l }
func GetLogger() *logrus.Logger         { return logger }
func SetPGPool(p *pgxpool.Pool)         { pgPool = p }
func GetPGPool() *pgxpool.Pool          { return pgPool }
func SetRedis(r *redis.Client)          { redisClient = r }
func GetRedis() *redis.Client           { return redisClient }
func SetAvatars(u *helpers.GCSUploader) { avatars = u }
func GetAvatars() *helpers.GCSUploader  { return avatars }
func SetJWT(m *helpers.JWTManager)      { jwtManager = m }
func GetJWT() *helpers.JWTManager {
	if jwtManager != nil {
		return jwtManager
	}
	c := GetConfig()
	if c == nil {
		c = config.Load()
	}
	return helpers.NewJWTManager(c.SessionSecret, c.SessionTTL)
}

func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }
