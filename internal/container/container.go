package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tourguide-auth/config"
	repouser "github.com/oksasatya/tourguide-auth/internal/domain/repository"
	"github.com/oksasatya/tourguide-auth/internal/infrastructure/search"
	gcsinfra "github.com/oksasatya/tourguide-auth/internal/infrastructure/storage"
	"github.com/oksasatya/tourguide-auth/pkg/helpers"
	"github.com/oksasatya/tourguide-auth/pkg/mailer"
)

// app-level container to share constructed components across packages.
// cmd/main.go fills it; router.DepsFromContainer reads it.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	gcsClient   *storage.Client
	esClient    *elasticsearch.Client

	jwtManager *helpers.JWTManager
	rabbitPub  *helpers.RabbitPublisher

	users     repouser.UserRepository
	notifier  mailer.Notifier
	userIndex *search.UserIndex
	photos    *gcsinfra.GCSPhotoStorage
)

func SetConfig(c *config.Config)    { cfg = c }
func GetConfig() *config.Config     { return cfg }
func SetLogger(l *logrus.Logger)    { logger = l }
func GetLogger() *logrus.Logger     { return logger }
func SetPGPool(p *pgxpool.Pool)     { pgPool = p }
func GetPGPool() *pgxpool.Pool      { return pgPool }
func SetRedis(r *redis.Client)      { redisClient = r }
func GetRedis() *redis.Client       { return redisClient }
func SetGCS(s *storage.Client)      { gcsClient = s }
func GetGCS() *storage.Client       { return gcsClient }
func SetES(c *elasticsearch.Client) { esClient = c }
func GetES() *elasticsearch.Client  { return esClient }
func SetJWT(m *helpers.JWTManager)  { jwtManager = m }
func GetJWT() *helpers.JWTManager {
	if jwtManager == nil && cfg != nil {
		jwtManager = helpers.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiresIn)
	}
	return jwtManager
}
func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }

func SetUsers(r repouser.UserRepository) { users = r }
func GetUsers() repouser.UserRepository  { return users }

func SetNotifier(n mailer.Notifier) { notifier = n }

// GetNotifier falls back to logging when no transport was registered.
func GetNotifier() mailer.Notifier {
	if notifier == nil {
		return mailer.LogNotifier{Logger: logger}
	}
	return notifier
}

func SetUserIndex(i *search.UserIndex)            { userIndex = i }
func GetUserIndex() *search.UserIndex             { return userIndex }
func SetPhotoStorage(p *gcsinfra.GCSPhotoStorage) { photos = p }
func GetPhotoStorage() *gcsinfra.GCSPhotoStorage  { return photos }
