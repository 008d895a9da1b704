package factory

import (
	"context"
	"eventhub-backend/config"
	"eventhub-backend/logger"
	"eventhub-backend/store"
	"sync"

	firebase "firebase.google.com/go"
	"github.com/go-redis/redis"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/api/option"
)

var db sync.Once
var fa sync.Once
var rd sync.Once

type Factory interface {
	Store(ctx context.Context) *store.Store
	FirebaseApp(ctx context.Context) *firebase.App
	Redis(ctx context.Context) *redis.Client
}

type factory struct {
	store *store.Store
	app   *firebase.App
	redis *redis.Client
}

func NewFactory() Factory {
	return &factory{}
}

func (f *factory) Store(ctx context.Context) *store.Store {
	db.Do(func() {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(viper.GetString(config.MongoURI)))
		if err != nil {
			logger.Fatalf(ctx, "store: could not connect to the document store: %+v", err)
		}

		s := store.New(client.Database(viper.GetString(config.MongoDatabase)))
		if err := s.EnsureIndexes(ctx); err != nil {
			logger.Fatalf(ctx, "store: could not ensure indexes: %+v", err)
		}

		f.store = s
	})

	return f.store
}

func (f *factory) FirebaseApp(ctx context.Context) *firebase.App {
	fa.Do(func() {
		opt := option.WithCredentialsFile(viper.GetString(config.FirebaseServiceAccountKeyPath))
		app, err := firebase.NewApp(context.Background(), nil, opt)
		if err != nil {
			logger.Fatalf(ctx, "firebaseApp: error initializing firebase app: %+v", err)
		}

		f.app = app
	})

	return f.app
}

func (f *factory) Redis(ctx context.Context) *redis.Client {
	rd.Do(func() {
		f.redis = redis.NewClient(&redis.Options{
			Addr:     viper.GetString(config.RedisAddress),
			Password: viper.GetString(config.RedisPassword),
			DB:       viper.GetInt(config.RedisDB),
		})
	})

	return f.redis
}
