package db

import (
	"context"
	"log"

	"fieldbook/internal/env"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var Ctx = context.Background()
var RDB *redis.Client
var Client *mongo.Client

var Accounts *mongo.Collection
var Sources *mongo.Collection
var Submissions *mongo.Collection
var Views *mongo.Collection
var ViewEntries *mongo.Collection
var Imports *mongo.Collection
var Events *mongo.Collection
var Sequences *mongo.Collection

func InitDB(deployment string) error {
	var err error

	Client, err = mongo.Connect(
		Ctx,
		options.Client().ApplyURI(env.MONGO_URI),
	)
	if err != nil {
		return err
	}

	err = Client.Ping(Ctx, nil)
	if err != nil {
		log.Fatal("COULD NOT CONNECT TO MONGODB")
		return err
	}

	database := "fieldbook"
	if deployment != "" {
		database = "fieldbook_" + deployment
	}

	// loading collections
	Accounts = GetCollection(database, "accounts", Client)
	Sources = GetCollection(database, "sources", Client)
	Submissions = GetCollection(database, "submissions", Client)
	Views = GetCollection(database, "views", Client)
	ViewEntries = GetCollection(database, "viewentries", Client)
	Imports = GetCollection(database, "imports", Client)
	Events = GetCollection(database, "events", Client)
	Sequences = GetCollection(database, "sequences", Client)

	return nil
}

func GetCollection(database string, collectionName string, client *mongo.Client) *mongo.Collection {
	return client.Database(database).Collection(collectionName)
}

func InitCache() error {
	var err error

	RDB = redis.NewClient(&redis.Options{
		Addr:     env.REDIS_ADDR,
		Password: "",
		DB:       15,
	})

	err = RDB.Ping(Ctx).Err()
	if err != nil {
		log.Fatal("COULD NOT CONNECT TO REDIS")
		return err
	}

	return nil
}

func CacheSet(key string, value string) error {
	return RDB.Set(Ctx, key, value, 0).Err()
}

func CacheSetBytes(key string, value []byte) error {
	return RDB.Set(Ctx, key, value, 0).Err()
}

func CacheGet(key string) (string, error) {
	return RDB.Get(Ctx, key).Result()
}

func CacheGetBytes(key string) ([]byte, error) {
	return RDB.Get(Ctx, key).Bytes()
}

func CacheDel(key string) error {
	_, err := RDB.Del(Ctx, key).Result()

	return err
}
