package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BadgerFilepath string        `envconfig:"BADGER_FILEPATH" default:"./data/badger"`
	Store          string        `envconfig:"STORE" default:"badger"`
	NatsURL        string        `envconfig:"NATS_URL"`
	KVBucket       string        `envconfig:"KV_BUCKET" default:"cube-race"`
	JWTSecret      string        `envconfig:"JWT_SECRET"`
	TokenDuration  time.Duration `envconfig:"TOKEN_DURATION" default:"24h"`
	NodeURL        string        `envconfig:"ROOMCTL_NODE_URL" default:"http://localhost:8080"`
	Colours        bool          `envconfig:"ROOMCTL_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
