package internal

import (
	"cube-race/domain"
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Config is the configuration of a node, read from the environment. A .env
// file in the working directory is loaded first when present.
type Config struct {
	NodeID         string `env:"NODE_ID" validate:"omitempty,max=64"`
	BadgerFilepath string `env:"BADGER_FILEPATH,default=./data/badger"`
	BadgerInMemory bool   `env:"BADGER_IN_MEMORY,default=false"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	Host           string `env:"HOST,default=0.0.0.0"`
	Port           int    `env:"PORT,default=8080" validate:"min=1,max=65535"`

	PopTimeout            time.Duration `env:"POP_TIMEOUT,default=30s" validate:"gt=0"`
	DeletionGrace         time.Duration `env:"DELETION_GRACE,default=5s" validate:"gt=0"`
	LeaseTTL              time.Duration `env:"LEASE_TTL,default=90s" validate:"gtfield=PopTimeout"`
	OwnershipScanInterval time.Duration `env:"OWNERSHIP_SCAN_INTERVAL,default=15s" validate:"gt=0"`
	RestartInterval       time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
	HeartbeatInterval     time.Duration `env:"HEARTBEAT_INTERVAL,default=5s" validate:"gt=0"`
	ShutdownTimeout       time.Duration `env:"SHUTDOWN_TIMEOUT,default=40s" validate:"gt=0"`
	QueueDepthInterval    time.Duration `env:"QUEUE_DEPTH_INTERVAL,default=10s" validate:"gt=0"`
	BacklogThreshold      int           `env:"BACKLOG_THRESHOLD,default=100" validate:"gt=0"`

	// Store picks where rooms, queues and leases live: "badger" keeps them
	// on this node, "nats" shares them with every node of the cluster
	// through a JetStream key-value bucket.
	Store           string        `env:"STORE,default=badger" validate:"oneof=badger nats"`
	KVBucket        string        `env:"KV_BUCKET,default=cube-race" validate:"required,excludesall=.*>"`
	KVReplicas      int           `env:"KV_REPLICAS,default=1" validate:"min=1,max=5"`
	CompactInterval time.Duration `env:"KV_COMPACT_INTERVAL,default=10m" validate:"gt=0"`

	NatsURL        string `env:"NATS_URL" validate:"required_if=Store nats"`
	BroadcastTopic string `env:"BROADCAST_TOPIC,default=cube-race.room-events" validate:"required"`
	BufferSize     int64  `env:"BROADCAST_BUFFER_SIZE,default=256" validate:"gte=0"`

	JWTSecret         string        `env:"JWT_SECRET,required=true" validate:"min=16"`
	TokenDuration     time.Duration `env:"TOKEN_DURATION,default=24h" validate:"gt=0"`
	AckTimeout        time.Duration `env:"ACK_TIMEOUT,default=5s" validate:"gt=0"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,default=2s" validate:"gt=0"`
	CommandsPerSecond float64       `env:"COMMANDS_PER_SECOND,default=10" validate:"gt=0"`
	CommandBurst      int           `env:"COMMAND_BURST,default=20" validate:"gt=0"`
	OutputBufferSize  int           `env:"OUTPUT_BUFFER_SIZE,default=64" validate:"gt=0"`

	CensoredWordsDir string `env:"CENSORED_WORDS_DIR"`
	CensorCharacter  string `env:"CENSOR_CHARACTER,default=*" validate:"len=1"`

	// ScrambleSeed makes scrambles reproducible, zero picks a random seed.
	ScrambleSeed uint64 `env:"SCRAMBLE_SEED,default=0"`
}

// LoadConfig reads the node configuration and checks it.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) Validate() error {
	if err := domain.Validator().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// CharacterRune returns the single character of str.
func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("CENSOR_CHARACTER must be a single character, got %q", str)
	}
	return r[0], nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
