package main

import (
	"context"
	"cube-race/auth"
	"cube-race/contract"
	"cube-race/domain"
	"cube-race/domain/event"
	"cube-race/infrastructure/gateway"
	"cube-race/infrastructure/kvstore"
	"cube-race/infrastructure/storage"
	"cube-race/internal"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	color.Enable = cfg.Colours

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "roomctl",
		Usage: "inspect and drive cube-race rooms",
		Commands: []*cli.Command{
			{
				Name:  "rooms",
				Usage: "list rooms, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "size", Value: gateway.DefaultPageSize},
				},
				Action: func(c *cli.Context) error {
					return withRooms(c.Context, cfg, func(store contract.RoomStore) error {
						page, err := store.GetRoomsPage(c.Int("page"), c.Int("size"), true)
						if err != nil {
							return err
						}
						renderRooms(c.App.Writer, page)
						return nil
					})
				},
			},
			{
				Name:      "room",
				Usage:     "show the standings of a room",
				ArgsUsage: "<room id>",
				Action: func(c *cli.Context) error {
					roomID := c.Args().First()
					if roomID == "" {
						return cli.Exit("a room id is required", 2)
					}
					return withRooms(c.Context, cfg, func(store contract.RoomStore) error {
						room, err := store.GetRoom(roomID)
						if err != nil {
							return err
						}
						renderStandings(c.App.Writer, room)
						return nil
					})
				},
			},
			{
				Name:  "keys",
				Usage: "dump raw store keys",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "prefix", Value: "room:"},
					&cli.IntFlag{Name: "limit", Value: 100},
				},
				Action: func(c *cli.Context) error {
					if cfg.Store == "nats" {
						return cli.Exit("keys only reads a Badger store", 2)
					}
					return withStore(cfg, func(db *badger.DB, _ *storage.RoomStore) error {
						rows, err := internal.ScanKeys(db, c.String("prefix"), c.Int("limit"), nil)
						if err != nil {
							return err
						}
						renderKeys(c.App.Writer, rows)
						return nil
					})
				},
			},
			{
				Name:  "token",
				Usage: "issue a token for a user",
				Flags: userFlags(),
				Action: func(c *cli.Context) error {
					token, err := issueToken(cfg, c)
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintln(c.App.Writer, token)
					return nil
				},
			},
			{
				Name:      "send",
				Usage:     "send a command to a room and wait for its ack",
				ArgsUsage: "<room id> <command> [json args]",
				Flags:     append(userFlags(), &cli.StringFlag{Name: "password"}),
				Action: func(c *cli.Context) error {
					if c.NArg() < 2 {
						return cli.Exit("a room id and a command are required", 2)
					}
					client, err := newClient(cfg, c)
					if err != nil {
						return err
					}
					req := gateway.CommandRequest{RoomID: c.Args().Get(0), Event: domain.CommandName(c.Args().Get(1))}
					if raw := c.Args().Get(2); raw != "" {
						if !json.Valid([]byte(raw)) {
							return cli.Exit("args must be valid JSON", 2)
						}
						req.Args = json.RawMessage(raw)
					}
					if c.IsSet("password") {
						req.Password = c.String("password")
					}
					ack, err := client.send(c.Context, req)
					if err != nil {
						return err
					}
					if !ack.OK {
						return cli.Exit(alertStyle.Render("rejected: "+ack.Error), 1)
					}
					_, _ = fmt.Fprintln(c.App.Writer, finishStyle.Render("ok"))
					return nil
				},
			},
			{
				Name:      "watch",
				Usage:     "stream the events of a room",
				ArgsUsage: "<room id>",
				Flags:     append(userFlags(), &cli.IntFlag{Name: "max-payload", Value: 160}),
				Action: func(c *cli.Context) error {
					roomID := c.Args().First()
					if roomID == "" {
						return cli.Exit("a room id is required", 2)
					}
					client, err := newClient(cfg, c)
					if err != nil {
						return err
					}
					return client.watch(c.Context, roomID, func(e event.RoomEvent) {
						_, _ = fmt.Fprintln(c.App.Writer, formatEvent(e, c.Int("max-payload")))
					})
				},
			},
		},
	}
	return app.RunContext(ctx, args)
}

func userFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "user", Value: "roomctl", Usage: "user id carried by the token"},
		&cli.StringFlag{Name: "name", Value: "roomctl", Usage: "display name carried by the token"},
	}
}

func issueToken(cfg Config, c *cli.Context) (string, error) {
	if cfg.JWTSecret == "" {
		return "", cli.Exit("JWT_SECRET is required to issue tokens", 2)
	}
	return auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenDuration).GenerateToken(c.String("user"), c.String("name"))
}

func newClient(cfg Config, c *cli.Context) (*nodeClient, error) {
	token, err := issueToken(cfg, c)
	if err != nil {
		return nil, err
	}
	return &nodeClient{baseURL: cfg.NodeURL, token: token, http: &http.Client{Timeout: 30 * time.Second}}, nil
}

// withStore opens the store read only, next to a running node.
func withStore(cfg Config, fn func(db *badger.DB, store *storage.RoomStore) error) error {
	opts := badger.DefaultOptions(cfg.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()
	return fn(db, storage.NewRoomStore(db, logs.GetLoggerFromString("ERROR"), storage.DefaultDeletionGrace))
}

// withRooms reads rooms from the store the nodes are configured with.
func withRooms(ctx context.Context, cfg Config, fn func(store contract.RoomStore) error) error {
	if cfg.Store != "nats" {
		return withStore(cfg, func(_ *badger.DB, store *storage.RoomStore) error { return fn(store) })
	}
	log := logs.GetLoggerFromString("ERROR")
	bucket, err := kvstore.Attach(ctx, log, cfg.NatsURL, cfg.KVBucket)
	if err != nil {
		return err
	}
	defer func() { _ = bucket.Close() }()
	return fn(kvstore.NewRoomStore(bucket, log, kvstore.DefaultDeletionGrace))
}
