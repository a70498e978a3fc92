// Command korenode operates the persisted state of a ledger node: it opens
// any of the supported storage backends and exposes the collections for
// inspection and repair.
//
//	korenode -backend sqlite -path node.db list subject
//	korenode -backend pebble -path data/db last event 'subj-1'
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/kore-ledger/korenode/internal/config"
	"github.com/kore-ledger/korenode/internal/store"
	"github.com/kore-ledger/korenode/pkg/db"
	"github.com/kore-ledger/korenode/pkg/db/bolt"
	"github.com/kore-ledger/korenode/pkg/db/pebble"
	"github.com/kore-ledger/korenode/pkg/db/sqlite"
	"github.com/kore-ledger/korenode/pkg/log"
)

const usage = `usage: korenode [flags] <command> [args]

commands:
  collections                 list the collection names used by the node
  list <collection> [prefix]  scan a collection in key order
  last <collection> <prefix>  newest entry of a key range (reverse scan)
  get <collection> <key>      print one value
  put <collection> <key> <value>
  del <collection> <key>
  seed <collection> <n>       write n sample entries with random keys
`

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	backend := flag.String("backend", "", "storage backend override (pebble|sqlite|bolt)")
	path := flag.String("path", "", "storage path override")
	logLevel := flag.String("log-level", "", "log level override")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Storage.Backend = *backend
	}
	if *path != "" {
		cfg.Storage.Path = *path
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	level, err := log.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	loggerType := log.ConsoleLogger
	if cfg.Log.Format == "json" {
		loggerType = log.JSONLogger
	}
	log.Init(log.Options{LogLevel: level, Type: loggerType})

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(cfg, flag.Args()); err != nil {
		log.Root.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func run(cfg *config.Config, args []string) error {
	if args[0] == "collections" {
		for _, name := range []string{
			store.CollSubject, store.CollEvent, store.CollRequest,
			store.CollSignature, store.CollWitnessSignatures, store.CollGovernanceIndex,
		} {
			fmt.Println(name)
		}
		return nil
	}

	if err := cfg.EnsureDir(); err != nil {
		return err
	}
	manager, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer manager.Close()

	log.Store.Debug().
		Str("backend", cfg.Storage.Backend).
		Str("path", cfg.Storage.Path).
		Msg("store open")

	switch args[0] {
	case "list":
		if len(args) < 2 {
			return fmt.Errorf("list: collection name required")
		}
		prefix := ""
		if len(args) > 2 {
			prefix = args[2]
		}
		return list(manager, args[1], prefix)

	case "last":
		if len(args) < 3 {
			return fmt.Errorf("last: collection name and prefix required")
		}
		return last(manager, args[1], args[2])

	case "get":
		if len(args) < 3 {
			return fmt.Errorf("get: collection name and key required")
		}
		coll, err := manager.CreateCollection(args[1])
		if err != nil {
			return err
		}
		value, err := coll.Get(args[2])
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", value)
		return nil

	case "put":
		if len(args) < 4 {
			return fmt.Errorf("put: collection name, key and value required")
		}
		coll, err := manager.CreateCollection(args[1])
		if err != nil {
			return err
		}
		return coll.Put(args[2], []byte(args[3]))

	case "del":
		if len(args) < 3 {
			return fmt.Errorf("del: collection name and key required")
		}
		coll, err := manager.CreateCollection(args[1])
		if err != nil {
			return err
		}
		return coll.Delete(args[2])

	case "seed":
		if len(args) < 3 {
			return fmt.Errorf("seed: collection name and count required")
		}
		n, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("seed: count: %w", err)
		}
		return seed(manager, args[1], n)

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func openBackend(cfg *config.Config) (db.Manager, error) {
	switch cfg.Storage.Backend {
	case config.BackendPebble:
		return pebble.Open(cfg.Storage.Path)
	case config.BackendSQLite:
		return sqlite.Open(cfg.Storage.Path)
	case config.BackendBolt:
		return bolt.Open(cfg.Storage.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func list(manager db.Manager, collection, prefix string) error {
	coll, err := manager.CreateCollection(collection)
	if err != nil {
		return err
	}
	it, err := coll.Iter(false, prefix)
	if err != nil {
		return err
	}
	defer it.Close()

	count := 0
	for it.Next() {
		fmt.Printf("%q\t%s\n", it.Key(), it.Value())
		count++
	}
	log.Store.Debug().Int("entries", count).Str("collection", collection).Msg("scan done")
	return nil
}

func last(manager db.Manager, collection, prefix string) error {
	coll, err := manager.CreateCollection(collection)
	if err != nil {
		return err
	}
	it, err := coll.Iter(true, prefix)
	if err != nil {
		return err
	}
	defer it.Close()

	if !it.Next() {
		return db.ErrEntryNotFound
	}
	fmt.Printf("%q\t%s\n", it.Key(), it.Value())
	return nil
}

func seed(manager db.Manager, collection string, n int) error {
	coll, err := manager.CreateCollection(collection)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		key := uuid.NewString()
		if err := coll.Put(key, []byte(fmt.Sprintf("sample-%d", i))); err != nil {
			return err
		}
	}
	log.Store.Info().Int("entries", n).Str("collection", collection).Msg("seeded")
	return nil
}
