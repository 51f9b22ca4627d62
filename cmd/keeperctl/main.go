// keeperctl is a small command line client for poking at a coordination
// tree. Without a config file it runs against the in-memory engine, which is
// enough to try the commands out:
//
//	keeperctl -root /demo create /node somedata
//	keeperctl -config keeper.yaml get /clickhouse/task_queue
package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/mikekulinski/keeperclient/pkg/config"
	"github.com/mikekulinski/keeperclient/pkg/coordination"
	"github.com/mikekulinski/keeperclient/pkg/keeper"
	"github.com/mikekulinski/keeperclient/pkg/logger"
	"github.com/mikekulinski/keeperclient/pkg/memkeeper"
)

// bootstrapChroot creates the chroot node through an unchrooted session so
// that the chrooted client's root validation passes.
func bootstrapChroot(cfg keeper.Config, chroot string, opts []keeper.Option) error {
	cfg.Chroot = ""
	admin, err := keeper.New(context.Background(), cfg, opts...)
	if err != nil {
		return err
	}
	defer admin.Close()

	if err := admin.CreateAncestors(chroot); err != nil {
		return err
	}
	return admin.CreateIfNotExists(chroot, nil)
}

func main() {
	configPath := flag.String("config", "", "YAML configuration file; empty runs the in-memory engine")
	root := flag.String("root", "", "chroot to apply on top of the configured one")
	level := flag.String("level", "info", "log level")
	flag.Parse()

	log := logger.New(logger.Config{Level: *level, Encoding: "console", Service: "keeperctl"})
	defer log.Sync()

	if err := run(log, *configPath, *root, flag.Args()); err != nil {
		log.Fatal("command failed", zap.Error(err))
	}
}

func run(log *zap.Logger, configPath, root string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: keeperctl [flags] <create|get|set|ls|rm|rmr|exists|wait> [args]")
	}

	cfg := keeper.Config{Implementation: keeper.ImplementationTestKeeper}
	if configPath != "" {
		parsed, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		cfg, err = parsed.ClientConfig()
		if err != nil {
			return err
		}
	}
	if root != "" {
		cfg.Chroot = cfg.Chroot + root
	}
	if cfg.Chroot != "" {
		chroot, err := keeper.NormalizePath(cfg.Chroot, true, log)
		if err != nil {
			return err
		}
		cfg.Chroot = chroot
	}

	opts := []keeper.Option{keeper.WithLogger(log)}
	if cfg.Implementation == keeper.ImplementationTestKeeper && cfg.Chroot != "" {
		// The in-memory tree starts empty, so the chroot node the client
		// validates at construction has to be created first. All sessions
		// share one tree through the factory. A real deployment creates the
		// root out of band instead.
		tree := memkeeper.New(log)
		opts = append(opts, keeper.WithEngineFactory(func(keeper.EngineConfig) (coordination.Engine, error) {
			return tree.NewSession(), nil
		}))
		if err := bootstrapChroot(cfg, cfg.Chroot, opts); err != nil {
			return err
		}
	}

	client, err := keeper.New(context.Background(), cfg, opts...)
	if err != nil {
		return err
	}
	defer client.Close()

	command, args := args[0], args[1:]
	switch command {
	case "create":
		if len(args) < 1 {
			return fmt.Errorf("usage: create <path> [data]")
		}
		var data []byte
		if len(args) > 1 {
			data = []byte(args[1])
		}
		if err := client.CreateAncestors(args[0]); err != nil {
			return err
		}
		created, err := client.Create(args[0], data, coordination.ModePersistent)
		if err != nil {
			return err
		}
		fmt.Println(created)
		return nil
	case "get":
		if len(args) != 1 {
			return fmt.Errorf("usage: get <path>")
		}
		data, stat, err := client.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s\t(version %d)\n", data, stat.Version)
		return nil
	case "set":
		if len(args) < 2 {
			return fmt.Errorf("usage: set <path> <data> [version]")
		}
		version := coordination.AnyVersion
		if len(args) > 2 {
			parsed, err := strconv.ParseInt(args[2], 10, 32)
			if err != nil {
				return fmt.Errorf("bad version %q: %w", args[2], err)
			}
			version = int32(parsed)
		}
		stat, err := client.Set(args[0], []byte(args[1]), version)
		if err != nil {
			return err
		}
		fmt.Printf("version %d\n", stat.Version)
		return nil
	case "ls":
		if len(args) != 1 {
			return fmt.Errorf("usage: ls <path>")
		}
		names, _, err := client.Children(args[0])
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	case "rm":
		if len(args) != 1 {
			return fmt.Errorf("usage: rm <path>")
		}
		return client.Remove(args[0], coordination.AnyVersion)
	case "rmr":
		if len(args) != 1 {
			return fmt.Errorf("usage: rmr <path>")
		}
		return client.RemoveRecursive(args[0])
	case "exists":
		if len(args) != 1 {
			return fmt.Errorf("usage: exists <path>")
		}
		found, stat, err := client.Exists(args[0])
		if err != nil {
			return err
		}
		if !found {
			fmt.Println("absent")
			return nil
		}
		fmt.Printf("present\t(version %d, children %d)\n", stat.Version, stat.NumChildren)
		return nil
	case "wait":
		if len(args) != 1 {
			return fmt.Errorf("usage: wait <path>")
		}
		disappeared, err := client.WaitForDisappear(args[0], nil)
		if err != nil {
			return err
		}
		if disappeared {
			fmt.Println("gone")
		}
		return nil
	}
	return fmt.Errorf("unknown command %q", command)
}
