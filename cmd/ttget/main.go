// Command ttget is a small command-line client for a Tokyo Tyrant
// server: enough to put a key, get a key, or print rnum/stat, for manual
// testing against a real or fake server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tyrant-go/gotyrant"
	"github.com/tyrant-go/gotyrant/internal/logging"
)

func main() {
	var (
		addr    = flag.String("addr", "127.0.0.1:1978", "host:port of the tyrant server")
		op      = flag.String("op", "get", "operation: get, put, out, rnum, stat")
		key     = flag.String("key", "", "key for get/put/out")
		value   = flag.String("value", "", "value for put")
		timeout = flag.Duration("timeout", 5*time.Second, "request timeout")
		verbose = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	opts := tyrant.DefaultOptions()
	opts.Logger = logger

	client, err := tyrant.Dial(*addr, opts)
	if err != nil {
		logger.Error("dial failed", "addr", *addr, "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := run(ctx, client, *op, *key, *value); err != nil {
		logger.Error("operation failed", "op", *op, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, client *tyrant.Client, op, key, value string) error {
	done := make(chan error, 1)

	switch op {
	case "get":
		client.Get(ctx, []byte(key), func(v []byte, err error) {
			if err == nil {
				fmt.Println(string(v))
			}
			done <- err
		})
	case "put":
		client.Put(ctx, []byte(key), []byte(value), func(err error) {
			done <- err
		})
	case "out":
		client.Out(ctx, []byte(key), func(err error) {
			done <- err
		})
	case "rnum":
		client.RNum(ctx, func(n uint64, err error) {
			if err == nil {
				fmt.Println(n)
			}
			done <- err
		})
	case "stat":
		client.Stat(ctx, func(stat string, err error) {
			if err == nil {
				fmt.Println(stat)
			}
			done <- err
		})
	default:
		return fmt.Errorf("ttget: unknown op %q", op)
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
