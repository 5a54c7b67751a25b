// Command adkiosk runs the platform ad rotation widget against a server and
// logs every ad it would display.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"biscuits/internal/domain"
	"biscuits/internal/logger"
	"biscuits/internal/rotation"
	"biscuits/internal/rotation/httpstore"
)

type options struct {
	server   string
	token    string
	period   time.Duration
	duration time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.server, "server", "http://localhost:8080", "Biscuits server URL")
	flag.StringVar(&opts.token, "token", os.Getenv("BISCUITS_TOKEN"), "bearer token of the viewer, empty for anonymous")
	flag.DurationVar(&opts.period, "period", rotation.DefaultPeriod, "rotation period")
	flag.DurationVar(&opts.duration, "duration", 0, "stop after this long, 0 runs until interrupted")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	log := logger.New(*level, "")
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run(ctx, opts, log)
}

// run mounts the widget and keeps it rotating until ctx is done or the
// configured duration elapses.
func run(ctx context.Context, opts options, log *logger.Logger) *rotation.MemoryHost {
	var clientOpts []httpstore.Option
	if opts.token != "" {
		clientOpts = append(clientOpts, httpstore.WithToken(opts.token))
	}
	store := httpstore.New(opts.server, clientOpts...)

	host := rotation.NewMemoryHost()
	host.OnShow = func(containerID string, ad domain.PlatformAd, markup string) {
		log.Info("ad displayed", "container", containerID, "ad_id", ad.ID, "title", ad.Title, "markup", markup)
	}

	ctrl := rotation.New(store, host, rotation.WithPeriod(opts.period), rotation.WithLogger(log))
	ctrl.Mount(ctx)
	log.Info("widget mounted", "state", ctrl.State().String(), "server", opts.server)

	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}
	<-ctx.Done()

	ctrl.Close()
	log.Info("widget unmounted")
	return host
}
