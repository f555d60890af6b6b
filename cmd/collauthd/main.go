package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"xdao.co/collauth/accounts"
	"xdao.co/collauth/accounts/grpcstore"
	"xdao.co/collauth/accounts/registry"
	"xdao.co/collauth/accounts/storeconfig"
	"xdao.co/collauth/config"
	"xdao.co/collauth/gateway"
	"xdao.co/collauth/gateway/grpcgate"
	"xdao.co/collauth/internal/logging"
	"xdao.co/collauth/mplcore/coresim"
	"xdao.co/collauth/runtime"

	_ "xdao.co/collauth/accounts/localfs"
	_ "xdao.co/collauth/accounts/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	cfg, err := config.ParseEnv()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	fs := pflag.NewFlagSet("collauthd", pflag.ContinueOnError)
	fs.SetOutput(errOut)
	configFile := fs.String("config", "", "daemon config file (YAML); flags override it")
	backend := fs.String("backend", "memory", "account store backend name (ignored with --store-config)")
	listBackends := fs.Bool("list-backends", false, "list supported backends and exit")
	cfg.RegisterFlags(fs)
	registry.RegisterFlags(fs, registry.UsageDaemon)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *listBackends {
		for _, b := range registry.List(registry.UsageDaemon) {
			if b.Description == "" {
				fmt.Fprintf(out, "%s\n", b.Name)
				continue
			}
			fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	}

	if *configFile != "" {
		changed := map[string]string{}
		fs.Visit(func(f *pflag.Flag) { changed[f.Name] = f.Value.String() })
		if err := cfg.MergeFile(*configFile); err != nil {
			fmt.Fprintln(errOut, err)
			return 2
		}
		for name, v := range changed {
			_ = fs.Set(name, v)
		}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	if err := serve(ctx, cfg, *backend, log); err != nil {
		log.Error("collauthd stopped", zap.Error(err))
		return 1
	}
	return 0
}

func serve(ctx context.Context, cfg config.Config, backend string, log *zap.Logger) error {
	program, err := cfg.Program()
	if err != nil {
		return err
	}

	store, closeStore, err := storeconfig.OpenFileOrBackend(cfg.StoreConfig, backend, registry.UsageDaemon)
	if err != nil {
		return fmt.Errorf("open account store: %w", err)
	}
	if closeStore != nil {
		defer func() { _ = closeStore() }()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []runtime.Option{
		runtime.WithLogger(log.Named("runtime")),
		runtime.WithRegisterer("collauth", reg),
		runtime.WithJournal(runtime.NewJournal(cfg.JournalLimit)),
	}
	if cfg.TrustedCallers {
		log.Warn("transaction signature checks are disabled")
		opts = append(opts, runtime.WithTrustedCallers())
	}
	host, err := runtime.NewHost(program, opts...)
	if err != nil {
		return err
	}
	if err := host.Register(coresim.New(store)); err != nil {
		return err
	}
	gw, err := gateway.New(gateway.Config{
		Program:  program,
		Accounts: store,
		Invoker:  host,
		Logger:   log.Named("gateway"),
	})
	if err != nil {
		return err
	}

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return err
	}
	srv := newGatewayServer(host, gw, store, log)

	var admin *grpc.Server
	if cfg.AdminListen != "" {
		adminLis, err := net.Listen("tcp", cfg.AdminListen)
		if err != nil {
			_ = lis.Close()
			return err
		}
		admin = newAdminServer(store)
		go func() {
			if err := admin.Serve(adminLis); err != nil {
				log.Error("admin server", zap.Error(err))
			}
		}()
		log.Info("create-only account store listening", zap.String("addr", adminLis.Addr().String()))
	}

	var metricsSrv *http.Server
	if cfg.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: cfg.MetricsListen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server", zap.Error(err))
			}
		}()
	}

	go func() {
		<-ctx.Done()
		srv.GracefulStop()
		if admin != nil {
			admin.GracefulStop()
		}
		if metricsSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
	}()

	log.Info("collauthd listening",
		zap.String("addr", lis.Addr().String()),
		zap.String("metrics", cfg.MetricsListen),
		zap.Stringer("program", program),
		zap.String("backend", backend),
	)
	return srv.Serve(lis)
}

// newGatewayServer serves the gateway and a read-only view of the account
// store. Account writes on this listener would bypass the host's locks and
// the creator check.
func newGatewayServer(host *runtime.Host, gw *gateway.Gateway, store accounts.Store, log *zap.Logger) *grpc.Server {
	srv := grpc.NewServer()
	grpcgate.RegisterGatewayServer(srv, &grpcgate.Server{Host: host, Gateway: gw, Logger: log.Named("grpc")})
	grpcstore.RegisterAccountsServer(srv, &grpcstore.Server{Store: store, Writes: grpcstore.ReadOnly})
	return srv
}

// newAdminServer serves a create-only account store, enough for
// init-collection to create a collection and bind its record remotely.
func newAdminServer(store accounts.Store) *grpc.Server {
	srv := grpc.NewServer()
	grpcstore.RegisterAccountsServer(srv, &grpcstore.Server{Store: store, Writes: grpcstore.CreateOnly})
	return srv
}
