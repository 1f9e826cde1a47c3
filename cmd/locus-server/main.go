// Command locus-server serves a prepared repository over HTTP.
//
// Configuration comes from flags, a config file, or LOCUS_-prefixed
// environment variables, in ascending precedence of flag over file over
// default. The repository layout is described by a JSON manifest; the data
// it names lives in a filesystem or S3 store.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/locusdb/locus/internal/httpapi"
	"github.com/locusdb/locus/locus"
	locuss3 "github.com/locusdb/locus/locus/s3"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("LOCUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "locus-server",
		Short:         "Serve a prepared genomic repository over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}
	flags := serve.Flags()
	flags.String("config", "", "config file path")
	flags.String("listen", ":8000", "listen address")
	flags.String("manifest", "repository.json", "repository manifest path")
	flags.String("storage-kind", "fs", "storage backend: fs or s3")
	flags.String("storage-root", ".", "filesystem storage root")
	flags.String("storage-bucket", "", "s3 bucket")
	flags.String("storage-prefix", "", "s3 key prefix")
	flags.String("storage-region", "", "s3 region")
	flags.String("storage-endpoint", "", "s3 endpoint override, for MinIO and similar")
	flags.Bool("storage-path-style", false, "use path-style s3 addressing")
	flags.String("storage-access-key", "", "static s3 access key; default credential chain when empty")
	flags.String("storage-secret-key", "", "static s3 secret key")
	flags.String("log-level", "info", "log level")
	flags.Int32("default-page-size", locus.DefaultPageSize, "page size applied when requests carry none")
	flags.Int("max-response-bytes", locus.DefaultMaxResponseBytes, "approximate response size budget")
	flags.Bool("validate-responses", false, "verify assembled response bodies parse before sending")
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}

	root.AddCommand(serve)
	return root
}

func runServe(ctx context.Context, v *viper.Viper) error {
	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	log := logrus.New()
	level, err := logrus.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.JSONFormatter{})

	store, err := openStore(ctx, v)
	if err != nil {
		return err
	}

	repository, err := LoadRepository(v.GetString("manifest"), store)
	if err != nil {
		return fmt.Errorf("loading repository: %w", err)
	}

	backendOpts := []locus.BackendOption{
		locus.WithDefaultPageSize(v.GetInt32("default-page-size")),
		locus.WithMaxResponseBytes(v.GetInt("max-response-bytes")),
	}
	if v.GetBool("validate-responses") {
		backendOpts = append(backendOpts, locus.WithResponseValidator(func(body []byte) error {
			if !jsonCodec.Valid(body) {
				return fmt.Errorf("assembled response is not valid JSON")
			}
			return nil
		}))
	}
	backend := locus.NewBackend(repository, backendOpts...)

	server := &http.Server{
		Addr:              v.GetString("listen"),
		Handler:           httpapi.NewServer(backend, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("listen", server.Addr).Info("serving")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, v *viper.Viper) (locus.Store, error) {
	switch kind := v.GetString("storage-kind"); kind {
	case "fs":
		return locus.NewFSStore(v.GetString("storage-root"))
	case "s3":
		opts := []func(*config.LoadOptions) error{}
		if region := v.GetString("storage-region"); region != "" {
			opts = append(opts, config.WithRegion(region))
		}
		if key := v.GetString("storage-access-key"); key != "" {
			opts = append(opts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(key, v.GetString("storage-secret-key"), "")))
		}
		cfg, err := config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("loading aws config: %w", err)
		}
		client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
			if endpoint := v.GetString("storage-endpoint"); endpoint != "" {
				o.BaseEndpoint = &endpoint
			}
			o.UsePathStyle = v.GetBool("storage-path-style")
		})
		return locuss3.New(client, locuss3.Config{
			Bucket: v.GetString("storage-bucket"),
			Prefix: v.GetString("storage-prefix"),
		})
	default:
		return nil, fmt.Errorf("unknown storage kind %q", kind)
	}
}
