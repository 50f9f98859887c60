// Command snapshot exports users and notes to S3 and manages old exports.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"notes-api/internal/config"
	"notes-api/internal/service"
	"notes-api/internal/storage"
	"notes-api/internal/store"
)

func main() {
	list := flag.Bool("list", false, "list existing snapshots instead of exporting")
	keep := flag.Int("keep", 0, "after exporting, delete all but the newest N snapshots")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	if *keep < 0 {
		logger.Fatalf("keep must not be negative")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer st.Close(context.Background())

	snapshots := service.NewSnapshotService(st.Users, st.Notes, storageSvc, service.SnapshotOptions{
		Bucket:    cfg.Storage.Bucket,
		KeyPrefix: cfg.Storage.KeyPrefix,
	})

	if *list {
		objects, err := snapshots.List(ctx)
		if err != nil {
			logger.Fatalf("list snapshots: %v", err)
		}
		for _, obj := range objects {
			modified := "-"
			if obj.LastModified != nil {
				modified = obj.LastModified.UTC().Format("2006-01-02 15:04:05")
			}
			fmt.Printf("%s\t%d\t%s\n", modified, obj.Size, obj.Key)
		}
		return
	}

	location, err := snapshots.Export(ctx)
	if err != nil {
		logger.Fatalf("export snapshot: %v", err)
	}
	logger.WithField("location", location).Info("snapshot exported")

	if *keep > 0 {
		removed, err := snapshots.Prune(ctx, *keep)
		if err != nil {
			logger.Fatalf("prune snapshots: %v", err)
		}
		logger.WithField("removed", len(removed)).Info("old snapshots pruned")
	}
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
