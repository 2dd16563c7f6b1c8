package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"evictioncrm/internal/auth"
	"evictioncrm/internal/blob"
	"evictioncrm/internal/casework"
	"evictioncrm/internal/config"
	"evictioncrm/internal/crm"
	"evictioncrm/internal/httpapi"
	"evictioncrm/internal/metrics"
	"evictioncrm/internal/notify"
)

// filesPrefix is where the API serves fs and memory blobs.
const filesPrefix = "/files/"

type app struct {
	echo    *echo.Echo
	store   *crm.Store
	notices *notify.Queue
}

// buildApp wires the store, blob publisher, lifecycle service and API from
// cfg. statePath, when set, replaces the seed with an exported snapshot.
func buildApp(ctx context.Context, cfg *config.Config, log *zap.Logger, statePath string) (*app, error) {
	recorder := metrics.New(cfg.Metrics.Prefix)

	storeOpts := []crm.Option{crm.WithLogger(log.Named("store")), crm.WithMetrics(recorder)}
	switch {
	case statePath != "":
		st, err := readState(statePath)
		if err != nil {
			return nil, err
		}
		storeOpts = append(storeOpts, crm.WithState(st))
	case !cfg.Seed:
		storeOpts = append(storeOpts, crm.WithoutSeed())
	}
	store := crm.NewStore(storeOpts...)

	blobs, err := blob.Open(ctx, blob.Config{
		Driver:      cfg.Blob.Driver,
		FSRoot:      cfg.Blob.FSRoot,
		FilesPrefix: filesPrefix,
		S3: blob.S3Config{
			Bucket:    cfg.Blob.S3.Bucket,
			Region:    cfg.Blob.S3.Region,
			Endpoint:  cfg.Blob.S3.Endpoint,
			PathStyle: cfg.Blob.S3.PathStyle,
		},
	})
	if err != nil {
		return nil, err
	}
	publisher := blob.NewPublisher(blobs,
		blob.WithPublicBase(cfg.Blob.PublicURL),
		blob.WithPublisherLogger(log.Named("blob")))

	notices := notify.New(notify.WithRemoveDelay(cfg.Notify.RemoveDelay), notify.WithLogger(log.Named("notify")))
	cases := casework.New(store,
		casework.WithUploader(publisher),
		casework.WithNotifier(notices),
		casework.WithUploadRecorder(recorder),
		casework.WithLogger(log.Named("casework")))

	gate, err := newGate(cfg, log)
	if err != nil {
		return nil, err
	}

	deps := httpapi.Deps{
		Store:   store,
		Cases:   cases,
		Gate:    gate,
		Notices: notices,
		Metrics: recorder,
		Logger:  log,
	}
	if blobs.Driver() != blob.DriverS3 {
		deps.Blobs = blobs
	}
	return &app{echo: httpapi.New(deps), store: store, notices: notices}, nil
}

func newGate(cfg *config.Config, log *zap.Logger) (*auth.Gate, error) {
	secret := cfg.Auth.Secret
	if secret == "" {
		log.Warn("EVICTIONCRM_AUTH_SECRET not set; using the development secret")
		secret = auth.DevSecret
	}
	return auth.NewGate(secret, auth.WithTTL(cfg.Auth.TTL), auth.WithLogger(log.Named("auth")))
}

func readState(path string) (crm.State, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return crm.State{}, fmt.Errorf("read state: %w", err)
	}
	st := crm.NewState()
	if err := json.Unmarshal(raw, &st); err != nil {
		return crm.State{}, fmt.Errorf("decode state %s: %w", path, err)
	}
	return st, nil
}
