// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

// Package archive writes sync summaries to an S3-compatible bucket so run
// history survives warehouse rebuilds.
//
// Objects are keyed <prefix>/YYYY/MM/DD/<name>.json using the UTC date of
// the upload. Archival is best-effort: the orchestrator logs failures and
// never fails a sync because of them.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/goccy/go-json"

	"github.com/tomtom215/beaconkpi/internal/config"
	"github.com/tomtom215/beaconkpi/internal/logging"
)

const defaultRegion = "us-east-1"

// ErrNoBucket is returned by New when archival is not configured.
var ErrNoBucket = errors.New("archive bucket required")

// S3Archiver uploads JSON documents to one bucket.
type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
	now    func() time.Time
}

// New builds an archiver from cfg. Credentials come from the default AWS
// chain (environment, shared config, instance role). A custom endpoint
// switches to path-style addressing for MinIO and similar servers.
func New(ctx context.Context, cfg config.ArchiveConfig, optFns ...func(*awsconfig.LoadOptions) error) (*S3Archiver, error) {
	if !cfg.Enabled() {
		return nil, ErrNoBucket
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	loadOpts := append([]func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}, optFns...)
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Archiver{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		now:    time.Now,
	}, nil
}

// Key returns the object key for name uploaded at t.
func (a *S3Archiver) Key(name string, t time.Time) string {
	t = t.UTC()
	return path.Join(a.prefix, t.Format("2006"), t.Format("01"), t.Format("02"), name+".json")
}

// Archive marshals v as JSON and uploads it under name.
func (a *S3Archiver) Archive(ctx context.Context, name string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode archive %s: %w", name, err)
	}

	key := a.Key(name, a.now())
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("upload archive s3://%s/%s: %w", a.bucket, key, err)
	}

	logging.Debug().Str("bucket", a.bucket).Str("key", key).Int("bytes", len(body)).Msg("Archived document")
	return nil
}
