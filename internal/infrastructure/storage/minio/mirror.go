// Package minio implements the best-effort document mirror of aggregated
// ingredient records. The relational store stays authoritative; the mirror
// serves bulk export and offline analysis, and a write failure never fails
// the resolution that triggered it.
package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/labelwise/labelwise/internal/config"
	"github.com/labelwise/labelwise/internal/domain/ingredient"
	"github.com/labelwise/labelwise/internal/infrastructure/monitoring/logging"
	"github.com/labelwise/labelwise/pkg/errors"
)

// Mirror stores one JSON object per canonical name under
// "records/<canonical name>.json".
type Mirror struct {
	client *miniogo.Client
	bucket string
	logger logging.Logger
}

// NewMirror connects to the object store and ensures the bucket exists.
func NewMirror(ctx context.Context, cfg config.MinIOConfig, log logging.Logger) (*Mirror, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeMirrorError, "building object store client")
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	exists, err := client.BucketExists(checkCtx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeMirrorError, "checking mirror bucket")
	}
	if !exists {
		if err := client.MakeBucket(checkCtx, cfg.Bucket, miniogo.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(err, errors.CodeMirrorError, "creating mirror bucket")
		}
		log.Info("created mirror bucket", logging.String("bucket", cfg.Bucket))
	}
	return &Mirror{client: client, bucket: cfg.Bucket, logger: log}, nil
}

var _ ingredient.Mirror = (*Mirror)(nil)

func objectName(name ingredient.CanonicalName) string {
	return "records/" + string(name) + ".json"
}

// Put writes the record as one JSON object, replacing any previous version.
func (m *Mirror) Put(ctx context.Context, record ingredient.Record) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "encoding record")
	}
	_, err = m.client.PutObject(ctx, m.bucket,
		objectName(ingredient.CanonicalName(record.CanonicalName)),
		bytes.NewReader(raw), int64(len(raw)),
		miniogo.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeMirrorError, "writing mirror object")
	}
	return nil
}

// Get reads the mirrored record, or a not_found error.
func (m *Mirror) Get(ctx context.Context, name ingredient.CanonicalName) (*ingredient.Record, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, objectName(name), miniogo.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeMirrorError, "opening mirror object")
	}
	defer obj.Close()

	raw, err := io.ReadAll(obj)
	if err != nil {
		resp := miniogo.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil, errors.Newf(errors.CodeNotFound, "no mirrored record for %q", name)
		}
		return nil, errors.Wrap(err, errors.CodeMirrorError, "reading mirror object")
	}
	var record ingredient.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, errors.Wrap(err, errors.CodeMirrorError, "decoding mirrored record")
	}
	return &record, nil
}
