// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/leseb/featuregw/pkg/audiostore"
	"github.com/leseb/featuregw/pkg/provider"
)

func init() {
	audiostore.Providers.Register("s3", func(ctx context.Context, params provider.Params) (audiostore.Store, error) {
		return New(ctx, Options{
			Bucket:   params["bucket"],
			Region:   params["region"],
			Prefix:   params["prefix"],
			Endpoint: params["endpoint"],
		})
	})
}

// compile-time check
var _ audiostore.Store = (*Store)(nil)

// Options configures the S3 backend.
type Options struct {
	Bucket   string // required
	Region   string // e.g. "us-east-1"
	Prefix   string // key prefix, e.g. "audio/"
	Endpoint string // custom endpoint for MinIO compatibility
}

// Store implements audiostore.Store backed by S3 (or MinIO).
//
// Object layout:
//
//	<prefix><name>
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// New creates an S3-backed Store.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 audio store: bucket is required")
	}

	optFns := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	s3Opts := []func(*s3.Options){}
	if opts.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true // required for MinIO
		})
	}

	return &Store{
		client: s3.NewFromConfig(cfg, s3Opts...),
		bucket: opts.Bucket,
		prefix: opts.Prefix,
	}, nil
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

// Put uploads data, replacing any object under the same key.
func (s *Store) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := audiostore.ValidateName(name); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put audio: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key(name)), nil
}

// Get downloads the object stored under name.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	if err := audiostore.ValidateName(name); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("audio %s: %w", name, audiostore.ErrNotFound)
		}
		return nil, fmt.Errorf("get audio: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio body: %w", err)
	}
	return data, nil
}

// Remove deletes the object stored under name.
func (s *Store) Remove(ctx context.Context, name string) error {
	if err := audiostore.ValidateName(name); err != nil {
		return err
	}
	// DeleteObject succeeds for missing keys, so check existence first
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("audio %s: %w", name, audiostore.ErrNotFound)
		}
		return fmt.Errorf("head audio: %w", err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return fmt.Errorf("delete audio: %w", err)
	}
	return nil
}

// Close is a no-op for the S3 store.
func (s *Store) Close(_ context.Context) error {
	return nil
}

// isNotFound checks whether the error indicates a missing S3 object.
func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	// Some S3-compatible services return a generic "NotFound" status.
	return strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "NotFound")
}
