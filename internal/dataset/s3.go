// Copyright 2026 The mripipes Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store is a dataset backend over an S3 bucket/prefix. Scalar values
// are one object each, keyed "<prefix>/kv/<key>"; chunks live at
// "<prefix>/chunks/<key>" with an "x-amz-meta-elem-size" object metadata
// entry recording the element width.
//
// Writes are buffered in memory per key and flushed as a single PutObject
// on Close, since S3 has no byte-range write (UploadPartCopy exists but
// requires multipart bookkeeping this tool does not need for dataset
// sizes driven through a local pipeline run). A long-running write phase
// therefore holds its dirty chunks in memory until the run's terminal
// Destroy/Close.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string

	mu     sync.Mutex
	dirty  map[string][]byte
	sizes  map[string]int
}

// OpenS3Store builds an S3-backed store using the default AWS credential
// chain (environment, shared config, IMDS).
func OpenS3Store(ctx context.Context, bucket, prefix string) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("dataset: loading AWS config: %w", err)
	}
	return &S3Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: strings.TrimSuffix(prefix, "/"),
		dirty:  make(map[string][]byte),
		sizes:  make(map[string]int),
	}, nil
}

func (s *S3Store) kvKey(key string) string    { return s.prefix + "/kv/" + key }
func (s *S3Store) chunkKey(key string) string { return s.prefix + "/chunks/" + key }

func (s *S3Store) IterateKeys(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	for _, dir := range []string{s.prefix + "/kv/", s.prefix + "/chunks/"} {
		paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
			Bucket: aws.String(s.bucket),
			Prefix: aws.String(dir),
		})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, fmt.Errorf("dataset: listing %s: %w", dir, err)
			}
			for _, obj := range page.Contents {
				seen[strings.TrimPrefix(aws.ToString(obj.Key), dir)] = true
			}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *S3Store) IsChunk(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.chunkKey(key)),
	})
	return err == nil, nil
}

func (s *S3Store) GetString(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.kvKey(key)),
	})
	if err != nil {
		return "", ErrNotFound
	}
	defer out.Body.Close()
	b, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("dataset: reading %q: %w", key, err)
	}
	return string(b), nil
}

func (s *S3Store) SetString(ctx context.Context, key, value string) error {
	s.mu.Lock()
	delete(s.dirty, key)
	delete(s.sizes, key)
	s.mu.Unlock()
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.chunkKey(key)),
	}); err != nil {
		return fmt.Errorf("dataset: clearing chunk %q: %w", key, err)
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.kvKey(key)),
		Body:   strings.NewReader(value),
	})
	if err != nil {
		return fmt.Errorf("dataset: writing %q: %w", key, err)
	}
	return nil
}

func (s *S3Store) CreateChunk(ctx context.Context, key string, n int64, elemSize int) error {
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.kvKey(key)),
	}); err != nil {
		return fmt.Errorf("dataset: clearing scalar %q: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty[key] = make([]byte, n*int64(elemSize))
	s.sizes[key] = elemSize
	return nil
}

func (s *S3Store) ReadChunk(ctx context.Context, key string, offset, n int64, p []byte) (int64, error) {
	s.mu.Lock()
	if data, ok := s.dirty[key]; ok {
		elemSize := s.sizes[key]
		s.mu.Unlock()
		return readChunkBytes(data, int64(elemSize), offset, n, p)
	}
	s.mu.Unlock()

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.chunkKey(key)),
	})
	if err != nil {
		return 0, ErrNotFound
	}
	elemSize, err := strconv.Atoi(head.Metadata["elem-size"])
	if err != nil {
		return 0, fmt.Errorf("dataset: chunk %q missing elem-size metadata", key)
	}

	start := offset * int64(elemSize)
	want := n * int64(elemSize)
	rng := fmt.Sprintf("bytes=%d-%d", start, start+want-1)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.chunkKey(key)),
		Range:  aws.String(rng),
	})
	if err != nil {
		return 0, nil // short/out-of-range read: non-fatal, zero elements
	}
	defer out.Body.Close()
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return 0, fmt.Errorf("dataset: reading chunk %q: %w", key, err)
	}
	got := copy(p, buf.Bytes())
	return int64(got) / int64(elemSize), nil
}

func readChunkBytes(data []byte, elemSize, offset, n int64, p []byte) (int64, error) {
	total := int64(len(data)) / elemSize
	avail := total - offset
	if avail <= 0 {
		return 0, nil
	}
	got := n
	if got > avail {
		got = avail
	}
	start := offset * elemSize
	end := start + got*elemSize
	copy(p, data[start:end])
	return got, nil
}

func (s *S3Store) WriteChunk(ctx context.Context, key string, offset, n int64, p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	elemSize, ok := s.sizes[key]
	if !ok {
		return fmt.Errorf("dataset: chunk %q was never created", key)
	}
	data := s.dirty[key]
	start := offset * int64(elemSize)
	end := start + n*int64(elemSize)
	if end > int64(len(data)) {
		grown := make([]byte, end)
		copy(grown, data)
		data = grown
	}
	copy(data[start:end], p)
	s.dirty[key] = data
	return nil
}

func (s *S3Store) Close() error {
	ctx := context.Background()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, data := range s.dirty {
		elemSize := s.sizes[key]
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:   aws.String(s.bucket),
			Key:      aws.String(s.chunkKey(key)),
			Body:     bytes.NewReader(data),
			Metadata: map[string]string{"elem-size": strconv.Itoa(elemSize)},
		})
		if err != nil {
			return fmt.Errorf("dataset: flushing chunk %q: %w", key, err)
		}
	}
	return nil
}
