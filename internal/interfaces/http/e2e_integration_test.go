//go:build integration
// +build integration

package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careoptions/rcm-dashboard/internal/infrastructure/assets"
	rediscache "github.com/careoptions/rcm-dashboard/internal/infrastructure/cache/redis"
	"github.com/careoptions/rcm-dashboard/internal/infrastructure/metrics"
	s3storage "github.com/careoptions/rcm-dashboard/internal/infrastructure/storage/s3"
	"github.com/careoptions/rcm-dashboard/internal/interfaces/http/handler"
	"github.com/careoptions/rcm-dashboard/pkg/logger"
)

type integrationEnv struct {
	s3Endpoint  string
	s3Region    string
	s3AccessKey string
	s3SecretKey string
	s3Bucket    string
	redisHost   string
	redisPort   string
}

func loadIntegrationEnv() integrationEnv {
	return integrationEnv{
		s3Endpoint:  getenv("INTEGRATION_S3_ENDPOINT", "http://localhost:9000"),
		s3Region:    getenv("INTEGRATION_S3_REGION", "us-east-1"),
		s3AccessKey: getenv("INTEGRATION_S3_ACCESS_KEY", "minioadmin"),
		s3SecretKey: getenv("INTEGRATION_S3_SECRET_KEY", "minioadmin"),
		s3Bucket:    getenv("INTEGRATION_S3_BUCKET", "rcm-dashboard-e2e"),
		redisHost:   getenv("INTEGRATION_REDIS_HOST", "localhost"),
		redisPort:   getenv("INTEGRATION_REDIS_PORT", "6379"),
	}
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func TestE2EIntegrationBucketAssets(t *testing.T) {
	env := loadIntegrationEnv()
	ctx := context.Background()
	prefix := "run-" + time.Now().UTC().Format("20060102150405")

	client := newS3Client(t, env)
	ensureBucket(t, client, env.s3Bucket)
	putObject(t, client, env.s3Bucket, prefix+"/index.html", indexHTML)
	putObject(t, client, env.s3Bucket, prefix+"/kpi_map.json", kpiMapJSON)
	putObject(t, client, env.s3Bucket, prefix+"/reports/index.html", "<p>reports</p>")

	var logs bytes.Buffer
	log := logger.NewWithWriter(&logs, "error", logger.FormatText)

	bucket, err := s3storage.NewBucketFS(ctx, s3storage.Config{
		Bucket:          env.s3Bucket,
		Prefix:          prefix,
		Region:          env.s3Region,
		Endpoint:        env.s3Endpoint,
		AccessKeyID:     env.s3AccessKey,
		SecretAccessKey: env.s3SecretKey,
		UsePathStyle:    true,
		RequestTimeout:  5 * time.Second,
	})
	require.NoError(t, err)

	cache, err := rediscache.NewRedisCache(rediscache.Options{
		Host:        env.redisHost,
		Port:        env.redisPort,
		TTL:         time.Minute,
		DialTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	fsys := assets.NewCachedFS(bucket, cache, assets.CachedFSOptions{
		KeyPrefix: "e2e:" + prefix + ":",
		OnHit:     m.AssetCacheHits.Inc,
		OnMiss:    m.AssetCacheMisses.Inc,
	}, log)

	manifest := assets.NewManifest(bucket, []string{"index.html", "kpi_map.json", "people_data.json"}, log)
	manifest.Refresh()

	router := NewRouter(
		handler.NewHealthHandler(),
		handler.NewDataHandler(),
		handler.NewProbeHandler(manifest),
		handler.NewStaticHandler(fsys, time.Minute, log),
		RouterOptions{Metrics: m},
		log,
	)
	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)

	res := do(t, http.MethodGet, server.URL+"/kpi_map.json")
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, kpiMapJSON, res.body)
	assert.Equal(t, "public, max-age=60", res.header.Get("Cache-Control"))

	res = do(t, http.MethodGet, server.URL+"/")
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, indexHTML, res.body)

	res = do(t, http.MethodGet, server.URL+"/reports/")
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "<p>reports</p>", res.body)

	assert.Equal(t, http.StatusNotFound, do(t, http.MethodGet, server.URL+"/people_data.json").status)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, http.MethodGet, server.URL+"/readyz").status)

	// the first read populates the cache asynchronously
	assert.Eventually(t, func() bool {
		do(t, http.MethodGet, server.URL+"/kpi_map.json")
		return testutil.ToFloat64(m.AssetCacheHits) > 0
	}, 5*time.Second, 100*time.Millisecond)
}

func newS3Client(t *testing.T, env integrationEnv) *s3.Client {
	t.Helper()

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(env.s3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(env.s3AccessKey, env.s3SecretKey, "")),
	)
	require.NoError(t, err)

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(env.s3Endpoint)
		o.UsePathStyle = true
	})
}

func ensureBucket(t *testing.T, client *s3.Client, bucket string) {
	t.Helper()

	_, err := client.CreateBucket(context.Background(), &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
			return
		}
	}
	require.NoError(t, err)
}

func putObject(t *testing.T, client *s3.Client, bucket, key, body string) {
	t.Helper()

	_, err := client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   strings.NewReader(body),
	})
	require.NoError(t, err)
}
