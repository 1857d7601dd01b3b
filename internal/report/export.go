package report

import (
	"bytes"
	"context"
	"log/slog"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/metalens/internal/config"
	"github.com/vango-dev/metalens/internal/errors"
	"github.com/vango-dev/metalens/pkg/seo"
)

// Uploader is the subset of the S3 client the exporter uses.
type Uploader interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ Uploader = (*s3.Client)(nil)

// NewS3Client builds an S3 client from export settings. Credentials and
// any unset region come from the default AWS chain: environment, shared
// config and credentials files, SSO, and instance or task roles.
func NewS3Client(ctx context.Context, cfg config.ExportConfig) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.New(errors.CodeExport).WithDetail("loading AWS configuration").Wrap(err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// S3Exporter archives reports to a bucket as
// <prefix><domain>/<id>.html and <prefix><domain>/<id>.json.
type S3Exporter struct {
	client Uploader
	bucket string
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

// NewS3Exporter creates an exporter writing to bucket under prefix.
func NewS3Exporter(client Uploader, bucket, prefix string, logger *slog.Logger) *S3Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Exporter{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger.With("component", "export"),
		now:    time.Now,
	}
}

// Export uploads the HTML and JSON reports of res and returns their keys.
func (e *S3Exporter) Export(ctx context.Context, res *seo.Result) ([]string, error) {
	htmlBody, err := HTML(res)
	if err != nil {
		return nil, errors.New(errors.CodeExport).WithDetail("rendering HTML report").Wrap(err)
	}
	jsonBody, err := JSON(res)
	if err != nil {
		return nil, errors.New(errors.CodeExport).WithDetail("rendering JSON report").Wrap(err)
	}

	domain := res.Domain
	if domain == "" {
		domain = "unknown"
	}
	base := e.prefix + path.Join(domain, res.ID)

	objects := []struct {
		key         string
		contentType string
		body        []byte
	}{
		{base + ".html", "text/html; charset=utf-8", htmlBody},
		{base + ".json", "application/json", jsonBody},
	}

	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(e.bucket),
			Key:         aws.String(obj.key),
			Body:        bytes.NewReader(obj.body),
			ContentType: aws.String(obj.contentType),
			Metadata: map[string]string{
				"analysis-id": res.ID,
				"url":         res.URL,
				"export-time": e.now().UTC().Format(time.RFC3339),
			},
		})
		if err != nil {
			return keys, errors.New(errors.CodeExport).WithDetail("uploading " + obj.key).Wrap(err)
		}
		keys = append(keys, obj.key)
		e.logger.Info("report exported", "bucket", e.bucket, "key", obj.key, "bytes", len(obj.body))
	}
	return keys, nil
}
