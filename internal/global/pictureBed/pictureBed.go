// Package pictureBed 对象存储：活动封面直传和导出文件托管
package pictureBed

import (
	"activity-assistant/config"
	"context"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

type PictureBed struct {
	Bucket       string
	Prefix       string
	BaseURL      string
	Endpoint     string
	UsePathStyle bool

	s3Client *s3.Client
	uploader *manager.Uploader
}

// Default 未配置 S3 时为 nil
var Default *PictureBed

func Init(ctx context.Context) error {
	cfg := config.Get().S3
	if !cfg.Enabled() {
		return nil
	}
	pb, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	Default = pb
	return nil
}

func New(ctx context.Context, cfg config.S3) (*PictureBed, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &PictureBed{
		Bucket:       cfg.Bucket,
		Prefix:       cfg.Prefix,
		BaseURL:      cfg.BaseURL,
		Endpoint:     cfg.Endpoint,
		UsePathStyle: cfg.UsePathStyle,
		s3Client:     client,
		uploader:     manager.NewUploader(client),
	}, nil
}

// key 拼上配置的前缀
func (pb *PictureBed) key(parts ...string) string {
	return strings.TrimLeft(path.Join(append([]string{strings.Trim(pb.Prefix, "/")}, parts...)...), "/")
}

// FileURL 公开读的访问地址，私有桶请用预签名下载
func (pb *PictureBed) FileURL(key string) string {
	base := strings.TrimRight(pb.BaseURL, "/")
	if base == "" {
		base = strings.TrimRight(pb.Endpoint, "/")
	}
	if pb.UsePathStyle {
		return base + "/" + pb.Bucket + "/" + key
	}
	return base + "/" + key
}
