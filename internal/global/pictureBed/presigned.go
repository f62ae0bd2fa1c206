package pictureBed

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

const (
	uploadExpire   = 15 * time.Minute
	downloadExpire = time.Hour
)

// CoverTypes 允许的封面格式及扩展名
var CoverTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type PresignedUpload struct {
	UploadURL string            `json:"upload_url"`
	FileKey   string            `json:"file_key"`
	FileURL   string            `json:"file_url"` // 上传成功后写回活动的 image 字段
	ExpiresAt time.Time         `json:"expires_at"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"` // 上传时必须原样带上
}

// PresignCoverUpload 前端拿到 URL 后直接 PUT 到对象存储
func (pb *PictureBed) PresignCoverUpload(ctx context.Context, activityID, contentType string) (*PresignedUpload, error) {
	ext, ok := CoverTypes[contentType]
	if !ok {
		return nil, errors.Errorf("unsupported content type %q", contentType)
	}
	now := time.Now()
	key := pb.key("covers", activityID, fmt.Sprintf("%d%s", now.UnixNano(), ext))

	req, err := s3.NewPresignClient(pb.s3Client).PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(pb.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(uploadExpire))
	if err != nil {
		return nil, errors.Wrap(err, "presign put")
	}

	headers := map[string]string{"Content-Type": contentType}
	for k, v := range req.SignedHeader {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	return &PresignedUpload{
		UploadURL: req.URL,
		FileKey:   key,
		FileURL:   pb.FileURL(key),
		ExpiresAt: now.Add(uploadExpire),
		Method:    req.Method,
		Headers:   headers,
	}, nil
}

// PresignDownload 私有对象的临时下载地址
func (pb *PictureBed) PresignDownload(ctx context.Context, key string) (string, error) {
	req, err := s3.NewPresignClient(pb.s3Client).PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(pb.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(downloadExpire))
	if err != nil {
		return "", errors.Wrap(err, "presign get")
	}
	return req.URL, nil
}

// UploadExport 上传导出文件并返回预签名下载地址
func (pb *PictureBed) UploadExport(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := pb.key("exports", time.Now().Format("20060102"), name)
	_, err := pb.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(pb.Bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(data),
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", name)),
	})
	if err != nil {
		return "", errors.Wrap(err, "upload export")
	}
	return pb.PresignDownload(ctx, key)
}
