// internal/report/s3_uploader.go
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"logsift/internal/config"
	"logsift/internal/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfgLib "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// putObjectAPI 는 S3Uploader 가 쓰는 s3.Client 메서드. (테스트에서 대체)
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader는 로컬에 쓰인 리포트 파일을 S3 로 올린다.
//
// 모든 업로드는 컨텍스트 기반(timeout + cancel-safe)이며
// 재시도(backoff)는 애플리케이션 레벨에서만 한다. (SDK retry = 0)
type S3Uploader struct {
	cfg     config.Config
	metrics *metrics.Metrics
	client  putObjectAPI
}

// NewS3Uploader는 AWS SDK Config를 로드하고 S3 client를 생성한다.
func NewS3Uploader(ctx context.Context, cfg config.Config, m *metrics.Metrics) (*S3Uploader, error) {
	awsCfg, err := awsCfgLib.LoadDefaultConfig(ctx, awsCfgLib.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.RetryMaxAttempts = 0
	})

	return newS3Uploader(cfg, m, client), nil
}

func newS3Uploader(cfg config.Config, m *metrics.Metrics, client putObjectAPI) *S3Uploader {
	if m == nil {
		m = metrics.New()
	}
	return &S3Uploader{cfg: cfg, metrics: m, client: client}
}

// BuildS3Key
// ------------------------------------------------------------
// 리포트 S3 Key 생성기.
//
//	<prefix>/dt=<YYYY-MM-DD>/<instance>_<unix>/<filename>
//
// 같은 날 여러 번 실행해도 run 디렉토리로 구분된다.
func BuildS3Key(prefix, instanceID string, runAt time.Time, filename string) string {
	runAt = runAt.UTC()
	return fmt.Sprintf("%s/dt=%s/%s_%d/%s", prefix, runAt.Format("2006-01-02"), instanceID, runAt.Unix(), filename)
}

// UploadAll 은 paths 의 파일을 순서대로 올린다.
// 하나라도 최종 실패하면 나머지는 계속 시도하고, 마지막 에러를 반환한다.
func (u *S3Uploader) UploadAll(ctx context.Context, runAt time.Time, paths []string) error {
	var lastErr error

	for _, path := range paths {
		key := BuildS3Key(u.cfg.ReportPrefix, u.cfg.InstanceID, runAt, filepath.Base(path))
		if err := u.uploadPath(ctx, key, path); err != nil {
			log.Error().Err(err).Str("key", key).Msg("report upload failed")
			lastErr = err
			continue
		}
		atomic.AddInt64(&u.metrics.S3FilesUploaded, 1)
		log.Info().Str("bucket", u.cfg.ReportBucket).Str("key", key).Msg("report uploaded")
	}

	return lastErr
}

func (u *S3Uploader) uploadPath(ctx context.Context, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	return u.UploadFileWithRetryCtx(ctx, key, f, info.Size())
}

// UploadFileWithRetryCtx
// -----------------------
// 로컬 파일을 그대로 S3로 업로드한다.
// - io.ReadSeeker를 사용하여 retry 시 Seek(0)으로 rewind
// - shutdown-safe + exponential backoff (최대 2초)
func (u *S3Uploader) UploadFileWithRetryCtx(
	ctx context.Context,
	key string,
	f io.ReadSeeker,
	size int64,
) error {

	var lastErr error
	backoff := 200 * time.Millisecond

	for attempt := 1; attempt <= u.cfg.S3AppRetries; attempt++ {

		// shutdown 체크
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// retry 시 파일 포인터를 처음으로 되돌린다 (반드시 필요)
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}

		if err := u.putObject(ctx, key, f, size); err == nil {
			return nil
		} else {
			lastErr = err
			atomic.AddInt64(&u.metrics.S3PutErrorsTotal, 1)
			log.Warn().Err(err).Str("key", key).Int("attempt", attempt).Msg("s3 put failed")
		}

		if attempt == u.cfg.S3AppRetries {
			break
		}

		// backoff 적용
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > 2*time.Second {
				backoff = 2 * time.Second
			}
		}
	}

	return lastErr
}

// putObject
// ---------
// 실제 PutObject 1회 호출. retry 는 caller 가 제어한다.
func (u *S3Uploader) putObject(
	ctx context.Context,
	key string,
	body io.Reader,
	size int64,
) error {

	// 1회 시도당 timeout 적용
	ctx2, cancel := context.WithTimeout(ctx, u.cfg.S3Timeout)
	defer cancel()

	_, err := u.client.PutObject(ctx2, &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.ReportBucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	})

	return err
}
