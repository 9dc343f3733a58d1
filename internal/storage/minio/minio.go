// minio выгружает готовые файлы отчёта в MinIO/S3.
// minio.go — конструктор клиента: нормализует endpoint, настраивает Secure/creds
// и проверяет наличие целевого бакета.
// archive.go — выгрузка файлов отчёта под ключами "<prefix>/<дата>/<run_id>/<имя>".
package minio

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pribylovaa/hn-digest/internal/config"
)

// ReportArchive — адаптер MinIO для архивирования отчётов.
type ReportArchive struct {
	cfg    config.ArchiveConfig
	client *mclient.Client
}

// New создает клиент MinIO и выполняет fail-fast-проверку бакета.
func New(ctx context.Context, cfg config.ArchiveConfig) (*ReportArchive, error) {
	const op = "storage.minio.New"

	endpoint := cfg.Endpoint
	secure := strings.HasPrefix(endpoint, "https://")

	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !exists {
		return nil, fmt.Errorf("%s: bucket %q does not exist", op, cfg.Bucket)
	}

	return &ReportArchive{cfg: cfg, client: client}, nil
}
