package minio

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"time"

	mclient "github.com/minio/minio-go/v7"

	"github.com/pribylovaa/hn-digest/internal/pkg/log"
)

// Upload выгружает файлы отчёта и возвращает ключи созданных объектов.
// Ключ: "<prefix>/<YYYY-MM-DD>/<runID>/<имя файла>".
// Первая же ошибка прерывает выгрузку; уже загруженные ключи возвращаются вместе с ней.
func (a *ReportArchive) Upload(ctx context.Context, runID string, generated time.Time, files []string) ([]string, error) {
	const op = "storage.minio.Upload"

	keys := make([]string, 0, len(files))
	for _, f := range files {
		key := objectKey(a.cfg.Prefix, runID, generated, f)

		info, err := a.client.FPutObject(ctx, a.cfg.Bucket, key, f, mclient.PutObjectOptions{
			ContentType: contentType(f),
		})
		if err != nil {
			return keys, fmt.Errorf("%s: put %s: %w", op, key, err)
		}

		log.From(ctx).Info("report_archived",
			slog.String("op", op),
			slog.String("bucket", a.cfg.Bucket),
			slog.String("key", key),
			slog.Int64("size", info.Size),
		)

		keys = append(keys, key)
	}

	return keys, nil
}

func objectKey(prefix, runID string, generated time.Time, file string) string {
	return path.Join(prefix, generated.UTC().Format("2006-01-02"), runID, filepath.Base(file))
}

func contentType(file string) string {
	switch filepath.Ext(file) {
	case ".json":
		return "application/json"
	case ".html":
		return "text/html; charset=utf-8"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
