// Package mirror copies mentor-queue attachments to the media CDN.
package mirror

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"campuslog/internal/cloudinary"
	"campuslog/internal/complaints"
	"campuslog/internal/queue"
)

// Uploader sends a file to remote storage and returns its public result.
type Uploader interface {
	UploadVideo(ctx context.Context, filename string, r io.Reader) (*cloudinary.UploadResult, error)
}

// Worker handles attachment.stored messages.
type Worker struct {
	repo     *complaints.Repository
	uploader Uploader
	logger   *zap.Logger
}

// NewWorker creates a worker. A nil uploader makes every message a no-op.
func NewWorker(repo *complaints.Repository, uploader Uploader, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{repo: repo, uploader: uploader, logger: logger}
}

// Run consumes q until ctx is done.
func (w *Worker) Run(ctx context.Context, q queue.Queue) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	w.logger.Info("attachment mirror started", zap.Bool("uploader", w.uploader != nil))
	for msg := range messages {
		if err := w.Handle(ctx, msg); err != nil {
			w.logger.Warn("attachment mirror failed", zap.Int64("mentor_item", msg.ID), zap.Error(err))
		}
	}
	w.logger.Info("attachment mirror stopped")
	return nil
}

// Handle mirrors one attachment. Items already mirrored are skipped.
func (w *Worker) Handle(ctx context.Context, msg queue.Message) error {
	if msg.Type != queue.TypeAttachmentStored || w.uploader == nil {
		return nil
	}
	item, err := w.repo.GetMentorItem(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("load mentor item: %w", err)
	}
	if item == nil {
		w.logger.Warn("mentor item vanished", zap.Int64("mentor_item", msg.ID))
		return nil
	}
	if item.VideoURL != nil {
		return nil
	}

	f, err := os.Open(item.VideoPath)
	if err != nil {
		return fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	res, err := w.uploader.UploadVideo(ctx, filepath.Base(item.VideoPath), f)
	if err != nil {
		return err
	}
	if err := w.repo.SetMentorVideoURL(ctx, item.ID, res.SecureURL); err != nil {
		return fmt.Errorf("save video url: %w", err)
	}
	w.logger.Info("attachment mirrored", zap.Int64("mentor_item", item.ID), zap.String("url", res.SecureURL))
	return nil
}
