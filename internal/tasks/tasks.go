package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/politologod/vibes-marketplace/internal/config"
	"github.com/politologod/vibes-marketplace/internal/services"
	"github.com/politologod/vibes-marketplace/internal/storage"
	"github.com/politologod/vibes-marketplace/internal/utils"
)

// TypeImageProcess is the task type for image normalization.
const TypeImageProcess = "image:process"

// QueueImages is the queue the image worker consumes.
const QueueImages = "images"

// NewClient creates an asynq client sharing the Redis connection settings.
func NewClient(rdb *redis.Client) *asynq.Client {
	opts := rdb.Options()
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// ImageTaskPayload carries everything the image worker needs.
type ImageTaskPayload struct {
	S3Key     string `json:"s3_key"`
	ProductID string `json:"product_id"`
}

// NewImageProcessTask builds the queued task for a freshly uploaded image.
func NewImageProcessTask(s3Key string, productID utils.SixID) (*asynq.Task, error) {
	payload, err := json.Marshal(ImageTaskPayload{S3Key: s3Key, ProductID: productID.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image task payload: %w", err)
	}
	return asynq.NewTask(TypeImageProcess, payload, asynq.Queue(QueueImages)), nil
}

// TaskProcessor holds the dependencies the task handlers need.
type TaskProcessor struct {
	cfg            *config.Config
	storageService storage.IS3Storage
	productService services.IProductService
}

// NewTaskProcessor creates a new TaskProcessor.
func NewTaskProcessor(cfg *config.Config, storageService storage.IS3Storage, productService services.IProductService) *TaskProcessor {
	return &TaskProcessor{
		cfg:            cfg,
		storageService: storageService,
		productService: productService,
	}
}

// SetupServer configures an Asynq server consuming the image queue. The
// caller runs it and owns shutdown.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	opts := rdb.Options()
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: opts.Addr, Password: opts.Password, DB: opts.DB},
		asynq.Config{
			Queues: map[string]int{
				QueueImages: 5,
				"default":   1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)

	return srv, mux
}

// HandleImageProcessTask normalizes an uploaded product image: downloads it,
// resizes anything over the configured max dimension, re-encodes as JPEG and
// overwrites the original object.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}

	productID, err := utils.ParseSixID(payload.ProductID)
	if err != nil {
		return fmt.Errorf("invalid product ID in payload: %w", asynq.SkipRetry)
	}

	imgData, contentType, err := p.storageService.Download(ctx, payload.S3Key)
	if err != nil {
		if strings.Contains(err.Error(), "NoSuchKey") {
			log.Printf("Object %s not found, upload likely failed.", payload.S3Key)
			return fmt.Errorf("object not found: %w", asynq.SkipRetry)
		}
		return fmt.Errorf("failed to download image: %w", err)
	}

	maxSizeBytes := int64(p.cfg.ImageMaxSizeMB) * 1024 * 1024
	if int64(len(imgData)) > maxSizeBytes {
		return fmt.Errorf("image %s exceeds max size (%d bytes): %w", payload.S3Key, len(imgData), asynq.SkipRetry)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}

	maxDim := uint(p.cfg.ImageMaxDimension)
	if uint(img.Bounds().Dx()) <= maxDim && uint(img.Bounds().Dy()) <= maxDim {
		log.Printf("Image %s (%s, %dx%d) within limits, no processing needed.",
			payload.S3Key, format, img.Bounds().Dx(), img.Bounds().Dy())
		return nil
	}

	resized := resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("failed to re-encode resized image: %w", err)
	}
	contentType = "image/jpeg"

	if err := p.storageService.Overwrite(ctx, payload.S3Key, contentType, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to upload processed image: %w", err)
	}

	// Bump the product's update stamp so clients drop cached copies of the
	// rewritten image. A deleted product is no reason to retry.
	if err := p.productService.TouchProduct(ctx, productID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			log.Printf("Product %s gone before image %s finished processing.", payload.ProductID, payload.S3Key)
			return nil
		}
		return fmt.Errorf("failed to stamp product after image processing: %w", err)
	}

	log.Printf("Image task processed: Key=%s, ProductID=%s, resized to %dx%d",
		payload.S3Key, payload.ProductID, resized.Bounds().Dx(), resized.Bounds().Dy())
	return nil
}
